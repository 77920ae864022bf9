package main

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"puzzlechain/contract"
	"puzzlechain/sdk"
)

var showEvents bool

var runCmd = &cobra.Command{
	Use:   "run <script.yaml>",
	Short: "Deploy programs and replay a scripted session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadScript(args[0])
		if err != nil {
			return err
		}
		h := contract.NewHost(contract.WithConfig(hostCfg), contract.WithLogger(logger))
		return replay(h, s, cmd.OutOrStdout())
	},
}

func init() {
	runCmd.Flags().BoolVar(&showEvents, "events", false, "print every committed event")
}

// replay deploys and runs every step. A step whose outcome differs from its
// expectation is collected and the session carries on.
func replay(h *contract.Host, s *Script, out io.Writer) error {
	log := h.Logger()
	for _, d := range s.Deploy {
		if err := deploy(h, d); err != nil {
			return errors.Wrapf(err, "deploy %s", d.Address)
		}
		log.Info("deployed", zap.String("program", d.Program), zap.String("address", d.Address.String()))
		if showEvents {
			topic := contract.TopicFor(d.Address)
			if err := h.Subscribe(topic, func(ev sdk.Event) {
				fmt.Fprintf(out, "  event %s %s\n", ev.Contract, ev)
			}); err != nil {
				return errors.Wrapf(err, "subscribe %s", topic)
			}
		}
	}

	var result *multierror.Error
	for i, st := range s.Steps {
		if st.Advance > 0 {
			h.Advance(st.Advance)
		}
		ret, err := h.Dispatch(st.Contract, st.Caller, st.Method, st.Payload)
		label := st.Name
		if label == "" {
			label = fmt.Sprintf("#%d %s.%s", i+1, st.Contract, st.Method)
		}
		if err != nil {
			fmt.Fprintf(out, "%s -> error %s: %v\n", label, contract.KindOf(err), err)
		} else {
			fmt.Fprintf(out, "%s -> %q\n", label, ret)
		}
		if mismatch := check(st, ret, err); mismatch != nil {
			log.Warn("step mismatch", zap.String("step", label), zap.Error(mismatch))
			result = multierror.Append(result, errors.Wrap(mismatch, label))
		}
	}
	return result.ErrorOrNil()
}

func deploy(h *contract.Host, d Deployment) error {
	p, err := lookupProgram(d.Program)
	if err != nil {
		return err
	}
	if err := h.Register(d.Address, p.code); err != nil {
		return err
	}
	return h.Invoke(d.Address, []sdk.Address{d.Admin}, func(ctx *contract.Context) error {
		return p.init(ctx, d.Admin, d.Config)
	})
}

func check(st Step, ret string, err error) error {
	switch {
	case st.Fails != "" && err == nil:
		return errors.Errorf("expected %s, got success", st.Fails)
	case st.Fails != "" && contract.KindOf(err).String() != st.Fails:
		return errors.Errorf("expected %s, got %s", st.Fails, contract.KindOf(err))
	case st.Fails == "" && err != nil:
		return err
	case st.Expect != nil && err == nil && *st.Expect != ret:
		return errors.Errorf("expected %q, got %q", *st.Expect, ret)
	}
	return nil
}
