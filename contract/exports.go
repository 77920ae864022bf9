package contract

import (
	"sort"

	"go.uber.org/zap"

	"puzzlechain/sdk"
)

// Method is an externally callable operation addressed by name. caller is the
// principal acting, which is the invoking contract for calls made by governance.
type Method func(ctx *Context, caller sdk.Address, args *Args) (string, error)

// Exports is a program's method table.
type Exports map[string]Method

// Exporter is implemented by every program that can be driven by name, which is
// how multisig and DAO proposals reach other programs.
type Exporter interface {
	Exports() Exports
}

// Names lists the exported method names, sorted.
func (e Exports) Names() []string {
	out := make([]string, 0, len(e))
	for k := range e {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CallExport invokes method on target as the running program. The target runs
// untrusted: the transaction signers do not carry over.
// Example payload: contract.CallExport(ctx, sdk.Contract("lottery"), "set_paused", "true")
func CallExport(ctx *Context, target sdk.Address, method, payload string) (string, error) {
	ex, err := Lookup[Exporter](ctx, target)
	if err != nil {
		return "", err
	}
	m, ok := ex.Exports()[method]
	if !ok {
		return "", NotFound("method " + method)
	}
	args := ParseArgs(payload)
	caller := ctx.Self()
	var ret string
	err = ctx.CallUntrusted(target, func(c *Context) error {
		var err error
		ret, err = m(c, caller, args)
		return err
	})
	ctx.Logger().Debug("export called",
		zap.String("target", target.String()),
		zap.String("method", method),
		zap.Bool("ok", err == nil))
	return ret, err
}

// Dispatch runs a method of the program registered at the top-level address,
// used by the CLI and by tests driving programs by name.
func (h *Host) Dispatch(addr sdk.Address, caller sdk.Address, method, payload string) (string, error) {
	var ret string
	err := h.Invoke(addr, []sdk.Address{caller}, func(ctx *Context) error {
		ex, err := Lookup[Exporter](ctx, addr)
		if err != nil {
			return err
		}
		m, ok := ex.Exports()[method]
		if !ok {
			return NotFound("method " + method)
		}
		args := ParseArgs(payload)
		ret, err = m(ctx, caller, args)
		if err == nil {
			err = args.Err()
		}
		return err
	})
	return ret, err
}

// AdminExports is the method table every program shares: pause and admin handover.
func AdminExports() Exports {
	return Exports{
		"set_paused": func(ctx *Context, caller sdk.Address, args *Args) (string, error) {
			paused := args.Bool(0)
			return "", SetPaused(ctx, caller, paused)
		},
		"set_admin": func(ctx *Context, caller sdk.Address, args *Args) (string, error) {
			next := args.Address(0, "admin")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", SetAdmin(ctx, caller, next)
		},
	}
}

// Merge copies extra into e, later tables win.
func (e Exports) Merge(extra Exports) Exports {
	for k, v := range extra {
		e[k] = v
	}
	return e
}
