package dao

import (
	"strconv"
	"strings"

	"puzzlechain/contract"
	"puzzlechain/contract/kernel/threshold"
	"puzzlechain/sdk"
)

func amountExport(op func(*contract.Context, sdk.Address, int64) error) contract.Method {
	return func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
		amount := args.Amount(0, "amount")
		if err := args.Err(); err != nil {
			return "", err
		}
		return "", op(ctx, caller, amount)
	}
}

func idExport(op func(*contract.Context, sdk.Address, uint64) error) contract.Method {
	return func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
		id := args.Uint(0, "proposal id")
		if err := args.Err(); err != nil {
			return "", err
		}
		return "", op(ctx, caller, id)
	}
}

func (d DAO) Exports() contract.Exports {
	return contract.AdminExports().Merge(contract.Exports{
		"join":    amountExport(d.Join),
		"stake":   amountExport(d.Stake),
		"unstake": amountExport(d.Unstake),
		"delegate": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			to := args.Address(0, "delegate")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", d.Delegate(ctx, caller, to)
		},
		"undelegate": func(ctx *contract.Context, caller sdk.Address, _ *contract.Args) (string, error) {
			return "", d.Undelegate(ctx, caller)
		},
		// Example payload: "treasury|pay the artists|contract:token|user:bob|250"
		"propose_transfer": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			token := args.Address(2, "token")
			to := args.Address(3, "recipient")
			amount := args.Amount(4, "amount")
			if err := args.Err(); err != nil {
				return "", err
			}
			return propose(ctx, d, caller, args, Transfer(token, to, amount))
		},
		// Example payload: "general|mint season rewards|contract:token|mint|user:bob|100"
		"propose_call": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			target := args.Address(2, "target")
			if err := args.Err(); err != nil {
				return "", err
			}
			rest := make([]string, 0, args.Len())
			for i := 4; i < args.Len(); i++ {
				rest = append(rest, args.Str(i))
			}
			return propose(ctx, d, caller, args, Call(target, args.Str(3), strings.Join(rest, "|")))
		},
		// Example payload: "7|for"
		"vote": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "proposal id")
			if err := args.Err(); err != nil {
				return "", err
			}
			choice, err := threshold.ParseChoice(args.Str(1))
			if err != nil {
				return "", err
			}
			return "", d.Vote(ctx, caller, id, choice)
		},
		"finalize": func(ctx *contract.Context, _ sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "proposal id")
			if err := args.Err(); err != nil {
				return "", err
			}
			st, err := d.Finalize(ctx, id)
			return st.String(), err
		},
		"execute":         idExport(d.Execute),
		"cancel":          idExport(d.Cancel),
		"deposit_rewards": amountExport(d.DepositRewards),
		"claim_rewards": func(ctx *contract.Context, caller sdk.Address, _ *contract.Args) (string, error) {
			out, err := d.ClaimRewards(ctx, caller)
			return strconv.FormatInt(out, 10), err
		},
		"deposit": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			token := args.Address(0, "token")
			amount := args.Amount(1, "amount")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", d.Deposit(ctx, caller, token, amount)
		},
		"power": func(ctx *contract.Context, _ sdk.Address, args *contract.Args) (string, error) {
			who := args.Address(0, "member")
			if err := args.Err(); err != nil {
				return "", err
			}
			return strconv.FormatInt(d.VotingPower(ctx, who), 10), nil
		},
	})
}

func propose(ctx *contract.Context, d DAO, caller sdk.Address, args *contract.Args, a Action) (string, error) {
	cat, err := ParseCategory(args.Str(0))
	if err != nil {
		return "", err
	}
	id, err := d.Propose(ctx, caller, cat, args.Str(1), a)
	return contract.JoinArgs(id), err
}
