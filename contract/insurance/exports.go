package insurance

import (
	"strconv"

	"puzzlechain/contract"
	"puzzlechain/sdk"
)

func (in Insurance) Exports() contract.Exports {
	return contract.AdminExports().Merge(contract.Exports{
		"underwrite": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			amount := args.Amount(0, "amount")
			if err := args.Err(); err != nil {
				return "", err
			}
			minted, err := in.Underwrite(ctx, caller, amount)
			return strconv.FormatInt(minted, 10), err
		},
		// Example payload: "42|1000|86400|high"
		"buy_policy": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			puzzle := args.Uint32(0, "puzzle id")
			coverage := args.Amount(1, "coverage")
			duration := args.Uint(2, "duration")
			if err := args.Err(); err != nil {
				return "", err
			}
			risk, err := ParseRisk(args.Str(3))
			if err != nil {
				return "", err
			}
			id, err := in.BuyPolicy(ctx, caller, puzzle, coverage, duration, risk)
			return contract.JoinArgs(id), err
		},
		// Example payload: "1|400|ipfs://evidence"
		"file_claim": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			policy := args.Uint(0, "policy id")
			amount := args.Amount(1, "amount")
			if err := args.Err(); err != nil {
				return "", err
			}
			id, err := in.FileClaim(ctx, caller, policy, amount, args.Str(2))
			return contract.JoinArgs(id), err
		},
		"approve_claim": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "claim id")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", in.ApproveClaim(ctx, caller, id)
		},
		"reject_claim": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "claim id")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", in.RejectClaim(ctx, caller, id, args.Str(1))
		},
		"expire_policy": func(ctx *contract.Context, _ sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "policy id")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", in.ExpirePolicy(ctx, id)
		},
		"quote": func(ctx *contract.Context, _ sdk.Address, args *contract.Args) (string, error) {
			coverage := args.Amount(0, "coverage")
			if err := args.Err(); err != nil {
				return "", err
			}
			risk, err := ParseRisk(args.Str(1))
			if err != nil {
				return "", err
			}
			q, err := in.Quote(ctx, coverage, risk)
			return strconv.FormatInt(q, 10), err
		},
	})
}
