package subscription

import (
	"strconv"

	"puzzlechain/contract"
	"puzzlechain/sdk"
)

func (ss Subscriptions) Exports() contract.Exports {
	return contract.AdminExports().Merge(contract.Exports{
		"create_plan": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			token := args.Address(0, "token")
			price := args.Amount(1, "price")
			period := args.Uint(2, "period")
			if err := args.Err(); err != nil {
				return "", err
			}
			tier, err := ParseTier(args.Str(3))
			if err != nil {
				return "", err
			}
			id, err := ss.CreatePlan(ctx, caller, token, price, period, tier)
			return contract.JoinArgs(id), err
		},
		// Example payload: "1|3"
		"subscribe": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			plan := args.Uint(0, "plan id")
			periods := args.Uint32(1, "periods")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", ss.Subscribe(ctx, caller, plan, periods)
		},
		"renew": func(ctx *contract.Context, _ sdk.Address, args *contract.Args) (string, error) {
			plan := args.Uint(0, "plan id")
			user := args.Address(1, "user")
			if err := args.Err(); err != nil {
				return "", err
			}
			st, err := ss.Renew(ctx, plan, user)
			return st.String(), err
		},
		"cancel": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			plan := args.Uint(0, "plan id")
			if err := args.Err(); err != nil {
				return "", err
			}
			refund, err := ss.Cancel(ctx, caller, plan)
			return strconv.FormatInt(refund, 10), err
		},
		"withdraw": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			token := args.Address(0, "token")
			if err := args.Err(); err != nil {
				return "", err
			}
			out, err := ss.Withdraw(ctx, caller, token)
			return strconv.FormatInt(out, 10), err
		},
	})
}
