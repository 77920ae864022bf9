package farming

import (
	"strconv"

	"puzzlechain/contract"
	"puzzlechain/sdk"
)

func amountOp(op func(*contract.Context, sdk.Address, uint64, int64) (int64, error)) contract.Method {
	return func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
		id := args.Uint(0, "pool id")
		amount := args.Amount(1, "amount")
		if err := args.Err(); err != nil {
			return "", err
		}
		out, err := op(ctx, caller, id, amount)
		return strconv.FormatInt(out, 10), err
	}
}

func poolOp(op func(*contract.Context, sdk.Address, uint64) (int64, error)) contract.Method {
	return func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
		id := args.Uint(0, "pool id")
		if err := args.Err(); err != nil {
			return "", err
		}
		out, err := op(ctx, caller, id)
		return strconv.FormatInt(out, 10), err
	}
}

func (f Farming) Exports() contract.Exports {
	return contract.AdminExports().Merge(contract.Exports{
		"add_pool": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			token := args.Address(0, "stake token")
			alloc := args.Amount(1, "alloc point")
			lock := args.Uint(2, "lock seconds")
			penalty := args.Uint32(3, "early penalty")
			if err := args.Err(); err != nil {
				return "", err
			}
			id, err := f.AddPool(ctx, caller, token, alloc, lock, penalty)
			return contract.JoinArgs(id), err
		},
		"set_alloc": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "pool id")
			alloc := args.Amount(1, "alloc point")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", f.SetAlloc(ctx, caller, id, alloc)
		},
		"fund_rewards": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			amount := args.Amount(0, "amount")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", f.FundRewards(ctx, caller, amount)
		},
		// Example payload: "1|500"
		"deposit": amountOp(func(ctx *contract.Context, who sdk.Address, id uint64, amount int64) (int64, error) {
			return amount, f.Deposit(ctx, who, id, amount)
		}),
		"withdraw":           amountOp(f.Withdraw),
		"harvest":            poolOp(f.Harvest),
		"emergency_withdraw": poolOp(f.EmergencyWithdraw),
		"pending": func(ctx *contract.Context, _ sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "pool id")
			who := args.Address(1, "staker")
			if err := args.Err(); err != nil {
				return "", err
			}
			out, err := f.PendingReward(ctx, id, who)
			return strconv.FormatInt(out, 10), err
		},
	})
}
