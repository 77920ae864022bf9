package fractional

import (
	"strconv"

	"puzzlechain/contract"
	"puzzlechain/sdk"
)

func (f Fractional) Exports() contract.Exports {
	return contract.AdminExports().Merge(contract.Exports{
		"fractionalize": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			nft := args.Address(0, "nft")
			tokenID := args.Uint32(1, "token id")
			total := args.Amount(2, "total shares")
			minBps := args.Uint32(3, "min ownership")
			rental := args.Address(4, "rental token")
			if err := args.Err(); err != nil {
				return "", err
			}
			id, err := f.Fractionalize(ctx, caller, nft, tokenID, total, minBps, rental)
			return strconv.FormatUint(id, 10), err
		},
		"transfer_shares": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			vault := args.Uint(0, "vault")
			to := args.Address(1, "to")
			n := args.Amount(2, "shares")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", f.TransferShares(ctx, caller, vault, to, n)
		},
		"deposit_rental": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			vault := args.Uint(0, "vault")
			amount := args.Amount(1, "amount")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", f.DepositRental(ctx, caller, vault, amount)
		},
		"claim_rental": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			vault := args.Uint(0, "vault")
			if err := args.Err(); err != nil {
				return "", err
			}
			amount, err := f.ClaimRental(ctx, caller, vault)
			return strconv.FormatInt(amount, 10), err
		},
		"tender": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			vault := args.Uint(0, "vault")
			n := args.Amount(1, "shares")
			if err := args.Err(); err != nil {
				return "", err
			}
			paid, err := f.Tender(ctx, caller, vault, n)
			return strconv.FormatInt(paid, 10), err
		},
		"holder": func(ctx *contract.Context, _ sdk.Address, args *contract.Args) (string, error) {
			vault := args.Uint(0, "vault")
			who := args.Address(1, "holder")
			if err := args.Err(); err != nil {
				return "", err
			}
			bal, pending, err := f.Holder(ctx, vault, who)
			return contract.JoinArgs(bal, pending), err
		},
	})
}
