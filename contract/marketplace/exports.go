package marketplace

import (
	"strconv"

	"puzzlechain/contract"
	"puzzlechain/sdk"
)

func idMethod(field string, fn func(ctx *contract.Context, caller sdk.Address, id uint64) error) contract.Method {
	return func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
		id := args.Uint(0, field)
		if err := args.Err(); err != nil {
			return "", err
		}
		return "", fn(ctx, caller, id)
	}
}

func (m Marketplace) Exports() contract.Exports {
	return contract.AdminExports().Merge(contract.Exports{
		// Example payload: "contract:nft|7|contract:token|1000|500|user:artist|0"
		"list": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			p := ListParams{
				NFT:        args.Address(0, "nft"),
				TokenID:    args.Uint32(1, "token id"),
				PayToken:   args.Address(2, "pay token"),
				Price:      args.Amount(3, "price"),
				RoyaltyBps: args.Uint32(4, "royalty"),
			}
			if c := args.Str(5); c != "" {
				p.Creator = args.Address(5, "creator")
			}
			if args.Len() > 6 {
				p.ExpiresAt = args.Uint(6, "expires")
			}
			if err := args.Err(); err != nil {
				return "", err
			}
			id, err := m.List(ctx, caller, p)
			return strconv.FormatUint(id, 10), err
		},
		"buy":            idMethod("listing id", m.Buy),
		"cancel_offer":   idMethod("offer id", m.CancelOffer),
		"reject_offer":   idMethod("offer id", m.RejectOffer),
		"accept_offer":   idMethod("offer id", m.AcceptOffer),
		"accept_counter": idMethod("offer id", m.AcceptCounter),
		"cancel_listing": idMethod("listing id", m.CancelListing),
		"make_offer": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			listing := args.Uint(0, "listing id")
			amount := args.Amount(1, "amount")
			if err := args.Err(); err != nil {
				return "", err
			}
			id, err := m.MakeOffer(ctx, caller, listing, amount)
			return strconv.FormatUint(id, 10), err
		},
		"counter": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "offer id")
			price := args.Amount(1, "price")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", m.Counter(ctx, caller, id, price)
		},
		"update_price": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "listing id")
			price := args.Amount(1, "price")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", m.UpdatePrice(ctx, caller, id, price)
		},
		"expire_listings": func(ctx *contract.Context, _ sdk.Address, args *contract.Args) (string, error) {
			ids := make([]uint64, args.Len())
			for i := range ids {
				ids[i] = args.Uint(i, "listing id")
			}
			if err := args.Err(); err != nil {
				return "", err
			}
			n, err := m.ExpireListings(ctx, ids)
			return strconv.Itoa(n), err
		},
	})
}
