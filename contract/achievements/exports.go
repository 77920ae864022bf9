package achievements

import (
	"strconv"
	"strings"

	"puzzlechain/contract"
	"puzzlechain/sdk"
)

// parsePuzzleIDs reads "1,2,3".
func parsePuzzleIDs(s string) ([]uint32, error) {
	var out []uint32
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, contract.Invalid("invalid puzzle id " + part)
		}
		out = append(out, uint32(v))
	}
	return out, nil
}

func (a Achievements) Exports() contract.Exports {
	return contract.AdminExports().Merge(contract.Exports{
		// Example payload: "Starter|1,2,3|100|50|rare"
		"create_set": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			name := args.Str(0)
			reward := args.Amount(2, "reward")
			editionCap := args.Uint32(3, "edition cap")
			if err := args.Err(); err != nil {
				return "", err
			}
			ids, err := parsePuzzleIDs(args.Str(1))
			if err != nil {
				return "", err
			}
			rarity, err := ParseRarity(args.Str(4))
			if err != nil {
				return "", err
			}
			id, err := a.CreateSet(ctx, caller, name, ids, reward, editionCap, rarity)
			return strconv.FormatUint(id, 10), err
		},
		"claim_set": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "set id")
			if err := args.Err(); err != nil {
				return "", err
			}
			ed, err := a.ClaimSet(ctx, caller, id)
			return strconv.FormatUint(ed, 10), err
		},
		"transfer_edition": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			to := args.Address(0, "to")
			id := args.Uint(1, "edition id")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", a.TransferEdition(ctx, caller, to, id)
		},
		"deactivate_set": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "set id")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", a.DeactivateSet(ctx, caller, id)
		},
	})
}
