// Package nft is the reference collectible contract: puzzle achievements and
// any other token a program takes into custody.
package nft

import (
	"sort"
	"strconv"

	"puzzlechain/contract"
	"puzzlechain/sdk"
)

const (
	kOwner byte = contract.FirstProgramTag + iota
	kPuzzle
	kMinter
)

func ownerKey(id uint32) contract.Key[sdk.Address] {
	return contract.KeyID[sdk.Address](kOwner, uint64(id))
}

func puzzleKey(id uint32) contract.Key[uint32] {
	return contract.KeyID[uint32](kPuzzle, uint64(id))
}

func minterKey(m sdk.Address) contract.Key[bool] {
	return contract.KeyAddr[bool](kMinter, m)
}

func ownedIndex(owner sdk.Address) string {
	return contract.IndexKey("owned", owner.String())
}

type Config struct {
	Name string `json:"name"`
}

// NFT implements contract.NFT and contract.PuzzleIndex.
type NFT struct{}

func New() *NFT { return &NFT{} }

func (NFT) Init(ctx *contract.Context, admin sdk.Address, cfg Config) error {
	return contract.Initialize(ctx, admin, cfg)
}

// Mint issues a new token for puzzleID to to. Token ids start at 1.
func (NFT) Mint(ctx *contract.Context, minter, to sdk.Address, puzzleID uint32) (uint32, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	admin, err := contract.Admin(ctx)
	if err != nil {
		return 0, err
	}
	if minter != admin && !contract.LoadOr(ctx, minterKey(minter), false) {
		return 0, contract.Unauthorized("not a minter")
	}
	if err := ctx.RequireAuth(minter); err != nil {
		return 0, err
	}
	if !to.IsValid() {
		return 0, contract.Invalid("invalid recipient")
	}
	id := contract.NextID(ctx, "token")
	if id > uint64(^uint32(0)) {
		return 0, contract.Fail(contract.KindExhausted, "token ids exhausted")
	}
	tokenID := uint32(id)
	contract.Store(ctx, ownerKey(tokenID), to)
	contract.Store(ctx, puzzleKey(tokenID), puzzleID)
	contract.AddToIndex(ctx, ownedIndex(to), id)
	ctx.Emit("nmint", sdk.U64("id", id), sdk.U64("pz", uint64(puzzleID)), sdk.Addr("t", to))
	return tokenID, nil
}

func (NFT) AuthorizeMinter(ctx *contract.Context, minter sdk.Address) error {
	admin, err := contract.Admin(ctx)
	if err != nil {
		return err
	}
	if err := ctx.RequireAuth(admin); err != nil {
		return contract.Fail(contract.KindNotAdmin, "admin auth required")
	}
	contract.Store(ctx, minterKey(minter), true)
	return nil
}

func (NFT) OwnerOf(ctx *contract.Context, tokenID uint32) (sdk.Address, error) {
	if err := contract.RequireInitialized(ctx); err != nil {
		return "", err
	}
	return contract.MustLoad(ctx, ownerKey(tokenID), "token")
}

// PuzzleOf is the puzzle a token certifies.
func (NFT) PuzzleOf(ctx *contract.Context, tokenID uint32) (uint32, error) {
	return contract.MustLoad(ctx, puzzleKey(tokenID), "token")
}

// Transfer moves a token; from must own it and consent.
func (NFT) Transfer(ctx *contract.Context, from, to sdk.Address, tokenID uint32) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	owner, err := contract.MustLoad(ctx, ownerKey(tokenID), "token")
	if err != nil {
		return err
	}
	if owner != from {
		return contract.Unauthorized("not token owner")
	}
	if !to.IsValid() {
		return contract.Invalid("invalid recipient")
	}
	if err := ctx.RequireAuth(from); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	contract.Store(ctx, ownerKey(tokenID), to)
	contract.RemoveFromIndex(ctx, ownedIndex(from), uint64(tokenID))
	contract.AddToIndex(ctx, ownedIndex(to), uint64(tokenID))
	ctx.Emit("nxfer", sdk.U64("id", uint64(tokenID)), sdk.Addr("f", from), sdk.Addr("t", to))
	return nil
}

// TokensOf lists the token ids owned by owner.
func (NFT) TokensOf(ctx *contract.Context, owner sdk.Address) []uint32 {
	ids := contract.IndexIDs(ctx, ownedIndex(owner))
	out := make([]uint32, len(ids))
	for i, id := range ids {
		out[i] = uint32(id)
	}
	return out
}

// PuzzleIDsOf returns the distinct puzzle ids owner holds tokens for, ascending.
func (n NFT) PuzzleIDsOf(ctx *contract.Context, owner sdk.Address) ([]uint32, error) {
	if err := contract.RequireInitialized(ctx); err != nil {
		return nil, err
	}
	seen := map[uint32]bool{}
	out := []uint32{}
	for _, id := range n.TokensOf(ctx, owner) {
		pz, ok := contract.Load(ctx, puzzleKey(id))
		if !ok || seen[pz] {
			continue
		}
		seen[pz] = true
		out = append(out, pz)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (n NFT) Exports() contract.Exports {
	return contract.AdminExports().Merge(contract.Exports{
		"transfer": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			to := args.Address(0, "to")
			id := args.Uint32(1, "token id")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", n.Transfer(ctx, caller, to, id)
		},
		"owner_of": func(ctx *contract.Context, _ sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint32(0, "token id")
			if err := args.Err(); err != nil {
				return "", err
			}
			owner, err := n.OwnerOf(ctx, id)
			return owner.String(), err
		},
		"mint": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			to := args.Address(0, "to")
			pz := args.Uint32(1, "puzzle id")
			if err := args.Err(); err != nil {
				return "", err
			}
			id, err := n.Mint(ctx, caller, to, pz)
			return strconv.FormatUint(uint64(id), 10), err
		},
	})
}
