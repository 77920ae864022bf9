// Package achievements rewards players who collect a whole set of puzzle
// achievements with a limited edition token and a minted bonus.
package achievements

import (
	"strings"

	"puzzlechain/contract"
	"puzzlechain/contract/kernel/leaderboard"
	"puzzlechain/sdk"
)

// Rarity scales the reward of a set.
type Rarity uint8

const (
	Common Rarity = iota
	Uncommon
	Rare
	Epic
	Legendary
	Mythic
)

var rarityNames = [...]string{"common", "uncommon", "rare", "epic", "legendary", "mythic"}

// bonus in bps applied to the set reward.
var rarityBonus = [...]uint32{10_000, 12_500, 15_000, 20_000, 30_000, 50_000}

func (r Rarity) String() string {
	if int(r) < len(rarityNames) {
		return rarityNames[r]
	}
	return "unknown"
}

func (r Rarity) BonusBps() uint32 {
	if int(r) < len(rarityBonus) {
		return rarityBonus[r]
	}
	return 0
}

func ParseRarity(s string) (Rarity, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range rarityNames {
		if n == s {
			return Rarity(i), nil
		}
	}
	return 0, contract.Invalid("unknown rarity")
}

type Config struct {
	Token     sdk.Address `json:"token"`
	NFT       sdk.Address `json:"nft"`
	BoardSize int         `json:"board_size"`
}

type Set struct {
	ID         uint64   `json:"id"`
	Name       string   `json:"name"`
	PuzzleIDs  []uint32 `json:"puzzles"`
	Reward     int64    `json:"reward"`
	EditionCap uint32   `json:"cap"`
	Minted     uint32   `json:"minted"`
	Rarity     Rarity   `json:"rarity"`
	Active     bool     `json:"active"`
	CreatedAt  uint64   `json:"created"`
}

// Edition is one limited edition token of a completed set.
type Edition struct {
	TokenID  uint64      `json:"id"`
	SetID    uint64      `json:"set"`
	Serial   uint32      `json:"serial"`
	Owner    sdk.Address `json:"owner"`
	MintedAt uint64      `json:"minted"`
}

type Achievements struct{}

func New() *Achievements { return &Achievements{} }

// Init registers the program as a minter of the reward token.
func (Achievements) Init(ctx *contract.Context, admin sdk.Address, cfg Config) error {
	if cfg.BoardSize == 0 {
		cfg.BoardSize = 10
	}
	var chk contract.Checks
	chk.Address(cfg.Token, "token")
	chk.Address(cfg.NFT, "nft")
	chk.Require(cfg.BoardSize > 0, "board size must be positive")
	if err := chk.Err(); err != nil {
		return err
	}
	if err := contract.Initialize(ctx, admin, cfg); err != nil {
		return err
	}
	contract.Store(ctx, boardKey, leaderboard.New(cfg.BoardSize))
	return contract.TokenAt(ctx, cfg.Token).AuthorizeMinter()
}

func (Achievements) CreateSet(ctx *contract.Context, caller sdk.Address, name string, puzzleIDs []uint32, reward int64, editionCap uint32, rarity Rarity) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := contract.RequireAdmin(ctx, caller); err != nil {
		return 0, err
	}
	var chk contract.Checks
	chk.Require(strings.TrimSpace(name) != "", "name required")
	chk.Require(len(puzzleIDs) > 0, "puzzle ids required")
	chk.Require(reward >= 0, "reward must not be negative")
	chk.Require(editionCap > 0, "edition cap must be positive")
	chk.Require(rarity <= Mythic, "unknown rarity")
	seen := map[uint32]bool{}
	for _, id := range puzzleIDs {
		chk.Require(!seen[id], "duplicate puzzle id")
		seen[id] = true
	}
	if err := chk.Err(); err != nil {
		return 0, err
	}
	s := Set{
		ID:         contract.NextID(ctx, "set"),
		Name:       name,
		PuzzleIDs:  puzzleIDs,
		Reward:     reward,
		EditionCap: editionCap,
		Rarity:     rarity,
		Active:     true,
		CreatedAt:  ctx.Timestamp(),
	}
	contract.Store(ctx, setKey(s.ID), s)
	emitSetEvent(ctx, s)
	return s.ID, nil
}

func (Achievements) DeactivateSet(ctx *contract.Context, caller sdk.Address, id uint64) error {
	if err := contract.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	s, err := contract.MustLoad(ctx, setKey(id), "set")
	if err != nil {
		return err
	}
	if !s.Active {
		return contract.Illegal("set inactive")
	}
	s.Active = false
	contract.Store(ctx, setKey(id), s)
	emitSetEvent(ctx, s)
	return nil
}

func (Achievements) Set(ctx *contract.Context, id uint64) (Set, error) {
	return contract.MustLoad(ctx, setKey(id), "set")
}

func (Achievements) Edition(ctx *contract.Context, id uint64) (Edition, error) {
	return contract.MustLoad(ctx, editionKey(id), "edition")
}

func (Achievements) EditionsOf(ctx *contract.Context, owner sdk.Address) []uint64 {
	return contract.IndexIDs(ctx, editionsIndex(owner))
}

// Completed is the number of sets who has claimed.
func (Achievements) Completed(ctx *contract.Context, who sdk.Address) int64 {
	return contract.LoadOr(ctx, completedKey(who), 0)
}

func (Achievements) TopCollectors(ctx *contract.Context, limit int) []leaderboard.Entry {
	return contract.LoadOr(ctx, boardKey, leaderboard.Board{}).Top(limit)
}

// ClaimSet mints the next edition of a set to a player holding every
// achievement of it, plus the rarity scaled token reward.
func (Achievements) ClaimSet(ctx *contract.Context, player sdk.Address, id uint64) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(player); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	s, err := contract.MustLoad(ctx, setKey(id), "set")
	if err != nil {
		return 0, err
	}
	if !s.Active {
		return 0, contract.Illegal("set inactive")
	}
	if _, done := contract.Load(ctx, claimedKey(id, player)); done {
		return 0, contract.Illegal("set already claimed")
	}
	if s.Minted >= s.EditionCap {
		return 0, contract.Fail(contract.KindExhausted, "edition sold out")
	}
	owned, err := contract.NFTAt(ctx, cfg.NFT).PuzzleIDsOf(player)
	if err != nil {
		return 0, err
	}
	have := make(map[uint32]bool, len(owned))
	for _, pz := range owned {
		have[pz] = true
	}
	for _, pz := range s.PuzzleIDs {
		if !have[pz] {
			return 0, contract.Failf(contract.KindUnauthorized, "missing achievement for puzzle %d", pz)
		}
	}

	s.Minted++
	ed := Edition{
		TokenID:  contract.NextID(ctx, "edition"),
		SetID:    id,
		Serial:   s.Minted,
		Owner:    player,
		MintedAt: ctx.Timestamp(),
	}
	contract.Store(ctx, setKey(id), s)
	contract.Store(ctx, editionKey(ed.TokenID), ed)
	contract.Store(ctx, claimedKey(id, player), ed.TokenID)
	contract.AddToIndex(ctx, editionsIndex(player), ed.TokenID)

	completed := contract.LoadOr(ctx, completedKey(player), 0) + 1
	contract.Store(ctx, completedKey(player), completed)
	board := contract.LoadOr(ctx, boardKey, leaderboard.New(cfg.BoardSize))
	board.Insert(leaderboard.Entry{Who: player, Score: completed, At: ctx.Timestamp()})
	contract.Store(ctx, boardKey, board)

	reward, err := contract.MulDiv(s.Reward, int64(s.Rarity.BonusBps()), contract.BpsDenominator)
	if err != nil {
		return 0, err
	}
	if err := contract.TokenAt(ctx, cfg.Token).Mint(player, reward); err != nil {
		return 0, err
	}
	emitClaimEvent(ctx, ed, reward)
	return ed.TokenID, nil
}

// TransferEdition moves an edition token; the completion record stays with
// the first claimer.
func (Achievements) TransferEdition(ctx *contract.Context, from, to sdk.Address, id uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(from); err != nil {
		return err
	}
	if !to.IsValid() || to == from {
		return contract.Invalid("invalid recipient")
	}
	ed, err := contract.MustLoad(ctx, editionKey(id), "edition")
	if err != nil {
		return err
	}
	if ed.Owner != from {
		return contract.Unauthorized("not the edition owner")
	}
	ed.Owner = to
	contract.Store(ctx, editionKey(id), ed)
	contract.RemoveFromIndex(ctx, editionsIndex(from), id)
	contract.AddToIndex(ctx, editionsIndex(to), id)
	emitEditionTransferEvent(ctx, id, from, to)
	return nil
}
