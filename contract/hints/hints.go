// Package hints is a marketplace for puzzle hints priced by their rated quality.
package hints

import (
	"puzzlechain/contract"
	"puzzlechain/contract/kernel/leaderboard"
	"puzzlechain/contract/kernel/payout"
	"puzzlechain/sdk"
)

// Quality is the tier derived from the average rating.
type Quality uint8

const (
	Poor Quality = iota + 1
	Fair
	Good
	Great
	Perfect
)

var qualityNames = [...]string{"", "poor", "fair", "good", "great", "perfect"}

func (q Quality) String() string {
	if q >= Poor && q <= Perfect {
		return qualityNames[q]
	}
	return "unknown"
}

// Multiplier scales the base price, in bps.
func (q Quality) Multiplier() uint32 {
	if q < Poor || q > Perfect {
		return contract.BpsDenominator
	}
	return 5000 + uint32(q-Poor)*2500
}

// MaxLevel is the deepest hint level a puzzle may have.
const MaxLevel = 5

type Config struct {
	Token     sdk.Address `json:"token"`
	FeeBps    uint32      `json:"fee_bps"`
	FeeTo     sdk.Address `json:"fee_to"`
	BoardSize int         `json:"board_size"`
}

type Hint struct {
	ID          uint64      `json:"id"`
	Creator     sdk.Address `json:"creator"`
	PuzzleID    uint32      `json:"puzzle"`
	Level       uint8       `json:"level"`
	BasePrice   int64       `json:"base_price"`
	Active      bool        `json:"active"`
	Sales       int64       `json:"sales"`
	RatingSum   int64       `json:"rating_sum"`
	RatingCount int64       `json:"rating_count"`
	CreatedAt   uint64      `json:"created"`
}

// Quality rounds the average rating to a tier; unrated hints are Good.
func (h Hint) Quality() Quality {
	if h.RatingCount == 0 {
		return Good
	}
	avg := (h.RatingSum*2 + h.RatingCount) / (h.RatingCount * 2)
	return Quality(avg)
}

// Price is the base price scaled by the quality multiplier.
func (h Hint) Price() (int64, error) {
	return contract.MulDiv(h.BasePrice, int64(h.Quality().Multiplier()), contract.BpsDenominator)
}

type Purchase struct {
	Paid   int64  `json:"paid"`
	At     uint64 `json:"at"`
	Rating uint8  `json:"rating,omitempty"`
}

type Hints struct{}

func New() *Hints { return &Hints{} }

func (Hints) Init(ctx *contract.Context, admin sdk.Address, cfg Config) error {
	if cfg.FeeTo == "" {
		cfg.FeeTo = admin
	}
	if cfg.BoardSize == 0 {
		cfg.BoardSize = 10
	}
	var chk contract.Checks
	chk.Address(cfg.Token, "token")
	chk.Address(cfg.FeeTo, "fee recipient")
	chk.Bps(cfg.FeeBps, "fee")
	if err := chk.Err(); err != nil {
		return err
	}
	if err := contract.Initialize(ctx, admin, cfg); err != nil {
		return err
	}
	contract.Store(ctx, boardKey, leaderboard.New(cfg.BoardSize))
	return nil
}

func (Hints) SetFee(ctx *contract.Context, caller sdk.Address, feeBps uint32) error {
	if err := contract.CheckBps(feeBps, "fee"); err != nil {
		return err
	}
	return contract.UpdateConfig(ctx, caller, func(c *Config) error {
		c.FeeBps = feeBps
		return nil
	})
}

func (Hints) Hint(ctx *contract.Context, id uint64) (Hint, error) {
	return contract.MustLoad(ctx, hintKey(id), "hint")
}

func (Hints) HintsFor(ctx *contract.Context, puzzleID uint32) []uint64 {
	return contract.IndexIDs(ctx, puzzleIndex(puzzleID))
}

func (Hints) PurchasesOf(ctx *contract.Context, buyer sdk.Address) []uint64 {
	return contract.IndexIDs(ctx, purchasesIndex(buyer))
}

func (Hints) Earnings(ctx *contract.Context, creator sdk.Address) int64 {
	return contract.LoadOr(ctx, earningsKey(creator), 0)
}

func (Hints) TopCreators(ctx *contract.Context, limit int) []leaderboard.Entry {
	return contract.LoadOr(ctx, boardKey, leaderboard.Board{}).Top(limit)
}

func (Hints) ListHint(ctx *contract.Context, creator sdk.Address, puzzleID uint32, level uint8, basePrice int64) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(creator); err != nil {
		return 0, err
	}
	var chk contract.Checks
	chk.Require(level >= 1 && level <= MaxLevel, "level out of range")
	chk.Positive(basePrice, "base price")
	if err := chk.Err(); err != nil {
		return 0, err
	}
	h := Hint{
		ID:        contract.NextID(ctx, "hint"),
		Creator:   creator,
		PuzzleID:  puzzleID,
		Level:     level,
		BasePrice: basePrice,
		Active:    true,
		CreatedAt: ctx.Timestamp(),
	}
	contract.Store(ctx, hintKey(h.ID), h)
	contract.AddToIndex(ctx, puzzleIndex(puzzleID), h.ID)
	emitHintEvent(ctx, h)
	return h.ID, nil
}

func (Hints) Delist(ctx *contract.Context, creator sdk.Address, id uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(creator); err != nil {
		return err
	}
	h, err := contract.MustLoad(ctx, hintKey(id), "hint")
	if err != nil {
		return err
	}
	if h.Creator != creator {
		return contract.Unauthorized("not the creator")
	}
	if !h.Active {
		return contract.Illegal("hint not active")
	}
	h.Active = false
	contract.Store(ctx, hintKey(id), h)
	contract.RemoveFromIndex(ctx, puzzleIndex(h.PuzzleID), id)
	emitHintEvent(ctx, h)
	return nil
}

// BuyHint charges the quality scaled price; the platform fee comes off the creator's share.
func (Hints) BuyHint(ctx *contract.Context, buyer sdk.Address, id uint64) (int64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(buyer); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	h, err := contract.MustLoad(ctx, hintKey(id), "hint")
	if err != nil {
		return 0, err
	}
	if !h.Active {
		return 0, contract.Illegal("hint not active")
	}
	if buyer == h.Creator {
		return 0, contract.Invalid("creator cannot buy own hint")
	}
	if _, bought := contract.Load(ctx, purchaseKey(id, buyer)); bought {
		return 0, contract.Illegal("hint already purchased")
	}
	price, err := h.Price()
	if err != nil {
		return 0, err
	}
	split, err := payout.FeeRoyalty(price, cfg.FeeBps, 0)
	if err != nil {
		return 0, err
	}
	tok := contract.TokenAt(ctx, cfg.Token)
	if err := tok.Pull(buyer, price); err != nil {
		return 0, err
	}
	if err := payout.Pay(tok, payout.SaleTo(split, h.Creator, cfg.FeeTo, "")); err != nil {
		return 0, err
	}

	h.Sales++
	contract.Store(ctx, hintKey(id), h)
	contract.Store(ctx, purchaseKey(id, buyer), Purchase{Paid: price, At: ctx.Timestamp()})
	contract.AddToIndex(ctx, purchasesIndex(buyer), id)

	earned, err := contract.AddAmount(contract.LoadOr(ctx, earningsKey(h.Creator), 0), split.Seller)
	if err != nil {
		return 0, err
	}
	contract.Store(ctx, earningsKey(h.Creator), earned)
	board := contract.LoadOr(ctx, boardKey, leaderboard.New(cfg.BoardSize))
	board.Insert(leaderboard.Entry{Who: h.Creator, Score: earned, At: ctx.Timestamp()})
	contract.Store(ctx, boardKey, board)

	emitPurchaseEvent(ctx, id, buyer, price)
	return price, nil
}

// RateHint is one 1..5 rating per purchase.
func (Hints) RateHint(ctx *contract.Context, buyer sdk.Address, id uint64, rating uint8) (Quality, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(buyer); err != nil {
		return 0, err
	}
	if rating < 1 || rating > 5 {
		return 0, contract.Invalid("rating out of range")
	}
	h, err := contract.MustLoad(ctx, hintKey(id), "hint")
	if err != nil {
		return 0, err
	}
	p, ok := contract.Load(ctx, purchaseKey(id, buyer))
	if !ok {
		return 0, contract.Unauthorized("hint not purchased")
	}
	if p.Rating != 0 {
		return 0, contract.Illegal("hint already rated")
	}
	p.Rating = rating
	h.RatingSum += int64(rating)
	h.RatingCount++
	contract.Store(ctx, purchaseKey(id, buyer), p)
	contract.Store(ctx, hintKey(id), h)
	ctx.Emit("hn_rate", sdk.U64("id", id), sdk.Addr("by", buyer), sdk.U64("r", uint64(rating)), sdk.Str("q", h.Quality().String()))
	return h.Quality(), nil
}

func emitHintEvent(ctx *contract.Context, h Hint) {
	ctx.Emit("hn_hint",
		sdk.U64("id", h.ID),
		sdk.Addr("c", h.Creator),
		sdk.U64("pz", uint64(h.PuzzleID)),
		sdk.I64("p", h.BasePrice),
		sdk.Bool("active", h.Active),
	)
}

func emitPurchaseEvent(ctx *contract.Context, id uint64, buyer sdk.Address, price int64) {
	ctx.Emit("hn_buy", sdk.U64("id", id), sdk.Addr("b", buyer), sdk.I64("p", price))
}

func (hs Hints) Exports() contract.Exports {
	return contract.AdminExports().Merge(contract.Exports{
		// Example payload: "42|2|100"
		"list_hint": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			puzzle := args.Uint32(0, "puzzle id")
			level := args.Uint32(1, "level")
			price := args.Amount(2, "base price")
			if err := args.Err(); err != nil {
				return "", err
			}
			if level > MaxLevel {
				return "", contract.Invalid("level out of range")
			}
			id, err := hs.ListHint(ctx, caller, puzzle, uint8(level), price)
			return contract.JoinArgs(id), err
		},
		"buy_hint": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "hint id")
			if err := args.Err(); err != nil {
				return "", err
			}
			price, err := hs.BuyHint(ctx, caller, id)
			return contract.JoinArgs(price), err
		},
		"rate_hint": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "hint id")
			rating := args.Uint32(1, "rating")
			if err := args.Err(); err != nil {
				return "", err
			}
			if rating > 5 {
				return "", contract.Invalid("rating out of range")
			}
			q, err := hs.RateHint(ctx, caller, id, uint8(rating))
			return q.String(), err
		},
		"delist": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "hint id")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", hs.Delist(ctx, caller, id)
		},
	})
}
