// Package tipping moves small token tips between players with a platform fee,
// a per-sender daily cap and a cooldown per sender and recipient pair.
package tipping

import (
	"unicode/utf8"

	"puzzlechain/contract"
	"puzzlechain/contract/kernel/leaderboard"
	"puzzlechain/contract/kernel/payout"
	"puzzlechain/sdk"
)

const daySeconds = 24 * 3600

type Config struct {
	FeeBps       uint32      `json:"fee_bps"`
	FeeTo        sdk.Address `json:"fee_to"`
	DailyCap     int64       `json:"daily_cap"`
	PairCooldown uint64      `json:"pair_cooldown"`
	MaxMessage   int         `json:"max_message"`
	BoardSize    int         `json:"board_size"`
}

type Tip struct {
	ID      uint64      `json:"id"`
	From    sdk.Address `json:"from"`
	To      sdk.Address `json:"to"`
	Token   sdk.Address `json:"token"`
	Amount  int64       `json:"amount"`
	Fee     int64       `json:"fee"`
	Message string      `json:"msg,omitempty"`
	At      uint64      `json:"at"`
}

type RecipientStats struct {
	Received int64  `json:"received"`
	Tips     int    `json:"tips"`
	Tippers  int    `json:"tippers"`
	LastAt   uint64 `json:"last"`
}

type SenderStats struct {
	Sent int64 `json:"sent"`
	Tips int   `json:"tips"`
}

type Tipping struct{}

func New() *Tipping { return &Tipping{} }

func (Tipping) Init(ctx *contract.Context, admin sdk.Address, cfg Config) error {
	if cfg.MaxMessage == 0 {
		cfg.MaxMessage = 280
	}
	if cfg.BoardSize == 0 {
		cfg.BoardSize = 10
	}
	if cfg.FeeTo == "" {
		cfg.FeeTo = admin
	}
	var chk contract.Checks
	chk.Bps(cfg.FeeBps, "fee")
	chk.Address(cfg.FeeTo, "fee recipient")
	chk.Require(cfg.DailyCap >= 0, "daily cap must not be negative")
	chk.Require(cfg.BoardSize > 0, "board size must be positive")
	if err := chk.Err(); err != nil {
		return err
	}
	if err := contract.Initialize(ctx, admin, cfg); err != nil {
		return err
	}
	contract.Store(ctx, boardKey, leaderboard.New(cfg.BoardSize))
	return nil
}

func (Tipping) TipRecord(ctx *contract.Context, id uint64) (Tip, error) {
	return contract.MustLoad(ctx, tipKey(id), "tip")
}

func (Tipping) RecipientStats(ctx *contract.Context, who sdk.Address) RecipientStats {
	return contract.LoadOr(ctx, recipientKey(who), RecipientStats{})
}

func (Tipping) SenderStats(ctx *contract.Context, who sdk.Address) SenderStats {
	return contract.LoadOr(ctx, senderKey(who), SenderStats{})
}

func (Tipping) TipsReceived(ctx *contract.Context, who sdk.Address) []uint64 {
	return contract.IndexIDs(ctx, receivedIndex(who))
}

func (Tipping) TipsSent(ctx *contract.Context, who sdk.Address) []uint64 {
	return contract.IndexIDs(ctx, sentIndex(who))
}

// SpentToday is what sender tipped since the start of the current day.
func (Tipping) SpentToday(ctx *contract.Context, sender sdk.Address) int64 {
	return contract.LoadOr(ctx, dailyKey(sender, ctx.Timestamp()/daySeconds), 0)
}

func (Tipping) TopRecipients(ctx *contract.Context, limit int) []leaderboard.Entry {
	return contract.LoadOr(ctx, boardKey, leaderboard.Board{}).Top(limit)
}

// Tip pays amount minus the platform fee to the recipient.
// Example payload: "user:bob|contract:token|25|nice solve"
func (Tipping) Tip(ctx *contract.Context, from, to, token sdk.Address, amount int64, message string) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(from); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	var chk contract.Checks
	chk.Address(to, "recipient")
	chk.Address(token, "token")
	chk.Positive(amount, "amount")
	chk.Require(from != to, "cannot tip yourself")
	chk.Require(utf8.RuneCountInString(message) <= cfg.MaxMessage, "message too long")
	if err := chk.Err(); err != nil {
		return 0, err
	}
	now := ctx.Timestamp()
	if last, ok := contract.Load(ctx, pairKey(from, to)); ok && now < last+cfg.PairCooldown {
		return 0, contract.Failf(contract.KindCooldown, "next tip to %s at %d", to, last+cfg.PairCooldown)
	}
	day := now / daySeconds
	spent, err := contract.AddAmount(contract.LoadOr(ctx, dailyKey(from, day), 0), amount)
	if err != nil {
		return 0, err
	}
	if cfg.DailyCap > 0 && spent > cfg.DailyCap {
		return 0, contract.Failf(contract.KindExhausted, "daily cap %d reached", cfg.DailyCap)
	}
	split, err := payout.FeeRoyalty(amount, cfg.FeeBps, 0)
	if err != nil {
		return 0, err
	}
	tok := contract.TokenAt(ctx, token)
	if err := tok.Pull(from, amount); err != nil {
		return 0, err
	}
	if err := payout.Pay(tok, payout.SaleTo(split, to, cfg.FeeTo, "")); err != nil {
		return 0, err
	}

	firstTip := !contract.Has(ctx, pairKey(from, to))
	rs := contract.LoadOr(ctx, recipientKey(to), RecipientStats{})
	if rs.Received, err = contract.AddAmount(rs.Received, split.Seller); err != nil {
		return 0, err
	}
	rs.Tips++
	if firstTip {
		rs.Tippers++
	}
	rs.LastAt = now
	ss := contract.LoadOr(ctx, senderKey(from), SenderStats{})
	if ss.Sent, err = contract.AddAmount(ss.Sent, amount); err != nil {
		return 0, err
	}
	ss.Tips++

	t := Tip{
		ID:      contract.NextID(ctx, "tip"),
		From:    from,
		To:      to,
		Token:   token,
		Amount:  amount,
		Fee:     split.Fee,
		Message: message,
		At:      now,
	}
	contract.Store(ctx, tipKey(t.ID), t)
	contract.Store(ctx, dailyKey(from, day), spent)
	contract.Store(ctx, pairKey(from, to), now)
	contract.Store(ctx, recipientKey(to), rs)
	contract.Store(ctx, senderKey(from), ss)
	contract.AddToIndex(ctx, receivedIndex(to), t.ID)
	contract.AddToIndex(ctx, sentIndex(from), t.ID)
	board := contract.LoadOr(ctx, boardKey, leaderboard.New(cfg.BoardSize))
	board.Insert(leaderboard.Entry{Who: to, Score: rs.Received, At: now})
	contract.Store(ctx, boardKey, board)
	ctx.Emit("tip",
		sdk.U64("id", t.ID),
		sdk.Addr("from", from),
		sdk.Addr("to", to),
		sdk.I64("amt", amount),
		sdk.I64("fee", split.Fee),
	)
	return t.ID, nil
}

// SetDailyCap changes the per-sender daily limit. Zero lifts it.
func (Tipping) SetDailyCap(ctx *contract.Context, admin sdk.Address, dailyCap int64) error {
	return contract.UpdateConfig(ctx, admin, func(c *Config) error {
		if dailyCap < 0 {
			return contract.Invalid("daily cap must not be negative")
		}
		c.DailyCap = dailyCap
		return nil
	})
}

func (Tipping) SetFee(ctx *contract.Context, admin sdk.Address, feeBps uint32, feeTo sdk.Address) error {
	return contract.UpdateConfig(ctx, admin, func(c *Config) error {
		var chk contract.Checks
		chk.Bps(feeBps, "fee")
		chk.Address(feeTo, "fee recipient")
		if err := chk.Err(); err != nil {
			return err
		}
		c.FeeBps, c.FeeTo = feeBps, feeTo
		return nil
	})
}

func (t Tipping) Exports() contract.Exports {
	return contract.AdminExports().Merge(contract.Exports{
		"tip": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			to := args.Address(0, "recipient")
			token := args.Address(1, "token")
			amount := args.Amount(2, "amount")
			if err := args.Err(); err != nil {
				return "", err
			}
			id, err := t.Tip(ctx, caller, to, token, amount, args.Str(3))
			return contract.JoinArgs(id), err
		},
		"set_daily_cap": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			dailyCap := args.Amount(0, "daily cap")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", t.SetDailyCap(ctx, caller, dailyCap)
		},
	})
}
