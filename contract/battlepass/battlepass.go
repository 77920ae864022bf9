// Package battlepass runs XP seasons with free and premium reward tracks.
// XP doubles as the share balance of the season's reward pool.
package battlepass

import (
	"puzzlechain/contract"
	"puzzlechain/contract/kernel/leaderboard"
	"puzzlechain/contract/kernel/shares"
	"puzzlechain/sdk"
)

type Status uint8

const (
	StatusActive Status = iota + 1
	StatusCompleted
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

const (
	trackFree uint8 = 1 << iota
	trackPremium
)

type Config struct {
	Token     sdk.Address `json:"token"`
	Oracle    sdk.Address `json:"oracle,omitempty"`
	BoardSize int         `json:"board_size"`
}

// LevelReward is paid once per level and track.
type LevelReward struct {
	Free    int64 `json:"free"`
	Premium int64 `json:"premium"`
}

type Season struct {
	ID           uint64            `json:"id"`
	Start        uint64            `json:"start"`
	End          uint64            `json:"end"`
	PremiumPrice int64             `json:"premium_price"`
	XPPerLevel   int64             `json:"xp_per_level"`
	MaxLevel     uint64            `json:"max_level"`
	Rewards      []LevelReward     `json:"rewards"`
	Status       Status            `json:"status"`
	Reserve      int64             `json:"reserve"`
	Premiums     int64             `json:"premiums"`
	Pool         shares.Pool       `json:"pool"`
	Board        leaderboard.Board `json:"board"`
}

// Pass is one player's standing in a season.
type Pass struct {
	XP      shares.Holder `json:"xp"`
	Premium bool          `json:"premium"`
	Paid    int64         `json:"paid,omitempty"`
}

// Level derives the level from XP, capped at the season maximum.
func (s Season) Level(xp int64) uint64 {
	if s.XPPerLevel <= 0 || xp <= 0 {
		return 0
	}
	lvl := uint64(xp / s.XPPerLevel)
	if lvl > s.MaxLevel {
		return s.MaxLevel
	}
	return lvl
}

type BattlePass struct{}

func New() *BattlePass { return &BattlePass{} }

func (BattlePass) Init(ctx *contract.Context, admin sdk.Address, cfg Config) error {
	if cfg.BoardSize == 0 {
		cfg.BoardSize = 10
	}
	var chk contract.Checks
	chk.Address(cfg.Token, "token")
	chk.Require(cfg.BoardSize > 0, "board size must be positive")
	if err := chk.Err(); err != nil {
		return err
	}
	return contract.Initialize(ctx, admin, cfg)
}

func (BattlePass) Season(ctx *contract.Context, id uint64) (Season, error) {
	return contract.MustLoad(ctx, seasonKey(id), "season")
}

func (BattlePass) Pass(ctx *contract.Context, season uint64, who sdk.Address) Pass {
	return contract.LoadOr(ctx, passKey(season, who), Pass{})
}

func (BattlePass) TopPlayers(ctx *contract.Context, season uint64, limit int) ([]leaderboard.Entry, error) {
	s, err := contract.MustLoad(ctx, seasonKey(season), "season")
	if err != nil {
		return nil, err
	}
	return s.Board.Top(limit), nil
}

// CreateSeason opens a season; rewards[i] belongs to level i+1.
func (BattlePass) CreateSeason(ctx *contract.Context, caller sdk.Address, start, end uint64, premiumPrice, xpPerLevel int64, maxLevel uint64, rewards []LevelReward) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := contract.RequireAdmin(ctx, caller); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	var chk contract.Checks
	chk.Require(end > start, "end must follow start")
	chk.Require(end > ctx.Timestamp(), "season already over")
	chk.Positive(premiumPrice, "premium price")
	chk.Positive(xpPerLevel, "xp per level")
	chk.Require(maxLevel > 0, "max level must be positive")
	chk.Require(uint64(len(rewards)) <= maxLevel, "more rewards than levels")
	for _, r := range rewards {
		chk.Require(r.Free >= 0 && r.Premium >= 0, "negative level reward")
	}
	if err := chk.Err(); err != nil {
		return 0, err
	}
	s := Season{
		ID:           contract.NextID(ctx, "season"),
		Start:        start,
		End:          end,
		PremiumPrice: premiumPrice,
		XPPerLevel:   xpPerLevel,
		MaxLevel:     maxLevel,
		Rewards:      rewards,
		Status:       StatusActive,
		Board:        leaderboard.New(cfg.BoardSize),
	}
	contract.Store(ctx, seasonKey(s.ID), s)
	emitSeasonEvent(ctx, s)
	return s.ID, nil
}

func loadActive(ctx *contract.Context, id uint64) (Season, error) {
	s, err := contract.MustLoad(ctx, seasonKey(id), "season")
	if err != nil {
		return s, err
	}
	if s.Status != StatusActive {
		return s, contract.Illegal("season not active")
	}
	return s, nil
}

// BuyPremium unlocks the premium track; the price joins the season reserve.
func (BattlePass) BuyPremium(ctx *contract.Context, player sdk.Address, season uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(player); err != nil {
		return err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return err
	}
	s, err := loadActive(ctx, season)
	if err != nil {
		return err
	}
	if ctx.Timestamp() > s.End {
		return contract.Fail(contract.KindExpired, "season ended")
	}
	p := contract.LoadOr(ctx, passKey(season, player), Pass{})
	if p.Premium {
		return contract.Illegal("premium already owned")
	}
	if err := contract.TokenAt(ctx, cfg.Token).Pull(player, s.PremiumPrice); err != nil {
		return err
	}
	if s.Reserve, err = contract.AddAmount(s.Reserve, s.PremiumPrice); err != nil {
		return err
	}
	s.Premiums++
	p.Premium = true
	p.Paid = s.PremiumPrice
	contract.Store(ctx, passKey(season, player), p)
	contract.Store(ctx, seasonKey(season), s)
	emitPremiumEvent(ctx, season, player, s.PremiumPrice)
	return nil
}

// GrantXP is for the admin or the configured oracle while the season runs.
func (BattlePass) GrantXP(ctx *contract.Context, caller, player sdk.Address, season uint64, xp int64) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	if caller != cfg.Oracle || cfg.Oracle == "" {
		if err := contract.RequireAdmin(ctx, caller); err != nil {
			return 0, err
		}
	} else if err := ctx.RequireAuth(caller); err != nil {
		return 0, err
	}
	if err := contract.RequirePositive(xp, "xp"); err != nil {
		return 0, err
	}
	s, err := loadActive(ctx, season)
	if err != nil {
		return 0, err
	}
	now := ctx.Timestamp()
	if now < s.Start || now > s.End {
		return 0, contract.Illegal("season not running")
	}
	p := contract.LoadOr(ctx, passKey(season, player), Pass{})
	if err := s.Pool.Add(&p.XP, xp); err != nil {
		return 0, err
	}
	s.Board.Insert(leaderboard.Entry{Who: player, Score: p.XP.Balance, At: now})
	contract.Store(ctx, passKey(season, player), p)
	contract.Store(ctx, seasonKey(season), s)
	lvl := s.Level(p.XP.Balance)
	emitXPEvent(ctx, season, player, xp, p.XP.Balance, lvl)
	return lvl, nil
}

// FundPool spreads amount over every player's XP.
func (BattlePass) FundPool(ctx *contract.Context, funder sdk.Address, season uint64, amount int64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return err
	}
	s, err := contract.MustLoad(ctx, seasonKey(season), "season")
	if err != nil {
		return err
	}
	if s.Status == StatusCancelled {
		return contract.Illegal("season cancelled")
	}
	if err := contract.RequirePositive(amount, "amount"); err != nil {
		return err
	}
	if err := contract.TokenAt(ctx, cfg.Token).Pull(funder, amount); err != nil {
		return err
	}
	if err := s.Pool.Deposit(amount); err != nil {
		return err
	}
	contract.Store(ctx, seasonKey(season), s)
	emitRewardEvent(ctx, "bp_fund", season, funder, amount)
	return nil
}

// FundRewards tops up the reserve that pays level rewards.
func (BattlePass) FundRewards(ctx *contract.Context, funder sdk.Address, season uint64, amount int64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return err
	}
	s, err := loadActive(ctx, season)
	if err != nil {
		return err
	}
	if err := contract.RequirePositive(amount, "amount"); err != nil {
		return err
	}
	if err := contract.TokenAt(ctx, cfg.Token).Pull(funder, amount); err != nil {
		return err
	}
	if s.Reserve, err = contract.AddAmount(s.Reserve, amount); err != nil {
		return err
	}
	contract.Store(ctx, seasonKey(season), s)
	emitSeasonEvent(ctx, s)
	return nil
}

// ClaimLevelReward pays every unclaimed track of a reached level.
func (BattlePass) ClaimLevelReward(ctx *contract.Context, player sdk.Address, season, level uint64) (int64, error) {
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
	s, err := contract.MustLoad(ctx, seasonKey(season), "season")
	if err != nil {
		return 0, err
	}
	if s.Status == StatusCancelled {
		return 0, contract.Illegal("season cancelled")
	}
	if level == 0 || level > uint64(len(s.Rewards)) {
		return 0, contract.NotFound("level reward")
	}
	p := contract.LoadOr(ctx, passKey(season, player), Pass{})
	if s.Level(p.XP.Balance) < level {
		return 0, contract.Illegal("level not reached")
	}
	claimed := contract.LoadOr(ctx, levelClaimKey(season, level, player), 0)
	reward := s.Rewards[level-1]
	var amount int64
	if claimed&trackFree == 0 {
		amount += reward.Free
		claimed |= trackFree
	}
	if p.Premium && claimed&trackPremium == 0 {
		amount += reward.Premium
		claimed |= trackPremium
	}
	if amount == 0 {
		return 0, contract.Illegal("level reward already claimed")
	}
	if s.Reserve < amount {
		return 0, contract.Fail(contract.KindExhausted, "season reserve exhausted")
	}
	s.Reserve -= amount
	if err := contract.TokenAt(ctx, cfg.Token).Pay(player, amount); err != nil {
		return 0, err
	}
	contract.Store(ctx, levelClaimKey(season, level, player), claimed)
	contract.Store(ctx, seasonKey(season), s)
	emitRewardEvent(ctx, "bp_level", season, player, amount)
	return amount, nil
}

// ClaimPool pays the player's XP share of funded pool rewards.
func (BattlePass) ClaimPool(ctx *contract.Context, player sdk.Address, season uint64) (int64, error) {
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
	s, err := contract.MustLoad(ctx, seasonKey(season), "season")
	if err != nil {
		return 0, err
	}
	p := contract.LoadOr(ctx, passKey(season, player), Pass{})
	amount, err := s.Pool.Claim(&p.XP)
	if err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, contract.Illegal("nothing to claim")
	}
	if err := contract.TokenAt(ctx, cfg.Token).Pay(player, amount); err != nil {
		return 0, err
	}
	contract.Store(ctx, passKey(season, player), p)
	contract.Store(ctx, seasonKey(season), s)
	emitRewardEvent(ctx, "bp_pool", season, player, amount)
	return amount, nil
}

// EndSeason closes a season past its end. Claims stay open.
func (BattlePass) EndSeason(ctx *contract.Context, caller sdk.Address, season uint64) error {
	if err := contract.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	s, err := loadActive(ctx, season)
	if err != nil {
		return err
	}
	if ctx.Timestamp() <= s.End {
		return contract.Illegal("season still running")
	}
	s.Status = StatusCompleted
	contract.Store(ctx, seasonKey(season), s)
	emitSeasonEvent(ctx, s)
	return nil
}

// CancelSeason stops a season; premium buyers get their price back through RefundPremium.
func (BattlePass) CancelSeason(ctx *contract.Context, caller sdk.Address, season uint64) error {
	if err := contract.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	s, err := loadActive(ctx, season)
	if err != nil {
		return err
	}
	s.Status = StatusCancelled
	contract.Store(ctx, seasonKey(season), s)
	emitSeasonEvent(ctx, s)
	return nil
}

func (BattlePass) RefundPremium(ctx *contract.Context, player sdk.Address, season uint64) (int64, error) {
	if err := contract.RequireInitialized(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(player); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	s, err := contract.MustLoad(ctx, seasonKey(season), "season")
	if err != nil {
		return 0, err
	}
	if s.Status != StatusCancelled {
		return 0, contract.Illegal("season not cancelled")
	}
	p := contract.LoadOr(ctx, passKey(season, player), Pass{})
	if p.Paid == 0 {
		return 0, contract.Illegal("nothing to refund")
	}
	refund := p.Paid
	if s.Reserve < refund {
		return 0, contract.Fail(contract.KindExhausted, "season reserve exhausted")
	}
	s.Reserve -= refund
	p.Paid = 0
	if err := contract.TokenAt(ctx, cfg.Token).Pay(player, refund); err != nil {
		return 0, err
	}
	contract.Store(ctx, passKey(season, player), p)
	contract.Store(ctx, seasonKey(season), s)
	emitRewardEvent(ctx, "bp_refund", season, player, refund)
	return refund, nil
}

func (bp BattlePass) Exports() contract.Exports {
	return contract.AdminExports().Merge(contract.Exports{
		"buy_premium": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			season := args.Uint(0, "season")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", bp.BuyPremium(ctx, caller, season)
		},
		// Example payload: "user:alice|1|250"
		"grant_xp": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			player := args.Address(0, "player")
			season := args.Uint(1, "season")
			xp := args.Amount(2, "xp")
			if err := args.Err(); err != nil {
				return "", err
			}
			lvl, err := bp.GrantXP(ctx, caller, player, season, xp)
			return contract.JoinArgs(lvl), err
		},
		"claim_level": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			season := args.Uint(0, "season")
			level := args.Uint(1, "level")
			if err := args.Err(); err != nil {
				return "", err
			}
			amount, err := bp.ClaimLevelReward(ctx, caller, season, level)
			return contract.JoinArgs(amount), err
		},
		"claim_pool": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			season := args.Uint(0, "season")
			if err := args.Err(); err != nil {
				return "", err
			}
			amount, err := bp.ClaimPool(ctx, caller, season)
			return contract.JoinArgs(amount), err
		},
	})
}
