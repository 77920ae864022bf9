// Package prediction runs pari-mutuel markets on puzzle outcomes with a
// bonded dispute window after resolution.
package prediction

import (
	"strings"

	"puzzlechain/contract"
	"puzzlechain/contract/kernel/payout"
	"puzzlechain/sdk"
)

type Status uint8

const (
	StatusOpen Status = iota + 1
	StatusClosed
	StatusResolved
	StatusDisputed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	case StatusResolved:
		return "resolved"
	case StatusDisputed:
		return "disputed"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// NoOutcome marks an unresolved market.
const NoOutcome = -1

type Config struct {
	MaxOutcomes int         `json:"max_outcomes"`
	MaxFeeBps   uint32      `json:"max_fee_bps"`
	BondTo      sdk.Address `json:"bond_to"`
}

type Market struct {
	ID            uint64      `json:"id"`
	Creator       sdk.Address `json:"creator"`
	Question      string      `json:"question"`
	Outcomes      []string    `json:"outcomes"`
	CloseTime     uint64      `json:"close"`
	Token         sdk.Address `json:"token"`
	FeeBps        uint32      `json:"fee_bps"`
	Resolver      sdk.Address `json:"resolver"`
	DisputeWindow uint64      `json:"dispute_window"`
	DisputeBond   int64       `json:"dispute_bond"`

	Status     Status      `json:"status"`
	Pools      []int64     `json:"pools"`
	Total      int64       `json:"total"`
	Winning    int         `json:"winning"`
	ResolvedAt uint64      `json:"resolved_at,omitempty"`
	Disputer   sdk.Address `json:"disputer,omitempty"`
	Final      bool        `json:"final,omitempty"`
	FeePaid    bool        `json:"fee_paid,omitempty"`
}

// claimable reports whether winners may collect at now.
func (m Market) claimable(now uint64) bool {
	return m.Status == StatusResolved && (m.Final || now > m.ResolvedAt+m.DisputeWindow)
}

type Prediction struct{}

func New() *Prediction { return &Prediction{} }

func (Prediction) Init(ctx *contract.Context, admin sdk.Address, cfg Config) error {
	if cfg.MaxOutcomes == 0 {
		cfg.MaxOutcomes = 8
	}
	if cfg.MaxFeeBps == 0 {
		cfg.MaxFeeBps = 1000
	}
	if cfg.BondTo == "" {
		cfg.BondTo = admin
	}
	var chk contract.Checks
	chk.Require(cfg.MaxOutcomes >= 2, "max outcomes below two")
	chk.Bps(cfg.MaxFeeBps, "max fee")
	chk.Address(cfg.BondTo, "bond recipient")
	if err := chk.Err(); err != nil {
		return err
	}
	return contract.Initialize(ctx, admin, cfg)
}

func (Prediction) Market(ctx *contract.Context, id uint64) (Market, error) {
	return contract.MustLoad(ctx, marketKey(id), "market")
}

func (Prediction) Stake(ctx *contract.Context, market uint64, outcome int, who sdk.Address) int64 {
	return contract.LoadOr(ctx, stakeKey(market, outcome, who), 0)
}

func (Prediction) MarketsOf(ctx *contract.Context, bettor sdk.Address) []uint64 {
	return contract.IndexIDs(ctx, bettorIndex(bettor))
}

// MarketParams describes a new market.
type MarketParams struct {
	Question      string
	Outcomes      []string
	CloseTime     uint64
	Token         sdk.Address
	FeeBps        uint32
	Resolver      sdk.Address
	DisputeWindow uint64
	DisputeBond   int64
}

func (Prediction) CreateMarket(ctx *contract.Context, creator sdk.Address, p MarketParams) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(creator); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	var chk contract.Checks
	chk.Require(strings.TrimSpace(p.Question) != "", "question required")
	chk.Require(len(p.Outcomes) >= 2, "at least two outcomes")
	chk.Require(len(p.Outcomes) <= cfg.MaxOutcomes, "too many outcomes")
	chk.Require(p.CloseTime > ctx.Timestamp(), "close time must be in the future")
	chk.Address(p.Token, "token")
	chk.Address(p.Resolver, "resolver")
	chk.Require(p.FeeBps <= cfg.MaxFeeBps, "fee above maximum")
	chk.Require(p.DisputeBond >= 0, "dispute bond must not be negative")
	if err := chk.Err(); err != nil {
		return 0, err
	}
	m := Market{
		ID:            contract.NextID(ctx, "market"),
		Creator:       creator,
		Question:      p.Question,
		Outcomes:      p.Outcomes,
		CloseTime:     p.CloseTime,
		Token:         p.Token,
		FeeBps:        p.FeeBps,
		Resolver:      p.Resolver,
		DisputeWindow: p.DisputeWindow,
		DisputeBond:   p.DisputeBond,
		Status:        StatusOpen,
		Pools:         make([]int64, len(p.Outcomes)),
		Winning:       NoOutcome,
	}
	contract.Store(ctx, marketKey(m.ID), m)
	emitMarketEvent(ctx, m)
	return m.ID, nil
}

func (Prediction) Bet(ctx *contract.Context, bettor sdk.Address, market uint64, outcome int, amount int64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(bettor); err != nil {
		return err
	}
	if err := contract.RequirePositive(amount, "amount"); err != nil {
		return err
	}
	m, err := contract.MustLoad(ctx, marketKey(market), "market")
	if err != nil {
		return err
	}
	if m.Status != StatusOpen {
		return contract.Illegal("market not open")
	}
	if ctx.Timestamp() >= m.CloseTime {
		return contract.Fail(contract.KindExpired, "market closed")
	}
	if outcome < 0 || outcome >= len(m.Outcomes) {
		return contract.Invalid("unknown outcome")
	}
	if err := contract.TokenAt(ctx, m.Token).Pull(bettor, amount); err != nil {
		return err
	}
	if m.Pools[outcome], err = contract.AddAmount(m.Pools[outcome], amount); err != nil {
		return err
	}
	if m.Total, err = contract.AddAmount(m.Total, amount); err != nil {
		return err
	}
	stake := contract.LoadOr(ctx, stakeKey(market, outcome, bettor), 0)
	if !hasStake(ctx, m, bettor) {
		contract.AddToIndex(ctx, bettorIndex(bettor), market)
	}
	contract.Store(ctx, stakeKey(market, outcome, bettor), stake+amount)
	contract.Store(ctx, marketKey(market), m)
	emitBetEvent(ctx, market, bettor, outcome, amount)
	return nil
}

func stakes(ctx *contract.Context, m Market, who sdk.Address) (int64, error) {
	var total int64
	for i := range m.Outcomes {
		var err error
		if total, err = contract.AddAmount(total, contract.LoadOr(ctx, stakeKey(m.ID, i, who), 0)); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func hasStake(ctx *contract.Context, m Market, who sdk.Address) bool {
	total, _ := stakes(ctx, m, who)
	return total > 0
}

// Close is the keeper step once betting time is over.
func (Prediction) Close(ctx *contract.Context, market uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	m, err := contract.MustLoad(ctx, marketKey(market), "market")
	if err != nil {
		return err
	}
	if m.Status != StatusOpen {
		return contract.Illegal("market not open")
	}
	if ctx.Timestamp() < m.CloseTime {
		return contract.Illegal("market still open")
	}
	m.Status = StatusClosed
	contract.Store(ctx, marketKey(market), m)
	emitMarketEvent(ctx, m)
	return nil
}

// Resolve is the resolver naming the winning outcome of a closed market.
func (Prediction) Resolve(ctx *contract.Context, resolver sdk.Address, market uint64, outcome int) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	m, err := contract.MustLoad(ctx, marketKey(market), "market")
	if err != nil {
		return err
	}
	if resolver != m.Resolver {
		return contract.Unauthorized("not the resolver")
	}
	if err := ctx.RequireAuth(resolver); err != nil {
		return err
	}
	if m.Status == StatusOpen && ctx.Timestamp() >= m.CloseTime {
		m.Status = StatusClosed
	}
	if m.Status != StatusClosed {
		return contract.Illegal("market not closed")
	}
	if outcome < 0 || outcome >= len(m.Outcomes) {
		return contract.Invalid("unknown outcome")
	}
	m.Status = StatusResolved
	m.Winning = outcome
	m.ResolvedAt = ctx.Timestamp()
	m.Final = m.DisputeWindow == 0
	contract.Store(ctx, marketKey(market), m)
	emitMarketEvent(ctx, m)
	return nil
}

// Dispute lets a bettor post the bond against a resolution inside the window.
func (Prediction) Dispute(ctx *contract.Context, bettor sdk.Address, market uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(bettor); err != nil {
		return err
	}
	m, err := contract.MustLoad(ctx, marketKey(market), "market")
	if err != nil {
		return err
	}
	if m.Status != StatusResolved || m.Final {
		return contract.Illegal("market not disputable")
	}
	if ctx.Timestamp() > m.ResolvedAt+m.DisputeWindow {
		return contract.Fail(contract.KindExpired, "dispute window over")
	}
	if !hasStake(ctx, m, bettor) {
		return contract.Unauthorized("not a bettor")
	}
	if m.DisputeBond > 0 {
		if err := contract.TokenAt(ctx, m.Token).Pull(bettor, m.DisputeBond); err != nil {
			return err
		}
	}
	m.Status = StatusDisputed
	m.Disputer = bettor
	contract.Store(ctx, marketKey(market), m)
	emitMarketEvent(ctx, m)
	return nil
}

// SettleDispute is the admin's final word. A changed outcome returns the bond,
// an upheld one forfeits it.
func (Prediction) SettleDispute(ctx *contract.Context, caller sdk.Address, market uint64, outcome int) error {
	if err := contract.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return err
	}
	m, err := contract.MustLoad(ctx, marketKey(market), "market")
	if err != nil {
		return err
	}
	if m.Status != StatusDisputed {
		return contract.Illegal("market not disputed")
	}
	if outcome < 0 || outcome >= len(m.Outcomes) {
		return contract.Invalid("unknown outcome")
	}
	bondTo := cfg.BondTo
	if outcome != m.Winning {
		bondTo = m.Disputer
	}
	if m.DisputeBond > 0 {
		if err := contract.TokenAt(ctx, m.Token).Pay(bondTo, m.DisputeBond); err != nil {
			return err
		}
	}
	m.Winning = outcome
	m.Status = StatusResolved
	m.Final = true
	contract.Store(ctx, marketKey(market), m)
	emitMarketEvent(ctx, m)
	return nil
}

// Claim pays a winner their proportional share of the pool after fees. When
// nobody backed the winning outcome every bettor gets their stake back.
func (Prediction) Claim(ctx *contract.Context, bettor sdk.Address, market uint64) (int64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(bettor); err != nil {
		return 0, err
	}
	m, err := contract.MustLoad(ctx, marketKey(market), "market")
	if err != nil {
		return 0, err
	}
	if !m.claimable(ctx.Timestamp()) {
		return 0, contract.Illegal("market not settled")
	}
	if contract.LoadOr(ctx, settledKey(market, bettor), false) {
		return 0, contract.Illegal("already claimed")
	}
	tok := contract.TokenAt(ctx, m.Token)

	var amount int64
	if m.Pools[m.Winning] == 0 {
		if amount, err = stakes(ctx, m, bettor); err != nil {
			return 0, err
		}
	} else {
		fee, err := contract.Bps(m.Total, m.FeeBps)
		if err != nil {
			return 0, err
		}
		stake := contract.LoadOr(ctx, stakeKey(market, m.Winning, bettor), 0)
		if amount, err = payout.Proportional(m.Total-fee, stake, m.Pools[m.Winning]); err != nil {
			return 0, err
		}
		if !m.FeePaid && fee > 0 {
			if err := tok.Pay(m.Creator, fee); err != nil {
				return 0, err
			}
			emitPayoutEvent(ctx, "pm_fee", market, m.Creator, fee)
		}
		m.FeePaid = true
	}
	if amount == 0 {
		return 0, contract.Illegal("nothing to claim")
	}
	if err := tok.Pay(bettor, amount); err != nil {
		return 0, err
	}
	contract.Store(ctx, settledKey(market, bettor), true)
	contract.Store(ctx, marketKey(market), m)
	emitPayoutEvent(ctx, "pm_claim", market, bettor, amount)
	return amount, nil
}

// Cancel voids an unresolved market; the creator or the admin may do it.
func (Prediction) Cancel(ctx *contract.Context, caller sdk.Address, market uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	m, err := contract.MustLoad(ctx, marketKey(market), "market")
	if err != nil {
		return err
	}
	if caller != m.Creator {
		if err := contract.RequireAdmin(ctx, caller); err != nil {
			return err
		}
	} else if err := ctx.RequireAuth(caller); err != nil {
		return err
	}
	if m.Status != StatusOpen && m.Status != StatusClosed {
		return contract.Illegal("market already resolved")
	}
	m.Status = StatusCancelled
	contract.Store(ctx, marketKey(market), m)
	emitMarketEvent(ctx, m)
	return nil
}

// Refund returns every stake of a bettor in a cancelled market.
func (Prediction) Refund(ctx *contract.Context, bettor sdk.Address, market uint64) (int64, error) {
	if err := contract.RequireInitialized(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(bettor); err != nil {
		return 0, err
	}
	m, err := contract.MustLoad(ctx, marketKey(market), "market")
	if err != nil {
		return 0, err
	}
	if m.Status != StatusCancelled {
		return 0, contract.Illegal("market not cancelled")
	}
	if contract.LoadOr(ctx, settledKey(market, bettor), false) {
		return 0, contract.Illegal("already refunded")
	}
	amount, err := stakes(ctx, m, bettor)
	if err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, contract.Illegal("nothing to refund")
	}
	if err := payout.Refund(contract.TokenAt(ctx, m.Token), bettor, amount); err != nil {
		return 0, err
	}
	contract.Store(ctx, settledKey(market, bettor), true)
	emitPayoutEvent(ctx, "pm_refund", market, bettor, amount)
	return amount, nil
}

func (p Prediction) Exports() contract.Exports {
	return contract.AdminExports().Merge(contract.Exports{
		// Example payload: "1|0|250"
		"bet": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			market := args.Uint(0, "market")
			outcome := args.Uint32(1, "outcome")
			amount := args.Amount(2, "amount")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", p.Bet(ctx, caller, market, int(outcome), amount)
		},
		"close": func(ctx *contract.Context, _ sdk.Address, args *contract.Args) (string, error) {
			market := args.Uint(0, "market")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", p.Close(ctx, market)
		},
		"resolve": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			market := args.Uint(0, "market")
			outcome := args.Uint32(1, "outcome")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", p.Resolve(ctx, caller, market, int(outcome))
		},
		"claim": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			market := args.Uint(0, "market")
			if err := args.Err(); err != nil {
				return "", err
			}
			amount, err := p.Claim(ctx, caller, market)
			return contract.JoinArgs(amount), err
		},
	})
}
