// Package subscription sells prepaid creator plans. Prepaid periods sit in
// escrow and move into the creator's earnings one period at a time.
package subscription

import (
	"strings"

	"puzzlechain/contract"
	"puzzlechain/sdk"
)

type Tier uint8

const (
	TierBasic Tier = iota + 1
	TierPro
	TierPremium
	TierEnterprise
)

func (t Tier) String() string {
	switch t {
	case TierBasic:
		return "basic"
	case TierPro:
		return "pro"
	case TierPremium:
		return "premium"
	case TierEnterprise:
		return "enterprise"
	}
	return "unknown"
}

func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "basic", "":
		return TierBasic, nil
	case "pro":
		return TierPro, nil
	case "premium":
		return TierPremium, nil
	case "enterprise":
		return TierEnterprise, nil
	}
	return 0, contract.Invalid("unknown tier")
}

type Status uint8

const (
	StatusActive Status = iota + 1
	StatusCancelled
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCancelled:
		return "cancelled"
	case StatusExpired:
		return "expired"
	}
	return "unknown"
}

type Config struct {
	FeeBps      uint32      `json:"fee_bps"`
	FeeTo       sdk.Address `json:"fee_to"`
	GracePeriod uint64      `json:"grace_period"`
	MaxPeriods  uint32      `json:"max_periods"`
}

type Plan struct {
	ID          uint64      `json:"id"`
	Creator     sdk.Address `json:"creator"`
	Token       sdk.Address `json:"token"`
	Price       int64       `json:"price"`
	Period      uint64      `json:"period"`
	Tier        Tier        `json:"tier"`
	Active      bool        `json:"active"`
	Subscribers int         `json:"subscribers"`
}

type Subscription struct {
	Plan        uint64      `json:"plan"`
	User        sdk.Address `json:"user"`
	Prepaid     uint32      `json:"prepaid"`
	PaidThrough uint64      `json:"paid_through"`
	Status      Status      `json:"status"`
	StartedAt   uint64      `json:"started"`
	Renewals    uint32      `json:"renewals"`
}

type Subscriptions struct{}

func New() *Subscriptions { return &Subscriptions{} }

func (Subscriptions) Init(ctx *contract.Context, admin sdk.Address, cfg Config) error {
	if cfg.MaxPeriods == 0 {
		cfg.MaxPeriods = 24
	}
	if cfg.FeeTo == "" {
		cfg.FeeTo = admin
	}
	var chk contract.Checks
	chk.Bps(cfg.FeeBps, "fee")
	chk.Address(cfg.FeeTo, "fee recipient")
	if err := chk.Err(); err != nil {
		return err
	}
	return contract.Initialize(ctx, admin, cfg)
}

func (Subscriptions) Plan(ctx *contract.Context, id uint64) (Plan, error) {
	return contract.MustLoad(ctx, planKey(id), "plan")
}

func (Subscriptions) Subscription(ctx *contract.Context, plan uint64, user sdk.Address) (Subscription, error) {
	return contract.MustLoad(ctx, subKey(plan, user), "subscription")
}

func (Subscriptions) PlansBy(ctx *contract.Context, creator sdk.Address) []uint64 {
	return contract.IndexIDs(ctx, creatorIndex(creator))
}

func (Subscriptions) PlansOf(ctx *contract.Context, user sdk.Address) []uint64 {
	return contract.IndexIDs(ctx, userIndex(user))
}

func (Subscriptions) Earnings(ctx *contract.Context, creator, token sdk.Address) int64 {
	return contract.LoadOr(ctx, earningsKey(creator, token), 0)
}

// HasAccess is true through the paid period and its grace period, cancelled
// subscriptions included.
func (Subscriptions) HasAccess(ctx *contract.Context, plan uint64, user sdk.Address) bool {
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return false
	}
	s, ok := contract.Load(ctx, subKey(plan, user))
	if !ok || s.Status == StatusExpired {
		return false
	}
	return ctx.Timestamp() < s.PaidThrough+cfg.GracePeriod
}

// Example payload: "contract:token|100|2592000|pro"
func (Subscriptions) CreatePlan(ctx *contract.Context, creator, token sdk.Address, price int64, period uint64, tier Tier) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(creator); err != nil {
		return 0, err
	}
	var chk contract.Checks
	chk.Address(token, "token")
	chk.Positive(price, "price")
	chk.Require(period > 0, "period must be positive")
	chk.Require(tier >= TierBasic && tier <= TierEnterprise, "unknown tier")
	if err := chk.Err(); err != nil {
		return 0, err
	}
	p := Plan{
		ID:      contract.NextID(ctx, "plan"),
		Creator: creator,
		Token:   token,
		Price:   price,
		Period:  period,
		Tier:    tier,
		Active:  true,
	}
	contract.Store(ctx, planKey(p.ID), p)
	contract.AddToIndex(ctx, creatorIndex(creator), p.ID)
	emitPlanEvent(ctx, p)
	return p.ID, nil
}

// DeactivatePlan stops new subscriptions. Running ones keep renewing.
func (Subscriptions) DeactivatePlan(ctx *contract.Context, creator sdk.Address, id uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	p, err := contract.MustLoad(ctx, planKey(id), "plan")
	if err != nil {
		return err
	}
	if p.Creator != creator {
		return contract.Unauthorized("not the plan creator")
	}
	if err := ctx.RequireAuth(creator); err != nil {
		return err
	}
	if !p.Active {
		return contract.Illegal("plan already inactive")
	}
	p.Active = false
	contract.Store(ctx, planKey(id), p)
	emitPlanEvent(ctx, p)
	return nil
}

// Subscribe prepays periods. The first period of a new subscription is
// charged at once; an active subscription is extended instead.
func (Subscriptions) Subscribe(ctx *contract.Context, user sdk.Address, planID uint64, periods uint32) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(user); err != nil {
		return err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return err
	}
	p, err := contract.MustLoad(ctx, planKey(planID), "plan")
	if err != nil {
		return err
	}
	if !p.Active {
		return contract.Illegal("plan inactive")
	}
	if user == p.Creator {
		return contract.Invalid("creator cannot subscribe to own plan")
	}
	s, found := contract.Load(ctx, subKey(planID, user))
	renewing := found && s.Status == StatusActive
	held := periods
	if renewing {
		held += s.Prepaid
	}
	if periods == 0 || held > cfg.MaxPeriods {
		return contract.Failf(contract.KindInvalidArgument, "periods must be between 1 and %d", cfg.MaxPeriods)
	}
	cost, err := contract.MulDiv(p.Price, int64(periods), 1)
	if err != nil {
		return err
	}
	if err := contract.TokenAt(ctx, p.Token).Pull(user, cost); err != nil {
		return err
	}
	now := ctx.Timestamp()
	if renewing {
		s.Prepaid = held
	} else {
		if !found {
			contract.AddToIndex(ctx, userIndex(user), planID)
		}
		s = Subscription{Plan: planID, User: user, Prepaid: periods - 1, PaidThrough: now + p.Period, Status: StatusActive, StartedAt: now}
		if err := credit(ctx, p, p.Price); err != nil {
			return err
		}
		p.Subscribers++
		contract.Store(ctx, planKey(planID), p)
	}
	contract.Store(ctx, subKey(planID, user), s)
	emitSubEvent(ctx, s)
	return nil
}

func credit(ctx *contract.Context, p Plan, amount int64) error {
	next, err := contract.AddAmount(contract.LoadOr(ctx, earningsKey(p.Creator, p.Token), 0), amount)
	if err != nil {
		return err
	}
	contract.Store(ctx, earningsKey(p.Creator, p.Token), next)
	return nil
}

// Renew is the keeper step once a paid period ends: it moves one prepaid
// period into the creator's earnings, or expires the subscription after the
// grace period when nothing is prepaid.
func (Subscriptions) Renew(ctx *contract.Context, planID uint64, user sdk.Address) (Status, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	p, err := contract.MustLoad(ctx, planKey(planID), "plan")
	if err != nil {
		return 0, err
	}
	s, err := contract.MustLoad(ctx, subKey(planID, user), "subscription")
	if err != nil {
		return 0, err
	}
	if s.Status != StatusActive && s.Status != StatusCancelled {
		return 0, contract.Illegal("subscription expired")
	}
	now := ctx.Timestamp()
	if now < s.PaidThrough {
		return 0, contract.Failf(contract.KindIllegalState, "paid through %d", s.PaidThrough)
	}
	switch {
	case s.Status == StatusActive && s.Prepaid > 0:
		if err := credit(ctx, p, p.Price); err != nil {
			return 0, err
		}
		s.Prepaid--
		s.Renewals++
		s.PaidThrough += p.Period
	case now < s.PaidThrough+cfg.GracePeriod:
		return 0, contract.Illegal("in grace period")
	default:
		if s.Status == StatusActive {
			p.Subscribers--
			contract.Store(ctx, planKey(planID), p)
		}
		s.Status = StatusExpired
	}
	contract.Store(ctx, subKey(planID, user), s)
	emitSubEvent(ctx, s)
	return s.Status, nil
}

// Cancel refunds every prepaid period not yet charged. The current period
// stays usable.
func (Subscriptions) Cancel(ctx *contract.Context, user sdk.Address, planID uint64) (int64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(user); err != nil {
		return 0, err
	}
	p, err := contract.MustLoad(ctx, planKey(planID), "plan")
	if err != nil {
		return 0, err
	}
	s, err := contract.MustLoad(ctx, subKey(planID, user), "subscription")
	if err != nil {
		return 0, err
	}
	if s.Status != StatusActive {
		return 0, contract.Illegal("subscription not active")
	}
	refund, err := contract.MulDiv(p.Price, int64(s.Prepaid), 1)
	if err != nil {
		return 0, err
	}
	s.Prepaid = 0
	s.Status = StatusCancelled
	p.Subscribers--
	contract.Store(ctx, subKey(planID, user), s)
	contract.Store(ctx, planKey(planID), p)
	if refund > 0 {
		if err := contract.TokenAt(ctx, p.Token).Pay(user, refund); err != nil {
			return 0, err
		}
	}
	emitSubEvent(ctx, s)
	return refund, nil
}

// Withdraw pays the creator's earnings in token minus the platform fee.
func (Subscriptions) Withdraw(ctx *contract.Context, creator, token sdk.Address) (int64, error) {
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
	earned := contract.LoadOr(ctx, earningsKey(creator, token), 0)
	if earned <= 0 {
		return 0, contract.Illegal("nothing to withdraw")
	}
	fee, err := contract.Bps(earned, cfg.FeeBps)
	if err != nil {
		return 0, err
	}
	contract.Remove(ctx, earningsKey(creator, token))
	tok := contract.TokenAt(ctx, token)
	if err := tok.Pay(creator, earned-fee); err != nil {
		return 0, err
	}
	if fee > 0 {
		if err := tok.Pay(cfg.FeeTo, fee); err != nil {
			return 0, err
		}
	}
	ctx.Emit("sub_withdraw", sdk.Addr("c", creator), sdk.I64("amt", earned-fee), sdk.I64("fee", fee))
	return earned - fee, nil
}

func emitPlanEvent(ctx *contract.Context, p Plan) {
	ctx.Emit("sub_plan",
		sdk.U64("id", p.ID),
		sdk.Addr("c", p.Creator),
		sdk.I64("price", p.Price),
		sdk.Str("tier", p.Tier.String()),
		sdk.Bool("active", p.Active),
	)
}

func emitSubEvent(ctx *contract.Context, s Subscription) {
	ctx.Emit("sub",
		sdk.U64("plan", s.Plan),
		sdk.Addr("u", s.User),
		sdk.U64("prepaid", uint64(s.Prepaid)),
		sdk.U64("through", s.PaidThrough),
		sdk.Str("st", s.Status.String()),
	)
}
