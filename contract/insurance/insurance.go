// Package insurance sells puzzle policies backed by an underwriting pool.
// Underwriters own the pool capital as shares and earn the premiums.
package insurance

import (
	"encoding/hex"
	"strings"

	"puzzlechain/contract"
	"puzzlechain/contract/kernel/shares"
	"puzzlechain/sdk"
)

type Risk uint8

const (
	RiskLow Risk = iota + 1
	RiskMedium
	RiskHigh
	RiskExtreme
)

func (r Risk) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskExtreme:
		return "extreme"
	}
	return "unknown"
}

// Multiplier scales the base premium rate, in bps.
func (r Risk) Multiplier() int64 {
	switch r {
	case RiskLow:
		return 10_000
	case RiskMedium:
		return 15_000
	case RiskHigh:
		return 20_000
	case RiskExtreme:
		return 30_000
	}
	return 0
}

func ParseRisk(s string) (Risk, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, nil
	case "medium":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	case "extreme":
		return RiskExtreme, nil
	}
	return 0, contract.Invalid("unknown risk")
}

type PolicyStatus uint8

const (
	PolicyActive PolicyStatus = iota + 1
	PolicyClaimed
	PolicyExpired
)

func (s PolicyStatus) String() string {
	switch s {
	case PolicyActive:
		return "active"
	case PolicyClaimed:
		return "claimed"
	case PolicyExpired:
		return "expired"
	}
	return "unknown"
}

type ClaimStatus uint8

const (
	ClaimPending ClaimStatus = iota + 1
	ClaimApproved
	ClaimRejected
)

func (s ClaimStatus) String() string {
	switch s {
	case ClaimPending:
		return "pending"
	case ClaimApproved:
		return "approved"
	case ClaimRejected:
		return "rejected"
	}
	return "unknown"
}

type Config struct {
	Token         sdk.Address `json:"token"`
	RateBps       uint32      `json:"rate_bps"`
	MinDuration   uint64      `json:"min_duration"`
	MaxDuration   uint64      `json:"max_duration"`
	WaitingPeriod uint64      `json:"waiting_period"`
	ClaimCooldown uint64      `json:"claim_cooldown"`
}

type Policy struct {
	ID       uint64       `json:"id"`
	Holder   sdk.Address  `json:"holder"`
	PuzzleID uint32       `json:"puzzle"`
	Coverage int64        `json:"coverage"`
	Premium  int64        `json:"premium"`
	Risk     Risk         `json:"risk"`
	Start    uint64       `json:"start"`
	End      uint64       `json:"end"`
	Status   PolicyStatus `json:"status"`
	Pending  uint64       `json:"pending,omitempty"`
}

type Claim struct {
	ID       uint64      `json:"id"`
	Policy   uint64      `json:"policy"`
	Holder   sdk.Address `json:"holder"`
	Amount   int64       `json:"amount"`
	Evidence string      `json:"evidence"`
	Status   ClaimStatus `json:"status"`
	FiledAt  uint64      `json:"filed"`
	Assessor sdk.Address `json:"assessor,omitempty"`
	Reason   string      `json:"reason,omitempty"`
}

// Pool is the underwriting capital. Locked is the coverage of active policies.
type Pool struct {
	Capital    int64       `json:"capital"`
	Locked     int64       `json:"locked"`
	Premiums   int64       `json:"premiums"`
	ClaimsPaid int64       `json:"claims_paid"`
	Shares     shares.Pool `json:"shares"`
}

// Free is the capital not backing any active policy.
func (p Pool) Free() int64 { return p.Capital - p.Locked }

type Underwriter struct {
	Holding shares.Holder `json:"holding"`
}

// HolderRecord tracks fraud state per policy holder.
type HolderRecord struct {
	Flagged     bool   `json:"flagged"`
	LastClaimAt uint64 `json:"last_claim"`
	Claims      int    `json:"claims"`
}

type Insurance struct{}

func New() *Insurance { return &Insurance{} }

func (Insurance) Init(ctx *contract.Context, admin sdk.Address, cfg Config) error {
	if cfg.RateBps == 0 {
		cfg.RateBps = 500
	}
	if cfg.MaxDuration == 0 {
		cfg.MaxDuration = 365 * 24 * 3600
	}
	var chk contract.Checks
	chk.Address(cfg.Token, "token")
	chk.Bps(cfg.RateBps, "rate")
	chk.Require(cfg.MinDuration <= cfg.MaxDuration, "min duration above max duration")
	if err := chk.Err(); err != nil {
		return err
	}
	return contract.Initialize(ctx, admin, cfg)
}

func (Insurance) Policy(ctx *contract.Context, id uint64) (Policy, error) {
	return contract.MustLoad(ctx, policyKey(id), "policy")
}

func (Insurance) Claim(ctx *contract.Context, id uint64) (Claim, error) {
	return contract.MustLoad(ctx, claimKey(id), "claim")
}

func (Insurance) PoliciesOf(ctx *contract.Context, holder sdk.Address) []uint64 {
	return contract.IndexIDs(ctx, holderIndex(holder))
}

func (Insurance) Pool(ctx *contract.Context) Pool {
	return contract.LoadOr(ctx, poolKey, Pool{})
}

func (Insurance) IsFlagged(ctx *contract.Context, holder sdk.Address) bool {
	return contract.LoadOr(ctx, holderKey(holder), HolderRecord{}).Flagged
}

// Quote is coverage x rate x risk multiplier, rounded up.
func (Insurance) Quote(ctx *contract.Context, coverage int64, risk Risk) (int64, error) {
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	return premium(cfg, coverage, risk)
}

func premium(cfg Config, coverage int64, risk Risk) (int64, error) {
	mult := risk.Multiplier()
	if mult == 0 {
		return 0, contract.Invalid("unknown risk")
	}
	return contract.MulDivCeil(coverage, int64(cfg.RateBps)*mult, contract.BpsDenominator*contract.BpsDenominator)
}

// Underwrite adds capital and mints pool shares at the current capital per share.
func (Insurance) Underwrite(ctx *contract.Context, funder sdk.Address, amount int64) (int64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(funder); err != nil {
		return 0, err
	}
	if err := contract.RequirePositive(amount, "amount"); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	pool := contract.LoadOr(ctx, poolKey, Pool{})
	minted := amount
	if pool.Shares.TotalShares > 0 {
		if pool.Capital <= 0 {
			return 0, contract.Illegal("pool capital exhausted")
		}
		if minted, err = contract.MulDiv(amount, pool.Shares.TotalShares, pool.Capital); err != nil {
			return 0, err
		}
	}
	if minted <= 0 {
		return 0, contract.Invalid("amount too small")
	}
	if err := contract.TokenAt(ctx, cfg.Token).Pull(funder, amount); err != nil {
		return 0, err
	}
	uw := contract.LoadOr(ctx, underwriterKey(funder), Underwriter{})
	if err := pool.Shares.Add(&uw.Holding, minted); err != nil {
		return 0, err
	}
	if pool.Capital, err = contract.AddAmount(pool.Capital, amount); err != nil {
		return 0, err
	}
	contract.Store(ctx, underwriterKey(funder), uw)
	contract.Store(ctx, poolKey, pool)
	ctx.Emit("ins_uw", sdk.Addr("by", funder), sdk.I64("amt", amount), sdk.I64("sh", minted))
	return minted, nil
}

// WithdrawCapital burns shares for their part of the capital, limited to
// what no active policy needs.
func (Insurance) WithdrawCapital(ctx *contract.Context, funder sdk.Address, n int64) (int64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(funder); err != nil {
		return 0, err
	}
	if err := contract.RequirePositive(n, "shares"); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	uw, err := contract.MustLoad(ctx, underwriterKey(funder), "underwriter")
	if err != nil {
		return 0, err
	}
	if n > uw.Holding.Balance {
		return 0, contract.Illegal("insufficient shares")
	}
	pool := contract.LoadOr(ctx, poolKey, Pool{})
	value, err := contract.MulDiv(n, pool.Capital, pool.Shares.TotalShares)
	if err != nil {
		return 0, err
	}
	if value > pool.Free() {
		return 0, contract.Fail(contract.KindExhausted, "capital locked by active policies")
	}
	if err := pool.Shares.Sub(&uw.Holding, n); err != nil {
		return 0, err
	}
	pool.Capital -= value
	contract.Store(ctx, underwriterKey(funder), uw)
	contract.Store(ctx, poolKey, pool)
	if err := contract.TokenAt(ctx, cfg.Token).Pay(funder, value); err != nil {
		return 0, err
	}
	ctx.Emit("ins_withdraw", sdk.Addr("by", funder), sdk.I64("amt", value))
	return value, nil
}

// ClaimPremiums pays the underwriter's share of collected premiums.
func (Insurance) ClaimPremiums(ctx *contract.Context, funder sdk.Address) (int64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(funder); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	uw, err := contract.MustLoad(ctx, underwriterKey(funder), "underwriter")
	if err != nil {
		return 0, err
	}
	pool := contract.LoadOr(ctx, poolKey, Pool{})
	out, err := pool.Shares.Claim(&uw.Holding)
	if err != nil {
		return 0, err
	}
	if out == 0 {
		return 0, contract.Illegal("nothing to claim")
	}
	contract.Store(ctx, underwriterKey(funder), uw)
	contract.Store(ctx, poolKey, pool)
	if err := contract.TokenAt(ctx, cfg.Token).Pay(funder, out); err != nil {
		return 0, err
	}
	return out, nil
}

func (Insurance) UnderwriterShares(ctx *contract.Context, funder sdk.Address) int64 {
	return contract.LoadOr(ctx, underwriterKey(funder), Underwriter{}).Holding.Balance
}

// BuyPolicy charges the premium and locks coverage out of the free capital.
func (Insurance) BuyPolicy(ctx *contract.Context, holder sdk.Address, puzzleID uint32, coverage int64, duration uint64, risk Risk) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(holder); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	var chk contract.Checks
	chk.Positive(coverage, "coverage")
	chk.Require(duration >= cfg.MinDuration && duration <= cfg.MaxDuration && duration > 0, "duration out of range")
	chk.Require(risk.Multiplier() > 0, "unknown risk")
	if err := chk.Err(); err != nil {
		return 0, err
	}
	if contract.LoadOr(ctx, holderKey(holder), HolderRecord{}).Flagged {
		return 0, contract.Fail(contract.KindFraud, "holder is flagged")
	}
	pool := contract.LoadOr(ctx, poolKey, Pool{})
	if coverage > pool.Free() {
		return 0, contract.Fail(contract.KindExhausted, "not enough free capital")
	}
	prem, err := premium(cfg, coverage, risk)
	if err != nil {
		return 0, err
	}
	if err := contract.TokenAt(ctx, cfg.Token).Pull(holder, prem); err != nil {
		return 0, err
	}
	if err := pool.Shares.Deposit(prem); err != nil {
		return 0, err
	}
	pool.Locked += coverage
	if pool.Premiums, err = contract.AddAmount(pool.Premiums, prem); err != nil {
		return 0, err
	}
	now := ctx.Timestamp()
	p := Policy{
		ID:       contract.NextID(ctx, "policy"),
		Holder:   holder,
		PuzzleID: puzzleID,
		Coverage: coverage,
		Premium:  prem,
		Risk:     risk,
		Start:    now,
		End:      now + duration,
		Status:   PolicyActive,
	}
	contract.Store(ctx, policyKey(p.ID), p)
	contract.Store(ctx, poolKey, pool)
	contract.AddToIndex(ctx, holderIndex(holder), p.ID)
	emitPolicyEvent(ctx, p)
	return p.ID, nil
}

// EvidenceHash is the hex sha256 under which evidence is deduplicated.
func EvidenceHash(evidence string) string {
	sum := contract.NewWriter().String(strings.TrimSpace(evidence)).Sum()
	return hex.EncodeToString(sum[:])
}

// FileClaim opens a claim against an active policy. Filing inside the
// waiting period, reusing evidence, filing again within the cooldown or
// filing while flagged is refused as fraud.
func (Insurance) FileClaim(ctx *contract.Context, holder sdk.Address, policyID uint64, amount int64, evidence string) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(holder); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	p, err := contract.MustLoad(ctx, policyKey(policyID), "policy")
	if err != nil {
		return 0, err
	}
	if p.Holder != holder {
		return 0, contract.Unauthorized("not the policy holder")
	}
	if p.Status != PolicyActive {
		return 0, contract.Illegal("policy not active")
	}
	now := ctx.Timestamp()
	if now > p.End {
		return 0, contract.Fail(contract.KindExpired, "policy ended")
	}
	if p.Pending != 0 {
		return 0, contract.Illegal("claim already pending")
	}
	var chk contract.Checks
	chk.Positive(amount, "amount")
	chk.Require(amount <= p.Coverage, "amount above coverage")
	chk.Require(strings.TrimSpace(evidence) != "", "evidence required")
	if err := chk.Err(); err != nil {
		return 0, err
	}
	rec := contract.LoadOr(ctx, holderKey(holder), HolderRecord{})
	hash := EvidenceHash(evidence)
	switch {
	case rec.Flagged:
		return 0, contract.Fail(contract.KindFraud, "holder is flagged")
	case now < p.Start+cfg.WaitingPeriod:
		return 0, contract.Fail(contract.KindFraud, "claim inside waiting period")
	case contract.Has(ctx, evidenceKey(hash)):
		return 0, contract.Fail(contract.KindFraud, "duplicate evidence")
	case rec.Claims > 0 && now < rec.LastClaimAt+cfg.ClaimCooldown:
		return 0, contract.Fail(contract.KindFraud, "claim cooldown active")
	}
	c := Claim{
		ID:       contract.NextID(ctx, "claim"),
		Policy:   policyID,
		Holder:   holder,
		Amount:   amount,
		Evidence: hash,
		Status:   ClaimPending,
		FiledAt:  now,
	}
	rec.Claims++
	rec.LastClaimAt = now
	p.Pending = c.ID
	contract.Store(ctx, claimKey(c.ID), c)
	contract.Store(ctx, evidenceKey(hash), c.ID)
	contract.Store(ctx, holderKey(holder), rec)
	contract.Store(ctx, policyKey(policyID), p)
	emitClaimEvent(ctx, c)
	return c.ID, nil
}

func requireAssessor(ctx *contract.Context, assessor sdk.Address) error {
	if !contract.Allowed(ctx, assessorList, assessor) {
		return contract.Unauthorized("not an assessor")
	}
	return ctx.RequireAuth(assessor)
}

func pendingClaim(ctx *contract.Context, id uint64) (Claim, Policy, error) {
	c, err := contract.MustLoad(ctx, claimKey(id), "claim")
	if err != nil {
		return Claim{}, Policy{}, err
	}
	if c.Status != ClaimPending {
		return Claim{}, Policy{}, contract.Illegal("claim already decided")
	}
	p, err := contract.MustLoad(ctx, policyKey(c.Policy), "policy")
	return c, p, err
}

// ApproveClaim pays the claim out of the pool and closes the policy.
func (Insurance) ApproveClaim(ctx *contract.Context, assessor sdk.Address, id uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := requireAssessor(ctx, assessor); err != nil {
		return err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return err
	}
	c, p, err := pendingClaim(ctx, id)
	if err != nil {
		return err
	}
	pool := contract.LoadOr(ctx, poolKey, Pool{})
	if pool.Capital, err = contract.SubAmount(pool.Capital, c.Amount, "pool capital"); err != nil {
		return err
	}
	pool.Locked -= p.Coverage
	pool.ClaimsPaid += c.Amount
	c.Status = ClaimApproved
	c.Assessor = assessor
	p.Status = PolicyClaimed
	p.Pending = 0
	contract.Store(ctx, poolKey, pool)
	contract.Store(ctx, claimKey(id), c)
	contract.Store(ctx, policyKey(p.ID), p)
	if err := contract.TokenAt(ctx, cfg.Token).Pay(c.Holder, c.Amount); err != nil {
		return err
	}
	emitClaimEvent(ctx, c)
	emitPolicyEvent(ctx, p)
	return nil
}

// RejectClaim closes the claim and leaves the policy active.
func (Insurance) RejectClaim(ctx *contract.Context, assessor sdk.Address, id uint64, reason string) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := requireAssessor(ctx, assessor); err != nil {
		return err
	}
	c, p, err := pendingClaim(ctx, id)
	if err != nil {
		return err
	}
	c.Status = ClaimRejected
	c.Assessor = assessor
	c.Reason = reason
	p.Pending = 0
	contract.Store(ctx, claimKey(id), c)
	contract.Store(ctx, policyKey(p.ID), p)
	emitClaimEvent(ctx, c)
	return nil
}

// ExpirePolicy releases the coverage of an ended policy. Anyone may call it.
func (Insurance) ExpirePolicy(ctx *contract.Context, id uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	p, err := contract.MustLoad(ctx, policyKey(id), "policy")
	if err != nil {
		return err
	}
	if p.Status != PolicyActive {
		return contract.Illegal("policy not active")
	}
	if ctx.Timestamp() <= p.End {
		return contract.Illegal("policy still running")
	}
	if p.Pending != 0 {
		return contract.Illegal("claim pending")
	}
	pool := contract.LoadOr(ctx, poolKey, Pool{})
	pool.Locked -= p.Coverage
	p.Status = PolicyExpired
	contract.Store(ctx, poolKey, pool)
	contract.Store(ctx, policyKey(id), p)
	emitPolicyEvent(ctx, p)
	return nil
}

// FlagHolder marks or clears a holder suspected of fraud. Admin only.
func (Insurance) FlagHolder(ctx *contract.Context, admin, holder sdk.Address, flagged bool) error {
	if err := contract.RequireAdmin(ctx, admin); err != nil {
		return err
	}
	rec := contract.LoadOr(ctx, holderKey(holder), HolderRecord{})
	rec.Flagged = flagged
	contract.Store(ctx, holderKey(holder), rec)
	ctx.Emit("ins_flag", sdk.Addr("h", holder), sdk.Bool("f", flagged))
	return nil
}

func (Insurance) AddAssessor(ctx *contract.Context, admin, who sdk.Address) error {
	if err := contract.RequireAdmin(ctx, admin); err != nil {
		return err
	}
	if !who.IsValid() {
		return contract.Invalid("invalid assessor")
	}
	if !contract.AllowAdd(ctx, assessorList, who) {
		return contract.Illegal("already an assessor")
	}
	return nil
}

func (Insurance) RemoveAssessor(ctx *contract.Context, admin, who sdk.Address) error {
	if err := contract.RequireAdmin(ctx, admin); err != nil {
		return err
	}
	if !contract.AllowRemove(ctx, assessorList, who) {
		return contract.NotFound("assessor")
	}
	return nil
}

func emitPolicyEvent(ctx *contract.Context, p Policy) {
	ctx.Emit("ins_policy",
		sdk.U64("id", p.ID),
		sdk.Addr("h", p.Holder),
		sdk.I64("cov", p.Coverage),
		sdk.I64("prem", p.Premium),
		sdk.Str("st", p.Status.String()),
	)
}

func emitClaimEvent(ctx *contract.Context, c Claim) {
	ctx.Emit("ins_claim",
		sdk.U64("id", c.ID),
		sdk.U64("pol", c.Policy),
		sdk.I64("amt", c.Amount),
		sdk.Str("st", c.Status.String()),
	)
}
