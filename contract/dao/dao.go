// Package dao is the staking governance program: members stake the
// governance token, delegate voting power, and vote on proposals that the DAO
// then executes as itself.
package dao

import (
	"puzzlechain/contract"
	"puzzlechain/contract/kernel/shares"
	"puzzlechain/sdk"
)

type Tier uint8

const (
	TierBasic Tier = iota + 1
	TierActive
	TierPremium
	TierCouncil
)

func (t Tier) String() string {
	switch t {
	case TierBasic:
		return "basic"
	case TierActive:
		return "active"
	case TierPremium:
		return "premium"
	case TierCouncil:
		return "council"
	}
	return "none"
}

type Config struct {
	Token    sdk.Address `json:"token"`
	MinStake int64       `json:"min_stake"`
	// Tiers are the stake thresholds of Active, Premium and Council.
	Tiers           [3]int64 `json:"tiers"`
	QuorumBps       uint32   `json:"quorum_bps"`
	ProposalPower   int64    `json:"proposal_power"`
	VotingDelay     uint64   `json:"voting_delay"`
	VotingPeriod    uint64   `json:"voting_period"`
	ExecutionDelay  uint64   `json:"execution_delay"`
	UnstakeCooldown uint64   `json:"unstake_cooldown"`
}

func (c Config) tierOf(stake int64) Tier {
	t := TierBasic
	for i, floor := range c.Tiers {
		if floor > 0 && stake >= floor {
			t = TierBasic + Tier(i+1)
		}
	}
	return t
}

type Member struct {
	Who        sdk.Address   `json:"who"`
	Stake      int64         `json:"stake"`
	Delegated  int64         `json:"delegated"`
	DelegateTo sdk.Address   `json:"delegate_to,omitempty"`
	Tier       Tier          `json:"tier"`
	JoinedAt   uint64        `json:"joined"`
	StakedAt   uint64        `json:"staked"`
	Active     bool          `json:"active"`
	Rewards    shares.Holder `json:"rewards"`
	Points     uint64        `json:"points"`
}

// Power is the member's voting weight: its own stake unless delegated away,
// plus everything delegated to it.
func (m Member) Power() int64 {
	if !m.Active {
		return 0
	}
	if m.DelegateTo != "" {
		return m.Delegated
	}
	return m.Stake + m.Delegated
}

// Staking is the reward pool. Its shares are the staked balances.
type Staking struct {
	Members int         `json:"members"`
	Pool    shares.Pool `json:"pool"`
}

// PowerPoint is one entry of a member's voting power history.
type PowerPoint struct {
	At    uint64 `json:"at"`
	Power int64  `json:"power"`
}

type DAO struct{}

func New() *DAO { return &DAO{} }

func (DAO) Init(ctx *contract.Context, admin sdk.Address, cfg Config) error {
	if cfg.VotingPeriod == 0 {
		cfg.VotingPeriod = 3 * 24 * 3600
	}
	if cfg.QuorumBps == 0 {
		cfg.QuorumBps = 1000
	}
	var chk contract.Checks
	chk.Address(cfg.Token, "token")
	chk.Positive(cfg.MinStake, "min stake")
	chk.Bps(cfg.QuorumBps, "quorum")
	chk.Require(cfg.ProposalPower >= 0, "proposal power must not be negative")
	for i := 1; i < len(cfg.Tiers); i++ {
		chk.Require(cfg.Tiers[i] == 0 || cfg.Tiers[i] >= cfg.Tiers[i-1], "tier thresholds must not decrease")
	}
	if err := chk.Err(); err != nil {
		return err
	}
	return contract.Initialize(ctx, admin, cfg)
}

func (DAO) Member(ctx *contract.Context, who sdk.Address) (Member, error) {
	return contract.MustLoad(ctx, memberKey(who), "member")
}

// VotingPower is zero for non-members.
func (DAO) VotingPower(ctx *contract.Context, who sdk.Address) int64 {
	m, _ := contract.Load(ctx, memberKey(who))
	return m.Power()
}

// PowerAt walks the member's history back to the last change at or before ts.
func (DAO) PowerAt(ctx *contract.Context, who sdk.Address, ts uint64) int64 {
	m, ok := contract.Load(ctx, memberKey(who))
	if !ok {
		return 0
	}
	for n := m.Points; n > 0; n-- {
		p, ok := contract.Load(ctx, powerPointKey(who, n))
		if ok && p.At <= ts {
			return p.Power
		}
	}
	return 0
}

func (DAO) TotalStaked(ctx *contract.Context) int64 {
	return contract.LoadOr(ctx, stakingKey, Staking{}).Pool.TotalShares
}

func (DAO) MemberCount(ctx *contract.Context) int {
	return contract.LoadOr(ctx, stakingKey, Staking{}).Members
}

func (DAO) PendingRewards(ctx *contract.Context, who sdk.Address) (int64, error) {
	m, err := contract.MustLoad(ctx, memberKey(who), "member")
	if err != nil {
		return 0, err
	}
	st := contract.LoadOr(ctx, stakingKey, Staking{})
	return st.Pool.Pending(m.Rewards)
}

// Join stakes at least the minimum and opens the membership.
// Example payload: "500"
func (DAO) Join(ctx *contract.Context, who sdk.Address, amount int64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(who); err != nil {
		return err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return err
	}
	m, found := contract.Load(ctx, memberKey(who))
	if found && m.Active {
		return contract.Illegal("already a member")
	}
	if amount < cfg.MinStake {
		return contract.Failf(contract.KindInvalidArgument, "stake below minimum %d", cfg.MinStake)
	}
	if !found {
		m = Member{Who: who}
	}
	m.Active = true
	m.JoinedAt = ctx.Timestamp()
	st := contract.LoadOr(ctx, stakingKey, Staking{})
	st.Members++
	if err := addStake(ctx, cfg, &st, &m, amount); err != nil {
		return err
	}
	emitMemberEvent(ctx, "dao_join", m)
	return nil
}

// Stake tops up an existing membership.
func (DAO) Stake(ctx *contract.Context, who sdk.Address, amount int64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(who); err != nil {
		return err
	}
	if err := contract.RequirePositive(amount, "amount"); err != nil {
		return err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return err
	}
	m, err := activeMember(ctx, who)
	if err != nil {
		return err
	}
	st := contract.LoadOr(ctx, stakingKey, Staking{})
	if err := addStake(ctx, cfg, &st, &m, amount); err != nil {
		return err
	}
	emitMemberEvent(ctx, "dao_stake", m)
	return nil
}

func addStake(ctx *contract.Context, cfg Config, st *Staking, m *Member, amount int64) error {
	if err := contract.TokenAt(ctx, cfg.Token).Pull(m.Who, amount); err != nil {
		return err
	}
	if err := st.Pool.Add(&m.Rewards, amount); err != nil {
		return err
	}
	return applyStake(ctx, cfg, st, m, m.Rewards.Balance)
}

// applyStake writes the new stake, follows it on the delegate and records
// the power history of both.
func applyStake(ctx *contract.Context, cfg Config, st *Staking, m *Member, stake int64) error {
	if d := stake - m.Stake; d != 0 && m.DelegateTo != "" {
		del, err := contract.MustLoad(ctx, memberKey(m.DelegateTo), "delegate")
		if err != nil {
			return err
		}
		if del.Delegated, err = contract.AddAmount(del.Delegated, d); err != nil {
			return err
		}
		saveMember(ctx, del)
	}
	m.Stake = stake
	m.Tier = cfg.tierOf(stake)
	m.StakedAt = ctx.Timestamp()
	saveMember(ctx, *m)
	contract.Store(ctx, stakingKey, *st)
	return nil
}

// saveMember stores m and appends its power to the history when it changed.
func saveMember(ctx *contract.Context, m Member) {
	power := m.Power()
	last, ok := contract.Load(ctx, powerPointKey(m.Who, m.Points))
	if !ok || last.Power != power {
		if ok && last.At == ctx.Timestamp() {
			last.Power = power
			contract.Store(ctx, powerPointKey(m.Who, m.Points), last)
		} else {
			m.Points++
			contract.Store(ctx, powerPointKey(m.Who, m.Points), PowerPoint{At: ctx.Timestamp(), Power: power})
		}
	}
	contract.Store(ctx, memberKey(m.Who), m)
}

func activeMember(ctx *contract.Context, who sdk.Address) (Member, error) {
	m, err := contract.MustLoad(ctx, memberKey(who), "member")
	if err != nil {
		return Member{}, err
	}
	if !m.Active {
		return Member{}, contract.Illegal("membership closed")
	}
	return m, nil
}

// Unstake withdraws part of the stake once the cooldown since the last stake
// change has passed. Withdrawing everything closes the membership, which is
// refused while others delegate to the member.
func (DAO) Unstake(ctx *contract.Context, who sdk.Address, amount int64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(who); err != nil {
		return err
	}
	if err := contract.RequirePositive(amount, "amount"); err != nil {
		return err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return err
	}
	m, err := activeMember(ctx, who)
	if err != nil {
		return err
	}
	if ctx.Timestamp() < m.StakedAt+cfg.UnstakeCooldown {
		return contract.Failf(contract.KindCooldown, "unstake available at %d", m.StakedAt+cfg.UnstakeCooldown)
	}
	rest, err := contract.SubAmount(m.Stake, amount, "stake")
	if err != nil {
		return err
	}
	if rest > 0 && rest < cfg.MinStake {
		return contract.Failf(contract.KindInvalidArgument, "remaining stake below minimum %d", cfg.MinStake)
	}
	if rest == 0 && m.Delegated > 0 {
		return contract.Illegal("member holds delegated power")
	}
	st := contract.LoadOr(ctx, stakingKey, Staking{})
	if err := st.Pool.Sub(&m.Rewards, amount); err != nil {
		return err
	}
	if rest == 0 {
		if m.DelegateTo != "" {
			if err := undelegate(ctx, &m); err != nil {
				return err
			}
		}
		m.Active = false
		st.Members--
	}
	if err := applyStake(ctx, cfg, &st, &m, rest); err != nil {
		return err
	}
	if err := contract.TokenAt(ctx, cfg.Token).Pay(who, amount); err != nil {
		return err
	}
	emitMemberEvent(ctx, "dao_unstake", m)
	return nil
}

// Delegate hands the member's stake weight to another active member. Chains
// are refused: the delegate may not delegate itself and a member holding
// delegated power may not pass it on.
func (DAO) Delegate(ctx *contract.Context, who, to sdk.Address) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(who); err != nil {
		return err
	}
	if who == to {
		return contract.Invalid("cannot delegate to self")
	}
	m, err := activeMember(ctx, who)
	if err != nil {
		return err
	}
	if m.DelegateTo != "" {
		return contract.Illegal("already delegating")
	}
	if m.Delegated > 0 {
		return contract.Illegal("member holds delegated power")
	}
	del, err := activeMember(ctx, to)
	if err != nil {
		return err
	}
	if del.DelegateTo != "" {
		return contract.Invalid("delegate is delegating")
	}
	if del.Delegated, err = contract.AddAmount(del.Delegated, m.Stake); err != nil {
		return err
	}
	m.DelegateTo = to
	saveMember(ctx, del)
	saveMember(ctx, m)
	ctx.Emit("dao_delegate", sdk.Addr("from", who), sdk.Addr("to", to), sdk.I64("w", m.Stake))
	return nil
}

func (DAO) Undelegate(ctx *contract.Context, who sdk.Address) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(who); err != nil {
		return err
	}
	m, err := activeMember(ctx, who)
	if err != nil {
		return err
	}
	if m.DelegateTo == "" {
		return contract.Illegal("not delegating")
	}
	if err := undelegate(ctx, &m); err != nil {
		return err
	}
	saveMember(ctx, m)
	return nil
}

func undelegate(ctx *contract.Context, m *Member) error {
	del, err := contract.MustLoad(ctx, memberKey(m.DelegateTo), "delegate")
	if err != nil {
		return err
	}
	if del.Delegated, err = contract.SubAmount(del.Delegated, m.Stake, "delegated power"); err != nil {
		return err
	}
	saveMember(ctx, del)
	ctx.Emit("dao_undelegate", sdk.Addr("from", m.Who), sdk.Addr("to", del.Who))
	m.DelegateTo = ""
	return nil
}

// DepositRewards spreads amount of the governance token over the stakers.
func (DAO) DepositRewards(ctx *contract.Context, from sdk.Address, amount int64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(from); err != nil {
		return err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return err
	}
	st := contract.LoadOr(ctx, stakingKey, Staking{})
	if err := st.Pool.Deposit(amount); err != nil {
		return err
	}
	if err := contract.TokenAt(ctx, cfg.Token).Pull(from, amount); err != nil {
		return err
	}
	contract.Store(ctx, stakingKey, st)
	ctx.Emit("dao_rewards", sdk.Addr("from", from), sdk.I64("amt", amount))
	return nil
}

// ClaimRewards also works after the membership closed.
func (DAO) ClaimRewards(ctx *contract.Context, who sdk.Address) (int64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(who); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	m, err := contract.MustLoad(ctx, memberKey(who), "member")
	if err != nil {
		return 0, err
	}
	st := contract.LoadOr(ctx, stakingKey, Staking{})
	out, err := st.Pool.Claim(&m.Rewards)
	if err != nil {
		return 0, err
	}
	if out == 0 {
		return 0, contract.Illegal("nothing to claim")
	}
	contract.Store(ctx, memberKey(who), m)
	contract.Store(ctx, stakingKey, st)
	if err := contract.TokenAt(ctx, cfg.Token).Pay(who, out); err != nil {
		return 0, err
	}
	ctx.Emit("dao_claim", sdk.Addr("who", who), sdk.I64("amt", out))
	return out, nil
}

// Deposit funds the treasury that transfer proposals spend.
func (DAO) Deposit(ctx *contract.Context, from, token sdk.Address, amount int64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	return contract.TreasuryDeposit(ctx, from, token, amount)
}

func (DAO) Treasury(ctx *contract.Context, token sdk.Address) int64 {
	return contract.TreasuryBalance(ctx, token)
}
