// Package farming pays a fixed reward rate per second across staking pools,
// split by allocation points and spread over each pool's stake through the
// share accumulator.
package farming

import (
	"puzzlechain/contract"
	"puzzlechain/contract/kernel/shares"
	"puzzlechain/sdk"
)

type Config struct {
	RewardToken     sdk.Address `json:"reward_token"`
	RewardPerSecond int64       `json:"reward_per_second"`
	PenaltyTo       sdk.Address `json:"penalty_to"`
}

// Farm is the global emission state. Reserve is funded reward not yet
// handed to any pool.
type Farm struct {
	TotalAlloc int64 `json:"total_alloc"`
	Reserve    int64 `json:"reserve"`
	Emitted    int64 `json:"emitted"`
}

type Pool struct {
	ID              uint64      `json:"id"`
	StakeToken      sdk.Address `json:"stake_token"`
	AllocPoint      int64       `json:"alloc"`
	LockSecs        uint64      `json:"lock"`
	EarlyPenaltyBps uint32      `json:"penalty_bps"`
	LastReward      uint64      `json:"last_reward"`
	Staked          shares.Pool `json:"staked"`
}

type Position struct {
	Holding     shares.Holder `json:"holding"`
	DepositedAt uint64        `json:"deposited"`
}

type Farming struct{}

func New() *Farming { return &Farming{} }

func (Farming) Init(ctx *contract.Context, admin sdk.Address, cfg Config) error {
	if cfg.PenaltyTo == "" {
		cfg.PenaltyTo = admin
	}
	var chk contract.Checks
	chk.Address(cfg.RewardToken, "reward token")
	chk.Address(cfg.PenaltyTo, "penalty recipient")
	chk.Positive(cfg.RewardPerSecond, "reward per second")
	if err := chk.Err(); err != nil {
		return err
	}
	return contract.Initialize(ctx, admin, cfg)
}

func (Farming) Pool(ctx *contract.Context, id uint64) (Pool, error) {
	return contract.MustLoad(ctx, poolKey(id), "pool")
}

func (Farming) PoolCount(ctx *contract.Context) uint64 {
	return contract.LastID(ctx, "pool")
}

func (Farming) Farm(ctx *contract.Context) Farm {
	return contract.LoadOr(ctx, farmKey, Farm{})
}

func (Farming) Position(ctx *contract.Context, id uint64, who sdk.Address) Position {
	return contract.LoadOr(ctx, positionKey(id, who), Position{})
}

// emission is what pool earned since its last update, capped by the reserve.
func emission(cfg Config, farm Farm, p Pool, now uint64) (int64, error) {
	if now <= p.LastReward || p.Staked.TotalShares == 0 || farm.TotalAlloc == 0 || p.AllocPoint == 0 {
		return 0, nil
	}
	elapsed := now - p.LastReward
	if elapsed > 1<<62 {
		return 0, contract.Fail(contract.KindOverflow, "elapsed time overflow")
	}
	total, err := contract.MulDiv(cfg.RewardPerSecond, int64(elapsed), 1)
	if err != nil {
		return 0, err
	}
	r, err := contract.MulDiv(total, p.AllocPoint, farm.TotalAlloc)
	if err != nil {
		return 0, err
	}
	return min(r, farm.Reserve), nil
}

// update moves the pool's emission from the reserve into its accumulator.
func update(ctx *contract.Context, cfg Config, farm *Farm, p *Pool) error {
	now := ctx.Timestamp()
	r, err := emission(cfg, *farm, *p, now)
	if err != nil {
		return err
	}
	if r > 0 {
		if err := p.Staked.Deposit(r); err != nil {
			return err
		}
		farm.Reserve -= r
		farm.Emitted += r
	}
	if now > p.LastReward {
		p.LastReward = now
	}
	return nil
}

// updateAll settles every pool before the allocation changes.
func updateAll(ctx *contract.Context, cfg Config, farm *Farm) error {
	for id := uint64(1); id <= contract.LastID(ctx, "pool"); id++ {
		p, ok := contract.Load(ctx, poolKey(id))
		if !ok {
			continue
		}
		if err := update(ctx, cfg, farm, &p); err != nil {
			return err
		}
		contract.Store(ctx, poolKey(id), p)
	}
	return nil
}

// PendingReward is what Harvest would pay right now.
func (Farming) PendingReward(ctx *contract.Context, id uint64, who sdk.Address) (int64, error) {
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	p, err := contract.MustLoad(ctx, poolKey(id), "pool")
	if err != nil {
		return 0, err
	}
	farm := contract.LoadOr(ctx, farmKey, Farm{})
	if err := update(ctx, cfg, &farm, &p); err != nil {
		return 0, err
	}
	pos := contract.LoadOr(ctx, positionKey(id, who), Position{})
	return p.Staked.Pending(pos.Holding)
}

// Example payload: "contract:lp|100|86400|500"
func (Farming) AddPool(ctx *contract.Context, admin, stakeToken sdk.Address, allocPoint int64, lockSecs uint64, earlyPenaltyBps uint32) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := contract.RequireAdmin(ctx, admin); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	var chk contract.Checks
	chk.Address(stakeToken, "stake token")
	chk.Require(allocPoint >= 0, "alloc point must not be negative")
	chk.Bps(earlyPenaltyBps, "early penalty")
	if err := chk.Err(); err != nil {
		return 0, err
	}
	farm := contract.LoadOr(ctx, farmKey, Farm{})
	if err := updateAll(ctx, cfg, &farm); err != nil {
		return 0, err
	}
	if farm.TotalAlloc, err = contract.AddAmount(farm.TotalAlloc, allocPoint); err != nil {
		return 0, err
	}
	p := Pool{
		ID:              contract.NextID(ctx, "pool"),
		StakeToken:      stakeToken,
		AllocPoint:      allocPoint,
		LockSecs:        lockSecs,
		EarlyPenaltyBps: earlyPenaltyBps,
		LastReward:      ctx.Timestamp(),
	}
	contract.Store(ctx, poolKey(p.ID), p)
	contract.Store(ctx, farmKey, farm)
	emitPoolEvent(ctx, p)
	return p.ID, nil
}

func (Farming) SetAlloc(ctx *contract.Context, admin sdk.Address, id uint64, allocPoint int64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := contract.RequireAdmin(ctx, admin); err != nil {
		return err
	}
	if allocPoint < 0 {
		return contract.Invalid("alloc point must not be negative")
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return err
	}
	if !contract.Has(ctx, poolKey(id)) {
		return contract.NotFound("pool")
	}
	farm := contract.LoadOr(ctx, farmKey, Farm{})
	if err := updateAll(ctx, cfg, &farm); err != nil {
		return err
	}
	p, err := contract.MustLoad(ctx, poolKey(id), "pool")
	if err != nil {
		return err
	}
	farm.TotalAlloc += allocPoint - p.AllocPoint
	p.AllocPoint = allocPoint
	contract.Store(ctx, poolKey(id), p)
	contract.Store(ctx, farmKey, farm)
	emitPoolEvent(ctx, p)
	return nil
}

// FundRewards adds reward tokens to the reserve pools draw from.
func (Farming) FundRewards(ctx *contract.Context, from sdk.Address, amount int64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(from); err != nil {
		return err
	}
	if err := contract.RequirePositive(amount, "amount"); err != nil {
		return err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return err
	}
	if err := contract.TokenAt(ctx, cfg.RewardToken).Pull(from, amount); err != nil {
		return err
	}
	farm := contract.LoadOr(ctx, farmKey, Farm{})
	if farm.Reserve, err = contract.AddAmount(farm.Reserve, amount); err != nil {
		return err
	}
	contract.Store(ctx, farmKey, farm)
	ctx.Emit("fm_fund", sdk.Addr("from", from), sdk.I64("amt", amount))
	return nil
}

type state struct {
	cfg  Config
	farm Farm
	pool Pool
	pos  Position
}

func load(ctx *contract.Context, who sdk.Address, id uint64) (*state, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return nil, err
	}
	if err := ctx.RequireAuth(who); err != nil {
		return nil, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return nil, err
	}
	p, err := contract.MustLoad(ctx, poolKey(id), "pool")
	if err != nil {
		return nil, err
	}
	st := &state{cfg: cfg, farm: contract.LoadOr(ctx, farmKey, Farm{}), pool: p, pos: contract.LoadOr(ctx, positionKey(id, who), Position{})}
	if err := update(ctx, cfg, &st.farm, &st.pool); err != nil {
		return nil, err
	}
	return st, nil
}

func (st *state) save(ctx *contract.Context, who sdk.Address) {
	contract.Store(ctx, farmKey, st.farm)
	contract.Store(ctx, poolKey(st.pool.ID), st.pool)
	contract.Store(ctx, positionKey(st.pool.ID, who), st.pos)
}

// Deposit stakes amount. Every deposit restarts the lock.
func (Farming) Deposit(ctx *contract.Context, who sdk.Address, id uint64, amount int64) error {
	st, err := load(ctx, who, id)
	if err != nil {
		return err
	}
	if err := contract.RequirePositive(amount, "amount"); err != nil {
		return err
	}
	if err := contract.TokenAt(ctx, st.pool.StakeToken).Pull(who, amount); err != nil {
		return err
	}
	if err := st.pool.Staked.Add(&st.pos.Holding, amount); err != nil {
		return err
	}
	st.pos.DepositedAt = ctx.Timestamp()
	st.save(ctx, who)
	emitPositionEvent(ctx, "fm_deposit", id, who, amount, 0)
	return nil
}

// penalty is the early withdrawal cut while the lock runs.
func (st *state) penalty(now uint64, amount int64) (int64, error) {
	if now >= st.pos.DepositedAt+st.pool.LockSecs {
		return 0, nil
	}
	return contract.Bps(amount, st.pool.EarlyPenaltyBps)
}

func (st *state) payOut(ctx *contract.Context, who sdk.Address, amount int64) (int64, error) {
	cut, err := st.penalty(ctx.Timestamp(), amount)
	if err != nil {
		return 0, err
	}
	tok := contract.TokenAt(ctx, st.pool.StakeToken)
	if err := tok.Pay(who, amount-cut); err != nil {
		return 0, err
	}
	if cut > 0 {
		if err := tok.Pay(st.cfg.PenaltyTo, cut); err != nil {
			return 0, err
		}
	}
	return cut, nil
}

// Withdraw unstakes amount. Earned rewards stay claimable.
func (Farming) Withdraw(ctx *contract.Context, who sdk.Address, id uint64, amount int64) (int64, error) {
	st, err := load(ctx, who, id)
	if err != nil {
		return 0, err
	}
	if err := contract.RequirePositive(amount, "amount"); err != nil {
		return 0, err
	}
	if err := st.pool.Staked.Sub(&st.pos.Holding, amount); err != nil {
		return 0, err
	}
	st.save(ctx, who)
	cut, err := st.payOut(ctx, who, amount)
	if err != nil {
		return 0, err
	}
	emitPositionEvent(ctx, "fm_withdraw", id, who, amount, cut)
	return amount - cut, nil
}

// Harvest pays everything earned in the pool.
func (Farming) Harvest(ctx *contract.Context, who sdk.Address, id uint64) (int64, error) {
	st, err := load(ctx, who, id)
	if err != nil {
		return 0, err
	}
	out, err := st.pool.Staked.Claim(&st.pos.Holding)
	if err != nil {
		return 0, err
	}
	if out == 0 {
		return 0, contract.Illegal("nothing to harvest")
	}
	st.save(ctx, who)
	if err := contract.TokenAt(ctx, st.cfg.RewardToken).Pay(who, out); err != nil {
		return 0, err
	}
	ctx.Emit("fm_harvest", sdk.U64("pool", id), sdk.Addr("who", who), sdk.I64("amt", out))
	return out, nil
}

// EmergencyWithdraw returns the whole stake and gives up every unharvested
// reward, which goes back to the reserve. The lock penalty still applies.
func (Farming) EmergencyWithdraw(ctx *contract.Context, who sdk.Address, id uint64) (int64, error) {
	st, err := load(ctx, who, id)
	if err != nil {
		return 0, err
	}
	amount := st.pos.Holding.Balance
	if amount == 0 {
		return 0, contract.Illegal("nothing staked")
	}
	if err := st.pool.Staked.Sub(&st.pos.Holding, amount); err != nil {
		return 0, err
	}
	forfeited := st.pos.Holding.Claimable
	if err := st.pool.Staked.Forfeit(&st.pos.Holding); err != nil {
		return 0, err
	}
	st.farm.Reserve += forfeited
	st.farm.Emitted -= forfeited
	st.save(ctx, who)
	cut, err := st.payOut(ctx, who, amount)
	if err != nil {
		return 0, err
	}
	ctx.Emit("fm_emergency", sdk.U64("pool", id), sdk.Addr("who", who), sdk.I64("amt", amount), sdk.I64("forfeit", forfeited))
	return amount - cut, nil
}

func emitPoolEvent(ctx *contract.Context, p Pool) {
	ctx.Emit("fm_pool",
		sdk.U64("id", p.ID),
		sdk.Addr("tok", p.StakeToken),
		sdk.I64("alloc", p.AllocPoint),
	)
}

func emitPositionEvent(ctx *contract.Context, topic string, id uint64, who sdk.Address, amount, penalty int64) {
	ctx.Emit(topic, sdk.U64("pool", id), sdk.Addr("who", who), sdk.I64("amt", amount), sdk.I64("pen", penalty))
}
