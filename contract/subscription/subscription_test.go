package subscription_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puzzlechain/contract"
	"puzzlechain/contract/contracttest"
	"puzzlechain/contract/subscription"
	"puzzlechain/sdk"
)

var (
	subAddr = sdk.Contract("subscription")
	admin   = contracttest.Admin
	house   = sdk.User("house")
	creator = sdk.User("creator")
	alice   = sdk.User("alice")
	bob     = sdk.User("bob")
	subs    = subscription.New()
)

func setup(t *testing.T) (*contracttest.Env, uint64) {
	e := contracttest.New(t)
	e.Register(subAddr, subs)
	e.Must(subAddr, admin, func(ctx *contract.Context) error {
		return subs.Init(ctx, admin, subscription.Config{FeeBps: 1000, FeeTo: house, GracePeriod: 50, MaxPeriods: 12})
	})
	var plan uint64
	e.Must(subAddr, creator, func(ctx *contract.Context) error {
		var err error
		plan, err = subs.CreatePlan(ctx, creator, contracttest.TokenAddr, 100, 1000, subscription.TierPro)
		return err
	})
	e.Fund(alice, 1000)
	e.Fund(bob, 1000)
	return e, plan
}

func subscribe(e *contracttest.Env, who sdk.Address, plan uint64, periods uint32) error {
	return e.Invoke(subAddr, who, func(ctx *contract.Context) error {
		return subs.Subscribe(ctx, who, plan, periods)
	})
}

func renew(e *contracttest.Env, plan uint64, who sdk.Address) (subscription.Status, error) {
	var st subscription.Status
	err := e.Invoke(subAddr, admin, func(ctx *contract.Context) error {
		var err error
		st, err = subs.Renew(ctx, plan, who)
		return err
	})
	return st, err
}

func access(e *contracttest.Env, plan uint64, who sdk.Address) bool {
	var ok bool
	e.View(subAddr, func(ctx *contract.Context) error {
		ok = subs.HasAccess(ctx, plan, who)
		return nil
	})
	return ok
}

func TestPrepaidRenewCancelWithdraw(t *testing.T) {
	e, plan := setup(t)
	require.NoError(t, subscribe(e, alice, plan, 3))
	assert.Equal(t, int64(700), e.Balance(alice))

	e.At(1500)
	_, err := renew(e, plan, alice)
	contracttest.RequireKind(t, err, contract.KindIllegalState)
	e.At(2000)
	st, err := renew(e, plan, alice)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, st)

	e.At(2100)
	require.NoError(t, subscribe(e, alice, plan, 1))
	contracttest.RequireKind(t, subscribe(e, alice, plan, 20), contract.KindInvalidArgument)
	e.View(subAddr, func(ctx *contract.Context) error {
		s, err := subs.Subscription(ctx, plan, alice)
		assert.Equal(t, uint32(2), s.Prepaid)
		assert.Equal(t, uint64(3000), s.PaidThrough)
		assert.Equal(t, int64(200), subs.Earnings(ctx, creator, contracttest.TokenAddr))
		return err
	})

	e.At(2200)
	var refund int64
	e.Must(subAddr, alice, func(ctx *contract.Context) error {
		refund, err = subs.Cancel(ctx, alice, plan)
		return err
	})
	assert.Equal(t, int64(200), refund)
	assert.Equal(t, int64(800), e.Balance(alice))
	assert.True(t, access(e, plan, alice))

	e.At(3000)
	_, err = renew(e, plan, alice)
	contracttest.RequireKind(t, err, contract.KindIllegalState)
	e.At(3050)
	st, err = renew(e, plan, alice)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusExpired, st)
	assert.False(t, access(e, plan, alice))

	var out int64
	e.Must(subAddr, creator, func(ctx *contract.Context) error {
		out, err = subs.Withdraw(ctx, creator, contracttest.TokenAddr)
		return err
	})
	assert.Equal(t, int64(180), out)
	assert.Equal(t, int64(180), e.Balance(creator))
	assert.Equal(t, int64(20), e.Balance(house))
	e.Fails(contract.KindIllegalState, subAddr, creator, func(ctx *contract.Context) error {
		_, err := subs.Withdraw(ctx, creator, contracttest.TokenAddr)
		return err
	})
}

func TestGraceThenExpiry(t *testing.T) {
	e, plan := setup(t)
	contracttest.RequireKind(t, subscribe(e, creator, plan, 1), contract.KindInvalidArgument)
	require.NoError(t, subscribe(e, bob, plan, 1))

	e.At(2010)
	assert.True(t, access(e, plan, bob))
	_, err := renew(e, plan, bob)
	contracttest.RequireKind(t, err, contract.KindIllegalState)
	e.At(2050)
	st, err := renew(e, plan, bob)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusExpired, st)

	e.View(subAddr, func(ctx *contract.Context) error {
		p, err := subs.Plan(ctx, plan)
		assert.Equal(t, 0, p.Subscribers)
		assert.Equal(t, []uint64{plan}, subs.PlansOf(ctx, bob))
		return err
	})

	e.Fails(contract.KindUnauthorized, subAddr, bob, func(ctx *contract.Context) error {
		return subs.DeactivatePlan(ctx, bob, plan)
	})
	e.Must(subAddr, creator, func(ctx *contract.Context) error {
		return subs.DeactivatePlan(ctx, creator, plan)
	})
	contracttest.RequireKind(t, subscribe(e, bob, plan, 1), contract.KindIllegalState)
}

func TestDispatchSubscribe(t *testing.T) {
	e, plan := setup(t)
	_, err := e.Host.Dispatch(subAddr, alice, "subscribe", contract.JoinArgs(plan, uint32(2)))
	require.NoError(t, err)
	assert.Equal(t, int64(800), e.Balance(alice))
	out, err := e.Host.Dispatch(subAddr, alice, "cancel", contract.JoinArgs(plan))
	require.NoError(t, err)
	assert.Equal(t, "100", out)
}
