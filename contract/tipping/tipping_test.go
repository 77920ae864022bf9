package tipping_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puzzlechain/contract"
	"puzzlechain/contract/contracttest"
	"puzzlechain/contract/tipping"
	"puzzlechain/sdk"
)

var (
	tipAddr = sdk.Contract("tipping")
	admin   = contracttest.Admin
	house   = sdk.User("house")
	alice   = sdk.User("alice")
	bob     = sdk.User("bob")
	carol   = sdk.User("carol")
	dave    = sdk.User("dave")
	tp      = tipping.New()
)

func setup(t *testing.T) *contracttest.Env {
	e := contracttest.New(t)
	e.Register(tipAddr, tp)
	e.Must(tipAddr, admin, func(ctx *contract.Context) error {
		return tp.Init(ctx, admin, tipping.Config{FeeBps: 500, FeeTo: house, DailyCap: 100, PairCooldown: 60})
	})
	e.Fund(alice, 1000)
	return e
}

func tip(e *contracttest.Env, from, to sdk.Address, amount int64) error {
	return e.Invoke(tipAddr, from, func(ctx *contract.Context) error {
		_, err := tp.Tip(ctx, from, to, contracttest.TokenAddr, amount, "gg")
		return err
	})
}

func TestTipFeeCapAndCooldown(t *testing.T) {
	e := setup(t)
	require.NoError(t, tip(e, alice, bob, 40))
	assert.Equal(t, int64(38), e.Balance(bob))
	assert.Equal(t, int64(2), e.Balance(house))

	e.At(1030)
	contracttest.RequireKind(t, tip(e, alice, bob, 10), contract.KindCooldown)
	contracttest.RequireKind(t, tip(e, alice, alice, 10), contract.KindInvalidArgument)
	require.NoError(t, tip(e, alice, carol, 50))
	assert.Equal(t, int64(48), e.Balance(carol))
	contracttest.RequireKind(t, tip(e, alice, dave, 20), contract.KindExhausted)

	e.At(1000 + 24*3600)
	require.NoError(t, tip(e, alice, dave, 20))
	assert.Equal(t, int64(19), e.Balance(dave))
	assert.Equal(t, int64(890), e.Balance(alice))

	e.View(tipAddr, func(ctx *contract.Context) error {
		rs := tp.RecipientStats(ctx, bob)
		assert.Equal(t, int64(38), rs.Received)
		assert.Equal(t, 1, rs.Tips)
		assert.Equal(t, 1, rs.Tippers)
		ss := tp.SenderStats(ctx, alice)
		assert.Equal(t, int64(110), ss.Sent)
		assert.Equal(t, 3, ss.Tips)
		assert.Equal(t, int64(20), tp.SpentToday(ctx, alice))
		assert.Equal(t, []uint64{1, 2, 3}, tp.TipsSent(ctx, alice))

		top := tp.TopRecipients(ctx, 3)
		require.Len(t, top, 3)
		assert.Equal(t, []sdk.Address{carol, bob, dave}, []sdk.Address{top[0].Who, top[1].Who, top[2].Who})

		rec, err := tp.TipRecord(ctx, 2)
		assert.Equal(t, int64(2), rec.Fee)
		assert.Equal(t, carol, rec.To)
		return err
	})
}

func TestSetDailyCap(t *testing.T) {
	e := setup(t)
	e.Fails(contract.KindNotAdmin, tipAddr, bob, func(ctx *contract.Context) error {
		return tp.SetDailyCap(ctx, bob, 0)
	})
	contracttest.RequireKind(t, tip(e, alice, bob, 500), contract.KindExhausted)
	_, err := e.Host.Dispatch(tipAddr, admin, "set_daily_cap", "0")
	require.NoError(t, err)
	require.NoError(t, tip(e, alice, bob, 500))
	assert.Equal(t, int64(475), e.Balance(bob))
}

func TestDispatchTip(t *testing.T) {
	e := setup(t)
	out, err := e.Host.Dispatch(tipAddr, alice, "tip", contract.JoinArgs(bob, contracttest.TokenAddr, int64(20), "nice solve"))
	require.NoError(t, err)
	assert.Equal(t, "1", out)
	e.View(tipAddr, func(ctx *contract.Context) error {
		rec, err := tp.TipRecord(ctx, 1)
		assert.Equal(t, "nice solve", rec.Message)
		return err
	})
}
