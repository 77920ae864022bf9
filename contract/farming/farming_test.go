package farming_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puzzlechain/contract"
	"puzzlechain/contract/contracttest"
	"puzzlechain/contract/farming"
	"puzzlechain/sdk"
)

var (
	farmAddr = sdk.Contract("farming")
	admin    = contracttest.Admin
	house    = sdk.User("house")
	alice    = sdk.User("alice")
	bob      = sdk.User("bob")
	carol    = sdk.User("carol")
	fm       = farming.New()
)

// setup opens two pools at t=1000 sharing 10 reward/s by 100:300.
// Pool 1 locks deposits for 100s with a 10% early penalty.
func setup(t *testing.T) (*contracttest.Env, sdk.Address) {
	e := contracttest.New(t)
	lp := e.NewToken("lp")
	e.Register(farmAddr, fm)
	e.Must(farmAddr, admin, func(ctx *contract.Context) error {
		return fm.Init(ctx, admin, farming.Config{RewardToken: contracttest.TokenAddr, RewardPerSecond: 10, PenaltyTo: house})
	})
	e.Fund(admin, 10_000)
	e.Must(farmAddr, admin, func(ctx *contract.Context) error {
		if err := fm.FundRewards(ctx, admin, 10_000); err != nil {
			return err
		}
		if _, err := fm.AddPool(ctx, admin, lp, 100, 100, 1000); err != nil {
			return err
		}
		_, err := fm.AddPool(ctx, admin, lp, 300, 0, 0)
		return err
	})
	for _, who := range []sdk.Address{alice, bob, carol} {
		e.FundToken(lp, who, 100)
	}
	return e, lp
}

func deposit(e *contracttest.Env, who sdk.Address, pool uint64, amount int64) {
	e.Must(farmAddr, who, func(ctx *contract.Context) error {
		return fm.Deposit(ctx, who, pool, amount)
	})
}

func pending(t *testing.T, e *contracttest.Env, pool uint64, who sdk.Address) int64 {
	var out int64
	e.View(farmAddr, func(ctx *contract.Context) error {
		var err error
		out, err = fm.PendingReward(ctx, pool, who)
		return err
	})
	return out
}

func TestRewardsFollowAllocation(t *testing.T) {
	e, _ := setup(t)
	deposit(e, alice, 1, 100)
	deposit(e, carol, 2, 50)

	e.At(1100)
	assert.Equal(t, int64(250), pending(t, e, 1, alice))
	assert.Equal(t, int64(750), pending(t, e, 2, carol))

	var got int64
	e.Must(farmAddr, alice, func(ctx *contract.Context) error {
		var err error
		got, err = fm.Harvest(ctx, alice, 1)
		return err
	})
	assert.Equal(t, int64(250), got)
	assert.Equal(t, int64(250), e.Balance(alice))

	e.Fails(contract.KindNotAdmin, farmAddr, alice, func(ctx *contract.Context) error {
		return fm.SetAlloc(ctx, alice, 2, 100)
	})
	e.Must(farmAddr, admin, func(ctx *contract.Context) error {
		return fm.SetAlloc(ctx, admin, 2, 100)
	})

	e.At(1200)
	assert.Equal(t, int64(500), pending(t, e, 1, alice))
	assert.Equal(t, int64(1250), pending(t, e, 2, carol))
	e.View(farmAddr, func(ctx *contract.Context) error {
		f := fm.Farm(ctx)
		assert.Equal(t, int64(9000), f.Reserve)
		assert.Equal(t, int64(200), f.TotalAlloc)
		assert.Equal(t, uint64(2), fm.PoolCount(ctx))
		return nil
	})
}

func TestLockPenaltyAndEmergencyExit(t *testing.T) {
	e, lp := setup(t)
	deposit(e, alice, 1, 100)
	deposit(e, bob, 2, 100)

	e.At(1050)
	var out int64
	e.Must(farmAddr, alice, func(ctx *contract.Context) error {
		var err error
		out, err = fm.Withdraw(ctx, alice, 1, 40)
		return err
	})
	assert.Equal(t, int64(36), out)
	assert.Equal(t, int64(4), e.BalanceOf(lp, house))

	e.At(1100)
	e.Must(farmAddr, bob, func(ctx *contract.Context) error {
		var err error
		out, err = fm.EmergencyWithdraw(ctx, bob, 2)
		return err
	})
	assert.Equal(t, int64(100), out)
	assert.Equal(t, int64(100), e.BalanceOf(lp, bob))
	assert.Equal(t, int64(0), pending(t, e, 2, bob))
	e.Fails(contract.KindIllegalState, farmAddr, bob, func(ctx *contract.Context) error {
		_, err := fm.EmergencyWithdraw(ctx, bob, 2)
		return err
	})
	e.Fails(contract.KindIllegalState, farmAddr, bob, func(ctx *contract.Context) error {
		_, err := fm.Harvest(ctx, bob, 2)
		return err
	})

	e.At(1150)
	e.Must(farmAddr, alice, func(ctx *contract.Context) error {
		var err error
		out, err = fm.Withdraw(ctx, alice, 1, 60)
		return err
	})
	assert.Equal(t, int64(60), out)
	assert.Equal(t, int64(96), e.BalanceOf(lp, alice))
	assert.Equal(t, int64(374), pending(t, e, 1, alice))

	e.View(farmAddr, func(ctx *contract.Context) error {
		assert.Equal(t, int64(9625), fm.Farm(ctx).Reserve)
		return nil
	})
}

func TestDispatchDeposit(t *testing.T) {
	e, lp := setup(t)
	_, err := e.Host.Dispatch(farmAddr, carol, "deposit", "2|80")
	require.NoError(t, err)
	assert.Equal(t, int64(20), e.BalanceOf(lp, carol))
	e.At(1010)
	out, err := e.Host.Dispatch(farmAddr, carol, "pending", contract.JoinArgs(uint64(2), carol))
	require.NoError(t, err)
	assert.Equal(t, "75", out)
}
