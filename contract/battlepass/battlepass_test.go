package battlepass_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puzzlechain/contract"
	"puzzlechain/contract/battlepass"
	"puzzlechain/contract/contracttest"
	"puzzlechain/sdk"
)

var (
	bpAddr = sdk.Contract("battlepass")
	admin  = contracttest.Admin
	oracle = sdk.User("oracle")
	alice  = sdk.User("alice")
	bob    = sdk.User("bob")
	bp     = battlepass.New()
)

func setup(t *testing.T) (*contracttest.Env, uint64) {
	e := contracttest.New(t)
	e.Register(bpAddr, bp)
	e.Must(bpAddr, admin, func(ctx *contract.Context) error {
		return bp.Init(ctx, admin, battlepass.Config{Token: contracttest.TokenAddr, Oracle: oracle})
	})
	var season uint64
	e.Must(bpAddr, admin, func(ctx *contract.Context) error {
		var err error
		season, err = bp.CreateSeason(ctx, admin, 1000, 2000, 50, 100, 3, []battlepass.LevelReward{
			{Free: 10, Premium: 20},
			{Free: 10, Premium: 30},
		})
		return err
	})
	e.Fund(alice, 1000)
	e.Fund(admin, 1000)
	return e, season
}

func grant(e *contracttest.Env, by, who sdk.Address, season uint64, xp int64) uint64 {
	var lvl uint64
	e.Must(bpAddr, by, func(ctx *contract.Context) error {
		var err error
		lvl, err = bp.GrantXP(ctx, by, who, season, xp)
		return err
	})
	return lvl
}

func claimLevel(e *contracttest.Env, who sdk.Address, season, level uint64) int64 {
	var got int64
	e.Must(bpAddr, who, func(ctx *contract.Context) error {
		var err error
		got, err = bp.ClaimLevelReward(ctx, who, season, level)
		return err
	})
	return got
}

func TestTracksAndPool(t *testing.T) {
	e, season := setup(t)
	e.Must(bpAddr, alice, func(ctx *contract.Context) error {
		return bp.BuyPremium(ctx, alice, season)
	})
	assert.Equal(t, uint64(2), grant(e, oracle, alice, season, 250))
	assert.Equal(t, uint64(1), grant(e, admin, bob, season, 100))
	e.Fails(contract.KindNotAdmin, bpAddr, bob, func(ctx *contract.Context) error {
		_, err := bp.GrantXP(ctx, bob, bob, season, 1000)
		return err
	})
	e.Must(bpAddr, admin, func(ctx *contract.Context) error {
		return bp.FundRewards(ctx, admin, season, 100)
	})

	assert.Equal(t, int64(30), claimLevel(e, alice, season, 1))
	assert.Equal(t, int64(40), claimLevel(e, alice, season, 2))
	assert.Equal(t, int64(10), claimLevel(e, bob, season, 1))
	e.Fails(contract.KindIllegalState, bpAddr, bob, func(ctx *contract.Context) error {
		_, err := bp.ClaimLevelReward(ctx, bob, season, 2)
		return err
	})
	e.Fails(contract.KindIllegalState, bpAddr, alice, func(ctx *contract.Context) error {
		_, err := bp.ClaimLevelReward(ctx, alice, season, 1)
		return err
	})

	e.Must(bpAddr, admin, func(ctx *contract.Context) error {
		return bp.FundPool(ctx, admin, season, 70)
	})
	out, err := e.Host.Dispatch(bpAddr, alice, "claim_pool", "1")
	require.NoError(t, err)
	assert.Equal(t, "50", out)
	out, err = e.Host.Dispatch(bpAddr, bob, "claim_pool", "1")
	require.NoError(t, err)
	assert.Equal(t, "20", out)

	e.View(bpAddr, func(ctx *contract.Context) error {
		s, err := bp.Season(ctx, season)
		require.NoError(t, err)
		assert.Equal(t, int64(70), s.Reserve)
		top, err := bp.TopPlayers(ctx, season, 10)
		require.NoError(t, err)
		require.Len(t, top, 2)
		assert.Equal(t, alice, top[0].Who)
		return nil
	})
}

func TestSeasonLifecycle(t *testing.T) {
	e, season := setup(t)
	e.Must(bpAddr, alice, func(ctx *contract.Context) error {
		return bp.BuyPremium(ctx, alice, season)
	})
	e.Fails(contract.KindIllegalState, bpAddr, alice, func(ctx *contract.Context) error {
		return bp.BuyPremium(ctx, alice, season)
	})
	e.Fails(contract.KindIllegalState, bpAddr, admin, func(ctx *contract.Context) error {
		return bp.EndSeason(ctx, admin, season)
	})
	e.Must(bpAddr, admin, func(ctx *contract.Context) error {
		return bp.CancelSeason(ctx, admin, season)
	})
	var refund int64
	e.Must(bpAddr, alice, func(ctx *contract.Context) error {
		var err error
		refund, err = bp.RefundPremium(ctx, alice, season)
		return err
	})
	assert.Equal(t, int64(50), refund)
	assert.Equal(t, int64(1000), e.Balance(alice))
}

func TestEndSeason(t *testing.T) {
	e, season := setup(t)
	grant(e, admin, alice, season, 100)
	e.At(2001)
	e.Fails(contract.KindIllegalState, bpAddr, admin, func(ctx *contract.Context) error {
		_, err := bp.GrantXP(ctx, admin, alice, season, 1)
		return err
	})
	e.Fails(contract.KindExpired, bpAddr, bob, func(ctx *contract.Context) error {
		return bp.BuyPremium(ctx, bob, season)
	})
	e.Must(bpAddr, admin, func(ctx *contract.Context) error {
		return bp.EndSeason(ctx, admin, season)
	})
	e.View(bpAddr, func(ctx *contract.Context) error {
		s, err := bp.Season(ctx, season)
		require.NoError(t, err)
		assert.Equal(t, battlepass.StatusCompleted, s.Status)
		return nil
	})
}
