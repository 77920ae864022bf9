package quest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puzzlechain/contract"
	"puzzlechain/contract/contracttest"
	"puzzlechain/contract/quest"
	"puzzlechain/sdk"
)

var (
	questAddr = sdk.Contract("quest")
	admin     = contracttest.Admin
	alice     = sdk.User("alice")
	bob       = sdk.User("bob")
	qs        = quest.New()
)

func setup(t *testing.T) *contracttest.Env {
	e := contracttest.New(t)
	e.Register(questAddr, qs)
	e.Must(questAddr, admin, func(ctx *contract.Context) error {
		return qs.Init(ctx, admin, quest.Config{Token: contracttest.TokenAddr, NFT: contracttest.NFTAddr})
	})
	return e
}

func createChain(e *contracttest.Env, steps []quest.Step, end, prereq, cooldown uint64, reward int64) uint64 {
	var id uint64
	e.Must(questAddr, admin, func(ctx *contract.Context) error {
		var err error
		id, err = qs.CreateChain(ctx, admin, "chain", steps, 1000, end, prereq, cooldown, reward)
		return err
	})
	return id
}

func start(e *contracttest.Env, who sdk.Address, id uint64) error {
	return e.Invoke(questAddr, who, func(ctx *contract.Context) error {
		return qs.Start(ctx, who, id)
	})
}

func step(e *contracttest.Env, who sdk.Address, id uint64) (int, error) {
	var n int
	err := e.Invoke(questAddr, who, func(ctx *contract.Context) error {
		var err error
		n, err = qs.CompleteStep(ctx, who, id)
		return err
	})
	return n, err
}

func TestChainWalkthrough(t *testing.T) {
	e := setup(t)
	first := createChain(e, []quest.Step{{PuzzleID: 1, XP: 50}, {PuzzleID: 2, XP: 75}}, 10_000, 0, 100, 500)
	second := createChain(e, []quest.Step{{PuzzleID: 3, XP: 100}}, 10_000, first, 0, 0)

	contracttest.RequireKind(t, start(e, alice, second), contract.KindIllegalState)
	require.NoError(t, start(e, alice, first))
	contracttest.RequireKind(t, start(e, alice, first), contract.KindIllegalState)

	_, err := step(e, alice, first)
	contracttest.RequireKind(t, err, contract.KindUnauthorized)
	e.MintNFT(alice, 1)
	n, err := step(e, alice, first)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	e.At(1050)
	_, err = step(e, alice, first)
	contracttest.RequireKind(t, err, contract.KindCooldown)
	e.At(1100)
	_, err = step(e, alice, first)
	contracttest.RequireKind(t, err, contract.KindUnauthorized)
	e.MintNFT(alice, 2)
	n, err = step(e, alice, first)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var reward int64
	e.Must(questAddr, alice, func(ctx *contract.Context) error {
		reward, err = qs.ClaimReward(ctx, alice, first)
		return err
	})
	assert.Equal(t, int64(500), reward)
	assert.Equal(t, int64(500), e.Balance(alice))
	e.Fails(contract.KindIllegalState, questAddr, alice, func(ctx *contract.Context) error {
		_, err := qs.ClaimReward(ctx, alice, first)
		return err
	})

	require.NoError(t, start(e, alice, second))
	e.MintNFT(alice, 3)
	_, err = step(e, alice, second)
	require.NoError(t, err)

	require.NoError(t, start(e, bob, first))
	e.MintNFT(bob, 1)
	_, err = step(e, bob, first)
	require.NoError(t, err)

	e.View(questAddr, func(ctx *contract.Context) error {
		assert.Equal(t, int64(225), qs.XP(ctx, alice))
		top := qs.TopPlayers(ctx, 5)
		require.Len(t, top, 2)
		assert.Equal(t, alice, top[0].Who)
		assert.Equal(t, bob, top[1].Who)
		assert.Equal(t, []uint64{first, second}, qs.ChainsOf(ctx, alice))
		c, err := qs.Chain(ctx, first)
		assert.Equal(t, 2, c.Started)
		assert.Equal(t, 1, c.Completed)
		return err
	})

	e.Must(questAddr, admin, func(ctx *contract.Context) error {
		return qs.CloseChain(ctx, admin, first)
	})
	e.At(1300)
	_, err = step(e, bob, first)
	contracttest.RequireKind(t, err, contract.KindIllegalState)
}

func TestChainWindow(t *testing.T) {
	e := setup(t)
	e.Fails(contract.KindNotAdmin, questAddr, alice, func(ctx *contract.Context) error {
		_, err := qs.CreateChain(ctx, alice, "x", []quest.Step{{PuzzleID: 1}}, 1000, 2000, 0, 0, 0)
		return err
	})
	e.Fails(contract.KindNotFound, questAddr, admin, func(ctx *contract.Context) error {
		_, err := qs.CreateChain(ctx, admin, "x", []quest.Step{{PuzzleID: 1}}, 1000, 2000, 9, 0, 0)
		return err
	})
	id := createChain(e, []quest.Step{{PuzzleID: 1, XP: 10}}, 2000, 0, 0, 0)
	e.At(2001)
	contracttest.RequireKind(t, start(e, alice, id), contract.KindExpired)
}

func TestDispatchCreateChain(t *testing.T) {
	e := setup(t)
	out, err := e.Host.Dispatch(questAddr, admin, "create_chain", "Intro|1:50,2:75|1000|5000|0|60|100")
	require.NoError(t, err)
	assert.Equal(t, "1", out)
	_, err = e.Host.Dispatch(questAddr, alice, "start", "1")
	require.NoError(t, err)
	e.MintNFT(alice, 1)
	out, err = e.Host.Dispatch(questAddr, alice, "complete_step", "1")
	require.NoError(t, err)
	assert.Equal(t, "1", out)
	out, err = e.Host.Dispatch(questAddr, alice, "xp", alice.String())
	require.NoError(t, err)
	assert.Equal(t, "50", out)
}
