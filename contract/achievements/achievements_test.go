package achievements_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puzzlechain/contract"
	"puzzlechain/contract/achievements"
	"puzzlechain/contract/contracttest"
	"puzzlechain/sdk"
)

var (
	acAddr = sdk.Contract("achievements")
	admin  = contracttest.Admin
	alice  = sdk.User("alice")
	bob    = sdk.User("bob")
	ac     = achievements.New()
)

func setup(t *testing.T) (*contracttest.Env, uint64) {
	e := contracttest.New(t)
	e.Register(acAddr, ac)
	e.Must(acAddr, admin, func(ctx *contract.Context) error {
		return ac.Init(ctx, admin, achievements.Config{Token: contracttest.TokenAddr, NFT: contracttest.NFTAddr})
	})
	var set uint64
	e.Must(acAddr, admin, func(ctx *contract.Context) error {
		var err error
		set, err = ac.CreateSet(ctx, admin, "Starter", []uint32{1, 2}, 100, 1, achievements.Rare)
		return err
	})
	return e, set
}

func claim(e *contracttest.Env, who sdk.Address, set uint64) uint64 {
	var id uint64
	e.Must(acAddr, who, func(ctx *contract.Context) error {
		var err error
		id, err = ac.ClaimSet(ctx, who, set)
		return err
	})
	return id
}

func TestClaimMintsEditionAndReward(t *testing.T) {
	e, set := setup(t)
	e.MintNFT(alice, 1)
	e.Fails(contract.KindUnauthorized, acAddr, alice, func(ctx *contract.Context) error {
		_, err := ac.ClaimSet(ctx, alice, set)
		return err
	})
	e.MintNFT(alice, 2)
	e.MintNFT(alice, 2)

	id := claim(e, alice, set)
	assert.Equal(t, int64(150), e.Balance(alice))
	e.View(acAddr, func(ctx *contract.Context) error {
		ed, err := ac.Edition(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, uint32(1), ed.Serial)
		assert.Equal(t, alice, ed.Owner)
		assert.Equal(t, []uint64{id}, ac.EditionsOf(ctx, alice))
		assert.Equal(t, int64(1), ac.Completed(ctx, alice))
		top := ac.TopCollectors(ctx, 5)
		require.Len(t, top, 1)
		assert.Equal(t, alice, top[0].Who)
		return nil
	})

	e.Fails(contract.KindIllegalState, acAddr, alice, func(ctx *contract.Context) error {
		_, err := ac.ClaimSet(ctx, alice, set)
		return err
	})

	e.MintNFT(bob, 1)
	e.MintNFT(bob, 2)
	e.Fails(contract.KindExhausted, acAddr, bob, func(ctx *contract.Context) error {
		_, err := ac.ClaimSet(ctx, bob, set)
		return err
	})
	assert.Zero(t, e.Balance(bob))
}

func TestTransferEdition(t *testing.T) {
	e, set := setup(t)
	e.MintNFT(alice, 1)
	e.MintNFT(alice, 2)
	id := claim(e, alice, set)

	e.Fails(contract.KindUnauthorized, acAddr, bob, func(ctx *contract.Context) error {
		return ac.TransferEdition(ctx, bob, alice, id)
	})
	_, err := e.Host.Dispatch(acAddr, alice, "transfer_edition", contract.JoinArgs(bob, id))
	require.NoError(t, err)
	e.View(acAddr, func(ctx *contract.Context) error {
		assert.Empty(t, ac.EditionsOf(ctx, alice))
		assert.Equal(t, []uint64{id}, ac.EditionsOf(ctx, bob))
		assert.Equal(t, int64(1), ac.Completed(ctx, alice))
		assert.Zero(t, ac.Completed(ctx, bob))
		return nil
	})
}

func TestSetAdmin(t *testing.T) {
	e, set := setup(t)
	e.Fails(contract.KindNotAdmin, acAddr, alice, func(ctx *contract.Context) error {
		_, err := ac.CreateSet(ctx, alice, "x", []uint32{1}, 1, 1, achievements.Common)
		return err
	})
	e.Fails(contract.KindInvalidArgument, acAddr, admin, func(ctx *contract.Context) error {
		_, err := ac.CreateSet(ctx, admin, "dup", []uint32{1, 1}, 1, 1, achievements.Common)
		return err
	})
	out, err := e.Host.Dispatch(acAddr, admin, "create_set", "Legends|4,5|10|3|mythic")
	require.NoError(t, err)
	assert.Equal(t, "2", out)

	e.Must(acAddr, admin, func(ctx *contract.Context) error {
		return ac.DeactivateSet(ctx, admin, set)
	})
	e.MintNFT(alice, 1)
	e.MintNFT(alice, 2)
	e.Fails(contract.KindIllegalState, acAddr, alice, func(ctx *contract.Context) error {
		_, err := ac.ClaimSet(ctx, alice, set)
		return err
	})
}
