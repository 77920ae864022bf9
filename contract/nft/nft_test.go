package nft_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"puzzlechain/contract"
	"puzzlechain/contract/contracttest"
	"puzzlechain/contract/nft"
	"puzzlechain/sdk"
)

var (
	alice = sdk.User("alice")
	bob   = sdk.User("bob")
	n     = nft.New()
)

func TestMintAndTransfer(t *testing.T) {
	e := contracttest.New(t)
	first := e.MintNFT(alice, 7)
	second := e.MintNFT(alice, 3)
	e.MintNFT(alice, 7)
	assert.Equal(t, uint32(1), first)
	assert.Equal(t, uint32(2), second)

	e.View(contracttest.NFTAddr, func(ctx *contract.Context) error {
		ids, err := n.PuzzleIDsOf(ctx, alice)
		assert.Equal(t, []uint32{3, 7}, ids)
		return err
	})

	e.Fails(contract.KindUnauthorized, contracttest.NFTAddr, bob, func(ctx *contract.Context) error {
		return n.Transfer(ctx, bob, bob, first)
	})
	e.Must(contracttest.NFTAddr, alice, func(ctx *contract.Context) error {
		return n.Transfer(ctx, alice, bob, first)
	})
	assert.Equal(t, bob, e.OwnerOf(first))
	e.View(contracttest.NFTAddr, func(ctx *contract.Context) error {
		assert.Equal(t, []uint32{first}, n.TokensOf(ctx, bob))
		assert.Equal(t, []uint32{second, 3}, n.TokensOf(ctx, alice))
		return nil
	})
}

func TestOwnerOfUnknown(t *testing.T) {
	e := contracttest.New(t)
	e.Fails(contract.KindNotFound, contracttest.NFTAddr, alice, func(ctx *contract.Context) error {
		_, err := n.OwnerOf(ctx, 99)
		return err
	})
}
