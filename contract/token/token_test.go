package token_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puzzlechain/contract"
	"puzzlechain/contract/contracttest"
	"puzzlechain/contract/token"
	"puzzlechain/sdk"
)

var (
	alice = sdk.User("alice")
	bob   = sdk.User("bob")
	tok   = token.New()
)

func TestTransfer(t *testing.T) {
	e := contracttest.New(t)
	e.Fund(alice, 100)

	e.Must(contracttest.TokenAddr, alice, func(ctx *contract.Context) error {
		return tok.Transfer(ctx, alice, bob, 30)
	})
	assert.Equal(t, int64(70), e.Balance(alice))
	assert.Equal(t, int64(30), e.Balance(bob))

	e.Fails(contract.KindUnauthorized, contracttest.TokenAddr, bob, func(ctx *contract.Context) error {
		return tok.Transfer(ctx, alice, bob, 1)
	})
	e.Fails(contract.KindIllegalState, contracttest.TokenAddr, alice, func(ctx *contract.Context) error {
		return tok.Transfer(ctx, alice, bob, 71)
	})
	e.Fails(contract.KindInvalidArgument, contracttest.TokenAddr, alice, func(ctx *contract.Context) error {
		return tok.Transfer(ctx, alice, bob, -1)
	})
	require.Len(t, e.Events("xfer"), 1)
	assert.Equal(t, "xfer|f:user:alice|t:user:bob|a:30", e.Events("xfer")[0].String())
}

func TestMintNeedsMinter(t *testing.T) {
	e := contracttest.New(t)
	e.Fails(contract.KindUnauthorized, contracttest.TokenAddr, alice, func(ctx *contract.Context) error {
		return tok.Mint(ctx, alice, alice, 5)
	})
	e.Fails(contract.KindNotAdmin, contracttest.TokenAddr, alice, func(ctx *contract.Context) error {
		return tok.AuthorizeMinter(ctx, alice)
	})
	e.Must(contracttest.TokenAddr, contracttest.Admin, func(ctx *contract.Context) error {
		return tok.AuthorizeMinter(ctx, alice)
	})
	e.Must(contracttest.TokenAddr, alice, func(ctx *contract.Context) error {
		return tok.Mint(ctx, alice, bob, 5)
	})
	assert.Equal(t, int64(5), e.Balance(bob))
	e.View(contracttest.TokenAddr, func(ctx *contract.Context) error {
		supply, err := tok.TotalSupply(ctx)
		assert.Equal(t, int64(5), supply)
		return err
	})
}

func TestPausedTokenRefusesTransfers(t *testing.T) {
	e := contracttest.New(t)
	e.Fund(alice, 10)
	_, err := e.Host.Dispatch(contracttest.TokenAddr, contracttest.Admin, "set_paused", "true")
	require.NoError(t, err)
	_, err = e.Host.Dispatch(contracttest.TokenAddr, alice, "transfer", contract.JoinArgs(bob, int64(1)))
	contracttest.RequireKind(t, err, contract.KindIllegalState)
}

func TestDispatchByName(t *testing.T) {
	e := contracttest.New(t)
	e.Fund(alice, 10)
	_, err := e.Host.Dispatch(contracttest.TokenAddr, alice, "transfer", contract.JoinArgs(bob, int64(4)))
	require.NoError(t, err)
	out, err := e.Host.Dispatch(contracttest.TokenAddr, alice, "balance", bob.String())
	require.NoError(t, err)
	assert.Equal(t, "4", out)

	_, err = e.Host.Dispatch(contracttest.TokenAddr, alice, "burn", "")
	contracttest.RequireKind(t, err, contract.KindNotFound)
	_, err = e.Host.Dispatch(contracttest.TokenAddr, alice, "transfer", "user:bob|lots")
	contracttest.RequireKind(t, err, contract.KindInvalidArgument)
}

func TestSupplyBeyondInt64Overflows(t *testing.T) {
	e := contracttest.New(t)
	e.Fund(alice, math.MaxInt64-10)

	e.Fails(contract.KindOverflow, contracttest.TokenAddr, contracttest.Admin, func(ctx *contract.Context) error {
		return tok.Mint(ctx, contracttest.Admin, bob, 11)
	})
	assert.Zero(t, e.Balance(bob))
	e.View(contracttest.TokenAddr, func(ctx *contract.Context) error {
		supply, err := tok.TotalSupply(ctx)
		assert.Equal(t, int64(math.MaxInt64-10), supply)
		return err
	})
}
