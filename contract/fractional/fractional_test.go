package fractional_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puzzlechain/contract"
	"puzzlechain/contract/contracttest"
	"puzzlechain/contract/fractional"
	"puzzlechain/sdk"
)

var (
	frAddr = sdk.Contract("fractional")
	a      = sdk.User("a")
	b      = sdk.User("b")
	c      = sdk.User("c")
	renter = sdk.User("renter")
	buyer  = sdk.User("buyer")
	fr     = fractional.New()
)

// setup fractionalizes one NFT into 1000 shares split A=600, B=400.
func setup(t *testing.T, minBps uint32) (*contracttest.Env, uint64, uint32) {
	e := contracttest.New(t)
	e.Register(frAddr, fr)
	e.Must(frAddr, contracttest.Admin, func(ctx *contract.Context) error {
		return fr.Init(ctx, contracttest.Admin, fractional.Config{})
	})
	tokenID := e.MintNFT(a, 9)
	var vault uint64
	e.Must(frAddr, a, func(ctx *contract.Context) error {
		var err error
		vault, err = fr.Fractionalize(ctx, a, contracttest.NFTAddr, tokenID, 1000, minBps, contracttest.TokenAddr)
		return err
	})
	transfer(e, a, vault, b, 400)
	e.Fund(renter, 1000)
	e.Fund(buyer, 10_000)
	return e, vault, tokenID
}

func transfer(e *contracttest.Env, from sdk.Address, vault uint64, to sdk.Address, n int64) {
	e.Must(frAddr, from, func(ctx *contract.Context) error {
		return fr.TransferShares(ctx, from, vault, to, n)
	})
}

func rent(e *contracttest.Env, vault uint64, amount int64) {
	e.Must(frAddr, renter, func(ctx *contract.Context) error {
		return fr.DepositRental(ctx, renter, vault, amount)
	})
}

func claim(t *testing.T, e *contracttest.Env, who sdk.Address, vault uint64) int64 {
	var got int64
	e.Must(frAddr, who, func(ctx *contract.Context) error {
		var err error
		got, err = fr.ClaimRental(ctx, who, vault)
		return err
	})
	return got
}

func TestRentalDividends(t *testing.T) {
	e, vault, tokenID := setup(t, 0)
	assert.Equal(t, frAddr, e.OwnerOf(tokenID))

	rent(e, vault, 100)
	assert.Equal(t, int64(60), claim(t, e, a, vault))

	transfer(e, b, vault, c, 100)
	rent(e, vault, 60)

	assert.Equal(t, int64(36), claim(t, e, a, vault))
	assert.Equal(t, int64(58), claim(t, e, b, vault))
	assert.Equal(t, int64(6), claim(t, e, c, vault))
	assert.Equal(t, int64(0), e.Balance(frAddr))

	e.Fails(contract.KindIllegalState, frAddr, c, func(ctx *contract.Context) error {
		_, err := fr.ClaimRental(ctx, c, vault)
		return err
	})
}

func TestMinimumHolding(t *testing.T) {
	e, vault, _ := setup(t, 500)
	e.View(frAddr, func(ctx *contract.Context) error {
		v, err := fr.Vault(ctx, vault)
		require.NoError(t, err)
		assert.Equal(t, int64(50), v.MinHolding)
		return nil
	})
	e.Fails(contract.KindThreshold, frAddr, b, func(ctx *contract.Context) error {
		return fr.TransferShares(ctx, b, vault, c, 49)
	})
	e.Fails(contract.KindThreshold, frAddr, b, func(ctx *contract.Context) error {
		return fr.TransferShares(ctx, b, vault, c, 360)
	})
	transfer(e, b, vault, c, 400)
	e.View(frAddr, func(ctx *contract.Context) error {
		bal, _, err := fr.Holder(ctx, vault, b)
		require.NoError(t, err)
		assert.Zero(t, bal)
		return nil
	})
}

func TestBuyoutTenderAndReclaim(t *testing.T) {
	e, vault, _ := setup(t, 0)
	var id uint64
	e.Must(frAddr, buyer, func(ctx *contract.Context) error {
		var err error
		id, err = fr.StartBuyout(ctx, buyer, vault, contracttest.TokenAddr, 5000, 1000+7200)
		return err
	})
	assert.Equal(t, int64(5000), e.Balance(frAddr))

	var paid int64
	e.Must(frAddr, b, func(ctx *contract.Context) error {
		var err error
		paid, err = fr.Tender(ctx, b, vault, 400)
		return err
	})
	assert.Equal(t, int64(2000), paid)
	assert.Equal(t, int64(2000), e.Balance(b))

	e.Fails(contract.KindIllegalState, frAddr, a, func(ctx *contract.Context) error {
		return fr.Recombine(ctx, a, vault, a)
	})

	e.At(1000 + 7201)
	e.Fails(contract.KindExpired, frAddr, a, func(ctx *contract.Context) error {
		_, err := fr.Tender(ctx, a, vault, 600)
		return err
	})
	var residual int64
	e.Must(frAddr, buyer, func(ctx *contract.Context) error {
		var err error
		residual, err = fr.ReclaimBuyout(ctx, buyer, id)
		return err
	})
	assert.Equal(t, int64(3000), residual)
	assert.Equal(t, int64(8000), e.Balance(buyer))
	assert.Equal(t, int64(0), e.Balance(frAddr))
}

func TestRecombine(t *testing.T) {
	e, vault, tokenID := setup(t, 0)
	rent(e, vault, 100)
	e.Fails(contract.KindUnauthorized, frAddr, a, func(ctx *contract.Context) error {
		return fr.Recombine(ctx, a, vault, a)
	})
	transfer(e, b, vault, a, 400)
	e.Must(frAddr, a, func(ctx *contract.Context) error {
		return fr.Recombine(ctx, a, vault, c)
	})
	assert.Equal(t, c, e.OwnerOf(tokenID))
	assert.Equal(t, int64(60), e.Balance(a))
	assert.Equal(t, int64(40), claim(t, e, b, vault))

	e.Fails(contract.KindIllegalState, frAddr, a, func(ctx *contract.Context) error {
		return fr.TransferShares(ctx, a, vault, b, 1)
	})
}

func TestDispatchHolder(t *testing.T) {
	e, vault, _ := setup(t, 0)
	rent(e, vault, 100)
	out, err := e.Host.Dispatch(frAddr, a, "holder", contract.JoinArgs(vault, a))
	require.NoError(t, err)
	assert.Equal(t, "600|60", out)
}
