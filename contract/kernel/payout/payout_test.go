package payout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puzzlechain/contract"
	"puzzlechain/sdk"
)

func TestFeeRoyaltyResidualGoesToSeller(t *testing.T) {
	s, err := FeeRoyalty(999, 250, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(24), s.Fee)
	assert.Equal(t, int64(49), s.Royalty)
	assert.Equal(t, int64(926), s.Seller)
	assert.Equal(t, int64(999), s.Seller+s.Fee+s.Royalty)
}

func TestFeeRoyaltyBounds(t *testing.T) {
	_, err := FeeRoyalty(100, 10_001, 0)
	assert.ErrorIs(t, err, contract.ErrInvalidArgument)
	_, err = FeeRoyalty(100, 6000, 5000)
	assert.ErrorIs(t, err, contract.ErrInvalidArgument)
	s, err := FeeRoyalty(100, 10_000, 0)
	require.NoError(t, err)
	assert.Zero(t, s.Seller)
}

func TestProportional(t *testing.T) {
	got, err := Proportional(1000, 3, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(428), got)
	_, err = Proportional(1000, 1, 0)
	assert.ErrorIs(t, err, contract.ErrIllegalState)
}

func TestTiered(t *testing.T) {
	amounts, residual, err := Tiered(1001, []uint32{5000, 3000, 2000})
	require.NoError(t, err)
	assert.Equal(t, []int64{500, 300, 200}, amounts)
	assert.Equal(t, int64(1), residual)

	_, _, err = Tiered(10, []uint32{6000, 6000})
	assert.ErrorIs(t, err, contract.ErrInvalidArgument)
}

func TestSaleToDropsZeroLegs(t *testing.T) {
	ps := SaleTo(Split{Seller: 90, Fee: 10}, sdk.User("s"), sdk.User("f"), sdk.User("c"))
	require.Len(t, ps, 2)
	total, err := Sum(ps)
	require.NoError(t, err)
	assert.Equal(t, int64(100), total)
}
