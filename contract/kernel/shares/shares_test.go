package shares

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puzzlechain/contract"
)

func TestRentalDividendWalkthrough(t *testing.T) {
	p := &Pool{}
	a, b, c := &Holder{}, &Holder{}, &Holder{}
	require.NoError(t, p.Add(a, 600))
	require.NoError(t, p.Add(b, 400))

	require.NoError(t, p.Deposit(100))
	assert.Equal(t, "100000000000", p.Acc) // 100 * 1e12 / 1000

	got, err := p.Claim(a)
	require.NoError(t, err)
	assert.Equal(t, int64(60), got)

	require.NoError(t, p.Move(b, c, 100))
	assert.Equal(t, int64(300), b.Balance)
	assert.Equal(t, int64(100), c.Balance)
	assert.Equal(t, int64(40), b.Claimable) // settled before the move

	require.NoError(t, p.Deposit(60))
	assert.Equal(t, "160000000000", p.Acc)

	ga, err := p.Claim(a)
	require.NoError(t, err)
	gb, err := p.Claim(b)
	require.NoError(t, err)
	gc, err := p.Claim(c)
	require.NoError(t, err)
	assert.Equal(t, int64(36), ga)
	assert.Equal(t, int64(40+18), gb)
	assert.Equal(t, int64(6), gc)

	assert.Equal(t, int64(160), 60+ga+gb+gc)
	assert.Equal(t, p.Deposited, p.Paid)
	assert.Equal(t, int64(1000), p.TotalShares)
}

func TestDepositNeedsShares(t *testing.T) {
	p := &Pool{}
	err := p.Deposit(10)
	assert.ErrorIs(t, err, contract.ErrIllegalState)
	assert.ErrorIs(t, p.Deposit(0), contract.ErrInvalidArgument)
}

func TestJoinerDoesNotEarnPastRewards(t *testing.T) {
	p := &Pool{}
	early, late := &Holder{}, &Holder{}
	require.NoError(t, p.Add(early, 10))
	require.NoError(t, p.Deposit(50))
	require.NoError(t, p.Add(late, 10))

	pending, err := p.Pending(*late)
	require.NoError(t, err)
	assert.Zero(t, pending)

	require.NoError(t, p.Deposit(20))
	pe, err := p.Pending(*early)
	require.NoError(t, err)
	pl, err := p.Pending(*late)
	require.NoError(t, err)
	assert.Equal(t, int64(60), pe)
	assert.Equal(t, int64(10), pl)
}

func TestRoundingNeverOverpays(t *testing.T) {
	p := &Pool{}
	hs := []*Holder{{}, {}, {}}
	for _, h := range hs {
		require.NoError(t, p.Add(h, 3))
	}
	require.NoError(t, p.Deposit(10))
	var paid int64
	for _, h := range hs {
		got, err := p.Claim(h)
		require.NoError(t, err)
		paid += got
	}
	assert.LessOrEqual(t, paid, int64(10))
	assert.GreaterOrEqual(t, paid, int64(9))
}

func TestSubMoreThanBalance(t *testing.T) {
	p := &Pool{}
	h := &Holder{}
	require.NoError(t, p.Add(h, 5))
	assert.ErrorIs(t, p.Sub(h, 6), contract.ErrIllegalState)
	require.NoError(t, p.Sub(h, 5))
	assert.Zero(t, p.TotalShares)
}

func TestAccrualOverflow(t *testing.T) {
	p := &Pool{}
	h := &Holder{}
	require.NoError(t, p.Add(h, 1))
	require.NoError(t, p.Deposit(1<<62))
	err := p.Add(h, 1<<40)
	assert.ErrorIs(t, err, contract.ErrOverflow)
}
