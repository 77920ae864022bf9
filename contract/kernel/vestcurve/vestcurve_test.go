package vestcurve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puzzlechain/contract"
)

func timeCurve() Curve {
	return Curve{Total: 1000, Start: 1000, Cliff: 100, Duration: 1000, Kind: KindTime}
}

func TestTimeCurveCliff(t *testing.T) {
	c := timeCurve()
	require.NoError(t, c.Validate())
	cases := map[uint64]int64{
		0:    0,
		1099: 0,
		1100: 100,
		1500: 500,
		2000: 1000,
		9999: 1000,
	}
	for now, want := range cases {
		got, err := c.Vested(now)
		require.NoError(t, err)
		assert.Equal(t, want, got, "now=%d", now)
	}
}

func TestVestedIsMonotonic(t *testing.T) {
	c := Curve{Total: 777, Start: 10, Cliff: 5, Duration: 333, Kind: KindTime}
	var last int64
	for now := uint64(0); now < 400; now++ {
		v, err := c.Vested(now)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, last)
		assert.LessOrEqual(t, v, c.Total)
		last = v
	}
}

func TestMilestoneAndHybrid(t *testing.T) {
	ms := []Milestone{{ID: 1, PercentBps: 2500}, {ID: 2, PercentBps: 7500}}
	c := Curve{Total: 1000, Start: 0, Duration: 100, Kind: KindHybrid, Milestones: ms}
	require.NoError(t, c.Validate())

	require.NoError(t, c.Complete(2, 10))
	v, err := c.Vested(50)
	require.NoError(t, err)
	assert.Equal(t, int64(500), v) // time 500 < milestones 750

	v, err = c.Vested(90)
	require.NoError(t, err)
	assert.Equal(t, int64(750), v)

	assert.ErrorIs(t, c.Complete(2, 11), contract.ErrIllegalState)
	assert.ErrorIs(t, c.Complete(9, 11), contract.ErrNotFound)
}

func TestMilestonesMustSumToFull(t *testing.T) {
	c := Curve{Total: 10, Kind: KindMilestone, Milestones: []Milestone{{ID: 1, PercentBps: 9999}}}
	assert.ErrorIs(t, c.Validate(), contract.ErrInvalidArgument)
}

func TestRevokeFreezes(t *testing.T) {
	c := timeCurve()
	back, err := c.Revoke(1500)
	require.NoError(t, err)
	assert.Equal(t, int64(500), back)
	v, err := c.Vested(5000)
	require.NoError(t, err)
	assert.Equal(t, int64(500), v)
	_, err = c.Revoke(1600)
	assert.ErrorIs(t, err, contract.ErrIllegalState)
}

func TestModificationMustNotReduceVested(t *testing.T) {
	prev := timeCurve()
	longer := prev
	longer.Duration = 2000
	assert.ErrorIs(t, CheckModification(prev, longer, 1500), contract.ErrIllegalState)

	shorter := prev
	shorter.Duration = 500
	assert.NoError(t, CheckModification(prev, shorter, 1500))
}
