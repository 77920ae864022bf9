package vesting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puzzlechain/contract"
	"puzzlechain/contract/contracttest"
	"puzzlechain/contract/kernel/vestcurve"
	"puzzlechain/contract/vesting"
	"puzzlechain/sdk"
)

var (
	vsAddr = sdk.Contract("vesting")
	admin  = contracttest.Admin
	bob    = sdk.User("bob")
	carol  = sdk.User("carol")
	vs     = vesting.New()
)

func setup(t *testing.T) *contracttest.Env {
	e := contracttest.New(t)
	e.Register(vsAddr, vs)
	e.Must(vsAddr, admin, func(ctx *contract.Context) error {
		return vs.Init(ctx, admin, vesting.Config{Token: contracttest.TokenAddr})
	})
	e.Fund(admin, 10_000)
	return e
}

func create(t *testing.T, e *contracttest.Env, p vesting.Params) uint64 {
	var id uint64
	e.Must(vsAddr, admin, func(ctx *contract.Context) error {
		var err error
		id, err = vs.CreateSchedule(ctx, admin, p)
		return err
	})
	return id
}

func releasable(e *contracttest.Env, id uint64) int64 {
	var out int64
	e.View(vsAddr, func(ctx *contract.Context) error {
		var err error
		out, err = vs.Releasable(ctx, id)
		return err
	})
	return out
}

func timeSchedule(revocable bool) vesting.Params {
	return vesting.Params{
		Beneficiary: bob,
		Total:       1000,
		Start:       1000,
		Cliff:       100,
		Duration:    1000,
		Kind:        vestcurve.KindTime,
		Revocable:   revocable,
	}
}

func TestCliffAndLinearRelease(t *testing.T) {
	e := setup(t)
	id := create(t, e, timeSchedule(false))
	assert.Equal(t, int64(1000), e.Balance(vsAddr))

	e.At(1099)
	assert.Zero(t, releasable(e, id))
	e.At(1100)
	assert.Equal(t, int64(100), releasable(e, id))
	e.At(1500)
	assert.Equal(t, int64(500), releasable(e, id))

	e.Must(vsAddr, bob, func(ctx *contract.Context) error {
		out, err := vs.Release(ctx, bob, id, 300)
		assert.Equal(t, int64(300), out)
		return err
	})
	e.Fails(contract.KindIllegalState, vsAddr, bob, func(ctx *contract.Context) error {
		_, err := vs.Release(ctx, bob, id, 201)
		return err
	})

	e.At(2000)
	e.Must(vsAddr, bob, func(ctx *contract.Context) error {
		out, err := vs.Release(ctx, bob, id, 0)
		assert.Equal(t, int64(700), out)
		return err
	})
	assert.Equal(t, int64(1000), e.Balance(bob))
	assert.Zero(t, e.Balance(vsAddr))
	e.Fails(contract.KindIllegalState, vsAddr, bob, func(ctx *contract.Context) error {
		_, err := vs.Release(ctx, bob, id, 0)
		return err
	})
}

func TestOnlyBeneficiaryReleases(t *testing.T) {
	e := setup(t)
	id := create(t, e, timeSchedule(false))
	e.At(2000)
	e.Fails(contract.KindUnauthorized, vsAddr, carol, func(ctx *contract.Context) error {
		_, err := vs.Release(ctx, carol, id, 0)
		return err
	})
	e.Fails(contract.KindUnauthorized, vsAddr, carol, func(ctx *contract.Context) error {
		_, err := vs.Release(ctx, bob, id, 0)
		return err
	})
}

func TestRevokeFreezesVesting(t *testing.T) {
	e := setup(t)
	fixed := create(t, e, timeSchedule(false))
	id := create(t, e, timeSchedule(true))
	e.At(1400)

	e.Fails(contract.KindIllegalState, vsAddr, admin, func(ctx *contract.Context) error {
		_, err := vs.Revoke(ctx, admin, fixed)
		return err
	})
	e.Must(vsAddr, admin, func(ctx *contract.Context) error {
		out, err := vs.Revoke(ctx, admin, id)
		assert.Equal(t, int64(600), out)
		return err
	})
	assert.Equal(t, int64(10_000-2000+600), e.Balance(admin))

	e.At(3000)
	assert.Equal(t, int64(400), releasable(e, id))
	e.Fails(contract.KindIllegalState, vsAddr, admin, func(ctx *contract.Context) error {
		_, err := vs.Revoke(ctx, admin, id)
		return err
	})
}

func TestMilestonesAndModification(t *testing.T) {
	e := setup(t)
	id := create(t, e, vesting.Params{
		Beneficiary: bob,
		Total:       1000,
		Start:       1000,
		Kind:        vestcurve.KindMilestone,
		Milestones:  []vestcurve.Milestone{{ID: 1, PercentBps: 2500}, {ID: 2, PercentBps: 7500}},
	})
	assert.Zero(t, releasable(e, id))

	e.Fails(contract.KindNotAdmin, vsAddr, bob, func(ctx *contract.Context) error {
		return vs.CompleteMilestone(ctx, bob, id, 1)
	})
	e.Must(vsAddr, admin, func(ctx *contract.Context) error {
		return vs.CompleteMilestone(ctx, admin, id, 1)
	})
	assert.Equal(t, int64(250), releasable(e, id))

	// dropping the completed milestone would lower what is vested
	e.Fails(contract.KindIllegalState, vsAddr, admin, func(ctx *contract.Context) error {
		return vs.ModifySchedule(ctx, admin, id, 0, 0, []vestcurve.Milestone{{ID: 3, PercentBps: 10_000}})
	})
	e.Must(vsAddr, admin, func(ctx *contract.Context) error {
		return vs.ModifySchedule(ctx, admin, id, 0, 0, []vestcurve.Milestone{{ID: 1, PercentBps: 5000}, {ID: 4, PercentBps: 5000}})
	})
	assert.Equal(t, int64(500), releasable(e, id))
}

func TestInvalidSchedules(t *testing.T) {
	e := setup(t)
	bad := timeSchedule(false)
	bad.Cliff = 2000
	e.Fails(contract.KindInvalidArgument, vsAddr, admin, func(ctx *contract.Context) error {
		_, err := vs.CreateSchedule(ctx, admin, bad)
		return err
	})
	e.Fails(contract.KindInvalidArgument, vsAddr, admin, func(ctx *contract.Context) error {
		_, err := vs.CreateSchedule(ctx, admin, vesting.Params{
			Beneficiary: bob,
			Total:       10,
			Kind:        vestcurve.KindMilestone,
			Milestones:  []vestcurve.Milestone{{ID: 1, PercentBps: 9000}},
		})
		return err
	})
	e.Fails(contract.KindNotAdmin, vsAddr, bob, func(ctx *contract.Context) error {
		_, err := vs.CreateSchedule(ctx, bob, timeSchedule(false))
		return err
	})
}

func TestTransferBeneficiary(t *testing.T) {
	e := setup(t)
	id := create(t, e, timeSchedule(false))
	e.Must(vsAddr, bob, func(ctx *contract.Context) error {
		return vs.TransferBeneficiary(ctx, bob, id, carol)
	})
	e.View(vsAddr, func(ctx *contract.Context) error {
		assert.Empty(t, vs.SchedulesOf(ctx, bob))
		assert.Equal(t, []uint64{id}, vs.SchedulesOf(ctx, carol))
		return nil
	})
	e.At(2000)
	_, err := e.Host.Dispatch(vsAddr, carol, "release", "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), e.Balance(carol))
}
