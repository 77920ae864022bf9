package escrow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puzzlechain/contract"
	"puzzlechain/contract/contracttest"
	"puzzlechain/contract/escrow"
	"puzzlechain/sdk"
)

var (
	esAddr = sdk.Contract("escrow")
	alice  = sdk.User("alice")
	bob    = sdk.User("bob")
	judge  = sdk.User("judge")
	es     = escrow.New()
)

func setup(t *testing.T) (*contracttest.Env, uint64) {
	e := contracttest.New(t)
	e.Register(esAddr, es)
	e.Must(esAddr, contracttest.Admin, func(ctx *contract.Context) error {
		return es.Init(ctx, contracttest.Admin, escrow.Config{})
	})
	e.Fund(alice, 1000)
	var id uint64
	e.Must(esAddr, alice, func(ctx *contract.Context) error {
		var err error
		id, err = es.Create(ctx, alice, bob, judge, contracttest.TokenAddr, 1000, 5000, 200)
		return err
	})
	return e, id
}

func fund(e *contracttest.Env, id uint64) {
	e.Must(esAddr, alice, func(ctx *contract.Context) error {
		return es.Fund(ctx, alice, id)
	})
}

func status(t *testing.T, e *contracttest.Env, id uint64) escrow.Status {
	var st escrow.Status
	e.View(esAddr, func(ctx *contract.Context) error {
		a, err := es.Agreement(ctx, id)
		require.NoError(t, err)
		st = a.Status
		return nil
	})
	return st
}

func TestFundAndRelease(t *testing.T) {
	e, id := setup(t)
	e.Fails(contract.KindUnauthorized, esAddr, bob, func(ctx *contract.Context) error {
		return es.Fund(ctx, bob, id)
	})
	fund(e, id)
	assert.Equal(t, int64(1000), e.Balance(esAddr))
	e.Fails(contract.KindUnauthorized, esAddr, bob, func(ctx *contract.Context) error {
		return es.Release(ctx, bob, id)
	})
	e.Must(esAddr, alice, func(ctx *contract.Context) error {
		return es.Release(ctx, alice, id)
	})
	assert.Equal(t, int64(1000), e.Balance(bob))
	assert.Equal(t, escrow.StatusReleased, status(t, e, id))
	e.Fails(contract.KindIllegalState, esAddr, alice, func(ctx *contract.Context) error {
		return es.Release(ctx, alice, id)
	})
}

func TestDisputeResolution(t *testing.T) {
	e, id := setup(t)
	fund(e, id)
	e.Fails(contract.KindUnauthorized, esAddr, judge, func(ctx *contract.Context) error {
		return es.Dispute(ctx, judge, id)
	})
	e.Must(esAddr, bob, func(ctx *contract.Context) error {
		return es.Dispute(ctx, bob, id)
	})
	e.Fails(contract.KindUnauthorized, esAddr, alice, func(ctx *contract.Context) error {
		return es.Resolve(ctx, alice, id, 10000)
	})
	_, err := e.Host.Dispatch(esAddr, judge, "resolve", "1|5000")
	require.NoError(t, err)

	assert.Equal(t, int64(20), e.Balance(judge))
	assert.Equal(t, int64(490), e.Balance(bob))
	assert.Equal(t, int64(490), e.Balance(alice))
	assert.Zero(t, e.Balance(esAddr))
	assert.Equal(t, escrow.StatusReleased, status(t, e, id))
}

func TestRefundPaths(t *testing.T) {
	e, id := setup(t)
	e.Must(esAddr, alice, func(ctx *contract.Context) error {
		return es.Cancel(ctx, alice, id)
	})
	assert.Equal(t, escrow.StatusCancelled, status(t, e, id))

	var second uint64
	e.Must(esAddr, alice, func(ctx *contract.Context) error {
		var err error
		second, err = es.Create(ctx, alice, bob, judge, contracttest.TokenAddr, 300, 5000, 0)
		return err
	})
	fund(e, second)
	e.Must(esAddr, bob, func(ctx *contract.Context) error {
		return es.Refund(ctx, bob, second)
	})
	assert.Equal(t, int64(1000), e.Balance(alice))

	var third uint64
	e.Must(esAddr, alice, func(ctx *contract.Context) error {
		var err error
		third, err = es.Create(ctx, alice, bob, judge, contracttest.TokenAddr, 400, 5000, 0)
		return err
	})
	fund(e, third)
	out, err := e.Host.Dispatch(esAddr, bob, "check_timeout", "3")
	require.NoError(t, err)
	assert.Equal(t, "false", out)
	e.At(5001)
	out, err = e.Host.Dispatch(esAddr, bob, "check_timeout", "3")
	require.NoError(t, err)
	assert.Equal(t, "true", out)
	assert.Equal(t, escrow.StatusRefunded, status(t, e, third))
	assert.Equal(t, int64(1000), e.Balance(alice))

	e.View(esAddr, func(ctx *contract.Context) error {
		assert.Equal(t, []uint64{1, 2, 3}, es.AgreementsOf(ctx, judge))
		return nil
	})
}

func TestCreateValidation(t *testing.T) {
	e, _ := setup(t)
	err := e.Invoke(esAddr, alice, func(ctx *contract.Context) error {
		_, err := es.Create(ctx, alice, alice, alice, contracttest.TokenAddr, 0, 10, 5000)
		return err
	})
	contracttest.RequireKind(t, err, contract.KindInvalidArgument)
	for _, msg := range []string{"amount must be positive", "deadline must be in the future", "arbiter fee above maximum", "beneficiary is the depositor"} {
		assert.Contains(t, err.Error(), msg)
	}
}
