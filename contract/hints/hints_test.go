package hints_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puzzlechain/contract"
	"puzzlechain/contract/contracttest"
	"puzzlechain/contract/hints"
	"puzzlechain/sdk"
)

var (
	hnAddr  = sdk.Contract("hints")
	house   = sdk.User("house")
	creator = sdk.User("creator")
	alice   = sdk.User("alice")
	bob     = sdk.User("bob")
	hs      = hints.New()
)

func setup(t *testing.T) (*contracttest.Env, uint64) {
	e := contracttest.New(t)
	e.Register(hnAddr, hs)
	e.Must(hnAddr, contracttest.Admin, func(ctx *contract.Context) error {
		return hs.Init(ctx, contracttest.Admin, hints.Config{Token: contracttest.TokenAddr, FeeBps: 1000, FeeTo: house})
	})
	e.Fund(alice, 1000)
	e.Fund(bob, 1000)
	out, err := e.Host.Dispatch(hnAddr, creator, "list_hint", "42|2|100")
	require.NoError(t, err)
	assert.Equal(t, "1", out)
	return e, 1
}

func buy(e *contracttest.Env, who sdk.Address, id uint64) int64 {
	var price int64
	e.Must(hnAddr, who, func(ctx *contract.Context) error {
		var err error
		price, err = hs.BuyHint(ctx, who, id)
		return err
	})
	return price
}

func rate(e *contracttest.Env, who sdk.Address, id uint64, r uint8) hints.Quality {
	var q hints.Quality
	e.Must(hnAddr, who, func(ctx *contract.Context) error {
		var err error
		q, err = hs.RateHint(ctx, who, id, r)
		return err
	})
	return q
}

func TestQualityDrivesPrice(t *testing.T) {
	e, id := setup(t)
	assert.Equal(t, int64(100), buy(e, alice, id))
	assert.Equal(t, int64(90), e.Balance(creator))
	assert.Equal(t, int64(10), e.Balance(house))

	assert.Equal(t, hints.Poor, rate(e, alice, id, 1))
	assert.Equal(t, int64(50), buy(e, bob, id))
	assert.Equal(t, int64(135), e.Balance(creator))
	assert.Equal(t, hints.Good, rate(e, bob, id, 5))

	e.View(hnAddr, func(ctx *contract.Context) error {
		assert.Equal(t, int64(135), hs.Earnings(ctx, creator))
		assert.Equal(t, []uint64{id}, hs.PurchasesOf(ctx, bob))
		assert.Equal(t, []uint64{id}, hs.HintsFor(ctx, 42))
		top := hs.TopCreators(ctx, 3)
		require.Len(t, top, 1)
		assert.Equal(t, int64(135), top[0].Score)
		return nil
	})
}

func TestQualityTiers(t *testing.T) {
	for q, want := range map[hints.Quality]uint32{
		hints.Poor: 5000, hints.Fair: 7500, hints.Good: 10000, hints.Great: 12500, hints.Perfect: 15000,
	} {
		assert.Equal(t, want, q.Multiplier(), q.String())
	}
	h := hints.Hint{BasePrice: 80, RatingSum: 9, RatingCount: 2}
	assert.Equal(t, hints.Perfect, h.Quality())
	price, err := h.Price()
	require.NoError(t, err)
	assert.Equal(t, int64(120), price)
}

func TestPurchaseRules(t *testing.T) {
	e, id := setup(t)
	e.Fails(contract.KindUnauthorized, hnAddr, alice, func(ctx *contract.Context) error {
		_, err := hs.RateHint(ctx, alice, id, 4)
		return err
	})
	e.Fails(contract.KindInvalidArgument, hnAddr, creator, func(ctx *contract.Context) error {
		_, err := hs.BuyHint(ctx, creator, id)
		return err
	})
	buy(e, alice, id)
	e.Fails(contract.KindIllegalState, hnAddr, alice, func(ctx *contract.Context) error {
		_, err := hs.BuyHint(ctx, alice, id)
		return err
	})
	rate(e, alice, id, 4)
	e.Fails(contract.KindIllegalState, hnAddr, alice, func(ctx *contract.Context) error {
		_, err := hs.RateHint(ctx, alice, id, 4)
		return err
	})

	e.Fails(contract.KindUnauthorized, hnAddr, alice, func(ctx *contract.Context) error {
		return hs.Delist(ctx, alice, id)
	})
	e.Must(hnAddr, creator, func(ctx *contract.Context) error {
		return hs.Delist(ctx, creator, id)
	})
	e.Fails(contract.KindIllegalState, hnAddr, bob, func(ctx *contract.Context) error {
		_, err := hs.BuyHint(ctx, bob, id)
		return err
	})
}
