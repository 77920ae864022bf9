package marketplace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puzzlechain/contract"
	"puzzlechain/contract/contracttest"
	"puzzlechain/contract/marketplace"
	"puzzlechain/sdk"
)

var (
	mkAddr   = sdk.Contract("marketplace")
	seller   = sdk.User("seller")
	artist   = sdk.User("artist")
	treasury = sdk.User("treasury")
	buyers   = []sdk.Address{sdk.User("b1"), sdk.User("b2"), sdk.User("b3")}
	mk       = marketplace.New()
)

func setup(t *testing.T) (*contracttest.Env, uint64) {
	e := contracttest.New(t)
	e.Register(mkAddr, mk)
	e.Must(mkAddr, contracttest.Admin, func(ctx *contract.Context) error {
		return mk.Init(ctx, contracttest.Admin, marketplace.Config{FeeBps: 250, FeeTo: treasury})
	})
	for _, b := range buyers {
		e.Fund(b, 2000)
	}
	tokenID := e.MintNFT(seller, 1)
	var id uint64
	e.Must(mkAddr, seller, func(ctx *contract.Context) error {
		var err error
		id, err = mk.List(ctx, seller, marketplace.ListParams{
			NFT:        contracttest.NFTAddr,
			TokenID:    tokenID,
			PayToken:   contracttest.TokenAddr,
			Price:      1000,
			RoyaltyBps: 500,
			Creator:    artist,
			ExpiresAt:  5000,
		})
		return err
	})
	assert.Equal(t, mkAddr, e.OwnerOf(tokenID))
	return e, id
}

func offer(t *testing.T, e *contracttest.Env, buyer sdk.Address, listing uint64, amount int64) uint64 {
	var id uint64
	e.Must(mkAddr, buyer, func(ctx *contract.Context) error {
		var err error
		id, err = mk.MakeOffer(ctx, buyer, listing, amount)
		return err
	})
	return id
}

func offerStatus(e *contracttest.Env, id uint64) marketplace.OfferStatus {
	var o marketplace.Offer
	e.View(mkAddr, func(ctx *contract.Context) error {
		var err error
		o, err = mk.Offer(ctx, id)
		return err
	})
	return o.Status
}

func TestAcceptingOneOfferRefundsTheRest(t *testing.T) {
	e, listing := setup(t)
	o1 := offer(t, e, buyers[0], listing, 800)
	o2 := offer(t, e, buyers[1], listing, 900)
	o3 := offer(t, e, buyers[2], listing, 950)
	assert.Equal(t, int64(2650), e.Balance(mkAddr))

	e.Must(mkAddr, seller, func(ctx *contract.Context) error {
		return mk.AcceptOffer(ctx, seller, o2)
	})

	assert.Equal(t, int64(2000), e.Balance(buyers[0]))
	assert.Equal(t, int64(2000), e.Balance(buyers[2]))
	assert.Equal(t, int64(1100), e.Balance(buyers[1]))
	// 900 - floor(22.5) - 45
	assert.Equal(t, int64(833), e.Balance(seller))
	assert.Equal(t, int64(22), e.Balance(treasury))
	assert.Equal(t, int64(45), e.Balance(artist))
	assert.Zero(t, e.Balance(mkAddr))
	assert.Equal(t, buyers[1], e.OwnerOf(1))

	assert.Equal(t, marketplace.OfferCancelled, offerStatus(e, o1))
	assert.Equal(t, marketplace.OfferAccepted, offerStatus(e, o2))
	assert.Equal(t, marketplace.OfferCancelled, offerStatus(e, o3))

	e.Fails(contract.KindIllegalState, mkAddr, buyers[0], func(ctx *contract.Context) error {
		return mk.Buy(ctx, buyers[0], listing)
	})
	require.Len(t, e.Events("mk_sold"), 1)
}

func TestBuyAtAskingPrice(t *testing.T) {
	e, listing := setup(t)
	o1 := offer(t, e, buyers[0], listing, 500)
	e.Fails(contract.KindInvalidArgument, mkAddr, seller, func(ctx *contract.Context) error {
		return mk.Buy(ctx, seller, listing)
	})
	e.Must(mkAddr, buyers[2], func(ctx *contract.Context) error {
		return mk.Buy(ctx, buyers[2], listing)
	})
	assert.Equal(t, int64(1000), e.Balance(buyers[2]))
	assert.Equal(t, int64(925), e.Balance(seller))
	assert.Equal(t, int64(2000), e.Balance(buyers[0]))
	assert.Equal(t, marketplace.OfferCancelled, offerStatus(e, o1))
	assert.Zero(t, e.Balance(mkAddr))
}

func TestCounterOffer(t *testing.T) {
	e, listing := setup(t)
	o1 := offer(t, e, buyers[0], listing, 800)
	o2 := offer(t, e, buyers[1], listing, 700)

	e.Fails(contract.KindUnauthorized, mkAddr, buyers[0], func(ctx *contract.Context) error {
		return mk.Counter(ctx, buyers[0], o1, 950)
	})
	e.Must(mkAddr, seller, func(ctx *contract.Context) error {
		return mk.Counter(ctx, seller, o1, 950)
	})
	assert.Equal(t, marketplace.OfferCountered, offerStatus(e, o1))
	e.Fails(contract.KindIllegalState, mkAddr, seller, func(ctx *contract.Context) error {
		return mk.AcceptOffer(ctx, seller, o1)
	})

	e.Must(mkAddr, buyers[0], func(ctx *contract.Context) error {
		return mk.AcceptCounter(ctx, buyers[0], o1)
	})
	assert.Equal(t, int64(2000-950), e.Balance(buyers[0]))
	assert.Equal(t, int64(2000), e.Balance(buyers[1]))
	assert.Equal(t, marketplace.OfferCancelled, offerStatus(e, o2))
	assert.Zero(t, e.Balance(mkAddr))
	assert.Equal(t, buyers[0], e.OwnerOf(1))
}

func TestCancelListingRefundsEveryOffer(t *testing.T) {
	e, listing := setup(t)
	o1 := offer(t, e, buyers[0], listing, 800)
	o2 := offer(t, e, buyers[1], listing, 900)
	e.Must(mkAddr, buyers[1], func(ctx *contract.Context) error {
		return mk.CancelOffer(ctx, buyers[1], o2)
	})
	e.Fails(contract.KindIllegalState, mkAddr, buyers[1], func(ctx *contract.Context) error {
		return mk.CancelOffer(ctx, buyers[1], o2)
	})

	e.Fails(contract.KindUnauthorized, mkAddr, buyers[0], func(ctx *contract.Context) error {
		return mk.CancelListing(ctx, buyers[0], listing)
	})
	e.Must(mkAddr, seller, func(ctx *contract.Context) error {
		return mk.CancelListing(ctx, seller, listing)
	})
	assert.Equal(t, seller, e.OwnerOf(1))
	assert.Equal(t, marketplace.OfferCancelled, offerStatus(e, o1))
	for _, b := range buyers {
		assert.Equal(t, int64(2000), e.Balance(b))
	}
	assert.Zero(t, e.Balance(mkAddr))
}

func TestExpiredListings(t *testing.T) {
	e, listing := setup(t)
	offer(t, e, buyers[0], listing, 800)
	e.At(5001)
	e.Fails(contract.KindExpired, mkAddr, buyers[1], func(ctx *contract.Context) error {
		return mk.Buy(ctx, buyers[1], listing)
	})

	out, err := e.Host.Dispatch(mkAddr, buyers[2], "expire_listings", "1|99")
	require.NoError(t, err)
	assert.Equal(t, "1", out)
	assert.Equal(t, seller, e.OwnerOf(1))
	assert.Equal(t, int64(2000), e.Balance(buyers[0]))
	e.View(mkAddr, func(ctx *contract.Context) error {
		l, err := mk.Listing(ctx, listing)
		assert.Equal(t, marketplace.ListingExpired, l.Status)
		assert.Equal(t, []uint64{listing}, mk.ListingsBySeller(ctx, seller))
		return err
	})
}

func TestListingAdmission(t *testing.T) {
	e, _ := setup(t)
	id := e.MintNFT(seller, 2)
	e.Fails(contract.KindInvalidArgument, mkAddr, seller, func(ctx *contract.Context) error {
		_, err := mk.List(ctx, seller, marketplace.ListParams{
			NFT:        contracttest.NFTAddr,
			TokenID:    id,
			PayToken:   contracttest.TokenAddr,
			Price:      100,
			RoyaltyBps: 9800,
		})
		return err
	})
	e.Fails(contract.KindUnauthorized, mkAddr, seller, func(ctx *contract.Context) error {
		_, err := mk.List(ctx, seller, marketplace.ListParams{
			NFT:      contracttest.NFTAddr,
			TokenID:  1,
			PayToken: contracttest.TokenAddr,
			Price:    100,
		})
		return err
	})
}
