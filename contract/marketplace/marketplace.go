// Package marketplace lists NFTs held in custody and matches them with
// escrowed offers and counter offers. Accepting one offer refunds every other
// open offer of the listing in full.
package marketplace

import (
	"puzzlechain/contract"
	"puzzlechain/contract/kernel/payout"
	"puzzlechain/sdk"
)

type Marketplace struct{}

func New() *Marketplace { return &Marketplace{} }

func (Marketplace) Init(ctx *contract.Context, admin sdk.Address, cfg Config) error {
	var chk contract.Checks
	chk.Bps(cfg.FeeBps, "fee")
	if cfg.FeeTo == "" {
		cfg.FeeTo = admin
	}
	chk.Address(cfg.FeeTo, "fee recipient")
	if err := chk.Err(); err != nil {
		return err
	}
	return contract.Initialize(ctx, admin, cfg)
}

// SetFee is admin only.
func (Marketplace) SetFee(ctx *contract.Context, caller sdk.Address, feeBps uint32, feeTo sdk.Address) error {
	return contract.UpdateConfig(ctx, caller, func(c *Config) error {
		if err := contract.CheckBps(feeBps, "fee"); err != nil {
			return err
		}
		if !feeTo.IsValid() {
			return contract.Invalid("invalid fee recipient")
		}
		c.FeeBps, c.FeeTo = feeBps, feeTo
		return nil
	})
}

func (Marketplace) Listing(ctx *contract.Context, id uint64) (Listing, error) {
	return contract.MustLoad(ctx, listingKey(id), "listing")
}

func (Marketplace) Offer(ctx *contract.Context, id uint64) (Offer, error) {
	return contract.MustLoad(ctx, offerKey(id), "offer")
}

// ListingsBySeller returns every listing id a seller created.
func (Marketplace) ListingsBySeller(ctx *contract.Context, seller sdk.Address) []uint64 {
	return contract.IndexIDs(ctx, sellerIndex(seller))
}

// OffersOn returns every offer id made on a listing.
func (Marketplace) OffersOn(ctx *contract.Context, listing uint64) []uint64 {
	return contract.IndexIDs(ctx, offersIndex(listing))
}

// OffersBy returns every offer id a buyer made.
func (Marketplace) OffersBy(ctx *contract.Context, buyer sdk.Address) []uint64 {
	return contract.IndexIDs(ctx, buyerIndex(buyer))
}

// ListParams describes a new listing. ExpiresAt 0 never expires; an empty
// Creator sends the royalty to the seller.
type ListParams struct {
	NFT        sdk.Address
	TokenID    uint32
	PayToken   sdk.Address
	Price      int64
	RoyaltyBps uint32
	Creator    sdk.Address
	ExpiresAt  uint64
}

// List takes the NFT into custody and opens a listing.
func (Marketplace) List(ctx *contract.Context, seller sdk.Address, p ListParams) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	var chk contract.Checks
	chk.Positive(p.Price, "price")
	chk.Bps(p.RoyaltyBps, "royalty")
	chk.Require(cfg.FeeBps+p.RoyaltyBps <= contract.BpsDenominator, "fee plus royalty above 10000 bps")
	chk.Address(p.NFT, "nft")
	chk.Address(p.PayToken, "pay token")
	chk.Require(p.ExpiresAt == 0 || p.ExpiresAt > ctx.Timestamp(), "expiry in the past")
	if err := chk.Err(); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(seller); err != nil {
		return 0, err
	}
	if err := contract.NFTAt(ctx, p.NFT).Custody(seller, p.TokenID); err != nil {
		return 0, err
	}
	l := Listing{
		ID:         contract.NextID(ctx, "listing"),
		Seller:     seller,
		NFT:        p.NFT,
		TokenID:    p.TokenID,
		PayToken:   p.PayToken,
		Price:      p.Price,
		RoyaltyBps: p.RoyaltyBps,
		Creator:    p.Creator,
		Status:     ListingActive,
		CreatedAt:  ctx.Timestamp(),
		ExpiresAt:  p.ExpiresAt,
	}
	contract.Store(ctx, listingKey(l.ID), l)
	contract.AddToIndex(ctx, sellerIndex(seller), l.ID)
	emitListedEvent(ctx, l)
	return l.ID, nil
}

// activeListing loads a listing that can still trade.
func activeListing(ctx *contract.Context, id uint64) (Listing, error) {
	l, err := contract.MustLoad(ctx, listingKey(id), "listing")
	if err != nil {
		return l, err
	}
	if l.Status != ListingActive {
		return l, contract.Illegal("listing not active")
	}
	if l.expired(ctx.Timestamp()) {
		return l, contract.Fail(contract.KindExpired, "listing expired")
	}
	return l, nil
}

func sellerOf(ctx *contract.Context, l Listing, caller sdk.Address) error {
	if caller != l.Seller {
		return contract.Unauthorized("not seller")
	}
	return ctx.RequireAuth(caller)
}

// Buy pays the asking price.
func (m Marketplace) Buy(ctx *contract.Context, buyer sdk.Address, id uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	l, err := activeListing(ctx, id)
	if err != nil {
		return err
	}
	if buyer == l.Seller {
		return contract.Invalid("seller cannot buy")
	}
	if err := ctx.RequireAuth(buyer); err != nil {
		return err
	}
	if err := contract.TokenAt(ctx, l.PayToken).Pull(buyer, l.Price); err != nil {
		return err
	}
	return settle(ctx, l, buyer, l.Price, 0)
}

// settle closes a sale: split the price, hand over the NFT and refund every
// other escrowed offer.
func settle(ctx *contract.Context, l Listing, buyer sdk.Address, price int64, accepted uint64) error {
	if err := contract.Enter(ctx); err != nil {
		return err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return err
	}
	split, err := payout.FeeRoyalty(price, cfg.FeeBps, l.RoyaltyBps)
	if err != nil {
		return err
	}
	creator := l.Creator
	if creator == "" {
		creator = l.Seller
	}
	l.Status = ListingSold
	contract.Store(ctx, listingKey(l.ID), l)

	tok := contract.TokenAt(ctx, l.PayToken)
	if err := payout.Pay(tok, payout.SaleTo(split, l.Seller, cfg.FeeTo, creator)); err != nil {
		return err
	}
	if err := refundOffers(ctx, l, accepted); err != nil {
		return err
	}
	if err := contract.NFTAt(ctx, l.NFT).Release(buyer, l.TokenID); err != nil {
		return err
	}
	contract.Exit(ctx)
	ctx.Logger().Debug("listing sold")
	emitSoldEvent(ctx, l, buyer, price, accepted)
	return nil
}

// refundOffers cancels and refunds every escrowed offer of l except keep.
func refundOffers(ctx *contract.Context, l Listing, keep uint64) error {
	tok := contract.TokenAt(ctx, l.PayToken)
	for _, oid := range contract.IndexIDs(ctx, offersIndex(l.ID)) {
		if oid == keep {
			continue
		}
		o, err := contract.MustLoad(ctx, offerKey(oid), "offer")
		if err != nil {
			return err
		}
		if !o.escrowed() {
			continue
		}
		o.Status = OfferCancelled
		contract.Store(ctx, offerKey(oid), o)
		if err := payout.Refund(tok, o.Buyer, o.Amount); err != nil {
			return err
		}
		emitOfferEvent(ctx, o)
	}
	return nil
}

// MakeOffer escrows amount against a listing.
func (Marketplace) MakeOffer(ctx *contract.Context, buyer sdk.Address, listing uint64, amount int64) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := contract.RequirePositive(amount, "amount"); err != nil {
		return 0, err
	}
	l, err := activeListing(ctx, listing)
	if err != nil {
		return 0, err
	}
	if buyer == l.Seller {
		return 0, contract.Invalid("seller cannot offer")
	}
	if err := ctx.RequireAuth(buyer); err != nil {
		return 0, err
	}
	if err := contract.TokenAt(ctx, l.PayToken).Pull(buyer, amount); err != nil {
		return 0, err
	}
	o := Offer{
		ID:        contract.NextID(ctx, "offer"),
		ListingID: listing,
		Buyer:     buyer,
		Amount:    amount,
		Status:    OfferOpen,
		CreatedAt: ctx.Timestamp(),
	}
	contract.Store(ctx, offerKey(o.ID), o)
	contract.AddToIndex(ctx, offersIndex(listing), o.ID)
	contract.AddToIndex(ctx, buyerIndex(buyer), o.ID)
	emitOfferEvent(ctx, o)
	return o.ID, nil
}

// closeOffer moves an escrowed offer to status and refunds it.
func closeOffer(ctx *contract.Context, o Offer, status OfferStatus) error {
	l, err := contract.MustLoad(ctx, listingKey(o.ListingID), "listing")
	if err != nil {
		return err
	}
	o.Status = status
	contract.Store(ctx, offerKey(o.ID), o)
	if err := payout.Refund(contract.TokenAt(ctx, l.PayToken), o.Buyer, o.Amount); err != nil {
		return err
	}
	emitOfferEvent(ctx, o)
	return nil
}

func escrowedOffer(ctx *contract.Context, id uint64) (Offer, error) {
	o, err := contract.MustLoad(ctx, offerKey(id), "offer")
	if err != nil {
		return o, err
	}
	if !o.escrowed() {
		return o, contract.Illegal("offer not open")
	}
	return o, nil
}

// CancelOffer is the buyer taking the offer back.
func (Marketplace) CancelOffer(ctx *contract.Context, buyer sdk.Address, id uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	o, err := escrowedOffer(ctx, id)
	if err != nil {
		return err
	}
	if buyer != o.Buyer {
		return contract.Unauthorized("not offer buyer")
	}
	if err := ctx.RequireAuth(buyer); err != nil {
		return err
	}
	return closeOffer(ctx, o, OfferCancelled)
}

// RejectOffer is the seller declining.
func (Marketplace) RejectOffer(ctx *contract.Context, seller sdk.Address, id uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	o, err := escrowedOffer(ctx, id)
	if err != nil {
		return err
	}
	l, err := contract.MustLoad(ctx, listingKey(o.ListingID), "listing")
	if err != nil {
		return err
	}
	if err := sellerOf(ctx, l, seller); err != nil {
		return err
	}
	return closeOffer(ctx, o, OfferRejected)
}

// AcceptOffer sells to an open offer at its amount.
func (Marketplace) AcceptOffer(ctx *contract.Context, seller sdk.Address, id uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	o, err := contract.MustLoad(ctx, offerKey(id), "offer")
	if err != nil {
		return err
	}
	if o.Status != OfferOpen {
		return contract.Illegal("offer not open")
	}
	l, err := activeListing(ctx, o.ListingID)
	if err != nil {
		return err
	}
	if err := sellerOf(ctx, l, seller); err != nil {
		return err
	}
	o.Status = OfferAccepted
	contract.Store(ctx, offerKey(id), o)
	emitOfferEvent(ctx, o)
	return settle(ctx, l, o.Buyer, o.Amount, o.ID)
}

// Counter answers an open offer with another price.
func (Marketplace) Counter(ctx *contract.Context, seller sdk.Address, id uint64, price int64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := contract.RequirePositive(price, "price"); err != nil {
		return err
	}
	o, err := contract.MustLoad(ctx, offerKey(id), "offer")
	if err != nil {
		return err
	}
	if o.Status != OfferOpen {
		return contract.Illegal("offer not open")
	}
	l, err := activeListing(ctx, o.ListingID)
	if err != nil {
		return err
	}
	if err := sellerOf(ctx, l, seller); err != nil {
		return err
	}
	if price == o.Amount {
		return contract.Invalid("counter equals offer")
	}
	o.Status = OfferCountered
	o.CounterPrice = price
	contract.Store(ctx, offerKey(id), o)
	emitOfferEvent(ctx, o)
	return nil
}

// AcceptCounter settles at the countered price. The buyer tops up a positive
// difference; a lower counter returns the surplus escrow.
func (Marketplace) AcceptCounter(ctx *contract.Context, buyer sdk.Address, id uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	o, err := contract.MustLoad(ctx, offerKey(id), "offer")
	if err != nil {
		return err
	}
	if o.Status != OfferCountered {
		return contract.Illegal("offer not countered")
	}
	if buyer != o.Buyer {
		return contract.Unauthorized("not offer buyer")
	}
	if err := ctx.RequireAuth(buyer); err != nil {
		return err
	}
	l, err := activeListing(ctx, o.ListingID)
	if err != nil {
		return err
	}
	tok := contract.TokenAt(ctx, l.PayToken)
	switch delta := o.CounterPrice - o.Amount; {
	case delta > 0:
		if err := tok.Pull(buyer, delta); err != nil {
			return err
		}
	case delta < 0:
		if err := tok.Pay(buyer, -delta); err != nil {
			return err
		}
	}
	o.Amount = o.CounterPrice
	o.Status = OfferAccepted
	contract.Store(ctx, offerKey(id), o)
	emitOfferEvent(ctx, o)
	return settle(ctx, l, o.Buyer, o.Amount, o.ID)
}

// CancelListing returns the NFT and refunds every escrowed offer.
func (Marketplace) CancelListing(ctx *contract.Context, seller sdk.Address, id uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	l, err := contract.MustLoad(ctx, listingKey(id), "listing")
	if err != nil {
		return err
	}
	if l.Status != ListingActive {
		return contract.Illegal("listing not active")
	}
	if err := sellerOf(ctx, l, seller); err != nil {
		return err
	}
	return closeListing(ctx, l, ListingCancelled)
}

func closeListing(ctx *contract.Context, l Listing, status ListingStatus) error {
	l.Status = status
	contract.Store(ctx, listingKey(l.ID), l)
	if err := refundOffers(ctx, l, 0); err != nil {
		return err
	}
	if err := contract.NFTAt(ctx, l.NFT).Release(l.Seller, l.TokenID); err != nil {
		return err
	}
	emitListingStatusEvent(ctx, l)
	return nil
}

// ExpireListings is the keeper sweep: every listing in ids that is active and
// past its expiry moves to Expired. Others are skipped. Returns how many expired.
func (Marketplace) ExpireListings(ctx *contract.Context, ids []uint64) (int, error) {
	if err := contract.RequireInitialized(ctx); err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		l, ok := contract.Load(ctx, listingKey(id))
		if !ok || l.Status != ListingActive || !l.expired(ctx.Timestamp()) {
			continue
		}
		if err := closeListing(ctx, l, ListingExpired); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// UpdatePrice changes the asking price of an active listing.
func (Marketplace) UpdatePrice(ctx *contract.Context, seller sdk.Address, id uint64, price int64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := contract.RequirePositive(price, "price"); err != nil {
		return err
	}
	l, err := activeListing(ctx, id)
	if err != nil {
		return err
	}
	if err := sellerOf(ctx, l, seller); err != nil {
		return err
	}
	l.Price = price
	contract.Store(ctx, listingKey(id), l)
	emitPriceEvent(ctx, id, price)
	return nil
}
