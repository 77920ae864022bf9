package marketplace

import (
	"strconv"

	"puzzlechain/contract"
	"puzzlechain/sdk"
)

const (
	kListing byte = contract.FirstProgramTag + iota
	kOffer
)

func listingKey(id uint64) contract.Key[Listing] {
	return contract.KeyID[Listing](kListing, id)
}

func offerKey(id uint64) contract.Key[Offer] {
	return contract.KeyID[Offer](kOffer, id)
}

func sellerIndex(seller sdk.Address) string {
	return contract.IndexKey("seller", seller.String())
}

func offersIndex(listing uint64) string {
	return contract.IndexKey("offers", strconv.FormatUint(listing, 10))
}

func buyerIndex(buyer sdk.Address) string {
	return contract.IndexKey("buyer", buyer.String())
}
