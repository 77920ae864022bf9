package marketplace

import "puzzlechain/sdk"

type Config struct {
	FeeBps uint32      `json:"fee_bps"`
	FeeTo  sdk.Address `json:"fee_to"`
}

type ListingStatus uint8

const (
	ListingActive ListingStatus = iota + 1
	ListingSold
	ListingCancelled
	ListingExpired
)

func (s ListingStatus) String() string {
	switch s {
	case ListingActive:
		return "active"
	case ListingSold:
		return "sold"
	case ListingCancelled:
		return "cancelled"
	case ListingExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Listing holds an NFT in custody until it is sold, cancelled or expired.
type Listing struct {
	ID         uint64        `json:"id"`
	Seller     sdk.Address   `json:"seller"`
	NFT        sdk.Address   `json:"nft"`
	TokenID    uint32        `json:"token_id"`
	PayToken   sdk.Address   `json:"pay_token"`
	Price      int64         `json:"price"`
	RoyaltyBps uint32        `json:"royalty_bps"`
	Creator    sdk.Address   `json:"creator,omitempty"`
	Status     ListingStatus `json:"status"`
	CreatedAt  uint64        `json:"created"`
	ExpiresAt  uint64        `json:"expires,omitempty"` // 0 = never
}

func (l Listing) expired(now uint64) bool {
	return l.ExpiresAt != 0 && now > l.ExpiresAt
}

type OfferStatus uint8

const (
	OfferOpen OfferStatus = iota + 1
	OfferAccepted
	OfferRejected
	OfferCancelled
	OfferCountered
)

func (s OfferStatus) String() string {
	switch s {
	case OfferOpen:
		return "open"
	case OfferAccepted:
		return "accepted"
	case OfferRejected:
		return "rejected"
	case OfferCancelled:
		return "cancelled"
	case OfferCountered:
		return "countered"
	default:
		return "unknown"
	}
}

// Offer escrows Amount of the listing's pay token.
type Offer struct {
	ID           uint64      `json:"id"`
	ListingID    uint64      `json:"listing"`
	Buyer        sdk.Address `json:"buyer"`
	Amount       int64       `json:"amount"`
	Status       OfferStatus `json:"status"`
	CounterPrice int64       `json:"counter,omitempty"`
	CreatedAt    uint64      `json:"created"`
}

// escrowed reports whether the offer still holds buyer funds.
func (o Offer) escrowed() bool {
	return o.Status == OfferOpen || o.Status == OfferCountered
}
