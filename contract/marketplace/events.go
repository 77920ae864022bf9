package marketplace

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

func emitListedEvent(ctx *contract.Context, l Listing) {
	ctx.Emit("mk_list",
		sdk.U64("id", l.ID),
		sdk.Addr("s", l.Seller),
		sdk.U64("nft", uint64(l.TokenID)),
		sdk.I64("p", l.Price),
	)
}

func emitListingStatusEvent(ctx *contract.Context, l Listing) {
	ctx.Emit("mk_status", sdk.U64("id", l.ID), sdk.Str("st", l.Status.String()))
}

func emitSoldEvent(ctx *contract.Context, l Listing, buyer sdk.Address, price int64, offer uint64) {
	ctx.Emit("mk_sold",
		sdk.U64("id", l.ID),
		sdk.Addr("b", buyer),
		sdk.I64("p", price),
		sdk.U64("offer", offer),
	)
}

func emitOfferEvent(ctx *contract.Context, o Offer) {
	ctx.Emit("mk_offer",
		sdk.U64("id", o.ID),
		sdk.U64("l", o.ListingID),
		sdk.Addr("b", o.Buyer),
		sdk.I64("a", o.Amount),
		sdk.Str("st", o.Status.String()),
	)
}

func emitPriceEvent(ctx *contract.Context, id uint64, price int64) {
	ctx.Emit("mk_price", sdk.U64("id", id), sdk.I64("p", price))
}
