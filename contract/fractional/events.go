package fractional

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

func emitVaultEvent(ctx *contract.Context, v Vault) {
	ctx.Emit("fr_vault",
		sdk.U64("id", v.ID),
		sdk.Addr("c", v.Curator),
		sdk.U64("nft", uint64(v.TokenID)),
		sdk.I64("shares", v.TotalShares),
	)
}

func emitSharesEvent(ctx *contract.Context, vault uint64, from, to sdk.Address, n int64) {
	ctx.Emit("fr_move", sdk.U64("v", vault), sdk.Addr("f", from), sdk.Addr("t", to), sdk.I64("n", n))
}

func emitRentalEvent(ctx *contract.Context, vault uint64, who sdk.Address, amount int64, deposit bool) {
	topic := "fr_claim"
	if deposit {
		topic = "fr_rent"
	}
	ctx.Emit(topic, sdk.U64("v", vault), sdk.Addr("by", who), sdk.I64("a", amount))
}

func emitBuyoutEvent(ctx *contract.Context, b Buyout, topic string) {
	ctx.Emit(topic,
		sdk.U64("id", b.ID),
		sdk.U64("v", b.Vault),
		sdk.Addr("b", b.Buyer),
		sdk.I64("esc", b.Escrow),
	)
}

func emitRecombineEvent(ctx *contract.Context, vault uint64, to sdk.Address) {
	ctx.Emit("fr_recombine", sdk.U64("v", vault), sdk.Addr("to", to))
}
