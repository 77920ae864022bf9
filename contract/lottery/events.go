package lottery

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

func emitRoundEvent(ctx *contract.Context, r Round) {
	ctx.Emit("lot_round",
		sdk.U64("id", r.ID),
		sdk.I64("price", r.TicketPrice),
		sdk.U64("end", r.EndTime),
		sdk.Str("st", r.Status.String()),
	)
}

func emitTicketsEvent(ctx *contract.Context, round uint64, who sdk.Address, count int64) {
	ctx.Emit("lot_buy", sdk.U64("id", round), sdk.Addr("p", who), sdk.I64("n", count))
}

func emitDrawEvent(ctx *contract.Context, r Round) {
	attrs := []sdk.Attr{sdk.U64("id", r.ID), sdk.I64("pool", r.Pool)}
	for _, w := range r.Winners {
		attrs = append(attrs, sdk.Addr("w", w))
	}
	ctx.Emit("lot_draw", attrs...)
}

func emitClaimEvent(ctx *contract.Context, topic string, round uint64, who sdk.Address, amount int64) {
	ctx.Emit(topic, sdk.U64("id", round), sdk.Addr("p", who), sdk.I64("a", amount))
}
