package prediction

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

func emitMarketEvent(ctx *contract.Context, m Market) {
	ctx.Emit("pm_market",
		sdk.U64("id", m.ID),
		sdk.Str("st", m.Status.String()),
		sdk.I64("total", m.Total),
		sdk.I64("win", int64(m.Winning)),
	)
}

func emitBetEvent(ctx *contract.Context, market uint64, who sdk.Address, outcome int, amount int64) {
	ctx.Emit("pm_bet",
		sdk.U64("id", market),
		sdk.Addr("b", who),
		sdk.U64("o", uint64(outcome)),
		sdk.I64("a", amount),
	)
}

func emitPayoutEvent(ctx *contract.Context, topic string, market uint64, who sdk.Address, amount int64) {
	ctx.Emit(topic, sdk.U64("id", market), sdk.Addr("to", who), sdk.I64("a", amount))
}
