package battlepass

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

func emitSeasonEvent(ctx *contract.Context, s Season) {
	ctx.Emit("bp_season",
		sdk.U64("id", s.ID),
		sdk.Str("st", s.Status.String()),
		sdk.I64("reserve", s.Reserve),
	)
}

func emitPremiumEvent(ctx *contract.Context, season uint64, who sdk.Address, price int64) {
	ctx.Emit("bp_premium", sdk.U64("s", season), sdk.Addr("p", who), sdk.I64("a", price))
}

func emitXPEvent(ctx *contract.Context, season uint64, who sdk.Address, xp, total int64, level uint64) {
	ctx.Emit("bp_xp",
		sdk.U64("s", season),
		sdk.Addr("p", who),
		sdk.I64("xp", xp),
		sdk.I64("total", total),
		sdk.U64("lvl", level),
	)
}

func emitRewardEvent(ctx *contract.Context, topic string, season uint64, who sdk.Address, amount int64) {
	ctx.Emit(topic, sdk.U64("s", season), sdk.Addr("p", who), sdk.I64("a", amount))
}
