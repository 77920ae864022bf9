package vesting

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

func emitScheduleEvent(ctx *contract.Context, s Schedule) {
	ctx.Emit("vs_new",
		sdk.U64("id", s.ID),
		sdk.Addr("b", s.Beneficiary),
		sdk.I64("total", s.Curve.Total),
		sdk.Str("kind", s.Curve.Kind.String()),
	)
}

func emitReleaseEvent(ctx *contract.Context, id uint64, to sdk.Address, amount, released int64) {
	ctx.Emit("vs_release", sdk.U64("id", id), sdk.Addr("t", to), sdk.I64("a", amount), sdk.I64("rel", released))
}

func emitRevokeEvent(ctx *contract.Context, id uint64, returned int64) {
	ctx.Emit("vs_revoke", sdk.U64("id", id), sdk.I64("ret", returned))
}

func emitMilestoneEvent(ctx *contract.Context, id uint64, milestone uint32) {
	ctx.Emit("vs_ms", sdk.U64("id", id), sdk.U64("ms", uint64(milestone)))
}

func emitModifyEvent(ctx *contract.Context, id uint64) {
	ctx.Emit("vs_mod", sdk.U64("id", id))
}

func emitBeneficiaryEvent(ctx *contract.Context, id uint64, from, to sdk.Address) {
	ctx.Emit("vs_ben", sdk.U64("id", id), sdk.Addr("f", from), sdk.Addr("t", to))
}
