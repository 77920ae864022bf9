package achievements

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

func emitSetEvent(ctx *contract.Context, s Set) {
	ctx.Emit("ac_set",
		sdk.U64("id", s.ID),
		sdk.Str("name", s.Name),
		sdk.Str("rarity", s.Rarity.String()),
		sdk.Bool("active", s.Active),
	)
}

func emitClaimEvent(ctx *contract.Context, ed Edition, reward int64) {
	ctx.Emit("ac_claim",
		sdk.U64("set", ed.SetID),
		sdk.U64("ed", ed.TokenID),
		sdk.U64("serial", uint64(ed.Serial)),
		sdk.Addr("p", ed.Owner),
		sdk.I64("r", reward),
	)
}

func emitEditionTransferEvent(ctx *contract.Context, id uint64, from, to sdk.Address) {
	ctx.Emit("ac_xfer", sdk.U64("ed", id), sdk.Addr("f", from), sdk.Addr("t", to))
}
