package multisig

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

func emitMemberEvent(ctx *contract.Context, topic string, m Member) {
	ctx.Emit(topic, sdk.Addr("m", m.Who), sdk.Str("role", m.Role.String()))
}

func emitProposalEvent(ctx *contract.Context, p Proposal) {
	ctx.Emit("ms_prop",
		sdk.U64("id", p.ID),
		sdk.Str("kind", p.Action.Kind.String()),
		sdk.Str("st", p.Ballot.Status.String()),
		sdk.U64("sigs", uint64(len(p.Ballot.Signers))),
	)
}

func emitSignEvent(ctx *contract.Context, id uint64, who sdk.Address, signatures int) {
	ctx.Emit("ms_sign", sdk.U64("id", id), sdk.Addr("by", who), sdk.U64("n", uint64(signatures)))
}

func emitThresholdEvent(ctx *contract.Context, n uint32) {
	ctx.Emit("ms_thr", sdk.U64("n", uint64(n)))
}
