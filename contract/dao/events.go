package dao

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

func emitMemberEvent(ctx *contract.Context, topic string, m Member) {
	ctx.Emit(topic,
		sdk.Addr("m", m.Who),
		sdk.I64("stake", m.Stake),
		sdk.Str("tier", m.Tier.String()),
		sdk.Bool("active", m.Active),
	)
}

func emitProposalEvent(ctx *contract.Context, p Proposal) {
	ctx.Emit("dao_prop",
		sdk.U64("id", p.ID),
		sdk.Str("cat", p.Category.String()),
		sdk.Str("kind", p.Action.Kind.String()),
		sdk.Str("st", p.Status.String()),
		sdk.I64("for", p.Tally.For),
		sdk.I64("against", p.Tally.Against),
	)
}
