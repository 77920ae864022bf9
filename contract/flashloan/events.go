package flashloan

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

func emitLiquidityEvent(ctx *contract.Context, topic string, lender, token sdk.Address, amount, shares int64) {
	ctx.Emit(topic,
		sdk.Addr("by", lender),
		sdk.Addr("tk", token),
		sdk.I64("a", amount),
		sdk.I64("sh", shares),
	)
}

func emitLoanEvent(ctx *contract.Context, l Loan) {
	ctx.Emit("fl_loan",
		sdk.U64("id", l.ID),
		sdk.Addr("b", l.Borrower),
		sdk.Addr("tk", l.Token),
		sdk.I64("a", l.Amount),
		sdk.I64("fee", l.Fee),
		sdk.Str("st", l.Status.String()),
	)
}
