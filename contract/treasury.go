package contract

import "puzzlechain/sdk"

// The treasury is the program's own ledger of what it may spend per token. It
// never exceeds what the program holds at the token contract.

func treasuryKey(token sdk.Address) Key[int64] {
	return KeyAddr[int64](kTreasury, token)
}

// TreasuryBalance retrieves the balance of a specific token in the treasury.
func TreasuryBalance(ctx *Context, token sdk.Address) int64 {
	return LoadOr(ctx, treasuryKey(token), 0)
}

// TreasuryDeposit pulls amount from a depositor and books it.
func TreasuryDeposit(ctx *Context, from, token sdk.Address, amount int64) error {
	if err := RequirePositive(amount, "amount"); err != nil {
		return err
	}
	if err := TokenAt(ctx, token).Pull(from, amount); err != nil {
		return err
	}
	return TreasuryCredit(ctx, token, amount)
}

// TreasuryCredit books funds that already arrived.
func TreasuryCredit(ctx *Context, token sdk.Address, amount int64) error {
	next, err := AddAmount(TreasuryBalance(ctx, token), amount)
	if err != nil {
		return err
	}
	Store(ctx, treasuryKey(token), next)
	emitTreasuryEvent(ctx, token, amount, next)
	return nil
}

// TreasuryDebit removes funds from the books without moving them.
func TreasuryDebit(ctx *Context, token sdk.Address, amount int64) error {
	next, err := SubAmount(TreasuryBalance(ctx, token), amount, "treasury")
	if err != nil {
		return err
	}
	Store(ctx, treasuryKey(token), next)
	emitTreasuryEvent(ctx, token, -amount, next)
	return nil
}

// TreasuryPay debits and transfers in one go.
func TreasuryPay(ctx *Context, token, to sdk.Address, amount int64) error {
	if err := TreasuryDebit(ctx, token, amount); err != nil {
		return err
	}
	return TokenAt(ctx, token).Pay(to, amount)
}
