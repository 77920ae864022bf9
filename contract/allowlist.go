package contract

import "puzzlechain/sdk"

// Allowlists are presence keys, one per (list, address). Relayers, assessors and
// oracles all live in named lists.

func allowKey(list string, addr sdk.Address) Key[bool] {
	return KeyStr[bool](kAllow, list, addr.String())
}

func allowCountKey(list string) Key[int] {
	return KeyStr[int](kAllow, list)
}

// AllowAdd stores the entry, false when it already existed.
func AllowAdd(ctx *Context, list string, addr sdk.Address) bool {
	if Has(ctx, allowKey(list, addr)) {
		return false
	}
	Store(ctx, allowKey(list, addr), true)
	Store(ctx, allowCountKey(list), AllowCount(ctx, list)+1)
	emitAllowlistEvent(ctx, list, addr, true)
	return true
}

// AllowRemove removes the entry and reports whether it existed.
func AllowRemove(ctx *Context, list string, addr sdk.Address) bool {
	if !Has(ctx, allowKey(list, addr)) {
		return false
	}
	Remove(ctx, allowKey(list, addr))
	Store(ctx, allowCountKey(list), AllowCount(ctx, list)-1)
	emitAllowlistEvent(ctx, list, addr, false)
	return true
}

// Allowed reports whether addr is on the list.
func Allowed(ctx *Context, list string, addr sdk.Address) bool {
	return Has(ctx, allowKey(list, addr))
}

// AllowCount is the number of entries on the list.
func AllowCount(ctx *Context, list string) int {
	return LoadOr(ctx, allowCountKey(list), 0)
}
