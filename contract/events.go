package contract

import "puzzlechain/sdk"

// emitInitializedEvent writes a tiny "init" line so watchers know a program went live.
func emitInitializedEvent(ctx *Context, admin sdk.Address) {
	ctx.Emit("init", sdk.Addr("admin", admin))
}

// emitAdminChangedEvent signals an admin handover.
func emitAdminChangedEvent(ctx *Context, from, to sdk.Address) {
	ctx.Emit("admin", sdk.Addr("old", from), sdk.Addr("new", to))
}

func emitPausedEvent(ctx *Context, paused bool) {
	ctx.Emit("pause", sdk.Bool("p", paused))
}

// emitTreasuryEvent logs every treasury movement, positive deltas are deposits.
func emitTreasuryEvent(ctx *Context, token sdk.Address, delta int64, balance int64) {
	ctx.Emit("tr", sdk.Addr("t", token), sdk.I64("d", delta), sdk.I64("b", balance))
}

// emitAllowlistEvent tells indexers an address entered or left a named list.
func emitAllowlistEvent(ctx *Context, list string, addr sdk.Address, added bool) {
	ctx.Emit("al", sdk.Str("l", list), sdk.Addr("a", addr), sdk.Bool("on", added))
}
