package contract

import (
	"encoding/json"
	"fmt"
)

////////////////////////////////////////////////////////////////////////////////
// Typed state access, everything is scoped to ctx.Self()
////////////////////////////////////////////////////////////////////////////////

// Load reads the value under k. Temporary entries past their TTL read as absent.
// A value that does not decode is a corrupted store and panics; the host turns
// that into an aborted transaction.
func Load[T any](ctx *Context, k Key[T]) (T, bool) {
	var v T
	e, ok := ctx.state().Get(namespaced(ctx.self, k.raw))
	if !ok {
		return v, false
	}
	if e.Durability == Temporary && e.LiveUntil < ctx.Sequence() {
		return v, false
	}
	if err := json.Unmarshal([]byte(e.Value), &v); err != nil {
		panic(fmt.Sprintf("failed to unmarshal %x: %v", k.raw, err))
	}
	return v, true
}

// MustLoad is Load that reports absence as NotFound.
// Example payload: contract.MustLoad(ctx, listingKey(id), "listing")
func MustLoad[T any](ctx *Context, k Key[T], what string) (T, error) {
	v, ok := Load(ctx, k)
	if !ok {
		return v, NotFound(what)
	}
	return v, nil
}

// LoadOr falls back to def when the key is absent.
func LoadOr[T any](ctx *Context, k Key[T], def T) T {
	if v, ok := Load(ctx, k); ok {
		return v
	}
	return def
}

// Store writes a persistent value. The TTL hint of an existing entry is kept,
// new entries get the host's default window.
func Store[T any](ctx *Context, k Key[T], v T) {
	storeEntry(ctx, k.raw, v, Persistent, 0)
}

// StoreTemp writes a temporary value living for ttl ledgers.
func StoreTemp[T any](ctx *Context, k Key[T], v T, ttl uint64) {
	storeEntry(ctx, k.raw, v, Temporary, ttl)
}

func storeEntry(ctx *Context, raw string, v any, d Durability, ttl uint64) {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal %x: %v", raw, err))
	}
	full := namespaced(ctx.self, raw)
	seq := ctx.Sequence()
	liveUntil := seq + ctx.host.cfg.TTL.High
	if d == Temporary {
		liveUntil = seq + ttl
	} else if prev, ok := ctx.state().Get(full); ok && prev.Durability == Persistent && prev.LiveUntil > liveUntil {
		liveUntil = prev.LiveUntil
	}
	ctx.state().Set(full, Entry{Value: string(b), Durability: d, LiveUntil: liveUntil})
}

// Has reports whether k currently holds a live value.
func Has[T any](ctx *Context, k Key[T]) bool {
	_, ok := Load(ctx, k)
	return ok
}

// Remove deletes k, absent keys are fine.
func Remove[T any](ctx *Context, k Key[T]) {
	ctx.state().Delete(namespaced(ctx.self, k.raw))
}

// ExtendTTL bumps the live-until sequence to seq+high when fewer than low ledgers remain.
func ExtendTTL[T any](ctx *Context, k Key[T], low, high uint64) error {
	if low > high {
		return Invalid("ttl low above high")
	}
	full := namespaced(ctx.self, k.raw)
	e, ok := ctx.state().Get(full)
	if !ok {
		return NotFound("entry")
	}
	seq := ctx.Sequence()
	if e.LiveUntil >= seq && e.LiveUntil-seq >= low {
		return nil
	}
	e.LiveUntil = seq + high
	ctx.state().Set(full, e)
	return nil
}

// TTL reports the live-until sequence of k.
func TTL[T any](ctx *Context, k Key[T]) (uint64, bool) {
	e, ok := ctx.state().Get(namespaced(ctx.self, k.raw))
	if !ok {
		return 0, false
	}
	return e.LiveUntil, true
}
