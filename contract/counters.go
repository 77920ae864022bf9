package contract

// counterKey holds an integer counter per entity family (to create new ids).
func counterKey(name string) Key[uint64] {
	return KeyStr[uint64](kCounter, "count:"+name)
}

// NextID bumps and returns the counter. Ids start at 1 and are never reused,
// even after the entity is removed.
// Example payload: contract.NextID(ctx, "listing")
func NextID(ctx *Context, name string) uint64 {
	n := LoadOr(ctx, counterKey(name), 0) + 1
	Store(ctx, counterKey(name), n)
	return n
}

// LastID reads the counter without bumping it.
func LastID(ctx *Context, name string) uint64 {
	return LoadOr(ctx, counterKey(name), 0)
}
