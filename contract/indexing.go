package contract

// maintaining index keys for querying data in various ways, the store has no iteration

import "strconv"

// all indexes are split into chunks of X entries so a single value never grows unbounded
const maxChunkSize = 256

func chunkCounterKey(base string) Key[int] {
	return KeyStr[int](kIndex, base, "chunks")
}

func chunkKey(base string, chunk int) Key[[]uint64] {
	return KeyStr[[]uint64](kIndex, base, strconv.Itoa(chunk))
}

// IndexKey builds an index name from a family and an owner, e.g. IndexKey("seller", addr).
func IndexKey(family string, parts ...string) string {
	out := family
	for _, p := range parts {
		out += ":" + p
	}
	return out
}

// AddToIndex ensures id exists across all chunks (no duplicates).
func AddToIndex(ctx *Context, base string, id uint64) {
	chunks := LoadOr(ctx, chunkCounterKey(base), 0)
	for i := 0; i < chunks; i++ {
		ids := LoadOr(ctx, chunkKey(base, i), nil)
		for _, e := range ids {
			if e == id {
				return
			}
		}
		if len(ids) < maxChunkSize {
			Store(ctx, chunkKey(base, i), append(ids, id))
			return
		}
	}
	// no space -> open a new chunk
	Store(ctx, chunkKey(base, chunks), []uint64{id})
	Store(ctx, chunkCounterKey(base), chunks+1)
}

// RemoveFromIndex removes id from whichever chunk it is in.
func RemoveFromIndex(ctx *Context, base string, id uint64) bool {
	chunks := LoadOr(ctx, chunkCounterKey(base), 0)
	for i := 0; i < chunks; i++ {
		ids := LoadOr(ctx, chunkKey(base, i), nil)
		kept := ids[:0]
		found := false
		for _, e := range ids {
			if e == id {
				found = true
				continue
			}
			kept = append(kept, e)
		}
		if found {
			Store(ctx, chunkKey(base, i), kept)
			return true
		}
	}
	return false
}

// IndexIDs collects all ids across all chunks in insertion order.
func IndexIDs(ctx *Context, base string) []uint64 {
	all := []uint64{}
	chunks := LoadOr(ctx, chunkCounterKey(base), 0)
	for i := 0; i < chunks; i++ {
		all = append(all, LoadOr(ctx, chunkKey(base, i), nil)...)
	}
	return all
}

// InIndex checks all chunks for a specific id.
func InIndex(ctx *Context, base string, id uint64) bool {
	for _, v := range IndexIDs(ctx, base) {
		if v == id {
			return true
		}
	}
	return false
}
