// Package leaderboard is a bounded, descending, per-principal deduplicated ranking.
package leaderboard

import "puzzlechain/sdk"

// Entry is one ranked principal.
type Entry struct {
	Who   sdk.Address `json:"who"`
	Score int64       `json:"score"`
	At    uint64      `json:"at"`
}

// Board keeps at most Max entries sorted by score, highest first.
type Board struct {
	Max     int     `json:"max"`
	Entries []Entry `json:"entries"`
}

// New returns an empty board.
func New(max int) Board {
	if max < 1 {
		max = 1
	}
	return Board{Max: max}
}

// Insert places e after every entry scoring at least as much, so an older
// entry with an equal score stays ahead. A previous entry of the same
// principal is replaced.
func (b *Board) Insert(e Entry) {
	kept := b.Entries[:0]
	for _, cur := range b.Entries {
		if cur.Who != e.Who {
			kept = append(kept, cur)
		}
	}
	pos := len(kept)
	for i, cur := range kept {
		if e.Score > cur.Score {
			pos = i
			break
		}
	}
	out := make([]Entry, 0, len(kept)+1)
	out = append(out, kept[:pos]...)
	out = append(out, e)
	out = append(out, kept[pos:]...)
	if len(out) > b.Max {
		out = out[:b.Max]
	}
	b.Entries = out
}

// Top returns the first min(limit, Max) entries.
func (b Board) Top(limit int) []Entry {
	if limit > len(b.Entries) {
		limit = len(b.Entries)
	}
	if limit < 0 {
		limit = 0
	}
	out := make([]Entry, limit)
	copy(out, b.Entries[:limit])
	return out
}

// Rank is the 1-based position of who, 0 when absent.
func (b Board) Rank(who sdk.Address) int {
	for i, e := range b.Entries {
		if e.Who == who {
			return i + 1
		}
	}
	return 0
}
