package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puzzlechain/sdk"
)

func who(n string) sdk.Address { return sdk.User(n) }

func TestInsertOrdersAndTruncates(t *testing.T) {
	b := New(3)
	b.Insert(Entry{Who: who("a"), Score: 10})
	b.Insert(Entry{Who: who("b"), Score: 30})
	b.Insert(Entry{Who: who("c"), Score: 20})
	b.Insert(Entry{Who: who("d"), Score: 5})

	require.Len(t, b.Entries, 3)
	assert.Equal(t, []sdk.Address{who("b"), who("c"), who("a")}, names(b.Entries))
}

func TestTiesKeepOlderFirst(t *testing.T) {
	b := New(5)
	b.Insert(Entry{Who: who("old"), Score: 10, At: 1})
	b.Insert(Entry{Who: who("new"), Score: 10, At: 2})
	assert.Equal(t, []sdk.Address{who("old"), who("new")}, names(b.Entries))
}

func TestReinsertReplaces(t *testing.T) {
	b := New(5)
	b.Insert(Entry{Who: who("a"), Score: 10})
	b.Insert(Entry{Who: who("b"), Score: 20})
	b.Insert(Entry{Who: who("a"), Score: 30})
	assert.Equal(t, []sdk.Address{who("a"), who("b")}, names(b.Entries))
	assert.Equal(t, 1, b.Rank(who("a")))
	assert.Equal(t, 0, b.Rank(who("zz")))
}

func TestBoardStaysSortedUnderChurn(t *testing.T) {
	b := New(4)
	for i := 0; i < 50; i++ {
		b.Insert(Entry{Who: who(string(rune('a' + i%7))), Score: int64((i * 37) % 23)})
		assert.LessOrEqual(t, len(b.Entries), 4)
		seen := map[sdk.Address]bool{}
		for j, e := range b.Entries {
			assert.False(t, seen[e.Who])
			seen[e.Who] = true
			if j > 0 {
				assert.GreaterOrEqual(t, b.Entries[j-1].Score, e.Score)
			}
		}
	}
	assert.Len(t, b.Top(10), 4)
	assert.Len(t, b.Top(2), 2)
}

func names(es []Entry) []sdk.Address {
	out := make([]sdk.Address, len(es))
	for i, e := range es {
		out[i] = e.Who
	}
	return out
}
