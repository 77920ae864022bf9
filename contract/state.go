package contract

// Durability decides how an entry behaves once its TTL lapses. Temporary entries
// vanish, persistent ones keep their value and only carry the hint.
type Durability uint8

const (
	Persistent Durability = iota
	Temporary
)

// Entry is one stored value plus its TTL hint (ledger sequence until which it lives).
type Entry struct {
	Value      string
	Durability Durability
	LiveUntil  uint64
}

// State is the raw key/value surface every layer of the engine talks to.
type State interface {
	Set(key string, e Entry)
	Get(key string) (Entry, bool)
	Delete(key string)
}

// MemState is the committed store of a host.
type MemState struct {
	db map[string]Entry
}

func NewMemState() *MemState {
	return &MemState{db: make(map[string]Entry)}
}

func (m *MemState) Set(key string, e Entry) {
	m.db[key] = e
}

func (m *MemState) Get(key string) (Entry, bool) {
	e, ok := m.db[key]
	return e, ok
}

func (m *MemState) Delete(key string) {
	delete(m.db, key)
}

// Len reports how many entries are committed, handy for tests asserting rollbacks.
func (m *MemState) Len() int {
	return len(m.db)
}

// Snapshot copies the committed map.
func (m *MemState) Snapshot() map[string]Entry {
	out := make(map[string]Entry, len(m.db))
	for k, v := range m.db {
		out[k] = v
	}
	return out
}

// frame is a write overlay over a parent state. Every transaction and every
// cross-contract call runs in its own frame; commit folds the writes into the
// parent, discard just drops the frame.
type frame struct {
	parent State
	writes map[string]*Entry // nil marks a delete
	order  []string
}

func newFrame(parent State) *frame {
	return &frame{parent: parent, writes: make(map[string]*Entry)}
}

func (f *frame) Set(key string, e Entry) {
	if _, seen := f.writes[key]; !seen {
		f.order = append(f.order, key)
	}
	cp := e
	f.writes[key] = &cp
}

func (f *frame) Get(key string) (Entry, bool) {
	if w, ok := f.writes[key]; ok {
		if w == nil {
			return Entry{}, false
		}
		return *w, true
	}
	return f.parent.Get(key)
}

func (f *frame) Delete(key string) {
	if _, seen := f.writes[key]; !seen {
		f.order = append(f.order, key)
	}
	f.writes[key] = nil
}

// commit replays the writes in first-touch order into the parent.
func (f *frame) commit() {
	for _, k := range f.order {
		if w := f.writes[k]; w != nil {
			f.parent.Set(k, *w)
		} else {
			f.parent.Delete(k)
		}
	}
	f.writes = nil
	f.order = nil
}
