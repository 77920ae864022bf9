package sdk

import (
	"strconv"
	"strings"

	"github.com/CosmWasm/tinyjson/jwriter"
)

// Attr is one key/value pair of an event payload.
type Attr struct {
	Key   string
	Value string
}

func Str(k, v string) Attr          { return Attr{Key: k, Value: v} }
func U64(k string, v uint64) Attr   { return Attr{Key: k, Value: strconv.FormatUint(v, 10)} }
func I64(k string, v int64) Attr    { return Attr{Key: k, Value: strconv.FormatInt(v, 10)} }
func Addr(k string, v Address) Attr { return Attr{Key: k, Value: v.String()} }
func Bool(k string, v bool) Attr    { return Attr{Key: k, Value: strconv.FormatBool(v)} }

// Event is a committed notification from a program. Events never influence
// the outcome of the transaction that produced them.
type Event struct {
	Contract  Address
	Topic     string
	Attrs     []Attr
	Sequence  uint64
	Timestamp uint64
}

// Get returns the value of the first attribute named k.
func (e Event) Get(k string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Key == k {
			return a.Value, true
		}
	}
	return "", false
}

// String renders the terse pipe line watchers tail, e.g. "lot_draw|id:3|w:user:bob".
func (e Event) String() string {
	var sb strings.Builder
	sb.WriteString(e.Topic)
	for _, a := range e.Attrs {
		sb.WriteByte('|')
		sb.WriteString(a.Key)
		sb.WriteByte(':')
		sb.WriteString(a.Value)
	}
	return sb.String()
}

// MarshalJSON keeps attribute order stable, which a map based encoding would not.
func (e Event) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	w.RawString(`{"contract":`)
	w.String(e.Contract.String())
	w.RawString(`,"topic":`)
	w.String(e.Topic)
	w.RawString(`,"seq":`)
	w.Uint64(e.Sequence)
	w.RawString(`,"ts":`)
	w.Uint64(e.Timestamp)
	w.RawString(`,"attrs":{`)
	for i, a := range e.Attrs {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(a.Key)
		w.RawByte(':')
		w.String(a.Value)
	}
	w.RawString(`}}`)
	return w.BuildBytes()
}
