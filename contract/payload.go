package contract

import (
	"strconv"
	"strings"

	"puzzlechain/sdk"
)

// Args decodes the pipe-delimited payloads exported methods receive, e.g.
// "7|user:alice|250". The first bad field sticks; check Err once at the end.
type Args struct {
	parts []string
	err   error
}

// ParseArgs unwraps optional quotes and splits on '|'.
// Example payload: contract.ParseArgs(`"3|true"`)
func ParseArgs(payload string) *Args {
	raw := strings.TrimSpace(payload)
	if len(raw) >= 2 {
		first, last := raw[0], raw[len(raw)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			if unquoted, err := strconv.Unquote(raw); err == nil {
				raw = unquoted
			} else {
				raw = strings.TrimSpace(raw[1 : len(raw)-1])
			}
		}
	}
	if raw == "" {
		return &Args{}
	}
	return &Args{parts: strings.Split(raw, "|")}
}

func (a *Args) get(i int) string {
	if i < len(a.parts) {
		return strings.TrimSpace(a.parts[i])
	}
	return ""
}

func (a *Args) fail(field string) {
	if a.err == nil {
		a.err = Invalid("invalid " + field)
	}
}

// Len is the number of fields.
func (a *Args) Len() int { return len(a.parts) }

// Err is the first decoding failure, nil if every field parsed.
func (a *Args) Err() error { return a.err }

// Str returns the raw field, empty when missing.
func (a *Args) Str(i int) string { return a.get(i) }

// Uint parses an unsigned field, a missing field is a failure.
func (a *Args) Uint(i int, field string) uint64 {
	n, err := strconv.ParseUint(a.get(i), 10, 64)
	if err != nil {
		a.fail(field)
		return 0
	}
	return n
}

// Uint32 is Uint bounded to 32 bits (token ids, bps).
func (a *Args) Uint32(i int, field string) uint32 {
	n, err := strconv.ParseUint(a.get(i), 10, 32)
	if err != nil {
		a.fail(field)
		return 0
	}
	return uint32(n)
}

// Amount parses a signed token amount.
func (a *Args) Amount(i int, field string) int64 {
	n, err := strconv.ParseInt(a.get(i), 10, 64)
	if err != nil {
		a.fail(field)
		return 0
	}
	return n
}

// Bool accepts a couple of truthy keywords, defaulting to false for unknown text.
func (a *Args) Bool(i int) bool {
	switch strings.ToLower(a.get(i)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

// Address parses a principal field.
func (a *Args) Address(i int, field string) sdk.Address {
	addr := sdk.Address(a.get(i))
	if !addr.IsValid() {
		a.fail(field)
	}
	return addr
}

// JoinArgs is the inverse of ParseArgs for building payloads.
// Example payload: contract.JoinArgs(7, sdk.User("bob"), 250)
func JoinArgs(fields ...any) string {
	out := make([]string, len(fields))
	for i, f := range fields {
		switch v := f.(type) {
		case string:
			out[i] = v
		case sdk.Address:
			out[i] = v.String()
		case uint64:
			out[i] = strconv.FormatUint(v, 10)
		case uint32:
			out[i] = strconv.FormatUint(uint64(v), 10)
		case int64:
			out[i] = strconv.FormatInt(v, 10)
		case int:
			out[i] = strconv.Itoa(v)
		case bool:
			out[i] = strconv.FormatBool(v)
		default:
			panic("JoinArgs: unsupported field type")
		}
	}
	return strings.Join(out, "|")
}
