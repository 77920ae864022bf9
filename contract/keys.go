package contract

import "puzzlechain/sdk"

// Tags 0x00-0x0f are reserved for engine bookkeeping; programs start at 0x10.
const (
	kAdmin    byte = 0x00
	kPaused   byte = 0x01
	kGuard    byte = 0x02
	kCounter  byte = 0x03
	kIndex    byte = 0x04
	kTreasury byte = 0x05
	kAllow    byte = 0x06
	kConfig   byte = 0x07

	// FirstProgramTag is the lowest tag a program may use for its own keys.
	FirstProgramTag byte = 0x10
)

// Key addresses one typed value inside the calling program's namespace. The
// type parameter pins the value type to the key, so a tag can never be read
// back as something else.
type Key[T any] struct {
	raw string
}

// String exposes the encoded key, mostly for debugging.
func (k Key[T]) String() string { return k.raw }

// packU64LE appends the encoded number to dst and returns the new slice.
func packU64LE(x uint64, dst []byte) []byte {
	return append(dst,
		byte(x),
		byte(x>>8),
		byte(x>>16),
		byte(x>>24),
		byte(x>>32),
		byte(x>>40),
		byte(x>>48),
		byte(x>>56),
	)
}

// Singleton is a key with no body, e.g. a program's config.
func Singleton[T any](tag byte) Key[T] {
	return Key[T]{raw: string([]byte{tag})}
}

// KeyID is tag plus a little endian id.
// Example payload: contract.KeyID[Listing](kListing, 7)
func KeyID[T any](tag byte, id uint64) Key[T] {
	buf := make([]byte, 0, 9)
	buf = append(buf, tag)
	buf = packU64LE(id, buf)
	return Key[T]{raw: string(buf)}
}

// KeyIDID packs two ids, used for child records like (round, ticket slot).
func KeyIDID[T any](tag byte, a, b uint64) Key[T] {
	buf := make([]byte, 0, 17)
	buf = append(buf, tag)
	buf = packU64LE(a, buf)
	buf = packU64LE(b, buf)
	return Key[T]{raw: string(buf)}
}

// KeyAddr mixes the address bytes in after the tag.
func KeyAddr[T any](tag byte, addr sdk.Address) Key[T] {
	s := addr.String()
	buf := make([]byte, 0, 1+len(s))
	buf = append(buf, tag)
	buf = append(buf, s...)
	return Key[T]{raw: string(buf)}
}

// KeyIDAddr mixes entity id plus address bytes to avoid nested maps in host storage.
func KeyIDAddr[T any](tag byte, id uint64, addr sdk.Address) Key[T] {
	s := addr.String()
	buf := make([]byte, 0, 1+8+len(s))
	buf = append(buf, tag)
	buf = packU64LE(id, buf)
	buf = append(buf, s...)
	return Key[T]{raw: string(buf)}
}

// KeyIDIDAddr is used for triples such as (market, outcome, bettor).
func KeyIDIDAddr[T any](tag byte, a, b uint64, addr sdk.Address) Key[T] {
	s := addr.String()
	buf := make([]byte, 0, 1+16+len(s))
	buf = append(buf, tag)
	buf = packU64LE(a, buf)
	buf = packU64LE(b, buf)
	buf = append(buf, s...)
	return Key[T]{raw: string(buf)}
}

// KeyStr joins free-form parts with a zero byte.
func KeyStr[T any](tag byte, parts ...string) Key[T] {
	buf := []byte{tag}
	for i, p := range parts {
		if i > 0 {
			buf = append(buf, 0)
		}
		buf = append(buf, p...)
	}
	return Key[T]{raw: string(buf)}
}

// namespaced scopes a raw key under the program address.
func namespaced(self sdk.Address, raw string) string {
	s := self.String()
	buf := make([]byte, 0, len(s)+1+len(raw))
	buf = append(buf, s...)
	buf = append(buf, 0)
	buf = append(buf, raw...)
	return string(buf)
}
