package contract

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"puzzlechain/sdk"
)

// Writer builds the deterministic byte strings that get hashed (rng seeds,
// bridge message ids, claim evidence) or shipped to relayers.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter spins up a fresh writer so we dont leak old bytes between encodes.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Sum hashes the accumulated bytes with the host oracle.
func (w *Writer) Sum() [32]byte { return sdk.Sha256(w.buf.Bytes()) }

// Bool squashes bools into a single byte flag.
func (w *Writer) Bool(v bool) *Writer {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
	return w
}

// Uint64 writes big endian numbers so tooling can read them without guessing.
func (w *Writer) Uint64(v uint64) *Writer {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
	return w
}

// Uint32 is the 4 byte variant used for token ids.
func (w *Writer) Uint32(v uint32) *Writer {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
	return w
}

// Int64 reuses the uint routine since casting keeps the sign bits intact.
func (w *Writer) Int64(v int64) *Writer {
	return w.Uint64(uint64(v))
}

// VarUint uses varints to keep counts and lens compact.
func (w *Writer) VarUint(v uint64) *Writer {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.buf.Write(tmp[:n])
	return w
}

// String prefixes its length then dumps UTF-8 directly.
func (w *Writer) String(s string) *Writer {
	w.VarUint(uint64(len(s)))
	w.buf.WriteString(s)
	return w
}

// Address is written as its literal form.
func (w *Writer) Address(a sdk.Address) *Writer {
	return w.String(a.String())
}

// Raw appends bytes as they are, length prefixed.
func (w *Writer) Raw(b []byte) *Writer {
	w.VarUint(uint64(len(b)))
	w.buf.Write(b)
	return w
}

// Reader walks a Writer produced buffer.
type Reader struct {
	data []byte
	pos  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

var errShortBuffer = errors.New("buffer too short")

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, errShortBuffer
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) Bool() (bool, error) {
	b, err := r.take(1)
	if err != nil {
		return false, errors.Wrap(err, "read bool")
	}
	return b[0] == 1, nil
}

func (r *Reader) Uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, errors.Wrap(err, "read uint64")
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, errors.Wrap(err, "read uint32")
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err
}

func (r *Reader) VarUint() (uint64, error) {
	v, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, errors.Wrap(errShortBuffer, "read varuint")
	}
	r.pos += n
	return v, nil
}

func (r *Reader) String() (string, error) {
	n, err := r.VarUint()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", errors.Wrap(err, "read string")
	}
	return string(b), nil
}

func (r *Reader) Address() (sdk.Address, error) {
	s, err := r.String()
	return sdk.Address(s), err
}

func (r *Reader) Raw() ([]byte, error) {
	n, err := r.VarUint()
	if err != nil {
		return nil, err
	}
	b, err := r.take(int(n))
	if err != nil {
		return nil, errors.Wrap(err, "read bytes")
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// Done reports whether every byte was consumed.
func (r *Reader) Done() bool {
	return r.pos == len(r.data)
}
