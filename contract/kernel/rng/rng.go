// Package rng is the deterministic per-round generator behind lottery draws.
// It is reproducible from the ledger position and is not meant to resist a
// validator choosing that position.
package rng

import (
	"encoding/binary"

	"puzzlechain/contract"
	"puzzlechain/sdk"
)

// NonceStep is how far the nonce jumps when a draw hits an index already used.
const NonceStep = 1_000_000

// Source is the ledger position a round is drawn at.
type Source struct {
	Round     uint64
	Sequence  uint64
	Timestamp uint64
}

// Next returns the first 8 bytes of sha256(round || sequence || timestamp+nonce)
// as a big endian uint64.
func (s Source) Next(nonce uint64) uint64 {
	sum := contract.NewWriter().
		Uint64(s.Round).
		Uint64(s.Sequence).
		Uint64(s.Timestamp + nonce).
		Sum()
	return binary.BigEndian.Uint64(sum[:8])
}

// Entrant is a principal holding Count tickets.
type Entrant struct {
	Who   sdk.Address `json:"who"`
	Count int64       `json:"count"`
}

// Total sums the ticket counts.
func Total(entrants []Entrant) (int64, error) {
	var total int64
	for _, e := range entrants {
		if e.Count < 0 {
			return 0, contract.Invalid("negative ticket count")
		}
		var err error
		if total, err = contract.AddAmount(total, e.Count); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// Draw picks k distinct ticket indices out of the virtual array built by
// expanding entrants in order, and maps each back to its holder.
func (s Source) Draw(entrants []Entrant, k int) ([]sdk.Address, error) {
	total, err := Total(entrants)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, contract.Illegal("no tickets")
	}
	if k <= 0 || int64(k) > total {
		return nil, contract.Invalid("winner count out of range")
	}
	used := make(map[uint64]bool, k)
	winners := make([]sdk.Address, 0, k)
	for n := 0; n < k; n++ {
		nonce := uint64(n)
		idx := s.Next(nonce) % uint64(total)
		for used[idx] {
			nonce += NonceStep
			idx = s.Next(nonce) % uint64(total)
		}
		used[idx] = true
		winners = append(winners, holderAt(entrants, idx))
	}
	return winners, nil
}

// holderAt walks the cumulative counts to the owner of ticket idx.
func holderAt(entrants []Entrant, idx uint64) sdk.Address {
	var acc uint64
	for _, e := range entrants {
		acc += uint64(e.Count)
		if idx < acc {
			return e.Who
		}
	}
	return ""
}
