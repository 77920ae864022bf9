package sdk

import "github.com/minio/sha256-simd"

// Ledger is the host's view of the chain position a transaction runs at.
type Ledger struct {
	Timestamp uint64 `json:"timestamp" yaml:"timestamp"`
	Sequence  uint64 `json:"sequence" yaml:"sequence"`
}

// Sha256 is the deterministic hash oracle exposed to programs.
func Sha256(b []byte) [32]byte {
	return sha256.Sum256(b)
}
