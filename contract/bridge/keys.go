package bridge

import (
	"strconv"

	"puzzlechain/contract"
)

const (
	kOutbound byte = contract.FirstProgramTag + iota
	kRelease
	kChain
	kProcessed
)

const relayerList = "relayer"

func outboundKey(nonce uint64) contract.Key[Outbound] {
	return contract.KeyID[Outbound](kOutbound, nonce)
}

func releaseKey(id uint64) contract.Key[Release] {
	return contract.KeyID[Release](kRelease, id)
}

func chainKey(chain string) contract.Key[bool] {
	return contract.KeyStr[bool](kChain, chain)
}

// processedKey maps a source chain nonce to the release request that consumed it.
func processedKey(chain string, nonce uint64) contract.Key[uint64] {
	return contract.KeyStr[uint64](kProcessed, chain, strconv.FormatUint(nonce, 10))
}
