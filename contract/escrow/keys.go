package escrow

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

const (
	kAgreement byte = contract.FirstProgramTag + iota
)

func agreementKey(id uint64) contract.Key[Agreement] {
	return contract.KeyID[Agreement](kAgreement, id)
}

func partyIndex(who sdk.Address) string {
	return contract.IndexKey("party", who.String())
}
