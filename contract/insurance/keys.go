package insurance

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

const (
	kPolicy byte = contract.FirstProgramTag + iota
	kClaim
	kPool
	kUnderwriter
	kEvidence
	kHolder
)

const assessorList = "assessor"

func policyKey(id uint64) contract.Key[Policy] {
	return contract.KeyID[Policy](kPolicy, id)
}

func claimKey(id uint64) contract.Key[Claim] {
	return contract.KeyID[Claim](kClaim, id)
}

var poolKey = contract.Singleton[Pool](kPool)

func underwriterKey(who sdk.Address) contract.Key[Underwriter] {
	return contract.KeyAddr[Underwriter](kUnderwriter, who)
}

// evidenceKey maps an evidence hash to the claim that used it first.
func evidenceKey(hash string) contract.Key[uint64] {
	return contract.KeyStr[uint64](kEvidence, hash)
}

func holderKey(who sdk.Address) contract.Key[HolderRecord] {
	return contract.KeyAddr[HolderRecord](kHolder, who)
}

func holderIndex(who sdk.Address) string {
	return contract.IndexKey("holder", who.String())
}
