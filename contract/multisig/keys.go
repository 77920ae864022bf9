package multisig

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

const (
	kMember byte = contract.FirstProgramTag + iota
	kProposal
	kRoster
)

func memberKey(who sdk.Address) contract.Key[Member] {
	return contract.KeyAddr[Member](kMember, who)
}

func proposalKey(id uint64) contract.Key[Proposal] {
	return contract.KeyID[Proposal](kProposal, id)
}

// rosterKey lists active member addresses in join order.
var rosterKey = contract.Singleton[[]sdk.Address](kRoster)
