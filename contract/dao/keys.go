package dao

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

const (
	kMember byte = contract.FirstProgramTag + iota
	kStaking
	kProposal
	kReceipt
	kPowerPoint
)

func memberKey(who sdk.Address) contract.Key[Member] {
	return contract.KeyAddr[Member](kMember, who)
}

// stakingKey holds the reward pool whose shares are the staked balances.
var stakingKey = contract.Singleton[Staking](kStaking)

func proposalKey(id uint64) contract.Key[Proposal] {
	return contract.KeyID[Proposal](kProposal, id)
}

func receiptKey(id uint64, voter sdk.Address) contract.Key[Receipt] {
	return contract.KeyIDAddr[Receipt](kReceipt, id, voter)
}

// powerPointKey is the n-th voting power change of who.
func powerPointKey(who sdk.Address, n uint64) contract.Key[PowerPoint] {
	return contract.KeyIDAddr[PowerPoint](kPowerPoint, n, who)
}

func proposerIndex(who sdk.Address) string {
	return contract.IndexKey("proposer", who.String())
}
