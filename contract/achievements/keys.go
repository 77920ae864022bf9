package achievements

import (
	"puzzlechain/contract"
	"puzzlechain/contract/kernel/leaderboard"
	"puzzlechain/sdk"
)

const (
	kSet byte = contract.FirstProgramTag + iota
	kEdition
	kClaimed
	kCompleted
	kBoard
)

func setKey(id uint64) contract.Key[Set] {
	return contract.KeyID[Set](kSet, id)
}

func editionKey(id uint64) contract.Key[Edition] {
	return contract.KeyID[Edition](kEdition, id)
}

func claimedKey(set uint64, who sdk.Address) contract.Key[uint64] {
	return contract.KeyIDAddr[uint64](kClaimed, set, who)
}

func completedKey(who sdk.Address) contract.Key[int64] {
	return contract.KeyAddr[int64](kCompleted, who)
}

var boardKey = contract.Singleton[leaderboard.Board](kBoard)

func editionsIndex(owner sdk.Address) string {
	return contract.IndexKey("editions", owner.String())
}
