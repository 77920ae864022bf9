package hints

import (
	"puzzlechain/contract"
	"puzzlechain/contract/kernel/leaderboard"
	"puzzlechain/sdk"
)

const (
	kHint byte = contract.FirstProgramTag + iota
	kPurchase
	kEarnings
	kBoard
)

func hintKey(id uint64) contract.Key[Hint] {
	return contract.KeyID[Hint](kHint, id)
}

// purchaseKey records what a buyer paid and whether they rated.
func purchaseKey(hint uint64, buyer sdk.Address) contract.Key[Purchase] {
	return contract.KeyIDAddr[Purchase](kPurchase, hint, buyer)
}

func earningsKey(creator sdk.Address) contract.Key[int64] {
	return contract.KeyAddr[int64](kEarnings, creator)
}

var boardKey = contract.Singleton[leaderboard.Board](kBoard)

func purchasesIndex(buyer sdk.Address) string {
	return contract.IndexKey("purchases", buyer.String())
}

func puzzleIndex(puzzleID uint32) string {
	return contract.IndexKey("puzzle", contract.JoinArgs(puzzleID))
}
