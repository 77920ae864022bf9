package tipping

import (
	"puzzlechain/contract"
	"puzzlechain/contract/kernel/leaderboard"
	"puzzlechain/sdk"
)

const (
	kTip byte = contract.FirstProgramTag + iota
	kRecipient
	kSender
	kDaily
	kPair
	kBoard
)

func tipKey(id uint64) contract.Key[Tip] {
	return contract.KeyID[Tip](kTip, id)
}

func recipientKey(who sdk.Address) contract.Key[RecipientStats] {
	return contract.KeyAddr[RecipientStats](kRecipient, who)
}

func senderKey(who sdk.Address) contract.Key[SenderStats] {
	return contract.KeyAddr[SenderStats](kSender, who)
}

// dailyKey is what sender has tipped on a given day.
func dailyKey(sender sdk.Address, day uint64) contract.Key[int64] {
	return contract.KeyIDAddr[int64](kDaily, day, sender)
}

// pairKey is the time of the last tip from one sender to one recipient.
func pairKey(from, to sdk.Address) contract.Key[uint64] {
	return contract.KeyStr[uint64](kPair, from.String(), to.String())
}

var boardKey = contract.Singleton[leaderboard.Board](kBoard)

func receivedIndex(who sdk.Address) string {
	return contract.IndexKey("received", who.String())
}

func sentIndex(who sdk.Address) string {
	return contract.IndexKey("sent", who.String())
}
