package lottery

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

const (
	kRound byte = contract.FirstProgramTag + iota
	kTickets
	kEntrants
	kPrize
	kRefunded
)

func roundKey(id uint64) contract.Key[Round] {
	return contract.KeyID[Round](kRound, id)
}

func ticketsKey(round uint64, who sdk.Address) contract.Key[int64] {
	return contract.KeyIDAddr[int64](kTickets, round, who)
}

// entrantsKey keeps players in the order of their first purchase.
func entrantsKey(round uint64) contract.Key[[]sdk.Address] {
	return contract.KeyID[[]sdk.Address](kEntrants, round)
}

func prizeKey(round uint64, who sdk.Address) contract.Key[int64] {
	return contract.KeyIDAddr[int64](kPrize, round, who)
}

func refundedKey(round uint64, who sdk.Address) contract.Key[bool] {
	return contract.KeyIDAddr[bool](kRefunded, round, who)
}
