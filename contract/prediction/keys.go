package prediction

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

const (
	kMarket byte = contract.FirstProgramTag + iota
	kStake
	kSettled
)

func marketKey(id uint64) contract.Key[Market] {
	return contract.KeyID[Market](kMarket, id)
}

func stakeKey(market uint64, outcome int, who sdk.Address) contract.Key[int64] {
	return contract.KeyIDIDAddr[int64](kStake, market, uint64(outcome), who)
}

// settledKey marks a bettor paid out or refunded.
func settledKey(market uint64, who sdk.Address) contract.Key[bool] {
	return contract.KeyIDAddr[bool](kSettled, market, who)
}

func bettorIndex(who sdk.Address) string {
	return contract.IndexKey("bettor", who.String())
}
