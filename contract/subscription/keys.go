package subscription

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

const (
	kPlan byte = contract.FirstProgramTag + iota
	kSub
	kEarnings
)

func planKey(id uint64) contract.Key[Plan] {
	return contract.KeyID[Plan](kPlan, id)
}

func subKey(plan uint64, user sdk.Address) contract.Key[Subscription] {
	return contract.KeyIDAddr[Subscription](kSub, plan, user)
}

func earningsKey(creator, token sdk.Address) contract.Key[int64] {
	return contract.KeyStr[int64](kEarnings, creator.String(), token.String())
}

func creatorIndex(who sdk.Address) string {
	return contract.IndexKey("creator", who.String())
}

func userIndex(who sdk.Address) string {
	return contract.IndexKey("user", who.String())
}
