package vesting

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

const (
	kSchedule byte = contract.FirstProgramTag + iota
)

func scheduleKey(id uint64) contract.Key[Schedule] {
	return contract.KeyID[Schedule](kSchedule, id)
}

func beneficiaryIndex(who sdk.Address) string {
	return contract.IndexKey("beneficiary", who.String())
}
