package battlepass

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

const (
	kSeason byte = contract.FirstProgramTag + iota
	kPass
	kLevelClaim
)

func seasonKey(id uint64) contract.Key[Season] {
	return contract.KeyID[Season](kSeason, id)
}

func passKey(season uint64, who sdk.Address) contract.Key[Pass] {
	return contract.KeyIDAddr[Pass](kPass, season, who)
}

// levelClaimKey holds the tracks already claimed for one level.
func levelClaimKey(season, level uint64, who sdk.Address) contract.Key[uint8] {
	return contract.KeyIDIDAddr[uint8](kLevelClaim, season, level, who)
}
