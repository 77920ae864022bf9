package farming

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

const (
	kFarm byte = contract.FirstProgramTag + iota
	kPool
	kPosition
)

// farmKey holds the totals shared by every pool.
var farmKey = contract.Singleton[Farm](kFarm)

func poolKey(id uint64) contract.Key[Pool] {
	return contract.KeyID[Pool](kPool, id)
}

func positionKey(pool uint64, who sdk.Address) contract.Key[Position] {
	return contract.KeyIDAddr[Position](kPosition, pool, who)
}
