package quest

import (
	"puzzlechain/contract"
	"puzzlechain/contract/kernel/leaderboard"
	"puzzlechain/sdk"
)

const (
	kChain byte = contract.FirstProgramTag + iota
	kProgress
	kXP
	kBoard
)

func chainKey(id uint64) contract.Key[Chain] {
	return contract.KeyID[Chain](kChain, id)
}

func progressKey(chain uint64, player sdk.Address) contract.Key[Progress] {
	return contract.KeyIDAddr[Progress](kProgress, chain, player)
}

func xpKey(player sdk.Address) contract.Key[int64] {
	return contract.KeyAddr[int64](kXP, player)
}

var boardKey = contract.Singleton[leaderboard.Board](kBoard)

func playerIndex(player sdk.Address) string {
	return contract.IndexKey("player", player.String())
}
