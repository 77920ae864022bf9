package fractional

import (
	"puzzlechain/contract"
	"puzzlechain/contract/kernel/shares"
	"puzzlechain/sdk"
)

const (
	kVault byte = contract.FirstProgramTag + iota
	kHolder
	kBuyout
)

func vaultKey(id uint64) contract.Key[Vault] {
	return contract.KeyID[Vault](kVault, id)
}

func holderKey(vault uint64, who sdk.Address) contract.Key[shares.Holder] {
	return contract.KeyIDAddr[shares.Holder](kHolder, vault, who)
}

func buyoutKey(id uint64) contract.Key[Buyout] {
	return contract.KeyID[Buyout](kBuyout, id)
}

func curatorIndex(who sdk.Address) string {
	return contract.IndexKey("curator", who.String())
}
