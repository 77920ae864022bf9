package flashloan

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

const (
	kPool byte = contract.FirstProgramTag + iota
	kLP
	kLoan
	kStats
)

func poolKey(token sdk.Address) contract.Key[Pool] {
	return contract.KeyAddr[Pool](kPool, token)
}

func lpKey(token, lender sdk.Address) contract.Key[int64] {
	return contract.KeyStr[int64](kLP, token.String(), lender.String())
}

func loanKey(id uint64) contract.Key[Loan] {
	return contract.KeyID[Loan](kLoan, id)
}

var statsKey = contract.Singleton[Stats](kStats)

func borrowerIndex(who sdk.Address) string {
	return contract.IndexKey("borrower", who.String())
}
