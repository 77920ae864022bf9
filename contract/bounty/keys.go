package bounty

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

const (
	kBounty byte = contract.FirstProgramTag + iota
	kSubmission
	kSubmitters
)

func bountyKey(id uint64) contract.Key[Bounty] {
	return contract.KeyID[Bounty](kBounty, id)
}

func submissionKey(id uint64, solver sdk.Address) contract.Key[Submission] {
	return contract.KeyIDAddr[Submission](kSubmission, id, solver)
}

// submittersKey lists solvers in submission order.
func submittersKey(id uint64) contract.Key[[]sdk.Address] {
	return contract.KeyID[[]sdk.Address](kSubmitters, id)
}

func creatorIndex(who sdk.Address) string {
	return contract.IndexKey("creator", who.String())
}

func puzzleIndex(puzzleID uint32) string {
	return contract.IndexKey("puzzle", contract.JoinArgs(puzzleID))
}
