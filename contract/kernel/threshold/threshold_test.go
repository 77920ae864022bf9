package threshold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puzzlechain/contract"
	"puzzlechain/sdk"
)

var (
	owner   = sdk.User("owner")
	signer1 = sdk.User("signer1")
	signer2 = sdk.User("signer2")
)

func TestBallotTwoOfThree(t *testing.T) {
	b, err := NewBallot(owner, RoleSigner, 2, 100, 50)
	require.NoError(t, err)

	require.NoError(t, b.Sign(signer1, RoleSigner, 110))
	assert.Equal(t, StatusPending, b.Status)

	err = b.Sign(signer1, RoleSigner, 111)
	assert.ErrorIs(t, err, contract.ErrIllegalState)

	require.NoError(t, b.Sign(owner, RoleOwner, 112))
	assert.Equal(t, StatusApproved, b.Status)

	require.NoError(t, b.Execute(120))
	assert.Equal(t, StatusExecuted, b.Status)
	assert.ErrorIs(t, b.Reject(owner), contract.ErrIllegalState)
}

func TestBallotRoleAndExpiry(t *testing.T) {
	b, err := NewBallot(owner, RoleAdmin, 1, 100, 10)
	require.NoError(t, err)
	assert.ErrorIs(t, b.Sign(signer1, RoleSigner, 101), contract.ErrUnauthorized)
	assert.ErrorIs(t, b.Sign(owner, RoleOwner, 111), contract.ErrExpired)
	assert.ErrorIs(t, b.Expire(110), contract.ErrIllegalState)
	require.NoError(t, b.Expire(111))
	assert.True(t, b.Status.Terminal())
}

func TestOnlyProposerRejects(t *testing.T) {
	b, err := NewBallot(signer2, RoleSigner, 2, 0, 10)
	require.NoError(t, err)
	assert.ErrorIs(t, b.Reject(owner), contract.ErrUnauthorized)
	require.NoError(t, b.Reject(signer2))
	assert.Equal(t, StatusRejected, b.Status)
}

func TestRoleOrdering(t *testing.T) {
	assert.True(t, RoleSigner < RoleAdmin)
	assert.True(t, RoleAdmin < RoleOwner)
	r, err := ParseRole("Owner")
	require.NoError(t, err)
	assert.Equal(t, RoleOwner, r)
}

func TestTally(t *testing.T) {
	tests := []struct {
		name                   string
		forW, against, abstain int64
		quorum                 int64
		want                   bool
	}{
		{"majority with quorum", 60, 40, 0, 100, true},
		{"tie defeats", 50, 50, 10, 100, false},
		{"abstain counts for quorum", 30, 10, 60, 100, true},
		{"quorum short by one", 60, 39, 0, 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tl Tally
			if tt.forW > 0 {
				require.NoError(t, tl.Add(ChoiceFor, tt.forW))
			}
			if tt.against > 0 {
				require.NoError(t, tl.Add(ChoiceAgainst, tt.against))
			}
			if tt.abstain > 0 {
				require.NoError(t, tl.Add(ChoiceAbstain, tt.abstain))
			}
			assert.Equal(t, tt.want, tl.Passes(tt.quorum))
		})
	}
}
