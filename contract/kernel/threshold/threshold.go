// Package threshold is the proposal state machine shared by the multisig
// treasury (signature counting with roles) and the DAO (weighted tallies).
package threshold

import (
	"strings"

	"puzzlechain/contract"
	"puzzlechain/sdk"
)

// Status captures a proposal's lifecycle.
type Status uint8

const (
	StatusPending Status = iota + 1
	StatusActive
	StatusApproved
	StatusExecuted
	StatusRejected
	StatusDefeated
	StatusCanceled
	StatusExpired
)

// String prints the status as lower-case text for events and logs.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusApproved:
		return "approved"
	case StatusExecuted:
		return "executed"
	case StatusRejected:
		return "rejected"
	case StatusDefeated:
		return "defeated"
	case StatusCanceled:
		return "canceled"
	case StatusExpired:
		return "expired"
	default:
		return "unspecified"
	}
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	switch s {
	case StatusExecuted, StatusRejected, StatusDefeated, StatusCanceled, StatusExpired:
		return true
	}
	return false
}

// Role is ordered: Signer < Admin < Owner.
type Role uint8

const (
	RoleNone Role = iota
	RoleSigner
	RoleAdmin
	RoleOwner
)

func (r Role) String() string {
	switch r {
	case RoleSigner:
		return "signer"
	case RoleAdmin:
		return "admin"
	case RoleOwner:
		return "owner"
	default:
		return "none"
	}
}

// ParseRole accepts the String form.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "signer":
		return RoleSigner, nil
	case "admin":
		return RoleAdmin, nil
	case "owner":
		return RoleOwner, nil
	}
	return RoleNone, contract.Invalid("unknown role")
}

// Ballot is the signature-counting half: Pending -> Approved -> Executed, or
// Rejected / Expired.
type Ballot struct {
	Proposer     sdk.Address   `json:"proposer"`
	Status       Status        `json:"status"`
	RequiredRole Role          `json:"role"`
	Threshold    uint32        `json:"threshold"`
	Signers      []sdk.Address `json:"signers"`
	CreatedAt    uint64        `json:"created"`
	ExpiresAt    uint64        `json:"expires"`
	ExecutedAt   uint64        `json:"executed,omitempty"`
}

// NewBallot opens a pending ballot.
func NewBallot(proposer sdk.Address, required Role, threshold uint32, now, ttl uint64) (Ballot, error) {
	if threshold == 0 {
		return Ballot{}, contract.Invalid("threshold must be positive")
	}
	if ttl == 0 {
		return Ballot{}, contract.Invalid("ttl must be positive")
	}
	if required == RoleNone {
		required = RoleSigner
	}
	return Ballot{
		Proposer:     proposer,
		Status:       StatusPending,
		RequiredRole: required,
		Threshold:    threshold,
		CreatedAt:    now,
		ExpiresAt:    now + ttl,
	}, nil
}

// HasSigned reports whether who already signed.
func (b *Ballot) HasSigned(who sdk.Address) bool {
	for _, s := range b.Signers {
		if s == who {
			return true
		}
	}
	return false
}

// Sign admits one signature. Reaching the threshold flips the ballot to Approved.
func (b *Ballot) Sign(who sdk.Address, role Role, now uint64) error {
	if b.Status != StatusPending {
		return contract.Illegal("proposal not pending")
	}
	if now > b.ExpiresAt {
		return contract.Fail(contract.KindExpired, "proposal expired")
	}
	if role < b.RequiredRole {
		return contract.Unauthorized("role too low")
	}
	if b.HasSigned(who) {
		return contract.Illegal("already signed")
	}
	b.Signers = append(b.Signers, who)
	if uint32(len(b.Signers)) >= b.Threshold {
		b.Status = StatusApproved
	}
	return nil
}

// Reject is only open to the proposer while the ballot is pending.
func (b *Ballot) Reject(who sdk.Address) error {
	if b.Status != StatusPending {
		return contract.Illegal("proposal not pending")
	}
	if who != b.Proposer {
		return contract.Unauthorized("only proposer may reject")
	}
	b.Status = StatusRejected
	return nil
}

// Execute marks an approved ballot executed.
func (b *Ballot) Execute(now uint64) error {
	if b.Status != StatusApproved {
		return contract.Illegal("proposal not approved")
	}
	b.Status = StatusExecuted
	b.ExecutedAt = now
	return nil
}

// Expire is the sweep transition for a pending ballot past its deadline.
func (b *Ballot) Expire(now uint64) error {
	if b.Status != StatusPending {
		return contract.Illegal("proposal not pending")
	}
	if now <= b.ExpiresAt {
		return contract.Illegal("proposal not expired")
	}
	b.Status = StatusExpired
	return nil
}

// Choice is a DAO vote.
type Choice uint8

const (
	ChoiceFor Choice = iota + 1
	ChoiceAgainst
	ChoiceAbstain
)

func (c Choice) String() string {
	switch c {
	case ChoiceFor:
		return "for"
	case ChoiceAgainst:
		return "against"
	case ChoiceAbstain:
		return "abstain"
	default:
		return "none"
	}
}

// ParseChoice accepts for/against/abstain.
func ParseChoice(s string) (Choice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "for", "yes", "1":
		return ChoiceFor, nil
	case "against", "no", "0":
		return ChoiceAgainst, nil
	case "abstain", "2":
		return ChoiceAbstain, nil
	}
	return 0, contract.Invalid("unknown vote choice")
}

// Tally is the weighted half used by the DAO.
type Tally struct {
	For     int64 `json:"for"`
	Against int64 `json:"against"`
	Abstain int64 `json:"abstain"`
}

// Add counts weight for a choice.
func (t *Tally) Add(c Choice, weight int64) error {
	if weight <= 0 {
		return contract.Invalid("vote weight must be positive")
	}
	var slot *int64
	switch c {
	case ChoiceFor:
		slot = &t.For
	case ChoiceAgainst:
		slot = &t.Against
	case ChoiceAbstain:
		slot = &t.Abstain
	default:
		return contract.Invalid("unknown vote choice")
	}
	next, err := contract.AddAmount(*slot, weight)
	if err != nil {
		return err
	}
	*slot = next
	return nil
}

// Total is every counted weight, abstentions included.
func (t Tally) Total() int64 {
	return t.For + t.Against + t.Abstain
}

// Passes requires a strict majority of for over against and a turnout at or
// above quorum. Ties defeat.
func (t Tally) Passes(quorum int64) bool {
	return t.For > t.Against && t.Total() >= quorum
}
