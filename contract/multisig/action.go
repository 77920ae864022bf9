package multisig

import (
	"puzzlechain/contract"
	"puzzlechain/contract/kernel/threshold"
	"puzzlechain/sdk"
)

// ActionKind tags the payload a proposal executes.
type ActionKind uint8

const (
	ActionTokenTransfer ActionKind = iota + 1
	ActionContractCall
	ActionAddMember
	ActionRemoveMember
	ActionChangeRole
	ActionChangeThreshold
)

func (k ActionKind) String() string {
	switch k {
	case ActionTokenTransfer:
		return "transfer"
	case ActionContractCall:
		return "call"
	case ActionAddMember:
		return "add_member"
	case ActionRemoveMember:
		return "remove_member"
	case ActionChangeRole:
		return "change_role"
	case ActionChangeThreshold:
		return "change_threshold"
	default:
		return "unknown"
	}
}

// Action is the tagged payload of a proposal. Only the fields of its kind are set.
type Action struct {
	Kind ActionKind `json:"kind"`

	Token  sdk.Address `json:"token,omitempty"`
	To     sdk.Address `json:"to,omitempty"`
	Amount int64       `json:"amount,omitempty"`

	Target sdk.Address `json:"target,omitempty"`
	Method string      `json:"method,omitempty"`
	Args   string      `json:"args,omitempty"`

	Member sdk.Address    `json:"member,omitempty"`
	Role   threshold.Role `json:"role,omitempty"`

	Threshold uint32 `json:"threshold,omitempty"`
}

func Transfer(token, to sdk.Address, amount int64) Action {
	return Action{Kind: ActionTokenTransfer, Token: token, To: to, Amount: amount}
}

func Call(target sdk.Address, method, args string) Action {
	return Action{Kind: ActionContractCall, Target: target, Method: method, Args: args}
}

func AddMember(who sdk.Address, role threshold.Role) Action {
	return Action{Kind: ActionAddMember, Member: who, Role: role}
}

func RemoveMember(who sdk.Address) Action {
	return Action{Kind: ActionRemoveMember, Member: who}
}

func ChangeRole(who sdk.Address, role threshold.Role) Action {
	return Action{Kind: ActionChangeRole, Member: who, Role: role}
}

func ChangeThreshold(n uint32) Action {
	return Action{Kind: ActionChangeThreshold, Threshold: n}
}

func (a Action) validate() error {
	var chk contract.Checks
	switch a.Kind {
	case ActionTokenTransfer:
		chk.Address(a.Token, "token")
		chk.Address(a.To, "recipient")
		chk.Positive(a.Amount, "amount")
	case ActionContractCall:
		chk.Address(a.Target, "target")
		chk.Require(a.Method != "", "method required")
	case ActionAddMember, ActionChangeRole:
		chk.Address(a.Member, "member")
		chk.Require(a.Role != threshold.RoleNone, "role required")
	case ActionRemoveMember:
		chk.Address(a.Member, "member")
	case ActionChangeThreshold:
		chk.Require(a.Threshold > 0, "threshold must be positive")
	default:
		chk.Require(false, "unknown action")
	}
	return chk.Err()
}

// run executes the action as the treasury.
func (a Action) run(ctx *contract.Context) error {
	switch a.Kind {
	case ActionTokenTransfer:
		return contract.TreasuryPay(ctx, a.Token, a.To, a.Amount)
	case ActionContractCall:
		_, err := contract.CallExport(ctx, a.Target, a.Method, a.Args)
		return err
	case ActionAddMember:
		return addMember(ctx, a.Member, a.Role)
	case ActionRemoveMember:
		return removeMember(ctx, a.Member)
	case ActionChangeRole:
		return changeRole(ctx, a.Member, a.Role)
	case ActionChangeThreshold:
		return setThreshold(ctx, a.Threshold)
	}
	return contract.Invalid("unknown action")
}
