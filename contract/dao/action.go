package dao

import (
	"strings"

	"puzzlechain/contract"
	"puzzlechain/sdk"
)

// Category decides which actions a proposal may carry and whether the
// execution delay applies.
type Category uint8

const (
	CategoryGeneral Category = iota + 1
	CategoryTreasury
	CategoryParameter
	CategoryEmergency
)

func (c Category) String() string {
	switch c {
	case CategoryGeneral:
		return "general"
	case CategoryTreasury:
		return "treasury"
	case CategoryParameter:
		return "parameter"
	case CategoryEmergency:
		return "emergency"
	}
	return "unknown"
}

func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "general":
		return CategoryGeneral, nil
	case "treasury":
		return CategoryTreasury, nil
	case "parameter":
		return CategoryParameter, nil
	case "emergency":
		return CategoryEmergency, nil
	}
	return 0, contract.Invalid("unknown category")
}

type ActionKind uint8

const (
	ActionSignal ActionKind = iota + 1
	ActionTransfer
	ActionCall
	ActionSetQuorum
)

func (k ActionKind) String() string {
	switch k {
	case ActionSignal:
		return "signal"
	case ActionTransfer:
		return "transfer"
	case ActionCall:
		return "call"
	case ActionSetQuorum:
		return "set_quorum"
	}
	return "unknown"
}

// Action is what an executed proposal does. Only the fields of its kind are set.
type Action struct {
	Kind ActionKind `json:"kind"`

	Token  sdk.Address `json:"token,omitempty"`
	To     sdk.Address `json:"to,omitempty"`
	Amount int64       `json:"amount,omitempty"`

	Target sdk.Address `json:"target,omitempty"`
	Method string      `json:"method,omitempty"`
	Args   string      `json:"args,omitempty"`

	QuorumBps uint32 `json:"quorum,omitempty"`
}

func Signal() Action { return Action{Kind: ActionSignal} }

func Transfer(token, to sdk.Address, amount int64) Action {
	return Action{Kind: ActionTransfer, Token: token, To: to, Amount: amount}
}

func Call(target sdk.Address, method, args string) Action {
	return Action{Kind: ActionCall, Target: target, Method: method, Args: args}
}

func SetQuorum(bps uint32) Action {
	return Action{Kind: ActionSetQuorum, QuorumBps: bps}
}

func (a Action) validate(cat Category) error {
	var chk contract.Checks
	switch a.Kind {
	case ActionSignal:
		chk.Require(cat == CategoryGeneral, "signal proposals are general")
	case ActionTransfer:
		chk.Address(a.Token, "token")
		chk.Address(a.To, "recipient")
		chk.Positive(a.Amount, "amount")
		chk.Require(cat == CategoryTreasury || cat == CategoryEmergency, "transfers need the treasury category")
	case ActionCall:
		chk.Address(a.Target, "target")
		chk.Require(a.Method != "", "method required")
		chk.Require(cat == CategoryGeneral || cat == CategoryEmergency, "calls need the general category")
	case ActionSetQuorum:
		chk.Bps(a.QuorumBps, "quorum")
		chk.Require(a.QuorumBps > 0, "quorum must be positive")
		chk.Require(cat == CategoryParameter, "quorum changes need the parameter category")
	default:
		chk.Require(false, "unknown action")
	}
	return chk.Err()
}

func (a Action) run(ctx *contract.Context) error {
	switch a.Kind {
	case ActionSignal:
		return nil
	case ActionTransfer:
		return contract.TreasuryPay(ctx, a.Token, a.To, a.Amount)
	case ActionCall:
		_, err := contract.CallExport(ctx, a.Target, a.Method, a.Args)
		return err
	case ActionSetQuorum:
		cfg, err := contract.Config[Config](ctx)
		if err != nil {
			return err
		}
		cfg.QuorumBps = a.QuorumBps
		return contract.ReplaceConfig(ctx, cfg)
	}
	return contract.Invalid("unknown action")
}
