// Package escrow holds funds between a depositor and a beneficiary, with an
// arbiter settling disputes.
package escrow

import (
	"puzzlechain/contract"
	"puzzlechain/contract/kernel/payout"
	"puzzlechain/sdk"
)

type Status uint8

const (
	StatusCreated Status = iota + 1
	StatusActive
	StatusDisputed
	StatusReleased
	StatusRefunded
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusActive:
		return "active"
	case StatusDisputed:
		return "disputed"
	case StatusReleased:
		return "released"
	case StatusRefunded:
		return "refunded"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

type Config struct {
	MaxArbiterFeeBps uint32 `json:"max_arbiter_fee_bps"`
}

type Agreement struct {
	ID            uint64      `json:"id"`
	Depositor     sdk.Address `json:"depositor"`
	Beneficiary   sdk.Address `json:"beneficiary"`
	Arbiter       sdk.Address `json:"arbiter"`
	Token         sdk.Address `json:"token"`
	Amount        int64       `json:"amount"`
	Deadline      uint64      `json:"deadline"`
	ArbiterFeeBps uint32      `json:"fee_bps"`
	Status        Status      `json:"status"`
	DisputedBy    sdk.Address `json:"disputed_by,omitempty"`
	ReleaseBps    uint32      `json:"release_bps,omitempty"`
	CreatedAt     uint64      `json:"created"`
	SettledAt     uint64      `json:"settled,omitempty"`
}

type Escrow struct{}

func New() *Escrow { return &Escrow{} }

func (Escrow) Init(ctx *contract.Context, admin sdk.Address, cfg Config) error {
	if cfg.MaxArbiterFeeBps == 0 {
		cfg.MaxArbiterFeeBps = 1000
	}
	if err := contract.CheckBps(cfg.MaxArbiterFeeBps, "max arbiter fee"); err != nil {
		return err
	}
	return contract.Initialize(ctx, admin, cfg)
}

func (Escrow) Agreement(ctx *contract.Context, id uint64) (Agreement, error) {
	return contract.MustLoad(ctx, agreementKey(id), "agreement")
}

// AgreementsOf lists every agreement who takes part in.
func (Escrow) AgreementsOf(ctx *contract.Context, who sdk.Address) []uint64 {
	return contract.IndexIDs(ctx, partyIndex(who))
}

// Create records an unfunded agreement.
// Example payload: "user:bob|user:judge|contract:token|500|5000|200"
func (Escrow) Create(ctx *contract.Context, depositor, beneficiary, arbiter, token sdk.Address, amount int64, deadline uint64, arbiterFeeBps uint32) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(depositor); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	var chk contract.Checks
	chk.Address(beneficiary, "beneficiary")
	chk.Address(arbiter, "arbiter")
	chk.Address(token, "token")
	chk.Positive(amount, "amount")
	chk.Require(deadline > ctx.Timestamp(), "deadline must be in the future")
	chk.Require(arbiterFeeBps <= cfg.MaxArbiterFeeBps, "arbiter fee above maximum")
	chk.Require(beneficiary != depositor, "beneficiary is the depositor")
	chk.Require(arbiter != depositor && arbiter != beneficiary, "arbiter must be independent")
	if err := chk.Err(); err != nil {
		return 0, err
	}
	a := Agreement{
		ID:            contract.NextID(ctx, "agreement"),
		Depositor:     depositor,
		Beneficiary:   beneficiary,
		Arbiter:       arbiter,
		Token:         token,
		Amount:        amount,
		Deadline:      deadline,
		ArbiterFeeBps: arbiterFeeBps,
		Status:        StatusCreated,
		CreatedAt:     ctx.Timestamp(),
	}
	contract.Store(ctx, agreementKey(a.ID), a)
	for _, p := range []sdk.Address{depositor, beneficiary, arbiter} {
		contract.AddToIndex(ctx, partyIndex(p), a.ID)
	}
	emitStatusEvent(ctx, a)
	return a.ID, nil
}

type party func(Agreement) sdk.Address

func byDepositor(a Agreement) sdk.Address   { return a.Depositor }
func byBeneficiary(a Agreement) sdk.Address { return a.Beneficiary }
func byArbiter(a Agreement) sdk.Address     { return a.Arbiter }

// load fetches an agreement in status want with caller authenticated as
// the given party; a nil party admits anyone.
func load(ctx *contract.Context, id uint64, want Status, caller sdk.Address, who party) (Agreement, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return Agreement{}, err
	}
	a, err := contract.MustLoad(ctx, agreementKey(id), "agreement")
	if err != nil {
		return a, err
	}
	if who != nil && caller != who(a) {
		return a, contract.Unauthorized("not a party to this step")
	}
	if err := ctx.RequireAuth(caller); err != nil {
		return a, err
	}
	if a.Status != want {
		return a, contract.Failf(contract.KindIllegalState, "agreement is %s", a.Status)
	}
	return a, nil
}

func finish(ctx *contract.Context, a Agreement, st Status) {
	a.Status = st
	a.SettledAt = ctx.Timestamp()
	contract.Store(ctx, agreementKey(a.ID), a)
	emitStatusEvent(ctx, a)
}

// Fund pulls the amount from the depositor and activates the agreement.
func (Escrow) Fund(ctx *contract.Context, depositor sdk.Address, id uint64) error {
	a, err := load(ctx, id, StatusCreated, depositor, byDepositor)
	if err != nil {
		return err
	}
	if ctx.Timestamp() > a.Deadline {
		return contract.Fail(contract.KindExpired, "deadline passed")
	}
	if err := contract.TokenAt(ctx, a.Token).Pull(depositor, a.Amount); err != nil {
		return err
	}
	a.Status = StatusActive
	contract.Store(ctx, agreementKey(id), a)
	emitStatusEvent(ctx, a)
	return nil
}

func (Escrow) Cancel(ctx *contract.Context, depositor sdk.Address, id uint64) error {
	a, err := load(ctx, id, StatusCreated, depositor, byDepositor)
	if err != nil {
		return err
	}
	finish(ctx, a, StatusCancelled)
	return nil
}

// Release is the depositor paying the beneficiary in full.
func (Escrow) Release(ctx *contract.Context, depositor sdk.Address, id uint64) error {
	a, err := load(ctx, id, StatusActive, depositor, byDepositor)
	if err != nil {
		return err
	}
	if err := contract.TokenAt(ctx, a.Token).Pay(a.Beneficiary, a.Amount); err != nil {
		return err
	}
	a.ReleaseBps = contract.BpsDenominator
	finish(ctx, a, StatusReleased)
	return nil
}

// Refund is the beneficiary giving the funds back.
func (Escrow) Refund(ctx *contract.Context, beneficiary sdk.Address, id uint64) error {
	a, err := load(ctx, id, StatusActive, beneficiary, byBeneficiary)
	if err != nil {
		return err
	}
	if err := payout.Refund(contract.TokenAt(ctx, a.Token), a.Depositor, a.Amount); err != nil {
		return err
	}
	finish(ctx, a, StatusRefunded)
	return nil
}

// Dispute freezes an active agreement until the arbiter resolves it.
func (Escrow) Dispute(ctx *contract.Context, caller sdk.Address, id uint64) error {
	a, err := load(ctx, id, StatusActive, caller, nil)
	if err != nil {
		return err
	}
	if caller != a.Depositor && caller != a.Beneficiary {
		return contract.Unauthorized("not a party")
	}
	a.Status = StatusDisputed
	a.DisputedBy = caller
	contract.Store(ctx, agreementKey(id), a)
	emitStatusEvent(ctx, a)
	return nil
}

// Resolve pays the arbiter fee, then releaseBps of the rest to the
// beneficiary and the remainder back to the depositor.
func (Escrow) Resolve(ctx *contract.Context, arbiter sdk.Address, id uint64, releaseBps uint32) error {
	a, err := load(ctx, id, StatusDisputed, arbiter, byArbiter)
	if err != nil {
		return err
	}
	if err := contract.CheckBps(releaseBps, "release"); err != nil {
		return err
	}
	payments, err := resolution(a, releaseBps)
	if err != nil {
		return err
	}
	if err := payout.Pay(contract.TokenAt(ctx, a.Token), payments); err != nil {
		return err
	}
	a.ReleaseBps = releaseBps
	st := StatusReleased
	if releaseBps == 0 {
		st = StatusRefunded
	}
	finish(ctx, a, st)
	return nil
}

func resolution(a Agreement, releaseBps uint32) ([]payout.Payment, error) {
	fee, err := contract.Bps(a.Amount, a.ArbiterFeeBps)
	if err != nil {
		return nil, err
	}
	rest := a.Amount - fee
	toBeneficiary, err := contract.Bps(rest, releaseBps)
	if err != nil {
		return nil, err
	}
	var out []payout.Payment
	for _, p := range []payout.Payment{
		{To: a.Arbiter, Amount: fee},
		{To: a.Beneficiary, Amount: toBeneficiary},
		{To: a.Depositor, Amount: rest - toBeneficiary},
	} {
		if p.Amount > 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

// CheckTimeout refunds an active agreement past its deadline. Anyone may call it.
func (Escrow) CheckTimeout(ctx *contract.Context, id uint64) (bool, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return false, err
	}
	a, err := contract.MustLoad(ctx, agreementKey(id), "agreement")
	if err != nil {
		return false, err
	}
	if a.Status != StatusActive || ctx.Timestamp() <= a.Deadline {
		return false, nil
	}
	if err := payout.Refund(contract.TokenAt(ctx, a.Token), a.Depositor, a.Amount); err != nil {
		return false, err
	}
	finish(ctx, a, StatusRefunded)
	return true, nil
}

func emitStatusEvent(ctx *contract.Context, a Agreement) {
	ctx.Emit("es_status",
		sdk.U64("id", a.ID),
		sdk.Str("st", a.Status.String()),
		sdk.I64("a", a.Amount),
	)
}

func (e Escrow) Exports() contract.Exports {
	step := func(fn func(*contract.Context, sdk.Address, uint64) error) contract.Method {
		return func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "agreement id")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", fn(ctx, caller, id)
		}
	}
	return contract.AdminExports().Merge(contract.Exports{
		"create": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			beneficiary := args.Address(0, "beneficiary")
			arbiter := args.Address(1, "arbiter")
			token := args.Address(2, "token")
			amount := args.Amount(3, "amount")
			deadline := args.Uint(4, "deadline")
			fee := args.Uint32(5, "arbiter fee")
			if err := args.Err(); err != nil {
				return "", err
			}
			id, err := e.Create(ctx, caller, beneficiary, arbiter, token, amount, deadline, fee)
			return contract.JoinArgs(id), err
		},
		"fund":    step(e.Fund),
		"cancel":  step(e.Cancel),
		"release": step(e.Release),
		"refund":  step(e.Refund),
		"dispute": step(e.Dispute),
		"resolve": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "agreement id")
			bps := args.Uint32(1, "release bps")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", e.Resolve(ctx, caller, id, bps)
		},
		"check_timeout": func(ctx *contract.Context, _ sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "agreement id")
			if err := args.Err(); err != nil {
				return "", err
			}
			done, err := e.CheckTimeout(ctx, id)
			return contract.JoinArgs(done), err
		},
	})
}
