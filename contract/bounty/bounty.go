// Package bounty escrows puzzle rewards and pays solvers by rank.
package bounty

import (
	"strconv"
	"strings"

	"puzzlechain/contract"
	"puzzlechain/contract/kernel/payout"
	"puzzlechain/sdk"
)

type Status uint8

const (
	StatusOpen Status = iota + 1
	StatusCompleted
	StatusCancelled
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	case StatusExpired:
		return "expired"
	}
	return "unknown"
}

type Config struct {
	MaxTiers    int    `json:"max_tiers"`
	AwardWindow uint64 `json:"award_window"`
}

type Bounty struct {
	ID          uint64        `json:"id"`
	Creator     sdk.Address   `json:"creator"`
	PuzzleID    uint32        `json:"puzzle"`
	Token       sdk.Address   `json:"token"`
	Reward      int64         `json:"reward"`
	Deadline    uint64        `json:"deadline"`
	TiersBps    []uint32      `json:"tiers"`
	Status      Status        `json:"status"`
	Submissions int           `json:"submissions"`
	Winners     []sdk.Address `json:"winners,omitempty"`
	CreatedAt   uint64        `json:"created"`
}

type Submission struct {
	Hash string `json:"hash"`
	At   uint64 `json:"at"`
}

type Bounties struct{}

func New() *Bounties { return &Bounties{} }

func (Bounties) Init(ctx *contract.Context, admin sdk.Address, cfg Config) error {
	if cfg.MaxTiers == 0 {
		cfg.MaxTiers = 10
	}
	if cfg.AwardWindow == 0 {
		cfg.AwardWindow = 7 * 24 * 3600
	}
	if cfg.MaxTiers < 1 {
		return contract.Invalid("max tiers must be positive")
	}
	return contract.Initialize(ctx, admin, cfg)
}

func (Bounties) Bounty(ctx *contract.Context, id uint64) (Bounty, error) {
	return contract.MustLoad(ctx, bountyKey(id), "bounty")
}

func (Bounties) Submission(ctx *contract.Context, id uint64, solver sdk.Address) (Submission, error) {
	return contract.MustLoad(ctx, submissionKey(id, solver), "submission")
}

func (Bounties) Submitters(ctx *contract.Context, id uint64) []sdk.Address {
	return contract.LoadOr(ctx, submittersKey(id), nil)
}

func (Bounties) BountiesBy(ctx *contract.Context, creator sdk.Address) []uint64 {
	return contract.IndexIDs(ctx, creatorIndex(creator))
}

func (Bounties) BountiesFor(ctx *contract.Context, puzzleID uint32) []uint64 {
	return contract.IndexIDs(ctx, puzzleIndex(puzzleID))
}

// Create escrows reward. Without tiers the single winner takes everything.
func (Bounties) Create(ctx *contract.Context, creator sdk.Address, puzzleID uint32, token sdk.Address, reward int64, deadline uint64, tiersBps []uint32) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(creator); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	if len(tiersBps) == 0 {
		tiersBps = []uint32{contract.BpsDenominator}
	}
	var chk contract.Checks
	chk.Address(token, "token")
	chk.Positive(reward, "reward")
	chk.Require(deadline > ctx.Timestamp(), "deadline must be in the future")
	chk.Require(len(tiersBps) <= cfg.MaxTiers, "too many tiers")
	var sum uint32
	for i, t := range tiersBps {
		chk.Require(t > 0, "empty tier")
		chk.Require(i == 0 || t <= tiersBps[i-1], "tiers must not increase")
		sum += t
	}
	chk.Require(sum == contract.BpsDenominator, "tiers must sum to 10000 bps")
	if err := chk.Err(); err != nil {
		return 0, err
	}
	if err := contract.TokenAt(ctx, token).Pull(creator, reward); err != nil {
		return 0, err
	}
	b := Bounty{
		ID:        contract.NextID(ctx, "bounty"),
		Creator:   creator,
		PuzzleID:  puzzleID,
		Token:     token,
		Reward:    reward,
		Deadline:  deadline,
		TiersBps:  tiersBps,
		Status:    StatusOpen,
		CreatedAt: ctx.Timestamp(),
	}
	contract.Store(ctx, bountyKey(b.ID), b)
	contract.AddToIndex(ctx, creatorIndex(creator), b.ID)
	contract.AddToIndex(ctx, puzzleIndex(puzzleID), b.ID)
	emitBountyEvent(ctx, b)
	return b.ID, nil
}

// Submit records one solution hash per solver before the deadline.
func (Bounties) Submit(ctx *contract.Context, solver sdk.Address, id uint64, solutionHash string) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(solver); err != nil {
		return err
	}
	b, err := contract.MustLoad(ctx, bountyKey(id), "bounty")
	if err != nil {
		return err
	}
	if b.Status != StatusOpen {
		return contract.Illegal("bounty not open")
	}
	if ctx.Timestamp() > b.Deadline {
		return contract.Fail(contract.KindExpired, "bounty deadline passed")
	}
	if solver == b.Creator {
		return contract.Invalid("creator cannot submit")
	}
	if strings.TrimSpace(solutionHash) == "" {
		return contract.Invalid("solution hash required")
	}
	if contract.Has(ctx, submissionKey(id, solver)) {
		return contract.Illegal("already submitted")
	}
	contract.Store(ctx, submissionKey(id, solver), Submission{Hash: solutionHash, At: ctx.Timestamp()})
	contract.Store(ctx, submittersKey(id), append(contract.LoadOr(ctx, submittersKey(id), nil), solver))
	b.Submissions++
	contract.Store(ctx, bountyKey(id), b)
	ctx.Emit("bt_submit", sdk.U64("id", id), sdk.Addr("s", solver), sdk.Str("h", solutionHash))
	return nil
}

// Award pays the ranked solvers their tiers. Rounding dust goes to the
// first winner, tiers left without a winner go back to the creator.
func (Bounties) Award(ctx *contract.Context, creator sdk.Address, id uint64, solvers []sdk.Address) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	b, err := contract.MustLoad(ctx, bountyKey(id), "bounty")
	if err != nil {
		return err
	}
	if creator != b.Creator {
		return contract.Unauthorized("not the creator")
	}
	if err := ctx.RequireAuth(creator); err != nil {
		return err
	}
	if b.Status != StatusOpen {
		return contract.Illegal("bounty not open")
	}
	if len(solvers) == 0 || len(solvers) > len(b.TiersBps) {
		return contract.Invalid("winner count does not fit the tiers")
	}
	seen := map[sdk.Address]bool{}
	for _, s := range solvers {
		if seen[s] {
			return contract.Invalid("duplicate winner")
		}
		seen[s] = true
		if !contract.Has(ctx, submissionKey(id, s)) {
			return contract.Failf(contract.KindIllegalState, "%s has no submission", s)
		}
	}
	amounts, residual, err := payout.Tiered(b.Reward, b.TiersBps)
	if err != nil {
		return err
	}
	payments := make([]payout.Payment, 0, len(solvers)+1)
	var unclaimed int64
	for i, a := range amounts {
		if i < len(solvers) {
			payments = append(payments, payout.Payment{To: solvers[i], Amount: a})
		} else {
			unclaimed += a
		}
	}
	payments[0].Amount += residual
	if unclaimed > 0 {
		payments = append(payments, payout.Payment{To: b.Creator, Amount: unclaimed})
	}
	if err := payout.Pay(contract.TokenAt(ctx, b.Token), payments); err != nil {
		return err
	}
	b.Status = StatusCompleted
	b.Winners = solvers
	contract.Store(ctx, bountyKey(id), b)
	emitBountyEvent(ctx, b)
	return nil
}

// Cancel refunds the creator while nobody has submitted.
func (Bounties) Cancel(ctx *contract.Context, creator sdk.Address, id uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	b, err := contract.MustLoad(ctx, bountyKey(id), "bounty")
	if err != nil {
		return err
	}
	if creator != b.Creator {
		return contract.Unauthorized("not the creator")
	}
	if err := ctx.RequireAuth(creator); err != nil {
		return err
	}
	if b.Status != StatusOpen {
		return contract.Illegal("bounty not open")
	}
	if b.Submissions > 0 {
		return contract.Illegal("bounty has submissions")
	}
	return refund(ctx, b, StatusCancelled)
}

// RefundExpired returns the reward once the award window after the deadline
// has passed without an award. Anyone may call it.
func (Bounties) RefundExpired(ctx *contract.Context, id uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return err
	}
	b, err := contract.MustLoad(ctx, bountyKey(id), "bounty")
	if err != nil {
		return err
	}
	if b.Status != StatusOpen {
		return contract.Illegal("bounty not open")
	}
	if ctx.Timestamp() <= b.Deadline+cfg.AwardWindow {
		return contract.Illegal("award window still open")
	}
	return refund(ctx, b, StatusExpired)
}

func refund(ctx *contract.Context, b Bounty, st Status) error {
	if err := payout.Refund(contract.TokenAt(ctx, b.Token), b.Creator, b.Reward); err != nil {
		return err
	}
	b.Status = st
	contract.Store(ctx, bountyKey(b.ID), b)
	emitBountyEvent(ctx, b)
	return nil
}

func emitBountyEvent(ctx *contract.Context, b Bounty) {
	ctx.Emit("bt_bounty",
		sdk.U64("id", b.ID),
		sdk.U64("pz", uint64(b.PuzzleID)),
		sdk.I64("r", b.Reward),
		sdk.Str("st", b.Status.String()),
	)
}

func parseTiers(s string) ([]uint32, error) {
	var out []uint32
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		v, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, contract.Invalid("invalid tier " + part)
		}
		out = append(out, uint32(v))
	}
	return out, nil
}

func (bs Bounties) Exports() contract.Exports {
	return contract.AdminExports().Merge(contract.Exports{
		// Example payload: "7|contract:token|1000|5000|6000,3000,1000"
		"create": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			puzzle := args.Uint32(0, "puzzle id")
			token := args.Address(1, "token")
			reward := args.Amount(2, "reward")
			deadline := args.Uint(3, "deadline")
			if err := args.Err(); err != nil {
				return "", err
			}
			tiers, err := parseTiers(args.Str(4))
			if err != nil {
				return "", err
			}
			id, err := bs.Create(ctx, caller, puzzle, token, reward, deadline, tiers)
			return contract.JoinArgs(id), err
		},
		"submit": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "bounty id")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", bs.Submit(ctx, caller, id, args.Str(1))
		},
		"award": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "bounty id")
			var winners []sdk.Address
			for i := 1; i < args.Len(); i++ {
				winners = append(winners, args.Address(i, "winner"))
			}
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", bs.Award(ctx, caller, id, winners)
		},
		"refund_expired": func(ctx *contract.Context, _ sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "bounty id")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", bs.RefundExpired(ctx, id)
		},
	})
}
