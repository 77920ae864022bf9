// Package multisig is a treasury spending through role gated, threshold
// signed proposals.
package multisig

import (
	"slices"
	"strconv"

	"puzzlechain/contract"
	"puzzlechain/contract/kernel/threshold"
	"puzzlechain/sdk"
)

type Config struct {
	Threshold  uint32 `json:"threshold"`
	DefaultTTL uint64 `json:"default_ttl"`
}

type Member struct {
	Who     sdk.Address    `json:"who"`
	Role    threshold.Role `json:"role"`
	AddedAt uint64         `json:"added"`
	Active  bool           `json:"active"`
}

type Proposal struct {
	ID     uint64           `json:"id"`
	Action Action           `json:"action"`
	Ballot threshold.Ballot `json:"ballot"`
}

type Multisig struct{}

func New() *Multisig { return &Multisig{} }

// Init makes admin the first Owner and seats the other members.
func (Multisig) Init(ctx *contract.Context, admin sdk.Address, cfg Config, members map[sdk.Address]threshold.Role) error {
	var chk contract.Checks
	chk.Require(cfg.Threshold > 0, "threshold must be positive")
	chk.Require(int(cfg.Threshold) <= len(members)+1, "threshold above member count")
	if cfg.DefaultTTL == 0 {
		cfg.DefaultTTL = 7 * 24 * 3600
	}
	for who, role := range members {
		chk.Address(who, "member")
		chk.Require(role != threshold.RoleNone, "member role required")
		chk.Require(who != admin, "admin listed as member")
	}
	if err := chk.Err(); err != nil {
		return err
	}
	if err := contract.Initialize(ctx, admin, cfg); err != nil {
		return err
	}
	if err := addMember(ctx, admin, threshold.RoleOwner); err != nil {
		return err
	}
	for _, who := range sortedMembers(members) {
		if err := addMember(ctx, who, members[who]); err != nil {
			return err
		}
	}
	return nil
}

func sortedMembers(m map[sdk.Address]threshold.Role) []sdk.Address {
	out := make([]sdk.Address, 0, len(m))
	for who := range m {
		out = append(out, who)
	}
	slices.Sort(out)
	return out
}

func (Multisig) Member(ctx *contract.Context, who sdk.Address) (Member, error) {
	return contract.MustLoad(ctx, memberKey(who), "member")
}

// Members lists active members in join order.
func (Multisig) Members(ctx *contract.Context) []sdk.Address {
	return contract.LoadOr(ctx, rosterKey, nil)
}

func (Multisig) Proposal(ctx *contract.Context, id uint64) (Proposal, error) {
	return contract.MustLoad(ctx, proposalKey(id), "proposal")
}

func activeMember(ctx *contract.Context, who sdk.Address) (Member, error) {
	m, ok := contract.Load(ctx, memberKey(who))
	if !ok || !m.Active {
		return Member{}, contract.Unauthorized("not a member")
	}
	if err := ctx.RequireAuth(who); err != nil {
		return Member{}, err
	}
	return m, nil
}

func owners(ctx *contract.Context) int {
	n := 0
	for _, who := range contract.LoadOr(ctx, rosterKey, nil) {
		if m, ok := contract.Load(ctx, memberKey(who)); ok && m.Active && m.Role == threshold.RoleOwner {
			n++
		}
	}
	return n
}

func addMember(ctx *contract.Context, who sdk.Address, role threshold.Role) error {
	if m, ok := contract.Load(ctx, memberKey(who)); ok && m.Active {
		return contract.Illegal("already a member")
	}
	m := Member{Who: who, Role: role, AddedAt: ctx.Timestamp(), Active: true}
	contract.Store(ctx, memberKey(who), m)
	contract.Store(ctx, rosterKey, append(contract.LoadOr(ctx, rosterKey, nil), who))
	emitMemberEvent(ctx, "ms_add", m)
	return nil
}

func removeMember(ctx *contract.Context, who sdk.Address) error {
	m, ok := contract.Load(ctx, memberKey(who))
	if !ok || !m.Active {
		return contract.NotFound("member")
	}
	if m.Role == threshold.RoleOwner && owners(ctx) == 1 {
		return contract.Illegal("cannot remove last owner")
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return err
	}
	roster := contract.LoadOr(ctx, rosterKey, nil)
	if int(cfg.Threshold) > len(roster)-1 {
		return contract.Illegal("threshold above member count")
	}
	kept := roster[:0]
	for _, r := range roster {
		if r != who {
			kept = append(kept, r)
		}
	}
	m.Active = false
	contract.Store(ctx, memberKey(who), m)
	contract.Store(ctx, rosterKey, kept)
	emitMemberEvent(ctx, "ms_remove", m)
	return nil
}

func changeRole(ctx *contract.Context, who sdk.Address, role threshold.Role) error {
	m, ok := contract.Load(ctx, memberKey(who))
	if !ok || !m.Active {
		return contract.NotFound("member")
	}
	if m.Role == threshold.RoleOwner && role != threshold.RoleOwner && owners(ctx) == 1 {
		return contract.Illegal("cannot demote last owner")
	}
	m.Role = role
	contract.Store(ctx, memberKey(who), m)
	emitMemberEvent(ctx, "ms_role", m)
	return nil
}

func setThreshold(ctx *contract.Context, n uint32) error {
	if int(n) > len(contract.LoadOr(ctx, rosterKey, nil)) {
		return contract.Invalid("threshold above member count")
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return err
	}
	cfg.Threshold = n
	if err := contract.ReplaceConfig(ctx, cfg); err != nil {
		return err
	}
	emitThresholdEvent(ctx, n)
	return nil
}

// Deposit funds the treasury.
func (Multisig) Deposit(ctx *contract.Context, from, token sdk.Address, amount int64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(from); err != nil {
		return err
	}
	return contract.TreasuryDeposit(ctx, from, token, amount)
}

// Balance is the treasury's booked balance of token.
func (Multisig) Balance(ctx *contract.Context, token sdk.Address) int64 {
	return contract.TreasuryBalance(ctx, token)
}

// Propose opens a ballot. ttl 0 uses the configured default.
func (Multisig) Propose(ctx *contract.Context, proposer sdk.Address, action Action, required threshold.Role, ttl uint64) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if _, err := activeMember(ctx, proposer); err != nil {
		return 0, err
	}
	if err := action.validate(); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	if ttl == 0 {
		ttl = cfg.DefaultTTL
	}
	b, err := threshold.NewBallot(proposer, required, cfg.Threshold, ctx.Timestamp(), ttl)
	if err != nil {
		return 0, err
	}
	p := Proposal{ID: contract.NextID(ctx, "proposal"), Action: action, Ballot: b}
	contract.Store(ctx, proposalKey(p.ID), p)
	emitProposalEvent(ctx, p)
	return p.ID, nil
}

// Sign adds a signature; the proposal turns Approved at the threshold.
func (Multisig) Sign(ctx *contract.Context, signer sdk.Address, id uint64) (threshold.Status, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	m, err := activeMember(ctx, signer)
	if err != nil {
		return 0, err
	}
	p, err := contract.MustLoad(ctx, proposalKey(id), "proposal")
	if err != nil {
		return 0, err
	}
	if err := p.Ballot.Sign(signer, m.Role, ctx.Timestamp()); err != nil {
		return 0, err
	}
	contract.Store(ctx, proposalKey(id), p)
	emitSignEvent(ctx, id, signer, len(p.Ballot.Signers))
	if p.Ballot.Status == threshold.StatusApproved {
		emitProposalEvent(ctx, p)
	}
	return p.Ballot.Status, nil
}

// Execute runs an approved proposal; any active member may trigger it.
func (Multisig) Execute(ctx *contract.Context, caller sdk.Address, id uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if _, err := activeMember(ctx, caller); err != nil {
		return err
	}
	if err := contract.Enter(ctx); err != nil {
		return err
	}
	p, err := contract.MustLoad(ctx, proposalKey(id), "proposal")
	if err != nil {
		return err
	}
	if err := p.Ballot.Execute(ctx.Timestamp()); err != nil {
		return err
	}
	contract.Store(ctx, proposalKey(id), p)
	if err := p.Action.run(ctx); err != nil {
		return err
	}
	contract.Exit(ctx)
	emitProposalEvent(ctx, p)
	return nil
}

// Reject is the proposer withdrawing a pending proposal.
func (Multisig) Reject(ctx *contract.Context, caller sdk.Address, id uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(caller); err != nil {
		return err
	}
	p, err := contract.MustLoad(ctx, proposalKey(id), "proposal")
	if err != nil {
		return err
	}
	if err := p.Ballot.Reject(caller); err != nil {
		return err
	}
	contract.Store(ctx, proposalKey(id), p)
	emitProposalEvent(ctx, p)
	return nil
}

// ExpireProposal is the sweep moving a stale pending proposal to Expired.
func (Multisig) ExpireProposal(ctx *contract.Context, id uint64) error {
	if err := contract.RequireInitialized(ctx); err != nil {
		return err
	}
	p, err := contract.MustLoad(ctx, proposalKey(id), "proposal")
	if err != nil {
		return err
	}
	if err := p.Ballot.Expire(ctx.Timestamp()); err != nil {
		return err
	}
	contract.Store(ctx, proposalKey(id), p)
	emitProposalEvent(ctx, p)
	return nil
}

func (ms Multisig) Exports() contract.Exports {
	idMethod := func(fn func(ctx *contract.Context, caller sdk.Address, id uint64) error) contract.Method {
		return func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "proposal id")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", fn(ctx, caller, id)
		}
	}
	return contract.AdminExports().Merge(contract.Exports{
		"deposit": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			token := args.Address(0, "token")
			amount := args.Amount(1, "amount")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", ms.Deposit(ctx, caller, token, amount)
		},
		// Example payload: "contract:token|user:bob|250|signer|0"
		"propose_transfer": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			token := args.Address(0, "token")
			to := args.Address(1, "to")
			amount := args.Amount(2, "amount")
			var ttl uint64
			if args.Len() > 4 {
				ttl = args.Uint(4, "ttl")
			}
			if err := args.Err(); err != nil {
				return "", err
			}
			role := threshold.RoleSigner
			if s := args.Str(3); s != "" {
				var err error
				if role, err = threshold.ParseRole(s); err != nil {
					return "", err
				}
			}
			id, err := ms.Propose(ctx, caller, Transfer(token, to, amount), role, ttl)
			return strconv.FormatUint(id, 10), err
		},
		"sign": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "proposal id")
			if err := args.Err(); err != nil {
				return "", err
			}
			st, err := ms.Sign(ctx, caller, id)
			return st.String(), err
		},
		"execute": idMethod(ms.Execute),
		"reject":  idMethod(ms.Reject),
		"expire": idMethod(func(ctx *contract.Context, _ sdk.Address, id uint64) error {
			return ms.ExpireProposal(ctx, id)
		}),
	})
}
