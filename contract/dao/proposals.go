package dao

import (
	"strings"

	"puzzlechain/contract"
	"puzzlechain/contract/kernel/threshold"
	"puzzlechain/sdk"
)

type Proposal struct {
	ID           uint64           `json:"id"`
	Proposer     sdk.Address      `json:"proposer"`
	Category     Category         `json:"category"`
	Title        string           `json:"title"`
	Action       Action           `json:"action"`
	Status       threshold.Status `json:"status"`
	Tally        threshold.Tally  `json:"tally"`
	Voters       int              `json:"voters"`
	Quorum       int64            `json:"quorum"`
	CreatedAt    uint64           `json:"created"`
	Start        uint64           `json:"start"`
	End          uint64           `json:"end"`
	ExecuteAfter uint64           `json:"execute_after,omitempty"`
	ExecutedAt   uint64           `json:"executed,omitempty"`
}

// Receipt is one voter's ballot on a proposal.
type Receipt struct {
	Choice threshold.Choice `json:"choice"`
	Weight int64            `json:"weight"`
	At     uint64           `json:"at"`
}

func (DAO) Proposal(ctx *contract.Context, id uint64) (Proposal, error) {
	return contract.MustLoad(ctx, proposalKey(id), "proposal")
}

func (DAO) Receipt(ctx *contract.Context, id uint64, voter sdk.Address) (Receipt, error) {
	return contract.MustLoad(ctx, receiptKey(id, voter), "vote")
}

func (DAO) ProposalsBy(ctx *contract.Context, proposer sdk.Address) []uint64 {
	return contract.IndexIDs(ctx, proposerIndex(proposer))
}

// quorum is QuorumBps of the token supply, or of the total stake when the
// token has no supply view.
func quorum(ctx *contract.Context, cfg Config) (int64, error) {
	supply, ok, err := contract.TokenAt(ctx, cfg.Token).TotalSupply()
	if err != nil {
		return 0, err
	}
	if !ok {
		supply = contract.LoadOr(ctx, stakingKey, Staking{}).Pool.TotalShares
	}
	return contract.Bps(supply, cfg.QuorumBps)
}

// Propose opens a proposal. Voting starts after the voting delay. Emergency
// proposals need a council member.
func (DAO) Propose(ctx *contract.Context, proposer sdk.Address, cat Category, title string, action Action) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(proposer); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	m, err := activeMember(ctx, proposer)
	if err != nil {
		return 0, err
	}
	if m.Power() < cfg.ProposalPower {
		return 0, contract.Failf(contract.KindThreshold, "proposing needs %d voting power", cfg.ProposalPower)
	}
	if cat == CategoryEmergency && m.Tier < TierCouncil {
		return 0, contract.Unauthorized("emergency proposals need the council tier")
	}
	if strings.TrimSpace(title) == "" {
		return 0, contract.Invalid("title required")
	}
	if err := action.validate(cat); err != nil {
		return 0, err
	}
	q, err := quorum(ctx, cfg)
	if err != nil {
		return 0, err
	}
	now := ctx.Timestamp()
	p := Proposal{
		ID:        contract.NextID(ctx, "proposal"),
		Proposer:  proposer,
		Category:  cat,
		Title:     title,
		Action:    action,
		Status:    threshold.StatusPending,
		Quorum:    q,
		CreatedAt: now,
		Start:     now + cfg.VotingDelay,
		End:       now + cfg.VotingDelay + cfg.VotingPeriod,
	}
	contract.Store(ctx, proposalKey(p.ID), p)
	contract.AddToIndex(ctx, proposerIndex(proposer), p.ID)
	emitProposalEvent(ctx, p)
	return p.ID, nil
}

// Vote counts the voter's current power. Later delegation changes do not
// touch votes already cast.
func (DAO) Vote(ctx *contract.Context, voter sdk.Address, id uint64, choice threshold.Choice) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(voter); err != nil {
		return err
	}
	p, err := contract.MustLoad(ctx, proposalKey(id), "proposal")
	if err != nil {
		return err
	}
	now := ctx.Timestamp()
	if p.Status != threshold.StatusPending && p.Status != threshold.StatusActive {
		return contract.Illegal("proposal not open for voting")
	}
	if now < p.Start {
		return contract.Illegal("voting not started")
	}
	if now > p.End {
		return contract.Fail(contract.KindExpired, "voting closed")
	}
	if contract.Has(ctx, receiptKey(id, voter)) {
		return contract.Illegal("already voted")
	}
	m, err := activeMember(ctx, voter)
	if err != nil {
		return err
	}
	weight := m.Power()
	if weight <= 0 {
		return contract.Fail(contract.KindThreshold, "no voting power")
	}
	if err := p.Tally.Add(choice, weight); err != nil {
		return err
	}
	p.Status = threshold.StatusActive
	p.Voters++
	contract.Store(ctx, receiptKey(id, voter), Receipt{Choice: choice, Weight: weight, At: now})
	contract.Store(ctx, proposalKey(id), p)
	ctx.Emit("dao_vote", sdk.U64("id", id), sdk.Addr("v", voter), sdk.Str("c", choice.String()), sdk.I64("w", weight))
	return nil
}

// Finalize closes the vote after the end time. A passing proposal is queued
// behind the execution delay, anything else is defeated. Emergency
// proposals finalize as soon as they pass and skip the delay.
func (DAO) Finalize(ctx *contract.Context, id uint64) (threshold.Status, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	p, err := contract.MustLoad(ctx, proposalKey(id), "proposal")
	if err != nil {
		return 0, err
	}
	if p.Status != threshold.StatusPending && p.Status != threshold.StatusActive {
		return 0, contract.Illegal("proposal already finalized")
	}
	now := ctx.Timestamp()
	passes := p.Tally.Passes(p.Quorum)
	switch {
	case p.Category == CategoryEmergency && passes:
		p.Status = threshold.StatusApproved
		p.ExecuteAfter = now
	case now <= p.End:
		return 0, contract.Illegal("voting still open")
	case passes:
		p.Status = threshold.StatusApproved
		p.ExecuteAfter = p.End + cfg.ExecutionDelay
	default:
		p.Status = threshold.StatusDefeated
	}
	contract.Store(ctx, proposalKey(id), p)
	emitProposalEvent(ctx, p)
	return p.Status, nil
}

// Execute runs an approved proposal as the DAO once its delay has passed.
func (DAO) Execute(ctx *contract.Context, executor sdk.Address, id uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(executor); err != nil {
		return err
	}
	p, err := contract.MustLoad(ctx, proposalKey(id), "proposal")
	if err != nil {
		return err
	}
	if p.Status != threshold.StatusApproved {
		return contract.Illegal("proposal not approved")
	}
	if ctx.Timestamp() < p.ExecuteAfter {
		return contract.Failf(contract.KindIllegalState, "executable at %d", p.ExecuteAfter)
	}
	if err := contract.Enter(ctx); err != nil {
		return err
	}
	p.Status = threshold.StatusExecuted
	p.ExecutedAt = ctx.Timestamp()
	contract.Store(ctx, proposalKey(id), p)
	if err := p.Action.run(ctx); err != nil {
		return err
	}
	contract.Exit(ctx)
	emitProposalEvent(ctx, p)
	return nil
}

// Cancel withdraws a proposal that has not executed. Proposer or admin.
func (DAO) Cancel(ctx *contract.Context, caller sdk.Address, id uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	p, err := contract.MustLoad(ctx, proposalKey(id), "proposal")
	if err != nil {
		return err
	}
	if caller != p.Proposer {
		if err := contract.RequireAdmin(ctx, caller); err != nil {
			return err
		}
	} else if err := ctx.RequireAuth(caller); err != nil {
		return err
	}
	if p.Status.Terminal() {
		return contract.Illegal("proposal already closed")
	}
	p.Status = threshold.StatusCanceled
	contract.Store(ctx, proposalKey(id), p)
	emitProposalEvent(ctx, p)
	return nil
}
