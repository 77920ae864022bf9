// Package quest runs chains of puzzle steps. A player walks a chain step by
// step, proving each puzzle through the achievement NFT, and collects XP and
// a token reward at the end.
package quest

import (
	"slices"
	"strings"

	"puzzlechain/contract"
	"puzzlechain/contract/kernel/leaderboard"
	"puzzlechain/sdk"
)

type Status uint8

const (
	StatusOpen Status = iota + 1
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	}
	return "unknown"
}

type Config struct {
	Token     sdk.Address `json:"token"`
	NFT       sdk.Address `json:"nft"`
	BoardSize int         `json:"board_size"`
}

type Step struct {
	PuzzleID uint32 `json:"puzzle"`
	XP       int64  `json:"xp"`
}

type Chain struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	Steps        []Step `json:"steps"`
	Start        uint64 `json:"start"`
	End          uint64 `json:"end"`
	Prerequisite uint64 `json:"prereq,omitempty"`
	Cooldown     uint64 `json:"cooldown"`
	Reward       int64  `json:"reward"`
	Status       Status `json:"status"`
	Started      int    `json:"started"`
	Completed    int    `json:"completed"`
}

type Progress struct {
	Next       int    `json:"next"`
	XP         int64  `json:"xp"`
	StartedAt  uint64 `json:"started"`
	LastStepAt uint64 `json:"last_step,omitempty"`
	Done       bool   `json:"done"`
	Claimed    bool   `json:"claimed"`
}

type Quests struct{}

func New() *Quests { return &Quests{} }

// Init also registers the program as a minter of the reward token.
func (Quests) Init(ctx *contract.Context, admin sdk.Address, cfg Config) error {
	if cfg.BoardSize == 0 {
		cfg.BoardSize = 10
	}
	var chk contract.Checks
	chk.Address(cfg.Token, "token")
	chk.Address(cfg.NFT, "nft")
	chk.Require(cfg.BoardSize > 0, "board size must be positive")
	if err := chk.Err(); err != nil {
		return err
	}
	if err := contract.Initialize(ctx, admin, cfg); err != nil {
		return err
	}
	contract.Store(ctx, boardKey, leaderboard.New(cfg.BoardSize))
	return contract.TokenAt(ctx, cfg.Token).AuthorizeMinter()
}

func (Quests) Chain(ctx *contract.Context, id uint64) (Chain, error) {
	return contract.MustLoad(ctx, chainKey(id), "quest chain")
}

func (Quests) Progress(ctx *contract.Context, id uint64, player sdk.Address) (Progress, error) {
	return contract.MustLoad(ctx, progressKey(id, player), "quest progress")
}

func (Quests) XP(ctx *contract.Context, player sdk.Address) int64 {
	return contract.LoadOr(ctx, xpKey(player), 0)
}

func (Quests) ChainsOf(ctx *contract.Context, player sdk.Address) []uint64 {
	return contract.IndexIDs(ctx, playerIndex(player))
}

func (Quests) TopPlayers(ctx *contract.Context, limit int) []leaderboard.Entry {
	return contract.LoadOr(ctx, boardKey, leaderboard.Board{}).Top(limit)
}

// CreateChain opens a chain. A prerequisite chain must exist and be completed
// by a player before it may start this one.
func (Quests) CreateChain(ctx *contract.Context, admin sdk.Address, name string, steps []Step, start, end, prerequisite, cooldown uint64, reward int64) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := contract.RequireAdmin(ctx, admin); err != nil {
		return 0, err
	}
	var chk contract.Checks
	chk.Require(strings.TrimSpace(name) != "", "name required")
	chk.Require(len(steps) > 0, "chain needs steps")
	chk.Require(end > start, "end must follow start")
	chk.Require(end > ctx.Timestamp(), "end must be in the future")
	chk.Require(reward >= 0, "reward must not be negative")
	for _, s := range steps {
		chk.Require(s.XP >= 0, "step xp must not be negative")
	}
	if err := chk.Err(); err != nil {
		return 0, err
	}
	if prerequisite != 0 && !contract.Has(ctx, chainKey(prerequisite)) {
		return 0, contract.NotFound("prerequisite chain")
	}
	c := Chain{
		ID:           contract.NextID(ctx, "chain"),
		Name:         name,
		Steps:        steps,
		Start:        start,
		End:          end,
		Prerequisite: prerequisite,
		Cooldown:     cooldown,
		Reward:       reward,
		Status:       StatusOpen,
	}
	contract.Store(ctx, chainKey(c.ID), c)
	emitChainEvent(ctx, c)
	return c.ID, nil
}

func openChain(ctx *contract.Context, id uint64) (Chain, error) {
	c, err := contract.MustLoad(ctx, chainKey(id), "quest chain")
	if err != nil {
		return Chain{}, err
	}
	if c.Status != StatusOpen {
		return Chain{}, contract.Illegal("chain closed")
	}
	now := ctx.Timestamp()
	if now < c.Start {
		return Chain{}, contract.Illegal("chain not started")
	}
	if now > c.End {
		return Chain{}, contract.Fail(contract.KindExpired, "chain ended")
	}
	return c, nil
}

func (Quests) Start(ctx *contract.Context, player sdk.Address, id uint64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(player); err != nil {
		return err
	}
	c, err := openChain(ctx, id)
	if err != nil {
		return err
	}
	if contract.Has(ctx, progressKey(id, player)) {
		return contract.Illegal("chain already started")
	}
	if c.Prerequisite != 0 {
		pre, ok := contract.Load(ctx, progressKey(c.Prerequisite, player))
		if !ok || !pre.Done {
			return contract.Illegal("prerequisite chain not completed")
		}
	}
	contract.Store(ctx, progressKey(id, player), Progress{StartedAt: ctx.Timestamp()})
	contract.AddToIndex(ctx, playerIndex(player), id)
	c.Started++
	contract.Store(ctx, chainKey(id), c)
	ctx.Emit("qs_start", sdk.U64("id", id), sdk.Addr("p", player))
	return nil
}

// CompleteStep advances the player by one step once they hold the step's
// puzzle achievement and the cooldown since the previous step has passed.
func (Quests) CompleteStep(ctx *contract.Context, player sdk.Address, id uint64) (int, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(player); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	c, err := openChain(ctx, id)
	if err != nil {
		return 0, err
	}
	p, err := contract.MustLoad(ctx, progressKey(id, player), "quest progress")
	if err != nil {
		return 0, err
	}
	if p.Done {
		return 0, contract.Illegal("chain already completed")
	}
	now := ctx.Timestamp()
	if p.LastStepAt != 0 && now < p.LastStepAt+c.Cooldown {
		return 0, contract.Failf(contract.KindCooldown, "next step at %d", p.LastStepAt+c.Cooldown)
	}
	step := c.Steps[p.Next]
	owned, err := contract.NFTAt(ctx, cfg.NFT).PuzzleIDsOf(player)
	if err != nil {
		return 0, err
	}
	if !slices.Contains(owned, step.PuzzleID) {
		return 0, contract.Failf(contract.KindUnauthorized, "puzzle %d not solved", step.PuzzleID)
	}
	p.Next++
	p.LastStepAt = now
	if p.XP, err = contract.AddAmount(p.XP, step.XP); err != nil {
		return 0, err
	}
	total, err := contract.AddAmount(contract.LoadOr(ctx, xpKey(player), 0), step.XP)
	if err != nil {
		return 0, err
	}
	if p.Next == len(c.Steps) {
		p.Done = true
		c.Completed++
		contract.Store(ctx, chainKey(id), c)
	}
	contract.Store(ctx, progressKey(id, player), p)
	contract.Store(ctx, xpKey(player), total)
	board := contract.LoadOr(ctx, boardKey, leaderboard.New(cfg.BoardSize))
	board.Insert(leaderboard.Entry{Who: player, Score: total, At: now})
	contract.Store(ctx, boardKey, board)
	ctx.Emit("qs_step", sdk.U64("id", id), sdk.Addr("p", player), sdk.U64("n", uint64(p.Next)), sdk.Bool("done", p.Done))
	return p.Next, nil
}

// ClaimReward mints the chain reward once per completed player.
func (Quests) ClaimReward(ctx *contract.Context, player sdk.Address, id uint64) (int64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(player); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	c, err := contract.MustLoad(ctx, chainKey(id), "quest chain")
	if err != nil {
		return 0, err
	}
	p, err := contract.MustLoad(ctx, progressKey(id, player), "quest progress")
	if err != nil {
		return 0, err
	}
	if !p.Done {
		return 0, contract.Illegal("chain not completed")
	}
	if p.Claimed {
		return 0, contract.Illegal("reward already claimed")
	}
	p.Claimed = true
	contract.Store(ctx, progressKey(id, player), p)
	if c.Reward > 0 {
		if err := contract.TokenAt(ctx, cfg.Token).Mint(player, c.Reward); err != nil {
			return 0, err
		}
	}
	ctx.Emit("qs_claim", sdk.U64("id", id), sdk.Addr("p", player), sdk.I64("r", c.Reward))
	return c.Reward, nil
}

// CloseChain stops new starts and steps. Completed players keep their claim.
func (Quests) CloseChain(ctx *contract.Context, admin sdk.Address, id uint64) error {
	if err := contract.RequireAdmin(ctx, admin); err != nil {
		return err
	}
	c, err := contract.MustLoad(ctx, chainKey(id), "quest chain")
	if err != nil {
		return err
	}
	if c.Status == StatusClosed {
		return contract.Illegal("chain already closed")
	}
	c.Status = StatusClosed
	contract.Store(ctx, chainKey(id), c)
	emitChainEvent(ctx, c)
	return nil
}

func emitChainEvent(ctx *contract.Context, c Chain) {
	ctx.Emit("qs_chain",
		sdk.U64("id", c.ID),
		sdk.Str("name", c.Name),
		sdk.U64("steps", uint64(len(c.Steps))),
		sdk.Str("st", c.Status.String()),
	)
}
