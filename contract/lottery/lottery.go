// Package lottery runs scheduled ticket rounds drawn with the ledger seeded
// generator. Winners split the pool after the house fee.
package lottery

import (
	"strconv"

	"puzzlechain/contract"
	"puzzlechain/contract/kernel/rng"
	"puzzlechain/sdk"
)

type Config struct {
	Token sdk.Address `json:"token"`
	FeeTo sdk.Address `json:"fee_to"`
	// MaxTickets caps a single purchase, 0 is unlimited.
	MaxTickets int64 `json:"max_tickets"`
}

type Status uint8

const (
	StatusOpen Status = iota + 1
	StatusDrawing
	StatusCompleted
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusDrawing:
		return "drawing"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

type Round struct {
	ID           uint64        `json:"id"`
	TicketPrice  int64         `json:"price"`
	StartTime    uint64        `json:"start"`
	EndTime      uint64        `json:"end"`
	WinnerCount  int           `json:"winner_count"`
	HouseFeeBps  uint32        `json:"fee_bps"`
	Status       Status        `json:"status"`
	TotalTickets int64         `json:"tickets"`
	Pool         int64         `json:"pool"`
	Winners      []sdk.Address `json:"winners,omitempty"`
	DrawSeq      uint64        `json:"draw_seq,omitempty"`
	DrawTime     uint64        `json:"draw_ts,omitempty"`
}

type Lottery struct{}

func New() *Lottery { return &Lottery{} }

func (Lottery) Init(ctx *contract.Context, admin sdk.Address, cfg Config) error {
	var chk contract.Checks
	chk.Address(cfg.Token, "token")
	if cfg.FeeTo == "" {
		cfg.FeeTo = admin
	}
	chk.Address(cfg.FeeTo, "fee recipient")
	chk.Require(cfg.MaxTickets >= 0, "max tickets must not be negative")
	if err := chk.Err(); err != nil {
		return err
	}
	return contract.Initialize(ctx, admin, cfg)
}

func (Lottery) Round(ctx *contract.Context, id uint64) (Round, error) {
	return contract.MustLoad(ctx, roundKey(id), "round")
}

// Tickets is how many tickets who holds in round.
func (Lottery) Tickets(ctx *contract.Context, round uint64, who sdk.Address) int64 {
	return contract.LoadOr(ctx, ticketsKey(round, who), 0)
}

// Prize is what who can still claim from round.
func (Lottery) Prize(ctx *contract.Context, round uint64, who sdk.Address) int64 {
	return contract.LoadOr(ctx, prizeKey(round, who), 0)
}

// StartRound opens a round, admin only.
func (Lottery) StartRound(ctx *contract.Context, caller sdk.Address, ticketPrice int64, endTime uint64, winners int, houseFeeBps uint32) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := contract.RequireAdmin(ctx, caller); err != nil {
		return 0, err
	}
	var chk contract.Checks
	chk.Positive(ticketPrice, "ticket price")
	chk.Require(endTime > ctx.Timestamp(), "end time must be in the future")
	chk.Require(winners > 0, "winner count must be positive")
	chk.Bps(houseFeeBps, "house fee")
	if err := chk.Err(); err != nil {
		return 0, err
	}
	r := Round{
		ID:          contract.NextID(ctx, "round"),
		TicketPrice: ticketPrice,
		StartTime:   ctx.Timestamp(),
		EndTime:     endTime,
		WinnerCount: winners,
		HouseFeeBps: houseFeeBps,
		Status:      StatusOpen,
	}
	contract.Store(ctx, roundKey(r.ID), r)
	emitRoundEvent(ctx, r)
	return r.ID, nil
}

// BuyTickets pays count tickets into the round pool.
func (Lottery) BuyTickets(ctx *contract.Context, player sdk.Address, round uint64, count int64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := contract.RequirePositive(count, "count"); err != nil {
		return err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return err
	}
	if cfg.MaxTickets > 0 && count > cfg.MaxTickets {
		return contract.Fail(contract.KindExhausted, "ticket limit reached")
	}
	r, err := contract.MustLoad(ctx, roundKey(round), "round")
	if err != nil {
		return err
	}
	if r.Status != StatusOpen {
		return contract.Illegal("round not open")
	}
	if ctx.Timestamp() >= r.EndTime {
		return contract.Fail(contract.KindExpired, "round ended")
	}
	if err := ctx.RequireAuth(player); err != nil {
		return err
	}
	cost, err := contract.MulDiv(r.TicketPrice, count, 1)
	if err != nil {
		return err
	}
	if err := contract.TokenAt(ctx, cfg.Token).Pull(player, cost); err != nil {
		return err
	}
	held := contract.LoadOr(ctx, ticketsKey(round, player), 0)
	if held == 0 {
		entrants := contract.LoadOr(ctx, entrantsKey(round), nil)
		contract.Store(ctx, entrantsKey(round), append(entrants, player))
	}
	if held, err = contract.AddAmount(held, count); err != nil {
		return err
	}
	if r.TotalTickets, err = contract.AddAmount(r.TotalTickets, count); err != nil {
		return err
	}
	if r.Pool, err = contract.AddAmount(r.Pool, cost); err != nil {
		return err
	}
	contract.Store(ctx, ticketsKey(round, player), held)
	contract.Store(ctx, roundKey(round), r)
	emitTicketsEvent(ctx, round, player, count)
	return nil
}

// Entrants lists players with their ticket counts in purchase order.
func (l Lottery) Entrants(ctx *contract.Context, round uint64) []rng.Entrant {
	players := contract.LoadOr(ctx, entrantsKey(round), nil)
	out := make([]rng.Entrant, len(players))
	for i, p := range players {
		out[i] = rng.Entrant{Who: p, Count: l.Tickets(ctx, round, p)}
	}
	return out
}

// Draw picks the winners once the round has ended. Anyone may trigger it.
// Winners share the pool minus the house fee evenly; the first winner takes
// the rounding remainder. A principal drawn twice is credited twice.
func (l Lottery) Draw(ctx *contract.Context, round uint64) ([]sdk.Address, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return nil, err
	}
	r, err := contract.MustLoad(ctx, roundKey(round), "round")
	if err != nil {
		return nil, err
	}
	if r.Status != StatusOpen {
		return nil, contract.Illegal("round not open")
	}
	if ctx.Timestamp() < r.EndTime {
		return nil, contract.Illegal("round still running")
	}
	if r.TotalTickets == 0 {
		return nil, contract.Illegal("no tickets")
	}
	r.Status = StatusDrawing
	contract.Store(ctx, roundKey(round), r)

	k := r.WinnerCount
	if int64(k) > r.TotalTickets {
		k = int(r.TotalTickets)
	}
	src := rng.Source{Round: r.ID, Sequence: ctx.Sequence(), Timestamp: ctx.Timestamp()}
	winners, err := src.Draw(l.Entrants(ctx, round), k)
	if err != nil {
		return nil, err
	}

	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return nil, err
	}
	fee, err := contract.Bps(r.Pool, r.HouseFeeBps)
	if err != nil {
		return nil, err
	}
	prizes := r.Pool - fee
	each := prizes / int64(len(winners))
	remainder := prizes - each*int64(len(winners))
	for i, w := range winners {
		amount := each
		if i == 0 {
			amount += remainder
		}
		owed, err := contract.AddAmount(contract.LoadOr(ctx, prizeKey(round, w), 0), amount)
		if err != nil {
			return nil, err
		}
		contract.Store(ctx, prizeKey(round, w), owed)
	}
	if err := contract.TokenAt(ctx, cfg.Token).Pay(cfg.FeeTo, fee); err != nil {
		return nil, err
	}

	r.Status = StatusCompleted
	r.Winners = winners
	r.DrawSeq = ctx.Sequence()
	r.DrawTime = ctx.Timestamp()
	contract.Store(ctx, roundKey(round), r)
	emitDrawEvent(ctx, r)
	return winners, nil
}

// ClaimPrize pays a winner once.
func (Lottery) ClaimPrize(ctx *contract.Context, player sdk.Address, round uint64) (int64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	r, err := contract.MustLoad(ctx, roundKey(round), "round")
	if err != nil {
		return 0, err
	}
	if r.Status != StatusCompleted {
		return 0, contract.Illegal("round not completed")
	}
	if err := ctx.RequireAuth(player); err != nil {
		return 0, err
	}
	amount := contract.LoadOr(ctx, prizeKey(round, player), 0)
	if amount == 0 {
		return 0, contract.Illegal("nothing to claim")
	}
	contract.Remove(ctx, prizeKey(round, player))
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	if err := contract.TokenAt(ctx, cfg.Token).Pay(player, amount); err != nil {
		return 0, err
	}
	emitClaimEvent(ctx, "lot_claim", round, player, amount)
	return amount, nil
}

// CancelRound stops an open round; players pull their refunds with Refund.
func (Lottery) CancelRound(ctx *contract.Context, caller sdk.Address, round uint64) error {
	if err := contract.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	r, err := contract.MustLoad(ctx, roundKey(round), "round")
	if err != nil {
		return err
	}
	if r.Status != StatusOpen {
		return contract.Illegal("round not open")
	}
	r.Status = StatusCancelled
	contract.Store(ctx, roundKey(round), r)
	emitRoundEvent(ctx, r)
	return nil
}

// Refund returns a player's ticket cost from a cancelled round.
func (Lottery) Refund(ctx *contract.Context, player sdk.Address, round uint64) (int64, error) {
	if err := contract.RequireInitialized(ctx); err != nil {
		return 0, err
	}
	r, err := contract.MustLoad(ctx, roundKey(round), "round")
	if err != nil {
		return 0, err
	}
	if r.Status != StatusCancelled {
		return 0, contract.Illegal("round not cancelled")
	}
	if err := ctx.RequireAuth(player); err != nil {
		return 0, err
	}
	if contract.LoadOr(ctx, refundedKey(round, player), false) {
		return 0, contract.Illegal("already refunded")
	}
	count := contract.LoadOr(ctx, ticketsKey(round, player), 0)
	if count == 0 {
		return 0, contract.NotFound("tickets")
	}
	amount, err := contract.MulDiv(r.TicketPrice, count, 1)
	if err != nil {
		return 0, err
	}
	contract.Store(ctx, refundedKey(round, player), true)
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	if err := contract.TokenAt(ctx, cfg.Token).Pay(player, amount); err != nil {
		return 0, err
	}
	emitClaimEvent(ctx, "lot_refund", round, player, amount)
	return amount, nil
}

func roundMethod(fn func(ctx *contract.Context, caller sdk.Address, round uint64) (int64, error)) contract.Method {
	return func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
		round := args.Uint(0, "round id")
		if err := args.Err(); err != nil {
			return "", err
		}
		out, err := fn(ctx, caller, round)
		return strconv.FormatInt(out, 10), err
	}
}

func (l Lottery) Exports() contract.Exports {
	return contract.AdminExports().Merge(contract.Exports{
		// Example payload: "10|5000|1|500"
		"start_round": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			price := args.Amount(0, "ticket price")
			end := args.Uint(1, "end time")
			winners := args.Uint32(2, "winners")
			fee := args.Uint32(3, "house fee")
			if err := args.Err(); err != nil {
				return "", err
			}
			id, err := l.StartRound(ctx, caller, price, end, int(winners), fee)
			return strconv.FormatUint(id, 10), err
		},
		"buy_tickets": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			round := args.Uint(0, "round id")
			count := args.Amount(1, "count")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", l.BuyTickets(ctx, caller, round, count)
		},
		"draw": func(ctx *contract.Context, _ sdk.Address, args *contract.Args) (string, error) {
			round := args.Uint(0, "round id")
			if err := args.Err(); err != nil {
				return "", err
			}
			winners, err := l.Draw(ctx, round)
			out := make([]any, len(winners))
			for i, w := range winners {
				out[i] = w
			}
			return contract.JoinArgs(out...), err
		},
		"claim_prize": roundMethod(l.ClaimPrize),
		"refund":      roundMethod(l.Refund),
		"cancel_round": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			round := args.Uint(0, "round id")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", l.CancelRound(ctx, caller, round)
		},
	})
}
