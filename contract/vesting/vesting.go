// Package vesting locks an admin funded amount for a beneficiary and releases
// it along a time, milestone or hybrid curve.
package vesting

import (
	"strconv"
	"strings"

	"puzzlechain/contract"
	"puzzlechain/contract/kernel/vestcurve"
	"puzzlechain/sdk"
)

type Config struct {
	Token sdk.Address `json:"token"`
}

// Schedule is one beneficiary's lock.
type Schedule struct {
	ID          uint64          `json:"id"`
	Beneficiary sdk.Address     `json:"beneficiary"`
	Released    int64           `json:"released"`
	Revocable   bool            `json:"revocable"`
	CreatedAt   uint64          `json:"created"`
	Curve       vestcurve.Curve `json:"curve"`
}

// Params describes a new schedule.
type Params struct {
	Beneficiary sdk.Address
	Total       int64
	Start       uint64
	Cliff       uint64
	Duration    uint64
	Kind        vestcurve.Kind
	Milestones  []vestcurve.Milestone
	Revocable   bool
}

type Vesting struct{}

func New() *Vesting { return &Vesting{} }

func (Vesting) Init(ctx *contract.Context, admin sdk.Address, cfg Config) error {
	var chk contract.Checks
	chk.Address(cfg.Token, "token")
	if err := chk.Err(); err != nil {
		return err
	}
	return contract.Initialize(ctx, admin, cfg)
}

// CreateSchedule pulls the total from the admin into custody.
func (Vesting) CreateSchedule(ctx *contract.Context, caller sdk.Address, p Params) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := contract.RequireAdmin(ctx, caller); err != nil {
		return 0, err
	}
	if !p.Beneficiary.IsValid() {
		return 0, contract.Invalid("invalid beneficiary")
	}
	curve := vestcurve.Curve{
		Total:      p.Total,
		Start:      p.Start,
		Cliff:      p.Cliff,
		Duration:   p.Duration,
		Kind:       p.Kind,
		Milestones: p.Milestones,
	}
	for i := range curve.Milestones {
		curve.Milestones[i].Completed = false
		curve.Milestones[i].CompletedAt = 0
	}
	if err := curve.Validate(); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	if err := contract.TokenAt(ctx, cfg.Token).Pull(caller, p.Total); err != nil {
		return 0, err
	}
	s := Schedule{
		ID:          contract.NextID(ctx, "schedule"),
		Beneficiary: p.Beneficiary,
		Revocable:   p.Revocable,
		CreatedAt:   ctx.Timestamp(),
		Curve:       curve,
	}
	contract.Store(ctx, scheduleKey(s.ID), s)
	contract.AddToIndex(ctx, beneficiaryIndex(s.Beneficiary), s.ID)
	emitScheduleEvent(ctx, s)
	return s.ID, nil
}

func (Vesting) Schedule(ctx *contract.Context, id uint64) (Schedule, error) {
	return contract.MustLoad(ctx, scheduleKey(id), "schedule")
}

// SchedulesOf lists the schedule ids of a beneficiary.
func (Vesting) SchedulesOf(ctx *contract.Context, who sdk.Address) []uint64 {
	return contract.IndexIDs(ctx, beneficiaryIndex(who))
}

// Vested is the cumulative vested amount now.
func (v Vesting) Vested(ctx *contract.Context, id uint64) (int64, error) {
	s, err := v.Schedule(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.Curve.Vested(ctx.Timestamp())
}

// Releasable is vested minus released.
func (v Vesting) Releasable(ctx *contract.Context, id uint64) (int64, error) {
	s, err := v.Schedule(ctx, id)
	if err != nil {
		return 0, err
	}
	return releasable(s, ctx.Timestamp())
}

func releasable(s Schedule, now uint64) (int64, error) {
	vested, err := s.Curve.Vested(now)
	if err != nil {
		return 0, err
	}
	if vested < s.Released {
		return 0, contract.Illegal("released above vested")
	}
	return vested - s.Released, nil
}

// Release pays amount to the beneficiary, everything releasable when amount is 0.
func (Vesting) Release(ctx *contract.Context, caller sdk.Address, id uint64, amount int64) (int64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if amount < 0 {
		return 0, contract.Invalid("negative amount")
	}
	s, err := contract.MustLoad(ctx, scheduleKey(id), "schedule")
	if err != nil {
		return 0, err
	}
	if caller != s.Beneficiary {
		return 0, contract.Unauthorized("not beneficiary")
	}
	if err := ctx.RequireAuth(caller); err != nil {
		return 0, err
	}
	avail, err := releasable(s, ctx.Timestamp())
	if err != nil {
		return 0, err
	}
	if amount == 0 {
		amount = avail
	}
	if amount == 0 {
		return 0, contract.Illegal("nothing to release")
	}
	if amount > avail {
		return 0, contract.Illegal("amount above releasable")
	}
	s.Released += amount
	contract.Store(ctx, scheduleKey(id), s)
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	if err := contract.TokenAt(ctx, cfg.Token).Pay(s.Beneficiary, amount); err != nil {
		return 0, err
	}
	emitReleaseEvent(ctx, id, s.Beneficiary, amount, s.Released)
	return amount, nil
}

// Revoke freezes the curve now and returns the unvested part to the admin.
func (Vesting) Revoke(ctx *contract.Context, caller sdk.Address, id uint64) (int64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := contract.RequireAdmin(ctx, caller); err != nil {
		return 0, err
	}
	s, err := contract.MustLoad(ctx, scheduleKey(id), "schedule")
	if err != nil {
		return 0, err
	}
	if !s.Revocable {
		return 0, contract.Illegal("schedule not revocable")
	}
	unvested, err := s.Curve.Revoke(ctx.Timestamp())
	if err != nil {
		return 0, err
	}
	contract.Store(ctx, scheduleKey(id), s)
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	if err := contract.TokenAt(ctx, cfg.Token).Pay(caller, unvested); err != nil {
		return 0, err
	}
	emitRevokeEvent(ctx, id, unvested)
	return unvested, nil
}

// CompleteMilestone marks a milestone reached, admin only.
func (Vesting) CompleteMilestone(ctx *contract.Context, caller sdk.Address, id uint64, milestone uint32) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := contract.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	s, err := contract.MustLoad(ctx, scheduleKey(id), "schedule")
	if err != nil {
		return err
	}
	if err := s.Curve.Complete(milestone, ctx.Timestamp()); err != nil {
		return err
	}
	contract.Store(ctx, scheduleKey(id), s)
	emitMilestoneEvent(ctx, id, milestone)
	return nil
}

// ModifySchedule replaces duration, cliff and milestones. The vested amount
// at the current time may not drop. Completed milestones keep their state
// when their id survives.
func (Vesting) ModifySchedule(ctx *contract.Context, caller sdk.Address, id uint64, cliff, duration uint64, milestones []vestcurve.Milestone) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := contract.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	s, err := contract.MustLoad(ctx, scheduleKey(id), "schedule")
	if err != nil {
		return err
	}
	if s.Curve.Revoked {
		return contract.Illegal("schedule revoked")
	}
	done := map[uint32]vestcurve.Milestone{}
	for _, m := range s.Curve.Milestones {
		if m.Completed {
			done[m.ID] = m
		}
	}
	next := s.Curve
	next.Cliff = cliff
	next.Duration = duration
	next.Milestones = make([]vestcurve.Milestone, len(milestones))
	for i, m := range milestones {
		m.Completed, m.CompletedAt = false, 0
		if prev, ok := done[m.ID]; ok {
			m.Completed, m.CompletedAt = true, prev.CompletedAt
		}
		next.Milestones[i] = m
	}
	if len(next.Milestones) == 0 {
		next.Milestones = nil
	}
	if err := vestcurve.CheckModification(s.Curve, next, ctx.Timestamp()); err != nil {
		return err
	}
	s.Curve = next
	contract.Store(ctx, scheduleKey(id), s)
	emitModifyEvent(ctx, id)
	return nil
}

// TransferBeneficiary hands the schedule over; the current beneficiary signs.
func (Vesting) TransferBeneficiary(ctx *contract.Context, caller sdk.Address, id uint64, to sdk.Address) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if !to.IsValid() {
		return contract.Invalid("invalid beneficiary")
	}
	s, err := contract.MustLoad(ctx, scheduleKey(id), "schedule")
	if err != nil {
		return err
	}
	if caller != s.Beneficiary {
		return contract.Unauthorized("not beneficiary")
	}
	if err := ctx.RequireAuth(caller); err != nil {
		return err
	}
	if to == s.Beneficiary {
		return contract.Invalid("same beneficiary")
	}
	contract.RemoveFromIndex(ctx, beneficiaryIndex(s.Beneficiary), id)
	contract.AddToIndex(ctx, beneficiaryIndex(to), id)
	s.Beneficiary = to
	contract.Store(ctx, scheduleKey(id), s)
	emitBeneficiaryEvent(ctx, id, caller, to)
	return nil
}

// parseMilestones reads "id:bps,id:bps".
func parseMilestones(raw string) ([]vestcurve.Milestone, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []vestcurve.Milestone
	for _, part := range strings.Split(raw, ",") {
		id, bps, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, contract.Invalid("invalid milestone")
		}
		mid, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			return nil, contract.Invalid("invalid milestone id")
		}
		pct, err := strconv.ParseUint(bps, 10, 32)
		if err != nil {
			return nil, contract.Invalid("invalid milestone bps")
		}
		out = append(out, vestcurve.Milestone{ID: uint32(mid), PercentBps: uint32(pct)})
	}
	return out, nil
}

func (v Vesting) Exports() contract.Exports {
	return contract.AdminExports().Merge(contract.Exports{
		// Example payload: "user:bob|1000|1000|100|1000|time||true"
		"create_schedule": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			p := Params{
				Beneficiary: args.Address(0, "beneficiary"),
				Total:       args.Amount(1, "total"),
				Start:       args.Uint(2, "start"),
				Cliff:       args.Uint(3, "cliff"),
				Duration:    args.Uint(4, "duration"),
				Revocable:   args.Bool(7),
			}
			if err := args.Err(); err != nil {
				return "", err
			}
			kind, err := vestcurve.ParseKind(args.Str(5))
			if err != nil {
				return "", err
			}
			p.Kind = kind
			if p.Milestones, err = parseMilestones(args.Str(6)); err != nil {
				return "", err
			}
			id, err := v.CreateSchedule(ctx, caller, p)
			return strconv.FormatUint(id, 10), err
		},
		"release": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "schedule id")
			var amount int64
			if args.Len() > 1 {
				amount = args.Amount(1, "amount")
			}
			if err := args.Err(); err != nil {
				return "", err
			}
			out, err := v.Release(ctx, caller, id, amount)
			return strconv.FormatInt(out, 10), err
		},
		"revoke": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "schedule id")
			if err := args.Err(); err != nil {
				return "", err
			}
			out, err := v.Revoke(ctx, caller, id)
			return strconv.FormatInt(out, 10), err
		},
		"complete_milestone": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "schedule id")
			ms := args.Uint32(1, "milestone")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", v.CompleteMilestone(ctx, caller, id, ms)
		},
		"releasable": func(ctx *contract.Context, _ sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "schedule id")
			if err := args.Err(); err != nil {
				return "", err
			}
			out, err := v.Releasable(ctx, id)
			return strconv.FormatInt(out, 10), err
		},
	})
}
