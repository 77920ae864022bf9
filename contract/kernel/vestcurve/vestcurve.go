// Package vestcurve computes vested amounts for time, milestone and hybrid schedules.
package vestcurve

import (
	"puzzlechain/contract"
)

// Kind selects the curve.
type Kind uint8

const (
	KindTime Kind = iota + 1
	KindMilestone
	KindHybrid
)

func (k Kind) String() string {
	switch k {
	case KindTime:
		return "time"
	case KindMilestone:
		return "milestone"
	case KindHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// ParseKind accepts the String form.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "time":
		return KindTime, nil
	case "milestone":
		return KindMilestone, nil
	case "hybrid":
		return KindHybrid, nil
	}
	return 0, contract.Invalid("unknown vesting type")
}

// Milestone unlocks PercentBps of the total once completed.
type Milestone struct {
	ID          uint32 `json:"id"`
	PercentBps  uint32 `json:"bps"`
	Completed   bool   `json:"done"`
	CompletedAt uint64 `json:"at,omitempty"`
}

// Curve is the pure part of a vesting schedule.
type Curve struct {
	Total      int64       `json:"total"`
	Start      uint64      `json:"start"`
	Cliff      uint64      `json:"cliff"`
	Duration   uint64      `json:"duration"`
	Kind       Kind        `json:"kind"`
	Milestones []Milestone `json:"milestones,omitempty"`
	Revoked    bool        `json:"revoked"`
	RevokedAt  uint64      `json:"revoked_at,omitempty"`
}

func (c Curve) usesTime() bool       { return c.Kind == KindTime || c.Kind == KindHybrid }
func (c Curve) usesMilestones() bool { return c.Kind == KindMilestone || c.Kind == KindHybrid }

// Validate checks the admission rules of a schedule.
func (c Curve) Validate() error {
	if c.Total <= 0 {
		return contract.Invalid("total must be positive")
	}
	switch c.Kind {
	case KindTime, KindMilestone, KindHybrid:
	default:
		return contract.Invalid("unknown vesting type")
	}
	if c.usesTime() {
		if c.Duration == 0 {
			return contract.Invalid("duration must be positive")
		}
		if c.Cliff > c.Duration {
			return contract.Invalid("cliff longer than duration")
		}
	}
	if c.usesMilestones() {
		if len(c.Milestones) == 0 {
			return contract.Invalid("milestones required")
		}
		var sum uint32
		seen := make(map[uint32]bool, len(c.Milestones))
		for _, m := range c.Milestones {
			if m.PercentBps == 0 {
				return contract.Invalid("milestone percent must be positive")
			}
			if seen[m.ID] {
				return contract.Invalid("duplicate milestone id")
			}
			seen[m.ID] = true
			sum += m.PercentBps
		}
		if sum != contract.BpsDenominator {
			return contract.Invalid("milestones must sum to 10000 bps")
		}
	} else if len(c.Milestones) > 0 {
		return contract.Invalid("milestones on a time schedule")
	}
	return nil
}

// Vested is the cumulative vested amount at now. Revocation freezes the curve.
func (c Curve) Vested(now uint64) (int64, error) {
	if c.Revoked && now > c.RevokedAt {
		now = c.RevokedAt
	}
	if now < c.Start+c.Cliff {
		return 0, nil
	}
	switch c.Kind {
	case KindTime:
		return c.timeVested(now)
	case KindMilestone:
		return c.milestoneVested(now)
	case KindHybrid:
		t, err := c.timeVested(now)
		if err != nil {
			return 0, err
		}
		m, err := c.milestoneVested(now)
		if err != nil {
			return 0, err
		}
		return min(t, m), nil
	}
	return 0, contract.Illegal("unknown vesting type")
}

func (c Curve) timeVested(now uint64) (int64, error) {
	elapsed := now - c.Start
	if elapsed >= c.Duration {
		return c.Total, nil
	}
	v, err := contract.MulDiv(c.Total, int64(elapsed), int64(c.Duration))
	if err != nil {
		return 0, err
	}
	return min(v, c.Total), nil
}

func (c Curve) milestoneVested(now uint64) (int64, error) {
	var bps int64
	for _, m := range c.Milestones {
		if m.Completed && m.CompletedAt <= now {
			bps += int64(m.PercentBps)
		}
	}
	return contract.MulDiv(c.Total, bps, contract.BpsDenominator)
}

// Complete marks a milestone done.
func (c *Curve) Complete(id uint32, now uint64) error {
	if !c.usesMilestones() {
		return contract.Illegal("schedule has no milestones")
	}
	if c.Revoked {
		return contract.Illegal("schedule revoked")
	}
	for i := range c.Milestones {
		if c.Milestones[i].ID != id {
			continue
		}
		if c.Milestones[i].Completed {
			return contract.Illegal("milestone already completed")
		}
		c.Milestones[i].Completed = true
		c.Milestones[i].CompletedAt = now
		return nil
	}
	return contract.NotFound("milestone")
}

// Revoke freezes the curve at now and returns the unvested remainder.
func (c *Curve) Revoke(now uint64) (int64, error) {
	if c.Revoked {
		return 0, contract.Illegal("schedule revoked")
	}
	vested, err := c.Vested(now)
	if err != nil {
		return 0, err
	}
	c.Revoked = true
	c.RevokedAt = now
	return c.Total - vested, nil
}

// CheckModification fails when next would vest less than prev at now.
func CheckModification(prev, next Curve, now uint64) error {
	if err := next.Validate(); err != nil {
		return err
	}
	before, err := prev.Vested(now)
	if err != nil {
		return err
	}
	after, err := next.Vested(now)
	if err != nil {
		return err
	}
	if after < before {
		return contract.Illegal("modification reduces vested amount")
	}
	return nil
}
