// Package shares is the per-share reward accumulator shared by fractional
// vaults, farming pools, battle pass seasons and DAO staking.
//
// A pool carries acc (reward per share scaled by AccScale). A holder carries
// its balance, a debt anchor and what it has already earned but not claimed.
// Around every balance change the holder is settled against acc, the balance
// moves, and the debt is re-anchored.
package shares

import (
	"math"

	"github.com/holiman/uint256"

	"puzzlechain/contract"
)

// AccScale is the fixed point scale of Pool.Acc.
const AccScale = 1_000_000_000_000

var accScale = uint256.NewInt(AccScale)

// Pool is the parent entity's accounting state.
type Pool struct {
	TotalShares int64  `json:"total"`
	Acc         string `json:"acc"` // decimal uint256
	Deposited   int64  `json:"dep"`
	Paid        int64  `json:"paid"`
}

// Holder is one owner's accounting state.
type Holder struct {
	Balance   int64 `json:"bal"`
	Debt      int64 `json:"debt"`
	Claimable int64 `json:"claim"`
}

func (p *Pool) acc() *uint256.Int {
	if p.Acc == "" {
		return new(uint256.Int)
	}
	z, err := uint256.FromDecimal(p.Acc)
	if err != nil {
		panic("shares: corrupt accumulator " + p.Acc)
	}
	return z
}

func (p *Pool) setAcc(z *uint256.Int) {
	p.Acc = z.Dec()
}

// AccValue exposes the accumulator for views and tests.
func (p *Pool) AccValue() *uint256.Int {
	return p.acc()
}

// accrued is balance*acc/AccScale, the holder's lifetime entitlement at the current acc.
func (p *Pool) accrued(balance int64) (int64, error) {
	if balance < 0 {
		return 0, contract.Illegal("negative share balance")
	}
	prod, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(uint64(balance)), p.acc())
	if overflow {
		return 0, contract.Fail(contract.KindOverflow, "share accrual overflow")
	}
	q := prod.Div(prod, accScale)
	if !q.IsUint64() || q.Uint64() > math.MaxInt64 {
		return 0, contract.Fail(contract.KindOverflow, "share accrual overflow")
	}
	return int64(q.Uint64()), nil
}

// Deposit spreads reward over the current supply. With no shares outstanding
// there is nobody to credit, so the deposit is refused.
func (p *Pool) Deposit(reward int64) error {
	if reward <= 0 {
		return contract.Invalid("reward must be positive")
	}
	if p.TotalShares <= 0 {
		return contract.Illegal("no shares outstanding")
	}
	inc, overflow := new(uint256.Int).MulDivOverflow(uint256.NewInt(uint64(reward)), accScale, uint256.NewInt(uint64(p.TotalShares)))
	if overflow {
		return contract.Fail(contract.KindOverflow, "accumulator overflow")
	}
	next, overflow := new(uint256.Int).AddOverflow(p.acc(), inc)
	if overflow {
		return contract.Fail(contract.KindOverflow, "accumulator overflow")
	}
	dep, err := contract.AddAmount(p.Deposited, reward)
	if err != nil {
		return err
	}
	p.setAcc(next)
	p.Deposited = dep
	return nil
}

// Settle moves everything earned since the last anchor into Claimable.
func (p *Pool) Settle(h *Holder) error {
	accumulated, err := p.accrued(h.Balance)
	if err != nil {
		return err
	}
	if pending := accumulated - h.Debt; pending > 0 {
		c, err := contract.AddAmount(h.Claimable, pending)
		if err != nil {
			return err
		}
		h.Claimable = c
	}
	return nil
}

// Anchor resets the debt to the holder's entitlement at the current acc.
func (p *Pool) Anchor(h *Holder) error {
	d, err := p.accrued(h.Balance)
	if err != nil {
		return err
	}
	h.Debt = d
	return nil
}

// Pending is what a claim right now would pay, without mutating anything.
func (p *Pool) Pending(h Holder) (int64, error) {
	if err := p.Settle(&h); err != nil {
		return 0, err
	}
	return h.Claimable, nil
}

// Add mints n shares to h.
func (p *Pool) Add(h *Holder, n int64) error {
	if n < 0 {
		return contract.Invalid("negative shares")
	}
	if err := p.Settle(h); err != nil {
		return err
	}
	bal, err := contract.AddAmount(h.Balance, n)
	if err != nil {
		return err
	}
	total, err := contract.AddAmount(p.TotalShares, n)
	if err != nil {
		return err
	}
	h.Balance, p.TotalShares = bal, total
	return p.Anchor(h)
}

// Sub burns n shares from h.
func (p *Pool) Sub(h *Holder, n int64) error {
	if n < 0 {
		return contract.Invalid("negative shares")
	}
	if n > h.Balance {
		return contract.Illegal("insufficient shares")
	}
	if err := p.Settle(h); err != nil {
		return err
	}
	h.Balance -= n
	p.TotalShares -= n
	return p.Anchor(h)
}

// Move transfers n shares between two holders; the supply is unchanged.
func (p *Pool) Move(from, to *Holder, n int64) error {
	if n <= 0 {
		return contract.Invalid("share amount must be positive")
	}
	if n > from.Balance {
		return contract.Illegal("insufficient shares")
	}
	if err := p.Settle(from); err != nil {
		return err
	}
	if err := p.Settle(to); err != nil {
		return err
	}
	bal, err := contract.AddAmount(to.Balance, n)
	if err != nil {
		return err
	}
	from.Balance -= n
	to.Balance = bal
	if err := p.Anchor(from); err != nil {
		return err
	}
	return p.Anchor(to)
}

// Claim settles h and takes everything claimable. The caller pays it out.
func (p *Pool) Claim(h *Holder) (int64, error) {
	if err := p.Settle(h); err != nil {
		return 0, err
	}
	out := h.Claimable
	h.Claimable = 0
	paid, err := contract.AddAmount(p.Paid, out)
	if err != nil {
		return 0, err
	}
	p.Paid = paid
	return out, p.Anchor(h)
}

// Forfeit drops whatever h has earned, used by emergency exits. The amount
// stays in the pool as residual.
func (p *Pool) Forfeit(h *Holder) error {
	h.Claimable = 0
	return p.Anchor(h)
}
