// Package payout holds the fan-out shapes escrowed funds leave a program in:
// full refund, winner-take-all, fee/royalty split and proportional shares.
package payout

import (
	"puzzlechain/contract"
	"puzzlechain/sdk"
)

// Payment is one outgoing transfer.
type Payment struct {
	To     sdk.Address
	Amount int64
}

// Split is the result of a sale: seller + fee + royalty == price.
type Split struct {
	Seller  int64
	Fee     int64
	Royalty int64
}

// FeeRoyalty floors fee and royalty; the rounding residual stays with the seller.
// Example payload: payout.FeeRoyalty(900, 250, 500)
func FeeRoyalty(price int64, feeBps, royaltyBps uint32) (Split, error) {
	if price < 0 {
		return Split{}, contract.Invalid("negative price")
	}
	if err := contract.CheckBps(feeBps, "fee"); err != nil {
		return Split{}, err
	}
	if err := contract.CheckBps(royaltyBps, "royalty"); err != nil {
		return Split{}, err
	}
	if feeBps+royaltyBps > contract.BpsDenominator {
		return Split{}, contract.Invalid("fee plus royalty above 10000 bps")
	}
	fee, err := contract.Bps(price, feeBps)
	if err != nil {
		return Split{}, err
	}
	royalty, err := contract.Bps(price, royaltyBps)
	if err != nil {
		return Split{}, err
	}
	return Split{Seller: price - fee - royalty, Fee: fee, Royalty: royalty}, nil
}

// Proportional is share*pool/total, floored.
func Proportional(pool, share, total int64) (int64, error) {
	if total <= 0 {
		return 0, contract.Illegal("empty share total")
	}
	if share > total {
		return 0, contract.Invalid("share above total")
	}
	return contract.MulDiv(share, pool, total)
}

// Tiered splits pool by rank. The tiers must not exceed 100%; whatever the
// floors leave over is returned as residual for the caller to place.
func Tiered(pool int64, tiersBps []uint32) (amounts []int64, residual int64, err error) {
	var sum uint32
	for _, t := range tiersBps {
		if err := contract.CheckBps(t, "tier"); err != nil {
			return nil, 0, err
		}
		sum += t
	}
	if sum > contract.BpsDenominator {
		return nil, 0, contract.Invalid("tiers above 10000 bps")
	}
	amounts = make([]int64, len(tiersBps))
	residual = pool
	for i, t := range tiersBps {
		a, err := contract.Bps(pool, t)
		if err != nil {
			return nil, 0, err
		}
		amounts[i] = a
		residual -= a
	}
	return amounts, residual, nil
}

// SaleTo lays out the transfers of a split sale. Zero legs are dropped.
func SaleTo(split Split, seller, feeTo, creator sdk.Address) []Payment {
	out := make([]Payment, 0, 3)
	if split.Seller > 0 {
		out = append(out, Payment{To: seller, Amount: split.Seller})
	}
	if split.Fee > 0 {
		out = append(out, Payment{To: feeTo, Amount: split.Fee})
	}
	if split.Royalty > 0 {
		out = append(out, Payment{To: creator, Amount: split.Royalty})
	}
	return out
}

// Sum totals a payment list.
func Sum(ps []Payment) (int64, error) {
	var total int64
	for _, p := range ps {
		var err error
		if total, err = contract.AddAmount(total, p.Amount); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// Pay releases every payment out of the running program's custody.
func Pay(tok contract.TokenClient, ps []Payment) error {
	for _, p := range ps {
		if err := tok.Pay(p.To, p.Amount); err != nil {
			return err
		}
	}
	return nil
}

// Refund returns escrow in full to its depositor.
func Refund(tok contract.TokenClient, depositor sdk.Address, amount int64) error {
	return tok.Pay(depositor, amount)
}
