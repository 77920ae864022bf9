// Package fractional splits one NFT into fungible vault shares that earn
// rental income and can be bought out or recombined.
package fractional

import (
	"puzzlechain/contract"
	"puzzlechain/contract/kernel/shares"
	"puzzlechain/sdk"
)

type Config struct {
	MaxShares int64  `json:"max_shares"`
	MinBuyout uint64 `json:"min_buyout_secs"`
	MaxBuyout uint64 `json:"max_buyout_secs"`
}

type Vault struct {
	ID              uint64      `json:"id"`
	Curator         sdk.Address `json:"curator"`
	NFT             sdk.Address `json:"nft"`
	TokenID         uint32      `json:"token_id"`
	TotalShares     int64       `json:"total"`
	MinOwnershipBps uint32      `json:"min_bps"`
	MinHolding      int64       `json:"min_holding"`
	RentalToken     sdk.Address `json:"rental_token"`
	Rental          shares.Pool `json:"rental"`
	Buyout          uint64      `json:"buyout,omitempty"`
	Recombined      bool        `json:"recombined,omitempty"`
	CreatedAt       uint64      `json:"created"`
}

// Buyout escrows a price for the whole vault; holders tender into it.
type Buyout struct {
	ID         uint64      `json:"id"`
	Vault      uint64      `json:"vault"`
	Buyer      sdk.Address `json:"buyer"`
	Token      sdk.Address `json:"token"`
	PriceTotal int64       `json:"price"`
	Escrow     int64       `json:"escrow"`
	Tendered   int64       `json:"tendered"`
	EndTime    uint64      `json:"end"`
	Reclaimed  bool        `json:"reclaimed,omitempty"`
}

func (b Buyout) activeAt(now uint64) bool {
	return !b.Reclaimed && now <= b.EndTime
}

type Fractional struct{}

func New() *Fractional { return &Fractional{} }

func (Fractional) Init(ctx *contract.Context, admin sdk.Address, cfg Config) error {
	if cfg.MaxShares == 0 {
		cfg.MaxShares = 1_000_000_000_000
	}
	if cfg.MinBuyout == 0 {
		cfg.MinBuyout = 3600
	}
	if cfg.MaxBuyout == 0 {
		cfg.MaxBuyout = 30 * 24 * 3600
	}
	var chk contract.Checks
	chk.Positive(cfg.MaxShares, "max shares")
	chk.Require(cfg.MinBuyout <= cfg.MaxBuyout, "buyout window inverted")
	if err := chk.Err(); err != nil {
		return err
	}
	return contract.Initialize(ctx, admin, cfg)
}

func (Fractional) Vault(ctx *contract.Context, id uint64) (Vault, error) {
	return contract.MustLoad(ctx, vaultKey(id), "vault")
}

// Holder returns a holder's shares and what a rental claim would pay now.
func (Fractional) Holder(ctx *contract.Context, vault uint64, who sdk.Address) (balance, pending int64, err error) {
	v, err := contract.MustLoad(ctx, vaultKey(vault), "vault")
	if err != nil {
		return 0, 0, err
	}
	h := contract.LoadOr(ctx, holderKey(vault, who), shares.Holder{})
	pending, err = v.Rental.Pending(h)
	return h.Balance, pending, err
}

func (Fractional) Buyout(ctx *contract.Context, id uint64) (Buyout, error) {
	return contract.MustLoad(ctx, buyoutKey(id), "buyout")
}

func (Fractional) VaultsOf(ctx *contract.Context, curator sdk.Address) []uint64 {
	return contract.IndexIDs(ctx, curatorIndex(curator))
}

// Fractionalize takes the NFT into custody and mints every share to owner.
// Example payload: "contract:nft|4|1000|500|contract:token"
func (Fractional) Fractionalize(ctx *contract.Context, owner, nft sdk.Address, tokenID uint32, totalShares int64, minOwnershipBps uint32, rentalToken sdk.Address) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(owner); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	var chk contract.Checks
	chk.Address(nft, "nft")
	chk.Address(rentalToken, "rental token")
	chk.Positive(totalShares, "total shares")
	chk.Require(totalShares <= cfg.MaxShares, "total shares above maximum")
	chk.Bps(minOwnershipBps, "min ownership")
	if err := chk.Err(); err != nil {
		return 0, err
	}
	minHolding, err := contract.MulDivCeil(totalShares, int64(minOwnershipBps), contract.BpsDenominator)
	if err != nil {
		return 0, err
	}
	if err := contract.NFTAt(ctx, nft).Custody(owner, tokenID); err != nil {
		return 0, err
	}

	v := Vault{
		ID:              contract.NextID(ctx, "vault"),
		Curator:         owner,
		NFT:             nft,
		TokenID:         tokenID,
		MinOwnershipBps: minOwnershipBps,
		MinHolding:      minHolding,
		RentalToken:     rentalToken,
		CreatedAt:       ctx.Timestamp(),
	}
	var h shares.Holder
	if err := v.Rental.Add(&h, totalShares); err != nil {
		return 0, err
	}
	v.TotalShares = v.Rental.TotalShares
	contract.Store(ctx, vaultKey(v.ID), v)
	contract.Store(ctx, holderKey(v.ID, owner), h)
	contract.AddToIndex(ctx, curatorIndex(owner), v.ID)
	emitVaultEvent(ctx, v)
	return v.ID, nil
}

// checkHolding refuses a nonzero balance under the dust floor.
func (v Vault) checkHolding(balance int64) error {
	if balance != 0 && balance < v.MinHolding {
		return contract.Failf(contract.KindThreshold, "holding below minimum of %d shares", v.MinHolding)
	}
	return nil
}

func moveShares(ctx *contract.Context, v *Vault, from, to sdk.Address, n int64) error {
	if from == to {
		return contract.Invalid("cannot transfer to self")
	}
	src := contract.LoadOr(ctx, holderKey(v.ID, from), shares.Holder{})
	dst := contract.LoadOr(ctx, holderKey(v.ID, to), shares.Holder{})
	if err := v.Rental.Move(&src, &dst, n); err != nil {
		return err
	}
	if err := v.checkHolding(src.Balance); err != nil {
		return err
	}
	if err := v.checkHolding(dst.Balance); err != nil {
		return err
	}
	contract.Store(ctx, holderKey(v.ID, from), src)
	contract.Store(ctx, holderKey(v.ID, to), dst)
	emitSharesEvent(ctx, v.ID, from, to, n)
	return nil
}

func (Fractional) TransferShares(ctx *contract.Context, from sdk.Address, vault uint64, to sdk.Address, n int64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(from); err != nil {
		return err
	}
	if !to.IsValid() {
		return contract.Invalid("invalid recipient")
	}
	v, err := contract.MustLoad(ctx, vaultKey(vault), "vault")
	if err != nil {
		return err
	}
	if v.Recombined {
		return contract.Illegal("vault recombined")
	}
	if err := moveShares(ctx, &v, from, to, n); err != nil {
		return err
	}
	contract.Store(ctx, vaultKey(vault), v)
	return nil
}

// DepositRental spreads amount over the current share supply.
func (Fractional) DepositRental(ctx *contract.Context, from sdk.Address, vault uint64, amount int64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := contract.RequirePositive(amount, "amount"); err != nil {
		return err
	}
	v, err := contract.MustLoad(ctx, vaultKey(vault), "vault")
	if err != nil {
		return err
	}
	if v.Recombined {
		return contract.Illegal("vault recombined")
	}
	if err := contract.TokenAt(ctx, v.RentalToken).Pull(from, amount); err != nil {
		return err
	}
	if err := v.Rental.Deposit(amount); err != nil {
		return err
	}
	contract.Store(ctx, vaultKey(vault), v)
	emitRentalEvent(ctx, vault, from, amount, true)
	return nil
}

func (Fractional) ClaimRental(ctx *contract.Context, holder sdk.Address, vault uint64) (int64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(holder); err != nil {
		return 0, err
	}
	v, err := contract.MustLoad(ctx, vaultKey(vault), "vault")
	if err != nil {
		return 0, err
	}
	amount, err := claim(ctx, &v, holder)
	if err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, contract.Illegal("nothing to claim")
	}
	contract.Store(ctx, vaultKey(vault), v)
	return amount, nil
}

func claim(ctx *contract.Context, v *Vault, holder sdk.Address) (int64, error) {
	h := contract.LoadOr(ctx, holderKey(v.ID, holder), shares.Holder{})
	amount, err := v.Rental.Claim(&h)
	if err != nil {
		return 0, err
	}
	contract.Store(ctx, holderKey(v.ID, holder), h)
	if amount > 0 {
		if err := contract.TokenAt(ctx, v.RentalToken).Pay(holder, amount); err != nil {
			return 0, err
		}
		emitRentalEvent(ctx, v.ID, holder, amount, false)
	}
	return amount, nil
}

// StartBuyout escrows priceTotal; holders may tender until endTime.
func (Fractional) StartBuyout(ctx *contract.Context, buyer sdk.Address, vault uint64, token sdk.Address, priceTotal int64, endTime uint64) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(buyer); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	v, err := contract.MustLoad(ctx, vaultKey(vault), "vault")
	if err != nil {
		return 0, err
	}
	if v.Recombined {
		return 0, contract.Illegal("vault recombined")
	}
	now := ctx.Timestamp()
	if v.Buyout != 0 {
		if b, ok := contract.Load(ctx, buyoutKey(v.Buyout)); ok && b.activeAt(now) {
			return 0, contract.Illegal("buyout already active")
		}
	}
	var chk contract.Checks
	chk.Address(token, "token")
	chk.Positive(priceTotal, "price")
	chk.Require(endTime >= now+cfg.MinBuyout, "buyout window too short")
	chk.Require(endTime <= now+cfg.MaxBuyout, "buyout window too long")
	if err := chk.Err(); err != nil {
		return 0, err
	}
	if err := contract.TokenAt(ctx, token).Pull(buyer, priceTotal); err != nil {
		return 0, err
	}
	b := Buyout{
		ID:         contract.NextID(ctx, "buyout"),
		Vault:      vault,
		Buyer:      buyer,
		Token:      token,
		PriceTotal: priceTotal,
		Escrow:     priceTotal,
		EndTime:    endTime,
	}
	v.Buyout = b.ID
	contract.Store(ctx, buyoutKey(b.ID), b)
	contract.Store(ctx, vaultKey(vault), v)
	emitBuyoutEvent(ctx, b, "fr_buyout")
	return b.ID, nil
}

// Tender sells n shares into the active buyout at price_total*n/total_shares.
func (Fractional) Tender(ctx *contract.Context, holder sdk.Address, vault uint64, n int64) (int64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(holder); err != nil {
		return 0, err
	}
	v, err := contract.MustLoad(ctx, vaultKey(vault), "vault")
	if err != nil {
		return 0, err
	}
	if v.Buyout == 0 {
		return 0, contract.NotFound("buyout")
	}
	b, err := contract.MustLoad(ctx, buyoutKey(v.Buyout), "buyout")
	if err != nil {
		return 0, err
	}
	if !b.activeAt(ctx.Timestamp()) {
		return 0, contract.Fail(contract.KindExpired, "buyout ended")
	}
	if holder == b.Buyer {
		return 0, contract.Invalid("buyer cannot tender")
	}
	payout, err := contract.MulDiv(b.PriceTotal, n, v.TotalShares)
	if err != nil {
		return 0, err
	}
	if payout > b.Escrow {
		return 0, contract.Illegal("buyout escrow exhausted")
	}
	if err := moveShares(ctx, &v, holder, b.Buyer, n); err != nil {
		return 0, err
	}
	if err := contract.TokenAt(ctx, b.Token).Pay(holder, payout); err != nil {
		return 0, err
	}
	b.Escrow -= payout
	b.Tendered += n
	contract.Store(ctx, buyoutKey(b.ID), b)
	contract.Store(ctx, vaultKey(vault), v)
	emitBuyoutEvent(ctx, b, "fr_tender")
	return payout, nil
}

// ReclaimBuyout returns the residual escrow to the buyer after the window.
func (Fractional) ReclaimBuyout(ctx *contract.Context, buyer sdk.Address, buyout uint64) (int64, error) {
	if err := contract.RequireInitialized(ctx); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(buyer); err != nil {
		return 0, err
	}
	b, err := contract.MustLoad(ctx, buyoutKey(buyout), "buyout")
	if err != nil {
		return 0, err
	}
	if b.Buyer != buyer {
		return 0, contract.Unauthorized("not the buyer")
	}
	if b.Reclaimed {
		return 0, contract.Illegal("already reclaimed")
	}
	if ctx.Timestamp() <= b.EndTime {
		return 0, contract.Illegal("buyout still active")
	}
	residual := b.Escrow
	b.Escrow = 0
	b.Reclaimed = true
	if residual > 0 {
		if err := contract.TokenAt(ctx, b.Token).Pay(buyer, residual); err != nil {
			return 0, err
		}
	}
	contract.Store(ctx, buyoutKey(buyout), b)
	emitBuyoutEvent(ctx, b, "fr_reclaim")
	return residual, nil
}

// Recombine burns every share of a sole holder and releases the NFT to
// recipient. Pending rental of the holder is paid out first.
func (Fractional) Recombine(ctx *contract.Context, holder sdk.Address, vault uint64, recipient sdk.Address) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := ctx.RequireAuth(holder); err != nil {
		return err
	}
	if !recipient.IsValid() {
		return contract.Invalid("invalid recipient")
	}
	v, err := contract.MustLoad(ctx, vaultKey(vault), "vault")
	if err != nil {
		return err
	}
	if v.Recombined {
		return contract.Illegal("vault recombined")
	}
	if v.Buyout != 0 {
		if b, ok := contract.Load(ctx, buyoutKey(v.Buyout)); ok && b.activeAt(ctx.Timestamp()) {
			return contract.Illegal("buyout active")
		}
	}
	h := contract.LoadOr(ctx, holderKey(vault, holder), shares.Holder{})
	if h.Balance != v.TotalShares {
		return contract.Unauthorized("must hold every share")
	}
	if _, err := claim(ctx, &v, holder); err != nil {
		return err
	}
	h = contract.LoadOr(ctx, holderKey(vault, holder), shares.Holder{})
	if err := v.Rental.Sub(&h, h.Balance); err != nil {
		return err
	}
	v.Recombined = true
	contract.Store(ctx, holderKey(vault, holder), h)
	contract.Store(ctx, vaultKey(vault), v)
	if err := contract.NFTAt(ctx, v.NFT).Release(recipient, v.TokenID); err != nil {
		return err
	}
	emitRecombineEvent(ctx, vault, recipient)
	return nil
}
