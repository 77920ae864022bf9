// Package token is the reference fungible token the programs settle in. Its
// balances live in the host store, so they commit and roll back together with
// the program state that moved them.
package token

import (
	"strconv"

	"puzzlechain/contract"
	"puzzlechain/sdk"
)

const (
	kBalance byte = contract.FirstProgramTag + iota
	kMinter
	kSupply
)

func balanceKey(owner sdk.Address) contract.Key[int64] {
	return contract.KeyAddr[int64](kBalance, owner)
}

func minterKey(m sdk.Address) contract.Key[bool] {
	return contract.KeyAddr[bool](kMinter, m)
}

var supplyKey = contract.Singleton[int64](kSupply)

// Config describes the token.
type Config struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint32 `json:"decimals"`
}

// Token implements contract.Token, contract.Minter and contract.SupplyReader.
type Token struct{}

func New() *Token { return &Token{} }

// Init is the one-shot setup, the admin can mint and authorize minters.
func (Token) Init(ctx *contract.Context, admin sdk.Address, cfg Config) error {
	if cfg.Symbol == "" {
		return contract.Invalid("symbol required")
	}
	return contract.Initialize(ctx, admin, cfg)
}

func (Token) Balance(ctx *contract.Context, owner sdk.Address) (int64, error) {
	if err := contract.RequireInitialized(ctx); err != nil {
		return 0, err
	}
	return contract.LoadOr(ctx, balanceKey(owner), 0), nil
}

func (Token) TotalSupply(ctx *contract.Context) (int64, error) {
	if err := contract.RequireInitialized(ctx); err != nil {
		return 0, err
	}
	return contract.LoadOr(ctx, supplyKey, 0), nil
}

// Transfer moves amount from -> to. Zero is a no-op, negative is refused.
func (Token) Transfer(ctx *contract.Context, from, to sdk.Address, amount int64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if amount < 0 {
		return contract.Invalid("negative amount")
	}
	if !to.IsValid() {
		return contract.Invalid("invalid recipient")
	}
	if err := ctx.RequireAuth(from); err != nil {
		return err
	}
	if amount == 0 || from == to {
		return nil
	}
	fromBal, err := contract.SubAmount(contract.LoadOr(ctx, balanceKey(from), 0), amount, "balance")
	if err != nil {
		return err
	}
	toBal, err := contract.AddAmount(contract.LoadOr(ctx, balanceKey(to), 0), amount)
	if err != nil {
		return err
	}
	contract.Store(ctx, balanceKey(from), fromBal)
	contract.Store(ctx, balanceKey(to), toBal)
	emitTransferEvent(ctx, from, to, amount)
	return nil
}

// Mint creates amount for to. The minter is the admin or an authorized contract.
func (Token) Mint(ctx *contract.Context, minter, to sdk.Address, amount int64) error {
	if err := contract.RequireActive(ctx); err != nil {
		return err
	}
	if err := contract.RequirePositive(amount, "amount"); err != nil {
		return err
	}
	admin, err := contract.Admin(ctx)
	if err != nil {
		return err
	}
	if minter != admin && !contract.LoadOr(ctx, minterKey(minter), false) {
		return contract.Unauthorized("not a minter")
	}
	if err := ctx.RequireAuth(minter); err != nil {
		return err
	}
	supply, err := contract.AddAmount(contract.LoadOr(ctx, supplyKey, 0), amount)
	if err != nil {
		return err
	}
	bal, err := contract.AddAmount(contract.LoadOr(ctx, balanceKey(to), 0), amount)
	if err != nil {
		return err
	}
	contract.Store(ctx, supplyKey, supply)
	contract.Store(ctx, balanceKey(to), bal)
	emitMintEvent(ctx, minter, to, amount)
	return nil
}

// AuthorizeMinter is admin only; the admin must have signed.
func (Token) AuthorizeMinter(ctx *contract.Context, minter sdk.Address) error {
	admin, err := contract.Admin(ctx)
	if err != nil {
		return err
	}
	if err := ctx.RequireAuth(admin); err != nil {
		return contract.Fail(contract.KindNotAdmin, "admin auth required")
	}
	contract.Store(ctx, minterKey(minter), true)
	ctx.Emit("minter", sdk.Addr("m", minter))
	return nil
}

// IsMinter is a view for tests and tooling.
func (Token) IsMinter(ctx *contract.Context, minter sdk.Address) bool {
	return contract.LoadOr(ctx, minterKey(minter), false)
}

// Exports lets governance drive the token by name.
func (t Token) Exports() contract.Exports {
	return contract.AdminExports().Merge(contract.Exports{
		"transfer": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			to := args.Address(0, "to")
			amount := args.Amount(1, "amount")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", t.Transfer(ctx, caller, to, amount)
		},
		"mint": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			to := args.Address(0, "to")
			amount := args.Amount(1, "amount")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", t.Mint(ctx, caller, to, amount)
		},
		"balance": func(ctx *contract.Context, _ sdk.Address, args *contract.Args) (string, error) {
			owner := args.Address(0, "owner")
			if err := args.Err(); err != nil {
				return "", err
			}
			bal, err := t.Balance(ctx, owner)
			return strconv.FormatInt(bal, 10), err
		},
	})
}

func emitTransferEvent(ctx *contract.Context, from, to sdk.Address, amount int64) {
	ctx.Emit("xfer", sdk.Addr("f", from), sdk.Addr("t", to), sdk.I64("a", amount))
}

func emitMintEvent(ctx *contract.Context, minter, to sdk.Address, amount int64) {
	ctx.Emit("mint", sdk.Addr("by", minter), sdk.Addr("t", to), sdk.I64("a", amount))
}
