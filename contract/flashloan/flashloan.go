// Package flashloan lends pooled liquidity for the duration of a single
// callback. The borrowed amount plus fee must be back in the program's
// custody when the callback returns, otherwise the whole transaction aborts.
package flashloan

import (
	"strconv"

	"puzzlechain/contract"
	"puzzlechain/sdk"
)

// Borrower is implemented by contracts that accept a flash loan. The callback
// runs as the borrower contract and has to hand amount+fee back to the
// lending program before it returns.
type Borrower interface {
	OnFlashLoan(ctx *contract.Context, initiator, token sdk.Address, amount, fee int64, data string) error
}

type Config struct {
	FeeBps          uint32 `json:"fee_bps"`
	MaxLoanRatioBps uint32 `json:"max_ratio_bps"`
}

func (c Config) validate() error {
	var chk contract.Checks
	chk.Bps(c.FeeBps, "fee")
	chk.Bps(c.MaxLoanRatioBps, "max loan ratio")
	chk.Require(c.MaxLoanRatioBps > 0, "max loan ratio must be positive")
	return chk.Err()
}

// Pool is the liquidity of one token.
type Pool struct {
	Token         sdk.Address `json:"token"`
	Available     int64       `json:"available"`
	TotalShares   int64       `json:"shares"`
	FeesCollected int64       `json:"fees"`
	TotalBorrowed int64       `json:"borrowed"`
}

type LoanStatus uint8

const (
	LoanActive LoanStatus = iota + 1
	LoanRepaid
	LoanDefaulted
)

func (s LoanStatus) String() string {
	switch s {
	case LoanActive:
		return "active"
	case LoanRepaid:
		return "repaid"
	case LoanDefaulted:
		return "defaulted"
	default:
		return "unknown"
	}
}

type Loan struct {
	ID       uint64      `json:"id"`
	Borrower sdk.Address `json:"borrower"`
	Receiver sdk.Address `json:"receiver"`
	Token    sdk.Address `json:"token"`
	Amount   int64       `json:"amount"`
	Fee      int64       `json:"fee"`
	Status   LoanStatus  `json:"status"`
	At       uint64      `json:"at"`
}

// Stats are program wide analytics.
type Stats struct {
	Loans  uint64 `json:"loans"`
	Volume int64  `json:"volume"`
	Fees   int64  `json:"fees"`
}

type FlashLoan struct{}

func New() *FlashLoan { return &FlashLoan{} }

func (FlashLoan) Init(ctx *contract.Context, admin sdk.Address, cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	return contract.Initialize(ctx, admin, cfg)
}

// SetFee changes fee and ratio, admin only.
func (FlashLoan) SetFee(ctx *contract.Context, caller sdk.Address, feeBps, maxRatioBps uint32) error {
	return contract.UpdateConfig(ctx, caller, func(c *Config) error {
		next := Config{FeeBps: feeBps, MaxLoanRatioBps: maxRatioBps}
		if err := next.validate(); err != nil {
			return err
		}
		*c = next
		return nil
	})
}

func (FlashLoan) Pool(ctx *contract.Context, token sdk.Address) (Pool, error) {
	if err := contract.RequireInitialized(ctx); err != nil {
		return Pool{}, err
	}
	return contract.MustLoad(ctx, poolKey(token), "pool")
}

func (FlashLoan) Loan(ctx *contract.Context, id uint64) (Loan, error) {
	return contract.MustLoad(ctx, loanKey(id), "loan")
}

func (FlashLoan) Stats(ctx *contract.Context) Stats {
	return contract.LoadOr(ctx, statsKey, Stats{})
}

// Shares is a lender's LP balance in the token pool.
func (FlashLoan) Shares(ctx *contract.Context, token, lender sdk.Address) int64 {
	return contract.LoadOr(ctx, lpKey(token, lender), 0)
}

// LoansOf lists loan ids a borrower took.
func (FlashLoan) LoansOf(ctx *contract.Context, borrower sdk.Address) []uint64 {
	return contract.IndexIDs(ctx, borrowerIndex(borrower))
}

// AddLiquidity deposits amount and mints LP shares at the current pool price.
// The first deposit mints one share per unit.
func (FlashLoan) AddLiquidity(ctx *contract.Context, lender, token sdk.Address, amount int64) (int64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := contract.RequireNotEntered(ctx); err != nil {
		return 0, err
	}
	if err := contract.RequirePositive(amount, "amount"); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(lender); err != nil {
		return 0, err
	}
	p := contract.LoadOr(ctx, poolKey(token), Pool{Token: token})
	minted := amount
	if p.TotalShares > 0 && p.Available > 0 {
		var err error
		if minted, err = contract.MulDiv(amount, p.TotalShares, p.Available); err != nil {
			return 0, err
		}
	}
	if minted <= 0 {
		return 0, contract.Invalid("deposit too small")
	}
	if err := contract.TokenAt(ctx, token).Pull(lender, amount); err != nil {
		return 0, err
	}
	var err error
	if p.Available, err = contract.AddAmount(p.Available, amount); err != nil {
		return 0, err
	}
	if p.TotalShares, err = contract.AddAmount(p.TotalShares, minted); err != nil {
		return 0, err
	}
	held, err := contract.AddAmount(contract.LoadOr(ctx, lpKey(token, lender), 0), minted)
	if err != nil {
		return 0, err
	}
	contract.Store(ctx, poolKey(token), p)
	contract.Store(ctx, lpKey(token, lender), held)
	emitLiquidityEvent(ctx, "fl_add", lender, token, amount, minted)
	return minted, nil
}

// RemoveLiquidity burns shares and pays out their part of the available liquidity.
func (FlashLoan) RemoveLiquidity(ctx *contract.Context, lender, token sdk.Address, shares int64) (int64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := contract.RequireNotEntered(ctx); err != nil {
		return 0, err
	}
	if err := contract.RequirePositive(shares, "shares"); err != nil {
		return 0, err
	}
	if err := ctx.RequireAuth(lender); err != nil {
		return 0, err
	}
	p, err := contract.MustLoad(ctx, poolKey(token), "pool")
	if err != nil {
		return 0, err
	}
	held, err := contract.SubAmount(contract.LoadOr(ctx, lpKey(token, lender), 0), shares, "shares")
	if err != nil {
		return 0, err
	}
	amount, err := contract.MulDiv(shares, p.Available, p.TotalShares)
	if err != nil {
		return 0, err
	}
	p.Available -= amount
	p.TotalShares -= shares
	contract.Store(ctx, poolKey(token), p)
	if held == 0 {
		contract.Remove(ctx, lpKey(token, lender))
	} else {
		contract.Store(ctx, lpKey(token, lender), held)
	}
	if err := contract.TokenAt(ctx, token).Pay(lender, amount); err != nil {
		return 0, err
	}
	emitLiquidityEvent(ctx, "fl_remove", lender, token, amount, shares)
	return amount, nil
}

// FlashLoan sends amount to receiver, runs its callback and checks the
// program got amount+fee back. A shortfall aborts everything.
// Example payload: fl.FlashLoan(ctx, trader, sdk.Contract("arb"), token, 5000, "route:3")
func (FlashLoan) FlashLoan(ctx *contract.Context, borrower, receiver, token sdk.Address, amount int64, data string) (Loan, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return Loan{}, err
	}
	if err := contract.RequireNotEntered(ctx); err != nil {
		return Loan{}, err
	}
	if err := contract.RequirePositive(amount, "amount"); err != nil {
		return Loan{}, err
	}
	if err := ctx.RequireAuth(borrower); err != nil {
		return Loan{}, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return Loan{}, err
	}
	p, err := contract.MustLoad(ctx, poolKey(token), "pool")
	if err != nil {
		return Loan{}, err
	}
	limit, err := contract.Bps(p.Available, cfg.MaxLoanRatioBps)
	if err != nil {
		return Loan{}, err
	}
	if amount > limit {
		return Loan{}, contract.Invalid("amount above max loan ratio")
	}
	cb, err := contract.Lookup[Borrower](ctx, receiver)
	if err != nil {
		return Loan{}, err
	}

	if err := contract.Enter(ctx); err != nil {
		return Loan{}, err
	}
	fee, err := contract.Bps(amount, cfg.FeeBps)
	if err != nil {
		return Loan{}, err
	}
	repayment, err := contract.AddAmount(amount, fee)
	if err != nil {
		return Loan{}, err
	}
	loan := Loan{
		ID:       contract.NextID(ctx, "loan"),
		Borrower: borrower,
		Receiver: receiver,
		Token:    token,
		Amount:   amount,
		Fee:      fee,
		Status:   LoanActive,
		At:       ctx.Timestamp(),
	}
	p.Available -= amount
	if p.TotalBorrowed, err = contract.AddAmount(p.TotalBorrowed, amount); err != nil {
		return Loan{}, err
	}
	contract.Store(ctx, poolKey(token), p)
	contract.Store(ctx, loanKey(loan.ID), loan)

	tok := contract.TokenAt(ctx, token)
	if err := tok.Pay(receiver, amount); err != nil {
		return Loan{}, err
	}
	self := ctx.Self()
	err = ctx.CallUntrusted(receiver, func(rc *contract.Context) error {
		return cb.OnFlashLoan(rc, self, token, amount, fee, data)
	})
	if err != nil {
		return Loan{}, err
	}
	contract.Exit(ctx)

	bal, err := tok.Balance(self)
	if err != nil {
		return Loan{}, err
	}
	if bal < p.Available+repayment {
		ctx.Logger().Info("flash loan not repaid")
		return Loan{}, contract.Fail(contract.KindThreshold, "loan not repaid")
	}

	p.Available += repayment
	p.FeesCollected += fee
	p.TotalBorrowed -= amount
	contract.Store(ctx, poolKey(token), p)
	loan.Status = LoanRepaid
	contract.Store(ctx, loanKey(loan.ID), loan)
	contract.AddToIndex(ctx, borrowerIndex(borrower), loan.ID)

	st := contract.LoadOr(ctx, statsKey, Stats{})
	st.Loans++
	if st.Volume, err = contract.AddAmount(st.Volume, amount); err != nil {
		return Loan{}, err
	}
	if st.Fees, err = contract.AddAmount(st.Fees, fee); err != nil {
		return Loan{}, err
	}
	contract.Store(ctx, statsKey, st)
	emitLoanEvent(ctx, loan)
	return loan, nil
}

func (f FlashLoan) Exports() contract.Exports {
	return contract.AdminExports().Merge(contract.Exports{
		"add_liquidity": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			token := args.Address(0, "token")
			amount := args.Amount(1, "amount")
			if err := args.Err(); err != nil {
				return "", err
			}
			minted, err := f.AddLiquidity(ctx, caller, token, amount)
			return strconv.FormatInt(minted, 10), err
		},
		"remove_liquidity": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			token := args.Address(0, "token")
			shares := args.Amount(1, "shares")
			if err := args.Err(); err != nil {
				return "", err
			}
			out, err := f.RemoveLiquidity(ctx, caller, token, shares)
			return strconv.FormatInt(out, 10), err
		},
		"flash_loan": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			receiver := args.Address(0, "receiver")
			token := args.Address(1, "token")
			amount := args.Amount(2, "amount")
			if err := args.Err(); err != nil {
				return "", err
			}
			loan, err := f.FlashLoan(ctx, caller, receiver, token, amount, args.Str(3))
			return strconv.FormatUint(loan.ID, 10), err
		},
		"set_fee": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			fee := args.Uint32(0, "fee")
			ratio := args.Uint32(1, "ratio")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", f.SetFee(ctx, caller, fee, ratio)
		},
	})
}
