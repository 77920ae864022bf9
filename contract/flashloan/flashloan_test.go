package flashloan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puzzlechain/contract"
	"puzzlechain/contract/contracttest"
	"puzzlechain/contract/flashloan"
	"puzzlechain/sdk"
)

var (
	flAddr   = sdk.Contract("flashloan")
	arbAddr  = sdk.Contract("arb")
	lender   = sdk.User("lender")
	borrower = sdk.User("borrower")
	mallory  = sdk.User("mallory")
	fl       = flashloan.New()
)

// arb repays a fixed amount (amount+fee when zero), optionally trying to
// borrow again first. skim is then moved out of the borrower's own wallet.
type arb struct {
	repay   int64
	reenter bool
	skim    int64
}

func (a *arb) OnFlashLoan(ctx *contract.Context, initiator, token sdk.Address, amount, fee int64, data string) error {
	if a.reenter {
		err := ctx.Call(initiator, func(fc *contract.Context) error {
			_, err := fl.FlashLoan(fc, borrower, arbAddr, token, 1, data)
			return err
		})
		if err != nil {
			return err
		}
	}
	repay := a.repay
	if repay == 0 {
		repay = amount + fee
	}
	tok := contract.TokenAt(ctx, token)
	if err := tok.Transfer(ctx.Self(), initiator, repay); err != nil {
		return err
	}
	if a.skim > 0 {
		return tok.Transfer(borrower, mallory, a.skim)
	}
	return nil
}

func setup(t *testing.T, cb *arb) *contracttest.Env {
	e := contracttest.New(t)
	e.Register(flAddr, fl)
	e.Register(arbAddr, cb)
	e.Must(flAddr, contracttest.Admin, func(ctx *contract.Context) error {
		return fl.Init(ctx, contracttest.Admin, flashloan.Config{FeeBps: 10, MaxLoanRatioBps: 8000})
	})
	e.Fund(lender, 10_000)
	e.Fund(arbAddr, 5)
	e.Must(flAddr, lender, func(ctx *contract.Context) error {
		minted, err := fl.AddLiquidity(ctx, lender, contracttest.TokenAddr, 10_000)
		assert.Equal(t, int64(10_000), minted)
		return err
	})
	return e
}

func borrow(e *contracttest.Env, amount int64) error {
	return e.Invoke(flAddr, borrower, func(ctx *contract.Context) error {
		_, err := fl.FlashLoan(ctx, borrower, arbAddr, contracttest.TokenAddr, amount, "")
		return err
	})
}

func pool(e *contracttest.Env) flashloan.Pool {
	var p flashloan.Pool
	e.View(flAddr, func(ctx *contract.Context) error {
		var err error
		p, err = fl.Pool(ctx, contracttest.TokenAddr)
		return err
	})
	return p
}

func TestLoanRepaidWithFee(t *testing.T) {
	e := setup(t, &arb{repay: 5005})
	require.NoError(t, borrow(e, 5000))

	p := pool(e)
	assert.Equal(t, int64(10_005), p.Available)
	assert.Equal(t, int64(5), p.FeesCollected)
	assert.Zero(t, p.TotalBorrowed)
	assert.Equal(t, int64(10_005), e.Balance(flAddr))
	assert.Zero(t, e.Balance(arbAddr))

	e.View(flAddr, func(ctx *contract.Context) error {
		loan, err := fl.Loan(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, flashloan.LoanRepaid, loan.Status)
		assert.Equal(t, int64(5), loan.Fee)
		assert.Equal(t, flashloan.Stats{Loans: 1, Volume: 5000, Fees: 5}, fl.Stats(ctx))
		assert.Equal(t, []uint64{1}, fl.LoansOf(ctx, borrower))
		return nil
	})
	require.Len(t, e.Events("fl_loan"), 1)
}

func TestShortRepaymentAbortsEverything(t *testing.T) {
	e := setup(t, &arb{repay: 5004})
	err := borrow(e, 5000)
	contracttest.RequireKind(t, err, contract.KindThreshold)

	p := pool(e)
	assert.Equal(t, int64(10_000), p.Available)
	assert.Zero(t, p.FeesCollected)
	assert.Equal(t, int64(10_000), e.Balance(flAddr))
	assert.Equal(t, int64(5), e.Balance(arbAddr))
	e.Fails(contract.KindNotFound, flAddr, borrower, func(ctx *contract.Context) error {
		_, err := fl.Loan(ctx, 1)
		return err
	})
}

func TestLoanAdmission(t *testing.T) {
	e := setup(t, &arb{})
	e.Fund(arbAddr, 10)
	contracttest.RequireKind(t, borrow(e, 8001), contract.KindInvalidArgument)
	contracttest.RequireKind(t, borrow(e, 0), contract.KindInvalidArgument)
	require.NoError(t, borrow(e, 8000))
}

func TestReentrantBorrowRefused(t *testing.T) {
	e := setup(t, &arb{repay: 5005, reenter: true})
	contracttest.RequireKind(t, borrow(e, 5000), contract.KindReentrancy)
	assert.Equal(t, int64(10_000), pool(e).Available)
}

func TestLiquidityFollowsFees(t *testing.T) {
	e := setup(t, &arb{repay: 5005})
	require.NoError(t, borrow(e, 5000))

	e.Must(flAddr, lender, func(ctx *contract.Context) error {
		out, err := fl.RemoveLiquidity(ctx, lender, contracttest.TokenAddr, 5_000)
		assert.Equal(t, int64(5_002), out)
		return err
	})
	assert.Equal(t, int64(5_002), e.Balance(lender))
	e.Fails(contract.KindIllegalState, flAddr, lender, func(ctx *contract.Context) error {
		_, err := fl.RemoveLiquidity(ctx, lender, contracttest.TokenAddr, 5_001)
		return err
	})
}

func TestSetFeeIsAdminOnly(t *testing.T) {
	e := setup(t, &arb{repay: 5000})
	e.Fails(contract.KindNotAdmin, flAddr, lender, func(ctx *contract.Context) error {
		return fl.SetFee(ctx, lender, 0, 8000)
	})
	e.Fails(contract.KindInvalidArgument, flAddr, contracttest.Admin, func(ctx *contract.Context) error {
		return fl.SetFee(ctx, contracttest.Admin, 10_001, 8000)
	})
	_, err := e.Host.Dispatch(flAddr, contracttest.Admin, "set_fee", "0|8000")
	require.NoError(t, err)
	require.NoError(t, borrow(e, 5000))
	assert.Equal(t, int64(10_000), pool(e).Available)
}

func TestReceiverCannotSpendBorrowerWallet(t *testing.T) {
	e := setup(t, &arb{repay: 5005, skim: 1000})
	e.Fund(borrower, 1000)

	contracttest.RequireKind(t, borrow(e, 5000), contract.KindUnauthorized)
	assert.Equal(t, int64(1000), e.Balance(borrower))
	assert.Zero(t, e.Balance(mallory))
	assert.Equal(t, int64(10_000), pool(e).Available)
}
