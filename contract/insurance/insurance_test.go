package insurance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puzzlechain/contract"
	"puzzlechain/contract/contracttest"
	"puzzlechain/contract/insurance"
	"puzzlechain/sdk"
)

var (
	insAddr     = sdk.Contract("insurance")
	admin       = contracttest.Admin
	underwriter = sdk.User("underwriter")
	assessor    = sdk.User("assessor")
	alice       = sdk.User("alice")
	bob         = sdk.User("bob")
	ins         = insurance.New()
)

func setup(t *testing.T) *contracttest.Env {
	e := contracttest.New(t)
	e.Register(insAddr, ins)
	e.Must(insAddr, admin, func(ctx *contract.Context) error {
		return ins.Init(ctx, admin, insurance.Config{
			Token:         contracttest.TokenAddr,
			RateBps:       500,
			WaitingPeriod: 100,
			ClaimCooldown: 1000,
		})
	})
	e.Fund(underwriter, 5000)
	e.Must(insAddr, underwriter, func(ctx *contract.Context) error {
		_, err := ins.Underwrite(ctx, underwriter, 5000)
		return err
	})
	return e
}

func buy(e *contracttest.Env, who sdk.Address, coverage int64, duration uint64, risk insurance.Risk) uint64 {
	var id uint64
	e.Must(insAddr, who, func(ctx *contract.Context) error {
		var err error
		id, err = ins.BuyPolicy(ctx, who, 7, coverage, duration, risk)
		return err
	})
	return id
}

func fileClaim(e *contracttest.Env, who sdk.Address, policy uint64, amount int64, evidence string) error {
	return e.Invoke(insAddr, who, func(ctx *contract.Context) error {
		_, err := ins.FileClaim(ctx, who, policy, amount, evidence)
		return err
	})
}

func TestQuote(t *testing.T) {
	e := setup(t)
	e.View(insAddr, func(ctx *contract.Context) error {
		q, err := ins.Quote(ctx, 1000, insurance.RiskHigh)
		require.NoError(t, err)
		assert.Equal(t, int64(100), q)
		q, err = ins.Quote(ctx, 1000, insurance.RiskMedium)
		require.NoError(t, err)
		assert.Equal(t, int64(75), q)
		q, err = ins.Quote(ctx, 333, insurance.RiskLow)
		require.NoError(t, err)
		assert.Equal(t, int64(17), q)
		return nil
	})
}

func TestClaimLifecycle(t *testing.T) {
	e := setup(t)
	e.Fund(alice, 200)
	policy := buy(e, alice, 1000, 5000, insurance.RiskHigh)
	assert.Equal(t, int64(100), e.Balance(alice))

	e.Fails(contract.KindExhausted, insAddr, alice, func(ctx *contract.Context) error {
		_, err := ins.BuyPolicy(ctx, alice, 7, 4500, 5000, insurance.RiskLow)
		return err
	})
	e.Fails(contract.KindExhausted, insAddr, underwriter, func(ctx *contract.Context) error {
		_, err := ins.WithdrawCapital(ctx, underwriter, 5000)
		return err
	})

	e.At(1050)
	contracttest.RequireKind(t, fileClaim(e, alice, policy, 400, "photo-1"), contract.KindFraud)

	e.At(1100)
	require.NoError(t, fileClaim(e, alice, policy, 400, "photo-1"))
	contracttest.RequireKind(t, fileClaim(e, alice, policy, 400, "photo-9"), contract.KindIllegalState)

	e.Fails(contract.KindUnauthorized, insAddr, assessor, func(ctx *contract.Context) error {
		return ins.ApproveClaim(ctx, assessor, 1)
	})
	e.Must(insAddr, admin, func(ctx *contract.Context) error {
		return ins.AddAssessor(ctx, admin, assessor)
	})
	e.Must(insAddr, assessor, func(ctx *contract.Context) error {
		return ins.RejectClaim(ctx, assessor, 1, "blurry")
	})

	e.At(1200)
	contracttest.RequireKind(t, fileClaim(e, alice, policy, 400, "photo-1"), contract.KindFraud)
	contracttest.RequireKind(t, fileClaim(e, alice, policy, 400, "photo-2"), contract.KindFraud)

	e.At(2100)
	require.NoError(t, fileClaim(e, alice, policy, 400, "photo-2"))
	e.Must(insAddr, assessor, func(ctx *contract.Context) error {
		return ins.ApproveClaim(ctx, assessor, 2)
	})
	assert.Equal(t, int64(500), e.Balance(alice))

	e.View(insAddr, func(ctx *contract.Context) error {
		p, err := ins.Policy(ctx, policy)
		require.NoError(t, err)
		assert.Equal(t, insurance.PolicyClaimed, p.Status)
		pool := ins.Pool(ctx)
		assert.Equal(t, int64(4600), pool.Capital)
		assert.Equal(t, int64(0), pool.Locked)
		assert.Equal(t, int64(400), pool.ClaimsPaid)
		return nil
	})

	var premiums, capital int64
	e.Must(insAddr, underwriter, func(ctx *contract.Context) error {
		var err error
		if premiums, err = ins.ClaimPremiums(ctx, underwriter); err != nil {
			return err
		}
		capital, err = ins.WithdrawCapital(ctx, underwriter, 5000)
		return err
	})
	assert.Equal(t, int64(100), premiums)
	assert.Equal(t, int64(4600), capital)
	assert.Equal(t, int64(4700), e.Balance(underwriter))
}

func TestFlaggedHolderAndExpiry(t *testing.T) {
	e := setup(t)
	e.Fund(bob, 300)
	policy := buy(e, bob, 1000, 500, insurance.RiskLow)

	e.Fails(contract.KindNotAdmin, insAddr, bob, func(ctx *contract.Context) error {
		return ins.FlagHolder(ctx, bob, bob, false)
	})
	e.Must(insAddr, admin, func(ctx *contract.Context) error {
		return ins.FlagHolder(ctx, admin, bob, true)
	})
	e.At(1200)
	contracttest.RequireKind(t, fileClaim(e, bob, policy, 100, "receipt"), contract.KindFraud)
	e.Fails(contract.KindFraud, insAddr, bob, func(ctx *contract.Context) error {
		_, err := ins.BuyPolicy(ctx, bob, 7, 100, 500, insurance.RiskLow)
		return err
	})

	e.Fails(contract.KindIllegalState, insAddr, admin, func(ctx *contract.Context) error {
		return ins.ExpirePolicy(ctx, policy)
	})
	e.At(1501)
	contracttest.RequireKind(t, fileClaim(e, bob, policy, 100, "receipt"), contract.KindExpired)
	e.Must(insAddr, admin, func(ctx *contract.Context) error {
		return ins.ExpirePolicy(ctx, policy)
	})
	e.View(insAddr, func(ctx *contract.Context) error {
		assert.Equal(t, int64(0), ins.Pool(ctx).Locked)
		assert.True(t, ins.IsFlagged(ctx, bob))
		assert.Equal(t, []uint64{policy}, ins.PoliciesOf(ctx, bob))
		return nil
	})
}

func TestDispatchBuyPolicy(t *testing.T) {
	e := setup(t)
	e.Fund(alice, 100)
	out, err := e.Host.Dispatch(insAddr, alice, "buy_policy", "7|1000|3600|medium")
	require.NoError(t, err)
	assert.Equal(t, "1", out)
	assert.Equal(t, int64(25), e.Balance(alice))
}
