package contract_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puzzlechain/contract"
	"puzzlechain/contract/contracttest"
	"puzzlechain/sdk"
)

var (
	scratchAddr = sdk.Contract("scratch")
	alice       = sdk.User("alice")
	bob         = sdk.User("bob")
)

type scratch struct{}

type scratchConfig struct {
	Limit int64 `json:"limit"`
}

var noteKey = contract.Singleton[string](contract.FirstProgramTag)

func setup(t *testing.T) *contracttest.Env {
	e := contracttest.New(t)
	e.Register(scratchAddr, scratch{})
	return e
}

func TestFailedOperationRollsBackEverything(t *testing.T) {
	e := setup(t)
	e.Fund(alice, 100)
	before := len(e.Host.Events())

	err := e.Invoke(scratchAddr, alice, func(ctx *contract.Context) error {
		contract.Store(ctx, noteKey, "written")
		if err := contract.TokenAt(ctx, contracttest.TokenAddr).Pull(alice, 60); err != nil {
			return err
		}
		return contract.Fail(contract.KindThreshold, "shortfall")
	})
	contracttest.RequireKind(t, err, contract.KindThreshold)

	assert.Equal(t, int64(100), e.Balance(alice))
	assert.Zero(t, e.Balance(scratchAddr))
	assert.Len(t, e.Host.Events(), before)
	e.View(scratchAddr, func(ctx *contract.Context) error {
		assert.False(t, contract.Has(ctx, noteKey))
		return nil
	})
}

func TestPanicBecomesIllegalState(t *testing.T) {
	e := setup(t)
	err := e.Invoke(scratchAddr, alice, func(ctx *contract.Context) error {
		contract.Store(ctx, noteKey, "x")
		panic("boom")
	})
	contracttest.RequireKind(t, err, contract.KindIllegalState)
	e.View(scratchAddr, func(ctx *contract.Context) error {
		assert.False(t, contract.Has(ctx, noteKey))
		return nil
	})
}

func TestFailedNestedCallLeavesNoTrace(t *testing.T) {
	e := setup(t)
	e.Fund(alice, 50)
	e.Must(scratchAddr, alice, func(ctx *contract.Context) error {
		err := ctx.Call(contracttest.TokenAddr, func(tc *contract.Context) error {
			contract.Store(tc, noteKey, "child")
			return contract.Illegal("nope")
		})
		require.Error(t, err)
		contract.Store(ctx, noteKey, "parent")
		return nil
	})
	e.View(scratchAddr, func(ctx *contract.Context) error {
		v, ok := contract.Load(ctx, noteKey)
		assert.True(t, ok)
		assert.Equal(t, "parent", v)
		return nil
	})
	e.View(contracttest.TokenAddr, func(ctx *contract.Context) error {
		assert.False(t, contract.Has(ctx, noteKey))
		return nil
	})
}

func TestRequireAuth(t *testing.T) {
	e := setup(t)
	e.Must(scratchAddr, alice, func(ctx *contract.Context) error {
		require.NoError(t, ctx.RequireAuth(alice))
		contracttest.RequireKind(t, ctx.RequireAuth(bob), contract.KindUnauthorized)
		return ctx.Call(contracttest.TokenAddr, func(tc *contract.Context) error {
			assert.Equal(t, scratchAddr, tc.Invoker())
			return tc.RequireAuth(scratchAddr)
		})
	})
}

func TestUntrustedCallDropsSigners(t *testing.T) {
	e := setup(t)
	e.Must(scratchAddr, alice, func(ctx *contract.Context) error {
		require.NoError(t, ctx.Call(contracttest.TokenAddr, func(tc *contract.Context) error {
			return tc.RequireAuth(alice)
		}))
		return ctx.CallUntrusted(contracttest.TokenAddr, func(tc *contract.Context) error {
			contracttest.RequireKind(t, tc.RequireAuth(alice), contract.KindUnauthorized)
			assert.NoError(t, tc.RequireAuth(scratchAddr))
			// nothing nested below an untrusted frame gets the signers back
			return tc.Call(contracttest.NFTAddr, func(nc *contract.Context) error {
				contracttest.RequireKind(t, nc.RequireAuth(alice), contract.KindUnauthorized)
				return nil
			})
		})
	})
}

// skimmer is a call target whose exported method tries to move the signer's tokens.
type skimmer struct{}

func (skimmer) Exports() contract.Exports {
	return contract.Exports{
		"skim": func(ctx *contract.Context, _ sdk.Address, args *contract.Args) (string, error) {
			return "", contract.TokenAt(ctx, contracttest.TokenAddr).Transfer(alice, bob, 10)
		},
	}
}

func TestCallExportTargetCannotSpendSigner(t *testing.T) {
	e := setup(t)
	skimAddr := sdk.Contract("skimmer")
	e.Register(skimAddr, skimmer{})
	e.Fund(alice, 10)

	e.Fails(contract.KindUnauthorized, scratchAddr, alice, func(ctx *contract.Context) error {
		_, err := contract.CallExport(ctx, skimAddr, "skim", "")
		return err
	})
	assert.Equal(t, int64(10), e.Balance(alice))
	assert.Zero(t, e.Balance(bob))
}

func TestInstanceLifecycle(t *testing.T) {
	e := setup(t)
	e.Fails(contract.KindNotInitialized, scratchAddr, alice, func(ctx *contract.Context) error {
		return contract.RequireActive(ctx)
	})
	e.Fails(contract.KindUnauthorized, scratchAddr, bob, func(ctx *contract.Context) error {
		return contract.Initialize(ctx, alice, scratchConfig{Limit: 1})
	})
	e.Must(scratchAddr, alice, func(ctx *contract.Context) error {
		return contract.Initialize(ctx, alice, scratchConfig{Limit: 1})
	})
	e.Fails(contract.KindAlreadyInitialized, scratchAddr, alice, func(ctx *contract.Context) error {
		return contract.Initialize(ctx, alice, scratchConfig{Limit: 2})
	})
	e.Fails(contract.KindNotAdmin, scratchAddr, bob, func(ctx *contract.Context) error {
		return contract.SetPaused(ctx, bob, true)
	})
	e.Must(scratchAddr, alice, func(ctx *contract.Context) error {
		return contract.SetPaused(ctx, alice, true)
	})
	e.Fails(contract.KindIllegalState, scratchAddr, alice, func(ctx *contract.Context) error {
		return contract.RequireActive(ctx)
	})
	e.Must(scratchAddr, alice, func(ctx *contract.Context) error {
		return contract.UpdateConfig(ctx, alice, func(c *scratchConfig) error {
			c.Limit = 9
			return nil
		})
	})
	e.View(scratchAddr, func(ctx *contract.Context) error {
		cfg, err := contract.Config[scratchConfig](ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(9), cfg.Limit)
		return nil
	})
}

func TestReentrancyGuard(t *testing.T) {
	e := setup(t)
	e.Must(scratchAddr, alice, func(ctx *contract.Context) error {
		require.NoError(t, contract.Enter(ctx))
		contracttest.RequireKind(t, contract.Enter(ctx), contract.KindReentrancy)
		contract.Exit(ctx)
		return contract.RequireNotEntered(ctx)
	})
}

func TestCountersNeverReuse(t *testing.T) {
	e := setup(t)
	var ids []uint64
	for i := 0; i < 3; i++ {
		e.Must(scratchAddr, alice, func(ctx *contract.Context) error {
			ids = append(ids, contract.NextID(ctx, "thing"))
			return nil
		})
	}
	_ = e.Invoke(scratchAddr, alice, func(ctx *contract.Context) error {
		contract.NextID(ctx, "thing")
		return errors.New("abort")
	})
	e.Must(scratchAddr, alice, func(ctx *contract.Context) error {
		ids = append(ids, contract.NextID(ctx, "thing"))
		return nil
	})
	assert.Equal(t, []uint64{1, 2, 3, 4}, ids)
}

func TestChunkedIndex(t *testing.T) {
	e := setup(t)
	e.Must(scratchAddr, alice, func(ctx *contract.Context) error {
		for i := uint64(1); i <= 300; i++ {
			contract.AddToIndex(ctx, "big", i)
		}
		contract.AddToIndex(ctx, "big", 5)
		assert.Len(t, contract.IndexIDs(ctx, "big"), 300)
		assert.True(t, contract.RemoveFromIndex(ctx, "big", 299))
		assert.False(t, contract.RemoveFromIndex(ctx, "big", 299))
		assert.False(t, contract.InIndex(ctx, "big", 299))
		assert.True(t, contract.InIndex(ctx, "big", 300))
		return nil
	})
}

func TestTemporaryEntriesExpire(t *testing.T) {
	e := setup(t)
	e.Must(scratchAddr, alice, func(ctx *contract.Context) error {
		contract.StoreTemp(ctx, noteKey, "soon gone", 2)
		return nil
	})
	e.Host.Advance(5)
	e.Host.Advance(5)
	e.View(scratchAddr, func(ctx *contract.Context) error {
		assert.True(t, contract.Has(ctx, noteKey))
		return nil
	})
	e.Host.Advance(5)
	e.View(scratchAddr, func(ctx *contract.Context) error {
		assert.False(t, contract.Has(ctx, noteKey))
		return nil
	})
}

func TestExtendTTL(t *testing.T) {
	e := setup(t)
	e.Must(scratchAddr, alice, func(ctx *contract.Context) error {
		contract.StoreTemp(ctx, noteKey, "x", 3)
		before, _ := contract.TTL(ctx, noteKey)
		require.NoError(t, contract.ExtendTTL(ctx, noteKey, 2, 100))
		after, _ := contract.TTL(ctx, noteKey)
		assert.Equal(t, before, after) // still 3 ledgers left, above low
		require.NoError(t, contract.ExtendTTL(ctx, noteKey, 10, 100))
		after, _ = contract.TTL(ctx, noteKey)
		assert.Equal(t, ctx.Sequence()+100, after)
		contracttest.RequireKind(t, contract.ExtendTTL(ctx, noteKey, 5, 1), contract.KindInvalidArgument)
		return nil
	})
}

func TestEventsOnlyAfterCommit(t *testing.T) {
	e := setup(t)
	var got []sdk.Event
	require.NoError(t, e.Host.Subscribe(contract.TopicFor(scratchAddr), func(ev sdk.Event) {
		got = append(got, ev)
	}))
	_ = e.Invoke(scratchAddr, alice, func(ctx *contract.Context) error {
		ctx.Emit("lost")
		return contract.Illegal("abort")
	})
	e.Must(scratchAddr, alice, func(ctx *contract.Context) error {
		ctx.Emit("kept", sdk.U64("id", 7), sdk.Addr("by", alice))
		return nil
	})
	require.Len(t, got, 1)
	assert.Equal(t, "kept|id:7|by:user:alice", got[0].String())
	raw, err := got[0].MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"contract":"contract:scratch","topic":"kept","seq":1,"ts":1000,"attrs":{"id":"7","by":"user:alice"}}`, string(raw))
}

func TestClockIsMonotonic(t *testing.T) {
	e := setup(t)
	contracttest.RequireKind(t, e.Host.SetTimestamp(10), contract.KindInvalidArgument)
	require.NoError(t, e.Host.SetTimestamp(2000))
	assert.Equal(t, uint64(2000), e.Host.Ledger().Timestamp)
}

func TestUnknownContract(t *testing.T) {
	e := setup(t)
	err := e.Invoke(sdk.Contract("ghost"), alice, func(*contract.Context) error { return nil })
	contracttest.RequireKind(t, err, contract.KindNotFound)
}

func TestSubscriberCannotReenterHost(t *testing.T) {
	e := setup(t)
	var inner error
	require.NoError(t, e.Host.Subscribe(contract.TopicFor(scratchAddr), func(sdk.Event) {
		inner = e.Host.View(scratchAddr, func(*contract.Context) error { return nil })
	}))
	e.Must(scratchAddr, alice, func(ctx *contract.Context) error {
		ctx.Emit("ping")
		return nil
	})
	contracttest.RequireKind(t, inner, contract.KindIllegalState)
	assert.Contains(t, inner.Error(), "host busy")
	// once the outer call returned the host is free again
	e.View(scratchAddr, func(*contract.Context) error { return nil })
}
