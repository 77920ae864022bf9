// Package contracttest wires a host with a reference token and NFT so program
// tests only deal with their own calls.
package contracttest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"puzzlechain/contract"
	"puzzlechain/contract/nft"
	"puzzlechain/contract/token"
	"puzzlechain/sdk"
)

var (
	Admin     = sdk.User("admin")
	TokenAddr = sdk.Contract("token")
	NFTAddr   = sdk.Contract("nft")
)

// Env is one test's chain.
type Env struct {
	T    *testing.T
	Host *contract.Host
	tok  *token.Token
	nft  *nft.NFT
}

// New boots a host at timestamp 1000 / sequence 1 with an initialized token and NFT.
func New(t *testing.T) *Env {
	t.Helper()
	return NewAt(t, sdk.Ledger{Timestamp: 1000, Sequence: 1})
}

// NewAt is New starting from a chosen ledger position.
func NewAt(t *testing.T, ledger sdk.Ledger) *Env {
	t.Helper()
	cfg := contract.DefaultHostConfig()
	cfg.Ledger = ledger
	h := contract.NewHost(contract.WithConfig(cfg), contract.WithLogger(zaptest.NewLogger(t)))
	e := &Env{T: t, Host: h, tok: token.New(), nft: nft.New()}
	e.Register(TokenAddr, e.tok)
	e.Register(NFTAddr, e.nft)
	e.Must(TokenAddr, Admin, func(ctx *contract.Context) error {
		return e.tok.Init(ctx, Admin, token.Config{Name: "Puzzle Coin", Symbol: "PZL", Decimals: 7})
	})
	e.Must(NFTAddr, Admin, func(ctx *contract.Context) error {
		return e.nft.Init(ctx, Admin, nft.Config{Name: "Puzzle Achievements"})
	})
	return e
}

// Register binds a contract and fails the test on error.
func (e *Env) Register(addr sdk.Address, c any) {
	e.T.Helper()
	require.NoError(e.T, e.Host.Register(addr, c))
}

// NewToken registers and initializes another token.
func (e *Env) NewToken(name string) sdk.Address {
	e.T.Helper()
	addr := sdk.Contract(name)
	e.Register(addr, e.tok)
	e.Must(addr, Admin, func(ctx *contract.Context) error {
		return e.tok.Init(ctx, Admin, token.Config{Name: name, Symbol: name})
	})
	return addr
}

// Invoke runs fn at addr signed by signer.
func (e *Env) Invoke(addr, signer sdk.Address, fn func(*contract.Context) error) error {
	return e.Host.Invoke(addr, []sdk.Address{signer}, fn)
}

// InvokeAs is Invoke with several signers.
func (e *Env) InvokeAs(addr sdk.Address, signers []sdk.Address, fn func(*contract.Context) error) error {
	return e.Host.Invoke(addr, signers, fn)
}

// Must is Invoke that has to succeed.
func (e *Env) Must(addr, signer sdk.Address, fn func(*contract.Context) error) {
	e.T.Helper()
	require.NoError(e.T, e.Invoke(addr, signer, fn))
}

// Fails asserts the call aborts with kind.
func (e *Env) Fails(kind contract.Kind, addr, signer sdk.Address, fn func(*contract.Context) error) {
	e.T.Helper()
	RequireKind(e.T, e.Invoke(addr, signer, fn), kind)
}

// View runs a read at addr.
func (e *Env) View(addr sdk.Address, fn func(*contract.Context) error) {
	e.T.Helper()
	require.NoError(e.T, e.Host.View(addr, fn))
}

// Fund mints amount of the default token to who.
func (e *Env) Fund(who sdk.Address, amount int64) {
	e.FundToken(TokenAddr, who, amount)
}

func (e *Env) FundToken(tok, who sdk.Address, amount int64) {
	e.T.Helper()
	e.Must(tok, Admin, func(ctx *contract.Context) error {
		return e.tok.Mint(ctx, Admin, who, amount)
	})
}

// Balance reads the default token balance of who.
func (e *Env) Balance(who sdk.Address) int64 {
	return e.BalanceOf(TokenAddr, who)
}

func (e *Env) BalanceOf(tok, who sdk.Address) int64 {
	e.T.Helper()
	var bal int64
	e.View(tok, func(ctx *contract.Context) error {
		var err error
		bal, err = e.tok.Balance(ctx, who)
		return err
	})
	return bal
}

// MintNFT issues an achievement for puzzleID to to and returns the token id.
func (e *Env) MintNFT(to sdk.Address, puzzleID uint32) uint32 {
	e.T.Helper()
	var id uint32
	e.Must(NFTAddr, Admin, func(ctx *contract.Context) error {
		var err error
		id, err = e.nft.Mint(ctx, Admin, to, puzzleID)
		return err
	})
	return id
}

// OwnerOf reads the NFT owner.
func (e *Env) OwnerOf(tokenID uint32) sdk.Address {
	e.T.Helper()
	var owner sdk.Address
	e.View(NFTAddr, func(ctx *contract.Context) error {
		var err error
		owner, err = e.nft.OwnerOf(ctx, tokenID)
		return err
	})
	return owner
}

// At moves the ledger clock.
func (e *Env) At(ts uint64) {
	e.T.Helper()
	require.NoError(e.T, e.Host.SetTimestamp(ts))
}

// AtSeq moves the ledger sequence.
func (e *Env) AtSeq(seq uint64) {
	e.T.Helper()
	require.NoError(e.T, e.Host.SetSequence(seq))
}

// Events returns the committed events with topic.
func (e *Env) Events(topic string) []sdk.Event {
	var out []sdk.Event
	for _, ev := range e.Host.Events() {
		if ev.Topic == topic {
			out = append(out, ev)
		}
	}
	return out
}

// RequireKind asserts err carries kind.
func RequireKind(t testing.TB, err error, kind contract.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, contract.KindOf(err), "error: %v", err)
}
