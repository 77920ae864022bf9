package contract

import (
	"go.uber.org/zap"

	"puzzlechain/sdk"
)

// Context is what a program sees while one of its operations runs: its own
// address, the principals that signed the transaction, the ledger, and the
// transactional state frame.
type Context struct {
	host    *Host
	frame   *frame
	self    sdk.Address
	invoker sdk.Address
	signers map[sdk.Address]struct{}
	depth   int
	events  []sdk.Event
	log     *zap.Logger
}

func (c *Context) state() State { return c.frame }

// Self is the address of the running program.
func (c *Context) Self() sdk.Address { return c.self }

// Invoker is the contract that called into this one, empty for top-level calls.
func (c *Context) Invoker() sdk.Address { return c.invoker }

func (c *Context) Timestamp() uint64 { return c.host.ledger.Timestamp }

func (c *Context) Sequence() uint64 { return c.host.ledger.Sequence }

// Sha256 is the host hash oracle.
func (c *Context) Sha256(b []byte) [32]byte { return sdk.Sha256(b) }

// Logger carries a contract field for the running program.
func (c *Context) Logger() *zap.Logger { return c.log }

// RequireAuth passes when p signed the transaction or p is the contract that
// directly called into this one.
func (c *Context) RequireAuth(p sdk.Address) error {
	if p == "" {
		return Invalid("empty principal")
	}
	if _, ok := c.signers[p]; ok {
		return nil
	}
	if c.invoker != "" && p == c.invoker {
		return nil
	}
	return Unauthorized("missing auth for " + p.String())
}

// Emit buffers an event; it only reaches the sink if the transaction commits.
func (c *Context) Emit(topic string, attrs ...sdk.Attr) {
	c.events = append(c.events, sdk.Event{Contract: c.self, Topic: topic, Attrs: attrs})
}

// Call runs fn as the contract at target, in a nested frame. A failing call
// leaves no trace; the error is handed back to the caller. The transaction
// signers stay authorized, so Call is for collaborators the running program
// chose itself, such as its settlement token.
func (c *Context) Call(target sdk.Address, fn func(*Context) error) error {
	return c.call(target, fn, c.signers)
}

// CallUntrusted is Call for code the running program does not vouch for:
// flash loan receivers and governance call targets. Inside it only the
// running program counts as authorized, never the transaction signers.
func (c *Context) CallUntrusted(target sdk.Address, fn func(*Context) error) error {
	return c.call(target, fn, nil)
}

func (c *Context) call(target sdk.Address, fn func(*Context) error, signers map[sdk.Address]struct{}) error {
	if c.depth+1 >= c.host.cfg.MaxCallDepth {
		return Illegal("call depth exceeded")
	}
	if _, ok := c.host.contracts[target]; !ok {
		return NotFound("contract " + target.String())
	}
	child := &Context{
		host:    c.host,
		frame:   newFrame(c.frame),
		self:    target,
		invoker: c.self,
		signers: signers,
		depth:   c.depth + 1,
		log:     c.host.log.With(zap.String("contract", target.String())),
	}
	if err := runGuarded(child, fn); err != nil {
		return err
	}
	child.frame.commit()
	c.events = append(c.events, child.events...)
	return nil
}

// Lookup resolves the contract registered at addr as T.
func Lookup[T any](ctx *Context, addr sdk.Address) (T, error) {
	var zero T
	c, ok := ctx.host.contracts[addr]
	if !ok {
		return zero, NotFound("contract " + addr.String())
	}
	impl, ok := c.(T)
	if !ok {
		return zero, Failf(KindIllegalState, "contract %s does not support %T", addr, (*T)(nil))
	}
	return impl, nil
}
