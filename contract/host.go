package contract

import (
	"fmt"
	"sync"

	evbus "github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"puzzlechain/sdk"
)

// TopicEvents is the bus topic every committed event is published on. Per
// program subscribers use TopicFor.
const TopicEvents = "events"

// TopicFor is the per-program bus topic.
func TopicFor(addr sdk.Address) string {
	return TopicEvents + ":" + addr.String()
}

// Host runs program operations one at a time against a committed store. It
// plays the chain: ledger clock, auth oracle, contract registry and event sink.
type Host struct {
	mu        sync.Mutex
	cfg       HostConfig
	log       *zap.Logger
	state     *MemState
	ledger    sdk.Ledger
	contracts map[sdk.Address]any
	bus       evbus.Bus
	events    []sdk.Event
}

type Option func(*Host)

func WithLogger(l *zap.Logger) Option {
	return func(h *Host) { h.log = l }
}

func WithConfig(cfg HostConfig) Option {
	return func(h *Host) {
		h.cfg = cfg
		h.ledger = cfg.Ledger
	}
}

func NewHost(opts ...Option) *Host {
	cfg := DefaultHostConfig()
	h := &Host{
		cfg:       cfg,
		log:       zap.NewNop(),
		state:     NewMemState(),
		ledger:    cfg.Ledger,
		contracts: make(map[sdk.Address]any),
		bus:       evbus.New(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Register binds a program (or collaborator contract) to an address.
func (h *Host) Register(addr sdk.Address, c any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !addr.IsValid() || !addr.IsContract() {
		return Failf(KindInvalidArgument, "invalid contract address %q", addr)
	}
	if _, ok := h.contracts[addr]; ok {
		return Failf(KindIllegalState, "contract %s already registered", addr)
	}
	h.contracts[addr] = c
	h.log.Debug("contract registered", zap.String("contract", addr.String()), zap.String("type", fmt.Sprintf("%T", c)))
	return nil
}

// Ledger returns the current chain position.
func (h *Host) Ledger() sdk.Ledger {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ledger
}

// SetTimestamp moves the clock. It never moves backwards.
func (h *Host) SetTimestamp(ts uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ts < h.ledger.Timestamp {
		return Invalid("timestamp moves backwards")
	}
	h.ledger.Timestamp = ts
	return nil
}

// SetSequence moves the ledger sequence, also monotonic.
func (h *Host) SetSequence(seq uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if seq < h.ledger.Sequence {
		return Invalid("sequence moves backwards")
	}
	h.ledger.Sequence = seq
	return nil
}

// Advance closes a ledger: the clock moves by secs and the sequence by one.
func (h *Host) Advance(secs uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ledger.Timestamp += secs
	h.ledger.Sequence++
}

// Logger is the host logger.
func (h *Host) Logger() *zap.Logger {
	return h.log
}

// State exposes the committed store.
func (h *Host) State() *MemState {
	return h.state
}

// Events returns a copy of every committed event so far.
func (h *Host) Events() []sdk.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]sdk.Event, len(h.events))
	copy(out, h.events)
	return out
}

// Subscribe attaches a consumer to the event bus. fn receives one sdk.Event per call.
// fn runs synchronously while the host still holds the transaction lock, so it
// must not call Invoke, View or Dispatch: those fail with IllegalState "host busy".
// Queue the follow-up and run it once the outer call has returned.
func (h *Host) Subscribe(topic string, fn func(sdk.Event)) error {
	return h.bus.Subscribe(topic, fn)
}

// Invoke runs op as one atomic transaction on behalf of signers. Either every
// write of op (and of the contracts it calls) commits, or none does. Events are
// only published after a commit.
func (h *Host) Invoke(addr sdk.Address, signers []sdk.Address, op func(*Context) error) error {
	return h.run(addr, signers, op, false)
}

// View runs op against the current state and throws every write away.
func (h *Host) View(addr sdk.Address, op func(*Context) error) error {
	return h.run(addr, nil, op, true)
}

func (h *Host) run(addr sdk.Address, signers []sdk.Address, op func(*Context) error, readOnly bool) error {
	if !h.mu.TryLock() {
		return Illegal("host busy")
	}
	defer h.mu.Unlock()
	if _, ok := h.contracts[addr]; !ok {
		return NotFound("contract " + addr.String())
	}

	ctx := &Context{
		host:    h,
		frame:   newFrame(h.state),
		self:    addr,
		signers: make(map[sdk.Address]struct{}, len(signers)),
		log:     h.log.With(zap.String("contract", addr.String())),
	}
	for _, s := range signers {
		ctx.signers[s] = struct{}{}
	}

	err := runGuarded(ctx, op)
	fields := []zap.Field{
		zap.String("contract", addr.String()),
		zap.Uint64("seq", h.ledger.Sequence),
		zap.Uint64("ts", h.ledger.Timestamp),
	}
	if err != nil {
		h.log.Debug("operation aborted", append(fields, zap.Stringer("kind", KindOf(err)), zap.Error(err))...)
		return err
	}
	if readOnly {
		return nil
	}

	ctx.frame.commit()
	for i := range ctx.events {
		ev := ctx.events[i]
		ev.Sequence = h.ledger.Sequence
		ev.Timestamp = h.ledger.Timestamp
		h.events = append(h.events, ev)
		h.log.Debug("event", zap.String("line", ev.String()))
		h.bus.Publish(TopicEvents, ev)
		h.bus.Publish(TopicFor(ev.Contract), ev)
	}
	h.log.Debug("operation committed", append(fields, zap.Int("events", len(ctx.events)))...)
	return nil
}

// runGuarded turns a panic inside a program into an aborted transaction.
func runGuarded(ctx *Context, op func(*Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ctx.log.Error("operation panicked", zap.Any("panic", r))
			err = Failf(KindIllegalState, "panic: %v", r)
		}
	}()
	return op(ctx)
}
