package contract

import "puzzlechain/sdk"

// -----------------------------------------------------------------------------
// Program instance: admin, config, pause flag, reentrancy guard
// -----------------------------------------------------------------------------

var (
	adminKey  = Singleton[sdk.Address](kAdmin)
	pausedKey = Singleton[bool](kPaused)
	guardKey  = Singleton[bool](kGuard)
)

// configKey holds the typed program config under the instance scope.
func configKey[C any]() Key[C] {
	return Singleton[C](kConfig)
}

// Initialize is the one-shot init every program runs. The admin key doubles as
// the "has been initialized" marker and is never removed.
func Initialize[C any](ctx *Context, admin sdk.Address, cfg C) error {
	if !admin.IsValid() {
		return Invalid("invalid admin")
	}
	if err := ctx.RequireAuth(admin); err != nil {
		return err
	}
	if Has(ctx, adminKey) {
		return Fail(KindAlreadyInitialized, "already initialized")
	}
	Store(ctx, adminKey, admin)
	Store(ctx, configKey[C](), cfg)
	emitInitializedEvent(ctx, admin)
	return nil
}

// IsInitialized returns true if the program has been initialized.
func IsInitialized(ctx *Context) bool {
	return Has(ctx, adminKey)
}

// RequireInitialized fails with NotInitialized before init.
func RequireInitialized(ctx *Context) error {
	if !IsInitialized(ctx) {
		return Fail(KindNotInitialized, "not initialized")
	}
	return nil
}

// Admin returns the program admin.
func Admin(ctx *Context) (sdk.Address, error) {
	a, ok := Load(ctx, adminKey)
	if !ok {
		return "", Fail(KindNotInitialized, "not initialized")
	}
	return a, nil
}

// RequireAdmin checks caller is the admin and that the admin consented.
func RequireAdmin(ctx *Context, caller sdk.Address) error {
	admin, err := Admin(ctx)
	if err != nil {
		return err
	}
	if caller != admin {
		return Fail(KindNotAdmin, "caller is not admin")
	}
	return ctx.RequireAuth(caller)
}

// SetAdmin hands the program over to a new admin.
func SetAdmin(ctx *Context, caller, next sdk.Address) error {
	if err := RequireAdmin(ctx, caller); err != nil {
		return err
	}
	if !next.IsValid() {
		return Invalid("invalid admin")
	}
	Store(ctx, adminKey, next)
	emitAdminChangedEvent(ctx, caller, next)
	return nil
}

// Config loads the typed program config.
func Config[C any](ctx *Context) (C, error) {
	var zero C
	if err := RequireInitialized(ctx); err != nil {
		return zero, err
	}
	cfg, ok := Load(ctx, configKey[C]())
	if !ok {
		return zero, Fail(KindNotInitialized, "config missing")
	}
	return cfg, nil
}

// UpdateConfig lets the admin rewrite the config through mutate.
func UpdateConfig[C any](ctx *Context, caller sdk.Address, mutate func(*C) error) error {
	if err := RequireAdmin(ctx, caller); err != nil {
		return err
	}
	cfg, err := Config[C](ctx)
	if err != nil {
		return err
	}
	if err := mutate(&cfg); err != nil {
		return err
	}
	Store(ctx, configKey[C](), cfg)
	ctx.Emit("cfg", sdk.Addr("by", caller))
	return nil
}

// ReplaceConfig stores cfg without an admin check. It is the write path of
// programs whose config is governed by their own votes.
func ReplaceConfig[C any](ctx *Context, cfg C) error {
	if err := RequireInitialized(ctx); err != nil {
		return err
	}
	Store(ctx, configKey[C](), cfg)
	ctx.Emit("cfg", sdk.Addr("by", ctx.Self()))
	return nil
}

// SetPaused flips the pause flag, admin only.
func SetPaused(ctx *Context, caller sdk.Address, paused bool) error {
	if err := RequireAdmin(ctx, caller); err != nil {
		return err
	}
	Store(ctx, pausedKey, paused)
	emitPausedEvent(ctx, paused)
	return nil
}

func IsPaused(ctx *Context) bool {
	return LoadOr(ctx, pausedKey, false)
}

// RequireActive is the admission check of every mutating operation: initialized and not paused.
func RequireActive(ctx *Context) error {
	if err := RequireInitialized(ctx); err != nil {
		return err
	}
	if IsPaused(ctx) {
		return Illegal("paused")
	}
	return nil
}

// Enter sets the reentrancy guard of the running program, Exit clears it.
func Enter(ctx *Context) error {
	if LoadOr(ctx, guardKey, false) {
		return Fail(KindReentrancy, "reentrant call")
	}
	Store(ctx, guardKey, true)
	return nil
}

func Exit(ctx *Context) {
	Remove(ctx, guardKey)
}

// RequireNotEntered fails while the guard is held.
func RequireNotEntered(ctx *Context) error {
	if LoadOr(ctx, guardKey, false) {
		return Fail(KindReentrancy, "reentrant call")
	}
	return nil
}
