package contract

import "puzzlechain/sdk"

// -----------------------------------------------------------------------------
// Collaborator ABI. Every method runs with ctx bound to the collaborator itself.
// -----------------------------------------------------------------------------

// Token is the fungible token contract programs move funds through.
type Token interface {
	Transfer(ctx *Context, from, to sdk.Address, amount int64) error
	Balance(ctx *Context, owner sdk.Address) (int64, error)
}

// Minter is the optional mint surface used for reward tokens.
type Minter interface {
	Mint(ctx *Context, minter, to sdk.Address, amount int64) error
	AuthorizeMinter(ctx *Context, minter sdk.Address) error
}

// SupplyReader is the optional total supply view used by quorum math.
type SupplyReader interface {
	TotalSupply(ctx *Context) (int64, error)
}

// NFT is the non-fungible contract holding puzzle achievements and collectibles.
type NFT interface {
	OwnerOf(ctx *Context, tokenID uint32) (sdk.Address, error)
	Transfer(ctx *Context, from, to sdk.Address, tokenID uint32) error
}

// PuzzleIndex lists the puzzle ids an owner holds achievements for.
type PuzzleIndex interface {
	PuzzleIDsOf(ctx *Context, owner sdk.Address) ([]uint32, error)
}

// TokenClient is the typed facade a program uses to talk to a token.
type TokenClient struct {
	ctx  *Context
	addr sdk.Address
}

// TokenAt binds a client to the token at addr.
// Example payload: contract.TokenAt(ctx, cfg.Token).Transfer(buyer, ctx.Self(), price)
func TokenAt(ctx *Context, addr sdk.Address) TokenClient {
	return TokenClient{ctx: ctx, addr: addr}
}

func (c TokenClient) Address() sdk.Address { return c.addr }

// Transfer moves amount; zero is a no-op and negative amounts never reach the token.
func (c TokenClient) Transfer(from, to sdk.Address, amount int64) error {
	if amount < 0 {
		return Invalid("negative amount")
	}
	if amount == 0 || from == to {
		return nil
	}
	t, err := Lookup[Token](c.ctx, c.addr)
	if err != nil {
		return err
	}
	return c.ctx.Call(c.addr, func(tc *Context) error {
		return t.Transfer(tc, from, to, amount)
	})
}

// Pull moves amount from a principal into the running program.
func (c TokenClient) Pull(from sdk.Address, amount int64) error {
	return c.Transfer(from, c.ctx.Self(), amount)
}

// Pay moves amount out of the running program.
func (c TokenClient) Pay(to sdk.Address, amount int64) error {
	return c.Transfer(c.ctx.Self(), to, amount)
}

func (c TokenClient) Balance(owner sdk.Address) (int64, error) {
	t, err := Lookup[Token](c.ctx, c.addr)
	if err != nil {
		return 0, err
	}
	var bal int64
	err = c.ctx.Call(c.addr, func(tc *Context) error {
		var err error
		bal, err = t.Balance(tc, owner)
		return err
	})
	return bal, err
}

// Mint needs the token to support minting and the running program to be an authorized minter.
func (c TokenClient) Mint(to sdk.Address, amount int64) error {
	if amount < 0 {
		return Invalid("negative amount")
	}
	if amount == 0 {
		return nil
	}
	m, err := Lookup[Minter](c.ctx, c.addr)
	if err != nil {
		return err
	}
	minter := c.ctx.Self()
	return c.ctx.Call(c.addr, func(tc *Context) error {
		return m.Mint(tc, minter, to, amount)
	})
}

// AuthorizeMinter asks the token to accept mints from the running program.
func (c TokenClient) AuthorizeMinter() error {
	m, err := Lookup[Minter](c.ctx, c.addr)
	if err != nil {
		return err
	}
	minter := c.ctx.Self()
	return c.ctx.Call(c.addr, func(tc *Context) error {
		return m.AuthorizeMinter(tc, minter)
	})
}

// TotalSupply reports ok=false when the token has no supply view.
func (c TokenClient) TotalSupply() (supply int64, ok bool, err error) {
	s, lerr := Lookup[SupplyReader](c.ctx, c.addr)
	if lerr != nil {
		return 0, false, nil
	}
	err = c.ctx.Call(c.addr, func(tc *Context) error {
		var err error
		supply, err = s.TotalSupply(tc)
		return err
	})
	return supply, err == nil, err
}

// NFTClient is the typed facade for NFT collaborators.
type NFTClient struct {
	ctx  *Context
	addr sdk.Address
}

func NFTAt(ctx *Context, addr sdk.Address) NFTClient {
	return NFTClient{ctx: ctx, addr: addr}
}

func (c NFTClient) Address() sdk.Address { return c.addr }

func (c NFTClient) OwnerOf(tokenID uint32) (sdk.Address, error) {
	n, err := Lookup[NFT](c.ctx, c.addr)
	if err != nil {
		return "", err
	}
	var owner sdk.Address
	err = c.ctx.Call(c.addr, func(nc *Context) error {
		var err error
		owner, err = n.OwnerOf(nc, tokenID)
		return err
	})
	return owner, err
}

func (c NFTClient) Transfer(from, to sdk.Address, tokenID uint32) error {
	n, err := Lookup[NFT](c.ctx, c.addr)
	if err != nil {
		return err
	}
	return c.ctx.Call(c.addr, func(nc *Context) error {
		return n.Transfer(nc, from, to, tokenID)
	})
}

// Custody pulls tokenID from its owner into the running program.
func (c NFTClient) Custody(from sdk.Address, tokenID uint32) error {
	return c.Transfer(from, c.ctx.Self(), tokenID)
}

// Release hands a custodied token out.
func (c NFTClient) Release(to sdk.Address, tokenID uint32) error {
	return c.Transfer(c.ctx.Self(), to, tokenID)
}

func (c NFTClient) PuzzleIDsOf(owner sdk.Address) ([]uint32, error) {
	p, err := Lookup[PuzzleIndex](c.ctx, c.addr)
	if err != nil {
		return nil, err
	}
	var ids []uint32
	err = c.ctx.Call(c.addr, func(nc *Context) error {
		var err error
		ids, err = p.PuzzleIDsOf(nc, owner)
		return err
	})
	return ids, err
}
