// Package bridge locks NFTs for transfer to other chains and releases them
// back once enough whitelisted relayers vouch for an inbound message.
package bridge

import (
	"encoding/hex"
	"strings"

	"puzzlechain/contract"
	"puzzlechain/contract/kernel/threshold"
	"puzzlechain/sdk"
)

type Config struct {
	ChainID   string      `json:"chain_id"`
	FeeToken  sdk.Address `json:"fee_token"`
	LockFee   int64       `json:"lock_fee"`
	FeeTo     sdk.Address `json:"fee_to"`
	Threshold uint32      `json:"threshold"`
	TTL       uint64      `json:"ttl"`
}

// Outbound is a locked NFT waiting to appear on its destination chain.
type Outbound struct {
	Nonce     uint64      `json:"nonce"`
	MessageID string      `json:"msg"`
	Owner     sdk.Address `json:"owner"`
	NFT       sdk.Address `json:"nft"`
	TokenID   uint32      `json:"token_id"`
	DestChain string      `json:"dest"`
	Recipient string      `json:"recipient"`
	At        uint64      `json:"at"`
}

// Release is an inbound message under relayer vote.
type Release struct {
	ID        uint64           `json:"id"`
	MessageID string           `json:"msg"`
	SrcChain  string           `json:"src"`
	SrcNonce  uint64           `json:"nonce"`
	NFT       sdk.Address      `json:"nft"`
	TokenID   uint32           `json:"token_id"`
	Recipient sdk.Address      `json:"recipient"`
	Ballot    threshold.Ballot `json:"ballot"`
}

type Bridge struct{}

func New() *Bridge { return &Bridge{} }

func (Bridge) Init(ctx *contract.Context, admin sdk.Address, cfg Config) error {
	if cfg.FeeTo == "" {
		cfg.FeeTo = admin
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = 1
	}
	if cfg.TTL == 0 {
		cfg.TTL = 24 * 3600
	}
	var chk contract.Checks
	chk.Require(strings.TrimSpace(cfg.ChainID) != "", "chain id required")
	chk.Require(cfg.LockFee >= 0, "lock fee must not be negative")
	if cfg.LockFee > 0 {
		chk.Address(cfg.FeeToken, "fee token")
	}
	chk.Address(cfg.FeeTo, "fee recipient")
	if err := chk.Err(); err != nil {
		return err
	}
	return contract.Initialize(ctx, admin, cfg)
}

func (Bridge) SetChain(ctx *contract.Context, caller sdk.Address, chain string, enabled bool) error {
	if err := contract.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	if strings.TrimSpace(chain) == "" {
		return contract.Invalid("chain required")
	}
	contract.Store(ctx, chainKey(chain), enabled)
	ctx.Emit("br_chain", sdk.Str("chain", chain), sdk.Bool("on", enabled))
	return nil
}

func (Bridge) ChainEnabled(ctx *contract.Context, chain string) bool {
	return contract.LoadOr(ctx, chainKey(chain), false)
}

func (Bridge) AddRelayer(ctx *contract.Context, caller, relayer sdk.Address) error {
	if err := contract.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	if !relayer.IsValid() {
		return contract.Invalid("invalid relayer")
	}
	if !contract.AllowAdd(ctx, relayerList, relayer) {
		return contract.Illegal("already a relayer")
	}
	return nil
}

func (Bridge) RemoveRelayer(ctx *contract.Context, caller, relayer sdk.Address) error {
	if err := contract.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return err
	}
	if !contract.Allowed(ctx, relayerList, relayer) {
		return contract.NotFound("relayer")
	}
	if contract.AllowCount(ctx, relayerList) <= int(cfg.Threshold) {
		return contract.Illegal("relayers would fall below threshold")
	}
	contract.AllowRemove(ctx, relayerList, relayer)
	return nil
}

func (Bridge) IsRelayer(ctx *contract.Context, who sdk.Address) bool {
	return contract.Allowed(ctx, relayerList, who)
}

func (Bridge) Outbound(ctx *contract.Context, nonce uint64) (Outbound, error) {
	return contract.MustLoad(ctx, outboundKey(nonce), "outbound message")
}

func (Bridge) Release(ctx *contract.Context, id uint64) (Release, error) {
	return contract.MustLoad(ctx, releaseKey(id), "release")
}

// MessageID hashes the fields identifying a bridge message.
func MessageID(src, dest string, nonce uint64, nft sdk.Address, tokenID uint32, recipient string) string {
	sum := contract.NewWriter().
		String(src).
		String(dest).
		Uint64(nonce).
		Address(nft).
		Uint32(tokenID).
		String(recipient).
		Sum()
	return hex.EncodeToString(sum[:])
}

// Lock takes the NFT into custody and records an outbound message.
func (Bridge) Lock(ctx *contract.Context, owner, nft sdk.Address, tokenID uint32, destChain, destRecipient string) (Outbound, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return Outbound{}, err
	}
	if err := ctx.RequireAuth(owner); err != nil {
		return Outbound{}, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return Outbound{}, err
	}
	if !contract.LoadOr(ctx, chainKey(destChain), false) {
		return Outbound{}, contract.Invalid("destination chain not supported")
	}
	if strings.TrimSpace(destRecipient) == "" {
		return Outbound{}, contract.Invalid("recipient required")
	}
	if cfg.LockFee > 0 {
		if err := contract.TokenAt(ctx, cfg.FeeToken).Transfer(owner, cfg.FeeTo, cfg.LockFee); err != nil {
			return Outbound{}, err
		}
	}
	if err := contract.NFTAt(ctx, nft).Custody(owner, tokenID); err != nil {
		return Outbound{}, err
	}
	nonce := contract.NextID(ctx, "outbound")
	o := Outbound{
		Nonce:     nonce,
		MessageID: MessageID(cfg.ChainID, destChain, nonce, nft, tokenID, destRecipient),
		Owner:     owner,
		NFT:       nft,
		TokenID:   tokenID,
		DestChain: destChain,
		Recipient: destRecipient,
		At:        ctx.Timestamp(),
	}
	contract.Store(ctx, outboundKey(nonce), o)
	ctx.Emit("br_lock",
		sdk.U64("nonce", nonce),
		sdk.Str("msg", o.MessageID),
		sdk.Addr("owner", owner),
		sdk.U64("nft", uint64(tokenID)),
		sdk.Str("dest", destChain),
	)
	return o, nil
}

func requireRelayer(ctx *contract.Context, relayer sdk.Address) error {
	if !contract.Allowed(ctx, relayerList, relayer) {
		return contract.Unauthorized("not a relayer")
	}
	return ctx.RequireAuth(relayer)
}

// RequestRelease opens the vote on an inbound message; the requesting
// relayer signs it right away. A source nonce is only ever accepted once.
func (b Bridge) RequestRelease(ctx *contract.Context, relayer sdk.Address, srcChain string, srcNonce uint64, nft sdk.Address, tokenID uint32, recipient sdk.Address) (uint64, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := requireRelayer(ctx, relayer); err != nil {
		return 0, err
	}
	cfg, err := contract.Config[Config](ctx)
	if err != nil {
		return 0, err
	}
	if !contract.LoadOr(ctx, chainKey(srcChain), false) {
		return 0, contract.Invalid("source chain not supported")
	}
	if !recipient.IsValid() {
		return 0, contract.Invalid("invalid recipient")
	}
	if _, seen := contract.Load(ctx, processedKey(srcChain, srcNonce)); seen {
		return 0, contract.Illegal("nonce already processed")
	}
	ballot, err := threshold.NewBallot(relayer, threshold.RoleSigner, cfg.Threshold, ctx.Timestamp(), cfg.TTL)
	if err != nil {
		return 0, err
	}
	r := Release{
		ID:        contract.NextID(ctx, "release"),
		MessageID: MessageID(srcChain, cfg.ChainID, srcNonce, nft, tokenID, recipient.String()),
		SrcChain:  srcChain,
		SrcNonce:  srcNonce,
		NFT:       nft,
		TokenID:   tokenID,
		Recipient: recipient,
		Ballot:    ballot,
	}
	contract.Store(ctx, processedKey(srcChain, srcNonce), r.ID)
	ctx.Emit("br_request", sdk.U64("id", r.ID), sdk.Str("msg", r.MessageID), sdk.Str("src", srcChain), sdk.U64("nonce", srcNonce))
	return r.ID, vote(ctx, &r, relayer)
}

// Approve adds a relayer signature; the NFT moves once the threshold is met.
func (Bridge) Approve(ctx *contract.Context, relayer sdk.Address, id uint64) (threshold.Status, error) {
	if err := contract.RequireActive(ctx); err != nil {
		return 0, err
	}
	if err := requireRelayer(ctx, relayer); err != nil {
		return 0, err
	}
	r, err := contract.MustLoad(ctx, releaseKey(id), "release")
	if err != nil {
		return 0, err
	}
	if err := vote(ctx, &r, relayer); err != nil {
		return 0, err
	}
	return r.Ballot.Status, nil
}

func vote(ctx *contract.Context, r *Release, relayer sdk.Address) error {
	if err := r.Ballot.Sign(relayer, threshold.RoleSigner, ctx.Timestamp()); err != nil {
		return err
	}
	ctx.Emit("br_approve", sdk.U64("id", r.ID), sdk.Addr("by", relayer), sdk.U64("n", uint64(len(r.Ballot.Signers))))
	if r.Ballot.Status == threshold.StatusApproved {
		if err := r.Ballot.Execute(ctx.Timestamp()); err != nil {
			return err
		}
		if err := contract.NFTAt(ctx, r.NFT).Release(r.Recipient, r.TokenID); err != nil {
			return err
		}
		ctx.Emit("br_release", sdk.U64("id", r.ID), sdk.Addr("to", r.Recipient), sdk.U64("nft", uint64(r.TokenID)))
	}
	contract.Store(ctx, releaseKey(r.ID), *r)
	return nil
}

func (b Bridge) Exports() contract.Exports {
	return contract.AdminExports().Merge(contract.Exports{
		// Example payload: "contract:nft|7|ethereum|0xabc"
		"lock": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			nft := args.Address(0, "nft")
			tokenID := args.Uint32(1, "token id")
			if err := args.Err(); err != nil {
				return "", err
			}
			o, err := b.Lock(ctx, caller, nft, tokenID, args.Str(2), args.Str(3))
			return o.MessageID, err
		},
		"request_release": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			nonce := args.Uint(1, "source nonce")
			nft := args.Address(2, "nft")
			tokenID := args.Uint32(3, "token id")
			recipient := args.Address(4, "recipient")
			if err := args.Err(); err != nil {
				return "", err
			}
			id, err := b.RequestRelease(ctx, caller, args.Str(0), nonce, nft, tokenID, recipient)
			return contract.JoinArgs(id), err
		},
		"approve": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			id := args.Uint(0, "release id")
			if err := args.Err(); err != nil {
				return "", err
			}
			st, err := b.Approve(ctx, caller, id)
			return st.String(), err
		},
		"set_chain": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			return "", b.SetChain(ctx, caller, args.Str(0), args.Bool(1))
		},
		"add_relayer": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			r := args.Address(0, "relayer")
			if err := args.Err(); err != nil {
				return "", err
			}
			return "", b.AddRelayer(ctx, caller, r)
		},
	})
}
