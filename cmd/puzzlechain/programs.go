package main

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"puzzlechain/contract"
	"puzzlechain/contract/achievements"
	"puzzlechain/contract/battlepass"
	"puzzlechain/contract/bounty"
	"puzzlechain/contract/bridge"
	"puzzlechain/contract/dao"
	"puzzlechain/contract/escrow"
	"puzzlechain/contract/farming"
	"puzzlechain/contract/flashloan"
	"puzzlechain/contract/fractional"
	"puzzlechain/contract/hints"
	"puzzlechain/contract/insurance"
	"puzzlechain/contract/kernel/threshold"
	"puzzlechain/contract/lottery"
	"puzzlechain/contract/marketplace"
	"puzzlechain/contract/multisig"
	"puzzlechain/contract/nft"
	"puzzlechain/contract/prediction"
	"puzzlechain/contract/quest"
	"puzzlechain/contract/subscription"
	"puzzlechain/contract/tipping"
	"puzzlechain/contract/token"
	"puzzlechain/contract/vesting"
	"puzzlechain/sdk"
)

// program is a deployable entry: the stateless code plus its typed one-shot setup.
type program struct {
	code contract.Exporter
	init func(ctx *contract.Context, admin sdk.Address, raw map[string]any) error
}

func deployable[C any](code contract.Exporter, init func(*contract.Context, sdk.Address, C) error) program {
	return program{
		code: code,
		init: func(ctx *contract.Context, admin sdk.Address, raw map[string]any) error {
			var cfg C
			if err := decodeConfig(raw, &cfg); err != nil {
				return err
			}
			return init(ctx, admin, cfg)
		},
	}
}

// decodeConfig routes a YAML mapping through the JSON tags the programs store their config under.
func decodeConfig(raw map[string]any, out any) error {
	if raw == nil {
		raw = map[string]any{}
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return contract.Invalid("config: " + err.Error())
	}
	if err := json.Unmarshal(b, out); err != nil {
		return contract.Invalid("config: " + err.Error())
	}
	return nil
}

type multisigSetup struct {
	multisig.Config
	Members map[sdk.Address]threshold.Role `json:"members"`
}

func catalog() map[string]program {
	ms := multisig.New()
	return map[string]program{
		"token":        deployable(token.New(), token.New().Init),
		"nft":          deployable(nft.New(), nft.New().Init),
		"achievements": deployable(achievements.New(), achievements.New().Init),
		"battlepass":   deployable(battlepass.New(), battlepass.New().Init),
		"bounty":       deployable(bounty.New(), bounty.New().Init),
		"bridge":       deployable(bridge.New(), bridge.New().Init),
		"dao":          deployable(dao.New(), dao.New().Init),
		"escrow":       deployable(escrow.New(), escrow.New().Init),
		"farming":      deployable(farming.New(), farming.New().Init),
		"flashloan":    deployable(flashloan.New(), flashloan.New().Init),
		"fractional":   deployable(fractional.New(), fractional.New().Init),
		"hints":        deployable(hints.New(), hints.New().Init),
		"insurance":    deployable(insurance.New(), insurance.New().Init),
		"lottery":      deployable(lottery.New(), lottery.New().Init),
		"marketplace":  deployable(marketplace.New(), marketplace.New().Init),
		"multisig": deployable(ms, func(ctx *contract.Context, admin sdk.Address, s multisigSetup) error {
			return ms.Init(ctx, admin, s.Config, s.Members)
		}),
		"prediction":   deployable(prediction.New(), prediction.New().Init),
		"quest":        deployable(quest.New(), quest.New().Init),
		"subscription": deployable(subscription.New(), subscription.New().Init),
		"tipping":      deployable(tipping.New(), tipping.New().Init),
		"vesting":      deployable(vesting.New(), vesting.New().Init),
	}
}

func lookupProgram(name string) (program, error) {
	p, ok := catalog()[name]
	if !ok {
		return program{}, errors.Errorf("unknown program %q", name)
	}
	return p, nil
}

func programNames() []string {
	c := catalog()
	out := make([]string, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
