package quest

import (
	"strconv"
	"strings"

	"puzzlechain/contract"
	"puzzlechain/sdk"
)

// parseSteps reads "puzzle:xp,puzzle:xp".
func parseSteps(s string) ([]Step, error) {
	var out []Step
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		id, xp, _ := strings.Cut(part, ":")
		pz, err := strconv.ParseUint(strings.TrimSpace(id), 10, 32)
		if err != nil {
			return nil, contract.Invalid("invalid step " + part)
		}
		step := Step{PuzzleID: uint32(pz)}
		if xp != "" {
			if step.XP, err = strconv.ParseInt(strings.TrimSpace(xp), 10, 64); err != nil {
				return nil, contract.Invalid("invalid step xp " + part)
			}
		}
		out = append(out, step)
	}
	return out, nil
}

func chainOp(op func(*contract.Context, sdk.Address, uint64) (string, error)) contract.Method {
	return func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
		id := args.Uint(0, "chain id")
		if err := args.Err(); err != nil {
			return "", err
		}
		return op(ctx, caller, id)
	}
}

func (q Quests) Exports() contract.Exports {
	return contract.AdminExports().Merge(contract.Exports{
		// Example payload: "Beginner path|1:50,2:75|1000|90000|0|3600|500"
		"create_chain": func(ctx *contract.Context, caller sdk.Address, args *contract.Args) (string, error) {
			start := args.Uint(2, "start")
			end := args.Uint(3, "end")
			prereq := args.Uint(4, "prerequisite")
			cooldown := args.Uint(5, "cooldown")
			reward := args.Amount(6, "reward")
			if err := args.Err(); err != nil {
				return "", err
			}
			steps, err := parseSteps(args.Str(1))
			if err != nil {
				return "", err
			}
			id, err := q.CreateChain(ctx, caller, args.Str(0), steps, start, end, prereq, cooldown, reward)
			return contract.JoinArgs(id), err
		},
		"start": chainOp(func(ctx *contract.Context, caller sdk.Address, id uint64) (string, error) {
			return "", q.Start(ctx, caller, id)
		}),
		"complete_step": chainOp(func(ctx *contract.Context, caller sdk.Address, id uint64) (string, error) {
			n, err := q.CompleteStep(ctx, caller, id)
			return strconv.Itoa(n), err
		}),
		"claim_reward": chainOp(func(ctx *contract.Context, caller sdk.Address, id uint64) (string, error) {
			r, err := q.ClaimReward(ctx, caller, id)
			return strconv.FormatInt(r, 10), err
		}),
		"xp": func(ctx *contract.Context, _ sdk.Address, args *contract.Args) (string, error) {
			who := args.Address(0, "player")
			if err := args.Err(); err != nil {
				return "", err
			}
			return strconv.FormatInt(q.XP(ctx, who), 10), nil
		},
	})
}
