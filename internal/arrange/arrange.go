// Package arrange orders the trials of a block under a temporal-arrangement
// policy.
package arrange

import (
	"math/rand"

	"github.com/m-mizutani/goerr/v2"

	"github.com/CodexForgeBR/rl-context-task/internal/conditions"
	"github.com/CodexForgeBR/rl-context-task/internal/config"
	"github.com/CodexForgeBR/rl-context-task/internal/errs"
)

// Shufflers holds the random streams used for ordering. Within shuffles
// trials inside a block or a type group; Groups shuffles the order of the
// type groups. Keeping them apart lets each step be seeded on its own.
type Shufflers struct {
	Within *rand.Rand
	Groups *rand.Rand
}

// Order returns the trials of one block in presentation order. The input
// slice is left untouched.
func Order(policy string, trials []conditions.TrialSpec, s Shufflers) ([]conditions.TrialSpec, error) {
	switch policy {
	case config.ArrangementInterleaved:
		return Interleaved(s.Within, trials), nil
	case config.ArrangementBlocked:
		return Blocked(s.Within, s.Groups, trials), nil
	}
	return nil, errs.Config("temporal_arrangement must be 'blocked' or 'interleaved'", goerr.V("temporal_arrangement", policy))
}

// Interleaved returns one uniform shuffle of trials.
func Interleaved(rng *rand.Rand, trials []conditions.TrialSpec) []conditions.TrialSpec {
	out := append([]conditions.TrialSpec(nil), trials...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Blocked groups trials by trial type, shuffles inside each group with
// within, shuffles the order of the groups with groups and concatenates.
// Trials of one type stay contiguous.
func Blocked(within, groups *rand.Rand, trials []conditions.TrialSpec) []conditions.TrialSpec {
	var order []string
	byType := make(map[string][]conditions.TrialSpec)
	for _, t := range trials {
		if _, ok := byType[t.TrialType]; !ok {
			order = append(order, t.TrialType)
		}
		byType[t.TrialType] = append(byType[t.TrialType], t)
	}

	for _, k := range order {
		byType[k] = Interleaved(within, byType[k])
	}
	groups.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	out := make([]conditions.TrialSpec, 0, len(trials))
	for _, k := range order {
		out = append(out, byType[k]...)
	}
	return out
}
