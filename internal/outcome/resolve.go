// Package outcome resolves the payout an option actually delivers.
package outcome

import (
	"math"
	"math/rand"

	"github.com/m-mizutani/goerr/v2"

	"github.com/CodexForgeBR/rl-context-task/internal/conditions"
	"github.com/CodexForgeBR/rl-context-task/internal/errs"
)

// Resolve returns the delivered outcome of one option.
//
// Under conditions.Random the potential outcome is paid with probability
// o.Probability and zero otherwise, as one Bernoulli draw from rng. Under
// conditions.Pseudorandom the precomputed outcome is returned unchanged.
func Resolve(rng *rand.Rand, mode conditions.Randomness, o conditions.Option) (float64, error) {
	switch mode {
	case conditions.Random:
		if o.Probability == nil {
			return 0, errs.Config("probability is missing")
		}
		p := *o.Probability
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
			return 0, errs.Config("probability must be a finite number in [0, 1]", goerr.V("probability", p))
		}
		if o.Potential == nil || !finite(*o.Potential) {
			return 0, errs.Config("potential outcome is missing or not finite")
		}
		if rng.Float64() < p {
			return *o.Potential, nil
		}
		return 0, nil

	case conditions.Pseudorandom:
		if o.Precomputed == nil || !finite(*o.Precomputed) {
			return 0, errs.Config("precomputed outcome is missing or not finite")
		}
		return *o.Precomputed, nil
	}

	return 0, errs.Config("unknown outcome randomness", goerr.V("outcome_randomness", string(mode)))
}

// ResolvePair resolves both options of a trial independently, option 1 first.
func ResolvePair(rng *rand.Rand, spec conditions.TrialSpec) ([2]float64, error) {
	var out [2]float64
	for i, o := range spec.Options {
		v, err := Resolve(rng, spec.Randomness, o)
		if err != nil {
			return out, goerr.Wrap(err, "resolve outcome", goerr.V("row", spec.Row), goerr.V("option", i+1))
		}
		out[i] = v
	}
	return out, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
