// Package stimuli builds the participant-specific mapping from symbol ids
// to image assets.
package stimuli

import (
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/CodexForgeBR/rl-context-task/internal/errs"
)

// Extensions lists the asset file types that make up the pool.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif"}

// Map assigns an asset path to each symbol id.
type Map map[string]string

// Pool returns the sorted asset files in dir.
func Pool(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errs.Config("cannot read stimuli directory", goerr.V("dir", dir), goerr.V("error", err.Error()))
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() || !isAsset(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Assign shuffles pool with rng and hands out contiguous slices: the first
// len(training) assets go to the training symbols, the next len(task) to
// the task symbols. A symbol listed in both sets keeps its training asset.
func Assign(rng *rand.Rand, pool, training, task []string) (Map, error) {
	need := countNew(training, task)
	if len(pool) < need {
		return nil, errs.Config("not enough stimulus images for the symbols in the condition table",
			goerr.V("images", len(pool)), goerr.V("symbols", need))
	}

	shuffled := append([]string(nil), pool...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	m := make(Map, need)
	next := 0
	for _, set := range [][]string{training, task} {
		for _, sym := range set {
			if _, ok := m[sym]; ok {
				continue
			}
			m[sym] = shuffled[next]
			next++
		}
	}
	return m, nil
}

// Build reads the pool in dir and assigns it.
func Build(rng *rand.Rand, dir string, training, task []string) (Map, error) {
	pool, err := Pool(dir)
	if err != nil {
		return nil, err
	}
	return Assign(rng, pool, training, task)
}

// Path returns the asset of sym.
func (m Map) Path(sym string) (string, error) {
	p, ok := m[sym]
	if !ok {
		return "", errs.Config("symbol has no stimulus image", goerr.V("symbol", sym))
	}
	return p, nil
}

func isAsset(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func countNew(sets ...[]string) int {
	seen := make(map[string]bool)
	for _, set := range sets {
		for _, s := range set {
			seen[s] = true
		}
	}
	return len(seen)
}
