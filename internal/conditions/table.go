package conditions

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/CodexForgeBR/rl-context-task/internal/errs"
)

// Column names of the condition table.
const (
	ColTrialID        = "trial_id"
	ColPhase          = "phase"
	ColBlock          = "block"
	ColTrialType      = "trial_type"
	ColOption1        = "option1"
	ColOption2        = "option2"
	ColFeedback       = "feedback"
	ColStim1Pos       = "stim1pos"
	ColRandomness     = "outcome_randomness"
	ColProbability1   = "probability1"
	ColProbability2   = "probability2"
	ColOutcome1       = "outcome1"
	ColOutcome2       = "outcome2"
	ColActualOutcome1 = "actual_outcome1"
	ColActualOutcome2 = "actual_outcome2"
)

// baseColumns must be present in every table.
var baseColumns = []string{
	ColPhase, ColBlock, ColTrialType, ColOption1, ColOption2,
	ColFeedback, ColStim1Pos, ColRandomness,
}

var (
	randomColumns       = []string{ColProbability1, ColProbability2, ColOutcome1, ColOutcome2}
	pseudorandomColumns = []string{ColActualOutcome1, ColActualOutcome2}
)

// Table is the ordered set of trial specs of a session.
type Table struct {
	Specs []TrialSpec
	// Hash is the SHA-256 of the source file, empty for tables not read
	// from a file.
	Hash string
}

// Block is the trials of one block id, in table order.
type Block struct {
	ID     string
	Trials []TrialSpec
}

// LoadFile reads and validates the condition table at path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Config("cannot open conditions file", goerr.V("path", path), goerr.V("error", err.Error()))
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, goerr.Wrap(err, "load conditions", goerr.V("path", path))
	}

	t.Hash, err = HashFile(path)
	if err != nil {
		return nil, fmt.Errorf("hash conditions file: %w", err)
	}
	return t, nil
}

// Read parses a condition table in CSV form. The first record is the
// header; columns may appear in any order and unknown columns are ignored.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errs.Config("conditions table is empty")
	}
	if err != nil {
		return nil, errs.Config("malformed conditions header", goerr.V("error", err.Error()))
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if err := requireColumns(cols, baseColumns); err != nil {
		return nil, err
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errs.Config("malformed conditions row", goerr.V("error", err.Error()))
		}
		records = append(records, rec)
	}

	// Mode-dependent columns are only required when some row needs them.
	needRandom, needPseudo := false, false
	for _, rec := range records {
		if strings.EqualFold(cell(rec, cols, ColRandomness), string(Random)) ||
			strings.EqualFold(cell(rec, cols, ColPhase), string(PhaseExplicit)) {
			needRandom = true
		}
		if strings.EqualFold(cell(rec, cols, ColRandomness), string(Pseudorandom)) {
			needPseudo = true
		}
	}
	if needRandom {
		if err := requireColumns(cols, randomColumns); err != nil {
			return nil, err
		}
	}
	if needPseudo {
		if err := requireColumns(cols, pseudorandomColumns); err != nil {
			return nil, err
		}
	}

	t := &Table{}
	for i, rec := range records {
		spec, err := parseRow(i+1, rec, cols)
		if err != nil {
			return nil, err
		}
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		t.Specs = append(t.Specs, spec)
	}
	return t, nil
}

func parseRow(row int, rec []string, cols map[string]int) (TrialSpec, error) {
	s := TrialSpec{
		Row:       row,
		TrialID:   cell(rec, cols, ColTrialID),
		Block:     cell(rec, cols, ColBlock),
		TrialType: cell(rec, cols, ColTrialType),
		Stim1Pos:  cell(rec, cols, ColStim1Pos),
	}
	if s.TrialID == "" {
		s.TrialID = strconv.Itoa(row)
	}

	var err error
	if s.Phase, err = ParsePhase(cell(rec, cols, ColPhase)); err != nil {
		return s, goerr.Wrap(err, "phase", goerr.V("row", row))
	}
	if s.Feedback, err = ParseFeedback(cell(rec, cols, ColFeedback)); err != nil {
		return s, goerr.Wrap(err, "feedback", goerr.V("row", row))
	}
	if s.Randomness, err = ParseRandomness(cell(rec, cols, ColRandomness)); err != nil {
		return s, goerr.Wrap(err, "outcome randomness", goerr.V("row", row))
	}

	numeric := [2][3]string{
		{ColProbability1, ColOutcome1, ColActualOutcome1},
		{ColProbability2, ColOutcome2, ColActualOutcome2},
	}
	for i := range s.Options {
		o := &s.Options[i]
		if i == 0 {
			o.Symbol = cell(rec, cols, ColOption1)
		} else {
			o.Symbol = cell(rec, cols, ColOption2)
		}
		if o.Probability, err = number(rec, cols, numeric[i][0], row); err != nil {
			return s, err
		}
		if o.Potential, err = number(rec, cols, numeric[i][1], row); err != nil {
			return s, err
		}
		if o.Precomputed, err = number(rec, cols, numeric[i][2], row); err != nil {
			return s, err
		}
	}
	return s, nil
}

// number parses an optional numeric cell. An empty or absent cell is nil.
func number(rec []string, cols map[string]int, col string, row int) (*float64, error) {
	raw := cell(rec, cols, col)
	if raw == "" || strings.EqualFold(raw, "nan") {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(v, 0) {
		return nil, errs.Config("value is not a finite number",
			goerr.V("row", row), goerr.V("column", col), goerr.V("value", raw))
	}
	return &v, nil
}

func cell(rec []string, cols map[string]int, col string) string {
	i, ok := cols[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func requireColumns(cols map[string]int, names []string) error {
	var missing []string
	for _, n := range names {
		if _, ok := cols[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return errs.Config("conditions table is missing required columns",
			goerr.V("missing", strings.Join(missing, ", ")))
	}
	return nil
}

// Phase returns the specs of one phase in table order.
func (t *Table) Phase(p Phase) []TrialSpec {
	var out []TrialSpec
	for _, s := range t.Specs {
		if s.Phase == p {
			out = append(out, s)
		}
	}
	return out
}

// Symbols returns the sorted distinct symbol ids used by the given phases.
func (t *Table) Symbols(phases ...Phase) []string {
	want := make(map[Phase]bool, len(phases))
	for _, p := range phases {
		want[p] = true
	}

	seen := make(map[string]bool)
	var out []string
	for _, s := range t.Specs {
		if !want[s.Phase] || !s.Phase.Symbolic() {
			continue
		}
		for _, o := range s.Options {
			if o.Symbol != "" && !seen[o.Symbol] {
				seen[o.Symbol] = true
				out = append(out, o.Symbol)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Partition splits specs into blocks by block id. Blocks appear in the
// order their first trial appears; trials keep their relative order.
func Partition(specs []TrialSpec) []Block {
	index := make(map[string]int)
	var blocks []Block
	for _, s := range specs {
		i, ok := index[s.Block]
		if !ok {
			i = len(blocks)
			index[s.Block] = i
			blocks = append(blocks, Block{ID: s.Block})
		}
		blocks[i].Trials = append(blocks[i].Trials, s)
	}
	return blocks
}

// HashFile returns the lowercase hexadecimal SHA-256 digest of the entire
// contents of path.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
