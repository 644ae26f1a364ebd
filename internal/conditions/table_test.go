package conditions

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodexForgeBR/rl-context-task/internal/display"
	"github.com/CodexForgeBR/rl-context-task/internal/errs"
)

const header = "trial_id,phase,block,trial_type,option1,option2,feedback,stim1pos,outcome_randomness,probability1,probability2,outcome1,outcome2,actual_outcome1,actual_outcome2\n"

func readTable(t *testing.T, rows ...string) (*Table, error) {
	t.Helper()
	return Read(strings.NewReader(header + strings.Join(rows, "\n") + "\n"))
}

func TestReadValidTable(t *testing.T) {
	tbl, err := readTable(t,
		"1,training,1,A,t1,t2,complete,left,random,0.8,0.2,10,10,,",
		",learning,1,B,s1,s2,partial,right,pseudorandom,,,,,10,0",
		"x,explicit,1,E,,,none,left,random,0.5,1,4,2,,",
	)
	require.NoError(t, err)
	require.Len(t, tbl.Specs, 3)

	first := tbl.Specs[0]
	assert.Equal(t, "1", first.TrialID)
	assert.Equal(t, PhaseTraining, first.Phase)
	assert.Equal(t, FeedbackComplete, first.Feedback)
	assert.Equal(t, Random, first.Randomness)
	require.NotNil(t, first.Options[0].Probability)
	assert.InDelta(t, 0.8, *first.Options[0].Probability, 1e-12)
	assert.Nil(t, first.Options[0].Precomputed)

	second := tbl.Specs[1]
	assert.Equal(t, "2", second.TrialID, "missing trial_id defaults to the row number")
	assert.Nil(t, second.Options[0].Probability)
	require.NotNil(t, second.Options[1].Precomputed)
	assert.Equal(t, 0.0, *second.Options[1].Precomputed, "zero is a value, not a missing cell")

	assert.Equal(t, PhaseExplicit, tbl.Specs[2].Phase)
}

func TestReadColumnOrderIsFree(t *testing.T) {
	in := "stim1pos,phase,block,trial_type,option1,option2,feedback,outcome_randomness,actual_outcome1,actual_outcome2\n" +
		"right,Learning,b1,A,s1,s2,skip,pseudorandom,1,2\n"
	tbl, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, tbl.Specs, 1)
	assert.Equal(t, PhaseLearning, tbl.Specs[0].Phase)
	assert.Equal(t, "right", tbl.Specs[0].Stim1Pos)
}

func TestReadMissingModeColumns(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{
			name: "random rows without probabilities",
			in: "phase,block,trial_type,option1,option2,feedback,stim1pos,outcome_randomness\n" +
				"learning,1,A,s1,s2,complete,left,random\n",
		},
		{
			name: "pseudorandom rows without actual outcomes",
			in: "phase,block,trial_type,option1,option2,feedback,stim1pos,outcome_randomness\n" +
				"learning,1,A,s1,s2,complete,left,pseudorandom\n",
		},
		{
			name: "base column missing",
			in:   "phase,block,option1,option2,feedback,stim1pos,outcome_randomness\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.True(t, errs.IsConfiguration(err))
		})
	}
}

func TestReadRejectsInvalidRows(t *testing.T) {
	tests := []struct {
		name        string
		row         string
		invalidSpec bool
	}{
		{"bad position flag", "1,learning,1,A,s1,s2,complete,middle,random,0.5,0.5,1,1,,", true},
		{"bad feedback", "1,learning,1,A,s1,s2,loud,left,random,0.5,0.5,1,1,,", false},
		{"bad randomness", "1,learning,1,A,s1,s2,complete,left,sometimes,0.5,0.5,1,1,,", false},
		{"bad phase", "1,warmup,1,A,s1,s2,complete,left,random,0.5,0.5,1,1,,", false},
		{"missing probability", "1,learning,1,A,s1,s2,complete,left,random,,0.5,1,1,,", false},
		{"non numeric probability", "1,learning,1,A,s1,s2,complete,left,random,high,0.5,1,1,,", false},
		{"probability above one", "1,learning,1,A,s1,s2,complete,left,random,1.5,0.5,1,1,,", false},
		{"missing precomputed outcome", "1,learning,1,A,s1,s2,complete,left,pseudorandom,,,,,3,", false},
		{"missing symbol", "1,transfer,1,A,,s2,complete,left,random,0.5,0.5,1,1,,", false},
		{"explicit without outcome", "1,explicit,1,A,,,complete,left,pseudorandom,0.5,0.5,,1,1,1", false},
		{"empty block", "1,learning,,A,s1,s2,complete,left,random,0.5,0.5,1,1,,", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readTable(t, tt.row)
			require.Error(t, err)
			assert.True(t, errs.IsConfiguration(err), "got %v", err)
			assert.Equal(t, tt.invalidSpec, errors.Is(err, errs.ErrInvalidSpec))
		})
	}
}

func TestReadEmptyInput(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestLoadFileRecordsHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conditions.csv")
	content := header + "1,learning,1,A,s1,s2,complete,left,random,0.5,0.5,1,1,,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tbl, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, tbl.Hash, 64)

	want, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, tbl.Hash)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))
}

func TestHashFileKnownContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello\n"), 0o644))

	got, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, "5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03", got)
}

func TestPhaseAndSymbols(t *testing.T) {
	tbl, err := readTable(t,
		"1,training,1,A,t2,t1,complete,left,random,0.5,0.5,1,1,,",
		"2,learning,1,A,s2,s1,complete,left,random,0.5,0.5,1,1,,",
		"3,transfer,1,A,s1,s3,complete,left,random,0.5,0.5,1,1,,",
		"4,explicit,1,A,,,complete,left,random,0.5,0.5,1,1,,",
		"5,training,1,A,t1,t3,complete,left,random,0.5,0.5,1,1,,",
	)
	require.NoError(t, err)

	training := tbl.Phase(PhaseTraining)
	require.Len(t, training, 2)
	assert.Equal(t, "1", training[0].TrialID)
	assert.Equal(t, "5", training[1].TrialID)

	assert.Equal(t, []string{"t1", "t2", "t3"}, tbl.Symbols(PhaseTraining))
	assert.Equal(t, []string{"s1", "s2", "s3"}, tbl.Symbols(PhaseLearning, PhaseTransfer, PhaseExplicit))
	assert.Empty(t, tbl.Phase(Phase("other")))
}

func TestPartitionKeepsTableOrder(t *testing.T) {
	specs := []TrialSpec{
		{TrialID: "1", Block: "b2"},
		{TrialID: "2", Block: "b1"},
		{TrialID: "3", Block: "b2"},
		{TrialID: "4", Block: "b1"},
	}

	blocks := Partition(specs)
	require.Len(t, blocks, 2)
	assert.Equal(t, "b2", blocks[0].ID)
	assert.Equal(t, "b1", blocks[1].ID)
	assert.Equal(t, "1", blocks[0].Trials[0].TrialID)
	assert.Equal(t, "3", blocks[0].Trials[1].TrialID)
	assert.Equal(t, "2", blocks[1].Trials[0].TrialID)
	assert.Equal(t, "4", blocks[1].Trials[1].TrialID)

	assert.Empty(t, Partition(nil))
}

func TestChoiceSideRoundTrip(t *testing.T) {
	for _, flag := range []string{"left", "right"} {
		stim1, err := ParseSide(flag)
		require.NoError(t, err)
		for _, pressed := range []display.Side{display.Left, display.Right} {
			choice := ChoiceFor(stim1, pressed)
			assert.Contains(t, []int{1, 2}, choice)
			assert.Equal(t, pressed, SideOf(stim1, choice), "flag %s pressed %s", flag, pressed)
		}
	}
}

func TestChoiceFor(t *testing.T) {
	assert.Equal(t, 1, ChoiceFor(display.Left, display.Left))
	assert.Equal(t, 2, ChoiceFor(display.Left, display.Right))
	assert.Equal(t, 2, ChoiceFor(display.Right, display.Left))
	assert.Equal(t, 1, ChoiceFor(display.Right, display.Right))
}

func TestParseSideRejectsOtherValues(t *testing.T) {
	for _, v := range []string{"", "center", "1"} {
		_, err := ParseSide(v)
		assert.ErrorIs(t, err, errs.ErrInvalidSpec)
	}
	s, err := ParseSide(" Right ")
	require.NoError(t, err)
	assert.Equal(t, display.Right, s)
}
