package session

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodexForgeBR/rl-context-task/internal/conditions"
	"github.com/CodexForgeBR/rl-context-task/internal/config"
)

func newState(t *testing.T, seed int64) *State {
	t.Helper()
	return New(config.NewDefaultConfig(), seed, time.Date(2025, 2, 3, 9, 30, 0, 0, time.UTC))
}

func TestRewardAccumulation(t *testing.T) {
	s := newState(t, 1)

	var totals []float64
	for _, r := range []float64{5, 0, 3} {
		totals = append(totals, s.AddReward(conditions.PhaseLearning, r))
	}
	assert.Equal(t, []float64{5, 5, 8}, totals)

	assert.Equal(t, 8.0, s.AddReward(conditions.PhaseTraining, 10))
	assert.Equal(t, 8.0, s.Total())
}

func TestRewardCountsEveryScoredPhase(t *testing.T) {
	s := newState(t, 1)
	s.AddReward(conditions.PhaseLearning, 1)
	s.AddReward(conditions.PhaseTransfer, 2)
	s.AddReward(conditions.PhaseExplicit, -0.5)
	assert.InDelta(t, 2.5, s.Total(), 1e-12)
}

func TestNewDerivesReproducibleStreams(t *testing.T) {
	a := newState(t, 123)
	b := newState(t, 123)
	c := newState(t, 124)

	assert.Equal(t, a.Outcomes.Int63(), b.Outcomes.Int63())
	assert.Equal(t, a.Jitter.Int63(), b.Jitter.Int63())
	assert.Equal(t, a.Shuffle.Within.Int63(), b.Shuffle.Within.Int63())
	assert.Equal(t, a.Shuffle.Groups.Int63(), b.Shuffle.Groups.Int63())
	assert.NotEqual(t, a.Outcomes.Int63(), c.Outcomes.Int63())

	_, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestDrawSeedRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		s := DrawSeed(rng)
		assert.GreaterOrEqual(t, s, int64(MinSeed))
		assert.Less(t, s, int64(MaxSeed))
	}
}

func TestITIWithoutJitter(t *testing.T) {
	s := newState(t, 1)
	s.Config.DurationITI = 0.2
	s.Config.DurationITIJitter = 0
	assert.Equal(t, 200*time.Millisecond, s.ITI())
}

func TestITIJitterWindow(t *testing.T) {
	s := newState(t, 1)
	s.Config.DurationITI = 1.0
	s.Config.DurationITIJitter = 0.4

	for i := 0; i < 500; i++ {
		d := s.ITI()
		assert.GreaterOrEqual(t, d, 800*time.Millisecond)
		assert.Less(t, d, 1200*time.Millisecond)
	}
}

func TestITINeverNegative(t *testing.T) {
	s := newState(t, 1)
	s.Config.DurationITI = 0.1
	s.Config.DurationITIJitter = 1.0

	for i := 0; i < 500; i++ {
		assert.GreaterOrEqual(t, s.ITI(), time.Duration(0))
	}
}
