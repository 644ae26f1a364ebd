// Package session holds the experiment-wide state of one run: settings,
// seed, random streams, stimulus map and the cumulative reward.
package session

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/CodexForgeBR/rl-context-task/internal/arrange"
	"github.com/CodexForgeBR/rl-context-task/internal/conditions"
	"github.com/CodexForgeBR/rl-context-task/internal/config"
	"github.com/CodexForgeBR/rl-context-task/internal/stimuli"
)

// Seed bounds used when no seed is given.
const (
	MinSeed = 100
	MaxSeed = 999
)

// State is owned by the runner and passed by pointer to the scheduler and
// to every trial. Trials change nothing but the reward total.
type State struct {
	ID      string
	Config  *config.Config
	Seed    int64
	Started time.Time
	Stimuli stimuli.Map

	// Independent streams derived from Seed.
	Master   *rand.Rand
	Outcomes *rand.Rand
	Jitter   *rand.Rand
	Shuffle  arrange.Shufflers

	total float64
}

// New returns the state of a fresh session. The derived streams are drawn
// from the master stream in a fixed order, so one seed reproduces every
// random decision of the session.
func New(cfg *config.Config, seed int64, started time.Time) *State {
	master := rand.New(rand.NewSource(seed))
	derive := func() *rand.Rand { return rand.New(rand.NewSource(master.Int63())) }

	s := &State{
		ID:      uuid.NewString(),
		Config:  cfg,
		Seed:    seed,
		Started: started,
		Master:  master,
	}
	s.Outcomes = derive()
	s.Jitter = derive()
	s.Shuffle = arrange.Shufflers{Within: derive(), Groups: derive()}
	return s
}

// DrawSeed picks a session seed in [MinSeed, MaxSeed).
func DrawSeed(rng *rand.Rand) int64 {
	return MinSeed + rng.Int63n(MaxSeed-MinSeed)
}

// Total returns the cumulative reward.
func (s *State) Total() float64 {
	return s.total
}

// AddReward adds one trial's reward and returns the new total. Training
// trials never change the score.
func (s *State) AddReward(phase conditions.Phase, reward float64) float64 {
	if phase != conditions.PhaseTraining {
		s.total += reward
	}
	return s.total
}

// ITI samples an inter-trial interval uniformly from
// [iti - jitter/2, iti + jitter/2], floored at zero.
func (s *State) ITI() time.Duration {
	iti := s.Config.ITI()
	jitter := s.Config.ITIJitter()
	if jitter <= 0 {
		return iti
	}
	d := iti - jitter/2 + time.Duration(s.Jitter.Float64()*float64(jitter))
	if d < 0 {
		return 0
	}
	return d
}
