package headless

import (
	"math/rand"
	"time"
)

// Step is one scripted answer.
type Step struct {
	Key   string
	After time.Duration
	// NoResponse lets the wait time out.
	NoResponse bool
}

// Script answers waits from a fixed queue, in order.
type Script struct {
	Steps []Step
	next  int
}

// NewScript returns a script that presses keys immediately, in order.
func NewScript(keys ...string) *Script {
	s := &Script{}
	for _, k := range keys {
		s.Steps = append(s.Steps, Step{Key: k})
	}
	return s
}

// Then appends a step and returns the script for chaining.
func (s *Script) Then(step Step) *Script {
	s.Steps = append(s.Steps, step)
	return s
}

// Respond pops the next step. An exhausted script does not respond.
func (s *Script) Respond(keys []string, timeout time.Duration) (string, time.Duration, bool) {
	if s.next >= len(s.Steps) {
		return "", 0, false
	}
	step := s.Steps[s.next]
	s.next++
	if step.NoResponse {
		return "", 0, false
	}
	return step.Key, step.After, true
}

// Remaining reports how many steps have not been used.
func (s *Script) Remaining() int {
	return len(s.Steps) - s.next
}

// Participant is a simulated participant: it presses a random allowed key
// after a random delay drawn uniformly from [RTMin, RTMax]. Keys listed in
// Avoid are never pressed unless nothing else is allowed.
type Participant struct {
	Rand  *rand.Rand
	RTMin time.Duration
	RTMax time.Duration
	Avoid []string
}

// Respond picks a key and a delay.
func (p *Participant) Respond(keys []string, timeout time.Duration) (string, time.Duration, bool) {
	var allowed []string
	for _, k := range keys {
		if !contains(p.Avoid, k) {
			allowed = append(allowed, k)
		}
	}
	if len(allowed) == 0 {
		return "", 0, false
	}

	rt := p.RTMin
	if span := p.RTMax - p.RTMin; span > 0 {
		rt += time.Duration(p.Rand.Int63n(int64(span) + 1))
	}
	return allowed[p.Rand.Intn(len(allowed))], rt, true
}
