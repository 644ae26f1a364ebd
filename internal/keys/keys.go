// Package keys maps the configured buttons to bindings for the response
// window and for instruction navigation.
package keys

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/CodexForgeBR/rl-context-task/internal/config"
)

// Press is a key name as reported by an input device.
type Press string

func (p Press) String() string { return string(p) }

// Response holds the bindings accepted while a trial waits for a choice.
type Response struct {
	Left  key.Binding
	Right key.Binding
	Quit  key.Binding
}

// Navigation holds the bindings of a slide show.
type Navigation struct {
	Next     key.Binding
	Previous key.Binding
	Skip     key.Binding
	Finish   key.Binding
	Quit     key.Binding
}

// Map is the full set of bindings of a session.
type Map struct {
	Response   Response
	Navigation Navigation
	Repeat     key.Binding
}

// FromConfig builds the session key map from the button settings.
func FromConfig(cfg *config.Config) Map {
	quit := binding(cfg.ButtonQuit, "quit")
	return Map{
		Response: Response{
			Left:  binding(cfg.ButtonLeft, "choose left"),
			Right: binding(cfg.ButtonRight, "choose right"),
			Quit:  quit,
		},
		Navigation: Navigation{
			Next:     binding(cfg.ButtonInstrNext, "next"),
			Previous: binding(cfg.ButtonInstrPrevious, "previous"),
			Skip:     binding(cfg.ButtonInstrSkip, "skip"),
			Finish:   binding(cfg.ButtonInstrFinish, "continue"),
			Quit:     quit,
		},
		Repeat: binding(cfg.ButtonInstrRepeat, "repeat training"),
	}
}

// FinishOnly returns navigation that ends on any of the given bindings.
// Next, previous and skip are left unbound.
func (n Navigation) FinishOnly(finish ...key.Binding) Navigation {
	var ks []string
	for _, b := range finish {
		ks = append(ks, b.Keys()...)
	}
	return Navigation{
		Finish: key.NewBinding(key.WithKeys(ks...)),
		Quit:   n.Quit,
	}
}

// Keys lists every key the response window listens to.
func (r Response) Keys() []string {
	return Collect(r.Left, r.Right, r.Quit)
}

// Keys lists every key the slide show listens to.
func (n Navigation) Keys() []string {
	return Collect(n.Next, n.Previous, n.Skip, n.Finish, n.Quit)
}

// Matches reports whether the pressed key belongs to any of the bindings.
func Matches(pressed string, bindings ...key.Binding) bool {
	return key.Matches(Press(pressed), bindings...)
}

// Collect returns the distinct keys of the bindings in order.
func Collect(bindings ...key.Binding) []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range bindings {
		for _, k := range b.Keys() {
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// First returns the first key of a binding, or "" when unbound.
func First(b key.Binding) string {
	ks := b.Keys()
	if len(ks) == 0 {
		return ""
	}
	return ks[0]
}

func binding(k, help string) key.Binding {
	if k == "" {
		return key.NewBinding()
	}
	return key.NewBinding(key.WithKeys(k), key.WithHelp(k, help))
}
