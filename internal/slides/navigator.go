// Package slides pages through instruction and message slides.
package slides

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/CodexForgeBR/rl-context-task/internal/display"
	"github.com/CodexForgeBR/rl-context-task/internal/errs"
	"github.com/CodexForgeBR/rl-context-task/internal/keys"
	"github.com/CodexForgeBR/rl-context-task/internal/logging"
)

// Slide is one page: text, an image, or both.
type Slide struct {
	Text  string `toml:"text"`
	Image string `toml:"image"`
}

// Frame returns the display frame of the slide.
func (s Slide) Frame() display.Frame {
	return display.Frame{Text: s.Text, Image: s.Image}
}

// Text returns one text slide per string.
func Text(texts ...string) []Slide {
	out := make([]Slide, len(texts))
	for i, t := range texts {
		out[i] = Slide{Text: t}
	}
	return out
}

// Navigator shows a slide sequence and moves a cursor through it.
//
// From position p, with L the last position:
//   - quit ends the session
//   - finish at L returns the finish key
//   - skip, or finish before L, jumps to L
//   - previous moves to max(0, p-1)
//   - next moves to min(L, p+1)
//   - no key before Timeout counts as next, and returns an implicit finish
//     when already at L
//
// Keys bound to several classes resolve in that order, except that next
// wins over finish before L.
type Navigator struct {
	Device display.Device
	Keys   keys.Navigation
	// Timeout bounds each wait; zero waits without limit.
	Timeout time.Duration
	Events  *slog.Logger
}

// Show runs the navigator over seq from position 0. It returns the key that
// finished the sequence and the final position.
func (n *Navigator) Show(ctx context.Context, seq []Slide) (string, int, error) {
	if len(seq) == 0 {
		return "", 0, errs.Config("slide sequence is empty")
	}
	events := n.Events
	if events == nil {
		events = logging.DiscardEvents()
	}

	nav := n.Keys
	if len(nav.Finish.Keys()) == 0 {
		nav.Finish = nav.Next
	}
	listen := nav.Keys()
	last := len(seq) - 1
	pos := 0

	for {
		if _, err := n.Device.Present(ctx, seq[pos].Frame()); err != nil {
			return "", pos, errs.Abort(ctx, err)
		}

		p, ok, err := n.Device.WaitKeys(ctx, listen, n.Timeout)
		if err != nil {
			return "", pos, errs.Abort(ctx, err)
		}

		if !ok {
			if pos == last {
				finish := keys.First(nav.Finish)
				events.Debug("slides.finish", slog.Int("position", pos), slog.Bool("implicit", true))
				return finish, pos, nil
			}
			pos++
			continue
		}

		events.Debug("slides.key", slog.String("key", p.Key), slog.Int("position", pos))
		switch {
		case keys.Matches(p.Key, nav.Quit):
			return p.Key, pos, goerr.Wrap(errs.ErrQuit, "quit during slides", goerr.V("position", pos))
		case pos == last && keys.Matches(p.Key, nav.Finish):
			events.Debug("slides.finish", slog.Int("position", pos), slog.String("key", p.Key))
			return p.Key, pos, nil
		case keys.Matches(p.Key, nav.Skip):
			pos = last
		case keys.Matches(p.Key, nav.Previous):
			pos = max(0, pos-1)
		case keys.Matches(p.Key, nav.Next):
			pos = min(last, pos+1)
		case keys.Matches(p.Key, nav.Finish):
			pos = last
		}
	}
}
