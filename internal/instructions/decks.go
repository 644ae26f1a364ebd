// Package instructions holds the slide decks shown before each phase and at
// the end of the session.
package instructions

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/m-mizutani/goerr/v2"

	"github.com/CodexForgeBR/rl-context-task/internal/conditions"
	"github.com/CodexForgeBR/rl-context-task/internal/config"
	"github.com/CodexForgeBR/rl-context-task/internal/errs"
	"github.com/CodexForgeBR/rl-context-task/internal/slides"
)

// Decks are the instruction slides per phase plus the debriefing.
type Decks struct {
	Training   []slides.Slide `toml:"training"`
	Learning   []slides.Slide `toml:"learning"`
	Transfer   []slides.Slide `toml:"transfer"`
	Explicit   []slides.Slide `toml:"explicit"`
	Debriefing []slides.Slide `toml:"debriefing"`
}

// For returns the deck shown before phase p.
func (d *Decks) For(p conditions.Phase) []slides.Slide {
	switch p {
	case conditions.PhaseTraining:
		return d.Training
	case conditions.PhaseLearning:
		return d.Learning
	case conditions.PhaseTransfer:
		return d.Transfer
	case conditions.PhaseExplicit:
		return d.Explicit
	}
	return nil
}

// Default returns three-slide placeholder decks naming the configured
// navigation keys, and a one-slide debriefing.
func Default(cfg *config.Config) *Decks {
	return &Decks{
		Training:   deck(cfg, "Instructions: Training Phase", ""),
		Learning:   deck(cfg, "Instructions: Learning Phase", ""),
		Transfer:   deck(cfg, "Instructions: Transfer Phase", " No more feedback!"),
		Explicit:   deck(cfg, "Instructions: Explicit Phase", " No more symbols, but numbers!"),
		Debriefing: slides.Text(fmt.Sprintf("Debriefing\n\n%s\nPress (%s) to end the experiment.",
			cfg.EndScreenMessage, keyLabel(cfg.ButtonInstrFinish))),
	}
}

func deck(cfg *config.Config, title, note string) []slides.Slide {
	const n = 3
	out := make([]slides.Slide, n)
	for i := range out {
		var b strings.Builder
		fmt.Fprintf(&b, "%s\nSlide %d/%d text.%s\n\n", title, i+1, n, note)
		fmt.Fprintf(&b, "(%s) Previous - (%s) Next - (%s) Skip",
			keyLabel(cfg.ButtonInstrPrevious), keyLabel(cfg.ButtonInstrNext), keyLabel(cfg.ButtonInstrSkip))
		if i == n-1 {
			fmt.Fprintf(&b, " - (%s) Continue with task", keyLabel(cfg.ButtonInstrFinish))
		}
		out[i] = slides.Slide{Text: b.String()}
	}
	return out
}

// LoadFile overlays the decks defined in the TOML file at path on base.
// Decks missing from the file keep their base slides.
func LoadFile(path string, base *Decks) (*Decks, error) {
	var file Decks
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, errs.Config("cannot read instructions file", goerr.V("path", path), goerr.V("error", err.Error()))
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errs.Config("unknown keys in instructions file",
			goerr.V("path", path), goerr.V("key", undecoded[0].String()))
	}

	out := *base
	overlay := []struct {
		key string
		src []slides.Slide
		dst *[]slides.Slide
	}{
		{"training", file.Training, &out.Training},
		{"learning", file.Learning, &out.Learning},
		{"transfer", file.Transfer, &out.Transfer},
		{"explicit", file.Explicit, &out.Explicit},
		{"debriefing", file.Debriefing, &out.Debriefing},
	}
	for _, o := range overlay {
		if !md.IsDefined(o.key) {
			continue
		}
		if len(o.src) == 0 {
			return nil, errs.Config("instruction deck is empty", goerr.V("deck", o.key))
		}
		*o.dst = o.src
	}
	return &out, nil
}

// keyLabel capitalizes a key name for display.
func keyLabel(k string) string {
	if k == "" {
		return k
	}
	return strings.ToUpper(k[:1]) + k[1:]
}
