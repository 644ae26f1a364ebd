// Package terminal presents a session in the terminal: a bubbletea program
// draws frames with lipgloss and forwards key presses to the waiting task.
package terminal

import (
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CodexForgeBR/rl-context-task/internal/config"
	"github.com/CodexForgeBR/rl-context-task/internal/display"
)

// frameMsg replaces the frame on screen; ack receives the time the model
// took it.
type frameMsg struct {
	frame display.Frame
	ack   chan time.Time
}

// Styles are the lipgloss styles derived from the visual settings.
type Styles struct {
	Screen         lipgloss.Style
	Text           lipgloss.Style
	Box            lipgloss.Style
	Chosen         lipgloss.Style
	ChosenDim      lipgloss.Style
	Outcome        lipgloss.Style
	Counterfactual lipgloss.Style
}

// NewStyles builds the styles of cfg.
func NewStyles(cfg *config.Config) Styles {
	bg := lipgloss.Color(cfg.BackgroundColor)
	box := lipgloss.NewStyle().
		Width(cfg.SymbolWidth).
		Height(cfg.SymbolHeight).
		Align(lipgloss.Center, lipgloss.Center).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(cfg.RectLineColor)).
		Foreground(lipgloss.Color(cfg.TextColor)).
		Background(bg).
		BorderBackground(bg)

	return Styles{
		Screen:         lipgloss.NewStyle().Background(bg),
		Text:           lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.TextColor)).Background(bg).Align(lipgloss.Center),
		Box:            box,
		Chosen:         box.Border(lipgloss.ThickBorder()).BorderForeground(lipgloss.Color(cfg.FeedbackRectLineColor)),
		ChosenDim:      box.Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color(cfg.FeedbackRectLineColor)),
		Outcome:        lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.OutcomeColor)).Background(bg).Bold(true),
		Counterfactual: lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.OutcomeColorCounterfactual)).Background(bg),
	}
}

// Model is the bubbletea model of the task screen. It only draws and
// forwards keys; all timing lives on the task side.
type Model struct {
	styles Styles
	frame  display.Frame
	width  int
	height int

	// onKey receives every normalized key press.
	onKey func(name string, at time.Time)
}

// NewModel returns a model drawing with styles.
func NewModel(styles Styles, onKey func(name string, at time.Time)) Model {
	return Model{styles: styles, onKey: onKey}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case frameMsg:
		m.frame = msg.frame
		msg.ack <- time.Now()
		return m, nil

	case tea.KeyMsg:
		if m.onKey != nil {
			m.onKey(KeyName(msg), time.Now())
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	content := m.render()
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content,
		lipgloss.WithWhitespaceBackground(m.styles.Screen.GetBackground()))
}

func (m Model) render() string {
	f := m.frame
	var parts []string

	if f.Slots[display.Left].Visible || f.Slots[display.Right].Visible {
		left := m.slot(f.Slots[display.Left])
		right := m.slot(f.Slots[display.Right])
		gap := m.styles.Screen.Render(strings.Repeat(" ", m.styles.Box.GetWidth()/2))
		parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top, left, gap, right))
	}
	if f.Image != "" {
		parts = append(parts, m.styles.Text.Render("["+symbolName(f.Image)+"]"))
	}
	if f.Text != "" {
		parts = append(parts, m.styles.Text.Render(f.Text))
	}
	return lipgloss.JoinVertical(lipgloss.Center, parts...)
}

// slot draws one option box with its outcome line underneath.
func (m Model) slot(s display.Slot) string {
	if !s.Visible {
		blank := m.styles.Box.Border(lipgloss.HiddenBorder())
		return lipgloss.JoinVertical(lipgloss.Center, blank.Render(""), "")
	}

	style := m.styles.Box
	if s.Highlight {
		style = m.styles.Chosen
		if s.Opacity < 0.5 {
			style = m.styles.ChosenDim
		}
	}

	label := s.Label
	if s.Image != "" {
		label = symbolName(s.Image)
	}

	var outcome string
	switch s.Salience {
	case display.Full:
		if s.Highlight {
			outcome = m.styles.Outcome.Render(s.Outcome)
		} else {
			outcome = m.styles.Counterfactual.Render(s.Outcome)
		}
	case display.Masked:
		outcome = m.styles.Counterfactual.Render(s.Outcome)
	}
	return lipgloss.JoinVertical(lipgloss.Center, style.Render(label), outcome)
}

// symbolName is the asset file name without directory and extension.
func symbolName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// KeyName normalizes a bubbletea key to the names used in settings.
func KeyName(msg tea.KeyMsg) string {
	switch s := msg.String(); s {
	case " ":
		return "space"
	case "esc":
		return "escape"
	default:
		return s
	}
}
