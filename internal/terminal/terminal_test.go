package terminal

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodexForgeBR/rl-context-task/internal/config"
	"github.com/CodexForgeBR/rl-context-task/internal/display"
	"github.com/CodexForgeBR/rl-context-task/internal/errs"
)

func TestKeyName(t *testing.T) {
	tests := []struct {
		msg  tea.KeyMsg
		want string
	}{
		{tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, "space"},
		{tea.KeyMsg{Type: tea.KeyEsc}, "escape"},
		{tea.KeyMsg{Type: tea.KeyRight}, "right"},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}}, "f"},
		{tea.KeyMsg{Type: tea.KeyCtrlC}, "ctrl+c"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KeyName(tt.msg))
	}
}

func TestModelTakesFrames(t *testing.T) {
	m := NewModel(NewStyles(config.NewDefaultConfig()), nil)
	ack := make(chan time.Time, 1)

	next, _ := m.Update(frameMsg{frame: display.TextFrame("Slide 1/3 text."), ack: ack})
	select {
	case <-ack:
	default:
		t.Fatal("frame was not acknowledged")
	}
	assert.Contains(t, next.View(), "Slide 1/3 text.")
}

func TestModelDrawsSlots(t *testing.T) {
	m := NewModel(NewStyles(config.NewDefaultConfig()), nil)
	var f display.Frame
	f.Slots[display.Left] = display.Slot{Visible: true, Image: "stim/images/snail.png", Highlight: true, Opacity: 1, Outcome: "+10", Salience: display.Full}
	f.Slots[display.Right] = display.Slot{Visible: true, Label: "75%\n10", Outcome: "?", Salience: display.Masked}

	next, _ := m.Update(frameMsg{frame: f, ack: make(chan time.Time, 1)})
	view := next.View()
	assert.Contains(t, view, "snail")
	assert.Contains(t, view, "75%")
	assert.Contains(t, view, "+10")
	assert.Contains(t, view, "?")
}

func TestModelForwardsKeys(t *testing.T) {
	var got []string
	m := NewModel(NewStyles(config.NewDefaultConfig()), func(name string, at time.Time) {
		got = append(got, name)
	})
	m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, []string{"space", "j"}, got)
}

func TestWaitKeysReturnsListenedKey(t *testing.T) {
	d := New(config.NewDefaultConfig())
	go func() {
		time.Sleep(10 * time.Millisecond)
		d.onKey("x", time.Now())
		d.onKey("j", time.Now())
	}()

	p, ok, err := d.WaitKeys(context.Background(), []string{"f", "j"}, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "j", p.Key)
}

func TestWaitKeysDiscardsEarlierPresses(t *testing.T) {
	d := New(config.NewDefaultConfig())
	d.onKey("f", time.Now())

	_, ok, err := d.WaitKeys(context.Background(), []string{"f"}, 20*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok, "a press made before the wait does not answer it")
}

func TestWaitKeysCancelled(t *testing.T) {
	d := New(config.NewDefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := d.WaitKeys(ctx, []string{"f"}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQuitKeyCancelsSession(t *testing.T) {
	tests := []struct {
		key   string
		cause error
	}{
		{"q", errs.ErrQuit},
		{"ctrl+c", errs.ErrInterrupted},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			d := New(config.NewDefaultConfig())
			ctx, cancel := context.WithCancelCause(context.Background())
			d.cancel = cancel

			d.onKey(tt.key, time.Now())
			assert.ErrorIs(t, context.Cause(ctx), tt.cause)
		})
	}
}
