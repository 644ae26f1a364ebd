package display

// Side is a physical screen position.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Salience is how an outcome value is shown.
type Salience int

const (
	// Hidden draws no outcome at all.
	Hidden Salience = iota
	// Masked draws a placeholder instead of the value.
	Masked
	// Full draws the value.
	Full
)

// Slot is one option box on screen.
type Slot struct {
	Visible bool
	// Image is the symbol asset path; empty for text options.
	Image string
	// Label is drawn instead of an image (explicit phase options).
	Label string
	// Highlight outlines the box as the chosen option; Opacity in [0,1]
	// modulates the outline during the choice animation.
	Highlight bool
	Opacity   float64
	Outcome   string
	Salience  Salience
}

// Frame is a full screen worth of visual elements.
type Frame struct {
	// Slots are indexed by Side.
	Slots [2]Slot
	// Text and Image are used for slides.
	Text  string
	Image string
}

// Blank returns an empty frame.
func Blank() Frame {
	return Frame{}
}

// IsBlank reports whether the frame draws nothing.
func (f Frame) IsBlank() bool {
	return !f.Slots[Left].Visible && !f.Slots[Right].Visible && f.Text == "" && f.Image == ""
}

// TextFrame returns a frame with centered text.
func TextFrame(text string) Frame {
	return Frame{Text: text}
}
