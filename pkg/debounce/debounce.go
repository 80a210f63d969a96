package debounce

// NumModes is the number of diagnostic display modes the button cycles through.
const NumModes = 3

// Button edge-detects a push button sampled once per tick and cycles a display mode on each
// clean press.
type Button struct {
	// ticks is the debounce window reloaded on every edge.
	ticks int

	pressed   bool
	countdown int
	mode      int
}

// New returns a debouncer that treats the button as already held, so a button still held from
// power-on does not count as a press.
func New(ticks int) Button {
	return Button{
		ticks:   ticks,
		pressed: true,
	}
}

// Update feeds one sample.  It returns true if the display mode advanced.
func (b *Button) Update(pressed bool) (advanced bool) {
	if b.countdown > 0 {
		b.countdown--
	}
	if pressed == b.pressed {
		return false
	}
	if pressed && b.countdown == 0 {
		b.mode++
		if b.mode >= NumModes {
			b.mode = 0
		}
		advanced = true
	}
	b.pressed = pressed
	b.countdown = b.ticks
	return
}

func (b *Button) Mode() int {
	return b.mode
}

func (b *Button) Pressed() bool {
	return b.pressed
}

func (b *Button) Countdown() int {
	return b.countdown
}
