package drivemix

// Params describes the joystick geometry and the motor pulse limits, all in A/D counts and
// microseconds respectively.
type Params struct {
	Center       int
	Deadband     int
	Neutral      int
	ReverseLimit int
	ForwardLimit int
}

// Output is the result of one mixing pass.  Forward and Turn are the stick deflections past the
// deadband; Left and Right are the motor pulse widths.
type Output struct {
	Forward int
	Turn    int
	Left    int
	Right   int
}

// Mix maps the joystick axes onto left/right pulse widths for a differential drive.  The turn
// term is scaled down by 3 and the result is clamped after forward and turn are combined, so one
// side can saturate while the other keeps turning.
func Mix(joyX, joyY int, p Params) Output {
	forward := pastDeadband(joyY, p)
	turn := pastDeadband(joyX, p)
	return Output{
		Forward: forward,
		Turn:    turn,
		Left:    clamp(p.Neutral+forward+turn/3, p.ReverseLimit, p.ForwardLimit),
		Right:   clamp(p.Neutral+forward-turn/3, p.ReverseLimit, p.ForwardLimit),
	}
}

// TwoPosition is the crude bench mapping used in test mode: each motor is either stopped, full
// reverse (1000us) or full forward (2000us).  Pushing the stick left stops the right motor and
// vice versa.
func TwoPosition(joyX, joyY int, p Params) (left, right int) {
	pos := p.Neutral
	if joyY < p.Center-p.Deadband {
		pos = 1000
	} else if joyY > p.Center+p.Deadband {
		pos = 2000
	}

	left, right = p.Neutral, p.Neutral
	if joyX < p.Center+p.Deadband {
		left = pos
	}
	if joyX > p.Center-p.Deadband {
		right = pos
	}
	return
}

func pastDeadband(v int, p Params) int {
	if v > p.Center+p.Deadband {
		return v - (p.Center + p.Deadband)
	}
	if v < p.Center-p.Deadband {
		return v - (p.Center - p.Deadband)
	}
	return 0
}

func clamp(v, lo, hi int) int {
	if v > hi {
		return hi
	}
	if v < lo {
		return lo
	}
	return v
}
