package averaging

// MaxSamples is the largest depth a Channel can be built with.  The buffer is a fixed array so
// that recording a sample never allocates.
const MaxSamples = 256

// Channel smooths a noisy analog input by averaging its last n samples.  The buffer always holds
// exactly n valid entries: it is pre-filled when the channel is created.
type Channel struct {
	samples [MaxSamples]int
	n       int
	index   int
}

// New returns a channel of depth n with every slot set to fill.  n is clamped to [1, MaxSamples].
func New(n, fill int) *Channel {
	if n < 1 {
		n = 1
	} else if n > MaxSamples {
		n = MaxSamples
	}
	c := &Channel{n: n}
	for i := 0; i < n; i++ {
		c.samples[i] = fill
	}
	return c
}

// Record overwrites the oldest sample.
func (c *Channel) Record(sample int) {
	c.samples[c.index] = sample
	c.index++
	if c.index >= c.n {
		c.index = 0
	}
}

// Average returns the mean of the buffer, rounded half up.
func (c *Channel) Average() int {
	sum := 0
	for i := 0; i < c.n; i++ {
		sum += c.samples[i]
	}
	return (sum + c.n/2) / c.n
}

func (c *Channel) Len() int {
	return c.n
}
