package mcp3008

import (
	"fmt"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"
)

const (
	NumChannels = 8
	MaxReading  = 1023

	startBit    = 0x01
	singleEnded = 0x08
)

type Interface interface {
	Read(channel int) (int, error)
	Close() error
}

// conn is the subset of spi.Conn that we use.
type conn interface {
	Tx(w, r []byte) error
}

type MCP3008 struct {
	c      conn
	closer func() error

	w, r [3]byte
}

func NewSPI(deviceFile string) (Interface, error) {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialise periph")
	}

	p, err := spireg.Open(deviceFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open SPI port %q", deviceFile)
	}

	// The MCP3008 is good for 1.35MHz at 5V; stay well under.
	c, err := p.Connect(physic.KiloHertz*1000, spi.Mode0, 8)
	if err != nil {
		_ = p.Close()
		return nil, errors.Wrap(err, "failed to connect to MCP3008")
	}

	return &MCP3008{
		c:      c,
		closer: p.Close,
	}, nil
}

// Read does a single-ended conversion on the given channel.  The result arrives in the low two
// bits of the second byte and the whole of the third.
func (m *MCP3008) Read(channel int) (int, error) {
	if channel < 0 || channel >= NumChannels {
		return 0, fmt.Errorf("MCP3008 channel %d out of range", channel)
	}
	m.w = [3]byte{startBit, byte(singleEnded|channel) << 4, 0}
	if err := m.c.Tx(m.w[:], m.r[:]); err != nil {
		return 0, errors.Wrapf(err, "failed to read MCP3008 channel %d", channel)
	}
	return int(m.r[1]&0x03)<<8 | int(m.r[2]), nil
}

func (m *MCP3008) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer()
}

// Dummy returns fixed readings per channel; unknown channels read as zero.
func Dummy(readings map[int]int) Interface {
	return &dummyADC{readings: readings}
}

type dummyADC struct {
	readings map[int]int
}

func (d *dummyADC) Read(channel int) (int, error) {
	if channel < 0 || channel >= NumChannels {
		return 0, fmt.Errorf("MCP3008 channel %d out of range", channel)
	}
	return d.readings[channel], nil
}

func (*dummyADC) Close() error {
	return nil
}
