package pca9685

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"
)

const (
	DefaultAddr = 0x40

	RegMode1 = 0x00
	RegMode2 = 0x01

	// Each PWM output has two 16-bit (low byte first) registers.
	// First register is the on time, second is the off time.
	RegLEDBase = 0x06

	RegPreScale = 0xfe // Pre-scaler for PWM frequency.
	RegTestMode = 0xff

	NumPorts = 16

	PWMPeriod = 20 * time.Millisecond

	PWMMax = 4095

	// Bit 4 of the OFF_H register holds the output fully off.
	fullOff = 0x10
)

type Interface interface {
	Configure() error
	SetPulseWidth(port int, width time.Duration) error
	Release(port int) error
	Close() error
}

type port interface {
	WriteReg(reg byte, buf []byte) error
	Close() error
}

type PCA9685 struct {
	dev port
}

func New(deviceFile string, addr int) (Interface, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open PCA9685 at 0x%x", addr)
	}
	return &PCA9685{
		dev: dev,
	}, nil
}

func (p *PCA9685) Configure() (err error) {
	// Put device to sleep.
	err = p.dev.WriteReg(RegMode1, []byte{0x11})
	if err != nil {
		return
	}
	// Update pre-scaler for 50Hz.
	err = p.dev.WriteReg(RegPreScale, []byte{0x79})
	if err != nil {
		return
	}
	// Trigger a reset
	err = p.dev.WriteReg(RegMode1, []byte{0x01})
	if err != nil {
		return
	}
	// Required delay after reset.
	time.Sleep(1 * time.Millisecond)
	// Enable.
	err = p.dev.WriteReg(RegMode1, []byte{0x81})
	return
}

// PulseCounts converts a pulse width into the 12-bit off count for one PWM period.
func PulseCounts(width time.Duration) uint16 {
	if width < 0 {
		width = 0
	} else if width > PWMPeriod {
		width = PWMPeriod
	}
	return uint16(int64(PWMMax+1) * int64(width) / int64(PWMPeriod))
}

// SetPulseWidth drives port with a servo-style pulse of the given width.
func (p *PCA9685) SetPulseWidth(port int, width time.Duration) error {
	if port < 0 || port >= NumPorts {
		return errors.Errorf("PWM port out of range: %d", port)
	}
	counts := PulseCounts(width)
	if counts > PWMMax {
		counts = PWMMax
	}
	return p.writeLED(port, 0, counts)
}

// Release holds port low so that the ESC sees no pulses at all, the equivalent of detaching a
// servo.
func (p *PCA9685) Release(port int) error {
	if port < 0 || port >= NumPorts {
		return errors.Errorf("PWM port out of range: %d", port)
	}
	return p.writeLED(port, 0, fullOff<<8)
}

func (p *PCA9685) writeLED(port int, on, off uint16) error {
	addr := RegLEDBase + port*4
	return p.dev.WriteReg(byte(addr), []byte{byte(on & 0xff), byte(on >> 8), byte(off & 0xff), byte(off >> 8)})
}

func (p *PCA9685) Close() error {
	return p.dev.Close()
}

func Dummy() Interface {
	return &dummyPWM{}
}

type dummyPWM struct {
}

func (*dummyPWM) Configure() error {
	return nil
}

func (*dummyPWM) SetPulseWidth(port int, width time.Duration) error {
	fmt.Printf("Dummy PWM port=%d width=%v\n", port, width)
	return nil
}

func (*dummyPWM) Release(port int) error {
	fmt.Printf("Dummy PWM port=%d released\n", port)
	return nil
}

func (*dummyPWM) Close() error {
	return nil
}
