package ina219

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"
)

const (
	DefaultAddr = 0x41

	RegConfig      = 0
	RegShuntV      = 1
	RegBusV        = 2
	RegPower       = 3
	RegCurrent     = 4
	RegCalibration = 5

	BusVoltageLSB = 0.004
)

type Interface interface {
	Configure(shuntOhms float64, maxCurrent float64) error
	ReadBusVoltage() (float64, error)
	ReadCurrent() (float64, error)
	Close() error
}

type port interface {
	ReadReg(reg byte, buf []byte) error
	WriteReg(reg byte, buf []byte) (err error)
	Close() error
}

type INA219 struct {
	currentLSB float64
	dev        port
}

func NewI2C(deviceFile string, addr int) (Interface, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open INA219 at 0x%x", addr)
	}
	return &INA219{
		dev: dev,
	}, nil
}

func (m *INA219) Configure(shuntOhms float64, maxCurrent float64) error {
	m.currentLSB = maxCurrent / (1 << 15)
	cval := CalculateCalibrationValue(m.currentLSB, shuntOhms)
	fmt.Printf("INA219 calibration value: 0x%x\n", cval)
	err := m.dev.WriteReg(RegCalibration, []byte{byte(cval >> 8), byte(cval)})
	return errors.Wrap(err, "failed to write INA219 calibration")
}

// ReadBusVoltage returns the voltage on the load side of the shunt.  The low three bits of the
// register are status flags.
func (m *INA219) ReadBusVoltage() (float64, error) {
	raw, err := m.read16(RegBusV)
	if err != nil {
		return 0, err
	}
	return float64(raw>>3) * BusVoltageLSB, nil
}

func (m *INA219) ReadCurrent() (float64, error) {
	raw, err := m.read16(RegCurrent)
	if err != nil {
		return 0, err
	}
	return float64(int16(raw)) * m.currentLSB, nil
}

func (m *INA219) read16(reg byte) (uint16, error) {
	var buf [2]byte
	err := m.dev.ReadReg(reg, buf[:])
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read INA219 register %d", reg)
	}
	return uint16(buf[0])<<8 | uint16(buf[1]), nil
}

func (m *INA219) Close() error {
	return m.dev.Close()
}

func CalculateCalibrationValue(currentLSB float64, shuntOhms float64) int16 {
	return int16(0.04096 / (currentLSB * shuntOhms))
}

// Dummy reports a fixed, healthy bus voltage.
func Dummy(volts float64) Interface {
	return &dummyINA219{volts: volts}
}

type dummyINA219 struct {
	volts float64
}

func (*dummyINA219) Configure(shuntOhms float64, maxCurrent float64) error {
	return nil
}

func (d *dummyINA219) ReadBusVoltage() (float64, error) {
	return d.volts, nil
}

func (*dummyINA219) ReadCurrent() (float64, error) {
	return 0, nil
}

func (*dummyINA219) Close() error {
	return nil
}
