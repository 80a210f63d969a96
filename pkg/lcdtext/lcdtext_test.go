package lcdtext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func field(fill func(buf []byte)) string {
	buf := []byte("xxxx")
	fill(buf)
	return string(buf)
}

func TestItoa4(t *testing.T) {
	tests := map[int]string{
		0:     "   0",
		7:     "   7",
		42:    "  42",
		512:   " 512",
		1023:  "1023",
		9999:  "9999",
		10000: "----",
		-1:    "----",
	}
	for n, expected := range tests {
		assert.Equal(t, expected, field(func(b []byte) { Itoa4(b, n) }), "Itoa4(%d)", n)
	}
}

func TestItoa4Left(t *testing.T) {
	tests := map[int]string{
		0:     "0   ",
		7:     "7   ",
		950:   "950 ",
		1500:  "1500",
		9999:  "9999",
		10000: "----",
		-1:    "----",
	}
	for n, expected := range tests {
		assert.Equal(t, expected, field(func(b []byte) { Itoa4Left(b, n) }), "Itoa4Left(%d)", n)
	}
}

func TestFtoa2x1(t *testing.T) {
	tests := []struct {
		f        float32
		expected string
	}{
		{0, " 0.0"},
		{5.04, " 5.0"},
		{5.06, " 5.1"},
		{12.34, "12.3"},
		{99.94, "99.9"},
		{99.96, "----"},
		{-1, "----"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, field(func(b []byte) { Ftoa2x1(b, tt.f) }), "Ftoa2x1(%v)", tt.f)
	}
}

func TestFtoa1x2(t *testing.T) {
	tests := []struct {
		f        float32
		expected string
	}{
		{0, "0.00"},
		{1.5, "1.50"},
		{1.8, "1.80"},
		{9.994, "9.99"},
		{9.996, "----"},
		{10, "----"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, field(func(b []byte) { Ftoa1x2(b, tt.f) }), "Ftoa1x2(%v)", tt.f)
	}
}

func TestFuelGauge(t *testing.T) {
	empty := FuelGauge(700, 726, 1023)
	assert.Equal(t, string([]byte{Vertical})+Blank[1:], empty)

	full := FuelGauge(1023, 726, 1023)
	assert.Len(t, full, Cols)
	assert.NotContains(t, full, " ")
	assert.Equal(t, Vertical, full[0])
	assert.Equal(t, Horizontal, full[1])
	assert.Equal(t, Vertical, full[15])

	// 20*(874-726)/297 = 9
	half := FuelGauge(874, 726, 1023)
	assert.Equal(t, 10, strings.Count(half, " "))
	assert.Equal(t, Horizontal, half[9])
}

func TestRow(t *testing.T) {
	assert.Equal(t, "READY"+Blank[5:], Row("READY"))
	assert.Equal(t, "01234567890123456789", Row("0123456789012345678901"))
}
