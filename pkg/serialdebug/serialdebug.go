// Package serialdebug writes the periodic input dump to a serial console.
package serialdebug

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

type Interface interface {
	Dump(x, y, vbat, venable int)
	Close() error
}

type Writer struct {
	w io.WriteCloser
}

// Open opens the serial port.  An empty port name writes to stdout instead.
func Open(port string, baudRate int) (*Writer, error) {
	if port == "" {
		return New(nopCloser{os.Stdout}), nil
	}
	p, err := serial.Open(port, &serial.Mode{
		BaudRate: baudRate,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open serial port %s", port)
	}
	return New(p), nil
}

func New(w io.WriteCloser) *Writer {
	return &Writer{w: w}
}

// Dump writes one line in the form " x 512 y 512 b 900 e 0".  Write errors are logged and
// otherwise ignored.
func (d *Writer) Dump(x, y, vbat, venable int) {
	_, err := fmt.Fprintf(d.w, " x %d y %d b %d e %d\r\n", x, y, vbat, venable)
	if err != nil {
		fmt.Println("Serial debug failed:", err)
	}
}

func (d *Writer) Close() error {
	return d.w.Close()
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}

// Dummy discards the dump.
func Dummy() Interface {
	return dummyWriter{}
}

type dummyWriter struct{}

func (dummyWriter) Dump(x, y, vbat, venable int) {}

func (dummyWriter) Close() error {
	return nil
}
