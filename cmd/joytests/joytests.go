package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tigerbot-team/cartbot/pkg/config"
	"github.com/tigerbot-team/cartbot/pkg/drivemix"
	"github.com/tigerbot-team/cartbot/pkg/joystick"
)

// Prints the A/D counts and motor pulse widths the cart would see if the game pad were its
// joystick.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	registerSignalHandlers(cancel)

	jDev := os.Getenv("JOYSTICK_DEVICE")
	if jDev == "" {
		jDev = "/dev/input/js0"
	}
	j, err := waitForJoystick(ctx, jDev)
	if err != nil {
		return
	}
	defer j.Close()

	state := joystick.NewState()
	go func() {
		defer cancel()
		err := state.Run(j)
		fmt.Printf("Joystick failed: %v\n", err)
	}()

	cfg := config.Default().Cart
	params := cfg.DriveParams()
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		x := joystick.AxisToCounts(state.Axis(joystick.AxisLStickX), cfg.MaxReading, false)
		y := joystick.AxisToCounts(state.Axis(joystick.AxisLStickY), cfg.MaxReading, true)
		out := drivemix.Mix(x, y, params)
		fmt.Printf("x %4d y %4d enable %-5v test %-5v -> fwd %4d turn %4d L %4d R %4d\n",
			x, y,
			state.Button(joystick.ButtonCross), state.Button(joystick.ButtonCircle),
			out.Forward, out.Turn, out.Left, out.Right)
	}
}

func waitForJoystick(ctx context.Context, jDev string) (*joystick.Joystick, error) {
	firstLog := true
	for {
		j, err := joystick.NewJoystick(jDev)
		if err == nil {
			fmt.Printf("Opened joystick\n")
			return j, nil
		}
		if firstLog {
			fmt.Printf("Waiting for joystick: %v.\n", err)
			firstLog = false
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Println("Signal: ", s)
		cancelFunc()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()
}
