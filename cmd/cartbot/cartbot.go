package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/tigerbot-team/cartbot/pkg/cart"
	"github.com/tigerbot-team/cartbot/pkg/config"
	"github.com/tigerbot-team/cartbot/pkg/controlloop"
	"github.com/tigerbot-team/cartbot/pkg/hardware"
)

func main() {
	app := cli.NewApp()
	app.Name = "cartbot"
	app.Usage = "run the cart's control loop"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Value: config.DefaultPath,
			Usage: "YAML config file; defaults are used if it is missing",
		},
		cli.StringFlag{
			Name:  "in-use-config",
			Value: config.DefaultInUsePath,
			Usage: "where to record the effective config",
		},
		cli.BoolFlag{
			Name:   "dummy",
			Usage:  "log instead of driving real devices",
			EnvVar: "IGNORE_MISSING_HARDWARE",
		},
		cli.StringFlag{
			Name:   "bench-joystick",
			Usage:  "joystick device that stands in for the operator controls",
			EnvVar: "JOYSTICK_DEVICE",
		},
		cli.BoolFlag{
			Name:  "serial-debug",
			Usage: "dump the inputs to the serial port every debug_cycles ticks",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	fmt.Println("---- CartBot ----")
	fmt.Println("GOMAXPROCS", runtime.GOMAXPROCS(0))

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if err := config.WriteInUse(c.String("in-use-config"), cfg); err != nil {
		fmt.Println("Failed to write in-use config; continuing:", err)
	}

	hw, err := hardware.New(cfg, hardware.Options{
		Dummy:         c.Bool("dummy"),
		BenchJoystick: c.String("bench-joystick"),
		SerialDebug:   c.Bool("serial-debug"),
	})
	if err != nil {
		return err
	}

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel)

	hw.Start(ctx)
	defer func() {
		cancel()
		hw.Shutdown()
	}()

	theCart := cart.New(cfg.Cart, cart.NewSystemClock(), hw.Motors(), hw.Display())
	theCart.OnStateChange = func(from, to cart.StateID) {
		if cue := soundCue(to); cue != "" {
			hw.PlaySound(cue)
		}
	}

	loop := controlloop.New(theCart, hw, cfg.Cart)
	loop.Start(ctx)

	watchdog := time.NewTicker(30 * time.Second)
	defer watchdog.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println("Context done, stopping control loop and shutting down")
			loop.Stop()
			return nil
		case <-watchdog.C:
			fmt.Println("Main loop still running; state", loop.State())
		}
	}
}

// soundCue names the entry in the sounds config to play on entering a state.
func soundCue(s cart.StateID) string {
	switch s {
	case cart.PowerOn:
		return "power-on"
	case cart.Enabled:
		return "enabled"
	case cart.ControlFault:
		return "control-fault"
	case cart.BatteryFault:
		return "battery-fault"
	case cart.Test:
		return "test"
	}
	return ""
}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Println("Signal: ", s)
		cancelFunc()
		time.Sleep(5 * time.Second)
		os.Exit(0)
	}()
}
