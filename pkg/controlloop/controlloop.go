// Package controlloop runs the cart's control tick at a fixed period and services the
// heartbeat LED and the debug dump alongside it.
package controlloop

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tigerbot-team/cartbot/pkg/cart"
	"github.com/tigerbot-team/cartbot/pkg/config"
)

type Peripherals interface {
	ReadInputs() (cart.Inputs, error)
	ToggleHeartbeat()
	DebugDump(x, y, vbat, venable int)
	ShowStatus(state cart.StateID, vbat int)
}

type Loop struct {
	cart *cart.Cart
	p    Peripherals

	period      time.Duration
	blinkCycles int
	debugCycles int

	ticks        int
	readFailures int

	// state is the StateID after the last tick, for readers outside the loop goroutine.
	state atomic.Int32

	cancel context.CancelFunc
	stopWG sync.WaitGroup
}

func New(c *cart.Cart, p Peripherals, cfg config.CartConfig) *Loop {
	l := &Loop{
		cart:        c,
		p:           p,
		period:      cfg.LoopPeriod,
		blinkCycles: cfg.BlinkCycles,
		debugCycles: cfg.DebugCycles,
	}
	l.state.Store(-1)
	return l
}

// State returns the cart's state as of the last completed tick.  Unlike Cart.State it is safe to
// call while the loop is running.  Before the first tick it is not a valid StateID.
func (l *Loop) State() cart.StateID {
	return cart.StateID(l.state.Load())
}

func (l *Loop) Start(ctx context.Context) {
	l.stopWG.Add(1)
	var loopCtx context.Context
	loopCtx, l.cancel = context.WithCancel(ctx)
	go l.loop(loopCtx)
}

// Stop ends the loop and leaves the motors released.
func (l *Loop) Stop() {
	l.cancel()
	l.stopWG.Wait()
}

func (l *Loop) loop(ctx context.Context) {
	defer l.stopWG.Done()
	defer l.cart.DisableMotors()

	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	fmt.Println("Control loop started")
	for {
		select {
		case <-ctx.Done():
			fmt.Println("Control loop stopping")
			return
		case <-ticker.C:
			l.step()
		}
	}
}

// step runs one control tick.  If the inputs can't be read, the motors are released and the tick
// is skipped; the next good tick restores whatever the active state drives.
func (l *Loop) step() {
	in, err := l.p.ReadInputs()
	if err != nil {
		if l.readFailures == 0 {
			fmt.Println("Control loop: failed to read inputs; releasing motors", err)
		}
		l.readFailures++
		l.cart.DisableMotors()
		return
	}
	if l.readFailures > 0 {
		fmt.Println("Control loop: inputs recovered after", l.readFailures, "failed reads")
		l.readFailures = 0
	}

	l.cart.Tick(in)
	l.ticks++

	if l.blinkCycles > 0 && l.ticks%l.blinkCycles == 0 {
		l.p.ToggleHeartbeat()
	}
	if l.debugCycles > 0 && l.ticks%l.debugCycles == 0 {
		l.p.DebugDump(l.cart.JoyX(), l.cart.JoyY(), l.cart.VBat(), l.cart.VEnable())
	}
	id := l.cart.State().ID()
	l.state.Store(int32(id))
	l.p.ShowStatus(id, l.cart.VBat())
}
