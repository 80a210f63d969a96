package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tigerbot-team/cartbot/pkg/config"
	"github.com/tigerbot-team/cartbot/pkg/lcd"
	"github.com/tigerbot-team/cartbot/pkg/lcdtext"
	"github.com/tigerbot-team/cartbot/pkg/screen"
)

// Writes lines typed on stdin to the character display and the framebuffer mirror.  A line
// starting with a digit 0-3 and a space selects the row; "fuel <counts>" draws the gauge.
func main() {
	cfg := config.Default()
	display, err := lcd.New(cfg.Hardware.I2CBus, cfg.Hardware.LCDAddr)
	if err != nil {
		fmt.Println("Failed to open LCD", err)
		return
	}
	defer display.Close()
	if err := display.Configure(); err != nil {
		fmt.Println("Failed to configure LCD", err)
		return
	}

	mirror := screen.NewMirror()
	go mirror.Run(context.Background(), cfg.Hardware.Framebuffer, 500*time.Millisecond)

	show := func(row int, text string) {
		text = lcdtext.Row(text)
		mirror.SetRow(row, text)
		if err := display.Print(row, text); err != nil {
			fmt.Println("Failed to write to LCD", err)
		}
	}
	show(0, "    LCD TEST        ")
	show(1, string([]byte{lcdtext.Up, lcdtext.Down, lcdtext.Left, lcdtext.Right,
		lcdtext.Bullet, lcdtext.Vertical, lcdtext.Horizontal}))

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nFailed to read stdin: ", err)
			return
		}
		line = strings.TrimRight(line, "\r\n")

		if strings.HasPrefix(line, "fuel ") {
			vbat, err := strconv.Atoi(strings.TrimSpace(line[5:]))
			if err != nil {
				fmt.Println("Expected int, not ", line[5:])
				continue
			}
			show(3, lcdtext.FuelGauge(vbat, cfg.Cart.VBatMin, cfg.Cart.VBatMax))
			mirror.SetStatus("fuel", screen.Charge(vbat, cfg.Cart.VBatMin, cfg.Cart.VBatMax))
			continue
		}

		row := 2
		if len(line) >= 2 && line[0] >= '0' && line[0] <= '3' && line[1] == ' ' {
			row = int(line[0] - '0')
			line = line[2:]
		}
		show(row, line)
	}
}
