package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"

	"github.com/tigerbot-team/cartbot/pkg/config"
	"github.com/tigerbot-team/cartbot/pkg/mcp3008"
)

// Dumps the four cart channels of the MCP3008.  The SPI port may be given as the first argument.
func main() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	refs := spireg.All()
	for _, r := range refs {
		log.Printf("Port ref: %v", r)
	}

	hw := config.Default().Hardware
	port := hw.ADCPort
	if len(os.Args) > 1 {
		port = os.Args[1]
	}
	adc, err := mcp3008.NewSPI(port)
	if err != nil {
		log.Fatal(err)
	}
	defer adc.Close()

	channels := []struct {
		name    string
		channel int
	}{
		{"x", hw.ChannelJoyX},
		{"y", hw.ChannelJoyY},
		{"b", hw.ChannelVBat},
		{"e", hw.ChannelVEnable},
	}
	for range time.NewTicker(250 * time.Millisecond).C {
		for _, ch := range channels {
			v, err := adc.Read(ch.channel)
			if err != nil {
				fmt.Printf(" %s err(%v)", ch.name, err)
				continue
			}
			fmt.Printf(" %s %4d", ch.name, v)
		}
		fmt.Println()
	}
}
