package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tigerbot-team/cartbot/pkg/config"
	"github.com/tigerbot-team/cartbot/pkg/pca9685"
)

func main() {
	hw := config.Default().Hardware
	pwmController, err := pca9685.New(hw.I2CBus, hw.PWMAddr)
	if err != nil {
		fmt.Println("Failed to open PCA9685", err)
		return
	}
	defer pwmController.Close()

	err = pwmController.Configure()
	if err != nil {
		fmt.Println("Failed to configure PCA9685", err)
		return
	}

	fmt.Println(
		`Commands:
    w <n> <microseconds>    # Send pulses of the given width
    r <n>                   # Release port (full off)

<n>               Port number 0-15
<microseconds>    Pulse width; 1500=neutral, 1300=full reverse, 1800=full forward on the cart`)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nFailed to read stdin: ", err)
			return
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			fmt.Println("Not enough parameters")
			continue
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			fmt.Println("Expected int, not ", parts[1])
			continue
		}
		if n < 0 || n >= pca9685.NumPorts {
			fmt.Println("Expected 0 <= n < 16")
			continue
		}
		switch parts[0] {
		case "w":
			if len(parts) < 3 {
				fmt.Println("Not enough parameters")
				continue
			}
			us, err := strconv.Atoi(parts[2])
			if err != nil {
				fmt.Println("Expected int, not ", parts[2])
				continue
			}
			width := time.Duration(us) * time.Microsecond
			fmt.Printf("Setting port %d to %v (%d counts)\n", n, width, pca9685.PulseCounts(width))
			err = pwmController.SetPulseWidth(n, width)
		case "r":
			fmt.Printf("Releasing port %d\n", n)
			err = pwmController.Release(n)
		default:
			fmt.Println("Unknown command", parts[0])
			continue
		}
		if err != nil {
			fmt.Println("Failed to write to PCA9685: ", err)
			return
		}
	}
}
