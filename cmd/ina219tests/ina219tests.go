package main

import (
	"fmt"
	"time"

	"github.com/tigerbot-team/cartbot/pkg/config"
	"github.com/tigerbot-team/cartbot/pkg/hardware"
	"github.com/tigerbot-team/cartbot/pkg/ina219"
)

func main() {
	cfg := config.Default()
	sensor, err := ina219.NewI2C(cfg.Hardware.I2CBus, cfg.Hardware.INA219Addr)
	if err != nil {
		fmt.Println("Failed to open ina219", err)
		return
	}
	defer sensor.Close()

	err = sensor.Configure(0.1, 3.2)
	if err != nil {
		fmt.Println("Failed to configure ina219", err)
		return
	}

	for range time.NewTicker(500 * time.Millisecond).C {
		voltage, err := sensor.ReadBusVoltage()
		fmt.Printf("%.2fV (%d counts) %v ", voltage, hardware.VoltsToCounts(voltage, cfg.Cart.MaxReading), err)
		current, err := sensor.ReadCurrent()
		fmt.Printf("%.3fA %v\n", current, err)
	}
}
