package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/tigerbot-team/cartbot/pkg/averaging"
	"github.com/tigerbot-team/cartbot/pkg/drivemix"
)

const (
	DefaultPath      = "/cfg/cartbot.yaml"
	DefaultInUsePath = "/cfg/cartbot-in-use.yaml"
)

// CartConfig holds the thresholds and timings of the control core.  A/D values assume a
// 10k/5.1k battery divider and a 5.00V reference.
type CartConfig struct {
	MaxReading int `yaml:"max_reading"`
	Center     int `yaml:"center"`

	VBatMin int `yaml:"vbat_min"`
	VBatLow int `yaml:"vbat_low"`
	VBatMax int `yaml:"vbat_max"`

	Deadband int `yaml:"deadband"`
	Fast     int `yaml:"fast"`

	Neutral      int `yaml:"neutral"`
	ForwardLimit int `yaml:"forward_limit"`
	ReverseLimit int `yaml:"reverse_limit"`

	NumSamples int `yaml:"num_samples"`

	PowerOnTime time.Duration `yaml:"power_on_time"`
	InitTime    time.Duration `yaml:"init_time"`

	LoopPeriod    time.Duration `yaml:"loop_period"`
	DebounceTicks int           `yaml:"debounce_ticks"`
	BlinkCycles   int           `yaml:"blink_cycles"`
	DebugCycles   int           `yaml:"debug_cycles"`
}

// HardwareConfig names the devices the cart is wired to.
type HardwareConfig struct {
	ADCPort        string `yaml:"adc_port"`
	ChannelJoyX    int    `yaml:"channel_joy_x"`
	ChannelJoyY    int    `yaml:"channel_joy_y"`
	ChannelVBat    int    `yaml:"channel_vbat"`
	ChannelVEnable int    `yaml:"channel_venable"`

	I2CBus         string `yaml:"i2c_bus"`
	LCDAddr        int    `yaml:"lcd_addr"`
	PWMAddr        int    `yaml:"pwm_addr"`
	LeftMotorPort  int    `yaml:"left_motor_port"`
	RightMotorPort int    `yaml:"right_motor_port"`
	INA219Addr     int    `yaml:"ina219_addr"`

	TestButtonPin string `yaml:"test_button_pin"`
	HeartbeatPin  string `yaml:"heartbeat_pin"`

	Framebuffer string            `yaml:"framebuffer"`
	SerialPort  string            `yaml:"serial_port"`
	BaudRate    int               `yaml:"baud_rate"`
	Sounds      map[string]string `yaml:"sounds"`
}

type Config struct {
	Cart     CartConfig     `yaml:"cart"`
	Hardware HardwareConfig `yaml:"hardware"`
}

func Default() Config {
	return Config{
		Cart: CartConfig{
			MaxReading:    1023,
			Center:        512,
			VBatMin:       726,  // 10.5V
			VBatLow:       774,  // 11.2V
			VBatMax:       1023, // 14.8V
			Deadband:      85,
			Fast:          300,
			Neutral:       1500,
			ForwardLimit:  1800,
			ReverseLimit:  1300,
			NumSamples:    50,
			PowerOnTime:   5000 * time.Millisecond,
			InitTime:      2000 * time.Millisecond,
			LoopPeriod:    20 * time.Millisecond,
			DebounceTicks: 5,
			BlinkCycles:   25,
			DebugCycles:   100,
		},
		Hardware: HardwareConfig{
			ADCPort:        "",
			ChannelJoyX:    0,
			ChannelJoyY:    1,
			ChannelVBat:    2,
			ChannelVEnable: 3,
			I2CBus:         "/dev/i2c-1",
			LCDAddr:        0x3f,
			PWMAddr:        0x40,
			LeftMotorPort:  0,
			RightMotorPort: 1,
			INA219Addr:     0x41,
			TestButtonPin:  "GPIO6",
			HeartbeatPin:   "GPIO13",
			Framebuffer:    "/dev/fb1",
			BaudRate:       115200,
			Sounds: map[string]string{
				"power-on":      "/sounds/cartbotstart.wav",
				"enabled":       "/sounds/enabled.wav",
				"control-fault": "/sounds/handsoff.wav",
				"battery-fault": "/sounds/lowbattery.wav",
				"test":          "/sounds/testmode.wav",
			},
		},
	}
}

// Load reads the YAML file at path over the defaults.  A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		fmt.Println("Config: no config file at", path, "using defaults")
		return cfg, nil
	} else if err != nil {
		return cfg, errors.Wrap(err, "failed to read config")
	}
	err = yaml.Unmarshal(raw, &cfg)
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to parse config %s", path)
	}
	return cfg, cfg.Cart.Validate()
}

// WriteInUse records the effective config so that it can be checked after a run.
func WriteInUse(path string, cfg Config) error {
	cfgBytes, err := yaml.Marshal(&cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	return ioutil.WriteFile(path, cfgBytes, 0666)
}

func (c *CartConfig) Validate() error {
	if c.NumSamples < 1 || c.NumSamples > averaging.MaxSamples {
		return errors.Errorf("num_samples must be in [1, %d], not %d", averaging.MaxSamples, c.NumSamples)
	}
	if !(c.VBatMin <= c.VBatLow && c.VBatLow < c.VBatMax && c.VBatMax <= c.MaxReading) {
		return errors.Errorf("battery thresholds must satisfy min <= low < max <= %d", c.MaxReading)
	}
	if !(c.ReverseLimit <= c.Neutral && c.Neutral <= c.ForwardLimit) {
		return errors.Errorf("pulse limits must bracket neutral (%d..%d..%d)", c.ReverseLimit, c.Neutral, c.ForwardLimit)
	}
	if c.Deadband < 0 || c.Deadband >= c.Center {
		return errors.Errorf("deadband %d out of range", c.Deadband)
	}
	if c.LoopPeriod <= 0 {
		return errors.New("loop_period must be positive")
	}
	if c.DebounceTicks < 0 {
		return errors.New("debounce_ticks must not be negative")
	}
	if c.PowerOnTime < 0 || c.InitTime < 0 {
		return errors.Errorf("power_on_time (%v) and init_time (%v) must not be negative", c.PowerOnTime, c.InitTime)
	}
	if c.BlinkCycles < 0 || c.DebugCycles < 0 {
		return errors.New("blink_cycles and debug_cycles must not be negative")
	}
	return nil
}

// DriveParams returns the mixer parameters.
func (c *CartConfig) DriveParams() drivemix.Params {
	return drivemix.Params{
		Center:       c.Center,
		Deadband:     c.Deadband,
		Neutral:      c.Neutral,
		ReverseLimit: c.ReverseLimit,
		ForwardLimit: c.ForwardLimit,
	}
}
