package sim

import (
	"flag"
	"strconv"
	"time"

	"github.com/robotalks/sensorlink/pkg/l0/diag"
	"github.com/robotalks/sensorlink/pkg/l0/frame"
	"github.com/robotalks/sensorlink/pkg/l0/pipeline"
	"github.com/robotalks/sensorlink/pkg/l0/sampler"
)

// Config describes the simulated board and the pipeline on it.
type Config struct {
	TickHz   uint32 `mapstructure:"tick_hz"`
	Period   uint32 `mapstructure:"period"`
	RingSize int    `mapstructure:"ring_size"`
	Baud     uint32 `mapstructure:"baud"`

	// SensorCost and SensorJitter are the ticks one sensor read takes.
	SensorCost   uint32 `mapstructure:"sensor_cost"`
	SensorJitter uint32 `mapstructure:"sensor_jitter"`
	// StepCost is the ticks one main loop pass takes.
	StepCost uint32 `mapstructure:"step_cost"`
	// ArmCost is the ticks a transmit hand-off takes.
	ArmCost uint32 `mapstructure:"arm_cost"`
	// LoadTicks is background work added to every main loop pass.
	LoadTicks uint32 `mapstructure:"load_ticks"`

	CalibrationMs    uint32 `mapstructure:"calibration_ms"`
	ReportIntervalMs uint32 `mapstructure:"report_interval_ms"`
	LEDEvery         uint32 `mapstructure:"led_every"`
	Seed             int64  `mapstructure:"seed"`

	// Realtime paces Run against the wall clock.
	Realtime bool `mapstructure:"realtime"`
}

var defaultConfig = Config{
	TickHz:           sampler.DefaultTickHz,
	Period:           sampler.DefaultPeriod,
	RingSize:         16,
	Baud:             DefaultBaud,
	SensorCost:       600,
	SensorJitter:     100,
	StepCost:         16,
	ArmCost:          4,
	CalibrationMs:    diag.DefaultCalibrationMs,
	ReportIntervalMs: pipeline.DefaultReportIntervalMs,
	LEDEvery:         pipeline.DefaultLEDEvery,
	Seed:             1,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Var(uint32Value{&defaultConfig.TickHz}, "tick-hz", "Tick source frequency")
	flag.Var(uint32Value{&defaultConfig.Period}, "period", "Sampling period in ticks")
	flag.IntVar(&defaultConfig.RingSize, "ring", defaultConfig.RingSize, "Ring buffer slots, power of two")
	flag.Var(uint32Value{&defaultConfig.Baud}, "baud", "Serial baud rate")
	flag.Var(uint32Value{&defaultConfig.SensorCost}, "sensor-cost", "Ticks per sensor read")
	flag.Var(uint32Value{&defaultConfig.SensorJitter}, "sensor-jitter", "Maximum extra ticks per sensor read")
	flag.Var(uint32Value{&defaultConfig.StepCost}, "step-cost", "Ticks per main loop pass")
	flag.Var(uint32Value{&defaultConfig.ArmCost}, "arm-cost", "Ticks per transmit hand-off")
	flag.Var(uint32Value{&defaultConfig.LoadTicks}, "load", "Background ticks added to every main loop pass")
	flag.Var(uint32Value{&defaultConfig.CalibrationMs}, "calibrate-ms", "Idle calibration window")
	flag.Var(uint32Value{&defaultConfig.ReportIntervalMs}, "report-ms", "Report interval, 0 to disable")
	flag.Int64Var(&defaultConfig.Seed, "seed", defaultConfig.Seed, "Sensor jitter seed")
	flag.BoolVar(&defaultConfig.Realtime, "realtime", defaultConfig.Realtime, "Pace the simulation against the wall clock")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// PeriodDuration returns the sampling period in wall time.
func (c *Config) PeriodDuration() time.Duration {
	return time.Duration(uint64(c.Period) * uint64(time.Second) / uint64(c.TickHz))
}

// ByteTicks returns the ticks one byte takes on the line.
func (c *Config) ByteTicks() uint32 {
	return uint32(uint64(c.TickHz) * BitsPerByte / uint64(c.Baud))
}

// FrameFits reports whether a frame is shifted out within one period.
func (c *Config) FrameFits() bool {
	return c.ByteTicks()*frame.Size < c.Period
}

type uint32Value struct {
	p *uint32
}

func (v uint32Value) String() string {
	if v.p == nil {
		return "0"
	}
	return strconv.FormatUint(uint64(*v.p), 10)
}

func (v uint32Value) Set(s string) error {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return err
	}
	*v.p = uint32(n)
	return nil
}
