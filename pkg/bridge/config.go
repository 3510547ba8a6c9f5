package bridge

import (
	"flag"
	"fmt"
	"io"
	"time"

	bridgeenv "github.com/robotalks/sensorlink/pkg/l1/env/bridge"
)

// Config defines the configurations for the bridge controller.
type Config struct {
	Mode           string        `mapstructure:"mode"`
	TickHz         uint32        `mapstructure:"tick_hz"`
	ReportInterval time.Duration `mapstructure:"report_interval"`
	PublishFrames  bool          `mapstructure:"publish_frames"`
	// FrameTimeout drops a partial frame after the line stays idle.
	FrameTimeout time.Duration `mapstructure:"frame_timeout"`
}

var defaultConfig = Config{
	Mode:           string(ModeFrames),
	TickHz:         DefaultTickHz,
	ReportInterval: 5 * time.Second,
	FrameTimeout:   100 * time.Millisecond,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Mode, "mode", defaultConfig.Mode, "Link content: frames or bytes (seqfeed stream)")
	flag.Var(tickHzValue{&defaultConfig.TickHz}, "tick-hz", "Board tick rate used to convert frame times")
	flag.DurationVar(&defaultConfig.ReportInterval, "report-interval", defaultConfig.ReportInterval, "Interval of LinkStats events")
	flag.BoolVar(&defaultConfig.PublishFrames, "publish-frames", defaultConfig.PublishFrames, "Publish every frame as FrameSample event")
	flag.DurationVar(&defaultConfig.FrameTimeout, "frame-timeout", defaultConfig.FrameTimeout, "Drop a partial frame after the line is idle this long")
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

// NewController creates a controller reading the link from input.
// readTimeout tells input returns timeout errors when the line is idle.
func (c *Config) NewController(e *bridgeenv.Env, input io.Reader, readTimeout bool) (*Controller, error) {
	mode := Mode(c.Mode)
	if !mode.IsValid() {
		return nil, fmt.Errorf("unknown mode %q", c.Mode)
	}
	ctl := NewController(e.Registrar, input, mode, c.TickHz)
	ctl.ReportInterval = c.ReportInterval
	ctl.PublishFrames = c.PublishFrames
	if ctl.receiver != nil {
		ctl.receiver.Timeout = c.FrameTimeout
		ctl.receiver.ReadTimeout = readTimeout
	}
	return ctl, nil
}

type tickHzValue struct {
	v *uint32
}

func (v tickHzValue) String() string {
	if v.v == nil {
		return "0"
	}
	return fmt.Sprint(*v.v)
}

func (v tickHzValue) Set(s string) error {
	var hz uint32
	if _, err := fmt.Sscan(s, &hz); err != nil {
		return err
	}
	*v.v = hz
	return nil
}
