// Package seqfeed produces byte streams for serial link reliability tests.
//
// The seq and burst modes send a 0..255 counting sequence which the
// bridge analyses in bytes mode; random mode only stresses the link.
package seqfeed

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/golang/glog"
)

// Mode selects the stream.
type Mode string

// Stream modes.
const (
	ModeSeq    Mode = "seq"
	ModeBurst  Mode = "burst"
	ModeRandom Mode = "random"
)

// IsValid tells whether the mode is known.
func (m Mode) IsValid() bool {
	switch m {
	case ModeSeq, ModeBurst, ModeRandom:
		return true
	}
	return false
}

// ErrInvalidConfig is returned by NewFeeder for unusable settings.
var ErrInvalidConfig = errors.New("invalid feeder config")

// Config defines the stream.
type Config struct {
	Mode string `mapstructure:"mode"`
	// Chunk is the size of a single Write.
	Chunk    int           `mapstructure:"chunk"`
	Duration time.Duration `mapstructure:"duration"`
	// Limit stops after this many bytes, 0 for no limit.
	Limit          uint64        `mapstructure:"limit"`
	ReportInterval time.Duration `mapstructure:"report_interval"`
	BurstSize      int           `mapstructure:"burst_size"`
	BurstGap       time.Duration `mapstructure:"burst_gap"`
	Seed           int64         `mapstructure:"seed"`
}

var defaultConfig = Config{
	Mode:           string(ModeSeq),
	Chunk:          1024,
	ReportInterval: time.Second,
	BurstSize:      8192,
	BurstGap:       5 * time.Millisecond,
	Seed:           1,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Mode, "mode", defaultConfig.Mode, "Stream: seq, burst or random")
	flag.IntVar(&defaultConfig.Chunk, "chunk", defaultConfig.Chunk, "Bytes per write")
	flag.DurationVar(&defaultConfig.Duration, "duration", defaultConfig.Duration, "Run time, 0 to run until interrupted")
	flag.Uint64Var(&defaultConfig.Limit, "limit", defaultConfig.Limit, "Stop after this many bytes, 0 for no limit")
	flag.DurationVar(&defaultConfig.ReportInterval, "report", defaultConfig.ReportInterval, "Status interval")
	flag.IntVar(&defaultConfig.BurstSize, "burst-size", defaultConfig.BurstSize, "Bytes per burst")
	flag.DurationVar(&defaultConfig.BurstGap, "burst-gap", defaultConfig.BurstGap, "Idle gap after each burst")
	flag.Int64Var(&defaultConfig.Seed, "seed", defaultConfig.Seed, "Random stream seed")
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

// NewFeeder creates a Feeder writing to w.
func (c *Config) NewFeeder(w io.Writer) (*Feeder, error) {
	mode := Mode(c.Mode)
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	if c.Chunk <= 0 || (mode == ModeBurst && c.BurstSize <= 0) {
		return nil, fmt.Errorf("%w: chunk and burst size must be positive", ErrInvalidConfig)
	}
	f := &Feeder{Writer: w, Mode: mode, conf: *c, Clock: time.Now}
	if mode == ModeRandom {
		f.gen = &RandomGenerator{rnd: rand.New(rand.NewSource(c.Seed))}
	} else {
		f.gen = &SeqGenerator{}
	}
	return f, nil
}

// Generator fills buffers with the stream content.
type Generator interface {
	Fill(p []byte)
}

// SeqGenerator produces the 0..255 wrapping sequence.
type SeqGenerator struct {
	next byte
}

// Fill implements Generator.
func (g *SeqGenerator) Fill(p []byte) {
	for n := range p {
		p[n] = g.next
		g.next++
	}
}

// RandomGenerator produces pseudo random bytes.
type RandomGenerator struct {
	rnd *rand.Rand
}

// Fill implements Generator.
func (g *RandomGenerator) Fill(p []byte) {
	g.rnd.Read(p)
}

// Stats are the feeder counters.
type Stats struct {
	Sent    uint64        `json:"sent"`
	Bursts  uint64        `json:"bursts,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
}

// Rate returns the average bytes per second.
func (s Stats) Rate() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Sent) / s.Elapsed.Seconds()
}

// Feeder writes the stream.
type Feeder struct {
	Writer io.Writer
	Mode   Mode
	Clock  func() time.Time

	conf  Config
	gen   Generator
	stats Stats
	buf   []byte
}

// Stats returns the counters. It must not be called while Run is active.
func (f *Feeder) Stats() Stats {
	return f.stats
}

// Run writes the stream until ctx is done, the duration elapsed or the
// byte limit is reached.
func (f *Feeder) Run(ctx context.Context) error {
	start := f.Clock()
	lastReport := start
	f.buf = make([]byte, f.conf.Chunk)
	defer func() {
		f.stats.Elapsed = f.Clock().Sub(start)
		glog.Infof("done sent=%d avg_rate=%.1fB/s mode=%s", f.stats.Sent, f.stats.Rate(), f.Mode)
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		now := f.Clock()
		if f.conf.Duration > 0 && now.Sub(start) >= f.conf.Duration {
			return nil
		}
		if f.done() {
			return nil
		}
		if f.conf.ReportInterval > 0 && now.Sub(lastReport) >= f.conf.ReportInterval {
			f.stats.Elapsed = now.Sub(start)
			glog.Infof("elapsed=%.1fs sent=%d rate=%.1fB/s mode=%s",
				f.stats.Elapsed.Seconds(), f.stats.Sent, f.stats.Rate(), f.Mode)
			lastReport = now
		}
		if f.Mode == ModeBurst {
			if err := f.burst(ctx); err != nil {
				return err
			}
			continue
		}
		if err := f.write(f.conf.Chunk); err != nil {
			return err
		}
	}
}

func (f *Feeder) done() bool {
	return f.conf.Limit > 0 && f.stats.Sent >= f.conf.Limit
}

func (f *Feeder) burst(ctx context.Context) error {
	for remaining := f.conf.BurstSize; remaining > 0 && !f.done(); {
		n := f.conf.Chunk
		if n > remaining {
			n = remaining
		}
		if err := f.write(n); err != nil {
			return err
		}
		remaining -= n
	}
	f.stats.Bursts++
	if f.conf.BurstGap <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(f.conf.BurstGap):
		return nil
	}
}

func (f *Feeder) write(n int) error {
	if f.conf.Limit > 0 {
		if left := f.conf.Limit - f.stats.Sent; uint64(n) > left {
			n = int(left)
		}
	}
	p := f.buf[:n]
	f.gen.Fill(p)
	written, err := f.Writer.Write(p)
	f.stats.Sent += uint64(written)
	if err != nil {
		return fmt.Errorf("write stream: %w", err)
	}
	return nil
}
