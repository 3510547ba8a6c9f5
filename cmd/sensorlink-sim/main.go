package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/sensorlink/pkg/framework"
	"github.com/robotalks/sensorlink/pkg/l0/comm"
	"github.com/robotalks/sensorlink/pkg/l0/frame"
	"github.com/robotalks/sensorlink/pkg/l0/pipeline"
	"github.com/robotalks/sensorlink/pkg/l0/serial"
	"github.com/robotalks/sensorlink/pkg/l0/sim"
	"github.com/robotalks/sensorlink/pkg/l1/env"
)

var (
	duration   = 10 * time.Second
	outFile    string
	device     string
	outputJSON bool
	drainSpins = 1 << 20
)

func init() {
	sim.SetupFlags()
	flag.DurationVar(&duration, "duration", duration, "Simulated run time.")
	flag.StringVar(&outFile, "out", outFile, "Write wire bytes to this file.")
	flag.StringVar(&device, "device", device, "Write wire bytes to this serial device.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print results in JSON.")
}

type result struct {
	Config   sim.Config        `json:"config"`
	Report   pipeline.Report   `json:"report"`
	Wire     uint64            `json:"wire_bytes"`
	Receiver *comm.ParserStats `json:"receiver,omitempty"`
	Summary  *comm.Summary     `json:"summary,omitempty"`
}

func main() {
	cfgFile, err := env.LoadConfigFile(os.Getenv("SENSORLINK_CONFIG"), map[string]interface{}{
		"sim": sim.Default(),
	})
	flag.Parse()
	if err != nil {
		log.Fatalln(err)
	}
	if cfgFile != "" {
		glog.Infof("config loaded from %s", cfgFile)
	}

	conf := sim.NewConfig()
	if !conf.FrameFits() {
		glog.Warningf("a frame takes %d ticks on the line, longer than the period %d",
			conf.ByteTicks()*frame.Size, conf.Period)
	}

	var (
		wire      io.Writer
		collector *comm.Collector
		decoder   *comm.Decoder
	)
	switch {
	case outFile != "":
		f, err := os.Create(outFile)
		if err != nil {
			log.Fatalln(err)
		}
		defer f.Close()
		wire = f
	case device != "":
		port, err := serial.Open(&serial.Config{Device: device, Baud: int(conf.Baud)})
		if err != nil {
			log.Fatalln(err)
		}
		defer port.Close()
		if !conf.Realtime {
			glog.Warning("writing to a serial port without -realtime")
		}
		wire = port
	default:
		collector = comm.NewCollector(conf.TickHz)
		decoder = comm.NewDecoder(collector)
		wire = decoder
	}

	h, err := conf.NewHarness(wire)
	if err != nil {
		log.Fatalln(err)
	}
	h.Loop.Reporter = pipeline.LogReporter{}
	h.Calibrate()

	if conf.Realtime {
		ctx, cancel := context.WithTimeout(context.Background(), duration)
		err = fx.NewRunnerWith(ctx).HandleSignals().Go(fx.NamedRun("harness", h)).Wait()
		cancel()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			glog.Errorf("simulation stopped: %v", err)
		}
	} else {
		h.RunDuration(duration)
	}
	if err := h.Stop(drainSpins); err != nil {
		glog.Errorf("drain: %v", err)
	}
	if err := h.Board.WireErr(); err != nil {
		glog.Errorf("wire: %v", err)
	}
	glog.Flush()

	res := result{Config: *conf, Report: h.Report(), Wire: h.Board.WireBytes()}
	if collector != nil {
		stats := decoder.Stats()
		summary := collector.Summary()
		res.Receiver, res.Summary = &stats, &summary
	}
	printResult(&res)
}

func printResult(res *result) {
	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(res)
		return
	}
	r := &res.Report
	log.Printf("sent %d frames, %d bytes on the wire, %d overflows, %d missed deadlines, peak busy %d%%",
		r.FramesSent, res.Wire, r.RingOverflows, r.MissedDeadlines, r.PeakBusy)
	if res.Summary != nil {
		s := res.Summary
		log.Printf("received %d frames, %d checksum errors, %d lost, %.1f frames/s",
			s.Frames, res.Receiver.ChecksumErrors, s.Seq.Lost, s.FramesPerSec)
		log.Printf("process %.3fms, send %.3fms, interval %.3fms (max %.3fms)",
			s.ProcessMs.Mean, s.SendMs.Mean, s.IntervalMs.Mean, s.IntervalMs.Max)
	}
}
