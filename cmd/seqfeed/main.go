package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/sensorlink/pkg/framework"
	"github.com/robotalks/sensorlink/pkg/l0/serial"
	"github.com/robotalks/sensorlink/pkg/seqfeed"
)

var (
	listen  bool
	logFile string
	// settle lets a board which resets on open boot before the stream starts.
	settle = 150 * time.Millisecond
)

func init() {
	serial.SetupFlags()
	seqfeed.SetupFlags()
	flag.BoolVar(&listen, "listen", listen, "Also read what the board sends.")
	flag.StringVar(&logFile, "log", logFile, "Save what the board sends to this file, implies -listen.")
	flag.DurationVar(&settle, "settle", settle, "Wait after opening the port.")
}

func main() {
	flag.Parse()

	portConf := serial.Default()
	port, err := portConf.Open()
	if err != nil {
		log.Fatalln(err)
	}
	defer port.Close()
	glog.Infof("opened %s @ %d mode=%s", portConf.Device, portConf.Baud, seqfeed.Default().Mode)

	feeder, err := seqfeed.Default().NewFeeder(port)
	if err != nil {
		log.Fatalln(err)
	}
	time.Sleep(settle)

	runners := []fx.Runnable{fx.NamedRun("feeder", feeder)}
	if listen || logFile != "" {
		var sink io.Writer = io.Discard
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
			if err != nil {
				log.Fatalln(err)
			}
			defer f.Close()
			sink = f
		}
		runners = append(runners, fx.NamedRun("listener", fx.RunFunc(func(ctx context.Context) error {
			return drain(ctx, port, sink)
		})))
	}

	ctx, cancel := context.WithCancel(context.Background())
	runner := fx.NewRunnerWith(ctx).HandleSignals().Go(runners...)
	// the listener never finishes on its own
	<-runner.Done()
	cancel()
	if err := runner.Wait(); err != nil {
		glog.Errorf("seqfeed: %v", err)
	}
	glog.Flush()
}

// drain copies board output into sink until ctx is done.
func drain(ctx context.Context, r io.Reader, sink io.Writer) error {
	buf := make([]byte, 256)
	var total uint64
	for {
		select {
		case <-ctx.Done():
			glog.Infof("received %d bytes", total)
			return ctx.Err()
		default:
		}
		n, err := r.Read(buf)
		if n > 0 {
			total += uint64(n)
			glog.V(1).Infof("IN %x", buf[:n])
			if _, werr := sink.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil && !os.IsTimeout(err) {
			return err
		}
	}
}
