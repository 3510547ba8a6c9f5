package main

//go-build: CGO_ENABLED=0

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/sensorlink/pkg/bridge"
	fx "github.com/robotalks/sensorlink/pkg/framework"
	"github.com/robotalks/sensorlink/pkg/l0/serial"
	"github.com/robotalks/sensorlink/pkg/l1"
	"github.com/robotalks/sensorlink/pkg/l1/env"
	bridgeenv "github.com/robotalks/sensorlink/pkg/l1/env/bridge"
)

var (
	listPorts bool
	inputFile string
	quiet     bool
)

func init() {
	bridgeenv.SetBridgeMeta(l1.BridgeMeta{Description: "Sensor link bridge"})
	bridgeenv.SetupFlags()
	serial.SetupFlags()
	bridge.SetupFlags()
	flag.BoolVar(&listPorts, "list-ports", listPorts, "List serial ports and exit.")
	flag.StringVar(&inputFile, "input", inputFile, "Read a captured link stream from this file instead of the serial port.")
	flag.BoolVar(&quiet, "q", quiet, "Do not print the summary on exit.")
}

func main() {
	cfgFile, err := env.LoadConfigFile(os.Getenv("SENSORLINK_CONFIG"), map[string]interface{}{
		"link":     serial.Default(),
		"bridge":   bridge.Default(),
		"registry": bridgeenv.Default(),
	})
	flag.Parse()
	if err != nil {
		log.Fatalln(err)
	}
	if cfgFile != "" {
		glog.Infof("config loaded from %s", cfgFile)
	}

	if listPorts {
		ports, err := serial.ListPorts()
		if err != nil {
			log.Fatalln(err)
		}
		for _, p := range ports {
			fmt.Println(p.String())
		}
		return
	}

	conf := bridgeenv.NewConfig()
	var input io.Reader
	readTimeout := false
	if inputFile != "" {
		f, err := os.Open(inputFile)
		if err != nil {
			log.Fatalln(err)
		}
		defer f.Close()
		input = f
		conf.Info.Meta.Device = inputFile
	} else {
		portConf := serial.Default()
		port, err := portConf.Open()
		if err != nil {
			log.Fatalln(err)
		}
		defer port.Close()
		port.Flush()
		input = port
		readTimeout = portConf.ReadTimeout > 0
		conf.Info.Meta.Device = portConf.Device
	}
	conf.Info.Meta.Mode = bridge.Default().Mode

	e := conf.MustNewEnv()
	ctl, err := bridge.Default().NewController(e, input, readTimeout)
	if err != nil {
		log.Fatalln(err)
	}
	glog.Infof("bridge %s reading %s in %s mode", conf.Info.Ref.Name(), conf.Info.Meta.Device, ctl.Mode)

	loop := fx.NewLoop().Add(e, ctl)
	runErr := fx.NewRunner().HandleSignals().Go(loop).Wait()
	if runErr != nil {
		glog.Errorf("bridge stopped: %v", runErr)
	}
	glog.Flush()

	if !quiet {
		printSummary(ctl)
	}
	if runErr != nil {
		os.Exit(1)
	}
}

func printSummary(ctl *bridge.Controller) {
	if ctl.Mode == bridge.ModeBytes {
		out := json.NewEncoder(os.Stdout)
		out.SetIndent("", "  ")
		out.Encode(ctl.ByteStats())
		return
	}
	s := ctl.Summary()
	s.WriteJSON(os.Stdout)
}
