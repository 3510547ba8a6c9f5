// Package bridge sets up the environment of a link bridge: its identity
// and the registrars its events go to.
package bridge

import (
	"flag"
	"fmt"
	"log"
	"os"

	fx "github.com/robotalks/sensorlink/pkg/framework"
	"github.com/robotalks/sensorlink/pkg/l1"
	"github.com/robotalks/sensorlink/pkg/l1/comm"
	"github.com/robotalks/sensorlink/pkg/l1/comm/mqtt"
	"github.com/robotalks/sensorlink/pkg/l1/comm/stream"
	"github.com/robotalks/sensorlink/pkg/l1/comm/websocket"
	"github.com/robotalks/sensorlink/pkg/l1/env"
	"github.com/robotalks/sensorlink/pkg/l1/env/connector"
)

// Config provides common options to setup an env for a bridge.
type Config struct {
	Info l1.BridgeInfo `mapstructure:"-"`

	// ID overrides Info.Ref.ID when loaded from a config file.
	ID string `mapstructure:"id"`
	// MQTTBrokerURL specifies the MQTT broker to use, empty to disable.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string `mapstructure:"mqtt_url"`
	// WebsocketAddr serves a websocket mirror of all events, e.g. ":8090".
	WebsocketAddr string `mapstructure:"websocket"`
	// RecordFile records all events as length-prefixed packets.
	RecordFile string `mapstructure:"record"`
}

var defaultConfig = Config{
	MQTTBrokerURL: "mqtt://localhost:1883/sensorlink/",
}

func init() {
	if val := os.Getenv("SENSORLINK_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	defaultConfig.Info.Ref.Kind = connector.DefaultBridgeKind
	if val := os.Getenv("SENSORLINK_BRIDGE_ID"); val != "" {
		defaultConfig.Info.Ref.ID = val
	} else {
		defaultConfig.Info.Ref.ID = env.MachineID()
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Info.Ref.ID, "id", defaultConfig.Info.Ref.ID, "Bridge ID")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable")
	flag.StringVar(&defaultConfig.WebsocketAddr, "ws", defaultConfig.WebsocketAddr, "Serve a websocket mirror of events on this address")
	flag.StringVar(&defaultConfig.RecordFile, "record", defaultConfig.RecordFile, "Record events into this file")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// SetBridgeMeta should be called in init with basic info about the bridge.
func SetBridgeMeta(meta l1.BridgeMeta) {
	defaultConfig.Info.Meta = meta
}

// Env is the env for a bridge.
type Env struct {
	Config       *Config
	RegistryURLs []string
	Registrar    *comm.RegistrarMux
	Hub          *websocket.Hub
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	if c.ID != "" {
		c.Info.Ref.ID = c.ID
	}
	if !c.Info.Ref.IsValid() {
		return nil, fmt.Errorf("bridge kind and id must be specified")
	}
	e := &Env{
		Config:    c,
		Registrar: &comm.RegistrarMux{},
	}
	if c.MQTTBrokerURL != "" {
		reg, err := mqtt.NewRegistrar(c.MQTTBrokerURL, c.Info)
		if err != nil {
			return nil, fmt.Errorf("create MQTT registrar error: %v", err)
		}
		e.Registrar.Add(reg)
		e.RegistryURLs = append(e.RegistryURLs, c.MQTTBrokerURL)
	}
	if c.WebsocketAddr != "" {
		e.Hub = websocket.NewHub(c.WebsocketAddr)
		e.Registrar.Add(comm.NewEventWriter(e.Hub))
	}
	if c.RecordFile != "" {
		rec, err := stream.Create(c.RecordFile)
		if err != nil {
			return nil, fmt.Errorf("create record file error: %v", err)
		}
		e.Registrar.Add(comm.NewEventWriter(rec))
	}
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return e
}

// AddToLoop adds controllers/runners to loop.
func (e *Env) AddToLoop(loop *fx.Loop) {
	loop.Add(e.Registrar)
	loop.Add(&comm.UnsupportedCommands{})
}
