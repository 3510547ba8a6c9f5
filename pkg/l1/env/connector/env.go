// Package connector sets up clients connecting to a bridge.
package connector

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/robotalks/sensorlink/pkg/l1"
	"github.com/robotalks/sensorlink/pkg/l1/comm/mqtt"
)

// DefaultBridgeKind is the kind every sensorlink bridge registers with.
const DefaultBridgeKind = "sensorlink"

// Config provides common options to setup Connectors.
type Config struct {
	Ref l1.BridgeRef `mapstructure:",squash"`

	// RegistryURL specifies the URL of bridge registry.
	// e.g. mqtt://host:port/topic-prefix
	RegistryURL string `mapstructure:"registry_url"`
}

var defaultConfig = Config{
	Ref:         l1.BridgeRef{Kind: DefaultBridgeKind},
	RegistryURL: "mqtt://localhost:1883/sensorlink/",
}

func init() {
	if val := os.Getenv("SENSORLINK_BRIDGE_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
	if val := os.Getenv("SENSORLINK_REGISTRY_URL"); val != "" {
		defaultConfig.RegistryURL = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ref.Kind, "bridge-kind", defaultConfig.Ref.Kind, "Bridge kind to connect.")
	flag.StringVar(&defaultConfig.Ref.ID, "bridge", defaultConfig.Ref.ID, "Bridge ID to connect.")
	flag.StringVar(&defaultConfig.RegistryURL, "registry", defaultConfig.RegistryURL, "Bridge registry URL.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewConnector creates a Connector using current config.
func (c *Config) NewConnector() (l1.Connector, error) {
	parsedURL, err := url.Parse(c.RegistryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL: %v", err)
	}
	switch parsedURL.Scheme {
	case "mqtt", "mqtts", "ws", "wss":
		return mqtt.NewConnector(c.RegistryURL)
	default:
		return nil, fmt.Errorf("unknown registry URL scheme: %q", parsedURL.Scheme)
	}
}

// MustNewConnector creates a Connector and fails on error.
func (c *Config) MustNewConnector() l1.Connector {
	conn, err := c.NewConnector()
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}

// Connect directly connects to a bridge.
func (c *Config) Connect(ctx context.Context) (l1.BridgeConn, error) {
	if !c.Ref.IsValid() {
		return nil, fmt.Errorf("bridge kind and id must be specified")
	}
	connector, err := c.NewConnector()
	if err != nil {
		return nil, err
	}
	return connector.Connect(ctx, c.Ref)
}

// MustConnect connects to a bridge or fails.
func (c *Config) MustConnect() l1.BridgeConn {
	conn, err := c.Connect(context.Background())
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}
