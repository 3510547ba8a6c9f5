package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/sensorlink/pkg/l1"
	"github.com/robotalks/sensorlink/pkg/l1/comm"
)

// Connector implements l1.Connector using MQTT.
type Connector struct {
	DiscoverTimeout time.Duration

	options     *paho.ClientOptions
	topicPrefix string
}

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// NewConnector creates a Connector.
func NewConnector(brokerURL string) (*Connector, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Connector{
		DiscoverTimeout: DefaultDiscoverTimeout,
		options:         opts,
		topicPrefix:     topicPrefix,
	}, nil
}

// Discover implements l1.Connector. Bridges announce themselves with a
// retained meta message; an empty retained payload means the bridge left.
func (c *Connector) Discover(ctx context.Context) (res []l1.BridgeInfo, err error) {
	q := NewQueue(c.options, c.topicPrefix)
	q.Connect()
	defer q.Close()
	resCh := make(chan l1.BridgeInfo, 1)
	q.Sub("+/+/"+TopicMeta, Handler(func(topic string, payload []byte) {
		info, ok := ParseMeta(topic, payload)
		if !ok {
			return
		}
		select {
		case resCh <- info:
		case <-time.After(time.Second):
		}
	}))

	dur := c.DiscoverTimeout
	if dur == 0 {
		dur = DefaultDiscoverTimeout
	}
	seen := make(map[string]bool)
	timeout := time.After(dur)
	for {
		select {
		case info := <-resCh:
			if name := info.Ref.Name(); !seen[name] {
				seen[name] = true
				res = append(res, info)
			}
		case <-timeout:
			return
		case <-ctx.Done():
			err = ctx.Err()
			return
		}
	}
}

// ParseMeta parses a retained meta message published by a Registrar.
func ParseMeta(topic string, payload []byte) (info l1.BridgeInfo, ok bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 || items[2] != TopicMeta || len(payload) == 0 {
		return
	}
	info.Ref = l1.BridgeRef{Kind: items[0], ID: items[1]}
	if err := json.Unmarshal(payload, &info.Meta); err != nil {
		glog.Warningf("%s: bad meta: %v", topic, err)
	}
	return info, info.Ref.IsValid()
}

// Connect implements l1.Connector.
func (c *Connector) Connect(ctx context.Context, ref l1.BridgeRef) (l1.BridgeConn, error) {
	conn := &BridgeConn{
		Queue: NewQueue(c.options, c.topicPrefix),
	}
	conn.Init(NewPacketReadWriter(conn.Queue).ForClient(ref))
	token := conn.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	return conn, nil
}

// BridgeConn implements l1.BridgeConn using MQTT.
type BridgeConn struct {
	comm.BridgeConn
	Queue *Queue
}
