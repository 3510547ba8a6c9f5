package mqtt

import (
	"context"
	"encoding/json"

	"github.com/golang/glog"

	fx "github.com/robotalks/sensorlink/pkg/framework"
	"github.com/robotalks/sensorlink/pkg/l1"
	"github.com/robotalks/sensorlink/pkg/l1/comm"
)

// ClientIDPrefix prefixes the MQTT client ID of a registered bridge when
// the broker URL does not specify one.
const ClientIDPrefix = "sensorlink:"

// Registrar implements l1.Registrar using MQTT. The bridge info is
// published as a retained meta message, cleared by the will message
// when the bridge disconnects unexpectedly.
type Registrar struct {
	Queue *Queue
	Info  l1.BridgeInfo

	metaJSON  string
	registrar comm.Registrar
}

// NewRegistrar creates a Registrar.
func NewRegistrar(brokerURL string, info l1.BridgeInfo) (*Registrar, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		panic(err)
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+metaTopic(info.Ref), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID(ClientIDPrefix + info.Ref.Name())
	}
	r := &Registrar{
		Queue:    NewQueue(opts, topicPrefix),
		Info:     info,
		metaJSON: string(meta),
	}
	r.Queue.OnConnect = func(*Queue) { r.onConnected() }
	r.registrar.Init(NewPacketReadWriter(r.Queue).ForBridge(info.Ref))
	return r, nil
}

func metaTopic(ref l1.BridgeRef) string {
	return ref.Name() + "/" + TopicMeta
}

// SendEvent implements l1.Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	if !r.Queue.Client.IsConnected() {
		// events are periodic, the next one goes out after reconnecting.
		glog.V(2).Info("not connected, event dropped")
		return nil
	}
	return r.registrar.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.registrar)
	loop.AddRunnable(fx.NamedRun("mqtt-registrar", r))
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	r.Queue.Connect()
	<-ctx.Done()
	r.Queue.PubWith(metaTopic(r.Info.Ref), nil, 1, true).Wait()
	r.Queue.Close()
	return ctx.Err()
}

func (r *Registrar) onConnected() {
	glog.Infof("registered %s", r.Info.Ref.Name())
	r.Queue.PubWith(metaTopic(r.Info.Ref), []byte(r.metaJSON), 1, true)
}
