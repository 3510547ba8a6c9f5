package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"
	"os"
	"reflect"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/sensorlink/pkg/l1/comm/mqtt"
	"github.com/robotalks/sensorlink/pkg/l1/msgs"
)

var (
	mqttURL = "mqtt://localhost:1883/sensorlink/"
	topic   = "#"
)

func init() {
	if val := os.Getenv("SENSORLINK_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&topic, "topic", topic, "Topic filter under the URL prefix.")
}

func main() {
	flag.Parse()

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub(topic, mqtt.Handler(func(topic string, payload []byte) {
		if strings.HasSuffix(topic, "/"+mqtt.TopicMeta) {
			if info, ok := mqtt.ParseMeta(topic, payload); ok {
				glog.Infof("%s: %s %s [%s %s]", topic, info.Ref.Name(),
					info.Meta.Description, info.Meta.Device, info.Meta.Mode)
			} else {
				glog.Infof("%s: cleared", topic)
			}
			return
		}
		typed, err := msgs.DecodeTyped(payload)
		if err != nil {
			glog.Warningf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			glog.Warningf("%s: decode error: (type_id=%x) %v", topic, typed.TypeId, err)
			return
		}
		glog.Infof("%s: [%s] %s", topic,
			reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
			msg.(msgs.SerializableMessage).Serializable().String())
	}))
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
