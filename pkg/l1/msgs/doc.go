// Package msgs provides the bridge protocol and all message schemas.
package msgs

// The bridge protocol is spoken between a link bridge (the host end of
// the serial link) and its clients, over MQTT or any packet transport.
// Every packet is a protobuf encoded Typed envelope.
//
// Producer: bridge
// Consumer: monitors, shells, recorders
