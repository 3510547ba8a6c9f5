package l1

import (
	"context"

	fx "github.com/robotalks/sensorlink/pkg/framework"
)

// Registrar registers a link bridge to a registry.
// It integrates with framework so the bridge receives commands
// as loop messages and publishes events back.
type Registrar interface {
	// SendEvent publishes an event to subscribers.
	SendEvent(context.Context, fx.Message) error
}

// Command represents a received command to be processed.
type Command interface {
	Msg() fx.Message
	Done(fx.Message) error
}

// CommandMsg wraps a Command as a Message.
type CommandMsg struct {
	Command Command
}

// NewMessage implements Message.
func (m *CommandMsg) NewMessage() fx.Message { return &CommandMsg{} }

// BridgeRef is a reference to a link bridge.
type BridgeRef struct {
	// Kind is the bridge kind, e.g. "sensorlink".
	Kind string `json:"kind"`
	// ID is unique ID of the bridge, machine ID by default.
	ID string `json:"id"`
}

// Name retrieves the name from ref.
func (r BridgeRef) Name() string {
	return r.Kind + "/" + r.ID
}

// IsValid indicates BridgeRef is valid.
func (r BridgeRef) IsValid() bool {
	return r.Kind != "" && r.ID != ""
}

// BridgeMeta provides metadata for a bridge.
type BridgeMeta struct {
	Description string            `json:"description,omitempty"`
	Device      string            `json:"device,omitempty"`
	Mode        string            `json:"mode,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// BridgeInfo provides information of a bridge.
type BridgeInfo struct {
	Ref  BridgeRef  `json:"ref"`
	Meta BridgeMeta `json:"meta"`
}

// Connector is used by clients to connect to a bridge.
type Connector interface {
	// Discover enumerates registered bridges.
	Discover(context.Context) ([]BridgeInfo, error)
	// Connect connects to the specified bridge.
	Connect(context.Context, BridgeRef) (BridgeConn, error)
}

// BridgeConn is the connection to a bridge.
type BridgeConn interface {
	// DoCommand executes a command.
	DoCommand(fx.Message) CommandFuture
}

// Result represents result of a command.
type Result struct {
	Msg fx.Message
	Err error
}

// CommandFuture is the future of sent command.
type CommandFuture interface {
	ResultChan() <-chan Result
}
