package msgs

import (
	"errors"

	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/sensorlink/pkg/framework"
)

// CommandOK is the generic reply indicating success for commands.
type CommandOK struct {
}

// NewCommandOK creates a CommandOK.
func NewCommandOK() *CommandOK {
	return &CommandOK{}
}

// NewMessage implements Message.
func (m *CommandOK) NewMessage() fx.Message { return &CommandOK{} }

// TypeID implements SerializableMessage.
func (m *CommandOK) TypeID() uint32 { return CommandOKTypeID }

// Serializable implements SerializableMessage.
func (m *CommandOK) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CommandOK) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandOK) Reset() { *m = CommandOK{} }

// String implements proto.Message.
func (m *CommandOK) String() string { return proto.CompactTextString(m) }

// CommandErr is the generic message representing command error.
type CommandErr struct {
	Message string `protobuf:"bytes,1,opt,name=message,proto3" json:"message,omitempty"`
}

// NewCommandErr creates a CommandErr from an error.
func NewCommandErr(err error) *CommandErr {
	return NewCommandErrFromMsg(err.Error())
}

// NewCommandErrFromMsg creates a CommandErr.
func NewCommandErrFromMsg(message string) *CommandErr {
	return &CommandErr{Message: message}
}

// NewMessage implements Message.
func (m *CommandErr) NewMessage() fx.Message { return &CommandErr{} }

// TypeID implements SerializableMessage.
func (m *CommandErr) TypeID() uint32 { return CommandErrTypeID }

// Serializable implements SerializableMessage.
func (m *CommandErr) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CommandErr) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandErr) Reset() { *m = CommandErr{} }

// String implements proto.Message.
func (m *CommandErr) String() string { return proto.CompactTextString(m) }

// Error implements error.
func (m *CommandErr) Error() string { return m.Message }

// LinkStatsQuery asks the bridge for current link statistics.
type LinkStatsQuery struct {
}

// NewMessage implements Message.
func (m *LinkStatsQuery) NewMessage() fx.Message { return &LinkStatsQuery{} }

// TypeID implements SerializableMessage.
func (m *LinkStatsQuery) TypeID() uint32 { return LinkStatsQueryTypeID }

// Serializable implements SerializableMessage.
func (m *LinkStatsQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *LinkStatsQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *LinkStatsQuery) Reset() { *m = LinkStatsQuery{} }

// String implements proto.Message.
func (m *LinkStatsQuery) String() string { return proto.CompactTextString(m) }

// LinkStatsReply is the response for LinkStatsQuery.
type LinkStatsReply struct {
	Stats *LinkStats `protobuf:"bytes,1,opt,name=stats,proto3" json:"stats,omitempty"`
}

// NewMessage implements Message.
func (m *LinkStatsReply) NewMessage() fx.Message { return &LinkStatsReply{} }

// TypeID implements SerializableMessage.
func (m *LinkStatsReply) TypeID() uint32 { return LinkStatsReplyTypeID }

// Serializable implements SerializableMessage.
func (m *LinkStatsReply) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *LinkStatsReply) ProtoMessage() {}

// Reset implements proto.Message.
func (m *LinkStatsReply) Reset() { *m = LinkStatsReply{} }

// String implements proto.Message.
func (m *LinkStatsReply) String() string { return proto.CompactTextString(m) }

// LinkReset clears receiver and collector statistics on the bridge.
type LinkReset struct {
}

// NewMessage implements Message.
func (m *LinkReset) NewMessage() fx.Message { return &LinkReset{} }

// TypeID implements SerializableMessage.
func (m *LinkReset) TypeID() uint32 { return LinkResetTypeID }

// Serializable implements SerializableMessage.
func (m *LinkReset) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *LinkReset) ProtoMessage() {}

// Reset implements proto.Message.
func (m *LinkReset) Reset() { *m = LinkReset{} }

// String implements proto.Message.
func (m *LinkReset) String() string { return proto.CompactTextString(m) }

// FrameTailQuery asks for the most recent frames. Count 0 means all kept.
type FrameTailQuery struct {
	Count uint32 `protobuf:"varint,1,opt,name=count,proto3" json:"count,omitempty"`
}

// NewMessage implements Message.
func (m *FrameTailQuery) NewMessage() fx.Message { return &FrameTailQuery{} }

// TypeID implements SerializableMessage.
func (m *FrameTailQuery) TypeID() uint32 { return FrameTailQueryTypeID }

// Serializable implements SerializableMessage.
func (m *FrameTailQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *FrameTailQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *FrameTailQuery) Reset() { *m = FrameTailQuery{} }

// String implements proto.Message.
func (m *FrameTailQuery) String() string { return proto.CompactTextString(m) }

// FrameTailReply is the response for FrameTailQuery, oldest frame first.
type FrameTailReply struct {
	Frames []*FrameSample `protobuf:"bytes,1,rep,name=frames,proto3" json:"frames,omitempty"`
}

// NewMessage implements Message.
func (m *FrameTailReply) NewMessage() fx.Message { return &FrameTailReply{} }

// TypeID implements SerializableMessage.
func (m *FrameTailReply) TypeID() uint32 { return FrameTailReplyTypeID }

// Serializable implements SerializableMessage.
func (m *FrameTailReply) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *FrameTailReply) ProtoMessage() {}

// Reset implements proto.Message.
func (m *FrameTailReply) Reset() { *m = FrameTailReply{} }

// String implements proto.Message.
func (m *FrameTailReply) String() string { return proto.CompactTextString(m) }

// TypeID Groups
const (
	GroupCommand uint32 = 0x00000000
	GroupLink    uint32 = 0x00010000
	GroupCustom  uint32 = 0x7f000000 // base group id for custom messages.
)

// TypeIDs
const (
	CommandOKTypeID      uint32 = GroupCommand | TypeIDMaskReply | 0x0000
	CommandErrTypeID     uint32 = GroupCommand | TypeIDMaskReply | 0x0001
	LinkStatsQueryTypeID uint32 = GroupLink | 0x0000
	LinkStatsReplyTypeID uint32 = LinkStatsQueryTypeID | TypeIDMaskReply
	LinkResetTypeID      uint32 = GroupLink | 0x0001
	FrameTailQueryTypeID uint32 = GroupLink | 0x0002
	FrameTailReplyTypeID uint32 = FrameTailQueryTypeID | TypeIDMaskReply
	LinkStatsEventTypeID uint32 = GroupLink | TypeIDKindEvent | 0x0000
	FrameSampleTypeID    uint32 = GroupLink | TypeIDKindEvent | 0x0001
)

var (
	// ErrUnknownCommand indicates the command is unknown.
	ErrUnknownCommand = errors.New("unknown command")
)
