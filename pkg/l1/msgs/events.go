package msgs

import (
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/sensorlink/pkg/framework"
	"github.com/robotalks/sensorlink/pkg/l0/frame"
)

// FrameSample is an event carrying one decoded telemetry frame.
type FrameSample struct {
	Seq           uint32  `protobuf:"varint,1,opt,name=seq,proto3" json:"seq"`
	Timestamp     uint32  `protobuf:"varint,2,opt,name=timestamp,proto3" json:"timestamp"`
	Accel         []int32 `protobuf:"zigzag32,3,rep,packed,name=accel,proto3" json:"accel,omitempty"`
	Gyro          []int32 `protobuf:"zigzag32,4,rep,packed,name=gyro,proto3" json:"gyro,omitempty"`
	ProcessTime   uint32  `protobuf:"varint,5,opt,name=process_time,proto3" json:"process_time"`
	PriorSendTime uint32  `protobuf:"varint,6,opt,name=prior_send_time,proto3" json:"prior_send_time"`
}

// FrameSampleFrom converts a decoded frame.
func FrameSampleFrom(f *frame.Frame) *FrameSample {
	s := &FrameSample{
		Seq:           uint32(f.Seq),
		Timestamp:     f.Timestamp,
		Accel:         make([]int32, len(f.Accel)),
		Gyro:          make([]int32, len(f.Gyro)),
		ProcessTime:   f.ProcessTime,
		PriorSendTime: f.PriorSendTime,
	}
	for n := range f.Accel {
		s.Accel[n] = int32(f.Accel[n])
		s.Gyro[n] = int32(f.Gyro[n])
	}
	return s
}

// Frame converts back to a sealed frame. Missing axes are zero.
func (m *FrameSample) Frame() *frame.Frame {
	f := &frame.Frame{
		Seq:           frame.Seq(m.Seq),
		Timestamp:     m.Timestamp,
		ProcessTime:   m.ProcessTime,
		PriorSendTime: m.PriorSendTime,
	}
	for n := 0; n < len(f.Accel) && n < len(m.Accel); n++ {
		f.Accel[n] = int16(m.Accel[n])
	}
	for n := 0; n < len(f.Gyro) && n < len(m.Gyro); n++ {
		f.Gyro[n] = int16(m.Gyro[n])
	}
	f.Seal()
	return f
}

// NewMessage implements Message.
func (m *FrameSample) NewMessage() fx.Message { return &FrameSample{} }

// TypeID implements SerializableMessage.
func (m *FrameSample) TypeID() uint32 { return FrameSampleTypeID }

// Serializable implements SerializableMessage.
func (m *FrameSample) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *FrameSample) ProtoMessage() {}

// Reset implements proto.Message.
func (m *FrameSample) Reset() { *m = FrameSample{} }

// String implements proto.Message.
func (m *FrameSample) String() string { return proto.CompactTextString(m) }

// LinkStats is an event reflecting the health of the serial link as seen
// by the bridge. Times are in milliseconds.
type LinkStats struct {
	Mode      string `protobuf:"bytes,1,opt,name=mode,proto3" json:"mode,omitempty"`
	SyncState string `protobuf:"bytes,2,opt,name=sync_state,proto3" json:"sync_state,omitempty"`
	UptimeMs  uint64 `protobuf:"varint,3,opt,name=uptime_ms,proto3" json:"uptime_ms"`

	Frames         uint64 `protobuf:"varint,4,opt,name=frames,proto3" json:"frames"`
	Bytes          uint64 `protobuf:"varint,5,opt,name=bytes,proto3" json:"bytes"`
	ChecksumErrors uint64 `protobuf:"varint,6,opt,name=checksum_errors,proto3" json:"checksum_errors"`
	SkippedBytes   uint64 `protobuf:"varint,7,opt,name=skipped_bytes,proto3" json:"skipped_bytes"`
	Timeouts       uint64 `protobuf:"varint,8,opt,name=timeouts,proto3" json:"timeouts"`

	Synced   bool   `protobuf:"varint,9,opt,name=synced,proto3" json:"synced"`
	Overruns uint64 `protobuf:"varint,10,opt,name=overruns,proto3" json:"overruns"`
	Lost     uint64 `protobuf:"varint,11,opt,name=lost,proto3" json:"lost"`
	MaxBurst uint64 `protobuf:"varint,12,opt,name=max_burst,proto3" json:"max_burst"`
	RawLost  uint64 `protobuf:"varint,13,opt,name=raw_lost,proto3" json:"raw_lost"`

	FramesPerSec   float64 `protobuf:"fixed64,14,opt,name=frames_per_sec,proto3" json:"frames_per_sec"`
	BytesPerSec    float64 `protobuf:"fixed64,15,opt,name=bytes_per_sec,proto3" json:"bytes_per_sec"`
	ProcessMsMean  float64 `protobuf:"fixed64,16,opt,name=process_ms_mean,proto3" json:"process_ms_mean"`
	SendMsMean     float64 `protobuf:"fixed64,17,opt,name=send_ms_mean,proto3" json:"send_ms_mean"`
	IntervalMsMean float64 `protobuf:"fixed64,18,opt,name=interval_ms_mean,proto3" json:"interval_ms_mean"`
	IntervalMsMax  float64 `protobuf:"fixed64,19,opt,name=interval_ms_max,proto3" json:"interval_ms_max"`
}

// NewMessage implements Message.
func (m *LinkStats) NewMessage() fx.Message { return &LinkStats{} }

// TypeID implements SerializableMessage.
func (m *LinkStats) TypeID() uint32 { return LinkStatsEventTypeID }

// Serializable implements SerializableMessage.
func (m *LinkStats) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *LinkStats) ProtoMessage() {}

// Reset implements proto.Message.
func (m *LinkStats) Reset() { *m = LinkStats{} }

// String implements proto.Message.
func (m *LinkStats) String() string { return proto.CompactTextString(m) }
