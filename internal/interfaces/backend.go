// Package interfaces provides internal interface definitions shared
// across packages without introducing import cycles between the root
// package and its internals.
package interfaces

// Backend is a byte-addressable store, implemented by the OTA
// partition store (backend.Partition). Ramfs files keep their bytes in
// plain slices and do not go through this interface.
type Backend interface {
	ReadAt(p []byte, off int64) (n int, err error)
	WriteAt(p []byte, off int64) (n int, err error)
	Size() int64
	Close() error
	Flush() error
}

// Transport is implemented by every frame source (spec §4.3): BLE,
// TCP, console, script. DeliverFrame hands a decoded inbound frame to
// the dispatcher; SendReply writes an encoded reply back out on
// whatever handle the transport attached to the inbound frame.
type Transport interface {
	Name() string
	DeliverFrame(frame InboundFrame)
	SendReply(handle ReplyHandle, data []byte) error
}

// InboundFrame is the dispatcher's view of one decoded frame, no
// matter which transport produced it (spec §3).
type InboundFrame struct {
	Source            string
	TransportMTU      int
	Packetised        bool
	Command           []byte
	OOB               []byte
	TxID              uint32
	HasTxID           bool
	Groups            uint32
	ChecksumRequested bool
	Reply             ReplyHandle
}

// ReplyHandle is an opaque, transport-owned token a Transport
// attaches to an InboundFrame so the dispatcher can route the
// eventual reply back to the right connection/attribute/waiter.
type ReplyHandle interface {
	Transport() string
}

// Logger is the narrow logging capability consumed outside
// internal/logging, to avoid every package importing the concrete
// logger type.
type Logger interface {
	Printf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// Observer receives counters for the ambient metrics surface (spec
// §4.2-§4.4, §10): malformed frames, checksum failures, reassembler
// timeouts, unauthorized BLE writes, and per-command dispatch counts.
// Implementations must be safe to call from any worker goroutine.
type Observer interface {
	ObserveMalformedFrame(source string)
	ObserveChecksumFailure(source string)
	ObserveReassemblyTimeout(source string)
	ObserveUnauthorizedWrite(source string)
	ObserveCommand(name string, ok bool)
}
