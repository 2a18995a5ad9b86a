package uapi

import "unsafe"

// Header is the in-memory mirror of the 36-byte on-wire frame header
// (spec §6). Field order matches the wire layout exactly; Marshal/
// Unmarshal below do the little-endian (de)serialization by hand
// rather than relying on struct layout, since Go gives no alignment
// guarantee across platforms — the size assertion just keeps the two
// in sync as the struct evolves.
type Header struct {
	SOH            uint8
	Version        uint8
	ID             uint16
	TotalLength    uint32
	Flags          uint32
	TransactionID  uint32
	BroadcastGroup uint32
	Checksum       uint32
	DataOffset     uint32
	DataPadOffset  uint32
	OOBOffset      uint32
}

// Compile-time reminder that Header's fields account for exactly the
// 36 bytes of on-wire header (the struct itself may be padded by the
// Go compiler; only the wire encoding in marshal.go is load-bearing).
var _ [HeaderSize]byte = [unsafe.Sizeof(struct {
	SOH            uint8
	Version        uint8
	ID             uint16
	TotalLength    uint32
	Flags          uint32
	TransactionID  uint32
	BroadcastGroup uint32
	Checksum       uint32
	DataOffset     uint32
	DataPadOffset  uint32
	OOBOffset      uint32
}{})]byte{}

func (h *Header) checksumPresent() bool   { return h.Flags&FlagChecksumPresent != 0 }
func (h *Header) checksumRequested() bool { return h.Flags&FlagChecksumRequested != 0 }
func (h *Header) txIDPresent() bool       { return h.Flags&FlagTxIDPresent != 0 }

// Decoded is the dispatcher-facing result of decapsulating a frame
// (spec §4.2's `decapsulate` return tuple).
type Decoded struct {
	Packetised        bool
	Command           []byte
	OOB               []byte
	TxID              uint32
	HasTxID           bool
	Groups            uint32
	ChecksumRequested bool
}
