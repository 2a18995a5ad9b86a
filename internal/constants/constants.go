// Package constants collects the numeric and timing constants shared
// across the command/control plane.
package constants

import "time"

// Reassembler timeouts and MSS (spec §4.4, §5).
const (
	BLEReassemblyTimeout = 2000 * time.Millisecond
	TCPReassemblyTimeout = 1000 * time.Millisecond

	TCPMaxSegmentSize = 1440
	BLEMaxSegmentSize = 512
)

// BLE framing (spec §4.3).
const (
	BLEMaxReplyChunk  = 552 // 512 payload + 32 header + 8 HCI margin
	BLEAuthPayloadLen = 16  // AES-256-CBC ciphertext length on the key characteristic
	BLEMACLen         = 12
	BLEAuthPadByte    = 0x04
	BLEAuthPadLen     = 4

	// BLEIndicateRetries bounds the retry loop on a simulated
	// out-of-memory indication failure before SendReply gives up.
	BLEIndicateRetries = 3
)

// TCP transport.
const (
	TCPServicePort = 24
)

// Console transport (spec §4.3).
const (
	ConsoleScrollback = 8
)

// Script transport (spec §4.3, §11 supplement).
const (
	ScriptParameterCount = 4
	MaxScriptCallDepth   = 16
)

// Pipeline queue depth (spec §4.9).
const (
	QueueCapacity = 8
)

// Dispatcher bounds (spec §3, §4.6).
const (
	MaxParameters = 16
)

// AliasStore (spec §4.5).
const (
	MaxAliases = 64
)

// Ramfs (spec §4.8, original_source/main/ramdisk.h: fd_max = 8).
const (
	MaxOpenFiles = 8
)

// LogRing (spec §4.1, original_source/src/log.c).
const (
	LogRingMagicWord  = 0x4afbcafe
	LogRingCapacity   = 55
	LogEntryTextBytes = 120
)

// OtaEngine (spec §4.7).
const (
	NumPartitions = 2
)
