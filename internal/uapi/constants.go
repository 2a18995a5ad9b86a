// Package uapi implements the canonical wire frame shared by every
// transport: header layout, checksum, and the packetised/raw
// classification (spec §6).
package uapi

// Frame header field values (spec §6). The exact soh/version/id
// constants are implementation-defined in this module: spec.md
// points at the source's ota.h for the authoritative bytes, which
// was not present in the retrieved original_source/ set, so these
// are chosen to be stable and self-consistent rather than numerically
// borrowed from an unseen header (see SPEC_FULL.md §4.2).
const (
	FrameSOH     uint8  = 0x01
	FrameVersion uint8  = 0x01
	FrameID      uint16 = 0x4553 // "ES"
)

// Flag bits packed into the header's flags word.
const (
	FlagChecksumPresent   uint32 = 1 << 0
	FlagChecksumRequested uint32 = 1 << 1
	FlagTxIDPresent       uint32 = 1 << 2
)

// HeaderSize is the fixed byte length of the Frame header (offsets 0-35).
const HeaderSize = 36
