package uapi

import (
	"crypto/md5"
	"encoding/binary"
	"errors"
)

// ErrInsufficientData is returned by Unmarshal when the slice is
// shorter than HeaderSize, and by Decapsulate when declared offsets
// run past the end of the buffer.
var ErrInsufficientData = errors.New("uapi: insufficient data")

// ErrBadOffsets is returned when data_offset/data_pad_offset/oob_offset
// violate the ordering invariant in spec §3.
var ErrBadOffsets = errors.New("uapi: invalid frame offsets")

// ErrChecksumMismatch is returned by Decapsulate when checksum_present
// is set but the computed MD5-32 does not match the stored checksum.
var ErrChecksumMismatch = errors.New("uapi: checksum mismatch")

// Marshal encodes h into a HeaderSize-byte little-endian buffer.
func Marshal(h *Header) []byte {
	buf := make([]byte, HeaderSize)
	buf[0] = h.SOH
	buf[1] = h.Version
	binary.LittleEndian.PutUint16(buf[2:4], h.ID)
	binary.LittleEndian.PutUint32(buf[4:8], h.TotalLength)
	binary.LittleEndian.PutUint32(buf[8:12], h.Flags)
	binary.LittleEndian.PutUint32(buf[12:16], h.TransactionID)
	binary.LittleEndian.PutUint32(buf[16:20], h.BroadcastGroup)
	binary.LittleEndian.PutUint32(buf[20:24], h.Checksum)
	binary.LittleEndian.PutUint32(buf[24:28], h.DataOffset)
	binary.LittleEndian.PutUint32(buf[28:32], h.DataPadOffset)
	binary.LittleEndian.PutUint32(buf[32:36], h.OOBOffset)
	return buf
}

// Unmarshal decodes a HeaderSize-byte little-endian buffer into h.
func Unmarshal(data []byte, h *Header) error {
	if len(data) < HeaderSize {
		return ErrInsufficientData
	}
	h.SOH = data[0]
	h.Version = data[1]
	h.ID = binary.LittleEndian.Uint16(data[2:4])
	h.TotalLength = binary.LittleEndian.Uint32(data[4:8])
	h.Flags = binary.LittleEndian.Uint32(data[8:12])
	h.TransactionID = binary.LittleEndian.Uint32(data[12:16])
	h.BroadcastGroup = binary.LittleEndian.Uint32(data[16:20])
	h.Checksum = binary.LittleEndian.Uint32(data[20:24])
	h.DataOffset = binary.LittleEndian.Uint32(data[24:28])
	h.DataPadOffset = binary.LittleEndian.Uint32(data[28:32])
	h.OOBOffset = binary.LittleEndian.Uint32(data[32:36])
	return nil
}

// LooksLikePacket reports whether bytes begins with a plausible
// packetised header: long enough, and soh/version/id all match the
// fixed constants (spec §4.2).
func LooksLikePacket(data []byte) bool {
	if len(data) < HeaderSize {
		return false
	}
	return data[0] == FrameSOH &&
		data[1] == FrameVersion &&
		binary.LittleEndian.Uint16(data[2:4]) == FrameID
}

// DeclaredLength returns the header's total_length field, or 0 if
// data does not look like a packet (spec §4.2).
func DeclaredLength(data []byte) uint32 {
	if !LooksLikePacket(data) {
		return 0
	}
	return binary.LittleEndian.Uint32(data[4:8])
}

// checksum32 computes the 32-bit truncated MD5 used as the frame
// checksum: the first four bytes of the MD5 digest over buf, taken
// with the checksum field (offset 20..24) zeroed.
func checksum32(buf []byte) uint32 {
	tmp := make([]byte, len(buf))
	copy(tmp, buf)
	if len(tmp) >= 24 {
		binary.LittleEndian.PutUint32(tmp[20:24], 0)
	}
	sum := md5.Sum(tmp)
	return binary.LittleEndian.Uint32(sum[0:4])
}

func align4(n int) int {
	return (n + 3) &^ 3
}

// Decapsulate turns wire bytes into the dispatcher-facing Decoded
// tuple (spec §4.2). Packetised frames are validated for offset
// ordering and, if checksum_present, for checksum match; raw frames
// are split on the first NUL byte with the OOB region starting at
// the next 4-byte boundary.
func Decapsulate(data []byte) (Decoded, error) {
	if !LooksLikePacket(data) {
		return decapsulateRaw(data), nil
	}

	var h Header
	if err := Unmarshal(data, &h); err != nil {
		return Decoded{}, err
	}

	if h.DataOffset > h.DataPadOffset || h.DataPadOffset > h.OOBOffset || uint64(h.OOBOffset) > uint64(h.TotalLength) {
		return Decoded{}, ErrBadOffsets
	}
	if uint64(h.TotalLength) > uint64(len(data)) {
		return Decoded{}, ErrInsufficientData
	}

	if h.checksumPresent() {
		got := checksum32(data[:h.TotalLength])
		if got != h.Checksum {
			return Decoded{}, ErrChecksumMismatch
		}
	}

	field := data[h.DataOffset:h.DataPadOffset]
	var cmd []byte
	if nl := indexByte(field, '\n'); nl >= 0 {
		cmd = field[:nl]
	} else {
		cmd = trimTrailingZero(field)
	}

	oob := data[h.OOBOffset:h.TotalLength]

	dec := Decoded{
		Packetised:        true,
		Command:           append([]byte(nil), cmd...),
		OOB:               append([]byte(nil), oob...),
		Groups:            h.BroadcastGroup,
		ChecksumRequested: h.checksumRequested(),
	}
	if h.txIDPresent() {
		dec.HasTxID = true
		dec.TxID = h.TransactionID
	}
	return dec, nil
}

// decapsulateRaw implements the §4.2 rule for non-packetised bytes:
// split on the first NUL. Frames produced by our own Encapsulate use
// a trailing newline instead of a NUL as the command terminator, so a
// newline is accepted as the same kind of boundary when it occurs
// before any NUL — this is what makes encapsulate/decapsulate round
// trip for raw frames carrying OOB data.
func decapsulateRaw(data []byte) Decoded {
	term := -1
	for i, b := range data {
		if b == 0 || b == '\n' {
			term = i
			break
		}
	}
	var cmd, oob []byte
	if term < 0 {
		cmd = data
		oob = nil
	} else {
		cmd = data[:term]
		start := align4(term + 1)
		if start < len(data) {
			oob = data[start:]
		}
	}
	return Decoded{
		Packetised: false,
		Command:    append([]byte(nil), cmd...),
		OOB:        append([]byte(nil), oob...),
	}
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func trimTrailingZero(b []byte) []byte {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return b[:end]
}

// Encapsulate builds wire bytes for a reply (spec §4.2). Packetised
// output always carries the full header; raw output is the bare
// newline-terminated text with 4-aligned padding before any OOB.
func Encapsulate(result, resultOOB []byte, packetised bool, txID *uint32, checksumRequested bool) []byte {
	body := make([]byte, 0, len(result)+1)
	body = append(body, result...)
	body = append(body, '\n')

	padded := align4(len(body))

	if !packetised {
		out := make([]byte, padded+len(resultOOB))
		copy(out, body)
		copy(out[padded:], resultOOB)
		return out
	}

	dataOffset := uint32(HeaderSize)
	dataPadOffset := dataOffset + uint32(padded)
	oobOffset := dataPadOffset
	totalLength := oobOffset + uint32(len(resultOOB))

	h := Header{
		SOH:            FrameSOH,
		Version:        FrameVersion,
		ID:             FrameID,
		TotalLength:    totalLength,
		BroadcastGroup: 0,
		DataOffset:     dataOffset,
		DataPadOffset:  dataPadOffset,
		OOBOffset:      oobOffset,
	}
	if txID != nil {
		h.Flags |= FlagTxIDPresent
		h.TransactionID = *txID
	}
	if checksumRequested {
		h.Flags |= FlagChecksumRequested | FlagChecksumPresent
	}

	out := make([]byte, totalLength)
	copy(out[dataOffset:], body)
	copy(out[oobOffset:], resultOOB)
	copy(out[:HeaderSize], Marshal(&h))

	if h.checksumPresent() {
		h.Checksum = checksum32(out)
		copy(out[:HeaderSize], Marshal(&h))
	}

	return out
}
