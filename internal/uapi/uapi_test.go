package uapi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameRoundTripPacketised(t *testing.T) {
	cases := []struct {
		name              string
		command           []byte
		oob               []byte
		txID              *uint32
		checksumRequested bool
	}{
		{"no-oob-no-tx", []byte("hostname"), nil, nil, false},
		{"with-oob", []byte("ota-write 4 0"), []byte{0xde, 0xad, 0xbe, 0xef}, nil, false},
		{"with-tx-and-checksum", []byte("fs-read /a.txt"), []byte("payload"), uint32Ptr(7), true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			wire := Encapsulate(c.command, c.oob, true, c.txID, c.checksumRequested)
			dec, err := Decapsulate(wire)
			require.NoError(t, err)
			require.True(t, dec.Packetised)
			require.Equal(t, c.command, dec.Command)
			if len(c.oob) == 0 {
				require.Empty(t, dec.OOB)
			} else {
				require.Equal(t, c.oob, dec.OOB)
			}
			require.Equal(t, c.checksumRequested, dec.ChecksumRequested)
			if c.txID != nil {
				require.True(t, dec.HasTxID)
				require.Equal(t, *c.txID, dec.TxID)
			} else {
				require.False(t, dec.HasTxID)
			}
		})
	}
}

func TestFrameRoundTripRaw(t *testing.T) {
	wire := Encapsulate([]byte("help"), nil, false, nil, false)
	dec, err := Decapsulate(wire)
	require.NoError(t, err)
	require.False(t, dec.Packetised)
	require.Equal(t, []byte("help"), dec.Command)
	require.Empty(t, dec.OOB)
}

func TestLooksLikePacket(t *testing.T) {
	wire := Encapsulate([]byte("x"), nil, true, nil, false)
	require.True(t, LooksLikePacket(wire))
	require.False(t, LooksLikePacket([]byte("plain text\n")))
	require.False(t, LooksLikePacket(wire[:HeaderSize-1]))
}

func TestDeclaredLength(t *testing.T) {
	wire := Encapsulate([]byte("x"), nil, true, nil, false)
	require.Equal(t, uint32(len(wire)), DeclaredLength(wire))
	require.Equal(t, uint32(0), DeclaredLength([]byte("not a packet")))
}

func TestChecksumGateRejectsBitFlip(t *testing.T) {
	wire := Encapsulate([]byte("config-dump"), nil, true, nil, true)

	flipped := append([]byte(nil), wire...)
	flipped[HeaderSize] ^= 0x01

	_, err := Decapsulate(flipped)
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestChecksumGateAbsentPassesBitFlipThrough(t *testing.T) {
	wire := Encapsulate([]byte("config-dump"), nil, true, nil, false)

	flipped := append([]byte(nil), wire...)
	flipped[HeaderSize] ^= 0x01

	dec, err := Decapsulate(flipped)
	require.NoError(t, err)
	require.NotEqual(t, []byte("config-dump"), dec.Command)
}

func TestDecapsulateBadOffsetsRejected(t *testing.T) {
	h := Header{
		SOH:           FrameSOH,
		Version:       FrameVersion,
		ID:            FrameID,
		TotalLength:   HeaderSize,
		DataOffset:    10,
		DataPadOffset: 5,
		OOBOffset:     5,
	}
	buf := Marshal(&h)
	_, err := Decapsulate(buf)
	require.ErrorIs(t, err, ErrBadOffsets)
}

func TestDecapsulateShortBufferRejected(t *testing.T) {
	h := Header{
		SOH:           FrameSOH,
		Version:       FrameVersion,
		ID:            FrameID,
		TotalLength:   1000,
		DataOffset:    HeaderSize,
		DataPadOffset: HeaderSize,
		OOBOffset:     HeaderSize,
	}
	buf := Marshal(&h)
	_, err := Decapsulate(buf)
	require.ErrorIs(t, err, ErrInsufficientData)
}

func uint32Ptr(v uint32) *uint32 { return &v }
