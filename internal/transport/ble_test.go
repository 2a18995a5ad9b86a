package transport

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eriksl/esp32ctl/internal/constants"
	"github.com/eriksl/esp32ctl/internal/uapi"
)

type fakeCharacteristic struct {
	chunks    [][]byte
	failCount int
}

func (f *fakeCharacteristic) Indicate(chunk []byte) error {
	if f.failCount > 0 {
		f.failCount--
		return errors.New("out of memory")
	}
	cp := append([]byte(nil), chunk...)
	f.chunks = append(f.chunks, cp)
	return nil
}

func testKeyIVMAC() (key [32]byte, iv [16]byte, mac [constants.BLEMACLen]byte) {
	for i := range key {
		key[i] = byte(i)
	}
	for i := range iv {
		iv[i] = byte(i + 100)
	}
	for i := range mac {
		mac[i] = byte(0xA0 + i)
	}
	return
}

func authPayload(key [32]byte, iv [16]byte, mac [constants.BLEMACLen]byte) []byte {
	plaintext := make([]byte, constants.BLEAuthPayloadLen)
	for i := 0; i < constants.BLEMACLen; i++ {
		plaintext[i] = mac[i] ^ key[i]
	}
	for i := constants.BLEMACLen; i < constants.BLEAuthPayloadLen; i++ {
		plaintext[i] = constants.BLEAuthPadByte
	}

	block, err := aes.NewCipher(key[:])
	if err != nil {
		panic(err)
	}
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv[:]).CryptBlocks(ciphertext, plaintext)
	return ciphertext
}

func TestBLEUnauthorizedDataWriteIsDiscarded(t *testing.T) {
	key, iv, mac := testKeyIVMAC()
	sub := newStubSubmitter()
	b := NewBLE(sub, nil, key, iv, mac)

	b.DeliverDataWrite([]byte("hostname\n"), &fakeCharacteristic{})

	select {
	case <-sub.frames:
		t.Fatal("expected no frame to be delivered before authorization")
	default:
	}
}

func TestBLEAuthorizedWriteIsReassembledAndDelivered(t *testing.T) {
	key, iv, mac := testKeyIVMAC()
	sub := newStubSubmitter()
	b := NewBLE(sub, nil, key, iv, mac)

	b.DeliverKeyWrite(authPayload(key, iv, mac))
	require.True(t, b.authorized)

	b.DeliverDataWrite([]byte("hostname\n"), &fakeCharacteristic{})

	select {
	case frame := <-sub.frames:
		require.Equal(t, "ble", frame.Source)
		require.Equal(t, "hostname", string(frame.Command))
	default:
		t.Fatal("expected a delivered frame after authorization")
	}
}

func TestBLEWrongKeyFailsAuthorization(t *testing.T) {
	key, iv, mac := testKeyIVMAC()
	wrongMAC := mac
	wrongMAC[0] ^= 0xFF

	sub := newStubSubmitter()
	b := NewBLE(sub, nil, key, iv, mac)
	b.DeliverKeyWrite(authPayload(key, iv, wrongMAC))
	require.False(t, b.authorized)
}

func TestBLESendReplyFragmentsIntoBoundedChunks(t *testing.T) {
	key, iv, mac := testKeyIVMAC()
	b := NewBLE(newStubSubmitter(), nil, key, iv, mac)

	data := make([]byte, constants.BLEMaxReplyChunk+10)
	ch := &fakeCharacteristic{}
	handle := BLEReplyHandle{characteristic: ch}

	require.NoError(t, b.SendReply(handle, data))
	require.Len(t, ch.chunks, 2)
	require.Len(t, ch.chunks[0], constants.BLEMaxReplyChunk)
	require.Len(t, ch.chunks[1], 10)
}

func TestBLESendReplyRetriesOnTransientFailure(t *testing.T) {
	key, iv, mac := testKeyIVMAC()
	b := NewBLE(newStubSubmitter(), nil, key, iv, mac)

	ch := &fakeCharacteristic{failCount: 2}
	handle := BLEReplyHandle{characteristic: ch}

	require.NoError(t, b.SendReply(handle, []byte("OK\n")))
	require.Len(t, ch.chunks, 1)
}

func TestBLEReassemblesSplitPacketisedFrame(t *testing.T) {
	key, iv, mac := testKeyIVMAC()
	sub := newStubSubmitter()
	b := NewBLE(sub, nil, key, iv, mac)
	b.DeliverKeyWrite(authPayload(key, iv, mac))

	packet := uapi.Encapsulate([]byte("hostname"), nil, true, nil, false)
	half := len(packet) / 2
	ch := &fakeCharacteristic{}

	b.DeliverDataWrite(packet[:half], ch)
	select {
	case <-sub.frames:
		t.Fatal("frame should not be ready until the rest arrives")
	default:
	}

	b.DeliverDataWrite(packet[half:], ch)
	select {
	case frame := <-sub.frames:
		require.Equal(t, "hostname", string(frame.Command))
	default:
		t.Fatal("expected the completed frame to be delivered")
	}
}
