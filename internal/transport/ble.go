package transport

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"sync"

	"github.com/eriksl/esp32ctl/internal/constants"
	"github.com/eriksl/esp32ctl/internal/interfaces"
)

// Characteristic is the capability a real BLE GATT HAL exposes to
// this transport for one connected central: indicating (notifying)
// a chunk of outbound data on the bulk characteristic. A real HAL
// drives DeliverKeyWrite/DeliverDataWrite from its own GATT write
// callbacks; this transport never touches the radio directly (spec
// §1 treats the BLE stack as an opaque HAL).
type Characteristic interface {
	Indicate(chunk []byte) error
}

// BLEReplyHandle routes a reply back through the bulk characteristic
// of the central that sent the request.
type BLEReplyHandle struct {
	characteristic Characteristic
}

// Transport implements interfaces.ReplyHandle.
func (h BLEReplyHandle) Transport() string { return "ble" }

// BLE models the authorization-gated GATT service of spec §4.3: a
// write-only key characteristic whose AES-256-CBC payload must
// decrypt to the device's own (XOR-masked) MAC before writes on the
// bulk data characteristic are forwarded to the Reassembler.
type BLE struct {
	submitter Submitter
	observer  interfaces.Observer

	key [32]byte
	iv  [16]byte
	mac [constants.BLEMACLen]byte

	mu          sync.Mutex
	authorized  bool
	reassembler *Reassembler
}

// NewBLE creates a BLE transport gated by key/iv (the hard-coded
// AES-256-CBC parameters spec §4.3 describes) and the device's own
// mac, which an authorization write must reproduce.
func NewBLE(submitter Submitter, observer interfaces.Observer, key [32]byte, iv [16]byte, mac [constants.BLEMACLen]byte) *BLE {
	return &BLE{
		submitter:   submitter,
		observer:    observer,
		key:         key,
		iv:          iv,
		mac:         mac,
		reassembler: NewReassembler(constants.BLEMaxSegmentSize, constants.BLEReassemblyTimeout),
	}
}

// Name implements interfaces.Transport.
func (b *BLE) Name() string { return "ble" }

// DeliverKeyWrite processes a write to the authorization
// characteristic. The 16-byte ciphertext must decrypt to the device
// MAC (masked by XOR against the key, an implementation-defined
// choice of mask since the source of truth does not specify one)
// followed by four 0x04 padding bytes.
func (b *BLE) DeliverKeyWrite(ciphertext []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(ciphertext) != constants.BLEAuthPayloadLen {
		b.authorized = false
		b.observeUnauthorized()
		return
	}

	block, err := aes.NewCipher(b.key[:])
	if err != nil {
		b.authorized = false
		return
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, b.iv[:]).CryptBlocks(plaintext, ciphertext)

	pad := plaintext[constants.BLEMACLen:]
	for _, p := range pad {
		if p != constants.BLEAuthPadByte {
			b.authorized = false
			b.observeUnauthorized()
			return
		}
	}

	masked := plaintext[:constants.BLEMACLen]
	unmasked := make([]byte, constants.BLEMACLen)
	for i := range unmasked {
		unmasked[i] = masked[i] ^ b.key[i]
	}
	if !bytes.Equal(unmasked, b.mac[:]) {
		b.authorized = false
		b.observeUnauthorized()
		return
	}
	b.authorized = true
}

func (b *BLE) observeUnauthorized() {
	if b.observer != nil {
		b.observer.ObserveUnauthorizedWrite("ble")
	}
}

// DeliverDataWrite processes a write to the bulk characteristic. It
// is silently discarded unless a prior DeliverKeyWrite authorized
// this connection.
func (b *BLE) DeliverDataWrite(chunk []byte, characteristic Characteristic) {
	b.mu.Lock()
	if !b.authorized {
		b.mu.Unlock()
		b.observeUnauthorized()
		return
	}
	raw, result := b.reassembler.Feed(chunk)
	b.mu.Unlock()

	switch result {
	case FeedReady:
		handle := BLEReplyHandle{characteristic: characteristic}
		frame, ok := decodeFrame(raw, "ble", constants.BLEMaxSegmentSize, handle, b.observer)
		if !ok {
			_ = b.SendReply(handle, []byte(malformedFrameReply))
			return
		}
		b.DeliverFrame(frame)
	case FeedTimeout:
		if b.observer != nil {
			b.observer.ObserveReassemblyTimeout("ble")
		}
	case FeedOverflow:
		if b.observer != nil {
			b.observer.ObserveMalformedFrame("ble")
		}
	case FeedPending:
	}
}

// DeliverFrame implements interfaces.Transport.
func (b *BLE) DeliverFrame(frame interfaces.InboundFrame) {
	b.submitter.Submit(frame)
}

// SendReply implements interfaces.Transport. The reply is fragmented
// into chunks of at most BLEMaxReplyChunk bytes and indicated
// sequentially, each with bounded retry against a simulated
// out-of-memory failure (spec §4.3).
func (b *BLE) SendReply(handle interfaces.ReplyHandle, data []byte) error {
	h, ok := handle.(BLEReplyHandle)
	if !ok {
		return fmt.Errorf("ble transport: reply handle is not a BLE handle")
	}

	for len(data) > 0 {
		n := constants.BLEMaxReplyChunk
		if n > len(data) {
			n = len(data)
		}
		if err := indicateWithRetry(h.characteristic, data[:n], constants.BLEIndicateRetries); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func indicateWithRetry(c Characteristic, chunk []byte, retries int) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if err = c.Indicate(chunk); err == nil {
			return nil
		}
	}
	return fmt.Errorf("ble transport: indicate failed after %d retries: %w", retries, err)
}

var _ interfaces.Transport = (*BLE)(nil)
