// Package transport implements the frame sources spec.md §4.3
// describes: BLE, TCP, console, and script. Each one turns its own
// I/O model into interfaces.InboundFrame values and feeds them to a
// shared Controller/Pipeline, and turns a reply back into whatever
// bytes its wire format expects.
package transport

import (
	"time"

	"github.com/eriksl/esp32ctl/internal/uapi"
)

// FeedResult reports what a Reassembler did with one inbound chunk.
type FeedResult int

const (
	// FeedPending means the reassembler is still waiting on more data.
	FeedPending FeedResult = iota
	// FeedReady means a complete frame was produced.
	FeedReady
	// FeedTimeout means the buffer was dropped because it sat longer
	// than the configured timeout without completing.
	FeedTimeout
	// FeedOverflow means more bytes arrived than the declared length
	// promised; the buffer is dropped.
	FeedOverflow
)

// Reassembler buffers inbound chunks for one stateful transport
// connection (BLE or TCP) until a complete frame is ready to hand to
// the dispatcher, or until timeout/overflow drops the attempt (spec
// §4.4).
type Reassembler struct {
	mss     int
	timeout time.Duration

	buf       []byte
	expected  int // -1 means "unknown, expect more until a short chunk"
	startedAt time.Time
}

// NewReassembler creates a Reassembler for one transport connection.
// mss is the transport's maximum segment size (1440 for TCP, 512 for
// BLE); timeout is how long a partial frame may sit before it is
// dropped (1000ms TCP, 2000ms BLE per spec §5).
func NewReassembler(mss int, timeout time.Duration) *Reassembler {
	return &Reassembler{mss: mss, timeout: timeout, expected: -1}
}

func (r *Reassembler) reset() {
	r.buf = nil
	r.expected = -1
}

// CheckTimeout drops a stale in-progress buffer even if no further
// chunk ever arrives; transports should call this from a periodic
// ticker alongside Feed.
func (r *Reassembler) CheckTimeout() bool {
	if len(r.buf) == 0 {
		return false
	}
	if time.Since(r.startedAt) <= r.timeout {
		return false
	}
	r.reset()
	return true
}

// Feed processes one inbound chunk (spec §4.4's three numbered
// rules). frame is non-nil only when result is FeedReady.
func (r *Reassembler) Feed(chunk []byte) (frame []byte, result FeedResult) {
	if r.CheckTimeout() {
		// The stale buffer is gone and no frame is returned for this
		// chunk. A chunk that opens a new frame is kept as the start of
		// a fresh attempt; a chunk that would complete on its own is
		// taken as the tail of the dropped frame and discarded.
		r.feedFresh(chunk)
		return nil, FeedTimeout
	}

	if len(r.buf) == 0 {
		return r.feedFresh(chunk)
	}

	r.buf = append(r.buf, chunk...)

	if r.expected >= 0 {
		switch {
		case len(r.buf) == r.expected:
			out := r.buf
			r.reset()
			return out, FeedReady
		case len(r.buf) > r.expected:
			r.reset()
			return nil, FeedOverflow
		default:
			return nil, FeedPending
		}
	}

	// expected unknown: a short chunk (less than the MSS) ends the frame.
	if len(chunk) < r.mss {
		out := r.buf
		r.reset()
		return out, FeedReady
	}
	return nil, FeedPending
}

func (r *Reassembler) feedFresh(chunk []byte) ([]byte, FeedResult) {
	if uapi.LooksLikePacket(chunk) {
		r.expected = int(uapi.DeclaredLength(chunk))
		r.buf = append([]byte(nil), chunk...)
		r.startedAt = time.Now()
		if len(r.buf) == r.expected {
			out := r.buf
			r.reset()
			return out, FeedReady
		}
		if len(r.buf) > r.expected {
			r.reset()
			return nil, FeedOverflow
		}
		return nil, FeedPending
	}

	if len(chunk) == r.mss {
		r.expected = -1
		r.buf = append([]byte(nil), chunk...)
		r.startedAt = time.Now()
		return nil, FeedPending
	}

	// The chunk IS the whole frame.
	return chunk, FeedReady
}
