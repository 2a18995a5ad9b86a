package esp32ctl

import (
	"sync"

	"github.com/eriksl/esp32ctl/internal/interfaces"
)

// MockReplyHandle is a trivial interfaces.ReplyHandle for tests that
// don't need a real connection/attribute/waiter to route a reply
// through.
type MockReplyHandle struct {
	name string
}

// Transport implements interfaces.ReplyHandle.
func (h MockReplyHandle) Transport() string { return h.name }

// MockReply is one recorded SendReply call.
type MockReply struct {
	Handle interfaces.ReplyHandle
	Data   []byte
}

// MockTransport is a mock implementation of interfaces.Transport for
// testing Controller end-to-end without a real BLE/TCP/console
// connection. It records every delivered frame and every reply sent
// back to it for later assertion.
type MockTransport struct {
	name string

	mu        sync.Mutex
	delivered []interfaces.InboundFrame
	replies   []MockReply
}

// NewMockTransport creates a named mock transport. Attach it to a
// Controller with Controller.Attach, then call Send to push a
// command through the pipeline as if it had arrived over the wire.
func NewMockTransport(name string) *MockTransport {
	return &MockTransport{name: name}
}

// Name implements interfaces.Transport.
func (t *MockTransport) Name() string { return t.name }

// DeliverFrame implements interfaces.Transport. Real transports call
// this from their own read loop to push work at a Controller; it is
// recorded here purely for test assertions, since MockTransport.Send
// drives the equivalent path directly.
func (t *MockTransport) DeliverFrame(frame interfaces.InboundFrame) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delivered = append(t.delivered, frame)
}

// SendReply implements interfaces.Transport by recording the reply
// instead of writing it to a real connection.
func (t *MockTransport) SendReply(handle interfaces.ReplyHandle, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replies = append(t.replies, MockReply{Handle: handle, Data: append([]byte(nil), data...)})
	return nil
}

// Send submits a raw command line to c's pipeline as if it had
// arrived on this transport, and returns the handle the eventual
// SendReply call will carry.
func (t *MockTransport) Send(c *Controller, command []byte) interfaces.ReplyHandle {
	handle := MockReplyHandle{name: t.name}
	c.Submit(interfaces.InboundFrame{
		Source:  t.name,
		Command: command,
		Reply:   handle,
	})
	return handle
}

// SendWithOOB is Send plus an out-of-band payload, for commands like
// `ota-write` that carry binary data alongside their text line.
func (t *MockTransport) SendWithOOB(c *Controller, command, oob []byte) interfaces.ReplyHandle {
	handle := MockReplyHandle{name: t.name}
	c.Submit(interfaces.InboundFrame{
		Source:  t.name,
		Command: command,
		OOB:     oob,
		Reply:   handle,
	})
	return handle
}

// Delivered returns a copy of every frame recorded by DeliverFrame.
func (t *MockTransport) Delivered() []interfaces.InboundFrame {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]interfaces.InboundFrame, len(t.delivered))
	copy(out, t.delivered)
	return out
}

// Replies returns a copy of every reply recorded so far.
func (t *MockTransport) Replies() []MockReply {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]MockReply, len(t.replies))
	copy(out, t.replies)
	return out
}

// Reset clears recorded frames and replies.
func (t *MockTransport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delivered = nil
	t.replies = nil
}

var _ interfaces.Transport = (*MockTransport)(nil)
