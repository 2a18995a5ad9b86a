package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/eriksl/esp32ctl/internal/constants"
	"github.com/eriksl/esp32ctl/internal/interfaces"
	"github.com/eriksl/esp32ctl/internal/queue"
)

// TCPReplyHandle routes a reply back to the single active TCP
// connection it was read from.
type TCPReplyHandle struct {
	conn net.Conn
}

// Transport implements interfaces.ReplyHandle.
func (h TCPReplyHandle) Transport() string { return "tcp" }

// TCP implements interfaces.Transport over a single active connection
// on constants.TCPServicePort (spec §4.3): a second dial while one
// connection is being served is rejected outright.
type TCP struct {
	submitter Submitter
	logger    interfaces.Logger
	observer  interfaces.Observer

	listener net.Listener

	mu   sync.Mutex
	conn net.Conn
}

// NewTCP creates a TCP transport bound to submitter; call Listen to
// start accepting connections.
func NewTCP(submitter Submitter, logger interfaces.Logger, observer interfaces.Observer) *TCP {
	return &TCP{submitter: submitter, logger: logger, observer: observer}
}

// Name implements interfaces.Transport.
func (t *TCP) Name() string { return "tcp" }

// Listen opens the service port and accepts connections until ctx is
// canceled.
func (t *TCP) Listen(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", constants.TCPServicePort))
	if err != nil {
		return fmt.Errorf("tcp transport: listen: %w", err)
	}
	t.listener = ln

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	go t.acceptLoop(ctx)
	return nil
}

// Close shuts down the listener and any active connection.
func (t *TCP) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	if t.listener != nil {
		return t.listener.Close()
	}
	return nil
}

func (t *TCP) acceptLoop(ctx context.Context) {
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				if t.logger != nil {
					t.logger.Printf("tcp transport: accept failed: %v", err)
				}
				return
			}
		}

		t.mu.Lock()
		if t.conn != nil {
			t.mu.Unlock()
			conn.Close()
			continue
		}
		t.conn = conn
		t.mu.Unlock()

		go t.serve(ctx, conn)
	}
}

func (t *TCP) serve(ctx context.Context, conn net.Conn) {
	defer func() {
		conn.Close()
		t.mu.Lock()
		if t.conn == conn {
			t.conn = nil
		}
		t.mu.Unlock()
	}()

	reassembler := NewReassembler(constants.TCPMaxSegmentSize, constants.TCPReassemblyTimeout)
	buf := queue.GetBuffer(constants.TCPMaxSegmentSize)
	defer queue.PutBuffer(buf)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := conn.Read(buf)
		if err != nil {
			return
		}

		raw, result := reassembler.Feed(buf[:n])
		switch result {
		case FeedReady:
			handle := TCPReplyHandle{conn: conn}
			frame, ok := decodeFrame(raw, "tcp", constants.TCPMaxSegmentSize, handle, t.observer)
			if !ok {
				if _, err := conn.Write([]byte(malformedFrameReply)); err != nil {
					return
				}
				continue
			}
			t.DeliverFrame(frame)
		case FeedTimeout:
			if t.observer != nil {
				t.observer.ObserveReassemblyTimeout("tcp")
			}
		case FeedOverflow:
			if t.observer != nil {
				t.observer.ObserveMalformedFrame("tcp")
			}
		case FeedPending:
		}
	}
}

// DeliverFrame implements interfaces.Transport.
func (t *TCP) DeliverFrame(frame interfaces.InboundFrame) {
	t.submitter.Submit(frame)
}

// SendReply implements interfaces.Transport. A short write is an I/O
// error and closes the connection (spec §4.3).
func (t *TCP) SendReply(handle interfaces.ReplyHandle, data []byte) error {
	h, ok := handle.(TCPReplyHandle)
	if !ok {
		return fmt.Errorf("tcp transport: reply handle is not a TCP handle")
	}
	n, err := h.conn.Write(data)
	if err != nil {
		h.conn.Close()
		return fmt.Errorf("tcp transport: write failed: %w", err)
	}
	if n != len(data) {
		h.conn.Close()
		return fmt.Errorf("tcp transport: short write (%d of %d bytes)", n, len(data))
	}
	return nil
}

var _ interfaces.Transport = (*TCP)(nil)
