package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eriksl/esp32ctl/internal/interfaces"
)

type stubSubmitter struct {
	frames chan interfaces.InboundFrame
}

func newStubSubmitter() *stubSubmitter {
	return &stubSubmitter{frames: make(chan interfaces.InboundFrame, 8)}
}

func (s *stubSubmitter) Submit(frame interfaces.InboundFrame) bool {
	s.frames <- frame
	return true
}

func TestTCPServeDeliversDecodedFrame(t *testing.T) {
	sub := newStubSubmitter()
	tr := NewTCP(sub, nil, nil)

	client, server := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go tr.serve(ctx, server)

	_, err := client.Write([]byte("hostname\n"))
	require.NoError(t, err)

	select {
	case frame := <-sub.frames:
		require.Equal(t, "tcp", frame.Source)
		require.Equal(t, "hostname", string(frame.Command))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivered frame")
	}
}

func TestTCPSendReplyWritesToConnection(t *testing.T) {
	tr := NewTCP(newStubSubmitter(), nil, nil)
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	handle := TCPReplyHandle{conn: server}

	done := make(chan struct{})
	go func() {
		require.NoError(t, tr.SendReply(handle, []byte("OK\n")))
		close(done)
	}()

	buf := make([]byte, 3)
	n, err := client.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "OK\n", string(buf[:n]))
	<-done
}

func TestTCPSendReplyRejectsForeignHandle(t *testing.T) {
	tr := NewTCP(newStubSubmitter(), nil, nil)
	err := tr.SendReply(MockHandleForTest{}, []byte("x"))
	require.Error(t, err)
}

// MockHandleForTest is a ReplyHandle from a different transport, used
// to exercise TCP.SendReply's type-assertion guard.
type MockHandleForTest struct{}

func (MockHandleForTest) Transport() string { return "mock" }
