package esp32ctl

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitForReply(t *testing.T, transport *MockTransport) MockReply {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if replies := transport.Replies(); len(replies) > 0 {
			return replies[0]
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for a reply")
	return MockReply{}
}

func TestControllerDispatchesCommandThroughPipeline(t *testing.T) {
	c := New(&Options{Context: context.Background()})
	transport := NewMockTransport("mock")
	c.Attach(transport)
	c.Start()
	defer c.Stop()

	transport.Send(c, []byte("hostname"))

	reply := waitForReply(t, transport)
	require.Contains(t, string(reply.Data), "hostname:")
}

func TestControllerReportsUnknownCommand(t *testing.T) {
	c := New(&Options{Context: context.Background()})
	transport := NewMockTransport("mock")
	c.Attach(transport)
	c.Start()
	defer c.Stop()

	transport.Send(c, []byte("no-such-command"))

	reply := waitForReply(t, transport)
	require.True(t, bytes.Contains(reply.Data, []byte("ERROR: unknown command")))
}

func TestControllerStateTransitions(t *testing.T) {
	c := New(&Options{Context: context.Background()})
	require.Equal(t, StateCreated, c.State())

	c.Start()
	require.Equal(t, StateRunning, c.State())

	c.Stop()
	require.Equal(t, StateStopped, c.State())
}

func TestControllerMetricsCountCommands(t *testing.T) {
	c := New(&Options{Context: context.Background()})
	transport := NewMockTransport("mock")
	c.Attach(transport)
	c.Start()
	defer c.Stop()

	transport.Send(c, []byte("hostname"))
	waitForReply(t, transport)

	snap := c.MetricsSnapshot()
	require.Equal(t, uint64(1), snap.CommandOK["hostname"])
}

func TestControllerRoutesRepliesBySourceTransport(t *testing.T) {
	c := New(&Options{Context: context.Background()})
	a := NewMockTransport("a")
	b := NewMockTransport("b")
	c.Attach(a)
	c.Attach(b)
	c.Start()
	defer c.Stop()

	a.Send(c, []byte("hostname"))
	bReply := func() bool { return len(b.Replies()) > 0 }

	waitForReply(t, a)
	require.False(t, bReply(), "reply addressed to transport a must not reach transport b")
}
