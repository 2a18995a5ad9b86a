package ctrl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eriksl/esp32ctl/internal/interfaces"
)

type stubHandle struct{}

func (stubHandle) Transport() string { return "test" }

func newTestDispatcher() *Dispatcher {
	d := New(nil, nil)
	d.Register(&Command{
		Name: "hostname",
		Params: []ParameterSpec{
			{Kind: KindString, Required: false, HasUpperBound: true, UpperBound: 32},
		},
		Handler: func(call *CommandCall) string {
			if v, ok := call.Param(0); ok {
				return "OK hostname set to " + v.String
			}
			return "OK hostname: esp32"
		},
	})
	d.Register(&Command{
		Name: "write",
		Alias: "w",
		Params: []ParameterSpec{
			{Kind: KindU32, Required: true, Base: 0},
			{Kind: KindU32, Required: true, Base: 0, HasLowerBound: true, LowerBound: 0, HasUpperBound: true, UpperBound: 255},
		},
		Handler: func(call *CommandCall) string {
			a, _ := call.Param(0)
			b, _ := call.Param(1)
			return "OK write " + a.Text + " " + b.Text
		},
	})
	return d
}

func frame(cmd string) interfaces.InboundFrame {
	return interfaces.InboundFrame{
		Source:  "tcp",
		Command: []byte(cmd),
		Reply:   stubHandle{},
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	d := newTestDispatcher()
	reply := d.dispatch(frame("nope"), &CommandCall{})
	require.Equal(t, `ERROR: unknown command "nope"`, reply)
}

func TestDispatchEmptyLine(t *testing.T) {
	d := newTestDispatcher()
	reply := d.dispatch(frame("   "), &CommandCall{})
	require.Equal(t, "ERROR: empty line", reply)
}

func TestDispatchOptionalParameterOmitted(t *testing.T) {
	d := newTestDispatcher()
	reply := d.dispatch(frame("hostname"), &CommandCall{})
	require.Equal(t, "OK hostname: esp32", reply)
}

func TestDispatchResolvesByAlias(t *testing.T) {
	d := newTestDispatcher()
	reply := d.dispatch(frame("w 0x10 200"), &CommandCall{})
	require.Equal(t, "OK write 0x10 200", reply)
}

func TestDispatchMissingRequiredParameter(t *testing.T) {
	d := newTestDispatcher()
	reply := d.dispatch(frame("write 0x10"), &CommandCall{})
	require.Contains(t, reply, "missing required parameter")
}

func TestDispatchValueOutOfBounds(t *testing.T) {
	d := newTestDispatcher()
	reply := d.dispatch(frame("write 0x10 999"), &CommandCall{})
	require.Contains(t, reply, "larger than bound")
}

func TestDispatchTooManyParameters(t *testing.T) {
	d := newTestDispatcher()
	reply := d.dispatch(frame("hostname foo bar"), &CommandCall{})
	require.Equal(t, "ERROR: too many parameters", reply)
}

func TestHandleRoundTripsThroughFrameCodec(t *testing.T) {
	d := newTestDispatcher()
	out := d.Handle(interfaces.InboundFrame{
		Source:     "tcp",
		Command:    []byte("hostname"),
		Reply:      stubHandle{},
		Packetised: false,
	})
	require.Contains(t, string(out), "OK hostname: esp32")
}
