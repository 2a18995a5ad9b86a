// Package ctrl implements the dispatcher: the command table, the
// tokenizer/parameter parser, and the alias expansion step, wired
// together the way original_source/src/cli.c's dispatch loop and
// cli-command.h's table describe them (spec §4.6).
package ctrl

import "github.com/eriksl/esp32ctl/internal/interfaces"

// ParameterKind is one of the five parameter shapes a ParameterSpec
// can declare (spec §3, original_source/src/cli-command.h's
// cli_parameter_type_description_t).
type ParameterKind int

const (
	KindNone ParameterKind = iota
	KindU32
	KindI32
	KindFloat
	KindString
	KindRawString
)

// ParameterSpec declares one positional parameter a command accepts.
// Bounds are inclusive; for KindString they bound the string's byte
// length rather than its numeric value.
type ParameterSpec struct {
	Kind          ParameterKind
	Name          string
	Required      bool
	Base          int // integer parse base, 0 = accept 0x/0/decimal like strconv.ParseInt(base=0)
	LowerBound    float64
	UpperBound    float64
	HasLowerBound bool
	HasUpperBound bool
	Description   string
}

// ParameterValue is one parsed argument: the tagged value plus the
// literal text it was parsed from (kept for error messages and for
// commands that want the original spelling, e.g. hostname).
type ParameterValue struct {
	Kind   ParameterKind
	U32    uint32
	I32    int32
	F32    float32
	String string
	Text   string
}

// CommandCall is the parsed, ready-to-run invocation handed to a
// command handler: the reply handle, the parsed parameter vector, the
// inbound OOB payload, and two output builders a handler appends to.
type CommandCall struct {
	Source interfaces.ReplyHandle
	MTU    int

	Parameters []ParameterValue
	OOB        []byte

	Result    []byte
	ResultOOB []byte
}

// Param returns the i'th parsed parameter, or the zero value and
// false if fewer than i+1 parameters were supplied (the spec's
// "absent and optional, stop consuming" case).
func (c *CommandCall) Param(i int) (ParameterValue, bool) {
	if i < 0 || i >= len(c.Parameters) {
		return ParameterValue{}, false
	}
	return c.Parameters[i], true
}

// Handler is the function a Command table entry invokes once its
// parameters have been parsed and bound. It returns the reply text
// that becomes the dispatcher's result string.
type Handler func(call *CommandCall) string

// Command is one static command-table entry (spec §3).
type Command struct {
	Name    string
	Alias   string
	Help    string
	Params  []ParameterSpec
	Handler Handler
}
