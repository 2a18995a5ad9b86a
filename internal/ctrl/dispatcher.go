package ctrl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eriksl/esp32ctl/internal/constants"
	"github.com/eriksl/esp32ctl/internal/interfaces"
	"github.com/eriksl/esp32ctl/internal/uapi"
)

// Dispatcher owns the command table and the alias store and turns one
// decoded inbound frame into an encapsulated reply (spec §4.6's
// seven-step pipeline). It has no internal locking of its own beyond
// AliasStore's: the spec's single-intake-worker invariant (§5) is
// what makes that safe, not a mutex here.
type Dispatcher struct {
	aliases  *AliasStore
	byName   map[string]*Command
	byAlias  map[string]*Command
	logger   interfaces.Logger
	observer interfaces.Observer
}

// New creates a Dispatcher with an empty command table; commands are
// registered with Register before the first Handle call.
func New(logger interfaces.Logger, observer interfaces.Observer) *Dispatcher {
	return &Dispatcher{
		aliases:  NewAliasStore(),
		byName:   make(map[string]*Command),
		byAlias:  make(map[string]*Command),
		logger:   logger,
		observer: observer,
	}
}

// Aliases exposes the dispatcher's AliasStore, e.g. for wiring the
// `alias` command's handler to AliasStore.Command.
func (d *Dispatcher) Aliases() *AliasStore {
	return d.aliases
}

// Register adds one command-table entry, indexed by name and, if
// present, by its short alias (spec §4.6's command table: e.g.
// `config-dump`/`cd`).
func (d *Dispatcher) Register(cmd *Command) {
	d.byName[cmd.Name] = cmd
	if cmd.Alias != "" {
		d.byAlias[cmd.Alias] = cmd
	}
}

func (d *Dispatcher) lookup(name string) (*Command, bool) {
	if c, ok := d.byName[name]; ok {
		return c, true
	}
	if c, ok := d.byAlias[name]; ok {
		return c, true
	}
	return nil, false
}

// Handle implements queue.Handler: it runs the full decapsulate →
// expand → tokenize → parse → invoke → encapsulate pipeline for one
// inbound frame (spec §4.6, §4.9).
func (d *Dispatcher) Handle(frame interfaces.InboundFrame) []byte {
	call := &CommandCall{Source: frame.Reply, MTU: frame.TransportMTU, OOB: frame.OOB}

	result := d.dispatch(frame, call)

	var txID *uint32
	if frame.HasTxID {
		v := frame.TxID
		txID = &v
	}
	return uapi.Encapsulate([]byte(result), call.ResultOOB, frame.Packetised, txID, frame.ChecksumRequested)
}

func (d *Dispatcher) dispatch(frame interfaces.InboundFrame, call *CommandCall) string {
	line := string(frame.Command)
	expanded := d.aliases.Expand(line)

	trimmed := strings.TrimLeft(expanded, " \t")
	if trimmed == "" {
		d.observeCommand("", false)
		return "ERROR: empty line"
	}

	idx := strings.IndexAny(trimmed, " \t")
	var name, rest string
	if idx < 0 {
		name, rest = trimmed, ""
	} else {
		name, rest = trimmed[:idx], trimmed[idx:]
	}

	cmd, ok := d.lookup(name)
	if !ok {
		d.observeCommand(name, false)
		return fmt.Sprintf("ERROR: unknown command %q", name)
	}

	params, errReply := parseParameters(rest, cmd.Params)
	if errReply != "" {
		d.observeCommand(name, false)
		return errReply
	}
	call.Parameters = params

	reply := cmd.Handler(call)
	d.observeCommand(name, !strings.HasPrefix(reply, "ERROR:"))
	return reply
}

func (d *Dispatcher) observeCommand(name string, ok bool) {
	if d.observer != nil {
		d.observer.ObserveCommand(name, ok)
	}
}

// parseParameters binds the whitespace-tokenized remainder of a
// command line against a command's ParameterSpec list (spec §4.6
// step 4): one token per spec in order, raw_string consuming the
// line's remainder verbatim, with bounds/type checking per spec §3.
func parseParameters(rest string, specs []ParameterSpec) ([]ParameterValue, string) {
	if len(specs) > constants.MaxParameters {
		specs = specs[:constants.MaxParameters]
	}

	values := make([]ParameterValue, 0, len(specs))
	pos := 0

	for i, spec := range specs {
		for pos < len(rest) && (rest[pos] == ' ' || rest[pos] == '\t') {
			pos++
		}

		if pos >= len(rest) {
			if spec.Required {
				return nil, fmt.Sprintf("ERROR: missing required parameter %d", i)
			}
			break
		}

		var token string
		if spec.Kind == KindRawString {
			token = rest[pos:]
			pos = len(rest)
		} else {
			end := strings.IndexAny(rest[pos:], " \t")
			if end < 0 {
				token = rest[pos:]
				pos = len(rest)
			} else {
				token = rest[pos : pos+end]
				pos += end
			}
		}

		value, errReply := parseOne(spec, token)
		if errReply != "" {
			return nil, errReply
		}
		values = append(values, value)
	}

	for pos < len(rest) && (rest[pos] == ' ' || rest[pos] == '\t') {
		pos++
	}
	if pos < len(rest) {
		return nil, "ERROR: too many parameters"
	}

	return values, ""
}

func parseOne(spec ParameterSpec, token string) (ParameterValue, string) {
	base := spec.Base

	switch spec.Kind {
	case KindU32:
		n, err := strconv.ParseUint(token, base, 32)
		if err != nil {
			return ParameterValue{}, fmt.Sprintf("ERROR: invalid u32 value: %s", token)
		}
		if spec.HasLowerBound && float64(n) < spec.LowerBound {
			return ParameterValue{}, boundsReply("u32", token, spec.LowerBound, false)
		}
		if spec.HasUpperBound && float64(n) > spec.UpperBound {
			return ParameterValue{}, boundsReply("u32", token, spec.UpperBound, true)
		}
		return ParameterValue{Kind: KindU32, U32: uint32(n), Text: token}, ""

	case KindI32:
		n, err := strconv.ParseInt(token, base, 32)
		if err != nil {
			return ParameterValue{}, fmt.Sprintf("ERROR: invalid i32 value: %s", token)
		}
		if spec.HasLowerBound && float64(n) < spec.LowerBound {
			return ParameterValue{}, boundsReply("i32", token, spec.LowerBound, false)
		}
		if spec.HasUpperBound && float64(n) > spec.UpperBound {
			return ParameterValue{}, boundsReply("i32", token, spec.UpperBound, true)
		}
		return ParameterValue{Kind: KindI32, I32: int32(n), Text: token}, ""

	case KindFloat:
		f, err := strconv.ParseFloat(token, 32)
		if err != nil {
			return ParameterValue{}, fmt.Sprintf("ERROR: invalid f32 value: %s", token)
		}
		if spec.HasLowerBound && f < spec.LowerBound {
			return ParameterValue{}, boundsReply("f32", token, spec.LowerBound, false)
		}
		if spec.HasUpperBound && f > spec.UpperBound {
			return ParameterValue{}, boundsReply("f32", token, spec.UpperBound, true)
		}
		return ParameterValue{Kind: KindFloat, F32: float32(f), Text: token}, ""

	case KindString, KindRawString:
		if spec.HasLowerBound && float64(len(token)) < spec.LowerBound {
			return ParameterValue{}, fmt.Sprintf("ERROR: invalid string length: %d, smaller than bound: %d", len(token), int(spec.LowerBound))
		}
		if spec.HasUpperBound && float64(len(token)) > spec.UpperBound {
			return ParameterValue{}, fmt.Sprintf("ERROR: invalid string length: %d, larger than bound: %d", len(token), int(spec.UpperBound))
		}
		return ParameterValue{Kind: spec.Kind, String: token, Text: token}, ""

	default:
		return ParameterValue{Kind: KindNone, Text: token}, ""
	}
}

func boundsReply(kind, value string, bound float64, larger bool) string {
	dir := "smaller"
	if larger {
		dir = "larger"
	}
	return fmt.Sprintf("ERROR: invalid %s value: %s, %s than bound: %v", kind, value, dir, bound)
}
