package transport

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eriksl/esp32ctl/internal/constants"
	"github.com/eriksl/esp32ctl/internal/interfaces"
	"github.com/eriksl/esp32ctl/internal/ramfs"
)

// ScriptReplyHandle is a per-invocation waiter: the script
// interpreter blocks on it until the command it just submitted gets
// a reply, matching original_source/main/script.cpp's
// ulTaskNotifyTake after each cli_receive_queue_push.
type ScriptReplyHandle struct {
	done chan []byte
}

// Transport implements interfaces.ReplyHandle.
func (ScriptReplyHandle) Transport() string { return "script" }

// scriptFrame is one entry of the explicit call stack Script.Start's
// interpreter walks; a "call" pushes the caller's frame and resumes
// it once the callee's file reaches EOF (spec §4.3).
type scriptFrame struct {
	name   string
	params [4]string
	root   *ramfs.Root
	fd     int
	buf    []byte
}

func (f *scriptFrame) readLine() (line string, ok bool, err error) {
	for {
		if idx := bytes.IndexByte(f.buf, '\n'); idx >= 0 {
			out := f.buf[:idx]
			f.buf = f.buf[idx+1:]
			return strings.TrimSuffix(string(out), "\r"), true, nil
		}
		chunk, rerr := f.root.Read(f.fd, 256)
		if rerr != nil {
			return "", false, rerr
		}
		if len(chunk) == 0 {
			if len(f.buf) > 0 {
				out := f.buf
				f.buf = nil
				return strings.TrimSuffix(string(out), "\r"), true, nil
			}
			return "", false, nil
		}
		f.buf = append(f.buf, chunk...)
	}
}

func (f *scriptFrame) seekStart() {
	f.root.Lseek(f.fd, 0, ramfs.SeekSet)
	f.buf = nil
}

func (f *scriptFrame) close() {
	f.root.Close(f.fd)
}

// Script implements interfaces.Transport as a library-level source:
// it is never attached to an external socket. Instead the "run"
// command starts an interpreter goroutine over it (spec §4.3's
// "submitting every other line as a command", with `call`/`pause`/
// `stop`/`repeat` built in).
type Script struct {
	submitter  Submitter
	logger     interfaces.Logger
	observer   interfaces.Observer
	ramfs      *ramfs.Root
	persistent *ramfs.Root
}

// NewScript creates a script transport reading files from ramFS
// first and falling back to persistentFS, matching
// original_source/main/script.cpp's "/ramdisk/" then "/littlefs/"
// fallback.
func NewScript(submitter Submitter, logger interfaces.Logger, observer interfaces.Observer, ramFS, persistentFS *ramfs.Root) *Script {
	return &Script{submitter: submitter, logger: logger, observer: observer, ramfs: ramFS, persistent: persistentFS}
}

// Name implements interfaces.Transport.
func (s *Script) Name() string { return "script" }

// DeliverFrame implements interfaces.Transport; nothing external
// calls it, since the script source is driven internally by Start,
// but it keeps Script a full Transport for attachment/routing
// symmetry with the other sources.
func (s *Script) DeliverFrame(frame interfaces.InboundFrame) {
	s.submitter.Submit(frame)
}

// SendReply implements interfaces.Transport: it wakes up the
// interpreter goroutine blocked on this call's ScriptReplyHandle.
func (s *Script) SendReply(handle interfaces.ReplyHandle, data []byte) error {
	h, ok := handle.(ScriptReplyHandle)
	if !ok {
		return fmt.Errorf("script transport: reply handle is not a script handle")
	}
	h.done <- data
	return nil
}

// Start launches the interpreter for name with the given $0..$3
// parameters in its own goroutine and returns immediately; failures
// after launch are logged, not returned (spec §4.3, original's
// detached command_run thread).
func (s *Script) Start(name string, params [4]string) error {
	frame, err := s.open(name, params)
	if err != nil {
		return err
	}
	go s.run(context.Background(), frame)
	return nil
}

func (s *Script) open(name string, params [4]string) (*scriptFrame, error) {
	if fd, err := s.ramfs.Open(name, ramfs.ORdOnly); err == nil {
		return &scriptFrame{name: name, params: params, root: s.ramfs, fd: fd}, nil
	}
	if s.persistent != nil {
		if fd, err := s.persistent.Open(name, ramfs.ORdOnly); err == nil {
			return &scriptFrame{name: name, params: params, root: s.persistent, fd: fd}, nil
		}
	}
	return nil, fmt.Errorf("script %s not found", name)
}

func (s *Script) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// run walks the explicit call stack spec §4.3 describes: no
// recursion, bounded by constants.MaxScriptCallDepth.
func (s *Script) run(ctx context.Context, cur *scriptFrame) {
	var stack []*scriptFrame
	defer func() {
		if cur != nil {
			cur.close()
		}
		for _, f := range stack {
			f.close()
		}
	}()

	pop := func() *scriptFrame {
		if len(stack) == 0 {
			return nil
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return f
	}

	for cur != nil {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, ok, err := cur.readLine()
		if err != nil {
			s.logf("run script: %s: %v", cur.name, err)
			ok = false
		}
		if !ok {
			cur.close()
			cur = pop()
			continue
		}

		expanded := expandScriptLine(line, cur.params)
		word := firstToken(expanded)

		switch word {
		case "stop":
			s.logf("%s: stop", cur.name)
			cur.close()
			cur = pop()
		case "call":
			if len(stack) >= constants.MaxScriptCallDepth {
				s.logf("run script: %s: call stack depth exceeded", cur.name)
				continue
			}
			childName, childParams, perr := parseCall(expanded)
			if perr != nil {
				s.logf("run script: %s: %v", cur.name, perr)
				continue
			}
			child, oerr := s.open(childName, childParams)
			if oerr != nil {
				s.logf("run script: %s: call: %v", cur.name, oerr)
				continue
			}
			stack = append(stack, cur)
			cur = child
		case "pause":
			d := parsePause(expanded)
			if d >= 10*time.Millisecond {
				time.Sleep(d)
			}
		case "repeat":
			cur.seekStart()
			time.Sleep(100 * time.Millisecond)
		default:
			s.dispatch(ctx, expanded)
		}
	}
}

// dispatch submits one command line and blocks until its reply comes
// back, or until ctx is canceled.
func (s *Script) dispatch(ctx context.Context, command string) {
	done := make(chan []byte, 1)
	frame := interfaces.InboundFrame{
		Source:     "script",
		Packetised: false,
		Command:    []byte(command),
		Reply:      ScriptReplyHandle{done: done},
	}
	if !s.submitter.Submit(frame) {
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// expandScriptLine implements the original's $0..$3 positional
// substitution: '$' not followed by a digit is dropped; digits 4-9
// are dropped (parameter_size is 4); a backslash has no special
// meaning, matching the original.
func expandScriptLine(line string, params [4]string) string {
	var b strings.Builder
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if ch != '$' {
			b.WriteByte(ch)
			continue
		}
		if i+1 >= len(line) {
			continue
		}
		next := line[i+1]
		if next < '0' || next > '9' {
			continue
		}
		i++
		idx := int(next - '0')
		if idx >= constants.ScriptParameterCount {
			continue
		}
		b.WriteString(params[idx])
	}
	return b.String()
}

func firstToken(line string) string {
	if idx := strings.IndexByte(line, ' '); idx >= 0 {
		return line[:idx]
	}
	return line
}

func parseCall(expanded string) (name string, params [4]string, err error) {
	fields := strings.Fields(expanded)
	if len(fields) < 2 {
		return "", params, fmt.Errorf("call: missing script name")
	}
	name = fields[1]
	for i := 2; i < len(fields) && i-2 < constants.ScriptParameterCount; i++ {
		params[i-2] = fields[i]
	}
	return name, params, nil
}

func parsePause(expanded string) time.Duration {
	fields := strings.Fields(expanded)
	if len(fields) < 2 {
		return time.Second
	}
	secs, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return time.Second
	}
	return time.Duration(secs * float64(time.Second))
}

var _ interfaces.Transport = (*Script)(nil)
