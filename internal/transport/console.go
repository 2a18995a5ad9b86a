package transport

import (
	"context"
	"io"

	"golang.org/x/sys/unix"

	"github.com/eriksl/esp32ctl/internal/console"
	"github.com/eriksl/esp32ctl/internal/constants"
	"github.com/eriksl/esp32ctl/internal/interfaces"
)

// ConsoleReplyHandle is the single reply handle for the console
// transport: there is exactly one controlling terminal, so no
// per-connection state is needed.
type ConsoleReplyHandle struct{}

// Transport implements interfaces.ReplyHandle.
func (ConsoleReplyHandle) Transport() string { return "console" }

// Console is the stdio line transport (spec §4.3): a raw terminal fed
// through internal/console's line editor, submitting every completed
// line as a non-packetised InboundFrame.
type Console struct {
	submitter Submitter
	logger    interfaces.Logger
	observer  interfaces.Observer

	reader  io.Reader
	writer  io.Writer
	editor  *console.Editor
	restore func() error
}

// NewConsole creates a console transport reading from r and echoing
// to w. If r has an Fd() int method (as *os.File does), raw mode is
// applied to that descriptor when Listen is called.
func NewConsole(submitter Submitter, logger interfaces.Logger, observer interfaces.Observer, r io.Reader, w io.Writer) *Console {
	return &Console{submitter: submitter, logger: logger, observer: observer, reader: r, writer: w}
}

// Name implements interfaces.Transport.
func (c *Console) Name() string { return "console" }

// Listen puts the terminal into raw mode (best-effort; a non-tty
// reader simply skips this), starts the line editor, and serves
// completed lines until ctx is canceled or the reader errs.
func (c *Console) Listen(ctx context.Context) error {
	if fder, ok := c.reader.(interface{ Fd() uintptr }); ok {
		restore, err := enableRawMode(int(fder.Fd()))
		if err == nil {
			c.restore = restore
		}
	}

	c.editor = console.New(c.reader, c.writer, constants.ConsoleScrollback)

	go c.serve(ctx)
	return nil
}

// Close restores the terminal's original mode, if it was changed.
func (c *Console) Close() error {
	if c.restore != nil {
		return c.restore()
	}
	return nil
}

func (c *Console) serve(ctx context.Context) {
	for {
		line, err := c.editor.ReadLine()
		if err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame := interfaces.InboundFrame{
			Source:     "console",
			Packetised: false,
			Command:    line,
			Reply:      ConsoleReplyHandle{},
		}
		c.DeliverFrame(frame)
	}
}

// DeliverFrame implements interfaces.Transport.
func (c *Console) DeliverFrame(frame interfaces.InboundFrame) {
	c.submitter.Submit(frame)
}

// SendReply implements interfaces.Transport.
func (c *Console) SendReply(handle interfaces.ReplyHandle, data []byte) error {
	if _, ok := handle.(ConsoleReplyHandle); !ok {
		return errNotConsoleHandle
	}
	_, err := c.writer.Write(data)
	return err
}

var errNotConsoleHandle = consoleHandleError("console transport: reply handle is not a console handle")

type consoleHandleError string

func (e consoleHandleError) Error() string { return string(e) }

// enableRawMode puts fd into a minimal raw mode (no canonical line
// buffering, no echo, no signal generation) and returns a function
// that restores the original settings.
func enableRawMode(fd int) (func() error, error) {
	original, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}

	raw := *original
	raw.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	raw.Cflag &^= unix.CSIZE | unix.PARENB
	raw.Cflag |= unix.CS8
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return nil, err
	}

	return func() error {
		return unix.IoctlSetTermios(fd, unix.TCSETS, original)
	}, nil
}

var _ interfaces.Transport = (*Console)(nil)
