package esp32ctl

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestErrorReplyFormatting(t *testing.T) {
	require.Equal(t, "ERROR: empty line", EmptyLine().Reply())
	require.Equal(t, `ERROR: unknown command "foo"`, UnknownCommand("foo").Reply())
	require.Equal(t, "ERROR: missing required parameter 2", MissingParameter(2).Reply())
	require.Equal(t, "ERROR: invalid int value: abc", InvalidValue("int", "abc").Reply())
	require.Equal(t, "ERROR: invalid int value: 5, larger than bound: 4", ValueOutOfBounds("int", "5", "4", true).Reply())
	require.Equal(t, "ERROR: invalid string length: 10, smaller than bound: 20", StringOutOfBounds(10, 20, false).Reply())
	require.Equal(t, "ERROR: too many parameters", TooManyParameters().Reply())
	require.Equal(t, "ERROR: ota commit failed: checksum mismatch", OTAFailed("commit", "checksum mismatch").Reply())
	require.Equal(t, "ERROR: checksum mismatch: abc vs def", ChecksumMismatch("abc", "def").Reply())
}

func TestIOFailedCarriesErrno(t *testing.T) {
	err := IOFailed("open", unix.ENOENT)
	require.Equal(t, unix.ENOENT, err.Errno)
	require.Contains(t, err.Reply(), "open failed")
}

func TestIsCodeMatchesByCode(t *testing.T) {
	err := UnknownCommand("x")
	require.True(t, IsCode(err, ErrCodeUnknownCommand))
	require.False(t, IsCode(err, ErrCodeEmptyLine))
}
