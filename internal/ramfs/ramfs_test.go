package ramfs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestOpenCreateWriteReadRoundTrip(t *testing.T) {
	r := New()
	fd, err := r.Open("/a.txt", OCreate|ORdWr)
	require.NoError(t, err)

	n, err := r.Write(fd, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	_, err = r.Lseek(fd, 0, SeekSet)
	require.NoError(t, err)

	data, err := r.Read(fd, 64)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)

	require.NoError(t, r.Close(fd))
}

func TestOpenWithoutCreateOnMissingFileFails(t *testing.T) {
	r := New()
	_, err := r.Open("/missing", ORdOnly)
	require.ErrorIs(t, err, unix.ENOENT)
}

func TestFdTableBoundedToMax(t *testing.T) {
	r := New()
	for i := 0; i < 8; i++ {
		_, err := r.Open(fmt.Sprintf("/f%d", i), OCreate|ORdWr)
		require.NoError(t, err)
	}
	_, err := r.Open("/f8", OCreate|ORdWr)
	require.ErrorIs(t, err, unix.ENOMEM)
}

func TestUnlinkFailsWhileOpen(t *testing.T) {
	r := New()
	fd, err := r.Open("/a", OCreate|ORdWr)
	require.NoError(t, err)
	require.ErrorIs(t, r.Unlink("/a"), unix.EBUSY)
	require.NoError(t, r.Close(fd))
	require.NoError(t, r.Unlink("/a"))
}

func TestSecondWriteOpenFailsUntilClosed(t *testing.T) {
	r := New()
	fd, err := r.Open("/a", OCreate|OWrOnly)
	require.NoError(t, err)

	_, err = r.Open("/a", OWrOnly)
	require.ErrorIs(t, err, unix.EBUSY)

	require.NoError(t, r.Close(fd))

	fd2, err := r.Open("/a", OWrOnly)
	require.NoError(t, err)
	require.NoError(t, r.Close(fd2))
}

func TestWriteOpenBlocksReadOpenToo(t *testing.T) {
	r := New()
	fd, err := r.Open("/a", OCreate|OWrOnly)
	require.NoError(t, err)

	_, err = r.Open("/a", ORdOnly)
	require.ErrorIs(t, err, unix.EBUSY)

	require.NoError(t, r.Close(fd))

	readFD, err := r.Open("/a", ORdOnly)
	require.NoError(t, err)
	require.NoError(t, r.Close(readFD))
}

func TestRenameReplacesUnopenedTarget(t *testing.T) {
	r := New()
	fd, _ := r.Open("/a", OCreate|ORdWr)
	r.Write(fd, []byte("one"))
	r.Close(fd)

	fd2, _ := r.Open("/b", OCreate|ORdWr)
	r.Write(fd2, []byte("two"))
	r.Close(fd2)

	require.NoError(t, r.Rename("/a", "/b"))

	info, err := r.Stat("/b")
	require.NoError(t, err)
	require.Equal(t, int64(3), info.Size)

	_, err = r.Stat("/a")
	require.ErrorIs(t, err, unix.ENOENT)
}

func TestRenameFailsWhenTargetOpen(t *testing.T) {
	r := New()
	fd, _ := r.Open("/a", OCreate|ORdWr)
	r.Close(fd)

	targetFD, err := r.Open("/b", OCreate|ORdWr)
	require.NoError(t, err)

	require.ErrorIs(t, r.Rename("/a", "/b"), unix.EBUSY)
	require.NoError(t, r.Close(targetFD))
}

func TestTruncateAndFtruncate(t *testing.T) {
	r := New()
	fd, _ := r.Open("/a", OCreate|ORdWr)
	r.Write(fd, []byte("0123456789"))

	require.NoError(t, r.Ftruncate(fd, 4))
	info, err := r.Fstat(fd)
	require.NoError(t, err)
	require.Equal(t, int64(4), info.Size)

	require.NoError(t, r.Truncate("/a", 1))
	info, err = r.Stat("/a")
	require.NoError(t, err)
	require.Equal(t, int64(1), info.Size)
}

func TestOpenDirReadDirLists(t *testing.T) {
	r := New()
	fd1, _ := r.Open("/a", OCreate|ORdWr)
	r.Close(fd1)
	fd2, _ := r.Open("/b", OCreate|ORdWr)
	r.Close(fd2)

	handle, err := r.OpenDir("/")
	require.NoError(t, err)

	seen := map[string]bool{}
	for {
		name, ok, err := r.ReadDir(handle)
		require.NoError(t, err)
		if !ok {
			break
		}
		seen[name] = true
	}
	require.True(t, seen["/a"])
	require.True(t, seen["/b"])
	require.NoError(t, r.CloseDir(handle))
}

func TestIoctlGetUsedAndWipe(t *testing.T) {
	r := New()
	fd, _ := r.Open("/a", OCreate|ORdWr)
	r.Write(fd, []byte("12345"))
	r.Close(fd)

	used, err := r.Ioctl(IoctlGetUsed)
	require.NoError(t, err)
	require.Equal(t, 5, used)

	_, err = r.Ioctl(IoctlWipe)
	require.NoError(t, err)
	_, err = r.Stat("/a")
	require.ErrorIs(t, err, unix.ENOENT)
}
