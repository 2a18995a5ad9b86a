package backend

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPartitionWriteReadRoundTrip(t *testing.T) {
	p := NewPartition(1024)
	n, err := p.WriteAt([]byte("firmware-image"), 0)
	require.NoError(t, err)
	require.Equal(t, 14, n)

	buf := make([]byte, 14)
	n, err = p.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, 14, n)
	require.Equal(t, []byte("firmware-image"), buf)
	require.Equal(t, int64(14), p.Size())
}

func TestPartitionWriteBeyondCapacityFails(t *testing.T) {
	p := NewPartition(8)
	_, err := p.WriteAt(make([]byte, 16), 0)
	require.Error(t, err)
}

func TestPartitionResetClearsContents(t *testing.T) {
	p := NewPartition(1024)
	p.WriteAt([]byte("data"), 0)
	p.Reset()
	require.Equal(t, int64(0), p.Size())
}

func TestPartitionReadPastEndReturnsZero(t *testing.T) {
	p := NewPartition(1024)
	p.WriteAt([]byte("abc"), 0)
	buf := make([]byte, 10)
	n, err := p.ReadAt(buf, 100)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
