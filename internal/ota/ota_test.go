package ota

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHappyPathCommitAndConfirm(t *testing.T) {
	e := New(1 << 20)
	image := make([]byte, 1024)
	for i := range image {
		image[i] = byte(i)
	}

	require.Contains(t, e.Start(uint32(len(image))), "OK start write ota partition")
	require.Equal(t, "OK write ota", e.Write(uint32(len(image)), false, image))
	finishReply := e.Finish()
	require.Contains(t, finishReply, "OK finish ota, checksum:")

	want := sha256.Sum256(image)
	wantHex := hex.EncodeToString(want[:])
	require.Contains(t, finishReply, wantHex)

	require.Equal(t, "OK commit ota", e.Commit(wantHex))
	require.Equal(t, Committed, e.State())

	e.Reboot()
	require.Equal(t, 1, e.RunningSlot())

	require.Equal(t, "OK confirm ota", e.Confirm(1))
	require.Equal(t, Confirmed, e.State())
}

func TestCommitChecksumMismatchLeavesPartitionNotBootable(t *testing.T) {
	e := New(1 << 20)
	image := []byte("firmware bytes")
	e.Start(uint32(len(image)))
	e.Write(uint32(len(image)), false, image)
	e.Finish()

	reply := e.Commit("deadbeef")
	require.Contains(t, reply, "checksum mismatch")
	require.Equal(t, Staged, e.State())
	require.Equal(t, 0, e.BootSlot())
}

func TestWriteWithoutStartErrors(t *testing.T) {
	e := New(1 << 20)
	reply := e.Write(4, false, []byte("abcd"))
	require.Contains(t, reply, "ERROR")
}

func TestFinishWithoutStartErrors(t *testing.T) {
	e := New(1 << 20)
	reply := e.Finish()
	require.Contains(t, reply, "ERROR")
}

func TestChecksumChunkExcludedFromHash(t *testing.T) {
	e := New(1 << 20)
	image := []byte("image-bytes")
	e.Start(uint32(len(image)))
	e.Write(uint32(len(image)), false, image)
	guard := make([]byte, 32)
	e.Write(32, true, guard)
	finishReply := e.Finish()

	want := sha256.Sum256(image)
	require.Contains(t, finishReply, hex.EncodeToString(want[:]))
}

func TestAbsentConfirmAfterSecondRebootRollsBack(t *testing.T) {
	e := New(1 << 20)
	image := []byte("v2-image")
	e.Start(uint32(len(image)))
	e.Write(uint32(len(image)), false, image)
	finishReply := e.Finish()
	sum := sha256.Sum256(image)
	e.Commit(hex.EncodeToString(sum[:]))
	_ = finishReply

	e.Reboot()
	require.Equal(t, 1, e.RunningSlot())

	e.Reboot()
	require.Equal(t, 0, e.RunningSlot())
	require.Equal(t, 0, e.BootSlot())
	require.Equal(t, Idle, e.State())
}

func TestStartAbortsPriorActiveSession(t *testing.T) {
	e := New(1 << 20)
	e.Start(10)
	require.Equal(t, Staging, e.State())
	e.Start(20)
	require.Equal(t, Staging, e.State())
}
