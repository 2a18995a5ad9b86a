// Package ota implements the firmware update state machine: image
// staging into one of two partitions, a running SHA-256 hash, and the
// commit/confirm split that gives the bootloader a rollback window
// (spec §4.7), grounded on original_source/src/otacli.c's
// command_ota_start/write/finish/commit/confirm handlers.
package ota

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/eriksl/esp32ctl/backend"
	"github.com/eriksl/esp32ctl/internal/constants"
)

// State is one of the five OTA session states (spec §4.7's table).
type State int

const (
	Idle State = iota
	Staging
	Staged
	Committed
	Confirmed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Staging:
		return "staging"
	case Staged:
		return "staged"
	case Committed:
		return "committed"
	case Confirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// checksumChunkLength is the fixed length of a checksum-guard chunk
// sent as part of `ota-write` (original_source/src/otacli.c checks
// this against a literal 32).
const checksumChunkLength = 32

// Engine is the single-holder OTA session (spec §5: enforced by the
// intake worker's single-threadedness, so no internal locking here).
type Engine struct {
	state State

	partitions [constants.NumPartitions]*backend.Partition
	labels     [constants.NumPartitions]string

	activeSlot    int
	declaredLen   uint32
	written       uint32
	hasher        hash.Hash
	finishedHash  string

	runningSlot         int
	bootSlot            int
	previousRunningSlot int
	bootAttempted       bool
}

// New creates an engine with two equally sized partitions, slot 0
// running and slot 0 the boot target (a freshly flashed device).
func New(partitionCapacity int64) *Engine {
	e := &Engine{}
	for i := range e.partitions {
		e.partitions[i] = backend.NewPartition(partitionCapacity)
		e.labels[i] = fmt.Sprintf("ota_%d", i)
	}
	return e
}

// State reports the current session state.
func (e *Engine) State() State {
	return e.state
}

func (e *Engine) abort() {
	if e.activeSlot >= 0 && e.activeSlot < len(e.partitions) && e.state == Staging {
		e.partitions[e.activeSlot].Reset()
	}
	e.hasher = nil
	e.declaredLen = 0
	e.written = 0
	e.state = Idle
}

// Start begins staging a new image of the given length into the next
// update partition (spec §4.7: "any start" aborts any active session
// first).
func (e *Engine) Start(length uint32) string {
	if e.state != Idle {
		e.abort()
	}

	nextSlot := (e.runningSlot + 1) % len(e.partitions)
	e.partitions[nextSlot].Reset()
	e.activeSlot = nextSlot
	e.hasher = sha256.New()
	e.declaredLen = length
	e.written = 0
	e.state = Staging

	return fmt.Sprintf("OK start write ota partition %s %d", e.labels[nextSlot], nextSlot)
}

// Write appends one chunk of image bytes (or, when checksumChunk is
// set, a 32-byte integrity guard that is written to the partition but
// excluded from the rolling hash) per spec §4.7's write contract.
func (e *Engine) Write(length uint32, checksumChunk bool, oob []byte) string {
	if e.state != Staging {
		e.abort()
		return "ERROR: ota write failed: write context not active"
	}

	if uint32(len(oob)) != length {
		e.abort()
		return fmt.Sprintf("ERROR: ota write failed: lengths do not match (%d vs. %d)", length, len(oob))
	}

	if checksumChunk && length != checksumChunkLength {
		e.abort()
		return fmt.Sprintf("ERROR: ota write failed: invalid checksum chunk length (%d vs. %d)", length, checksumChunkLength)
	}

	if _, err := e.partitions[e.activeSlot].WriteAt(oob, int64(e.written)); err != nil {
		e.abort()
		return fmt.Sprintf("ERROR: ota write failed: %s", err)
	}

	if !checksumChunk {
		e.hasher.Write(oob)
	}
	e.written += length

	return "OK write ota"
}

// Finish finalizes the rolling hash and returns its 64-hex-digit
// checksum (spec §4.7).
func (e *Engine) Finish() string {
	if e.state != Staging {
		e.abort()
		return "ERROR: ota finish failed: write context not active"
	}

	sum := e.hasher.Sum(nil)
	e.finishedHash = hex.EncodeToString(sum)
	e.hasher = nil
	e.state = Staged

	return fmt.Sprintf("OK finish ota, checksum: %s", e.finishedHash)
}

// Commit compares the caller-supplied checksum against the locally
// computed one byte-for-byte and, on match, marks the staged
// partition bootable (spec §4.7: commit MUST reject mismatch before
// marking bootable).
func (e *Engine) Commit(remoteHex string) string {
	if e.state != Staged {
		return "ERROR: ota commit failed: no active OTA partition"
	}

	if remoteHex != e.finishedHash {
		return fmt.Sprintf("ERROR: checksum mismatch: %s vs %s", remoteHex, e.finishedHash)
	}

	e.bootSlot = e.activeSlot
	e.bootAttempted = false
	e.state = Committed

	return "OK commit ota"
}

// Confirm must be called from the newly booted image: it verifies
// the running partition is the slot that was just committed and, if
// so, cancels the rollback and reports Confirmed (equivalent to Idle
// for the next cycle).
func (e *Engine) Confirm(slot int) string {
	if e.runningSlot != slot {
		return fmt.Sprintf("ERROR: ota confirm failed: address of running slot (%d) not equal to updated slot (%d), boot failed", e.runningSlot, slot)
	}

	e.bootAttempted = false

	if e.bootSlot != slot {
		return fmt.Sprintf("ERROR: ota confirm failed: address of boot slot (%d) not equal to updated slot (%d), confirm failed", e.bootSlot, slot)
	}

	e.state = Confirmed
	return "OK confirm ota"
}

// Reboot simulates the bootloader's behavior across a soft reset
// (spec §4.7's rationale: the commit/confirm split gives exactly one
// untried boot of a newly committed image). The first reboot after a
// Commit runs the new slot; if that image reboots again without ever
// calling Confirm, the bootloader reverts to the previously running
// slot.
func (e *Engine) Reboot() {
	if e.state == Committed {
		if e.bootAttempted {
			e.bootSlot = e.previousRunningSlot
			e.runningSlot = e.bootSlot
			e.bootAttempted = false
			e.state = Idle
			return
		}
		e.previousRunningSlot = e.runningSlot
		e.runningSlot = e.bootSlot
		e.bootAttempted = true
		return
	}
	e.runningSlot = e.bootSlot
}

// RunningSlot reports which partition is currently executing.
func (e *Engine) RunningSlot() int {
	return e.runningSlot
}

// BootSlot reports which partition the bootloader will load next.
func (e *Engine) BootSlot() int {
	return e.bootSlot
}
