// Package logring implements the append-only diagnostic ring buffer
// that survives a soft reset (spec §4.1). On real hardware the backing
// array lives in retention RAM; here it is a plain Go struct guarded by
// a mutex, since the host process has no retention-RAM equivalent and
// the self-validating magic/salt check is what spec.md asks to be
// exercised, not the physical memory placement.
package logring

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/eriksl/esp32ctl/internal/constants"
)

// Entry is one timestamped, length-bounded log line.
type Entry struct {
	Timestamp time.Time
	Text      string
}

// Ring is the append-only, self-validating log buffer described in
// spec §3 and §4.1. The zero value is not usable; construct with New.
type Ring struct {
	mu sync.Mutex

	magicWord    uint32
	randomSalt   uint32
	magicXorSalt uint32

	capacity int
	entries  []Entry
	headIn   int
	headOut  int
}

// New creates a ring and validates it as if freshly loaded from
// retention RAM: a zero-value Ring always fails validation and is
// reinitialized, mirroring original_source/src/log.c's boot check.
func New() *Ring {
	r := &Ring{capacity: constants.LogRingCapacity}
	r.entries = make([]Entry, r.capacity)
	if !r.valid() {
		r.clear()
		r.append("log buffer corrupt, reinit", time.Now())
	}
	return r
}

func (r *Ring) valid() bool {
	return r.magicWord == constants.LogRingMagicWord &&
		r.magicXorSalt == (constants.LogRingMagicWord^r.randomSalt)
}

// clear reinitializes the ring: head/tail reset, fresh salt, magics
// rewritten. Caller must hold mu.
func (r *Ring) clear() {
	var saltBuf [4]byte
	_, _ = rand.Read(saltBuf[:])
	salt := binary.LittleEndian.Uint32(saltBuf[:])

	r.magicWord = constants.LogRingMagicWord
	r.randomSalt = salt
	r.magicXorSalt = constants.LogRingMagicWord ^ salt
	r.headIn = 0
	r.headOut = 0
}

// Clear reinitializes head/tail cursors and the salted magic, per
// spec §4.1's clear() contract.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clear()
}

func (r *Ring) append(text string, ts time.Time) {
	if len(text) > constants.LogEntryTextBytes {
		text = text[:constants.LogEntryTextBytes]
	}
	r.entries[r.headIn] = Entry{Timestamp: ts, Text: text}
	r.headIn = (r.headIn + 1) % r.capacity
}

// Append truncates text to the bounded entry length, stamps it with
// the wall clock, and advances the write cursor. Never blocks, never
// allocates beyond the truncation slice, safe to call from any
// context that can read the clock (spec §4.1).
func (r *Ring) Append(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.append(text, time.Now())
}

// Write implements io.Writer so a Ring can be installed as a logging
// sink (SPEC_FULL.md §9): every log line also becomes a LogEntry.
func (r *Ring) Write(p []byte) (int, error) {
	text := string(p)
	for len(text) > 0 && (text[len(text)-1] == '\n' || text[len(text)-1] == '\r') {
		text = text[:len(text)-1]
	}
	r.Append(text)
	return len(p), nil
}

// DrainView reads up to max entries starting at start (or the current
// read cursor if start is nil), advancing the cursor, and reports how
// many unread entries remain (spec §4.1).
func (r *Ring) DrainView(start *uint32, max int) (entries []Entry, remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.headOut
	if start != nil {
		out = int(*start) % r.capacity
	}

	var total int
	if r.headIn >= out {
		total = r.headIn - out
	} else {
		total = r.headIn + (r.capacity - out)
	}
	if total == r.capacity {
		total = 0
	}

	n := max
	if n > total {
		n = total
	}

	entries = make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, r.entries[out])
		out = (out + 1) % r.capacity
	}
	r.headOut = out

	return entries, total - n
}

// Cursor returns the write cursor, the read cursor and the capacity,
// for commands that page through the log (log, log-monitor).
func (r *Ring) Cursor() (in, out, capacity int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.headIn, r.headOut, r.capacity
}

// Info renders the same diagnostic fields as
// original_source/src/log.c's command_info_log.
func (r *Ring) Info() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("logging\n  magic word: %08x\n  random salt: %08x\n  magic word salted: %08x\n  entries: %d\n  last entry added: %d\n  last entry viewed: %d",
		r.magicWord, r.randomSalt, r.magicXorSalt, r.capacity, r.headIn, r.headOut)
}

// SeekOut moves the read cursor to an explicit position, as the
// `log <start>` command does in original_source/src/log.c.
func (r *Ring) SeekOut(pos uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.headOut = int(pos) % r.capacity
}
