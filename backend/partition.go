// Package backend provides the byte-addressable store backing OTA
// partitions: sharded in-memory storage adapted from a RAM-backed
// block device into a pair of append-oriented firmware slots.
package backend

import (
	"fmt"
	"sync"

	"github.com/eriksl/esp32ctl/internal/interfaces"
)

// ShardSize is the size of each memory shard (64KB), kept from the
// sharded-locking idiom this store is grounded on: wide enough that a
// single OTA image touches few shards, narrow enough that staging and
// readback of different partitions never contend.
const ShardSize = 64 * 1024

// Partition is a fixed-capacity byte store for one OTA slot. Unlike a
// generic block device it grows write-by-write during staging
// (spec §4.7's Staging state appends) and is reset wholesale between
// OTA sessions.
type Partition struct {
	mu     sync.Mutex
	data   []byte
	cap    int64
	shards []sync.RWMutex
}

// NewPartition creates an empty partition with the given maximum capacity.
func NewPartition(capacity int64) *Partition {
	numShards := (capacity + ShardSize - 1) / ShardSize
	if numShards < 1 {
		numShards = 1
	}
	return &Partition{
		cap:    capacity,
		shards: make([]sync.RWMutex, numShards),
	}
}

func (p *Partition) shardRange(off, length int64) (start, end int) {
	if length <= 0 {
		return 0, -1
	}
	start = int(off / ShardSize)
	end = int((off + length - 1) / ShardSize)
	if end >= len(p.shards) {
		end = len(p.shards) - 1
	}
	return start, end
}

// ReadAt implements interfaces.Backend.
func (p *Partition) ReadAt(buf []byte, off int64) (int, error) {
	p.mu.Lock()
	size := int64(len(p.data))
	p.mu.Unlock()

	if off >= size {
		return 0, nil
	}
	available := size - off
	if int64(len(buf)) > available {
		buf = buf[:available]
	}

	start, end := p.shardRange(off, int64(len(buf)))
	for i := start; i <= end; i++ {
		p.shards[i].RLock()
	}
	n := copy(buf, p.data[off:off+int64(len(buf))])
	for i := start; i <= end; i++ {
		p.shards[i].RUnlock()
	}
	return n, nil
}

// WriteAt implements interfaces.Backend. A partition grows on demand
// up to its capacity; writes past capacity fail (spec §4.7's
// `write` contract is enforced one layer up by OtaEngine, this just
// refuses to silently truncate).
func (p *Partition) WriteAt(buf []byte, off int64) (int, error) {
	if off+int64(len(buf)) > p.cap {
		return 0, fmt.Errorf("write exceeds partition capacity")
	}

	p.mu.Lock()
	if need := off + int64(len(buf)); need > int64(len(p.data)) {
		grown := make([]byte, need)
		copy(grown, p.data)
		p.data = grown
	}
	p.mu.Unlock()

	start, end := p.shardRange(off, int64(len(buf)))
	for i := start; i <= end; i++ {
		p.shards[i].Lock()
	}
	n := copy(p.data[off:off+int64(len(buf))], buf)
	for i := start; i <= end; i++ {
		p.shards[i].Unlock()
	}
	return n, nil
}

// Size implements interfaces.Backend.
func (p *Partition) Size() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int64(len(p.data))
}

// Close implements interfaces.Backend; a partition has no external
// handle to release, so Close only drops the backing slice.
func (p *Partition) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = nil
	return nil
}

// Flush implements interfaces.Backend; in-memory storage has nothing to sync.
func (p *Partition) Flush() error {
	return nil
}

// Reset empties the partition's contents, used when OtaEngine aborts
// a Staging session or starts a fresh one over a previous attempt.
func (p *Partition) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = nil
}

var _ interfaces.Backend = (*Partition)(nil)
