package esp32ctl

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/eriksl/esp32ctl/internal/interfaces"
)

// Metrics tracks the ambient counters spec.md's ambient stack implies:
// per-transport frame-handling failures and per-command dispatch
// counts (SPEC_FULL.md §9). Counters are created lazily per key so an
// unused transport or command never shows up in a Snapshot.
type Metrics struct {
	mu sync.Mutex

	malformedFrames     map[string]*atomic.Uint64
	checksumFailures    map[string]*atomic.Uint64
	reassemblyTimeouts  map[string]*atomic.Uint64
	unauthorizedWrites  map[string]*atomic.Uint64
	commandOK           map[string]*atomic.Uint64
	commandErr          map[string]*atomic.Uint64

	StartTime atomic.Int64
}

// NewMetrics creates an empty counter set with the start time stamped now.
func NewMetrics() *Metrics {
	m := &Metrics{
		malformedFrames:    make(map[string]*atomic.Uint64),
		checksumFailures:   make(map[string]*atomic.Uint64),
		reassemblyTimeouts: make(map[string]*atomic.Uint64),
		unauthorizedWrites: make(map[string]*atomic.Uint64),
		commandOK:          make(map[string]*atomic.Uint64),
		commandErr:         make(map[string]*atomic.Uint64),
	}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

func counter(mu *sync.Mutex, set map[string]*atomic.Uint64, key string) *atomic.Uint64 {
	mu.Lock()
	defer mu.Unlock()
	c, ok := set[key]
	if !ok {
		c = &atomic.Uint64{}
		set[key] = c
	}
	return c
}

// ObserveMalformedFrame bumps the malformed-frame counter for source.
func (m *Metrics) ObserveMalformedFrame(source string) {
	counter(&m.mu, m.malformedFrames, source).Add(1)
}

// ObserveChecksumFailure bumps the checksum-mismatch counter for source.
func (m *Metrics) ObserveChecksumFailure(source string) {
	counter(&m.mu, m.checksumFailures, source).Add(1)
}

// ObserveReassemblyTimeout bumps the reassembler-timeout counter for source.
func (m *Metrics) ObserveReassemblyTimeout(source string) {
	counter(&m.mu, m.reassemblyTimeouts, source).Add(1)
}

// ObserveUnauthorizedWrite bumps the BLE-unauthorized-write counter.
func (m *Metrics) ObserveUnauthorizedWrite(source string) {
	counter(&m.mu, m.unauthorizedWrites, source).Add(1)
}

// ObserveCommand records one dispatch outcome for the named command.
func (m *Metrics) ObserveCommand(name string, ok bool) {
	if ok {
		counter(&m.mu, m.commandOK, name).Add(1)
		return
	}
	counter(&m.mu, m.commandErr, name).Add(1)
}

// CommandCounts reports the total successful and failed dispatches
// across every command name, for callers that only want the
// aggregate (e.g. the info-cli command's summary reply).
func (m *Metrics) CommandCounts() (ok, failed uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.commandOK {
		ok += c.Load()
	}
	for _, c := range m.commandErr {
		failed += c.Load()
	}
	return ok, failed
}

// MetricsSnapshot is a point-in-time copy of every counter, suitable
// for the info/info-cli command replies.
type MetricsSnapshot struct {
	MalformedFrames    map[string]uint64
	ChecksumFailures   map[string]uint64
	ReassemblyTimeouts map[string]uint64
	UnauthorizedWrites map[string]uint64
	CommandOK          map[string]uint64
	CommandErr         map[string]uint64
	UptimeNs           uint64
}

func snapshotSet(mu *sync.Mutex, set map[string]*atomic.Uint64) map[string]uint64 {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]uint64, len(set))
	for k, v := range set {
		out[k] = v.Load()
	}
	return out
}

// Snapshot copies every counter into a plain map-based view.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		MalformedFrames:    snapshotSet(&m.mu, m.malformedFrames),
		ChecksumFailures:   snapshotSet(&m.mu, m.checksumFailures),
		ReassemblyTimeouts: snapshotSet(&m.mu, m.reassemblyTimeouts),
		UnauthorizedWrites: snapshotSet(&m.mu, m.unauthorizedWrites),
		CommandOK:          snapshotSet(&m.mu, m.commandOK),
		CommandErr:         snapshotSet(&m.mu, m.commandErr),
		UptimeNs:           uint64(time.Now().UnixNano() - m.StartTime.Load()),
	}
}

// NoOpObserver discards every observation; used by tests that don't
// care about counters.
type NoOpObserver struct{}

func (NoOpObserver) ObserveMalformedFrame(string)    {}
func (NoOpObserver) ObserveChecksumFailure(string)   {}
func (NoOpObserver) ObserveReassemblyTimeout(string) {}
func (NoOpObserver) ObserveUnauthorizedWrite(string) {}
func (NoOpObserver) ObserveCommand(string, bool)     {}

var _ interfaces.Observer = (*Metrics)(nil)
var _ interfaces.Observer = NoOpObserver{}
