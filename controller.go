// Package esp32ctl is the command/control plane for a simulated
// embedded device: it multiplexes BLE, TCP, console, and script
// transports into one canonical command stream, dispatches typed
// commands, and hosts the OTA, filesystem, and logging subsystems
// those commands operate on.
package esp32ctl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eriksl/esp32ctl/internal/ctrl"
	"github.com/eriksl/esp32ctl/internal/interfaces"
	"github.com/eriksl/esp32ctl/internal/logging"
	"github.com/eriksl/esp32ctl/internal/queue"
	"github.com/eriksl/esp32ctl/internal/ramfs"
	"github.com/eriksl/esp32ctl/internal/transport"
)

// defaultOTAPartitionCapacity matches a typical ESP32 OTA partition
// size; callers with a different layout should set
// Options.OTAPartitionCapacity explicitly.
const defaultOTAPartitionCapacity = 4 << 20

// Options configures a Controller. The zero value is usable: a
// background context, the package's default logger, and a Metrics-
// backed observer are filled in by New.
type Options struct {
	// Context for cancellation (if nil, uses context.Background())
	Context context.Context

	// Logger receives dispatcher and pipeline diagnostics (if nil,
	// uses logging.Default())
	Logger interfaces.Logger

	// Observer receives ambient counters (if nil, uses a fresh
	// Metrics instance, retrievable via Controller.Metrics)
	Observer interfaces.Observer

	// OTAPartitionCapacity sizes the two simulated OTA partitions in
	// bytes (if zero, uses defaultOTAPartitionCapacity)
	OTAPartitionCapacity int64
}

// State represents the current lifecycle state of a Controller.
type State string

const (
	// StateCreated indicates the controller has been built but Start
	// has not been called.
	StateCreated State = "created"
	// StateRunning indicates the intake/send workers are live.
	StateRunning State = "running"
	// StateStopped indicates Stop has been called.
	StateStopped State = "stopped"
)

// Controller wires a command table (internal/ctrl) to the two-worker
// pipeline (internal/queue) and routes completed replies back out to
// whichever transport attached the inbound frame. One Controller
// instance models one simulated device.
type Controller struct {
	ctx    context.Context
	cancel context.CancelFunc

	dispatcher *ctrl.Dispatcher
	services   *ctrl.Services
	pipeline   *queue.Pipeline

	logger   interfaces.Logger
	metrics  *Metrics
	observer interfaces.Observer

	mu         sync.RWMutex
	transports map[string]interfaces.Transport
	started    bool
}

// New builds a Controller with a fully registered command table
// (spec §4.6) and a ready, but not yet started, pipeline. Call Attach
// for every transport that will feed it frames, then Start.
func New(options *Options) *Controller {
	if options == nil {
		options = &Options{}
	}

	ctx := options.Context
	if ctx == nil {
		ctx = context.Background()
	}

	logger := options.Logger
	if logger == nil {
		logger = logging.Default()
	}

	metrics := NewMetrics()
	var observer interfaces.Observer = metrics
	if options.Observer != nil {
		observer = options.Observer
	}

	capacity := options.OTAPartitionCapacity
	if capacity <= 0 {
		capacity = defaultOTAPartitionCapacity
	}

	dispatcher := ctrl.New(logger, observer)
	services := ctrl.NewServices(capacity)
	services.StartTime = time.Now().Unix()
	ctrl.RegisterAll(dispatcher, services)

	c := &Controller{
		dispatcher: dispatcher,
		services:   services,
		logger:     logger,
		metrics:    metrics,
		observer:   observer,
		transports: make(map[string]interfaces.Transport),
	}
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.pipeline = queue.New(c.ctx, queue.Config{
		Handler:  dispatcher.Handle,
		SendFunc: c.sendReply,
		Logger:   logger,
		Observer: observer,
	})

	// The script transport is library-level (spec §4.3): it is never
	// attached to an external socket, but it still routes replies
	// through Controller.sendReply like any other transport, so it is
	// registered the same way.
	persistent := ramfs.New()
	script := transport.NewScript(c, logger, observer, services.Ramfs, persistent)
	services.Script = script
	c.Attach(script)

	return c
}

// Attach registers a transport so replies addressed to it can be
// routed back out. Call before Start; attaching after Start is safe
// but races any frame already in flight from that transport.
func (c *Controller) Attach(t interfaces.Transport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transports[t.Name()] = t
}

// Start launches the intake and send workers (spec §4.9). Idempotent
// calls are not supported; call once per Controller.
func (c *Controller) Start() {
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
	c.pipeline.Start()
	c.logger.Printf("controller started")
}

// Stop cancels the pipeline and waits for both workers to drain their
// current iteration before returning.
func (c *Controller) Stop() {
	c.pipeline.Stop()
	c.cancel()
	c.mu.Lock()
	c.started = false
	c.mu.Unlock()
	c.logger.Printf("controller stopped")
}

// Submit hands one decoded inbound frame to the pipeline. Transports
// call this from their DeliverFrame implementation.
func (c *Controller) Submit(frame interfaces.InboundFrame) bool {
	return c.pipeline.Submit(frame)
}

func (c *Controller) sendReply(handle interfaces.ReplyHandle, data []byte) error {
	c.mu.RLock()
	t, ok := c.transports[handle.Transport()]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("esp32ctl: no transport attached for %q", handle.Transport())
	}
	return t.SendReply(handle, data)
}

// State reports the controller's current lifecycle state.
func (c *Controller) State() State {
	select {
	case <-c.ctx.Done():
		return StateStopped
	default:
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.started {
		return StateCreated
	}
	return StateRunning
}

// IsRunning returns true if the controller's workers are live.
func (c *Controller) IsRunning() bool {
	return c.State() == StateRunning
}

// Metrics returns the controller's built-in Metrics collector. If
// Options.Observer was set to something else, this still returns the
// unused Metrics instance (its counters stay at zero).
func (c *Controller) Metrics() *Metrics {
	return c.metrics
}

// MetricsSnapshot returns a point-in-time snapshot of the built-in
// Metrics collector.
func (c *Controller) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// Dispatcher exposes the underlying command dispatcher, e.g. for an
// in-process console transport that wants to call Handle directly
// without going through the pipeline.
func (c *Controller) Dispatcher() *ctrl.Dispatcher {
	return c.dispatcher
}

// Services exposes the shared OTA/filesystem/config/log collaborators
// the command table operates on, e.g. for tests that seed files or
// config entries before exercising a command.
func (c *Controller) Services() *ctrl.Services {
	return c.services
}
