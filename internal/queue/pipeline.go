// Package queue implements the two-worker pipeline that carries
// decoded frames from every transport to the dispatcher and routes
// replies back out (spec §4.9), replacing the teacher's io_uring
// per-queue Runner with the bounded-channel producer/consumer pair
// the spec actually calls for: there is no block device here, no
// tags, no kernel-owned descriptor ring, so the entire uring/mmap
// machinery has no analogue and is discarded rather than adapted.
package queue

import (
	"context"
	"sync"

	"github.com/eriksl/esp32ctl/internal/constants"
	"github.com/eriksl/esp32ctl/internal/interfaces"
)

// Handler dispatches one decoded inbound frame to the command table
// and returns the encapsulated reply bytes ready to hand back to the
// originating transport.
type Handler func(frame interfaces.InboundFrame) []byte

// sendJob pairs an encapsulated reply with the reply handle the
// owning transport attached to the inbound frame.
type sendJob struct {
	handle interfaces.ReplyHandle
	data   []byte
}

// Pipeline is the intake/send worker pair (spec §4.9). Exactly one
// intake worker and one send worker run for the process lifetime;
// every transport shares the same receive queue, which is what gives
// the spec's cross-transport FIFO ordering guarantee (§5) for free —
// a single goroutine draining a single channel cannot reorder what it
// reads.
type Pipeline struct {
	receive chan interfaces.InboundFrame
	send    chan sendJob

	handler  Handler
	sendFunc func(handle interfaces.ReplyHandle, data []byte) error
	logger   interfaces.Logger
	observer interfaces.Observer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Config wires a Pipeline to its collaborators. SendFunc is called by
// the send worker for every completed reply; Handler is called by the
// intake worker for every received frame. Both run on their own
// goroutine and must not block indefinitely.
type Config struct {
	Handler  Handler
	SendFunc func(handle interfaces.ReplyHandle, data []byte) error
	Logger   interfaces.Logger
	Observer interfaces.Observer
}

// New creates a Pipeline with the spec's fixed queue depth
// (constants.QueueCapacity, 8 messages) on both the receive and send
// queues. Overflow blocks the producer, which is the spec's stated
// backpressure policy and comes for free from a buffered channel —
// no slot-tracking is needed the way the teacher's ring-based queue
// needed it.
func New(ctx context.Context, cfg Config) *Pipeline {
	pctx, cancel := context.WithCancel(ctx)
	return &Pipeline{
		receive:  make(chan interfaces.InboundFrame, constants.QueueCapacity),
		send:     make(chan sendJob, constants.QueueCapacity),
		handler:  cfg.Handler,
		sendFunc: cfg.SendFunc,
		logger:   cfg.Logger,
		observer: cfg.Observer,
		ctx:      pctx,
		cancel:   cancel,
	}
}

// Start launches the intake and send workers.
func (p *Pipeline) Start() {
	p.wg.Add(2)
	go p.intakeWorker()
	go p.sendWorker()
}

// Stop cancels both workers and waits for them to drain their
// current iteration before returning.
func (p *Pipeline) Stop() {
	p.cancel()
	p.wg.Wait()
}

// Submit hands one decoded frame to the intake queue. It blocks if
// the queue is full (spec §4.9's stated backpressure) and returns
// false without enqueuing if the pipeline has been stopped.
func (p *Pipeline) Submit(frame interfaces.InboundFrame) bool {
	select {
	case p.receive <- frame:
		return true
	case <-p.ctx.Done():
		return false
	}
}

func (p *Pipeline) intakeWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case frame := <-p.receive:
			p.handleFrame(frame)
		}
	}
}

// handleFrame recovers from a handler panic, logs a final entry, and
// re-panics (spec §7: panics emit a final log entry before the
// process aborts; this worker does not itself decide to survive a
// handler panic, it only makes sure the panic is observed first).
func (p *Pipeline) handleFrame(frame interfaces.InboundFrame) {
	defer func() {
		if r := recover(); r != nil {
			if p.logger != nil {
				p.logger.Printf("intake worker: handler panicked on frame from %s: %v", frame.Source, r)
			}
			panic(r)
		}
	}()

	reply := p.handler(frame)

	select {
	case p.send <- sendJob{handle: frame.Reply, data: reply}:
	case <-p.ctx.Done():
	}
}

func (p *Pipeline) sendWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job := <-p.send:
			if err := p.sendFunc(job.handle, job.data); err != nil && p.logger != nil {
				p.logger.Printf("send worker: reply to %s failed: %v", job.handle.Transport(), err)
			}
		}
	}
}
