// Package dispatch accepts I/O requests from any number of goroutines, orders
// them with a pluggable scheduler and runs them one at a time against a sector
// transferer on a single worker goroutine.
package dispatch

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-ebd/internal/interfaces"
	"github.com/deploymenttheory/go-ebd/internal/types"
)

// Options configures a Dispatcher
type Options struct {
	// QueueDepth bounds the intake queue. Zero selects types.DefaultQueueDepth.
	QueueDepth int

	// Scheduler orders queued requests. Nil selects FIFO.
	Scheduler Scheduler

	Logger *logrus.Entry
}

// Dispatcher is the request intake and completion path of a device
type Dispatcher struct {
	engine interfaces.SectorTransferer
	sched  Scheduler
	depth  int
	log    *logrus.Entry

	// mu guards closed and sends on intake
	mu     sync.RWMutex
	closed bool
	intake chan *Request

	// deviceMu serializes every access to the backing store
	deviceMu sync.Mutex

	seq       atomic.Uint64
	stats     *statistics
	closeOnce sync.Once
	done      chan struct{}
}

// New starts a dispatcher worker for the given engine
func New(engine interfaces.SectorTransferer, opts Options) (*Dispatcher, error) {
	if engine == nil {
		return nil, errors.Wrap(types.ErrInvalidConfig, "sector transferer is required")
	}
	if opts.QueueDepth < 0 {
		return nil, errors.Wrapf(types.ErrInvalidConfig, "queue depth %d must not be negative", opts.QueueDepth)
	}

	depth := opts.QueueDepth
	if depth == 0 {
		depth = types.DefaultQueueDepth
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = NewFIFOScheduler()
	}
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	d := &Dispatcher{
		engine: engine,
		sched:  sched,
		depth:  depth,
		log:    log.WithField("scheduler", sched.Name()),
		intake: make(chan *Request, depth),
		stats:  newStatistics(),
		done:   make(chan struct{}),
	}

	go d.run()

	return d, nil
}

// Submit queues a request and blocks until it completes. ctx only bounds the
// wait for a queue slot: once a request is queued it always runs to completion.
func (d *Dispatcher) Submit(ctx context.Context, r *Request) Completion {
	if r == nil {
		return d.reject(nil, errors.Wrap(types.ErrInvalidRequest, "nil request"))
	}
	if !r.state.CompareAndSwap(uint32(StateNew), uint32(StateQueued)) {
		return Completion{
			Status: types.StatusInvalidRequest,
			Err:    errors.Wrapf(types.ErrInvalidRequest, "request already submitted (%s)", r.State()),
		}
	}
	if err := ctx.Err(); err != nil {
		return d.reject(r, err)
	}

	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return d.reject(r, types.ErrDeviceClosed)
	}

	r.enqueue(d.seq.Add(1))
	d.stats.recordSubmit()

	select {
	case d.intake <- r:
		d.mu.RUnlock()
	case <-ctx.Done():
		d.mu.RUnlock()
		return d.cancel(r, ctx.Err())
	}

	d.log.WithField("request", r.String()).Trace("Request queued")

	return <-r.done
}

// reject completes a request that never reached the queue
func (d *Dispatcher) reject(r *Request, err error) Completion {
	d.stats.recordSubmit()
	return d.cancel(r, err)
}

// cancel completes a request that was counted as submitted but never queued
func (d *Dispatcher) cancel(r *Request, err error) Completion {
	c := Completion{Status: types.StatusFromError(err), Err: err}
	if r != nil {
		r.state.Store(uint32(StateCompletedError))
	}
	d.stats.recordCompletion(r, c.Status, 0)
	return c
}

// run is the worker loop. It exits once intake is closed and every queued
// request has been completed.
func (d *Dispatcher) run() {
	defer close(d.done)

	intake := d.intake
	for {
		if d.sched.Len() == 0 {
			if intake == nil {
				return
			}
			r, ok := <-intake
			if !ok {
				return
			}
			d.sched.Add(r)
		}

	drain:
		for intake != nil && d.sched.Len() < d.depth {
			select {
			case r, ok := <-intake:
				if !ok {
					intake = nil
					break drain
				}
				d.sched.Add(r)
			default:
				break drain
			}
		}

		d.stats.recordDepth(d.sched.Len())
		d.process(d.sched.Next())
	}
}

// process runs one request under the device lock and completes it
func (d *Dispatcher) process(r *Request) {
	r.begin()

	var err error
	d.deviceMu.Lock()
	if r.Op.IsData() {
		dir, _ := r.Op.Direction()
		err = d.engine.Transfer(r.Sector, r.Count, r.Buffer, dir)
	} else {
		err = errors.Wrapf(types.ErrNotSupported, "%s requests are not supported", r.Op)
	}
	d.deviceMu.Unlock()

	status := types.StatusFromError(err)
	var bytes uint64
	if status.OK() {
		bytes = uint64(r.Count) * uint64(d.engine.SectorSize())
	}
	d.stats.recordCompletion(r, status, bytes)

	entry := d.log.WithFields(logrus.Fields{
		"op":     r.Op.String(),
		"sector": r.Sector,
		"count":  r.Count,
		"status": status.String(),
	})
	if err != nil {
		entry.WithError(err).Debug("Request failed")
	} else {
		entry.Debug("Request completed")
	}

	r.complete(Completion{Status: status, Err: err})
}

// WithDeviceLock runs fn while holding the device lock
func (d *Dispatcher) WithDeviceLock(fn func()) {
	d.deviceMu.Lock()
	defer d.deviceMu.Unlock()
	fn()
}

// Stats returns a snapshot of the dispatcher counters
func (d *Dispatcher) Stats() StatsSnapshot {
	return d.stats.snapshot()
}

// Scheduler returns the active scheduling policy name
func (d *Dispatcher) Scheduler() string {
	return d.sched.Name()
}

// QueueDepth returns the intake bound
func (d *Dispatcher) QueueDepth() int {
	return d.depth
}

// Closed reports whether Close has been called
func (d *Dispatcher) Closed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closed
}

// Close stops accepting requests, completes every queued request and waits for
// the worker to exit. It is safe to call more than once.
func (d *Dispatcher) Close() error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.intake)
		d.mu.Unlock()

		<-d.done
		d.log.Debug("Dispatcher stopped")
	})
	return nil
}
