package engine

import (
	"errors"
	"io"

	"golang.org/x/sys/unix"
)

// VsyncEngine merges contiguous requests and issues them as one
// readv(2)/writev(2) on Commit. Completions are handed out through the
// Reaper interface, a whole batch at a time.
type VsyncEngine struct {
	base

	acc *Accumulator

	// finished by Commit, not yet reported by GetEvents
	events []*Request

	// reported by the last GetEvents, addressed by Event
	reaped []*Request
}

func NewVsyncEngine(opts Options) (*VsyncEngine, error) {
	b := newBase(opts)
	return &VsyncEngine{
		base:   b,
		acc:    NewAccumulator(b.opts.Depth),
		events: make([]*Request, 0, b.opts.Depth),
		reaped: make([]*Request, 0, b.opts.Depth),
	}, nil
}

func (e *VsyncEngine) Name() string {
	return "vsync"
}

func (e *VsyncEngine) Prep(req *Request) error {
	return nil
}

func (e *VsyncEngine) Queue(req *Request) (Status, error) {
	if err := e.roCheck(req); err != nil {
		return 0, err
	}

	if !e.acc.Contiguous(req) {
		// commit the pending run first, then this one gets offered again
		if !e.acc.Empty() {
			e.logger.Debug().Int("queued", e.acc.Len()).Msg("vsync queue: no append")
			return StatusBusy, nil
		}

		if req.Dir == DirSync {
			err := unix.Fsync(req.File.Fd)
			e.end(req, 0, err)
			return StatusCompleted, nil
		}

		e.acc.Append(req)
		e.logger.Debug().Int("depth", e.acc.Len()).Msg("vsync queue: new batch")
		return StatusQueued, nil
	}

	if e.acc.Full() {
		e.logger.Debug().Int("depth", e.acc.Len()).Msg("vsync queue: max depth")
		return StatusBusy, nil
	}

	e.acc.Append(req)
	e.logger.Debug().Int("depth", e.acc.Len()).Msg("vsync queue: append")
	return StatusQueued, nil
}

func (e *VsyncEngine) Commit() (int, error) {
	if e.acc.Empty() {
		return 0, nil
	}

	f := e.acc.File()
	first := e.acc.At(0)
	count := e.acc.Len()

	err := e.transfer(f, first.Off)

	// the whole batch completes at once, whatever the outcome
	e.events = e.acc.Drain(e.events)
	return count, err
}

func (e *VsyncEngine) transfer(f *File, off uint64) error {
	if _, err := unix.Seek(f.Fd, int64(off), io.SeekStart); err != nil {
		e.acc.Fail(ErrSeek, err)
		e.logger.Err(err).Str("file", f.Path).Uint64("off", off).Msg("failed to seek")
		return errors.Join(ErrSeek, err)
	}

	var n int
	var err error
	if e.acc.Dir() == DirRead {
		n, err = unix.Readv(f.Fd, e.acc.Iovecs())
	} else {
		n, err = unix.Writev(f.Fd, e.acc.Iovecs())
	}

	e.logger.Debug().
		Int("res", n).
		Uint64("queued_bytes", e.acc.QueuedBytes()).
		Msg("vsync commit")

	if err != nil {
		e.acc.Fail(ErrTransfer, err)
		e.logger.Err(err).
			Str("dir", e.acc.Dir().String()).
			Str("file", f.Path).
			Uint64("off", off).
			Msg("failed to transfer vector")
		return errors.Join(ErrTransfer, err)
	}

	e.acc.Distribute(n)
	return nil
}

// GetEvents makes every completion produced since the previous call
// addressable by Event. A zero min is a non-blocking peek and reports
// nothing, the completions stay pending. max is not consulted since a
// batch never completes partially.
func (e *VsyncEngine) GetEvents(min, max int) int {
	if min <= 0 {
		return 0
	}

	for idx := range e.reaped {
		e.reaped[idx] = nil
	}
	e.reaped, e.events = e.events, e.reaped[:0]

	e.logger.Debug().Int("min", min).Int("max", max).Int("events", len(e.reaped)).Msg("vsync getevents")
	return len(e.reaped)
}

func (e *VsyncEngine) Event(idx int) *Request {
	if idx < 0 || idx >= len(e.reaped) {
		return nil
	}
	return e.reaped[idx]
}

// Accumulator exposes the held run, mostly for inspection.
func (e *VsyncEngine) Accumulator() *Accumulator {
	return e.acc
}

func (e *VsyncEngine) Close() error {
	if !e.acc.Empty() {
		e.logger.Warn().Int("queued", e.acc.Len()).Msg("vsync closed with a pending batch")
		return ErrBatchPending
	}

	e.events = nil
	e.reaped = nil
	return nil
}
