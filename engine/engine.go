package engine

import (
	"errors"

	"github.com/rs/zerolog"
)

var (
	ErrReadOnly      = errors.New("write on read-only engine")
	ErrBatchPending  = errors.New("batch still pending")
	ErrUnknownEngine = errors.New("unknown engine")
	ErrEngineExists  = errors.New("engine already registered")
)

type Status int

const (
	// the request finished inside Queue, its completion fields are final
	StatusCompleted Status = iota + 1

	// the request is held until the next Commit
	StatusQueued

	// the request was not taken. commit what is pending, then offer it again
	StatusBusy
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusQueued:
		return "queued"
	case StatusBusy:
		return "busy"
	}
	return "invalid"
}

// Engine is not thread safe. One instance serves one queue.
type Engine interface {
	Name() string

	// Prep positions the file for req. A failure is recorded on req and
	// returned, req must then be treated as completed.
	Prep(req *Request) error

	// Queue returns an error only for configuration faults such as a
	// write in read-only mode. Transfer faults land on the request.
	Queue(req *Request) (Status, error)

	// Commit issues whatever Queue deferred and returns how many requests
	// it completed. (0, nil) means nothing was pending.
	Commit() (int, error)

	Close() error
}

// Reaper is implemented by engines that complete requests in Commit
// rather than in Queue.
type Reaper interface {
	GetEvents(min, max int) int
	Event(idx int) *Request
}

type Options struct {
	// upper bound of requests held in one batch
	Depth int

	// writes are rejected before reaching the file
	ReadOnly bool

	Logger *zerolog.Logger
}

func (opts *Options) Init() {
	if opts.Depth <= 0 {
		opts.Depth = 1
	}

	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
}

// base carries what the three engines share: the read-only check and the
// mapping of a single transfer result onto its request.
type base struct {
	opts   Options
	logger *zerolog.Logger
}

func newBase(opts Options) base {
	opts.Init()
	return base{
		opts:   opts,
		logger: opts.Logger,
	}
}

func (b *base) roCheck(req *Request) error {
	if b.opts.ReadOnly && req.Dir == DirWrite {
		b.logger.Error().
			Str("file", req.File.Path).
			Uint64("off", req.Off).
			Msg("write rejected in read-only mode")
		return ErrReadOnly
	}
	return nil
}

func (b *base) end(req *Request, n int, err error) {
	if err != nil {
		req.fail(ErrTransfer, err)
		b.logger.Err(err).
			Str("dir", req.Dir.String()).
			Str("file", req.File.Path).
			Uint64("off", req.Off).
			Msg("failed to transfer")
		return
	}

	// n <= len(req.Buf) for read(2)/write(2) family
	req.complete(n)
}
