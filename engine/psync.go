package engine

import (
	"golang.org/x/sys/unix"
)

// PsyncEngine transfers with pread(2)/pwrite(2). The offset travels with
// each call, the cursor is never consulted.
type PsyncEngine struct {
	base
}

func NewPsyncEngine(opts Options) (*PsyncEngine, error) {
	return &PsyncEngine{base: newBase(opts)}, nil
}

func (e *PsyncEngine) Name() string {
	return "psync"
}

func (e *PsyncEngine) Prep(req *Request) error {
	return nil
}

func (e *PsyncEngine) Queue(req *Request) (Status, error) {
	if err := e.roCheck(req); err != nil {
		return 0, err
	}

	var n int
	var err error

	switch req.Dir {
	case DirRead:
		n, err = unix.Pread(req.File.Fd, req.Buf, int64(req.Off))
	case DirWrite:
		n, err = unix.Pwrite(req.File.Fd, req.Buf, int64(req.Off))
	default:
		err = unix.Fsync(req.File.Fd)
	}

	e.end(req, n, err)
	return StatusCompleted, nil
}

func (e *PsyncEngine) Commit() (int, error) {
	return 0, nil
}

func (e *PsyncEngine) Close() error {
	return nil
}
