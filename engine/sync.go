package engine

import (
	"io"

	"golang.org/x/sys/unix"
)

// SyncEngine transfers with read(2)/write(2) through the implicit file
// cursor, so every request that does not continue where the last one
// ended needs a lseek(2) first.
type SyncEngine struct {
	base
}

func NewSyncEngine(opts Options) (*SyncEngine, error) {
	return &SyncEngine{base: newBase(opts)}, nil
}

func (e *SyncEngine) Name() string {
	return "sync"
}

func (e *SyncEngine) Prep(req *Request) error {
	if req.Dir == DirSync {
		return nil
	}

	if req.Off == req.File.LastPos {
		return nil
	}

	if _, err := unix.Seek(req.File.Fd, int64(req.Off), io.SeekStart); err != nil {
		req.fail(ErrSeek, err)
		e.logger.Err(err).
			Str("file", req.File.Path).
			Uint64("off", req.Off).
			Msg("failed to seek")
		return req.Err()
	}

	return nil
}

func (e *SyncEngine) Queue(req *Request) (Status, error) {
	if err := e.roCheck(req); err != nil {
		return 0, err
	}

	var n int
	var err error

	switch req.Dir {
	case DirRead:
		n, err = unix.Read(req.File.Fd, req.Buf)
	case DirWrite:
		n, err = unix.Write(req.File.Fd, req.Buf)
	default:
		err = unix.Fsync(req.File.Fd)
	}

	e.end(req, n, err)
	return StatusCompleted, nil
}

func (e *SyncEngine) Commit() (int, error) {
	return 0, nil
}

func (e *SyncEngine) Close() error {
	return nil
}
