package vsyncio

import (
	"errors"
	"os"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"github.com/wenzhang-dev/vsyncio/engine"
)

var ErrLockTarget = errors.New("lock target file")

// Target owns the open descriptor behind an engine.File, plus the
// advisory lock that keeps other processes off its cursor.
type Target struct {
	fp   *os.File
	lock *flock.Flock
	file *engine.File
}

func OpenTarget(opts *Options) (*Target, error) {
	runners := NewRunner()
	defer runners.Do()

	var lock *flock.Flock
	if opts.Lock {
		lock = flock.New(LockPath(opts.Path))
		hold, err := lock.TryLock()
		if err != nil || !hold {
			return nil, errors.Join(ErrLockTarget, err)
		}

		runners.Post(func() {
			_ = lock.Unlock()
		})
	}

	flag := os.O_RDWR | os.O_CREATE
	if opts.ReadOnly {
		flag = os.O_RDONLY
	}

	fp, err := os.OpenFile(opts.Path, flag, 0o644)
	if err != nil {
		return nil, err
	}

	runners.Post(func() {
		fp.Close()
	})

	fd := int(fp.Fd())

	// lay the file out so reads have something to hit
	if !opts.ReadOnly {
		stat, err := fp.Stat()
		if err != nil {
			return nil, err
		}

		if uint64(stat.Size()) < opts.Size {
			if err = unix.Ftruncate(fd, int64(opts.Size)); err != nil {
				return nil, err
			}
		}
	}

	target := &Target{
		fp:   fp,
		lock: lock,
		file: engine.NewFile(fd, opts.Path),
	}

	// abort all functors
	runners.Rollback()

	return target, nil
}

func (t *Target) File() *engine.File {
	return t.file
}

func (t *Target) Size() (uint64, error) {
	stat, err := t.fp.Stat()
	if err != nil {
		return 0, err
	}
	return uint64(stat.Size()), nil
}

func (t *Target) Close() error {
	err := t.fp.Close()
	if t.lock != nil {
		err = errors.Join(err, t.lock.Unlock())
	}
	return err
}
