package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestSync_PrepSkipsWhenCursorMatches(t *testing.T) {
	f := openTestFile(t, "sync_prep", unix.O_RDWR, make([]byte, 64))
	e, err := NewSyncEngine(Options{})
	require.Nil(t, err)

	// prep trusts LastPos and leaves the real cursor alone
	_, err = unix.Seek(f.Fd, 7, 0)
	require.Nil(t, err)
	f.LastPos = 32

	assert.Nil(t, e.Prep(NewRequest(DirRead, f, 32, make([]byte, 8))))
	assert.Equal(t, int64(7), cursor(t, f))

	assert.Nil(t, e.Prep(NewRequest(DirSync, f, 0, nil)))
	assert.Equal(t, int64(7), cursor(t, f))

	assert.Nil(t, e.Prep(NewRequest(DirRead, f, 16, make([]byte, 8))))
	assert.Equal(t, int64(16), cursor(t, f))
}

func TestSync_PrepFailure(t *testing.T) {
	r, _ := openPipe(t)
	e, err := NewSyncEngine(Options{})
	require.Nil(t, err)

	req := NewRequest(DirRead, r, 8, make([]byte, 8))
	err = e.Prep(req)
	assert.ErrorIs(t, err, ErrSeek)
	assert.ErrorIs(t, req.Err(), unix.ESPIPE)
}

func TestSync_SequentialTransfers(t *testing.T) {
	f := openTestFile(t, "sync_rw", unix.O_RDWR, nil)
	e, err := NewSyncEngine(Options{})
	require.Nil(t, err)

	for idx, b := range []byte("abcd") {
		req := NewRequest(DirWrite, f, uint64(idx*4), filled(4, b))
		require.Nil(t, e.Prep(req))
		assert.Equal(t, StatusCompleted, queue(t, e, req))
		assert.Nil(t, req.Err())
		f.Advance(req)
	}
	assert.Equal(t, uint64(16), f.LastPos)
	assert.Equal(t, "aaaabbbbccccdddd", string(readAll(t, f)))

	req := NewRequest(DirRead, f, 4, make([]byte, 8))
	require.Nil(t, e.Prep(req))
	assert.Equal(t, StatusCompleted, queue(t, e, req))
	assert.Equal(t, "bbbbcccc", string(req.Buf))

	barrier := NewRequest(DirSync, f, 0, nil)
	assert.Equal(t, StatusCompleted, queue(t, e, barrier))
	assert.Nil(t, barrier.Err())

	n, err := e.Commit()
	assert.Nil(t, err)
	assert.Equal(t, 0, n)
}

func TestSync_ShortRead(t *testing.T) {
	f := openTestFile(t, "sync_short", unix.O_RDONLY, filled(10, 'q'))
	e, err := NewSyncEngine(Options{})
	require.Nil(t, err)

	req := NewRequest(DirRead, f, 4, make([]byte, 16))
	require.Nil(t, e.Prep(req))
	assert.Equal(t, StatusCompleted, queue(t, e, req))
	assert.Nil(t, req.Err())
	assert.Equal(t, 10, req.Resid())
	assert.Equal(t, 6, req.Transferred())

	f.Advance(req)
	assert.Equal(t, uint64(10), f.LastPos)
}

func TestSync_TransferFailure(t *testing.T) {
	f := openTestFile(t, "sync_fail", unix.O_WRONLY, nil)
	e, err := NewSyncEngine(Options{})
	require.Nil(t, err)

	req := NewRequest(DirRead, f, 0, make([]byte, 16))
	assert.Equal(t, StatusCompleted, queue(t, e, req))
	assert.ErrorIs(t, req.Err(), ErrTransfer)
	assert.Equal(t, unix.EBADF, req.Errno())
	assert.Equal(t, 0, req.Transferred())

	f.Advance(req)
	assert.Equal(t, UnknownPos, f.LastPos)
}

func TestSync_ReadOnly(t *testing.T) {
	f := openTestFile(t, "sync_ro", unix.O_RDWR, nil)
	e, err := NewSyncEngine(Options{ReadOnly: true})
	require.Nil(t, err)

	_, err = e.Queue(NewRequest(DirWrite, f, 0, filled(4, 'w')))
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.Len(t, readAll(t, f), 0)
}
