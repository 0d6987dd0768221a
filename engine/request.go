package engine

import (
	"errors"

	"golang.org/x/sys/unix"
)

var (
	ErrSeek     = errors.New("engine seek failed")
	ErrTransfer = errors.New("engine transfer failed")
)

type Direction uint8

const (
	DirRead Direction = iota
	DirWrite
	DirSync
)

func (d Direction) String() string {
	switch d {
	case DirRead:
		return "read"
	case DirWrite:
		return "write"
	case DirSync:
		return "sync"
	}
	return "unknown"
}

// Request is owned by the caller. Engines only touch the completion
// fields, which are reachable through Err, Resid and Transferred.
type Request struct {
	Dir  Direction
	File *File
	Off  uint64
	Buf  []byte

	// opaque to the engines
	Private any

	resid int
	cause error
	err   error
}

func NewRequest(dir Direction, f *File, off uint64, buf []byte) *Request {
	return &Request{
		Dir:  dir,
		File: f,
		Off:  off,
		Buf:  buf,
	}
}

// Reset reuses the request for another transfer and clears the completion.
func (r *Request) Reset(dir Direction, f *File, off uint64, buf []byte) {
	r.Dir = dir
	r.File = f
	r.Off = off
	r.Buf = buf
	r.resid = 0
	r.cause = nil
	r.err = nil
}

func (r *Request) Err() error {
	if r.cause == nil {
		return nil
	}
	return errors.Join(r.cause, r.err)
}

// Errno returns the captured errno, zero when the request did not fail
// or the failure did not carry one.
func (r *Request) Errno() unix.Errno {
	var errno unix.Errno
	if r.err != nil && errors.As(r.err, &errno) {
		return errno
	}
	return 0
}

// the residual is meaningless once the request failed
func (r *Request) Resid() int {
	if r.cause != nil {
		return 0
	}
	return r.resid
}

func (r *Request) Transferred() int {
	if r.cause != nil {
		return 0
	}
	return len(r.Buf) - r.resid
}

func (r *Request) complete(n int) {
	r.cause = nil
	r.err = nil
	r.resid = len(r.Buf) - n
}

func (r *Request) fail(cause, err error) {
	r.cause = cause
	r.err = err
	r.resid = 0
}
