package vsyncio

import (
	"errors"

	"github.com/wenzhang-dev/vsyncio/engine"
)

var (
	ErrNoPath       = errors.New("target path is required")
	ErrInvalidRw    = errors.New("rw must be one of read, write, randread, randwrite")
	ErrInvalidBlock = errors.New("block size must be positive and no larger than size")
	ErrInvalidDepth = errors.New("depth must be positive")
)

type Options struct {
	// target file
	Path string

	// engine name as known by the registry
	Engine string

	// read, write, randread or randwrite
	Rw string

	BlockSize uint64
	Size      uint64
	Depth     int

	// issue a sync barrier after every N writes, 0 disables
	FsyncEvery uint64

	// writes carry a pattern derived from the offset, reads check it
	Verify bool
	Seed   uint32

	ReadOnly bool

	// hold an advisory lock on <path>.lock while the job runs
	Lock bool

	// empty LogDir logs to stderr
	LogDir        string
	LogFile       string
	LogMaxSize    uint64
	LogMaxBackups uint64
	LogLevel      string
}

func (opts *Options) Init() {
	if opts.Engine == "" {
		opts.Engine = DefaultEngine
	}

	if opts.Rw == "" {
		opts.Rw = DefaultRw
	}

	if opts.BlockSize == 0 {
		opts.BlockSize = DefaultBlockSize
	}

	if opts.Size == 0 {
		opts.Size = DefaultSize
	}

	if opts.Depth == 0 {
		opts.Depth = DefaultDepth
	}

	if opts.LogFile == "" {
		opts.LogFile = DefaultLogFile
	}

	if opts.LogMaxSize == 0 {
		opts.LogMaxSize = DefaultLogMaxSize
	}

	if opts.LogMaxBackups == 0 {
		opts.LogMaxBackups = DefaultLogMaxBackups
	}

	if opts.LogLevel == "" {
		opts.LogLevel = DefaultLogLevel
	}
}

func (opts *Options) Validate() error {
	if opts.Path == "" {
		return ErrNoPath
	}

	switch opts.Rw {
	case "read", "write", "randread", "randwrite":
	default:
		return ErrInvalidRw
	}

	if opts.BlockSize == 0 || opts.BlockSize > opts.Size {
		return ErrInvalidBlock
	}

	if opts.Depth <= 0 {
		return ErrInvalidDepth
	}

	return nil
}

func (opts *Options) Direction() engine.Direction {
	if opts.Rw == "write" || opts.Rw == "randwrite" {
		return engine.DirWrite
	}
	return engine.DirRead
}

func (opts *Options) Random() bool {
	return opts.Rw == "randread" || opts.Rw == "randwrite"
}

func (opts *Options) Blocks() uint64 {
	return opts.Size / opts.BlockSize
}
