package vsyncio

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"time"

	"github.com/eapache/queue"
	"github.com/rs/zerolog"

	"github.com/wenzhang-dev/vsyncio/engine"
)

var (
	ErrJobIO     = errors.New("job i/o failed")
	ErrJobVerify = errors.New("job verify failed")
)

// slot is one request buffer of the job. Its request points back at it
// through Private.
type slot struct {
	req *engine.Request
	buf []byte
}

// Job drives one workload against one target through one engine. It
// plays the harness role: it preps, queues, commits on busy or when it
// runs out of buffers, reaps, and resubmits the remainder of short
// transfers. It's not thread safe.
type Job struct {
	opts *Options

	logger    *zerolog.Logger
	logCloser io.Closer

	eng    engine.Engine
	reaper engine.Reaper
	target *Target

	// idle slots
	free *queue.Queue

	// short transfers waiting to be offered again
	retries []*slot

	barrier *slot

	randor *rand.Rand
	dir    engine.Direction

	// blocks handed to the engine so far
	issued   uint64
	firstErr error

	stats Stats
}

func NewJob(opts *Options, registry *engine.Registry) (*Job, error) {
	opts.Init()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	runners := NewRunner()
	defer runners.Do()

	logger, logCloser, err := newLogger(opts)
	if err != nil {
		return nil, err
	}

	if logCloser != nil {
		runners.Post(func() {
			_ = logCloser.Close()
		})
	}

	logger.Info().Str("path", opts.Path).Msg("open target")
	target, err := OpenTarget(opts)
	if err != nil {
		logger.Err(err).Msg("failed to open target")
		return nil, err
	}

	runners.Post(func() {
		_ = target.Close()
	})

	logger.Info().Str("engine", opts.Engine).Int("depth", opts.Depth).Msg("init engine")
	eng, err := registry.New(opts.Engine, engine.Options{
		Depth:    opts.Depth,
		ReadOnly: opts.ReadOnly,
		Logger:   logger,
	})
	if err != nil {
		logger.Err(err).Msg("failed to init engine")
		return nil, err
	}

	job := &Job{
		opts:      opts,
		logger:    logger,
		logCloser: logCloser,
		eng:       eng,
		target:    target,
		free:      queue.New(),
		randor:    rand.New(rand.NewSource(int64(opts.Seed))),
		dir:       opts.Direction(),
		stats: Stats{
			Engine: eng.Name(),
			Rw:     opts.Rw,
			Depth:  opts.Depth,
		},
	}

	job.reaper, _ = eng.(engine.Reaper)

	for i := 0; i < opts.Depth; i++ {
		s := &slot{buf: make([]byte, opts.BlockSize)}
		s.req = engine.NewRequest(job.dir, target.File(), 0, s.buf)
		s.req.Private = s
		job.free.Add(s)
	}

	job.barrier = &slot{}
	job.barrier.req = engine.NewRequest(engine.DirSync, target.File(), 0, nil)
	job.barrier.req.Private = job.barrier

	// abort all functors
	runners.Rollback()

	return job, nil
}

// Run issues the whole workload. Cancellation is checked between
// requests, a transfer in progress always runs to its end.
func (j *Job) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()
	blocks := j.opts.Blocks()

	var err error
	for err == nil && j.firstErr == nil && (j.issued < blocks || len(j.retries) > 0) {
		if err = ctx.Err(); err != nil {
			break
		}

		if len(j.retries) > 0 {
			s := j.retries[0]
			j.retries = j.retries[1:]
			err = j.submit(s)
			continue
		}

		if j.free.Length() == 0 {
			// every slot is held by the engine
			err = j.flush()
			continue
		}

		s := j.free.Remove().(*slot)
		j.prepare(s)
		if err = j.submit(s); err == nil {
			err = j.maybeSync()
		}
	}

	if drainErr := j.drain(); err == nil {
		err = drainErr
	}

	j.stats.ElapsedNs = int64(time.Since(start))
	j.logger.Info().Str("stats", j.stats.String()).Msg("job done")

	if err != nil {
		return &j.stats, err
	}

	if j.firstErr != nil {
		return &j.stats, errors.Join(ErrJobIO, j.firstErr)
	}

	if j.stats.VerifyFailures > 0 {
		return &j.stats, ErrJobVerify
	}

	return &j.stats, nil
}

func (j *Job) nextOffset() uint64 {
	if j.opts.Random() {
		return uint64(j.randor.Int63n(int64(j.opts.Blocks()))) * j.opts.BlockSize
	}
	return j.issued * j.opts.BlockSize
}

func (j *Job) prepare(s *slot) {
	off := j.nextOffset()
	if j.dir == engine.DirWrite {
		FillPattern(s.buf, off, j.opts.Seed)
	}

	s.req.Reset(j.dir, j.target.File(), off, s.buf)
	j.issued++
}

func (j *Job) maybeSync() error {
	if j.dir != engine.DirWrite || j.opts.FsyncEvery == 0 {
		return nil
	}

	if j.issued%j.opts.FsyncEvery != 0 {
		return nil
	}

	j.barrier.req.Reset(engine.DirSync, j.target.File(), 0, nil)
	return j.submit(j.barrier)
}

func (j *Job) submit(s *slot) error {
	req := s.req

	if err := j.eng.Prep(req); err != nil {
		j.complete(req)
		return nil
	}

	for {
		status, err := j.eng.Queue(req)
		if err != nil {
			j.logger.Err(err).Uint64("off", req.Off).Msg("request rejected")
			return err
		}

		switch status {
		case engine.StatusCompleted:
			j.complete(req)
			return nil
		case engine.StatusQueued:
			return nil
		case engine.StatusBusy:
			j.stats.Busy++
			if err = j.flush(); err != nil {
				return err
			}
		}
	}
}

// flush commits whatever the engine holds and reaps the completions.
// Per-request failures are picked up by complete, the commit error
// itself is only logged.
func (j *Job) flush() error {
	n, err := j.eng.Commit()
	if n == 0 && err == nil {
		return nil
	}

	j.stats.Commits++
	if err != nil {
		j.logger.Err(err).Int("requests", n).Msg("commit failed")
	}

	if j.reaper == nil {
		return nil
	}

	events := j.reaper.GetEvents(n, j.opts.Depth)
	for idx := 0; idx < events; idx++ {
		j.complete(j.reaper.Event(idx))
	}

	return nil
}

// drain commits until nothing is held and no remainder is left to send.
func (j *Job) drain() error {
	for {
		if err := j.flush(); err != nil {
			return err
		}

		if len(j.retries) == 0 || j.firstErr != nil {
			return nil
		}

		s := j.retries[0]
		j.retries = j.retries[1:]
		if err := j.submit(s); err != nil {
			return err
		}
	}
}

func (j *Job) complete(req *engine.Request) {
	s := req.Private.(*slot)
	req.File.Advance(req)

	if err := req.Err(); err != nil {
		j.stats.Errors++
		if j.firstErr == nil {
			j.firstErr = err
		}
		j.logger.Err(err).Str("dir", req.Dir.String()).Uint64("off", req.Off).Msg("request failed")
		j.release(s)
		return
	}

	if req.Dir == engine.DirSync {
		j.stats.Syncs++
		return
	}

	n := req.Transferred()
	j.stats.IOs++
	j.stats.Bytes += uint64(n)

	if j.opts.Verify && req.Dir == engine.DirRead && n > 0 {
		if idx := VerifyPattern(req.Buf[:n], req.Off, j.opts.Seed); idx >= 0 {
			j.stats.VerifyFailures++
			j.logger.Error().Uint64("off", req.Off+uint64(idx)).Msg("verify mismatch")
		}
	}

	if req.Resid() == 0 {
		j.release(s)
		return
	}

	j.stats.Shorts++

	// nothing moved, the target ends here
	if n == 0 {
		j.logger.Warn().Uint64("off", req.Off).Int("resid", req.Resid()).Msg("transfer hit end of file")
		j.release(s)
		return
	}

	j.stats.Resubmits++
	req.Reset(req.Dir, req.File, req.Off+uint64(n), req.Buf[n:])
	j.retries = append(j.retries, s)
}

func (j *Job) release(s *slot) {
	if s == j.barrier {
		return
	}
	j.free.Add(s)
}

func (j *Job) Stats() Stats {
	return j.stats
}

func (j *Job) Close() error {
	err := j.eng.Close()
	err = errors.Join(err, j.target.Close())
	if j.logCloser != nil {
		err = errors.Join(err, j.logCloser.Close())
	}
	return err
}
