package vsyncio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenzhang-dev/vsyncio/engine"
)

func runJob(t *testing.T, opts *Options) (*Stats, error) {
	job, err := NewJob(opts, engine.NewRegistry())
	require.Nil(t, err)
	defer func() {
		assert.Nil(t, job.Close())
	}()

	return job.Run(context.Background())
}

func TestJob_WriteThenVerify(t *testing.T) {
	for _, name := range []string{"sync", "psync", "vsync"} {
		for _, rw := range [][2]string{{"write", "read"}, {"randwrite", "randread"}} {
			t.Run(name+"/"+rw[0], func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "job")
				base := Options{
					Path:       path,
					Engine:     name,
					BlockSize:  4096,
					Size:       64 * 1024,
					Depth:      4,
					FsyncEvery: 4,
					Verify:     true,
					Seed:       42,
					Lock:       true,
					LogLevel:   "error",
				}

				wopts := base
				wopts.Rw = rw[0]
				stats, err := runJob(t, &wopts)
				require.Nil(t, err)
				assert.Equal(t, uint64(16), stats.IOs)
				assert.Equal(t, uint64(64*1024), stats.Bytes)
				assert.Equal(t, uint64(0), stats.Errors)
				assert.Equal(t, uint64(4), stats.Syncs)
				assert.Equal(t, name, stats.Engine)

				// random writes may leave holes, so only sequential
				// writes are read back in full
				if rw[0] != "write" {
					return
				}

				ropts := base
				ropts.Rw = rw[1]
				ropts.ReadOnly = true
				stats, err = runJob(t, &ropts)
				require.Nil(t, err)
				assert.Equal(t, uint64(16), stats.IOs)
				assert.Equal(t, uint64(0), stats.VerifyFailures)
			})
		}
	}
}

func TestJob_VsyncBatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job_batch")
	stats, err := runJob(t, &Options{
		Path:      path,
		Engine:    "vsync",
		Rw:        "write",
		BlockSize: 1024,
		Size:      16 * 1024,
		Depth:     8,
		LogLevel:  "error",
	})
	require.Nil(t, err)

	// sixteen contiguous blocks, two full batches
	assert.Equal(t, uint64(2), stats.Commits)
	assert.Equal(t, uint64(16), stats.IOs)
	assert.Equal(t, uint64(0), stats.Busy)
}

func TestJob_VsyncBarrierForcesCommit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job_barrier")
	stats, err := runJob(t, &Options{
		Path:       path,
		Engine:     "vsync",
		Rw:         "write",
		BlockSize:  1024,
		Size:       8 * 1024,
		Depth:      8,
		FsyncEvery: 2,
		LogLevel:   "error",
	})
	require.Nil(t, err)

	// every barrier meets a pending pair and bounces once
	assert.Equal(t, uint64(4), stats.Syncs)
	assert.Equal(t, uint64(4), stats.Busy)
	assert.Equal(t, uint64(4), stats.Commits)
}

func TestJob_ShortTargetResubmits(t *testing.T) {
	for _, name := range []string{"sync", "psync", "vsync"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "job_short")
			require.Nil(t, os.WriteFile(path, make([]byte, 10000), 0o644))

			stats, err := runJob(t, &Options{
				Path:      path,
				Engine:    name,
				Rw:        "read",
				BlockSize: 4096,
				Size:      16384,
				Depth:     4,
				ReadOnly:  true,
				LogLevel:  "error",
			})
			require.Nil(t, err)

			// block 2 comes up 2288 short and is resubmitted, the
			// remainder and block 3 both hit the end of the file
			assert.Equal(t, uint64(10000), stats.Bytes)
			assert.Equal(t, uint64(5), stats.IOs)
			assert.Equal(t, uint64(3), stats.Shorts)
			assert.Equal(t, uint64(1), stats.Resubmits)
			assert.Equal(t, uint64(0), stats.Errors)
		})
	}
}

func TestJob_ReadOnlyRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job_ro")
	require.Nil(t, os.WriteFile(path, make([]byte, 8192), 0o644))

	_, err := runJob(t, &Options{
		Path:      path,
		Engine:    "vsync",
		Rw:        "write",
		BlockSize: 4096,
		Size:      8192,
		Depth:     2,
		ReadOnly:  true,
		LogLevel:  "error",
	})
	assert.ErrorIs(t, err, engine.ErrReadOnly)
}

func TestJob_Cancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job_cancel")
	job, err := NewJob(&Options{Path: path, Engine: "psync", LogLevel: "error"}, engine.NewRegistry())
	require.Nil(t, err)
	defer job.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := job.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(0), stats.IOs)
}

func TestJob_InvalidOptions(t *testing.T) {
	registry := engine.NewRegistry()
	dir := t.TempDir()

	tests := []struct {
		name string
		opts Options
		err  error
	}{
		{"no path", Options{}, ErrNoPath},
		{"bad rw", Options{Path: filepath.Join(dir, "a"), Rw: "trim"}, ErrInvalidRw},
		{"block too large", Options{Path: filepath.Join(dir, "b"), BlockSize: 8192, Size: 4096}, ErrInvalidBlock},
		{"bad depth", Options{Path: filepath.Join(dir, "c"), Depth: -1}, ErrInvalidDepth},
		{"unknown engine", Options{Path: filepath.Join(dir, "d"), Engine: "libaio", LogLevel: "error"}, engine.ErrUnknownEngine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			_, err := NewJob(&opts, registry)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
