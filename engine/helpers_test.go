package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func openTestFile(t *testing.T, name string, flags int, content []byte) *File {
	path := filepath.Join(t.TempDir(), name)
	require.Nil(t, os.WriteFile(path, content, 0o644))

	fd, err := unix.Open(path, flags, 0o644)
	require.Nil(t, err)
	t.Cleanup(func() {
		_ = unix.Close(fd)
	})

	return NewFile(fd, path)
}

func openPipe(t *testing.T) (*File, *File) {
	var p [2]int
	require.Nil(t, unix.Pipe(p[:]))
	t.Cleanup(func() {
		_ = unix.Close(p[0])
		_ = unix.Close(p[1])
	})

	return NewFile(p[0], "pipe-r"), NewFile(p[1], "pipe-w")
}

func cursor(t *testing.T, f *File) int64 {
	off, err := unix.Seek(f.Fd, 0, 1)
	require.Nil(t, err)
	return off
}

func readAll(t *testing.T, f *File) []byte {
	data, err := os.ReadFile(f.Path)
	require.Nil(t, err)
	return data
}

func filled(size int, b byte) []byte {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = b
	}
	return buf
}
