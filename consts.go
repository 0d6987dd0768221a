package vsyncio

const (
	DefaultEngine    = "psync"
	DefaultRw        = "read"
	DefaultBlockSize = 4 * 1024
	DefaultSize      = 1024 * 1024
	DefaultDepth     = 1

	DefaultLogFile       = "vsyncio.log"
	DefaultLogMaxSize    = 64 // MB
	DefaultLogMaxBackups = 4
	DefaultLogLevel      = "info"

	LockFileSuffix = ".lock"
)
