package vsyncio

import (
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger writes to a rotated file under opts.LogDir, or to stderr. The
// returned closer is nil for stderr.
func newLogger(opts *Options) (*zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = os.Stderr
	var closer io.Closer

	if opts.LogDir != "" {
		file := &lumberjack.Logger{
			Filename:   filepath.Join(opts.LogDir, opts.LogFile),
			MaxSize:    int(opts.LogMaxSize),
			MaxBackups: int(opts.LogMaxBackups),
			Compress:   false,
		}
		out = file
		closer = file
	}

	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return filepath.Base(file) + ":" + strconv.Itoa(line)
	}

	w := zerolog.ConsoleWriter{
		NoColor:    true,
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
	}

	logger := zerolog.New(w).With().Timestamp().Caller().Logger().Level(level)
	return &logger, closer, nil
}
