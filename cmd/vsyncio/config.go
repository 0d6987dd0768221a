package main

import (
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/wenzhang-dev/vsyncio"
)

// FileConfig is the TOML form of a job.
type FileConfig struct {
	Filename   string `toml:"filename"`
	Engine     string `toml:"ioengine"`
	Rw         string `toml:"rw"`
	BlockSize  uint64 `toml:"bs"`
	Size       uint64 `toml:"size"`
	Depth      int    `toml:"iodepth"`
	FsyncEvery uint64 `toml:"fsync"`
	Verify     *bool  `toml:"verify"`
	Seed       uint32 `toml:"seed"`
	ReadOnly   *bool  `toml:"readonly"`
	Lock       *bool  `toml:"lock"`
	LogDir     string `toml:"log_dir"`
	LogLevel   string `toml:"log_level"`
	Report     string `toml:"report"`
}

func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// ApplyFileConfig copies file values into opts unless the matching flag
// was set on the command line.
func ApplyFileConfig(opts *vsyncio.Options, report *string, fc FileConfig, changed map[string]bool) {
	s := configSetter{changed: changed}

	s.setString("filename", fc.Filename, &opts.Path)
	s.setString("ioengine", fc.Engine, &opts.Engine)
	s.setString("rw", fc.Rw, &opts.Rw)
	s.setString("log-dir", fc.LogDir, &opts.LogDir)
	s.setString("log-level", fc.LogLevel, &opts.LogLevel)
	s.setString("report", fc.Report, report)

	s.setUint64("bs", fc.BlockSize, &opts.BlockSize)
	s.setUint64("size", fc.Size, &opts.Size)
	s.setUint64("fsync", fc.FsyncEvery, &opts.FsyncEvery)

	if fc.Depth > 0 && !changed["iodepth"] {
		opts.Depth = fc.Depth
	}
	if fc.Seed != 0 && !changed["seed"] {
		opts.Seed = fc.Seed
	}

	s.setBool("verify", fc.Verify, &opts.Verify)
	s.setBool("readonly", fc.ReadOnly, &opts.ReadOnly)
	s.setBool("lock", fc.Lock, &opts.Lock)
}

// configSetter applies a value only when its flag was left alone.
type configSetter struct {
	changed map[string]bool
}

func (s configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s configSetter) setUint64(flag string, value uint64, dst *uint64) {
	if value == 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}
