package vsyncio

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

type Stats struct {
	Engine string `msgpack:"engine"`
	Rw     string `msgpack:"rw"`
	Depth  int    `msgpack:"depth"`

	// completions, short ones included
	IOs   uint64 `msgpack:"ios"`
	Bytes uint64 `msgpack:"bytes"`

	Shorts    uint64 `msgpack:"shorts"`
	Resubmits uint64 `msgpack:"resubmits"`
	Errors    uint64 `msgpack:"errors"`

	Commits uint64 `msgpack:"commits"`
	Busy    uint64 `msgpack:"busy"`
	Syncs   uint64 `msgpack:"syncs"`

	VerifyFailures uint64 `msgpack:"verify_failures"`

	ElapsedNs int64 `msgpack:"elapsed_ns"`
}

func (s *Stats) Elapsed() time.Duration {
	return time.Duration(s.ElapsedNs)
}

// Bandwidth in bytes per second.
func (s *Stats) Bandwidth() float64 {
	if s.ElapsedNs <= 0 {
		return 0
	}
	return float64(s.Bytes) / s.Elapsed().Seconds()
}

func (s *Stats) MarshalReport() ([]byte, error) {
	return msgpack.Marshal(s)
}

func UnmarshalReport(data []byte) (*Stats, error) {
	var s Stats
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Stats) String() string {
	return fmt.Sprintf(
		"%s %s depth=%d: ios=%d bytes=%d bw=%.1fKiB/s short=%d resubmit=%d err=%d commits=%d busy=%d syncs=%d verify_fail=%d elapsed=%s",
		s.Engine, s.Rw, s.Depth, s.IOs, s.Bytes, s.Bandwidth()/1024,
		s.Shorts, s.Resubmits, s.Errors, s.Commits, s.Busy, s.Syncs,
		s.VerifyFailures, s.Elapsed(),
	)
}
