package vsyncio

import (
	"os"
)

func PathExists(path string) bool {
	_, err := os.Stat(path)
	if err != nil && os.IsNotExist(err) {
		return false
	}
	return true
}

func LockPath(path string) string {
	return path + LockFileSuffix
}

// Runners collects cleanups while a resource is being assembled. Do runs
// them unless Rollback was called, so the usual shape is:
//
//	runners := NewRunner()
//	defer runners.Do()
//	... runners.Post(cleanup) after every acquired piece ...
//	runners.Rollback() // success, keep everything
type Runners struct {
	functors  []func()
	committed bool
}

func NewRunner() *Runners {
	return &Runners{
		committed: true,
	}
}

func (r *Runners) Post(f func()) {
	r.functors = append(r.functors, f)
}

// run in reverse order of Post, last acquired is released first
func (r *Runners) Do() {
	if !r.committed {
		return
	}

	for idx := len(r.functors) - 1; idx >= 0; idx-- {
		r.functors[idx]()
	}
}

func (r *Runners) Rollback() {
	r.committed = false
}

func (r *Runners) Commit() {
	r.committed = true
}
