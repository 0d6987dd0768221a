package engine

import (
	"errors"
	"slices"
)

const DefaultEngine = "psync"

type Constructor func(opts Options) (Engine, error)

// Registry maps engine names to constructors. It is built by the caller
// and passed around explicitly, nothing registers itself globally.
type Registry struct {
	ctors map[string]Constructor
}

// NewRegistry returns a registry that knows sync, psync and vsync.
func NewRegistry() *Registry {
	r := &Registry{ctors: make(map[string]Constructor)}

	_ = r.Register("sync", func(opts Options) (Engine, error) {
		return NewSyncEngine(opts)
	})
	_ = r.Register("psync", func(opts Options) (Engine, error) {
		return NewPsyncEngine(opts)
	})
	_ = r.Register("vsync", func(opts Options) (Engine, error) {
		return NewVsyncEngine(opts)
	})

	return r
}

func (r *Registry) Register(name string, ctor Constructor) error {
	if _, ok := r.ctors[name]; ok {
		return errors.Join(ErrEngineExists, errors.New(name))
	}
	r.ctors[name] = ctor
	return nil
}

func (r *Registry) Unregister(name string) {
	delete(r.ctors, name)
}

func (r *Registry) New(name string, opts Options) (Engine, error) {
	if name == "" {
		name = DefaultEngine
	}

	ctor, ok := r.ctors[name]
	if !ok {
		return nil, errors.Join(ErrUnknownEngine, errors.New(name))
	}
	return ctor(opts)
}

// Names returns the registered names in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
