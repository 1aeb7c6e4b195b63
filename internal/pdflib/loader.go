package pdflib

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/thywilljoshua/pdfcheck/internal/future"
)

// Factory builds a backend. It runs at most once per Loader and backend.
type Factory func(Options) (Library, error)

var backends = map[string]Factory{
	BackendRSC:        newRSC,
	BackendLedongthuc: newLedongthuc,
}

// Backends lists the registered backend names.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether name is a registered backend.
func Known(name string) bool {
	_, ok := backends[name]
	return ok
}

// Loader hands out backends, loading each one at most once. Concurrent
// callers asking for the same backend share the same pending load.
type Loader struct {
	opts      Options
	factories map[string]Factory

	mu    sync.Mutex
	loads map[string]*future.Future[Library]
}

func NewLoader(opts Options) *Loader {
	return &Loader{opts: opts, factories: backends, loads: map[string]*future.Future[Library]{}}
}

// WithFactory returns a loader that serves name from f instead of the
// registered backend.
func (l *Loader) WithFactory(name string, f Factory) *Loader {
	factories := make(map[string]Factory, len(l.factories)+1)
	for k, v := range l.factories {
		factories[k] = v
	}
	factories[name] = f
	return &Loader{opts: l.opts, factories: factories, loads: map[string]*future.Future[Library]{}}
}

// Load returns the pending or completed load of the named backend. A failed
// load stays failed.
func (l *Loader) Load(name string) *future.Future[Library] {
	l.mu.Lock()
	defer l.mu.Unlock()

	if f, ok := l.loads[name]; ok {
		return f
	}
	factory, ok := l.factories[name]
	f := future.Go(func() (Library, error) {
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownBackend, name)
		}
		slog.Debug("Loading PDF backend", "backend", name)
		return factory(l.opts)
	})
	l.loads[name] = f
	return f
}

// Get waits for the named backend.
func (l *Loader) Get(ctx context.Context, name string) (Library, error) {
	return l.Load(name).Wait(ctx)
}

var defaultLoader = sync.OnceValue(func() *Loader {
	return NewLoader(Options{})
})

// Default returns the process-wide loader.
func Default() *Loader { return defaultLoader() }
