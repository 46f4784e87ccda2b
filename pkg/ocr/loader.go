package ocr

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// LoadFunc fetches and initializes an engine.
type LoadFunc func(ctx context.Context) (Engine, error)

// LoadObserver is told about every load attempt that actually ran.
type LoadObserver func(engine string, elapsed time.Duration, err error)

// Loader brings an engine up lazily, at most one load in flight at a time.
// A successful load is cached for the life of the Loader; a failed load
// leaves nothing behind so the next call retries.
type Loader struct {
	name     string
	load     LoadFunc
	observer LoadObserver

	group singleflight.Group

	mu     sync.RWMutex
	engine Engine
	// gen is bumped by Reset; a load that started under an older gen does
	// not populate the cache.
	gen uint64
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoadObserver registers an observer for load attempts.
func WithLoadObserver(o LoadObserver) LoaderOption {
	return func(l *Loader) {
		l.observer = o
	}
}

// NewLoader creates a loader for the named engine.
func NewLoader(name string, load LoadFunc, opts ...LoaderOption) *Loader {
	l := &Loader{
		name: name,
		load: load,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Ensure returns the cached engine, loading it first if needed. Concurrent
// callers share the outcome of a single in-flight load. A caller whose ctx
// ends stops waiting but does not abort the load for the others.
func (l *Loader) Ensure(ctx context.Context) (Engine, error) {
	if e := l.cached(); e != nil {
		return e, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(l.name, func() (interface{}, error) {
		if e := l.cached(); e != nil {
			return e, nil
		}
		return l.doLoad(loadCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Engine), nil
	}
}

func (l *Loader) doLoad(ctx context.Context) (Engine, error) {
	logger := log.With().Str("component", "ocr_loader").Str("engine", l.name).Logger()
	logger.Info().Msg("Loading OCR engine")

	l.mu.RLock()
	gen := l.gen
	l.mu.RUnlock()

	start := time.Now()
	e, err := l.load(ctx)
	if err == nil && e == nil {
		err = errors.New("loader returned no engine")
	}
	elapsed := time.Since(start)

	if l.observer != nil {
		l.observer(l.name, elapsed, err)
	}

	if err != nil {
		logger.Error().Err(err).Dur("elapsed", elapsed).Msg("OCR engine load failed")
		var le *LoadError
		if errors.As(err, &le) {
			return nil, err
		}
		return nil, &LoadError{Engine: l.name, Err: err}
	}

	l.mu.Lock()
	if l.gen == gen {
		l.engine = e
	}
	l.mu.Unlock()

	logger.Info().
		Str("version", e.Version()).
		Dur("elapsed", elapsed).
		Msg("OCR engine loaded")
	return e, nil
}

func (l *Loader) cached() Engine {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.engine
}

// Loaded reports whether an engine is cached.
func (l *Loader) Loaded() bool {
	return l.cached() != nil
}

// Reset drops the cached engine so the next Ensure loads again. A load
// already in flight still completes for its waiters and for callers that
// join it, but its engine is not cached.
func (l *Loader) Reset() {
	l.mu.Lock()
	l.engine = nil
	l.gen++
	l.mu.Unlock()
}
