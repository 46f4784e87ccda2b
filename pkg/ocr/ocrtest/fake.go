// Package ocrtest provides a scriptable in-memory OCR engine for tests.
package ocrtest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Caia-Tech/caia-extractor/pkg/ocr"
)

// Engine is a fake ocr.Engine. Every field is read when a worker is
// created, so tests configure it before use.
type Engine struct {
	// Text is returned by Recognize.
	Text string
	// Notifications are sent to the worker logger during Recognize.
	Notifications []ocr.Notification

	// BlockRecognize makes Recognize wait, after sending Notifications,
	// until its ctx is done and then return ctx.Err().
	BlockRecognize bool

	CreateErr    error
	LanguageErr  error
	RecognizeErr error
	TerminateErr error

	mu      sync.Mutex
	workers []*Worker

	created atomic.Int32
}

// Name implements ocr.Engine.
func (e *Engine) Name() string { return "fake" }

// Version implements ocr.Engine.
func (e *Engine) Version() string { return "0.0.0-test" }

// CreateWorker implements ocr.Engine.
func (e *Engine) CreateWorker(ctx context.Context, logger ocr.Logger) (ocr.Worker, error) {
	e.created.Add(1)
	if e.CreateErr != nil {
		return nil, e.CreateErr
	}
	w := &Worker{engine: e, logger: logger}
	e.mu.Lock()
	e.workers = append(e.workers, w)
	e.mu.Unlock()
	return w, nil
}

// Created returns the number of CreateWorker calls.
func (e *Engine) Created() int { return int(e.created.Load()) }

// Workers returns the workers created so far.
func (e *Engine) Workers() []*Worker {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Worker, len(e.workers))
	copy(out, e.workers)
	return out
}

// Worker is the fake ocr.Worker.
type Worker struct {
	engine *Engine
	logger ocr.Logger

	Language   string
	Recognized int

	terminations atomic.Int32
}

// LoadLanguage implements ocr.Worker.
func (w *Worker) LoadLanguage(ctx context.Context, lang string) error {
	if w.terminations.Load() > 0 {
		return ocr.ErrWorkerTerminated
	}
	if w.engine.LanguageErr != nil {
		return w.engine.LanguageErr
	}
	w.Language = lang
	return nil
}

// Recognize implements ocr.Worker.
func (w *Worker) Recognize(ctx context.Context, img ocr.Image) (string, error) {
	if w.terminations.Load() > 0 {
		return "", ocr.ErrWorkerTerminated
	}
	for _, n := range w.engine.Notifications {
		if w.logger != nil {
			w.logger(n)
		}
	}
	if w.engine.BlockRecognize {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if w.engine.RecognizeErr != nil {
		return "", w.engine.RecognizeErr
	}
	w.Recognized++
	return w.engine.Text, nil
}

// Terminate implements ocr.Worker. Every call is counted.
func (w *Worker) Terminate() error {
	n := w.terminations.Add(1)
	if n > 1 {
		return ocr.ErrWorkerTerminated
	}
	return w.engine.TerminateErr
}

// Terminations returns how many times Terminate was called.
func (w *Worker) Terminations() int { return int(w.terminations.Load()) }

// LoadFunc returns an ocr.LoadFunc that always yields e.
func LoadFunc(e *Engine) ocr.LoadFunc {
	return func(ctx context.Context) (ocr.Engine, error) {
		return e, nil
	}
}
