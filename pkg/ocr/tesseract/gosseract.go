//go:build ocr

package tesseract

import (
	"context"
	"sync"

	"github.com/Caia-Tech/caia-extractor/pkg/ocr"
	"github.com/otiai10/gosseract/v2"
)

// GosseractCompiled reports whether libtesseract bindings are built in.
const GosseractCompiled = true

// GosseractEngine runs OCR in-process through libtesseract.
type GosseractEngine struct {
	version     string
	pageSegMode gosseract.PageSegMode
}

// LoadGosseract returns an ocr.LoadFunc that probes libtesseract.
func LoadGosseract(pageSegMode int) ocr.LoadFunc {
	return func(ctx context.Context) (ocr.Engine, error) {
		if pageSegMode < 0 || pageSegMode > 13 {
			pageSegMode = int(gosseract.PSM_AUTO)
		}
		probe := gosseract.NewClient()
		defer probe.Close()

		return &GosseractEngine{
			version:     probe.Version(),
			pageSegMode: gosseract.PageSegMode(pageSegMode),
		}, nil
	}
}

// Name implements ocr.Engine.
func (e *GosseractEngine) Name() string { return "gosseract" }

// Version implements ocr.Engine.
func (e *GosseractEngine) Version() string { return e.version }

// CreateWorker implements ocr.Engine.
func (e *GosseractEngine) CreateWorker(ctx context.Context, logger ocr.Logger) (ocr.Worker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &gosseractWorker{client: gosseract.NewClient(), psm: e.pageSegMode, logger: logger}, nil
}

type gosseractWorker struct {
	mu         sync.Mutex
	inflight   sync.WaitGroup
	client     *gosseract.Client
	psm        gosseract.PageSegMode
	logger     ocr.Logger
	terminated bool
}

func (w *gosseractWorker) LoadLanguage(ctx context.Context, lang string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.terminated {
		return ocr.ErrWorkerTerminated
	}
	if err := w.client.SetLanguage(lang); err != nil {
		return err
	}
	return w.client.SetPageSegMode(w.psm)
}

func (w *gosseractWorker) Recognize(ctx context.Context, img ocr.Image) (string, error) {
	w.mu.Lock()
	if w.terminated {
		w.mu.Unlock()
		return "", ocr.ErrWorkerTerminated
	}
	err := w.client.SetImageFromBytes(img.Data)
	w.mu.Unlock()
	if err != nil {
		return "", err
	}
	if w.logger != nil {
		w.logger(ocr.Notification{Status: ocr.StatusRecognizing, Progress: 0})
	}

	// libtesseract cannot be interrupted; ctx is honoured by not waiting for it.
	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	w.inflight.Add(1)
	go func() {
		defer w.inflight.Done()
		text, err := w.client.Text()
		ch <- result{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return "", res.err
		}
		if w.logger != nil {
			w.logger(ocr.Notification{Status: ocr.StatusRecognizing, Progress: 1})
		}
		return res.text, nil
	}
}

func (w *gosseractWorker) Terminate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.terminated {
		return ocr.ErrWorkerTerminated
	}
	w.terminated = true
	// Close only once a recognition abandoned on ctx cancel has returned.
	w.inflight.Wait()
	return w.client.Close()
}
