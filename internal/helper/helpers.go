package helper

import (
	"fmt"
	"net/http"
	"sync"
)

// ServerErrorReporter breaks the import cycle with errHandler; the error
// handler satisfies it.
type ServerErrorReporter interface {
	ReportServerError(r *http.Request, err error)
}

type HelperRepository struct {
	baseUrl  *string
	WG       *sync.WaitGroup
	reporter ServerErrorReporter
}

func New(baseUrl *string, wg *sync.WaitGroup) *HelperRepository {
	return &HelperRepository{
		baseUrl: baseUrl,
		WG:      wg,
	}
}

// SetReporter wires the error handler in after construction; helper and
// errHandler depend on each other at runtime.
func (h *HelperRepository) SetReporter(reporter ServerErrorReporter) {
	h.reporter = reporter
}

func (h *HelperRepository) NewEmailData() map[string]any {
	data := map[string]any{
		"BaseURL": h.baseUrl,
	}

	return data
}

// BackgroundTask runs fn on its own goroutine, tracked by the server's
// wait group so graceful shutdown can drain in-flight work.
func (h *HelperRepository) BackgroundTask(r *http.Request, fn func() error) {
	h.WG.Add(1)

	go func() {
		defer h.WG.Done()

		defer func() {
			err := recover()
			if err != nil && h.reporter != nil {
				h.reporter.ReportServerError(r, fmt.Errorf("%s", err))
			}
		}()

		err := fn()
		if err != nil && h.reporter != nil {
			h.reporter.ReportServerError(r, err)
		}
	}()
}
