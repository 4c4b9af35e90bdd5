package toast

import (
	"sync"

	"go.uber.org/zap"

	"asset-tracker/pkg/apperr"
)

// Recover turns a panic into an error toast. Use it deferred at the top of
// any goroutine or handler that should not take the process down:
//
//	defer reg.Recover()
func (r *Registry) Recover() {
	if v := recover(); v != nil {
		r.reportPanic(v)
	}
}

func (r *Registry) reportPanic(v any) {
	e := apperr.FromPanic(v)
	r.logger.Error("recovered panic", zap.String("code", e.Code), zap.String("message", e.Message))
	r.Add(apperr.ToUserMessage(e), Error, ErrorDuration)
}

// Go runs fn on a new goroutine. A returned error or a panic is shown as a
// single error toast. The returned func blocks until fn has finished.
func (r *Registry) Go(fn func() error) (wait func()) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if v := recover(); v != nil {
				r.reportPanic(v)
			}
		}()
		if err := fn(); err != nil {
			r.logger.Debug("background task failed", zap.Error(err))
			r.ShowError(err)
		}
	}()
	return wg.Wait
}
