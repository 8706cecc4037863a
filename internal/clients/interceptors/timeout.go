package interceptors

import (
	"context"
	"io"
	"net/http"
	"time"
)

// WithTimeout навешивает таймаут d на одну попытку запроса, если у контекста
// ещё нет дедлайна. Существующий дедлайн не переопределяется.
//
// Контракт:
//  1. d <= 0 - контекст не модифицируется;
//  2. у ctx уже есть deadline - остаётся как есть;
//  3. иначе ctx оборачивается через context.WithTimeout(ctx, d); cancel
//     вызывается при ошибке или при закрытии тела ответа, чтобы тело можно
//     было дочитать после возврата из Do.
//
// Истечение дедлайна - обычная ошибка транспорта (context.DeadlineExceeded).
func WithTimeout(d time.Duration) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			if d <= 0 {
				return next.Do(req)
			}
			if _, ok := req.Context().Deadline(); ok {
				return next.Do(req)
			}

			cctx, cancel := context.WithTimeout(req.Context(), d)
			resp, err := next.Do(req.WithContext(cctx))
			if err != nil {
				cancel()
				return resp, err
			}

			if resp.Body == nil {
				resp.Body = http.NoBody
			}
			resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}

			return resp, nil
		})
	}
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
