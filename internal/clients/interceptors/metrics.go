package interceptors

import (
	"net/http"
	"time"

	"github.com/pribylovaa/go-waste-client/internal/metrics"
)

// Metrics учитывает каждый логический вызов в счётчике и гистограмме.
// Повтор после обновления пары считается частью того же вызова.
func Metrics(m *metrics.Client) Middleware {
	return func(next Doer) Doer {
		if m == nil {
			return next
		}

		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.Do(req)

			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			m.ObserveRequest(req.Method, status, err, time.Since(start))

			return resp, err
		})
	}
}
