package interceptors

import (
	"net/http"

	"github.com/google/uuid"
)

// WithMetadata добавляет в исходящий запрос заголовки:
//   - X-Request-Id (уже заданный в запросе, из контекста или новый uuid);
//   - User-Agent (если передан параметром).
//
// Запрос вызывающего не мутируется: заголовки ставятся на клон.
func WithMetadata(userAgent string) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			rid := req.Header.Get(HeaderRequestID)
			if rid == "" {
				rid = RequestIDFrom(req.Context())
			}
			if rid == "" {
				rid = uuid.NewString()
			}

			ctx := req.Context()
			if RequestIDFrom(ctx) != rid {
				ctx = WithRequestID(ctx, rid)
			}

			out := req.Clone(ctx)
			out.Header.Set(HeaderRequestID, rid)
			if userAgent != "" {
				out.Header.Set("User-Agent", userAgent)
			}

			return next.Do(out)
		})
	}
}
