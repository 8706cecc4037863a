package interceptors

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-waste-client/internal/pkg/log"
)

// Logging - логирование исходящих HTTP-вызовов.
// Поведение:
//   - берёт X-Request-Id из запроса (или генерирует новый и добавляет);
//   - добавляет поля method/path, прокладывает обогащённый логгер в контекст (pkg/log);
//   - пишет одну финальную запись уровня Info: msg="http_client", status, dur.
//
// Безопасность: не логирует тела запросов и заголовок Authorization.
func Logging(base *slog.Logger) Middleware {
	if base == nil {
		base = slog.Default()
	}

	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()

			rid := req.Header.Get(HeaderRequestID)
			if rid == "" {
				rid = RequestIDFrom(req.Context())
			}
			if rid == "" {
				rid = uuid.NewString()
			}

			l := base.With(
				slog.String("request_id", rid),
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
			)

			out := req.Clone(log.Into(req.Context(), l))
			out.Header.Set(HeaderRequestID, rid)

			resp, err := next.Do(out)

			status := 0
			if resp != nil {
				status = resp.StatusCode
			}

			if err != nil {
				l.Info("http_client",
					slog.Int("status", status),
					slog.Duration("dur", time.Since(start)),
					slog.String("err", err.Error()),
				)
				return resp, err
			}

			l.Info("http_client",
				slog.Int("status", status),
				slog.Duration("dur", time.Since(start)),
			)

			return resp, nil
		})
	}
}
