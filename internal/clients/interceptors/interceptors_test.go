package interceptors

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-waste-client/internal/metrics"
	"github.com/pribylovaa/go-waste-client/internal/pkg/log"
)

type capHandler struct {
	mu      sync.Mutex
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
	count   map[string]int
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]any, len(h.base)+8)
	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})
	if h.count == nil {
		h.count = make(map[string]int)
	}
	h.count[r.Message]++
	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out
	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.base = append(h.base, attrs...)
	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func okResponse(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

func newReq(t *testing.T, method, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, nil)
	require.NoError(t, err)
	return req
}

func TestChain_FirstIsOutermost(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) Middleware {
		return func(next Doer) Doer {
			return DoerFunc(func(req *http.Request) (*http.Response, error) {
				order = append(order, name+">")
				resp, err := next.Do(req)
				order = append(order, "<"+name)
				return resp, err
			})
		}
	}

	base := DoerFunc(func(req *http.Request) (*http.Response, error) {
		order = append(order, "base")
		return okResponse(req, http.StatusOK, ""), nil
	})

	d := Chain(base, mw("a"), nil, mw("b"))
	_, err := d.Do(newReq(t, http.MethodGet, "http://x/me"))
	require.NoError(t, err)
	require.Equal(t, []string{"a>", "b>", "base", "<b", "<a"}, order)
}

func TestWithMetadata_SetsRequestIDAndUserAgent(t *testing.T) {
	t.Parallel()

	var got http.Header
	var ctxRID string
	base := DoerFunc(func(req *http.Request) (*http.Response, error) {
		got = req.Header.Clone()
		ctxRID = RequestIDFrom(req.Context())
		return okResponse(req, http.StatusOK, ""), nil
	})

	orig := newReq(t, http.MethodGet, "http://x/me")
	_, err := Chain(base, WithMetadata("waste-client/1.0")).Do(orig)
	require.NoError(t, err)

	rid := got.Get(HeaderRequestID)
	_, perr := uuid.Parse(rid)
	require.NoError(t, perr)
	require.Equal(t, rid, ctxRID)
	require.Equal(t, "waste-client/1.0", got.Get("User-Agent"))

	require.Empty(t, orig.Header.Get(HeaderRequestID), "caller request must not be mutated")
}

func TestWithMetadata_ReusesExistingRequestID(t *testing.T) {
	t.Parallel()

	var fromHeader, fromCtx string
	base := DoerFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == "/header" {
			fromHeader = req.Header.Get(HeaderRequestID)
		} else {
			fromCtx = req.Header.Get(HeaderRequestID)
		}
		return okResponse(req, http.StatusOK, ""), nil
	})
	d := Chain(base, WithMetadata(""))

	r1 := newReq(t, http.MethodGet, "http://x/header")
	r1.Header.Set(HeaderRequestID, "rid-header")
	_, err := d.Do(r1)
	require.NoError(t, err)
	require.Equal(t, "rid-header", fromHeader)

	r2 := newReq(t, http.MethodGet, "http://x/ctx")
	r2 = r2.WithContext(WithRequestID(r2.Context(), "rid-ctx"))
	_, err = d.Do(r2)
	require.NoError(t, err)
	require.Equal(t, "rid-ctx", fromCtx)
}

func TestWithMetadata_EmptyUserAgent_NotOverridden(t *testing.T) {
	t.Parallel()

	var ua string
	base := DoerFunc(func(req *http.Request) (*http.Response, error) {
		ua = req.Header.Get("User-Agent")
		return okResponse(req, http.StatusOK, ""), nil
	})

	req := newReq(t, http.MethodGet, "http://x/me")
	req.Header.Set("User-Agent", "custom")
	_, err := Chain(base, WithMetadata("")).Do(req)
	require.NoError(t, err)
	require.Equal(t, "custom", ua)
}

func TestWithTimeout_SetsDeadline_AndSeesDeadlineExceeded(t *testing.T) {
	t.Parallel()

	const d = 40 * time.Millisecond
	base := DoerFunc(func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})

	start := time.Now()
	_, err := Chain(base, WithTimeout(d)).Do(newReq(t, http.MethodGet, "http://x/slow"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.GreaterOrEqual(t, time.Since(start), d)
}

func TestWithTimeout_DoesNotOverrideExistingDeadline(t *testing.T) {
	t.Parallel()

	parentDeadline := time.Now().Add(time.Hour)
	ctx, cancel := context.WithDeadline(context.Background(), parentDeadline)
	defer cancel()

	var seen time.Time
	base := DoerFunc(func(req *http.Request) (*http.Response, error) {
		seen, _ = req.Context().Deadline()
		return okResponse(req, http.StatusOK, ""), nil
	})

	req := newReq(t, http.MethodGet, "http://x/me").WithContext(ctx)
	_, err := Chain(base, WithTimeout(10*time.Millisecond)).Do(req)
	require.NoError(t, err)
	require.Equal(t, parentDeadline, seen)
}

func TestWithTimeout_NonPositive_NoDeadline(t *testing.T) {
	t.Parallel()

	var has bool
	base := DoerFunc(func(req *http.Request) (*http.Response, error) {
		_, has = req.Context().Deadline()
		return okResponse(req, http.StatusOK, ""), nil
	})

	_, err := Chain(base, WithTimeout(0)).Do(newReq(t, http.MethodGet, "http://x/me"))
	require.NoError(t, err)
	require.False(t, has)
}

// Контекст попытки жив, пока тело ответа не закрыто.
func TestWithTimeout_CancelOnBodyClose(t *testing.T) {
	t.Parallel()

	var attemptCtx context.Context
	base := DoerFunc(func(req *http.Request) (*http.Response, error) {
		attemptCtx = req.Context()
		return okResponse(req, http.StatusOK, "payload"), nil
	})

	resp, err := Chain(base, WithTimeout(time.Minute)).Do(newReq(t, http.MethodGet, "http://x/me"))
	require.NoError(t, err)
	require.NoError(t, attemptCtx.Err())

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "payload", string(b))

	require.NoError(t, resp.Body.Close())
	require.ErrorIs(t, attemptCtx.Err(), context.Canceled)
}

func TestLogging_WritesSingleRecord_WithoutSecrets(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	base := DoerFunc(func(req *http.Request) (*http.Response, error) {
		// логгер доступен стадиям ниже
		log.From(req.Context()).Debug("inner")
		return okResponse(req, http.StatusCreated, ""), nil
	})

	req := newReq(t, http.MethodPost, "http://x/waste-requests")
	req.Header.Set("Authorization", "Bearer super-secret-token")
	req.Header.Set(HeaderRequestID, "rid-7")

	_, err := Chain(base, Logging(slog.New(h))).Do(req)
	require.NoError(t, err)

	h.mu.Lock()
	defer h.mu.Unlock()

	require.Equal(t, "http_client", h.lastMsg)
	require.Equal(t, slog.LevelInfo, h.lastLvl)
	require.Equal(t, 1, h.count["http_client"])
	require.Equal(t, 1, h.count["inner"])
	require.Equal(t, "rid-7", h.attrs["request_id"])
	require.Equal(t, "POST", h.attrs["method"])
	require.Equal(t, "/waste-requests", h.attrs["path"])
	require.EqualValues(t, http.StatusCreated, h.attrs["status"])
	require.Contains(t, h.attrs, "dur")

	for _, v := range h.attrs {
		if s, ok := v.(string); ok {
			require.NotContains(t, s, "super-secret-token")
		}
	}
}

func TestLogging_TransportError_LogsErr(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	base := DoerFunc(func(req *http.Request) (*http.Response, error) {
		return nil, context.DeadlineExceeded
	})

	_, err := Chain(base, Logging(slog.New(h))).Do(newReq(t, http.MethodGet, "http://x/me"))
	require.ErrorIs(t, err, context.DeadlineExceeded)

	h.mu.Lock()
	defer h.mu.Unlock()
	require.Equal(t, "http_client", h.lastMsg)
	require.EqualValues(t, 0, h.attrs["status"])
	require.Equal(t, context.DeadlineExceeded.Error(), h.attrs["err"])
	require.NotEmpty(t, h.attrs["request_id"])
}

func TestMetrics_CountsCalls(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.NewClient(reg)

	base := DoerFunc(func(req *http.Request) (*http.Response, error) {
		return okResponse(req, http.StatusOK, ""), nil
	})
	d := Chain(base, Metrics(m))

	for i := 0; i < 3; i++ {
		_, err := d.Do(newReq(t, http.MethodGet, "http://x/me"))
		require.NoError(t, err)
	}

	const expected = `
# HELP waste_client_requests_total Outgoing API requests by method and status class.
# TYPE waste_client_requests_total counter
waste_client_requests_total{code="2xx",method="GET"} 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "waste_client_requests_total"))
}

func TestMetrics_Nil_IsPassThrough(t *testing.T) {
	t.Parallel()

	base := DoerFunc(func(req *http.Request) (*http.Response, error) {
		return okResponse(req, http.StatusOK, ""), nil
	})
	resp, err := Chain(base, Metrics(nil)).Do(newReq(t, http.MethodGet, "http://x/me"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
