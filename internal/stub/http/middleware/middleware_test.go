package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-waste-client/internal/clients/interceptors"
	"github.com/pribylovaa/go-waste-client/internal/metrics"
	logctx "github.com/pribylovaa/go-waste-client/internal/pkg/log"
)

// capHandler - тестовый slog.Handler, который:
//   - аккумулирует базовые attrs, приходящие через Logger.With(...);
//   - собирает attrs из каждой записи в map[string]any.
type capHandler struct {
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
	count   int
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	out := make(map[string]any, len(h.base)+8)

	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}

	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})

	h.count++
	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out

	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) > 0 {
		h.base = append(h.base, attrs...)
	}

	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func makeReq(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = (&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345}).String()
	return req
}

type errEnvelope struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

// fakeAuth принимает только токен good и возвращает для него uid 42.
type fakeAuth struct{}

func (fakeAuth) Authenticate(token string) (int64, error) {
	if token == "good" {
		return 42, nil
	}

	return 0, errors.New("bad token")
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	var seenID, seenCtxID string

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = r.Header.Get("X-Request-Id")
		seenCtxID = interceptors.RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	chi.Chain(RequestID()).Handler(h).ServeHTTP(rr, makeReq("/rid"))

	respID := rr.Header().Get("X-Request-Id")
	_, err := uuid.Parse(respID)
	require.NoError(t, err)
	require.Equal(t, respID, seenID)
	require.Equal(t, respID, seenCtxID)
}

func TestRequestID_UseExisting(t *testing.T) {
	const given = "abc123-existing-id"
	var seenCtxID string

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenCtxID = interceptors.RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	req := makeReq("/rid2")
	req.Header.Set("X-Request-Id", given)
	chi.Chain(RequestID()).Handler(h).ServeHTTP(rr, req)

	require.Equal(t, given, rr.Header().Get("X-Request-Id"))
	require.Equal(t, given, seenCtxID)
}

func TestAuthBearer_PopulatesUserID(t *testing.T) {
	var uid int64

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, _ = UserIDFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	req := makeReq("/me")
	req.Header.Set("Authorization", "Bearer good")
	chi.Chain(AuthBearer(fakeAuth{})).Handler(h).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, int64(42), uid)
}

func TestAuthBearer_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"basic scheme", "Basic aaa"},
		{"empty token", "Bearer  "},
		{"unknown token", "Bearer forged"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

			rr := httptest.NewRecorder()
			req := makeReq("/me")
			req.Header.Set("X-Request-Id", "rid-1")
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			chi.Chain(AuthBearer(fakeAuth{})).Handler(h).ServeHTTP(rr, req)

			require.False(t, called)
			require.Equal(t, http.StatusUnauthorized, rr.Code)

			var env errEnvelope
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
			require.Equal(t, "unauthenticated", env.Error.Code)
			require.Equal(t, "rid-1", env.Error.RequestID)
		})
	}
}

func TestAuthBearer_RejectionLogHidesToken(t *testing.T) {
	const token = "leaked-secret-token-1234"

	ch := &capHandler{}
	h := AuthBearer(fakeAuth{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	req := makeReq("/me")
	req.Header.Set("Authorization", "Bearer "+token)
	req = req.WithContext(logctx.Into(req.Context(), slog.New(ch)))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "auth_rejected", ch.lastMsg)
	require.Equal(t, "Bearer ***1234", ch.attrs["authorization"])
	for _, v := range ch.attrs {
		if s, ok := v.(string); ok {
			require.NotContains(t, s, token)
		}
	}
}

func TestRecover_ConvertsPanicTo500(t *testing.T) {
	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	chi.Chain(Recover()).Handler(panicHandler).ServeHTTP(rr, makeReq("/panic"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var env errEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.Equal(t, "internal", env.Error.Code)
	require.NotContains(t, rr.Body.String(), "boom")
}

func TestLogging_WritesRecord_WithStatusDurBytesAndRequestID(t *testing.T) {
	h := &capHandler{}
	logger := slog.New(h)

	const rid = "rid-456"
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Без WriteHeader: статус должен стать 200 после Write.
		_, _ = w.Write([]byte("0123456789"))
	})

	handler := chi.Chain(RequestID(), Logging(logger)).Handler(final)

	rr := httptest.NewRecorder()
	req := makeReq("/log")
	req.Header.Set("X-Request-Id", rid)
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, h.count)
	require.Equal(t, "http", h.lastMsg)

	require.Equal(t, http.MethodGet, h.attrs["method"])
	require.Equal(t, "/log", h.attrs["path"])
	require.EqualValues(t, http.StatusOK, h.attrs["status"])
	require.EqualValues(t, 10, h.attrs["bytes"])
	require.Equal(t, rid, h.attrs["request_id"])

	_, hasDur := h.attrs["dur"]
	require.True(t, hasDur)
}

func TestLogging_LevelByStatus(t *testing.T) {
	cases := []struct {
		status int
		want   slog.Level
	}{
		{http.StatusOK, slog.LevelInfo},
		{http.StatusNotFound, slog.LevelInfo},
		{http.StatusUnauthorized, slog.LevelWarn},
		{http.StatusForbidden, slog.LevelWarn},
		{http.StatusBadGateway, slog.LevelError},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			h := &capHandler{}
			final := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(tc.status) })

			Logging(slog.New(h))(final).ServeHTTP(httptest.NewRecorder(), makeReq("/lvl"))

			require.Equal(t, tc.want, h.lastLvl)
			require.EqualValues(t, tc.status, h.attrs["status"])
		})
	}
}

func TestLogging_AddsRoutePattern(t *testing.T) {
	h := &capHandler{}

	r := chi.NewRouter()
	r.Use(Logging(slog.New(h)))
	r.Get("/waste-requests/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), makeReq("/waste-requests/abc"))

	require.Equal(t, "/waste-requests/{id}", h.attrs["route"])
	require.Equal(t, "/waste-requests/abc", h.attrs["path"])
}

func TestMetrics_CountsByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewServer(reg)

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), makeReq("/items/"+id))
	}
	r.ServeHTTP(httptest.NewRecorder(), makeReq("/nowhere"))

	const want = `
# HELP waste_stub_http_requests_total Incoming stub backend requests by route and status code.
# TYPE waste_stub_http_requests_total counter
waste_stub_http_requests_total{code="404",method="GET",route="/items/{id}"} 2
waste_stub_http_requests_total{code="404",method="GET",route="unmatched"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(want), "waste_stub_http_requests_total"))
}

func TestStatusWriter_CountsBytes_AndDefaultStatus200(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := newStatusWriter(rr)

	require.Equal(t, http.StatusOK, sw.code())

	_, _ = sw.Write([]byte("abcd"))

	require.Equal(t, http.StatusOK, sw.status)
	require.Equal(t, 4, sw.count)

	// Повторная обёртка не теряет уже записанный статус.
	require.Same(t, sw, newStatusWriter(sw))
}
