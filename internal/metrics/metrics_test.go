package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestClient_ObserveRequest(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewClient(reg)

	m.ObserveRequest(http.MethodGet, http.StatusOK, nil, 10*time.Millisecond)
	m.ObserveRequest(http.MethodGet, http.StatusNoContent, nil, time.Millisecond)
	m.ObserveRequest(http.MethodPost, http.StatusUnauthorized, nil, time.Millisecond)
	m.ObserveRequest(http.MethodPost, 0, errors.New("dial"), time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "2xx")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "4xx")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "error")))
	require.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestClient_ObserveRefresh(t *testing.T) {
	t.Parallel()

	m := NewClient(prometheus.NewRegistry())
	m.ObserveRefresh(RefreshSuccess)
	m.ObserveRefresh(RefreshJoined)
	m.ObserveRefresh(RefreshJoined)

	require.Equal(t, 1.0, testutil.ToFloat64(m.refresh.WithLabelValues(RefreshSuccess)))
	require.Equal(t, 2.0, testutil.ToFloat64(m.refresh.WithLabelValues(RefreshJoined)))
	require.Equal(t, 0.0, testutil.ToFloat64(m.refresh.WithLabelValues(RefreshFailure)))
}

func TestClient_SameRegistry_ReusesCollectors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	a := NewClient(reg)
	b := NewClient(reg)

	a.ObserveRefresh(RefreshFailure)
	b.ObserveRefresh(RefreshFailure)

	require.Equal(t, 2.0, testutil.ToFloat64(a.refresh.WithLabelValues(RefreshFailure)))
}

func TestNilReceivers_NoPanic(t *testing.T) {
	t.Parallel()

	var c *Client
	var s *Server
	require.NotPanics(t, func() {
		c.ObserveRequest("GET", 200, nil, time.Second)
		c.ObserveRefresh(RefreshSuccess)
		s.ObserveRequest("GET", "/me", 200)
	})
}

func TestServer_ObserveRequest(t *testing.T) {
	t.Parallel()

	m := NewServer(prometheus.NewRegistry())
	m.ObserveRequest("POST", "/auth/refresh", 401)

	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/auth/refresh", "401")))
}

func TestStatusClass(t *testing.T) {
	t.Parallel()

	require.Equal(t, "2xx", StatusClass(200))
	require.Equal(t, "5xx", StatusClass(503))
	require.Equal(t, "none", StatusClass(0))
	require.Equal(t, "none", StatusClass(600))
}
