package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-waste-client/internal/clients"
	"github.com/pribylovaa/go-waste-client/internal/config"
	"github.com/pribylovaa/go-waste-client/internal/storage/memory"
	"github.com/pribylovaa/go-waste-client/internal/tokenstore"
)

func TestNewSession_RecordsRequestMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"items":[]}`)
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{API: config.APIConfig{BaseURL: srv.URL, UserAgent: "waste-client-test"}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()

	sess := newSession(cfg, tokenstore.New(memory.New(), tokenstore.Options{Logger: log}), log, reg)
	t.Cleanup(func() { _ = sess.Close() })

	_, err := clients.New(sess.Client(), srv.URL).API.ListServiceAreas(context.Background())
	require.NoError(t, err)

	const expected = `
# HELP waste_client_requests_total Outgoing API requests by method and status class.
# TYPE waste_client_requests_total counter
waste_client_requests_total{code="2xx",method="GET"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "waste_client_requests_total"))
}
