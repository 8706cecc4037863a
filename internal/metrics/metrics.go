// metrics - коллекторы Prometheus клиентского пайплайна и stub-бэкенда.
//
// Коллекторы регистрируются в переданном Registerer.
// Все методы безопасны для nil-получателя.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Исходы обновления пары токенов.
const (
	RefreshSuccess = "success"
	RefreshFailure = "failure"
	// RefreshJoined - запрос дождался чужого обновления.
	RefreshJoined = "joined"
	// RefreshStale - запрос повторён с уже обновлённой парой без нового вызова.
	RefreshStale = "stale"
)

// Client - метрики исходящих запросов.
type Client struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	refresh  *prometheus.CounterVec
}

// NewClient создаёт и регистрирует коллекторы клиента.
// nil reg => prometheus.DefaultRegisterer. Повторная регистрация в том же
// Registerer переиспользует уже зарегистрированные коллекторы.
func NewClient(reg prometheus.Registerer) *Client {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Client{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waste_client_requests_total",
			Help: "Outgoing API requests by method and status class.",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "waste_client_request_duration_seconds",
			Help:    "Outgoing API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		refresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waste_client_refresh_total",
			Help: "Credential refresh attempts by outcome.",
		}, []string{"outcome"}),
	}

	m.requests = register(reg, m.requests)
	m.duration = register(reg, m.duration)
	m.refresh = register(reg, m.refresh)

	return m
}

// ObserveRequest учитывает один исходящий запрос. Транспортная ошибка - code="error".
func (m *Client) ObserveRequest(method string, status int, err error, dur time.Duration) {
	if m == nil {
		return
	}

	code := StatusClass(status)
	if err != nil {
		code = "error"
	}

	m.requests.WithLabelValues(method, code).Inc()
	m.duration.WithLabelValues(method).Observe(dur.Seconds())
}

func (m *Client) ObserveRefresh(outcome string) {
	if m == nil {
		return
	}

	m.refresh.WithLabelValues(outcome).Inc()
}

// Server - метрики входящих запросов stub-бэкенда.
type Server struct {
	requests *prometheus.CounterVec
}

func NewServer(reg prometheus.Registerer) *Server {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "waste_stub_http_requests_total",
		Help: "Incoming stub backend requests by route and status code.",
	}, []string{"method", "route", "code"})

	return &Server{requests: register(reg, requests)}
}

func (m *Server) ObserveRequest(method, route string, status int) {
	if m == nil {
		return
	}

	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// StatusClass - "2xx", "4xx" и т.д.; 0 => "none".
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "none"
	}

	return strconv.Itoa(status/100) + "xx"
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}

	return c
}
