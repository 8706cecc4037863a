package clients

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/go-waste-client/internal/clients/api"
	"github.com/pribylovaa/go-waste-client/internal/clients/auth"
	"github.com/pribylovaa/go-waste-client/internal/clients/interceptors"
	"github.com/pribylovaa/go-waste-client/internal/clients/rest"
	"github.com/pribylovaa/go-waste-client/internal/metrics"
)

// ChainConfig - общие параметры цепочек исходящих вызовов.
type ChainConfig struct {
	// Transport - nil => NewTransport().
	Transport interceptors.Doer
	UserAgent string
	// Timeout - таймаут одной попытки.
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *metrics.Client
}

func (c ChainConfig) transport() interceptors.Doer {
	if c.Transport != nil {
		return c.Transport
	}

	return NewTransport()
}

// NewTransport - http.Client без общего таймаута: дедлайн задаёт WithTimeout на попытку.
func NewTransport() *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 16

	return &http.Client{Transport: t}
}

// Bypass - цепочка для эндпоинта обновления: metadata -> logging -> timeout -> transport.
// Без Credentials и Refresh, чтобы вызов обновления не перехватывал сам себя.
func Bypass(cfg ChainConfig) interceptors.Doer {
	return interceptors.Chain(cfg.transport(),
		interceptors.WithMetadata(cfg.UserAgent),
		interceptors.Logging(cfg.Logger),
		interceptors.WithTimeout(cfg.Timeout),
	)
}

// Enriched - полная цепочка доменных вызовов:
// metadata -> logging -> metrics -> refresh -> credentials -> timeout -> transport.
func Enriched(cfg ChainConfig, coord *interceptors.Coordinator, src interceptors.CredentialSource) interceptors.Doer {
	return interceptors.Chain(cfg.transport(),
		interceptors.WithMetadata(cfg.UserAgent),
		interceptors.Logging(cfg.Logger),
		interceptors.Metrics(cfg.Metrics),
		interceptors.Refresh(coord),
		interceptors.Credentials(src),
		interceptors.WithTimeout(cfg.Timeout),
	)
}

// Clients агрегирует REST-модули поверх одного Doer.
type Clients struct {
	Auth *auth.Client
	API  *api.Client
}

// New собирает модули над doer (обычно session.Client()).
func New(doer interceptors.Doer, baseURL string) *Clients {
	rc := rest.New(doer, baseURL)

	return &Clients{
		Auth: auth.New(rc),
		API:  api.New(rc),
	}
}
