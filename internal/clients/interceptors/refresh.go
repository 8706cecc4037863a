package interceptors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/pribylovaa/go-waste-client/internal/metrics"
	"github.com/pribylovaa/go-waste-client/internal/models"
	"github.com/pribylovaa/go-waste-client/internal/pkg/log"
	"github.com/pribylovaa/go-waste-client/internal/pkg/redact"
)

var (
	// ErrRefreshFailed - обновление пары не удалось, сессия сброшена.
	// Оборачивает исходную причину.
	ErrRefreshFailed = errors.New("credential refresh failed")
	// ErrInvalidRefreshResponse - бэкенд вернул пару без access-токена.
	ErrInvalidRefreshResponse = errors.New("refresh response has no access token")
)

// exemptPaths - эндпоинты выдачи пар; 401 от них никогда не обновляется.
var exemptPaths = []string{"/auth/login", "/auth/register", "/auth/refresh"}

// maxDrain - сколько байт тела 401 дочитываем перед закрытием.
const maxDrain = 64 << 10

// Refresher вызывает эндпоинт обновления в обход пайплайна.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (models.CredentialPair, error)
}

// SessionSink - обратная связь с владельцем сессии.
// Только владелец пишет в хранилище токенов.
//
// prev - пара, refresh-токен которой был отправлен на обновление. Если к
// моменту вызова сессия уже другая (выход, новый вход), владелец не трогает
// хранилище.
type SessionSink interface {
	// StoreRefreshed сохраняет новую пару next вместо prev. Ошибка означает,
	// что пара не сохранена долговременно или сессия сменилась.
	StoreRefreshed(ctx context.Context, prev, next models.CredentialPair) error
	// Invalidate сбрасывает сессию prev после неудачного обновления.
	Invalidate(ctx context.Context, prev models.CredentialPair, cause error)
}

// CoordinatorConfig - зависимости Coordinator.
type CoordinatorConfig struct {
	Source    CredentialSource
	Refresher Refresher
	Sink      SessionSink
	// Metrics - опционально.
	Metrics *metrics.Client
}

// refreshCall - маркер выполняющегося обновления. Поздние запросы ждут done
// и читают общий результат.
type refreshCall struct {
	done    chan struct{}
	pair    models.CredentialPair
	err     error
	waiters int
}

// Coordinator обрабатывает 401: не больше одного обращения к эндпоинту
// обновления одновременно, не больше одного повтора на логический запрос.
type Coordinator struct {
	src     CredentialSource
	refr    Refresher
	sink    SessionSink
	metrics *metrics.Client

	mu       sync.Mutex
	inflight *refreshCall
}

func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	return &Coordinator{
		src:     cfg.Source,
		refr:    cfg.Refresher,
		sink:    cfg.Sink,
		metrics: cfg.Metrics,
	}
}

// Refresh - стадия пайплайна поверх Coordinator.
func Refresh(c *Coordinator) Middleware {
	return c.wrap
}

// decision - что делать с запросом после 401.
type decision int

const (
	passThrough decision = iota // вернуть исходный ответ
	replay                      // повторить с текущей парой
	failed                      // вернуть ошибку обновления
)

func (c *Coordinator) wrap(next Doer) Doer {
	return DoerFunc(func(req *http.Request) (*http.Response, error) {
		att := &attachment{}
		req = req.WithContext(withAttachment(req.Context(), att))

		if err := bufferBody(req); err != nil {
			return nil, err
		}

		resp, err := next.Do(req)
		if err != nil || !eligible(req, resp) {
			return resp, err
		}

		ctx := req.Context()
		d, rerr := c.resolve(ctx, att.accessToken)

		switch d {
		case passThrough:
			return resp, nil
		case failed:
			discard(resp)
			return nil, rerr
		}

		discard(resp)

		again, err := replayRequest(req)
		if err != nil {
			return nil, err
		}

		return next.Do(again)
	})
}

// eligible - 401, путь не из exemptPaths, запрос ещё не повторялся.
func eligible(req *http.Request, resp *http.Response) bool {
	if resp.StatusCode != http.StatusUnauthorized {
		return false
	}

	if isRetried(req.Context()) {
		return false
	}

	for _, p := range exemptPaths {
		if strings.Contains(req.URL.Path, p) {
			return false
		}
	}

	return true
}

// resolve решает судьбу запроса, получившего 401 с access-токеном sent.
//
// Проверка маркера и его создание выполняются под одним мьютексом, поэтому
// два конкурентных 401 не могут оба начать обновление.
func (c *Coordinator) resolve(ctx context.Context, sent string) (decision, error) {
	l := log.From(ctx)

	c.mu.Lock()

	cur, ok := c.src.Current()
	if !ok || cur.RefreshToken == "" {
		c.mu.Unlock()
		l.Debug("refresh_skipped_no_credentials")
		return passThrough, nil
	}

	if call := c.inflight; call != nil {
		call.waiters++
		c.mu.Unlock()
		l.Debug("refresh_joined")
		c.metrics.ObserveRefresh(metrics.RefreshJoined)
		return c.await(ctx, call)
	}

	// Запрос ушёл с другой парой или без неё, а текущая уже есть:
	// повторяем с ней без нового вызова.
	if cur.AccessToken != sent {
		c.mu.Unlock()
		l.Debug("refresh_stale_replay")
		c.metrics.ObserveRefresh(metrics.RefreshStale)
		return replay, nil
	}

	call := &refreshCall{done: make(chan struct{})}
	c.inflight = call
	c.mu.Unlock()

	call.pair, call.err = c.run(ctx, cur)

	c.mu.Lock()
	c.inflight = nil
	c.mu.Unlock()
	close(call.done)

	if call.err != nil {
		return failed, call.err
	}

	return replay, nil
}

// run выполняет единственный вызов обновления и применяет результат к сессии
// до того, как ожидающие будут освобождены.
func (c *Coordinator) run(ctx context.Context, cur models.CredentialPair) (models.CredentialPair, error) {
	ctx, l := log.With(ctx, slog.String("refresh_token", redact.Token(cur.RefreshToken)))
	l.Info("refresh_started")

	// Отмена исходного запроса не должна обрывать общее обновление.
	rctx := context.WithoutCancel(ctx)

	pair, err := c.refr.Refresh(rctx, cur.RefreshToken)
	if err == nil && pair.AccessToken == "" {
		err = ErrInvalidRefreshResponse
	}

	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRefreshFailed, err)
		l.Warn("refresh_failed", slog.String("err", err.Error()))
		c.metrics.ObserveRefresh(metrics.RefreshFailure)
		c.sink.Invalidate(rctx, cur, err)
		return models.CredentialPair{}, err
	}

	// Бэкенд без ротации может не прислать refresh-токен - оставляем прежний.
	if pair.RefreshToken == "" {
		pair.RefreshToken = cur.RefreshToken
	}

	if perr := c.sink.StoreRefreshed(rctx, cur, pair); perr != nil {
		l.Warn("refresh_persist_failed", slog.String("err", perr.Error()))
	}

	l.Info("refresh_succeeded")
	c.metrics.ObserveRefresh(metrics.RefreshSuccess)

	return pair, nil
}

// waiting - сколько запросов ждут текущее обновление.
func (c *Coordinator) waiting() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight == nil {
		return 0
	}

	return c.inflight.waiters
}

func (c *Coordinator) await(ctx context.Context, call *refreshCall) (decision, error) {
	select {
	case <-call.done:
	case <-ctx.Done():
		return failed, ctx.Err()
	}

	if call.err != nil {
		return failed, call.err
	}

	return replay, nil
}

// bufferBody читает тело один раз, чтобы повтор мог отправить его снова.
func bufferBody(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return nil
	}

	b, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return fmt.Errorf("interceptors.bufferBody: %w", err)
	}

	req.Body = io.NopCloser(bytes.NewReader(b))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	req.ContentLength = int64(len(b))

	return nil
}

func replayRequest(req *http.Request) (*http.Request, error) {
	ctx := markRetried(req.Context())
	out := req.Clone(ctx)

	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("interceptors.replayRequest: %w", err)
		}
		out.Body = body
	}

	return out, nil
}

// discard дочитывает и закрывает тело, чтобы соединение вернулось в пул.
func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	_ = resp.Body.Close()
}
