// session - публичный жизненный цикл аутентификации клиента.
//
// Session владеет хранилищем токенов и собирает HTTP-пайплайн:
//
//	transport -> bypass-цепочка -> auth-клиент обновления
//	transport -> enriched-цепочка (Refresh + Credentials) -> auth/доменные клиенты
//
// Coordinator обращается к хранилищу только через методы Session
// (storeRefreshed, invalidate), поэтому Set/Clear вызывает только Session.
// Наблюдаемое состояние (State) меняется только здесь.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pribylovaa/go-waste-client/internal/clients"
	"github.com/pribylovaa/go-waste-client/internal/clients/auth"
	"github.com/pribylovaa/go-waste-client/internal/clients/interceptors"
	"github.com/pribylovaa/go-waste-client/internal/clients/rest"
	"github.com/pribylovaa/go-waste-client/internal/metrics"
	"github.com/pribylovaa/go-waste-client/internal/models"
	"github.com/pribylovaa/go-waste-client/internal/pkg/redact"
	"github.com/pribylovaa/go-waste-client/internal/tokenstore"
)

// Сообщения состояния, которые видит UI.
const (
	MsgNotVerified        = "session could not be verified"
	MsgInvalidCredentials = "invalid credentials"
	MsgExpired            = "session expired"
)

var (
	// ErrInvalidCredentials - вход/регистрация не удались (любая причина).
	ErrInvalidCredentials = errors.New(MsgInvalidCredentials)
	// ErrSessionNotVerified - сохранённую пару не удалось подтвердить через /me.
	ErrSessionNotVerified = errors.New(MsgNotVerified)
	// ErrSessionChanged - пока операция шла, сессию сменили (выход, новый вход).
	ErrSessionChanged = errors.New("session changed")
	// ErrClosed - Session уже закрыта.
	ErrClosed = errors.New("session closed")
)

// TokenStore - то, что Session требует от хранилища пары. tokenstore.Store удовлетворяет.
type TokenStore interface {
	Initialize(ctx context.Context) (bool, error)
	Current() (models.CredentialPair, bool)
	Set(ctx context.Context, pair models.CredentialPair) error
	Clear(ctx context.Context) error
	Close() error
}

// State - наблюдаемое состояние сессии.
// Authenticated == true только если пара есть и /me с ней успешен.
type State struct {
	Loading       bool             `json:"loading"`
	Authenticated bool             `json:"authenticated"`
	Identity      *models.Identity `json:"identity,omitempty"`
	Error         string           `json:"error,omitempty"`
}

func (s State) clone() State {
	if s.Identity != nil {
		id := *s.Identity
		id.Roles = append([]string(nil), s.Identity.Roles...)
		s.Identity = &id
	}

	return s
}

// Options - параметры пайплайна.
type Options struct {
	BaseURL        string
	UserAgent      string
	RequestTimeout time.Duration
	RefreshTimeout time.Duration
	// Transport - nil => clients.NewTransport().
	Transport interceptors.Doer
	Logger    *slog.Logger
	Metrics   *metrics.Client
}

type Session struct {
	store  TokenStore
	auth   *auth.Client
	client interceptors.Doer
	log    *slog.Logger

	// opMu сериализует изменения хранилища вместе с проверкой поколения.
	opMu sync.Mutex

	mu      sync.Mutex
	state   State
	gen     uint64
	subs    map[uint64]chan State
	nextSub uint64
	closed  bool
}

// New собирает Session и пайплайн вокруг store. Перед использованием - Initialize.
func New(store TokenStore, opts Options) *Session {
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}

	transport := opts.Transport
	if transport == nil {
		transport = clients.NewTransport()
	}

	s := &Session{
		store: store,
		log:   l.With(slog.String("component", "session")),
		subs:  make(map[uint64]chan State),
	}

	base := clients.ChainConfig{
		Transport: transport,
		UserAgent: opts.UserAgent,
		Logger:    l,
		Metrics:   opts.Metrics,
	}

	bypassCfg := base
	bypassCfg.Timeout = opts.RefreshTimeout
	refresher := auth.New(rest.New(clients.Bypass(bypassCfg), opts.BaseURL))

	coord := interceptors.NewCoordinator(interceptors.CoordinatorConfig{
		Source:    store,
		Refresher: refresher,
		Sink:      sink{s: s},
		Metrics:   opts.Metrics,
	})

	enrichedCfg := base
	enrichedCfg.Timeout = opts.RequestTimeout
	s.client = clients.Enriched(enrichedCfg, coord, store)
	s.auth = auth.New(rest.New(s.client, opts.BaseURL))

	return s
}

// Client - обогащённый Doer для доменных модулей.
func (s *Session) Client() interceptors.Doer { return s.client }

// State - снимок текущего состояния.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.clone()
}

// Initialize поднимает сессию из хранилища.
//   - пары нет - {authenticated:false};
//   - пара есть и /me успешен - {authenticated:true, identity};
//   - иначе хранилище очищается, {authenticated:false, error:"session could not be verified"}.
func (s *Session) Initialize(ctx context.Context) (State, error) {
	const op = "session.Initialize"

	g, err := s.begin()
	if err != nil {
		return s.State(), fmt.Errorf("%s: %w", op, err)
	}

	found, err := s.store.Initialize(ctx)
	if err != nil {
		s.log.Warn("session_restore_failed", slog.String("op", op), slog.String("err", err.Error()))
		s.fail(ctx, g, MsgNotVerified)
		return s.State(), fmt.Errorf("%s: %w: %w", op, ErrSessionNotVerified, err)
	}

	if !found {
		s.commit(g, State{})
		s.log.Debug("session_absent", slog.String("op", op))
		return s.State(), nil
	}

	id, err := s.auth.Me(ctx)
	if err != nil {
		s.log.Info("session_not_verified", slog.String("op", op), slog.String("err", err.Error()))
		s.fail(ctx, g, MsgNotVerified)
		return s.State(), fmt.Errorf("%s: %w: %w", op, ErrSessionNotVerified, err)
	}

	if !s.commit(g, State{Authenticated: true, Identity: id}) {
		return s.State(), fmt.Errorf("%s: %w", op, ErrSessionChanged)
	}

	s.log.Info("session_restored", slog.String("op", op), slog.Int64("user_id", id.ID))
	return s.State(), nil
}

// Login - вход по email/паролю. Любой сбой (неверные данные, сеть, /me)
// очищает сессию и даёт {authenticated:false, error:"invalid credentials"}.
func (s *Session) Login(ctx context.Context, creds models.LoginRequest) error {
	const op = "session.Login"

	return s.signIn(ctx, op, creds.Email, func(ctx context.Context) (models.CredentialPair, error) {
		return s.auth.Login(ctx, creds)
	})
}

// Register - регистрация; тот же поток, что и Login.
func (s *Session) Register(ctx context.Context, req models.RegisterRequest) error {
	const op = "session.Register"

	return s.signIn(ctx, op, req.Email, func(ctx context.Context) (models.CredentialPair, error) {
		return s.auth.Register(ctx, req)
	})
}

func (s *Session) signIn(ctx context.Context, op, email string, issue func(context.Context) (models.CredentialPair, error)) error {
	l := s.log.With(slog.String("op", op), slog.String("email", redact.Email(email)))

	g, err := s.begin()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	pair, err := issue(ctx)
	if err != nil {
		l.Info("login_failed", slog.String("err", err.Error()))
		s.fail(ctx, g, MsgInvalidCredentials)
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidCredentials, err)
	}

	if err := s.storeIssued(ctx, g, pair); err != nil {
		l.Info("login_failed", slog.String("err", err.Error()))
		if !errors.Is(err, ErrSessionChanged) {
			s.fail(ctx, g, MsgInvalidCredentials)
		}
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidCredentials, err)
	}

	id, err := s.auth.Me(ctx)
	if err != nil {
		l.Info("login_failed", slog.String("err", err.Error()))
		s.fail(ctx, g, MsgInvalidCredentials)
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidCredentials, err)
	}

	if !s.commit(g, State{Authenticated: true, Identity: id}) {
		return fmt.Errorf("%s: %w", op, ErrSessionChanged)
	}

	l.Info("login_succeeded", slog.Int64("user_id", id.ID))
	return nil
}

// storeIssued сохраняет пару, если за время вызова не было выхода или нового входа.
// Сбой долговременной записи не фатален: кэш уже обновлён, хранилище само его логирует.
func (s *Session) storeIssued(ctx context.Context, g uint64, pair models.CredentialPair) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if !s.isCurrent(g) {
		return ErrSessionChanged
	}

	if err := s.store.Set(ctx, pair); errors.Is(err, tokenstore.ErrPartialPair) {
		return err
	}

	return nil
}

// Logout очищает сессию локально; бэкенд не нужен. Ошибки записи только логируются.
func (s *Session) Logout(ctx context.Context) {
	const op = "session.Logout"

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		s.log.Warn("token_erase_failed", slog.String("op", op), slog.String("err", err.Error()))
	}

	s.mu.Lock()
	s.gen++
	s.setStateLocked(State{})
	s.mu.Unlock()

	s.log.Info("logout", slog.String("op", op))
}

// Subscribe возвращает канал состояний. Подписчик сразу получает текущее
// состояние, затем только последнее: медленный читатель пропускает промежуточные.
// cancel отписывает и закрывает канал.
func (s *Session) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.state.clone()
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}

	return ch, cancel
}

// Close закрывает подписки и хранилище. Кэш пары не очищается.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	for id, c := range s.subs {
		delete(s.subs, id)
		close(c)
	}
	s.mu.Unlock()

	return s.store.Close()
}

// begin открывает новое поколение операции и выставляет Loading.
func (s *Session) begin() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	s.gen++
	next := s.state
	next.Loading = true
	next.Error = ""
	s.setStateLocked(next)

	return s.gen, nil
}

func (s *Session) isCurrent(g uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.gen == g
}

// commit применяет итог операции g, если её не вытеснила более новая.
func (s *Session) commit(g uint64, st State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != g {
		return false
	}

	s.setStateLocked(st)
	return true
}

// fail очищает хранилище и выставляет ошибку, если операция g всё ещё актуальна.
func (s *Session) fail(ctx context.Context, g uint64, msg string) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if !s.isCurrent(g) {
		return
	}

	if err := s.store.Clear(ctx); err != nil {
		s.log.Warn("token_erase_failed", slog.String("err", err.Error()))
	}

	s.commit(g, State{Error: msg})
}

// setStateLocked публикует состояние подписчикам. Вызывается под s.mu.
func (s *Session) setStateLocked(st State) {
	s.state = st

	for _, c := range s.subs {
		// Канал с буфером 1: выбрасываем устаревшее значение, кладём новое.
		select {
		case <-c:
		default:
		}
		c <- st.clone()
	}
}

// storeRefreshed - новая пара от Coordinator. Применяется, только если
// сессия всё ещё та, чей refresh-токен обновлялся.
func (s *Session) storeRefreshed(ctx context.Context, prev, next models.CredentialPair) error {
	const op = "session.storeRefreshed"

	s.opMu.Lock()
	defer s.opMu.Unlock()

	cur, ok := s.store.Current()
	if !ok || cur.RefreshToken != prev.RefreshToken {
		s.log.Info("refresh_result_dropped", slog.String("op", op))
		return fmt.Errorf("%s: %w", op, ErrSessionChanged)
	}

	if err := s.store.Set(ctx, next); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// invalidate - обновление не удалось: сессия сбрасывается.
func (s *Session) invalidate(ctx context.Context, prev models.CredentialPair, cause error) {
	const op = "session.invalidate"

	s.opMu.Lock()
	defer s.opMu.Unlock()

	cur, ok := s.store.Current()
	if !ok || cur.RefreshToken != prev.RefreshToken {
		// Пока шло обновление, пользователь вышел или вошёл заново.
		return
	}

	if err := s.store.Clear(ctx); err != nil {
		s.log.Warn("token_erase_failed", slog.String("op", op), slog.String("err", err.Error()))
	}

	s.mu.Lock()
	next := State{Error: MsgExpired}
	if s.state.Loading {
		// Вход/инициализация в процессе: итог выставит она сама.
		next.Loading = true
	}
	s.setStateLocked(next)
	s.mu.Unlock()

	s.log.Warn("session_invalidated", slog.String("op", op), slog.String("err", cause.Error()))
}

// sink адаптирует Session к interceptors.SessionSink, не делая методы публичными.
type sink struct{ s *Session }

func (k sink) StoreRefreshed(ctx context.Context, prev, next models.CredentialPair) error {
	return k.s.storeRefreshed(ctx, prev, next)
}

func (k sink) Invalidate(ctx context.Context, prev models.CredentialPair, cause error) {
	k.s.invalidate(ctx, prev, cause)
}

var _ interceptors.SessionSink = sink{}
