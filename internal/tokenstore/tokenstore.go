// tokenstore - единственный источник правды о паре токенов клиента.
//
// Кэш в памяти авторитетен: Current читает только его и никогда не ходит
// в хранилище. Долговременное хранилище (storage.KV) - пассивное зеркало,
// которое читается один раз в Initialize.
//
// Порядок операций:
//   - Set/Clear меняют кэш синхронно, затем пишут в хранилище;
//   - записи в хранилище сериализуются в том же порядке, что и обновления кэша;
//   - ошибка записи возвращается вызывающему, кэш при этом не откатывается.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pribylovaa/go-waste-client/internal/models"
	"github.com/pribylovaa/go-waste-client/internal/storage"
)

// DefaultNamespace - префикс ключей в хранилище.
const DefaultNamespace = "wasteapp"

var (
	// ErrPartialPair - попытка сохранить пару без access или refresh токена.
	ErrPartialPair = errors.New("partial credential pair")
)

// Options - параметры Store.
type Options struct {
	// Namespace - префикс ключей; пустой => DefaultNamespace.
	Namespace string
	Logger    *slog.Logger
}

// Keys - три ключа пары в хранилище.
type Keys struct {
	Access    string
	Refresh   string
	TokenType string
}

func keysFor(ns string) Keys {
	return Keys{
		Access:    ns + ".access_token",
		Refresh:   ns + ".refresh_token",
		TokenType: ns + ".token_type",
	}
}

func (k Keys) all() []string { return []string{k.Access, k.Refresh, k.TokenType} }

type Store struct {
	kv   storage.KV
	keys Keys
	log  *slog.Logger

	// persistMu сериализует записи в kv; берётся раньше memMu.
	persistMu sync.Mutex

	memMu sync.RWMutex
	pair  models.CredentialPair
	has   bool
}

// New создаёт Store поверх kv. Перед авторизованными запросами нужно вызвать Initialize.
func New(kv storage.KV, opts Options) *Store {
	ns := opts.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}

	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}

	return &Store{
		kv:   kv,
		keys: keysFor(ns),
		log:  l.With(slog.String("component", "tokenstore")),
	}
}

// Keys возвращает ключи, под которыми пара лежит в хранилище.
func (s *Store) Keys() Keys { return s.keys }

// Initialize перечитывает пару из хранилища и перезаписывает кэш.
// Возвращает true, если найдена пригодная пара (оба токена непустые).
// Отсутствие любого из трёх ключей означает "сессии нет".
func (s *Store) Initialize(ctx context.Context) (bool, error) {
	const op = "tokenstore.Initialize"

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	pair, err := s.load(ctx)
	if err != nil {
		s.setCache(models.CredentialPair{}, false)

		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	if !pair.Usable() {
		if !pair.Empty() {
			s.log.Warn("partial_pair_ignored", slog.String("op", op))
		}
		s.setCache(models.CredentialPair{}, false)
		return false, nil
	}

	s.setCache(pair, true)
	return true, nil
}

func (s *Store) load(ctx context.Context) (models.CredentialPair, error) {
	access, err := s.kv.Get(ctx, s.keys.Access)
	if err != nil {
		return models.CredentialPair{}, err
	}

	refresh, err := s.kv.Get(ctx, s.keys.Refresh)
	if err != nil {
		return models.CredentialPair{}, err
	}

	kind, err := s.kv.Get(ctx, s.keys.TokenType)
	if err != nil {
		return models.CredentialPair{}, err
	}

	return models.CredentialPair{
		TokenType:    kind,
		AccessToken:  access,
		RefreshToken: refresh,
	}.Normalized(), nil
}

// Current - синхронное чтение кэша. Хранилище не трогает.
func (s *Store) Current() (models.CredentialPair, bool) {
	s.memMu.RLock()
	defer s.memMu.RUnlock()

	return s.pair, s.has
}

// Set заменяет пару целиком. К возврату из Set пара уже видна через Current,
// даже если запись в хранилище завершилась ошибкой.
func (s *Store) Set(ctx context.Context, pair models.CredentialPair) error {
	const op = "tokenstore.Set"

	if !pair.Usable() {
		return fmt.Errorf("%s: %w", op, ErrPartialPair)
	}
	pair = pair.Normalized()

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.setCache(pair, true)

	if err := s.persist(ctx, pair); err != nil {
		s.log.Warn("token_persist_failed", slog.String("op", op), slog.String("err", err.Error()))

		// Хранилище может держать ключи двух разных пар: стираем все три,
		// чтобы следующий Initialize увидел либо целую пару, либо ничего.
		if derr := s.kv.Delete(ctx, s.keys.all()...); derr != nil {
			s.log.Warn("token_erase_failed", slog.String("op", op), slog.String("err", derr.Error()))
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Store) persist(ctx context.Context, pair models.CredentialPair) error {
	if err := s.kv.Set(ctx, s.keys.TokenType, pair.TokenType); err != nil {
		return err
	}

	if err := s.kv.Set(ctx, s.keys.Refresh, pair.RefreshToken); err != nil {
		return err
	}

	return s.kv.Set(ctx, s.keys.Access, pair.AccessToken)
}

// Clear синхронно очищает кэш и стирает все три ключа.
// На пустом хранилище это no-op: отсутствующие ключи ошибкой не считаются.
func (s *Store) Clear(ctx context.Context) error {
	const op = "tokenstore.Clear"

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.setCache(models.CredentialPair{}, false)

	if err := s.kv.Delete(ctx, s.keys.all()...); err != nil {
		s.log.Warn("token_erase_failed", slog.String("op", op), slog.String("err", err.Error()))
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает хранилище. Кэш остаётся доступным на чтение.
func (s *Store) Close() error {
	return s.kv.Close()
}

func (s *Store) setCache(pair models.CredentialPair, has bool) {
	s.memMu.Lock()
	s.pair, s.has = pair, has
	s.memMu.Unlock()
}
