package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pribylovaa/go-waste-client/internal/storage"
)

// Schema - DDL таблицы client_kv.
const Schema = `
CREATE TABLE IF NOT EXISTS client_kv (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type Storage struct {
	db *pgxpool.Pool
}

// New создает новое подключение к PostgreSQL.
func New(ctx context.Context, dbURL string) (*Storage, error) {
	const op = "storage.postgres.New"

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

// EnsureSchema создаёт таблицу client_kv, если её нет.
func (s *Storage) EnsureSchema(ctx context.Context) error {
	const op = "storage.postgres.EnsureSchema"

	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Get(ctx context.Context, key string) (string, error) {
	const op = "storage.postgres.Get"

	query := `SELECT value FROM client_kv WHERE key = $1`

	var value string
	err := s.db.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, mapError(err))
	}

	return value, nil
}

func (s *Storage) Set(ctx context.Context, key, value string) error {
	const op = "storage.postgres.Set"

	query := `
        INSERT INTO client_kv(key, value, updated_at)
        VALUES ($1, $2, now())
        ON CONFLICT (key) DO UPDATE
        SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
    `

	if _, err := s.db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}

	return nil
}

func (s *Storage) Delete(ctx context.Context, keys ...string) error {
	const op = "storage.postgres.Delete"

	if len(keys) == 0 {
		return nil
	}

	query := `DELETE FROM client_kv WHERE key = ANY($1)`

	if _, err := s.db.Exec(ctx, query, keys); err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}

	return nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	s.db.Close()
	return nil
}

// mapError переводит "таблицы нет" в storage.ErrNotInitialized.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return storage.ErrNotInitialized
	}

	return err
}

// Проверка на соответствие интерфейсу KV.
var _ storage.KV = (*Storage)(nil)
