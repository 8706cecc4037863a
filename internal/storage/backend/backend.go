// backend выбирает реализацию storage.KV по конфигурации.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/pribylovaa/go-waste-client/internal/config"
	"github.com/pribylovaa/go-waste-client/internal/storage"
	"github.com/pribylovaa/go-waste-client/internal/storage/file"
	"github.com/pribylovaa/go-waste-client/internal/storage/memory"
	"github.com/pribylovaa/go-waste-client/internal/storage/postgres"
	"github.com/pribylovaa/go-waste-client/internal/storage/redis"
)

const (
	Memory   = "memory"
	File     = "file"
	Redis    = "redis"
	Postgres = "postgres"
)

// Open создаёт хранилище: memory | file | redis | postgres.
// Для postgres схема создаётся сразу, чтобы первый Set не упал на отсутствии таблицы.
func Open(ctx context.Context, cfg *config.Config) (storage.KV, error) {
	const op = "storage.backend.Open"

	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Backend)) {
	case Memory:
		return memory.New(), nil

	case File, "":
		st, err := file.New(cfg.Storage.FilePath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return st, nil

	case Redis:
		st, err := redis.New(ctx, cfg.Redis.URL, cfg.Redis.Prefix)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return st, nil

	case Postgres:
		st, err := postgres.New(ctx, cfg.DB.URL)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := st.EnsureSchema(ctx); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return st, nil
	}

	return nil, fmt.Errorf("%s: unknown storage backend %q", op, cfg.Storage.Backend)
}
