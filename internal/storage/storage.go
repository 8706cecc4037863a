package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound - ключ отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrNotInitialized - схема хранилища не создана (таблица отсутствует).
	ErrNotInitialized = errors.New("storage not initialized")
	// ErrClosed - хранилище уже закрыто.
	ErrClosed = errors.New("storage closed")
)

//go:generate mockgen -source=storage.go -destination=../../mocks/mock_storage.go -package=mocks

// KV задает контракт долговременного хранилища строковых значений.
// Используется TokenStore как пассивное зеркало пары токенов.
type KV interface {
	// Get возвращает значение по ключу или ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set сохраняет значение, перезаписывая предыдущее.
	Set(ctx context.Context, key, value string) error
	// Delete удаляет ключи; отсутствующие ключи ошибкой не считаются.
	Delete(ctx context.Context, keys ...string) error
	// Close освобождает ресурсы хранилища.
	Close() error
}
