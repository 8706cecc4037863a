// memory - KV в памяти процесса. Для тестов и эфемерных сессий.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/pribylovaa/go-waste-client/internal/storage"
)

type Storage struct {
	mu     sync.RWMutex
	data   map[string]string
	closed bool
}

func New() *Storage {
	return &Storage{data: make(map[string]string)}
}

func (s *Storage) Get(_ context.Context, key string) (string, error) {
	const op = "storage.memory.Get"

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", fmt.Errorf("%s: %w", op, storage.ErrClosed)
	}

	v, ok := s.data[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return v, nil
}

func (s *Storage) Set(_ context.Context, key, value string) error {
	const op = "storage.memory.Set"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%s: %w", op, storage.ErrClosed)
	}

	s.data[key] = value
	return nil
}

func (s *Storage) Delete(_ context.Context, keys ...string) error {
	const op = "storage.memory.Delete"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%s: %w", op, storage.ErrClosed)
	}

	for _, k := range keys {
		delete(s.data, k)
	}

	return nil
}

// Len - число ключей; удобно в тестах.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// Проверка на соответствие интерфейсу KV.
var _ storage.KV = (*Storage)(nil)
