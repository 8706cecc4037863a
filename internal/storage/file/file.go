// file - KV поверх одного JSON-документа на диске.
//
// Каждая запись перечитывает документ, меняет его и атомарно заменяет файл
// (временный файл в том же каталоге + rename). Права 0600: в документе
// лежат токены.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pribylovaa/go-waste-client/internal/storage"
)

const filePerm = 0o600

type Storage struct {
	mu     sync.Mutex
	path   string
	closed bool
}

// New создаёт хранилище по пути path. Каталог создаётся при необходимости,
// сам файл появляется при первой записи.
func New(path string) (*Storage, error) {
	const op = "storage.file.New"

	if path == "" {
		return nil, fmt.Errorf("%s: empty path", op)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{path: path}, nil
}

func (s *Storage) Get(_ context.Context, key string) (string, error) {
	const op = "storage.file.Get"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", fmt.Errorf("%s: %w", op, storage.ErrClosed)
	}

	doc, err := s.load()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	v, ok := doc[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return v, nil
}

func (s *Storage) Set(_ context.Context, key, value string) error {
	const op = "storage.file.Set"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%s: %w", op, storage.ErrClosed)
	}

	doc, err := s.load()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	doc[key] = value
	if err := s.save(doc); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Delete(_ context.Context, keys ...string) error {
	const op = "storage.file.Delete"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%s: %w", op, storage.ErrClosed)
	}

	doc, err := s.load()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	changed := false
	for _, k := range keys {
		if _, ok := doc[k]; ok {
			delete(doc, k)
			changed = true
		}
	}

	if !changed {
		return nil
	}

	if err := s.save(doc); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// load читает документ; отсутствующий файл - пустой документ.
func (s *Storage) load() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	doc := map[string]string{}
	if len(b) == 0 {
		return doc, nil
	}

	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}

	return doc, nil
}

func (s *Storage) save(doc map[string]string) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".kv-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, filePerm); err != nil {
		return err
	}

	return os.Rename(tmpName, s.path)
}

// Проверка на соответствие интерфейсу KV.
var _ storage.KV = (*Storage)(nil)
