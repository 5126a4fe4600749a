package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// FileStore хранит каждую запись в отдельном файле match_{id}.json
type FileStore struct {
	dir string
}

// NewFileStore создает файловое хранилище. Каталог создаётся при первой записи.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	return &FileStore{dir: dir}, nil
}

// Dir возвращает корневой каталог кэша
func (s *FileStore) Dir() string {
	return s.dir
}

// Load читает запись матча
func (s *FileStore) Load(ctx context.Context, id int64) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read match %d: %w", id, err)
	}
	return data, true, nil
}

// Save атомарно записывает файл. Повторная запись того же id даёт тот же
// результат; она случается только при замене повреждённого файла.
func (s *FileStore) Save(ctx context.Context, id int64, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	target := s.path(id)

	tmp, err := os.CreateTemp(s.dir, ".match_"+strconv.FormatInt(id, 10)+"_*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write match %d: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("failed to store match %d: %w", id, err)
	}
	return nil
}

// Close ничего не делает, нужен для интерфейса RecordStore
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(id int64) string {
	return filepath.Join(s.dir, "match_"+strconv.FormatInt(id, 10)+".json")
}
