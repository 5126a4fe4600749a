package storage

import "context"

// RecordStore хранилище сериализованных записей матчей.
// Записи неизменяемы: сохранённое значение никогда не перезаписывается.
type RecordStore interface {
	// Load возвращает (nil, false, nil), если записи нет
	Load(ctx context.Context, id int64) ([]byte, bool, error)
	Save(ctx context.Context, id int64, data []byte) error
	Close() error
}
