package storage

import (
	"context"
	"io"
)

type PutResult struct {
	Key      string
	Location string
	ETag     string
}

// ObjectStorage - хранилище объектов для импорта расписаний и выгрузки
// снимков таблиц. Get возвращает поток, закрывает его вызывающий.
type ObjectStorage interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	Put(ctx context.Context, key string, contentType string, reader io.Reader) (*PutResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}
