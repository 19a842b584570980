package storage

import (
	"context"
	"time"
)

// IS3Client интерфейс для работы с S3-совместимым хранилищем (MinIO)
type IS3Client interface {
	GetPresignedURL(ctx context.Context, path string, expires time.Duration) (string, error)
}

// IImageResolver превращает ссылку на картинку товара в публичный URL
type IImageResolver interface {
	ResolveImageURL(ctx context.Context, ref string) (string, error)
}
