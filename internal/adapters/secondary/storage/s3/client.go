package s3

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// SchemePrefix ссылка на объект в бакете вместо публичного URL
const SchemePrefix = "s3://"

// Client обёртка над minio.Client для выдачи ссылок на картинки товаров
type Client struct {
	client     *minio.Client
	bucket     string
	presignTTL time.Duration
	log        *slog.Logger
}

// NewClient создаёт новый S3 клиент
func NewClient(client *minio.Client, bucket string, presignTTL time.Duration, log *slog.Logger) *Client {
	return &Client{
		client:     client,
		bucket:     bucket,
		presignTTL: presignTTL,
		log:        log,
	}
}

// GetPresignedURL генерирует presigned URL для файла
func (c *Client) GetPresignedURL(ctx context.Context, path string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = 5 * time.Minute // дефолтный TTL
	}

	url, err := c.client.PresignedGetObject(ctx, c.bucket, path, expires, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL for %s: %w", path, err)
	}

	return url.String(), nil
}

// ResolveImageURL s3://ключ превращает в presigned URL, остальные ссылки отдаёт как есть
func (c *Client) ResolveImageURL(ctx context.Context, ref string) (string, error) {
	key, ok := strings.CutPrefix(ref, SchemePrefix)
	if !ok {
		return ref, nil
	}
	// s3://bucket/key - бакет в ссылке игнорируется, используется настроенный
	if i := strings.IndexByte(key, '/'); i >= 0 && key[:i] == c.bucket {
		key = key[i+1:]
	}

	url, err := c.GetPresignedURL(ctx, key, c.presignTTL)
	if err != nil {
		c.log.Warn("failed to presign image", "error", err, "key", key)
		return "", err
	}
	return url, nil
}

// PassthroughResolver используется, когда S3 не настроен: ссылки не меняются
type PassthroughResolver struct{}

func (PassthroughResolver) ResolveImageURL(_ context.Context, ref string) (string, error) {
	if strings.HasPrefix(ref, SchemePrefix) {
		return "", fmt.Errorf("object storage is not configured for %s", ref)
	}
	return ref, nil
}
