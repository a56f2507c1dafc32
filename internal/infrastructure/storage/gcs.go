// Package storage 提供对象存储实现
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"

	"bookforge-api/internal/config"
	apperrors "bookforge-api/pkg/errors"
)

var tracer = otel.Tracer("storage")

// GCSUploader Google Cloud Storage 上传器
type GCSUploader struct {
	client        *gcstorage.Client
	bucket        string
	publicBaseURL string
}

// NewGCSUploader 创建 GCS 上传器
func NewGCSUploader(ctx context.Context, cfg *config.GCSConfig) (*GCSUploader, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	publicBaseURL := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if publicBaseURL == "" {
		publicBaseURL = "https://storage.googleapis.com/" + cfg.Bucket
	}

	return &GCSUploader{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: publicBaseURL,
	}, nil
}

// Upload 写入对象并返回公开访问 URL
func (u *GCSUploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ctx, span := tracer.Start(ctx, "storage.Upload",
		trace.WithAttributes(
			attribute.String("storage.bucket", u.bucket),
			attribute.String("storage.key", key),
			attribute.Int("storage.bytes", len(data)),
		))
	defer span.End()

	writeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	w := u.client.Bucket(u.bucket).Object(key).NewWriter(writeCtx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		span.RecordError(err)
		_ = w.Close()
		return "", apperrors.Wrap(err, apperrors.CodeStorageError, "Failed to write object")
	}
	if err := w.Close(); err != nil {
		span.RecordError(err)
		return "", apperrors.Wrap(err, apperrors.CodeStorageError, "Failed to finalize object")
	}

	return u.PublicURL(key), nil
}

// PublicURL 返回对象的公开访问 URL
func (u *GCSUploader) PublicURL(key string) string {
	return u.publicBaseURL + "/" + strings.TrimPrefix(key, "/")
}

// Close 关闭存储客户端
func (u *GCSUploader) Close() error {
	return u.client.Close()
}

// CoverObjectKey 生成封面对象键：{userID}/{projectID}/cover_<毫秒时间戳>.png
func CoverObjectKey(userID, projectID string) string {
	return fmt.Sprintf("%s/%s/cover_%d.png", userID, projectID, time.Now().UnixMilli())
}
