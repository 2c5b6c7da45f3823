package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"inkwell/internal/config"
	"inkwell/internal/logging"
)

// UploadKind 上传场景，决定大小上限和存储前缀
type UploadKind int

const (
	KindThumbnail UploadKind = iota // 文章缩略图
	KindBranding                    // 站点 logo / favicon
)

const (
	// 客户端侧大小上限：缩略图 5MB，品牌图 2MB
	MaxThumbnailSize = 5 * 1024 * 1024
	MaxBrandingSize  = 2 * 1024 * 1024
)

var (
	ErrUploadTooLarge = errors.New("file exceeds the size limit")
	ErrNotAnImage     = errors.New("file must declare an image content type")
	ErrUploadDisabled = errors.New("object storage is not configured")
)

// UploadService MinIO 对象存储封装，上传后返回可公开访问的 URL
type UploadService struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewUploadService 连接对象存储；未配置时返回 (nil, nil)，后台会提示上传不可用
func NewUploadService(cfg *config.StorageConfig) (*UploadService, error) {
	if !cfg.Enabled {
		logging.WithComponent("upload").Info("Object storage disabled: no storage_endpoint")
		return nil, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
	}

	return &UploadService{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

// sizeLimit 按场景返回大小上限
func sizeLimit(kind UploadKind) int64 {
	if kind == KindBranding {
		return MaxBrandingSize
	}
	return MaxThumbnailSize
}

func kindPrefix(kind UploadKind) string {
	if kind == KindBranding {
		return "branding"
	}
	return "thumbnails"
}

// ValidateUpload 在发起任何网络请求之前检查大小和 MIME 类型。
// 这是客户端侧约束：存储服务本身不做这层校验。
func ValidateUpload(header *multipart.FileHeader, kind UploadKind) error {
	if header.Size > sizeLimit(kind) {
		return ErrUploadTooLarge
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return ErrNotAnImage
	}
	return nil
}

// Upload 校验并上传一个图片文件，返回公开 URL
func (s *UploadService) Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader, kind UploadKind) (string, error) {
	if s == nil || s.client == nil {
		return "", ErrUploadDisabled
	}
	if err := ValidateUpload(header, kind); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	objectName := fmt.Sprintf("%s/%s%s", kindPrefix(kind), uuid.NewString(), ext)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, file, header.Size, minio.PutObjectOptions{
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, objectName), nil
}
