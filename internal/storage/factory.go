package storage

import (
	"fmt"

	"github.com/medlit/paperclass/internal/config"
)

// NewStorage creates the UploadStorage selected by configuration.
// Parameters:
//   - cfg: storage configuration.
// Returns:
//   - UploadStorage: initialized storage implementation.
//   - error: non-nil if the backend cannot be created.
func NewStorage(cfg *config.StorageConfig) (UploadStorage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg.Dir)
	case "s3":
		return NewS3Storage(&S3Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
		})
	default:
		return nil, fmt.Errorf("unknown storage type: %q", cfg.Type)
	}
}
