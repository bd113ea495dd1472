package di

import (
	"context"

	accessadapters "bookstore_backend/internal/feature/access/adapters"
	"bookstore_backend/internal/platform/config"
)

// NewObjectSigner creates the GCS signer for the configured bucket.
// The caller owns Close.
func NewObjectSigner(ctx context.Context, cfg config.StorageConfig) (*accessadapters.GCSSigner, error) {
	return accessadapters.NewGCSSigner(ctx, accessadapters.GCSConfig{
		Bucket:          cfg.Bucket,
		CredentialsFile: cfg.CredentialsFile,
		SignerEmail:     cfg.SignerEmail,
	})
}
