package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"bookstore_backend/internal/feature/access/usecase"
)

const firebaseStorageHost = "firebasestorage.googleapis.com"

// GCSConfig configures the signer. CredentialsFile and SignerEmail are
// optional; without them the client falls back to Application Default
// Credentials and signs through the IAM credentials API.
type GCSConfig struct {
	Bucket          string
	CredentialsFile string
	SignerEmail     string
}

// bucketSigner is satisfied by *storage.BucketHandle.
type bucketSigner interface {
	SignedURL(object string, opts *storage.SignedURLOptions) (string, error)
}

// GCSSigner issues V4 signed GET URLs for objects in one bucket.
// Firebase Storage buckets are plain GCS buckets, so stored Firebase download
// URLs are accepted and reduced to their object key.
type GCSSigner struct {
	client     *storage.Client
	bucket     bucketSigner
	bucketName string
	accessID   string
}

var _ usecase.ObjectSigner = (*GCSSigner)(nil)

// NewGCSSigner opens a storage client for cfg.Bucket. Close releases it.
func NewGCSSigner(ctx context.Context, cfg GCSConfig) (*GCSSigner, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs signer: bucket is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs signer: create client: %w", err)
	}
	s := newGCSSigner(client.Bucket(cfg.Bucket), cfg.Bucket, cfg.SignerEmail)
	s.client = client
	return s, nil
}

func newGCSSigner(bucket bucketSigner, bucketName, accessID string) *GCSSigner {
	return &GCSSigner{
		bucket:     bucket,
		bucketName: bucketName,
		accessID:   accessID,
	}
}

// SignedURL returns a read-only, inline-disposition URL valid until expires.
func (s *GCSSigner) SignedURL(ctx context.Context, objectKey string, expires time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := s.normalizeKey(objectKey)
	if err != nil {
		return "", err
	}

	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: expires,
		QueryParameters: url.Values{
			"response-content-disposition": {"inline"},
			"response-content-type":        {"application/pdf"},
		},
		GoogleAccessID: s.accessID,
	}
	signed, err := s.bucket.SignedURL(key, opts)
	if err != nil {
		return "", fmt.Errorf("sign %q: %w", key, err)
	}
	return signed, nil
}

// Close releases the underlying client, if any.
func (s *GCSSigner) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// normalizeKey accepts a bare object key, a gs:// URI, a storage.googleapis.com
// URL or a Firebase download URL, all of which must point into s.bucketName.
func (s *GCSSigner) normalizeKey(path string) (string, error) {
	path = strings.TrimSpace(path)

	switch {
	case strings.HasPrefix(path, "gs://"):
		rest := strings.TrimPrefix(path, "gs://")
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket != s.bucketName {
			return "", fmt.Errorf("object %q is outside bucket %q", path, s.bucketName)
		}
		path = key

	case strings.HasPrefix(path, "https://"), strings.HasPrefix(path, "http://"):
		u, err := url.Parse(path)
		if err != nil {
			return "", fmt.Errorf("parse object url: %w", err)
		}
		var bucket, key string
		if u.Host == firebaseStorageHost {
			// /v0/b/<bucket>/o/<escaped key>
			rest, ok := strings.CutPrefix(u.EscapedPath(), "/v0/b/")
			if !ok {
				return "", fmt.Errorf("unrecognized firebase url %q", path)
			}
			var escaped string
			bucket, escaped, ok = strings.Cut(rest, "/o/")
			if !ok {
				return "", fmt.Errorf("unrecognized firebase url %q", path)
			}
			if key, err = url.PathUnescape(escaped); err != nil {
				return "", fmt.Errorf("unescape object key: %w", err)
			}
		} else {
			bucket, key, _ = strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		}
		if bucket != s.bucketName {
			return "", fmt.Errorf("object %q is outside bucket %q", path, s.bucketName)
		}
		path = key
	}

	path = strings.TrimLeft(path, "/")
	if path == "" {
		return "", fmt.Errorf("empty object key: %w", usecase.ErrAssetMissing)
	}
	return path, nil
}
