package kvstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
)

// GCSStore keeps one object per key in a Cloud Storage bucket. An object
// write only becomes visible when the writer is closed, which gives the same
// whole-value replace semantics as the local backends.
//
// It assumes Application Default Credentials are configured
// (gcloud auth application-default login).
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore creates a storage client bound to bucket. prefix is an
// optional object path prefix such as "backups/2026-10-15".
func NewGCSStore(ctx context.Context, bucket, prefix string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewGCSStore: GCS_BUCKET is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSStore: create storage client: %w", err)
	}
	return &GCSStore{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

// ObjectURI returns the gs:// URI a key is stored under.
func (s *GCSStore) ObjectURI(key string) string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, s.objectName(key))
}

// Get implements Store.
func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	rc, err := s.client.Bucket(s.bucket).Object(s.objectName(key)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("GCSStore.Get: open %s: %w", s.ObjectURI(key), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, fmt.Errorf("GCSStore.Get: read %s: %w", s.ObjectURI(key), err)
	}
	return data, true, nil
}

// Set implements Store.
func (s *GCSStore) Set(ctx context.Context, key string, value []byte) error {
	w := s.client.Bucket(s.bucket).Object(s.objectName(key)).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(value); err != nil {
		_ = w.Close()
		return fmt.Errorf("GCSStore.Set: write %s: %w", s.ObjectURI(key), err)
	}

	// Close finalizes the upload
	if err := w.Close(); err != nil {
		return fmt.Errorf("GCSStore.Set: finalize %s: %w", s.ObjectURI(key), err)
	}
	return nil
}

// Remove implements Store.
func (s *GCSStore) Remove(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(s.objectName(key)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("GCSStore.Remove: %s: %w", s.ObjectURI(key), err)
	}
	return nil
}

// Close implements Backend.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) objectName(key string) string {
	if s.prefix == "" {
		return fileName(key)
	}
	return path.Join(s.prefix, fileName(key))
}

var _ Backend = (*GCSStore)(nil)
