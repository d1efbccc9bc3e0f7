package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// Uploader stores a finished report and returns where it went.
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
}

// GCSUploader writes reports to a Cloud Storage bucket.
// It assumes Application Default Credentials are configured
// (gcloud auth application-default login).
type GCSUploader struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSUploader creates a storage client bound to bucket. Objects are
// written under prefix.
func NewGCSUploader(ctx context.Context, bucket, prefix string) (*GCSUploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewGCSUploader: bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSUploader: create storage client: %w", err)
	}
	return &GCSUploader{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// Upload implements Uploader.
func (u *GCSUploader) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	object := name
	if u.prefix != "" {
		object = path.Join(u.prefix, name)
	}
	uri := fmt.Sprintf("gs://%s/%s", u.bucket, object)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := u.client.Bucket(u.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "application/pdf"

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("GCSUploader.Upload: copy to %s: %w", uri, err)
	}
	// Close finalizes the upload
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("GCSUploader.Upload: finalize %s: %w", uri, err)
	}
	return uri, nil
}

// Close releases the storage client.
func (u *GCSUploader) Close() error {
	return u.client.Close()
}

// Publish renders report as a PDF and uploads it under name.
func Publish(ctx context.Context, up Uploader, report Report, name string) (string, error) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, report); err != nil {
		return "", fmt.Errorf("Publish: %w", err)
	}
	location, err := up.Upload(ctx, name, &buf)
	if err != nil {
		return "", fmt.Errorf("Publish: %w", err)
	}
	return location, nil
}

var _ Uploader = (*GCSUploader)(nil)
