package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUploader struct {
	objects map[string][]byte
	err     error
}

func (m *memUploader) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[name] = data
	return "mem://" + name, nil
}

func TestPublish(t *testing.T) {
	up := &memUploader{}
	report := Report{Title: "Expense Report - January 2026", GeneratedAt: time.Date(2026, 1, 7, 12, 0, 0, 0, ist)}

	uri, err := Publish(context.Background(), up, report, FileName("2026-01", report.GeneratedAt))
	require.NoError(t, err)
	assert.Equal(t, "mem://UPI_Tracker_2026-01.pdf", uri)
	assert.True(t, bytes.HasPrefix(up.objects["UPI_Tracker_2026-01.pdf"], []byte("%PDF-")))
}

func TestPublish_UploadError(t *testing.T) {
	up := &memUploader{err: errors.New("permission denied")}

	_, err := Publish(context.Background(), up, Report{Title: "x", GeneratedAt: time.Now()}, "x.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestNewGCSUploader_RequiresBucket(t *testing.T) {
	_, err := NewGCSUploader(context.Background(), "", "reports")
	assert.Error(t, err)
}
