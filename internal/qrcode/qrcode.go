// Package qrcode renders payment links as PNG QR codes for sharing with a
// UPI app.
package qrcode

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	goqrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 512

// Encode renders uri as a PNG. Medium error correction keeps merchant links
// with long signatures scannable.
func Encode(uri string, size int) ([]byte, error) {
	if uri == "" {
		return nil, fmt.Errorf("qrcode.Encode: empty content")
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := goqrcode.Encode(uri, goqrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qrcode.Encode: %w", err)
	}
	return png, nil
}

// FileName returns the name a QR generated at now is saved under.
func FileName(now time.Time) string {
	return fmt.Sprintf("qr_%d.png", now.UnixMilli())
}

// WriteFile renders uri into dir and returns the file path.
func WriteFile(dir, uri string, now time.Time) (string, error) {
	png, err := Encode(uri, DefaultSize)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("qrcode.WriteFile: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, FileName(now))
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("qrcode.WriteFile: %w", err)
	}
	return path, nil
}
