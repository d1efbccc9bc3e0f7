// Package kvstore persists opaque blobs under string keys. Every write replaces
// the whole value for a key; there are no partial updates.
package kvstore

import (
	"context"
	"fmt"
	"strings"
)

// Storage keys shared by the ledger, category and profile stores.
const (
	TransactionsKey = "@upitracker_transactions"
	CategoriesKey   = "@upitracker_categories"
	ProfileKey      = "@upitracker_user_profile"
	OnboardingKey   = "@upitracker_onboarding_complete"
)

// AllKeys lists every key the application writes, in backup order.
func AllKeys() []string {
	return []string{TransactionsKey, CategoriesKey, ProfileKey, OnboardingKey}
}

// Store is a whole-value key-value store.
//
//go:generate mockgen -destination=mocks/mock_store.go -source=store.go Store
type Store interface {
	// Get returns the value for key. found is false when the key has never
	// been written or was removed.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set replaces the value for key.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// Backend is a Store that holds resources which must be released.
type Backend interface {
	Store
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendGCS      = "gcs"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string
	DataDir     string
	SQLitePath  string
	PostgresDSN string
	GCSBucket   string
	GCSPrefix   string
}

// Open creates the backend named in opts.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case BackendMemory:
		return NewMemoryStore(), nil
	case "", BackendFile:
		return NewFileStore(opts.DataDir)
	case BackendSQLite:
		return OpenSQLiteStore(ctx, opts.SQLitePath)
	case BackendPostgres:
		return OpenPostgresStore(ctx, opts.PostgresDSN)
	case BackendGCS:
		return NewGCSStore(ctx, opts.GCSBucket, opts.GCSPrefix)
	default:
		return nil, fmt.Errorf("kvstore.Open: unknown backend %q", opts.Backend)
	}
}

// Copy copies the given keys from src to dst and returns how many keys were
// present in src. Keys missing from src are left untouched in dst.
func Copy(ctx context.Context, src, dst Store, keys []string) (int, error) {
	copied := 0
	for _, key := range keys {
		value, found, err := src.Get(ctx, key)
		if err != nil {
			return copied, fmt.Errorf("kvstore.Copy: read %s: %w", key, err)
		}
		if !found {
			continue
		}
		if err := dst.Set(ctx, key, value); err != nil {
			return copied, fmt.Errorf("kvstore.Copy: write %s: %w", key, err)
		}
		copied++
	}
	return copied, nil
}

// fileName maps a storage key to a safe file or object name.
// "@upitracker_transactions" becomes "upitracker_transactions.json".
func fileName(key string) string {
	key = strings.TrimLeft(key, "@")
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		b.WriteString("_")
	}
	return b.String() + ".json"
}
