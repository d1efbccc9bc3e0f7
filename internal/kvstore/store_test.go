package kvstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, found, err := s.Get(ctx, TransactionsKey)
	require.NoError(t, err)
	assert.False(t, found, "unwritten key must report not found")

	require.NoError(t, s.Set(ctx, TransactionsKey, []byte(`[{"id":"1"}]`)))
	value, found, err := s.Get(ctx, TransactionsKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"1"}]`, string(value))

	require.NoError(t, s.Set(ctx, TransactionsKey, []byte(`[]`)))
	value, _, err = s.Get(ctx, TransactionsKey)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(value), "Set must replace the whole value")

	require.NoError(t, s.Set(ctx, OnboardingKey, []byte("true")))
	require.NoError(t, s.Remove(ctx, TransactionsKey))
	_, found, err = s.Get(ctx, TransactionsKey)
	require.NoError(t, err)
	assert.False(t, found)

	value, found, err = s.Get(ctx, OnboardingKey)
	require.NoError(t, err)
	assert.True(t, found, "removing one key must not touch another")
	assert.Equal(t, "true", string(value))

	assert.NoError(t, s.Remove(ctx, "@never_written"), "removing a missing key is not an error")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	in := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", in))
	in[0] = 'x'

	out, _, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))

	out[0] = 'y'
	again, _, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, CategoriesKey, []byte("[]")))
	require.NoError(t, s.Set(ctx, CategoriesKey, []byte(`[{"key":"food"}]`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "upitracker_categories.json", entries[0].Name())
}

func TestFileStore_RequiresDir(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLiteStore(ctx, filepath.Join(t.TempDir(), "upi.db"))
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "upi.db")

	s, err := OpenSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, ProfileKey, []byte(`{"name":"Asha"}`)))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	value, found, err := reopened.Get(ctx, ProfileKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"name":"Asha"}`, string(value))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, Options{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, mem)

	file, err := Open(ctx, Options{DataDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, file, "empty backend defaults to file")

	lite, err := Open(ctx, Options{Backend: "SQLite", SQLitePath: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, lite)
	require.NoError(t, lite.Close())

	_, err = Open(ctx, Options{Backend: "etcd"})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Backend: "postgres"})
	assert.Error(t, err, "postgres without DSN must fail")

	_, err = Open(ctx, Options{Backend: "gcs"})
	assert.Error(t, err, "gcs without bucket must fail")
}

func TestCopy(t *testing.T) {
	ctx := context.Background()
	src := NewMemoryStore()
	dst := NewMemoryStore()

	require.NoError(t, src.Set(ctx, TransactionsKey, []byte("[1]")))
	require.NoError(t, src.Set(ctx, OnboardingKey, []byte("true")))
	require.NoError(t, dst.Set(ctx, CategoriesKey, []byte("keep")))

	n, err := Copy(ctx, src, dst, AllKeys())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	v, _, _ := dst.Get(ctx, TransactionsKey)
	assert.Equal(t, "[1]", string(v))
	v, _, _ = dst.Get(ctx, CategoriesKey)
	assert.Equal(t, "keep", string(v), "keys missing from src stay untouched")
}

type failingStore struct{ MemoryStore }

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	return errors.New("disk full")
}

func TestCopy_PropagatesWriteError(t *testing.T) {
	ctx := context.Background()
	src := NewMemoryStore()
	require.NoError(t, src.Set(ctx, TransactionsKey, []byte("[]")))

	_, err := Copy(ctx, src, &failingStore{}, AllKeys())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestFileName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{TransactionsKey, "upitracker_transactions.json"},
		{"@a/b c", "a_b_c.json"},
		{"@", "_.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fileName(tt.key), tt.key)
	}
}
