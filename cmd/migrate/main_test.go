package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/upi-tracker/internal/kvstore"
	"github.com/dvloznov/upi-tracker/internal/logger"
)

func TestPresentKeys(t *testing.T) {
	ctx := context.Background()
	s := kvstore.NewMemoryStore()
	require.NoError(t, s.Set(ctx, kvstore.CategoriesKey, []byte("[]")))
	require.NoError(t, s.Set(ctx, kvstore.OnboardingKey, []byte("true")))

	got, err := presentKeys(ctx, s, kvstore.AllKeys())
	require.NoError(t, err)
	assert.Equal(t, []string{kvstore.CategoriesKey, kvstore.OnboardingKey}, got)
}

func TestCopyStore_FileToSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	src := kvstore.Options{Backend: kvstore.BackendFile, DataDir: filepath.Join(dir, "data")}
	fileStore, err := kvstore.NewFileStore(src.DataDir)
	require.NoError(t, err)
	require.NoError(t, fileStore.Set(ctx, kvstore.TransactionsKey, []byte(`[{"id":"a"}]`)))

	dst := kvstore.Options{Backend: kvstore.BackendSQLite, SQLitePath: filepath.Join(dir, "upi.db")}
	require.NoError(t, copyStore(ctx, logger.Nop(), src, dst, false))

	lite, err := kvstore.OpenSQLiteStore(ctx, dst.SQLitePath)
	require.NoError(t, err)
	defer lite.Close()

	value, found, err := lite.Get(ctx, kvstore.TransactionsKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `[{"id":"a"}]`, string(value))
}

func TestCopyStore_DryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	src := kvstore.Options{Backend: kvstore.BackendFile, DataDir: filepath.Join(dir, "data")}
	fileStore, err := kvstore.NewFileStore(src.DataDir)
	require.NoError(t, err)
	require.NoError(t, fileStore.Set(ctx, kvstore.ProfileKey, []byte(`{"name":"Asha"}`)))

	dst := kvstore.Options{Backend: kvstore.BackendFile, DataDir: filepath.Join(dir, "copy")}
	require.NoError(t, copyStore(ctx, logger.Nop(), src, dst, true))

	assert.NoDirExists(t, dst.DataDir)
}

func TestCopyStore_SameStore(t *testing.T) {
	opts := kvstore.Options{Backend: kvstore.BackendFile, DataDir: t.TempDir()}
	assert.Error(t, copyStore(context.Background(), logger.Nop(), opts, opts, false))
}
