package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStubObjectStorage(t *testing.T) {
	s := NewStubObjectStorage()
	require.NotNil(t, s)
	assert.Equal(t, "https://storage.example.com", s.BaseURL)
}

func TestStubObjectStorage_Upload(t *testing.T) {
	s := NewStubObjectStorage()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		err := s.Upload(ctx, "exports/tenant/2026-01-01.csv", []byte("a,b,c\n"), "text/csv")
		require.NoError(t, err)

		data, ok := s.Object("exports/tenant/2026-01-01.csv")
		require.True(t, ok)
		assert.Equal(t, []byte("a,b,c\n"), data)
	})

	t.Run("stores a copy of the data", func(t *testing.T) {
		payload := []byte("original")
		err := s.Upload(ctx, "exports/copy.csv", payload, "text/csv")
		require.NoError(t, err)

		payload[0] = 'X'
		data, ok := s.Object("exports/copy.csv")
		require.True(t, ok)
		assert.Equal(t, []byte("original"), data)
	})

	t.Run("empty storage key", func(t *testing.T) {
		err := s.Upload(ctx, "", []byte("data"), "text/csv")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage key is required")
	})
}

func TestStubObjectStorage_GenerateDownloadURL(t *testing.T) {
	s := NewStubObjectStorage()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		url, expiresAt, err := s.GenerateDownloadURL(ctx, "exports/file.csv", 1*time.Hour)
		require.NoError(t, err)
		assert.Contains(t, url, "https://storage.example.com/download/exports/file.csv")
		assert.True(t, expiresAt.After(time.Now()))
	})

	t.Run("empty storage key", func(t *testing.T) {
		_, _, err := s.GenerateDownloadURL(ctx, "", 1*time.Hour)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage key is required")
	})
}

func TestStubObjectStorage_DeleteObject(t *testing.T) {
	s := NewStubObjectStorage()
	ctx := context.Background()

	t.Run("removes stored object", func(t *testing.T) {
		require.NoError(t, s.Upload(ctx, "exports/del.csv", []byte("x"), "text/csv"))

		err := s.DeleteObject(ctx, "exports/del.csv")
		require.NoError(t, err)

		exists, err := s.ObjectExists(ctx, "exports/del.csv")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("empty storage key", func(t *testing.T) {
		err := s.DeleteObject(ctx, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage key is required")
	})
}

func TestStubObjectStorage_ObjectExists(t *testing.T) {
	s := NewStubObjectStorage()
	ctx := context.Background()

	t.Run("true after upload", func(t *testing.T) {
		require.NoError(t, s.Upload(ctx, "exports/exists.csv", []byte("x"), "text/csv"))

		exists, err := s.ObjectExists(ctx, "exports/exists.csv")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("false for unknown key", func(t *testing.T) {
		exists, err := s.ObjectExists(ctx, "exports/missing.csv")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("empty storage key", func(t *testing.T) {
		exists, err := s.ObjectExists(ctx, "")
		require.Error(t, err)
		assert.False(t, exists)
		assert.Contains(t, err.Error(), "storage key is required")
	})
}
