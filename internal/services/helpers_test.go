package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/healthtrend/internal/storage"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestRepos(t *testing.T) *storage.Repositories {
	t.Helper()
	return newTestDB(t).Repositories()
}
