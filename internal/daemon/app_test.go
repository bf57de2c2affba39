package daemon

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/healthtrend/internal/common"
	"github.com/dmitrijs2005/healthtrend/internal/config"
	"github.com/dmitrijs2005/healthtrend/internal/health"
	"github.com/dmitrijs2005/healthtrend/internal/logging"
	"github.com/dmitrijs2005/healthtrend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func testConfig(t *testing.T, dsn string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	c := &config.Config{}
	c.LoadDefaults()
	c.DatabaseDSN = dsn
	c.CredentialsFile = filepath.Join(dir, "missing.json")
	c.TokenDir = filepath.Join(dir, "tokens")
	c.Passphrase = "secret"
	c.HealthAddr = "127.0.0.1:0"
	c.WatchDebounce = 10 * time.Millisecond
	return c
}

func TestNewApp_RequiresPassphrase(t *testing.T) {
	c := testConfig(t, ":memory:")
	c.Passphrase = ""

	_, err := NewApp(context.Background(), c, logging.Nop())
	require.ErrorContains(t, err, config.PassphraseEnv)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	for name, dsn := range map[string]string{
		"memory": ":memory:",
		"file":   filepath.Join(t.TempDir(), "ht.db"),
	} {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			a, err := NewApp(ctx, testConfig(t, dsn), logging.Nop())
			require.NoError(t, err)

			done := make(chan error, 1)
			go func() { done <- a.Run(ctx) }()

			time.Sleep(50 * time.Millisecond)
			cancel()

			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("daemon did not stop")
			}
		})
	}
}

func TestApp_RunFailsOnBadHealthAddr(t *testing.T) {
	c := testConfig(t, ":memory:")
	c.HealthAddr = "256.0.0.1:bad"

	a, err := NewApp(context.Background(), c, logging.Nop())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()

	select {
	case err := <-done:
		require.ErrorContains(t, err, "health")
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func TestApp_OnSyncResult(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTrigger{}
	a := &App{
		health: health.NewServer("127.0.0.1:0", logging.Nop()),
		edits:  newEditTrigger(&fakeLister{pending: []*models.Entry{entry("2026-03-01", 1)}}, tr, logging.Nop()),
	}

	a.edits.check(ctx)
	require.Len(t, tr.reasons, 1, "dropped while busy")

	a.onSyncResult(ctx, common.ErrUnavailable)
	st, err := a.health.Check(ctx, health.ServiceSync)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, st)

	tr.accept = true
	a.onSyncResult(ctx, nil)
	st, err = a.health.Check(ctx, health.ServiceSync)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, st)
	assert.Len(t, tr.reasons, 3, "each finished run re-checks the dropped edit")
}
