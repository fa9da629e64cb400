package server

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/dmitrijs2005/bulletin/internal/logging"
	"github.com/dmitrijs2005/bulletin/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.EndpointAddrGRPC = "127.0.0.1:0"
	cfg.MetricsAddr = "127.0.0.1:0"
	cfg.DatabaseDSN = ""
	cfg.LogLevel = "error"
	return cfg
}

func TestNewApp_MemoryStore(t *testing.T) {
	app, err := NewApp(context.Background(), memoryConfig())
	require.NoError(t, err)
	assert.NotNil(t, app.authService)
	assert.NotNil(t, app.sweeper)
}

func TestNewApp_BadDSN(t *testing.T) {
	cfg := memoryConfig()
	cfg.DatabaseDSN = "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := NewApp(ctx, cfg)
	assert.Error(t, err)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), memoryConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestApp_RunFailsOnBadAddress(t *testing.T) {
	cfg := memoryConfig()
	cfg.EndpointAddrGRPC = "127.0.0.1:99999"
	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)

	select {
	case err := <-runAsync(app):
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after server failure")
	}
}

func runAsync(app *App) <-chan error {
	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()
	return done
}

func TestInitSignalHandler_StopsWithContext(t *testing.T) {
	app := &App{logger: logging.Nop{}}

	ctx, cancel := context.WithCancel(context.Background())
	done := app.initSignalHandler(ctx, func() {})
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("signal handler still running after context was cancelled")
	}
}

func TestInitSignalHandler_CancelsOnSignal(t *testing.T) {
	app := &App{logger: logging.Nop{}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := app.initSignalHandler(context.Background(), cancel)

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("signal was not handled")
	}
	assert.Error(t, ctx.Err())
}
