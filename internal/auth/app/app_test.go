package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/notafemboy/blogauth/pkg/slogx"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Slack.ClientID = ""

	_, err := New(cfg, WithLogger(slogx.Discard()))
	require.ErrorContains(t, err, "invalid configuration")
}

func TestOpenStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		st, err := OpenStore(validConfig())
		require.NoError(t, err)
		require.NoError(t, st.Ping(t.Context()))
		require.NoError(t, st.Close())
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := validConfig()
		cfg.StateStore = StoreSQLite
		cfg.DatabaseFile = filepath.Join(t.TempDir(), "states.db")

		st, err := OpenStore(cfg)
		require.NoError(t, err)
		require.NoError(t, st.Ping(t.Context()))
		require.NoError(t, st.Close())
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := validConfig()
		cfg.StateStore = "etcd"
		_, err := OpenStore(cfg)
		require.Error(t, err)
	})
}

func TestRunStopsOnContextCancel(t *testing.T) {
	cfg := validConfig()
	cfg.Port = freePort(t)
	cfg.ShutdownGracePeriod = time.Second

	application, err := New(cfg, WithLogger(slogx.Discard()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	livez := fmt.Sprintf("http://127.0.0.1:%d/livez", cfg.Port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(livez)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunReportsListenFailure(t *testing.T) {
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	cfg := validConfig()
	cfg.Port = l.Addr().(*net.TCPAddr).Port

	application, err := New(cfg, WithLogger(slogx.Discard()))
	require.NoError(t, err)

	err = application.Run(t.Context())
	require.ErrorContains(t, err, "server failed")
}

func TestShutdownWithoutRun(t *testing.T) {
	cfg := validConfig()
	cfg.ShutdownGracePeriod = time.Second

	application, err := New(cfg, WithLogger(slogx.Discard()))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- application.Shutdown() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown blocked on an application that never ran")
	}
}
