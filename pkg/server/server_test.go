package server_test

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/absmach/fedprox/pkg/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	_, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)

	return port
}

func TestHTTPServerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := server.Config{Host: "127.0.0.1", Port: freePort(t)}
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	s := server.NewHTTPServer(ctx, cancel, "test", cfg, handler, slog.New(slog.DiscardHandler))

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + net.JoinHostPort(cfg.Host, cfg.Port))
		if err != nil {
			return false
		}
		resp.Body.Close()

		return resp.StatusCode == http.StatusTeapot
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.NoError(t, server.StopSignalHandler(ctx, cancel, slog.New(slog.DiscardHandler), "test", s))
}
