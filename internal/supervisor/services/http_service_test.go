// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockServer simulates *http.Server lifecycle for the wrapper.
type mockServer struct {
	listenErr error
	stop      chan struct{}
	shutdowns int
}

func newMockServer(listenErr error) *mockServer {
	return &mockServer{listenErr: listenErr, stop: make(chan struct{})}
}

func (m *mockServer) ListenAndServe() error {
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.stop
	return http.ErrServerClosed
}

func (m *mockServer) Shutdown(ctx context.Context) error {
	m.shutdowns++
	close(m.stop)
	return nil
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	srv := newMockServer(nil)
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, srv.shutdowns)
	case <-time.After(2 * time.Second):
		t.Fatal("service never stopped")
	}
}

func TestHTTPServiceStartFailure(t *testing.T) {
	bindErr := errors.New("address in use")
	svc := NewHTTPServerService(newMockServer(bindErr), time.Second)

	err := svc.Serve(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, bindErr)
}

func TestHTTPServiceName(t *testing.T) {
	svc := NewHTTPServerService(newMockServer(nil), 0)
	assert.Equal(t, "http-server", svc.String())
	assert.Equal(t, 10*time.Second, svc.shutdownTimeout)
}
