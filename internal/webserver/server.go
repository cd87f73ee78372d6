package webserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"storywriter/internal/logx"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Serve starts an HTTP server on cfg.Addr and stops it when ctx is done.
func Serve(ctx context.Context, cfg Config) error {
	if ctx == nil {
		return errors.New("webserver: context is nil")
	}
	if cfg.Addr == "" {
		return errors.New("webserver: addr is required")
	}
	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	return ServeListener(ctx, listener, cfg)
}

// ServeListener serves on an existing listener and stops when ctx is done.
// Running story scripts are cancelled on shutdown.
func ServeListener(ctx context.Context, listener net.Listener, cfg Config) error {
	handler, err := NewHandler(cfg)
	if err != nil {
		_ = listener.Close()
		return err
	}
	log := logx.Ctx(ctx)
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	log.Info("webserver listening", "addr", listener.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		err := <-errCh
		log.Info("webserver stopped")
		if errors.Is(err, http.ErrServerClosed) || err == nil {
			return nil
		}
		return err
	}
}
