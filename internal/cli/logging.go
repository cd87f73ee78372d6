package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"storywriter/internal/logx"
)

// commandContext returns a context cancelled on interrupt that carries the
// command logger.
func commandContext(logOut io.Writer, verbose bool) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if logOut == nil {
		return logx.WithLogger(ctx, logx.Discard()), stop
	}
	return logx.WithLogger(ctx, logx.New(logOut, verbose)), stop
}

// openLogFile opens path for appending log lines.
func openLogFile(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}
