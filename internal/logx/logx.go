package logx

import (
	"context"
	"io"

	"pkt.systems/pslog"
)

// New builds the console logger used by the storywriter commands. Debug
// lines are kept when verbose is set. PSLOG_* environment variables override
// the defaults.
func New(w io.Writer, verbose bool) pslog.Logger {
	level := pslog.InfoLevel
	if verbose {
		level = pslog.DebugLevel
	}
	return pslog.LoggerFromEnv(
		pslog.WithEnvWriter(w),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole, MinLevel: level}),
	)
}

// Discard returns a logger that drops everything.
func Discard() pslog.Logger {
	return pslog.NewWithOptions(io.Discard, pslog.Options{
		Mode:     pslog.ModeStructured,
		NoColor:  true,
		MinLevel: pslog.ErrorLevel,
	})
}

// Ctx returns the logger bound to ctx, or a discarding logger.
func Ctx(ctx context.Context) pslog.Logger {
	if ctx == nil {
		return Discard()
	}
	if log := pslog.Ctx(ctx); log != nil {
		return log
	}
	return Discard()
}

// WithLogger stores log on ctx.
func WithLogger(ctx context.Context, log pslog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return pslog.ContextWithLogger(ctx, log)
}

// WithRun annotates the context logger with a run id when available.
func WithRun(ctx context.Context, runID string) pslog.Logger {
	log := Ctx(ctx)
	if runID != "" {
		log = log.With("run", runID)
	}
	return log
}
