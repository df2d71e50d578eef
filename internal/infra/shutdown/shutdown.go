package shutdown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	defaultShutdownTimeout = 5 * time.Second
)

// Notify returns a channel that will receive SIGTERM and SIGINT signals.
// This should be called as the first thing in main() before any other initialization.
func Notify() <-chan os.Signal {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)

	return signals
}

type Handler struct {
	logger          *slog.Logger
	quiter          quiter
	terminationFile string
}

// New creates a new shutdown handler.
func New(logger *slog.Logger, quiter quiter, terminationFile string) *Handler {
	return &Handler{
		logger:          logger,
		quiter:          quiter,
		terminationFile: terminationFile,
	}
}

// HandleSignals waits for a termination signal and cancels the context when received.
func (h *Handler) HandleSignals(ctx context.Context, cancel func()) {
	select {
	case <-ctx.Done():
		h.logger.InfoContext(ctx, "terminating signal handler due to context done")

		return
	case sig := <-h.quiter.Quit():
		h.logger.InfoContext(ctx, "received termination signal, terminating", "signal", fmt.Sprint(sig))
	}

	cancel()
}

// CheckTermination refuses to start when the context is already done or the
// termination file is present.
func (h *Handler) CheckTermination(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("termination context done before startup: %w", ctx.Err())
	default:
	}

	if CheckTerminationFile(ctx, h.logger, h.terminationFile) {
		return fmt.Errorf("termination file %s found", h.terminationFile)
	}

	return nil
}

// CheckTerminationFile reports whether the termination file exists. An empty path disables the check.
func CheckTerminationFile(ctx context.Context, logger *slog.Logger, terminationFile string) bool {
	if terminationFile == "" {
		return false
	}

	_, err := os.Stat(terminationFile)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.ErrorContext(ctx, "error checking termination file", "error", err, "path", terminationFile)
		}

		return false
	}

	logger.InfoContext(ctx, "termination file found", "path", terminationFile)

	return true
}

// GracefulShutdown shuts the components down in reverse order with a timeout.
func GracefulShutdown(
	originCtx context.Context,
	logger *slog.Logger,
	shutdowners []Shutdowner,
) error {
	// Use context.WithoutCancel to ensure shutdown continues even if originCtx is cancelled
	ctx, cancel := context.WithTimeout(context.WithoutCancel(originCtx), defaultShutdownTimeout)
	defer cancel()

	var errs error

	// Shutdown components in reverse order to ensure dependencies are met
	for i := len(shutdowners) - 1; i >= 0; i-- {
		start := time.Now()
		shutdowner := shutdowners[i]
		name := shutdowner.Name()

		if err := shutdowner.Shutdown(ctx); err != nil {
			logger.ErrorContext(ctx, "component shutdown failed",
				"component", name,
				"duration", time.Since(start),
				"reason", err,
			)

			errs = errors.Join(errs, fmt.Errorf("%s: %w", name, err))

			continue
		}

		logger.InfoContext(ctx, "component shutdown completed",
			"component", name,
			"duration", time.Since(start),
		)
	}

	return errs
}
