package streamer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
)

// ErrExited is reported by Ping when the streamer process failed.
var ErrExited = errors.New("video streamer exited")

// Service runs the external video streaming command for the lifetime of the
// controller. A command that daemonizes and exits cleanly is not an error.
type Service struct {
	logger  *slog.Logger
	argv    []string
	mu      sync.Mutex
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
}

// New creates a streamer for argv. argv must not be empty.
func New(logger *slog.Logger, argv []string) *Service {
	return &Service{
		logger: logger.With("component", "video-streamer"),
		argv:   argv,
	}
}

func (s *Service) Name() string {
	return "video-streamer"
}

// PingerCritical keeps a dead camera from failing the health check.
func (s *Service) PingerCritical() bool {
	return false
}

// Start launches the command and returns without waiting for it.
func (s *Service) Start(ctx context.Context) error {
	if len(s.argv) == 0 {
		return errors.New("start video streamer: empty command")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return nil
	}

	//nolint:gosec // the command line comes from operator configuration
	cmd := exec.Command(s.argv[0], s.argv[1:]...)
	cmd.Stdout = &lineLogger{logger: s.logger, stream: "stdout"}
	cmd.Stderr = &lineLogger{logger: s.logger, stream: "stderr"}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start video streamer %q: %w", s.argv[0], err)
	}

	s.cmd = cmd
	s.done = make(chan struct{})

	s.logger.InfoContext(ctx, "video streamer started",
		"command", s.argv,
		"pid", cmd.Process.Pid,
	)

	go func() {
		err := cmd.Wait()

		s.mu.Lock()
		s.waitErr = err
		s.mu.Unlock()

		close(s.done)

		if err != nil {
			s.logger.WarnContext(ctx, "video streamer exited", "reason", err)

			return
		}

		s.logger.InfoContext(ctx, "video streamer exited")
	}()

	return nil
}

// Ping fails once the process has exited with an error.
func (s *Service) Ping(context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return fmt.Errorf("%w: not started", ErrExited)
	}

	select {
	case <-done:
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.waitErr != nil {
			return fmt.Errorf("%w: %w", ErrExited, s.waitErr)
		}

		return nil
	default:
		return nil
	}
}

// Shutdown sends SIGTERM and waits for the process, killing it if ctx ends first.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	cmd, done := s.cmd, s.done
	s.mu.Unlock()

	if cmd == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	default:
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.logger.WarnContext(ctx, "signal video streamer", "reason", err)
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		if err := cmd.Process.Kill(); err != nil {
			return fmt.Errorf("kill video streamer: %w", err)
		}

		return fmt.Errorf("video streamer did not stop: %w", ctx.Err())
	}
}

// lineLogger forwards process output to the log one line at a time.
type lineLogger struct {
	logger *slog.Logger
	stream string
}

func (l *lineLogger) Write(p []byte) (int, error) {
	scanner := bufio.NewScanner(bytes.NewReader(p))
	for scanner.Scan() {
		l.logger.Debug("video streamer output", "stream", l.stream, "line", scanner.Text())
	}

	return len(p), nil
}
