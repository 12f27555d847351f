// Package playground runs untrusted student code inside short-lived Docker
// containers. A Playground is a scoped resource: it is owned by exactly one
// grading call and must be closed on every exit path.
package playground

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lumen",
		Subsystem: "playground",
		Name:      "run_duration_seconds",
		Help:      "Duration of sandboxed code runs",
		Buckets:   prometheus.DefBuckets,
	}, []string{"image"})

	runTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lumen",
		Subsystem: "playground",
		Name:      "run_timeouts_total",
		Help:      "Number of runs that hit the configured deadline",
	}, []string{"image"})

	runFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lumen",
		Subsystem: "playground",
		Name:      "run_failures_total",
		Help:      "Number of runs that ended in a sandbox error",
	}, []string{"image"})
)

// ExecError reports a run that did not complete normally: the deadline was
// hit or the program crashed. Partial output is preserved for diagnosis.
type ExecError struct {
	TimedOut bool
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ExecError) Error() string {
	if e.TimedOut {
		return "playground: execution timed out"
	}
	return fmt.Sprintf("playground: process exited with code %d", e.ExitCode)
}

// Instance is a single-use, time-bounded sandbox. It belongs to exactly one
// grading call and must be closed on every exit path.
type Instance interface {
	ExecuteCode(ctx context.Context, code string) (stdout, stderr string, err error)
	Close() error
}

// Factory hands out scoped playground instances.
type Factory interface {
	Create(ctx context.Context, timeout time.Duration, identifier string) (Instance, error)
}

// Config groups sandbox configuration values.
type Config struct {
	Host          string
	Image         string
	FileName      string
	Command       []string
	WorkspaceRoot string
	MemoryLimitMB int64
	CPUShares     int64
	Logger        zerolog.Logger
}

// DockerFactory creates playgrounds backed by Docker containers.
type DockerFactory struct {
	client *client.Client
	cfg    Config
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewDockerFactory constructs a Docker backed playground factory.
func NewDockerFactory(cfg Config) (*DockerFactory, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	if cfg.Image == "" {
		cfg.Image = "python:3.11-alpine"
	}
	if cfg.FileName == "" {
		cfg.FileName = "main.py"
	}
	if len(cfg.Command) == 0 {
		cfg.Command = []string{"python", cfg.FileName}
	}
	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = os.TempDir()
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &DockerFactory{
		client: cli,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/lumen-edu/lumen-api/pkg/playground"),
		logger: logger,
	}, nil
}

// Create allocates a workspace-scoped playground bounded by the given timeout.
// The identifier isolates concurrent grading calls from each other.
func (f *DockerFactory) Create(ctx context.Context, timeout time.Duration, identifier string) (Instance, error) {
	workspace, err := os.MkdirTemp(f.cfg.WorkspaceRoot, "playground-"+identifier+"-")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	return &Playground{
		factory:   f,
		workspace: workspace,
		timeout:   timeout,
		logger:    f.logger.With().Str("playground_id", identifier).Logger(),
	}, nil
}

// Close releases the factory's underlying Docker client.
func (f *DockerFactory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}

// Playground is the Docker-backed Instance implementation.
type Playground struct {
	factory   *DockerFactory
	workspace string
	timeout   time.Duration
	logger    zerolog.Logger
}

// ExecuteCode runs the given source inside the sandbox and returns its
// captured stdout and stderr. A *ExecError is returned when the run exceeded
// the deadline or the process crashed; partial output is carried inside it.
func (p *Playground) ExecuteCode(parent context.Context, code string) (string, string, error) {
	cfg := p.factory.cfg

	ctx, span := p.factory.tracer.Start(parent, "playground.execute_code", trace.WithAttributes(
		attribute.String("playground.image", cfg.Image),
		attribute.Int64("playground.timeout_ms", p.timeout.Milliseconds()),
	))
	defer span.End()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	filePath := filepath.Join(p.workspace, cfg.FileName)
	if err := os.WriteFile(filePath, []byte(code), 0o600); err != nil {
		return "", "", fmt.Errorf("write source: %w", err)
	}

	hostCfg := &container.HostConfig{
		NetworkMode: "none",
		Resources: container.Resources{
			Memory:    cfg.MemoryLimitMB * 1024 * 1024,
			CPUShares: cfg.CPUShares,
		},
		Mounts: []mount.Mount{{
			Type:   mount.TypeBind,
			Source: p.workspace,
			Target: "/workspace",
		}},
	}

	containerCfg := &container.Config{
		Image:        cfg.Image,
		Cmd:          cfg.Command,
		WorkingDir:   "/workspace",
		AttachStdout: true,
		AttachStderr: true,
	}

	start := time.Now()

	resp, err := p.factory.client.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, "")
	if err != nil {
		runFailures.WithLabelValues(cfg.Image).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", "", fmt.Errorf("container create: %w", err)
	}

	containerID := resp.ID
	defer func() {
		removeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.factory.client.ContainerRemove(removeCtx, containerID, container.RemoveOptions{Force: true}); err != nil {
			p.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to remove container")
		}
	}()

	if err := p.factory.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		runFailures.WithLabelValues(cfg.Image).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", "", fmt.Errorf("container start: %w", err)
	}

	statusCh, errCh := p.factory.client.ContainerWait(ctx, containerID, container.WaitConditionNextExit)

	exitCode := 0
	timedOut := false
	var waitErr error
	select {
	case err := <-errCh:
		waitErr = err
	case status := <-statusCh:
		exitCode = int(status.StatusCode)
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	runDuration.WithLabelValues(cfg.Image).Observe(time.Since(start).Seconds())

	if waitErr != nil {
		if errors.Is(waitErr, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			timedOut = true
			runTimeouts.WithLabelValues(cfg.Image).Inc()
			killCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := p.factory.client.ContainerKill(killCtx, containerID, "KILL"); err != nil {
				p.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to kill timed out container")
			}
			span.SetStatus(codes.Error, "execution timed out")
		} else if !errors.Is(waitErr, context.Canceled) {
			runFailures.WithLabelValues(cfg.Image).Inc()
			span.RecordError(waitErr)
			span.SetStatus(codes.Error, waitErr.Error())
			return "", "", fmt.Errorf("container wait: %w", waitErr)
		}
	}

	stdout, stderr := p.collectLogs(parent, containerID)

	if timedOut {
		return stdout, stderr, &ExecError{TimedOut: true, Stdout: stdout, Stderr: stderr}
	}

	if exitCode != 0 {
		runFailures.WithLabelValues(cfg.Image).Inc()
		span.SetStatus(codes.Error, fmt.Sprintf("exit code %d", exitCode))
		return stdout, stderr, &ExecError{ExitCode: exitCode, Stdout: stdout, Stderr: stderr}
	}

	return stdout, stderr, nil
}

func (p *Playground) collectLogs(ctx context.Context, containerID string) (string, string) {
	logReader, err := p.factory.client.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		p.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to fetch container logs")
		return "", ""
	}
	defer logReader.Close()

	stdout, stderr, err := splitLogs(logReader)
	if err != nil {
		p.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to read container logs")
		return "", ""
	}
	return stdout, stderr
}

// Close removes the playground workspace. Safe to call on every exit path.
func (p *Playground) Close() error {
	if p.workspace == "" {
		return nil
	}
	err := os.RemoveAll(p.workspace)
	p.workspace = ""
	return err
}

func splitLogs(reader io.Reader) (string, string, error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdoutBuf, &stderrBuf, reader); err != nil {
		return "", "", err
	}
	return stdoutBuf.String(), stderrBuf.String(), nil
}
