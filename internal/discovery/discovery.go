// Package discovery locates running language server processes and the TCP
// ports they listen on, using the host's process and socket tools.
package discovery

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/spf13/afero"

	apperrors "github.com/j-veylop/omni-quota/internal/errors"
	"github.com/j-veylop/omni-quota/internal/logger"
	"github.com/j-veylop/omni-quota/internal/models"
)

const (
	// DefaultPattern matches the language server executable name.
	DefaultPattern = "language_server"

	// CommandTimeout bounds every subprocess invocation.
	CommandTimeout = 5 * time.Second

	maxOutputBytes = 1 << 20
)

// Locator enumerates candidate language server processes.
type Locator interface {
	Discover(ctx context.Context) ([]models.Process, error)
}

// Runner executes host commands. Implementations return the captured
// standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
	LookPath(name string) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Timeout time.Duration
}

// Run executes name with args and returns its stdout, capped at 1 MiB.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = CommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out := &cappedBuffer{limit: maxOutputBytes}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = out
	if err := cmd.Run(); err != nil {
		return out.String(), fmt.Errorf("failed to run %s: %w", name, err)
	}
	return out.String(), nil
}

// LookPath reports whether name is resolvable on PATH.
func (ExecRunner) LookPath(name string) error {
	_, err := exec.LookPath(name)
	return err
}

type cappedBuffer struct {
	bytes.Buffer
	limit int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.Len(); room < len(p) {
		if room > 0 {
			b.Buffer.Write(p[:room])
		}
		return len(p), nil
	}
	return b.Buffer.Write(p)
}

// platform is the per-OS enumeration strategy.
type platform interface {
	processes(ctx context.Context) []models.Process
	ports(ctx context.Context, pid int) []int
	requiredTool() string
}

type locator struct {
	platform platform
	runner   Runner
	pattern  string
	selfPID  int

	mu                 sync.Mutex
	capabilityReported bool
}

// New returns the Locator for the running operating system.
func New(pattern string, runner Runner) Locator {
	return NewForOS(runtime.GOOS, pattern, runner, afero.NewOsFs())
}

// NewForOS returns the Locator for goos. fs backs the Linux /proc reader.
func NewForOS(goos, pattern string, runner Runner, fs afero.Fs) Locator {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if runner == nil {
		runner = ExecRunner{}
	}

	var p platform
	switch goos {
	case "windows":
		p = &windowsPlatform{runner: runner, pattern: pattern}
	case "linux":
		p = &procfsPlatform{lsofPorts: lsofPorts{runner: runner}, fs: fs, dir: DefaultProcDir}
	default:
		p = &psPlatform{lsofPorts: lsofPorts{runner: runner}}
	}

	return &locator{
		platform: p,
		runner:   runner,
		pattern:  pattern,
		selfPID:  os.Getpid(),
	}
}

// Discover returns every matching process that carries a CSRF token, with
// its listening ports. A missing required tool is reported once as a
// CapabilityError; later calls return no candidates and no error.
func (l *locator) Discover(ctx context.Context) ([]models.Process, error) {
	if tool := l.platform.requiredTool(); tool != "" {
		if err := l.runner.LookPath(tool); err != nil {
			l.mu.Lock()
			reported := l.capabilityReported
			l.capabilityReported = true
			l.mu.Unlock()
			if reported {
				return nil, nil
			}
			return nil, &apperrors.CapabilityError{Tool: tool, Err: err}
		}
	}

	var candidates []models.Process
	for _, proc := range l.platform.processes(ctx) {
		if proc.PID <= 0 || proc.PID == l.selfPID {
			continue
		}
		if !MatchesPattern(proc.Name, l.pattern) && !MatchesPattern(proc.CommandLine, l.pattern) {
			continue
		}

		proc.CSRFToken = ExtractCSRFToken(proc.CommandLine)
		if proc.CSRFToken == "" {
			logger.Debug("Skipping process without csrf token", "pid", proc.PID)
			continue
		}

		proc.Ports = l.platform.ports(ctx, proc.PID)
		if len(proc.Ports) == 0 {
			logger.Debug("Skipping process without listening ports", "pid", proc.PID)
			continue
		}
		candidates = append(candidates, proc)
	}

	if len(candidates) == 0 {
		logger.Debug(apperrors.ErrDiscoveryEmpty.Error(), "pattern", l.pattern)
	}
	return candidates, nil
}
