package discovery

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/j-veylop/omni-quota/internal/logger"
	"github.com/j-veylop/omni-quota/internal/models"
)

// DefaultProcDir is the Linux process filesystem mount.
const DefaultProcDir = "/proc"

const lsofTool = "lsof"

// lsofPorts resolves listening ports through lsof.
type lsofPorts struct {
	runner Runner
}

func (l lsofPorts) requiredTool() string {
	return lsofTool
}

func (l lsofPorts) ports(ctx context.Context, pid int) []int {
	// lsof exits non-zero when nothing matches, so output is parsed regardless.
	out, err := l.runner.Run(ctx, lsofTool, "-nP", "-iTCP", "-sTCP:LISTEN", "-a", "-p", strconv.Itoa(pid))
	if err != nil && out == "" {
		logger.Debug("Port enumeration failed", "pid", pid, "error", err)
		return nil
	}
	return ParseLsofListening(out)
}

// psPlatform enumerates processes with ps (macOS and other Unix systems).
type psPlatform struct {
	lsofPorts
}

func (p *psPlatform) processes(ctx context.Context) []models.Process {
	out, err := p.runner.Run(ctx, "ps", "-axo", "pid=,command=")
	if err != nil {
		logger.Debug("Process enumeration failed", "error", err)
		return nil
	}
	return ParsePsOutput(out)
}

// procfsPlatform enumerates processes from /proc/<pid>/cmdline.
type procfsPlatform struct {
	lsofPorts
	fs  afero.Fs
	dir string
}

func (p *procfsPlatform) processes(context.Context) []models.Process {
	d, err := p.fs.Open(p.dir)
	if err != nil {
		logger.Debug("Process enumeration failed", "dir", p.dir, "error", err)
		return nil
	}
	defer d.Close()

	entries, err := d.Readdirnames(0)
	if err != nil {
		logger.Debug("Process enumeration failed", "dir", p.dir, "error", err)
		return nil
	}

	procs := make([]models.Process, 0, len(entries))
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry)
		if err != nil {
			continue
		}
		raw, err := afero.ReadFile(p.fs, filepath.Join(p.dir, entry, "cmdline"))
		if err != nil {
			// Processes exit or deny access between listing and reading.
			if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, fs.ErrPermission) {
				logger.Debug("Failed to read cmdline", "pid", pid, "error", err)
			}
			continue
		}
		args := strings.Split(strings.TrimRight(string(raw), "\x00"), "\x00")
		if len(args) == 0 || args[0] == "" {
			continue
		}
		procs = append(procs, models.Process{
			PID:         pid,
			Name:        filepath.Base(args[0]),
			CommandLine: strings.Join(args, " "),
		})
	}
	return procs
}
