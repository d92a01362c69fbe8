package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/j-veylop/omni-quota/internal/logger"
	"github.com/j-veylop/omni-quota/internal/models"
)

type windowsPlatform struct {
	runner  Runner
	pattern string
}

func (w *windowsPlatform) requiredTool() string {
	return ""
}

func (w *windowsPlatform) processes(ctx context.Context) []models.Process {
	filter := strings.ReplaceAll(w.pattern, "'", "''")
	script := fmt.Sprintf(
		`Get-CimInstance Win32_Process -Filter "Name like '%%%s%%'" | Select-Object ProcessId, Name, CommandLine | ConvertTo-Json`,
		filter,
	)
	out, err := w.runner.Run(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	if err != nil {
		logger.Debug("Process enumeration failed", "error", err)
		return nil
	}
	return ParsePowerShellProcesses(out)
}

func (w *windowsPlatform) ports(ctx context.Context, pid int) []int {
	out, err := w.runner.Run(ctx, "netstat", "-ano")
	if err != nil {
		logger.Debug("Port enumeration failed", "pid", pid, "error", err)
		return nil
	}
	return ParseNetstatListening(out, pid)
}
