package discovery

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/j-veylop/omni-quota/internal/models"
)

var (
	csrfTokenRe = regexp.MustCompile(`--csrf_token[\s=]+(\S+)`)
	lsofPortRe  = regexp.MustCompile(`:(\d+)\s+\(LISTEN\)`)
)

// ExtractCSRFToken returns the value of the --csrf_token flag in cmdline,
// with any quote characters removed, or "" when absent.
func ExtractCSRFToken(cmdline string) string {
	match := csrfTokenRe.FindStringSubmatch(cmdline)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(strings.NewReplacer(`"`, "", `'`, "").Replace(match[1]))
}

// MatchesPattern reports whether s contains pattern, case-insensitively.
func MatchesPattern(s, pattern string) bool {
	if s == "" || pattern == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(pattern))
}

type cimProcess struct {
	CommandLine *string `json:"CommandLine"`
	Name        string  `json:"Name"`
	ProcessID   int     `json:"ProcessId"`
}

// ParsePowerShellProcesses decodes ConvertTo-Json output, which is a single
// object for one match and an array for several. Malformed output yields nil.
func ParsePowerShellProcesses(out string) []models.Process {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil
	}

	var list []cimProcess
	if strings.HasPrefix(out, "[") {
		if err := json.Unmarshal([]byte(out), &list); err != nil {
			return nil
		}
	} else {
		var single cimProcess
		if err := json.Unmarshal([]byte(out), &single); err != nil {
			return nil
		}
		list = []cimProcess{single}
	}

	procs := make([]models.Process, 0, len(list))
	for _, p := range list {
		if p.ProcessID <= 0 || p.CommandLine == nil || *p.CommandLine == "" {
			continue
		}
		procs = append(procs, models.Process{
			PID:         p.ProcessID,
			Name:        p.Name,
			CommandLine: *p.CommandLine,
		})
	}
	return procs
}

// ParsePsOutput parses `ps -axo pid=,command=` output.
func ParsePsOutput(out string) []models.Process {
	var procs []models.Process
	for _, line := range splitLines(out) {
		pidField, command, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		pid, err := strconv.Atoi(pidField)
		if err != nil || pid <= 0 {
			continue
		}
		command = strings.TrimSpace(command)
		procs = append(procs, models.Process{
			PID:         pid,
			Name:        executableName(command),
			CommandLine: command,
		})
	}
	return procs
}

// ParseNetstatListening extracts the local ports of LISTENING rows in
// `netstat -ano` output whose owning PID is exactly pid.
func ParseNetstatListening(out string, pid int) []int {
	want := strconv.Itoa(pid)
	var ports []int
	for _, line := range splitLines(out) {
		if !strings.Contains(line, "LISTENING") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[len(fields)-1] != want {
			continue
		}
		local := fields[1]
		idx := strings.LastIndex(local, ":")
		if idx < 0 {
			continue
		}
		if port, err := strconv.Atoi(local[idx+1:]); err == nil && validPort(port) {
			ports = appendUnique(ports, port)
		}
	}
	return ports
}

// ParseLsofListening extracts ports from `lsof -nP -iTCP -sTCP:LISTEN` output.
func ParseLsofListening(out string) []int {
	var ports []int
	for _, match := range lsofPortRe.FindAllStringSubmatch(out, -1) {
		if port, err := strconv.Atoi(match[1]); err == nil && validPort(port) {
			ports = appendUnique(ports, port)
		}
	}
	return ports
}

func splitLines(out string) []string {
	raw := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")
	lines := raw[:0]
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func executableName(command string) string {
	first, _, _ := strings.Cut(command, " ")
	if idx := strings.LastIndexAny(first, `/\`); idx >= 0 {
		return first[idx+1:]
	}
	return first
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}

func appendUnique(ports []int, port int) []int {
	for _, p := range ports {
		if p == port {
			return ports
		}
	}
	return append(ports, port)
}
