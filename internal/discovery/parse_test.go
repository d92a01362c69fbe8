package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCSRFToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cmdline string
		want    string
	}{
		{"equals", "/opt/language_server --port 1 --csrf_token=abc-123 --x=y", "abc-123"},
		{"space", `language_server.exe --csrf_token abc-123`, "abc-123"},
		{"double quoted", `language_server.exe --csrf_token="abc-123"`, "abc-123"},
		{"single quoted", `language_server --csrf_token 'abc-123'`, "abc-123"},
		{"absent", "language_server --port 5", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractCSRFToken(tt.cmdline))
		})
	}
}

func TestMatchesPattern(t *testing.T) {
	t.Parallel()

	assert.True(t, MatchesPattern("Language_Server_Windows_x64.exe", "language_server"))
	assert.True(t, MatchesPattern("/Applications/Antigravity.app/language_server_macos", "LANGUAGE_SERVER"))
	assert.False(t, MatchesPattern("node", "language_server"))
	assert.False(t, MatchesPattern("", "language_server"))
	assert.False(t, MatchesPattern("language_server", ""))
}

func TestParsePowerShellProcesses(t *testing.T) {
	t.Parallel()

	t.Run("array", func(t *testing.T) {
		t.Parallel()
		out := `[
  {"ProcessId": 100, "Name": "language_server_windows_x64.exe", "CommandLine": "C:\\ls.exe --csrf_token=a"},
  {"ProcessId": 200, "Name": "language_server_windows_x64.exe", "CommandLine": null},
  {"ProcessId": 300, "Name": "language_server_windows_x64.exe", "CommandLine": "C:\\ls.exe --csrf_token b"}
]`
		procs := ParsePowerShellProcesses(out)
		require.Len(t, procs, 2)
		assert.Equal(t, 100, procs[0].PID)
		assert.Equal(t, "language_server_windows_x64.exe", procs[0].Name)
		assert.Equal(t, 300, procs[1].PID)
	})

	t.Run("single object", func(t *testing.T) {
		t.Parallel()
		procs := ParsePowerShellProcesses(`{"ProcessId": 42, "CommandLine": "ls --csrf_token=z"}`)
		require.Len(t, procs, 1)
		assert.Equal(t, 42, procs[0].PID)
		assert.Equal(t, "ls --csrf_token=z", procs[0].CommandLine)
	})

	t.Run("malformed or empty", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, ParsePowerShellProcesses(""))
		assert.Empty(t, ParsePowerShellProcesses("   \r\n"))
		assert.Empty(t, ParsePowerShellProcesses("Get-CimInstance : Access denied"))
		assert.Empty(t, ParsePowerShellProcesses("[{"))
	})
}

func TestParsePsOutput(t *testing.T) {
	t.Parallel()

	out := `
  501 /Users/user/Library/Application Support/Antigravity/language_server --port 54321 --csrf_token=super-secret-mac-token-123
 6789 some_other_process --flag
 bogus line
`
	procs := ParsePsOutput(out)
	require.Len(t, procs, 2)
	assert.Equal(t, 501, procs[0].PID)
	assert.Contains(t, procs[0].CommandLine, "--csrf_token=super-secret-mac-token-123")
	assert.Equal(t, "some_other_process", procs[1].Name)
}

func TestParseNetstatListening(t *testing.T) {
	t.Parallel()

	out := "\r\n" +
		"Active Connections\r\n" +
		"\r\n" +
		"  Proto  Local Address          Foreign Address        State           PID\r\n" +
		"  TCP    127.0.0.1:54321        0.0.0.0:0              LISTENING       1234\r\n" +
		"  TCP    127.0.0.1:54322        0.0.0.0:0              LISTENING       1234\r\n" +
		"  TCP    127.0.0.1:54321        127.0.0.1:60000        ESTABLISHED     1234\r\n" +
		"  TCP    127.0.0.1:9999         0.0.0.0:0              LISTENING       12345\r\n" +
		"  TCP    [::1]:54323            [::]:0                 LISTENING       1234\r\n" +
		"  TCP    [::]:54321             [::]:0                 LISTENING       1234\r\n"

	assert.Equal(t, []int{54321, 54322, 54323}, ParseNetstatListening(out, 1234))
	assert.Equal(t, []int{9999}, ParseNetstatListening(out, 12345))
	assert.Empty(t, ParseNetstatListening(out, 1))
}

func TestParseLsofListening(t *testing.T) {
	t.Parallel()

	out := `COMMAND     PID USER   FD   TYPE             DEVICE SIZE/OFF NODE NAME
lang_serv 12345 user   3u  IPv4 0x1234567890abcdef      0t0  TCP 127.0.0.1:54321 (LISTEN)
lang_serv 12345 user   4u  IPv6 0x1234567890abcdee      0t0  TCP [::1]:54322 (LISTEN)
lang_serv 12345 user   5u  IPv4 0x1234567890abcded      0t0  TCP 127.0.0.1:54321 (LISTEN)
`
	assert.Equal(t, []int{54321, 54322}, ParseLsofListening(out))
	assert.Empty(t, ParseLsofListening(""))
}
