package e2e

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// TestCLI_E2E verifies the built binary functions correctly
func TestCLI_E2E(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary")
	}

	tmpDir := t.TempDir()
	binName := "primecount"
	if runtime.GOOS == "windows" {
		binName = "primecount.exe"
	}
	binPath := filepath.Join(tmpDir, binName)

	// go test runs in the package directory; build from the module root.
	rootDir := "../.."

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/primecount")
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("Failed to build primecount: %v", err)
	}

	profile := filepath.Join(tmpDir, "profile.json")

	tests := []struct {
		name     string
		args     []string
		wantOut  string // substring match (case-insensitive)
		wantCode int
		stdin    string
	}{
		{
			name:     "Basic Count",
			args:     []string{"--low", "0", "--high", "1000", "--jobs", "4"},
			wantOut:  "Primes in [0, 1000]: 168",
			wantCode: 0,
		},
		{
			name:     "Help",
			args:     []string{"--help"},
			wantOut:  "usage",
			wantCode: 0,
		},
		{
			name:     "All Algorithms Comparison",
			args:     []string{"--high", "100000", "--algo", "all", "-j", "3"},
			wantOut:  "All valid results are consistent",
			wantCode: 0,
		},
		{
			name:     "Quiet Mode",
			args:     []string{"--high", "100", "--quiet"},
			wantOut:  "25",
			wantCode: 0,
		},
		{
			name:     "Single Point Range",
			args:     []string{"--low", "5", "--high", "5", "-q"},
			wantOut:  "1",
			wantCode: 0,
		},
		{
			name:     "Inverted Range",
			args:     []string{"--low", "10", "--high", "5"},
			wantOut:  "low exceeds high",
			wantCode: 4,
		},
		{
			name:     "Zero Jobs",
			args:     []string{"--high", "100", "--jobs", "0"},
			wantOut:  "jobs",
			wantCode: 4,
		},
		{
			name:     "Unknown Algorithm",
			args:     []string{"--algo", "wheel"},
			wantOut:  "unrecognized algorithm",
			wantCode: 4,
		},
		{
			name:     "Very Short Timeout",
			args:     []string{"--high", "50000000", "--algo", "trial", "--timeout", "1ms"},
			wantOut:  "",
			wantCode: 2,
		},
		{
			name:     "Calibration",
			args:     []string{"--calibrate", "--calibration-profile", profile},
			wantOut:  "calibration",
			wantCode: 0,
		},
		{
			name:     "Interactive Session",
			args:     []string{"-i", "-j", "2"},
			stdin:    "100\nisprime 97\nquit\n",
			wantOut:  "pi[0, 100] = 25",
			wantCode: 0,
		},
		{
			name:     "Version Flag",
			args:     []string{"--version"},
			wantOut:  "primecount",
			wantCode: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(binPath, tt.args...)
			cmd.Env = append(os.Environ(), "NO_COLOR=1", "HOME="+tmpDir)
			if tt.stdin != "" {
				cmd.Stdin = strings.NewReader(tt.stdin)
			}
			output, err := cmd.CombinedOutput()
			outStr := string(output)

			if tt.wantCode == 0 {
				if err != nil {
					t.Errorf("Command failed unexpectedly: %v\nOutput: %s", err, outStr)
				}
			} else {
				var exitErr *exec.ExitError
				if err == nil {
					t.Errorf("Expected exit code %d, but command succeeded.\nOutput: %s", tt.wantCode, outStr)
				} else if errors.As(err, &exitErr) && exitErr.ExitCode() != tt.wantCode {
					t.Errorf("Exit code = %d, want %d\nOutput: %s", exitErr.ExitCode(), tt.wantCode, outStr)
				}
			}

			if tt.wantOut != "" {
				if !strings.Contains(strings.ToLower(outStr), strings.ToLower(tt.wantOut)) {
					t.Errorf("Output missing expected string.\nExpected: %q\nGot:\n%s", tt.wantOut, outStr)
				}
			}
		})
	}
}
