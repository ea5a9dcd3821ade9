package symbolize

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// PrerequisiteCheck represents the result of checking a single prerequisite.
type PrerequisiteCheck struct {
	// Name is the human-readable name of the prerequisite
	Name string
	// Available indicates whether the prerequisite is available
	Available bool
	// Path is the resolved path (for binary checks)
	Path string
	// Version is the detected version (if applicable)
	Version string
	// Message provides additional context (error message or success info)
	Message string
	// Error contains the underlying error if check failed
	Error error
}

// CheckTool verifies that <toolPrefix>addr2line is on PATH and runs.
func CheckTool(ctx context.Context, toolPrefix string) PrerequisiteCheck {
	tool := ToolName(toolPrefix)
	check := PrerequisiteCheck{Name: tool}

	path, err := exec.LookPath(tool)
	if err != nil {
		check.Error = &PrerequisiteError{
			Prerequisite: tool,
			Details:      "not found in PATH; install the Xtensa toolchain (espup or ESP-IDF export.sh) to get it",
			Err:          err,
		}
		check.Message = fmt.Sprintf("%s not found in PATH\n"+
			"Addresses will be printed without symbols.\n"+
			"Install with: espup install, or source ESP-IDF's export.sh", tool)
		return check
	}
	check.Path = path

	versionCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	output, err := exec.CommandContext(versionCtx, path, "--version").Output()
	if err != nil {
		check.Error = &PrerequisiteError{
			Prerequisite: tool,
			Details:      fmt.Sprintf("failed to execute %s --version", path),
			Err:          err,
		}
		check.Message = fmt.Sprintf("%s found at %s but failed to execute: %v", tool, path, err)
		return check
	}

	first, _, _ := strings.Cut(string(output), "\n")
	check.Version = strings.TrimSpace(first)
	check.Available = true
	check.Message = fmt.Sprintf("Found at %s", path)
	return check
}

// CheckBinary verifies that the flash image exists and is a regular file.
func CheckBinary(binary string) PrerequisiteCheck {
	check := PrerequisiteCheck{Name: "Flash image", Path: binary}

	info, err := os.Stat(binary)
	switch {
	case err != nil:
		check.Error = &PrerequisiteError{Prerequisite: "flash image", Details: binary, Err: err}
		check.Message = fmt.Sprintf("%s does not exist (you may need to build it)", binary)
	case info.IsDir():
		check.Error = &PrerequisiteError{Prerequisite: "flash image", Details: binary + " is a directory"}
		check.Message = fmt.Sprintf("%s is a directory, expected an ELF file", binary)
	default:
		check.Available = true
		check.Message = fmt.Sprintf("%d bytes, modified %s", info.Size(), info.ModTime().Format(time.RFC3339))
	}
	return check
}

// FormatReport formats prerequisite checks into a human-readable string.
func FormatReport(checks []PrerequisiteCheck) string {
	var sb strings.Builder

	for _, check := range checks {
		if check.Available {
			sb.WriteString(fmt.Sprintf("✓ %s\n", check.Name))
			if check.Version != "" {
				sb.WriteString(fmt.Sprintf("  Version: %s\n", check.Version))
			}
			if check.Path != "" {
				sb.WriteString(fmt.Sprintf("  Path: %s\n", check.Path))
			}
		} else {
			sb.WriteString(fmt.Sprintf("✗ %s\n", check.Name))
		}
		if check.Message != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", check.Message))
		}
	}

	return sb.String()
}
