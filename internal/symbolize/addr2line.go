package symbolize

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// DefaultTimeout bounds a single addr2line invocation.
const DefaultTimeout = 5 * time.Second

// killWait bounds how long Resolve waits for output pipes after the tool is
// killed, in case a wrapper left a child holding them open.
const killWait = 100 * time.Millisecond

// addr2lineOutput matches the first line of `addr2line -pfiaC` output:
//
//	0x400d1234: app_main at /src/main.c:42
//	0x40082f7c: panic_abort at ??:?
//
// Unknown addresses print "?? ??:0", which has no "at" and is rejected.
var addr2lineOutput = regexp.MustCompile(`^(?:0x[0-9a-fA-F]+:\s+)?(\S+)\s+at\s+(\?\?|\S+):(\?|[0-9]+)`)

// Location is a resolved program address.
type Location struct {
	Function string
	File     string
	Line     string
}

// String formats the location the way it is shown after an address.
func (l Location) String() string {
	return l.Function + ":" + l.File + ":" + l.Line
}

// Resolver maps a single address token to a source location.
type Resolver interface {
	Resolve(ctx context.Context, address string) (Location, error)
}

// Addr2Line resolves addresses by running `<prefix>addr2line -pfiaCe <binary> <address>`.
type Addr2Line struct {
	tool    string
	binary  string
	timeout time.Duration
}

// NewAddr2Line creates a resolver for the given toolchain prefix and ELF image.
func NewAddr2Line(toolPrefix, binary string) *Addr2Line {
	return &Addr2Line{
		tool:    ToolName(toolPrefix),
		binary:  binary,
		timeout: DefaultTimeout,
	}
}

// ToolName returns the addr2line executable name for a toolchain prefix.
func ToolName(toolPrefix string) string {
	return toolPrefix + "addr2line"
}

// Tool returns the executable this resolver invokes.
func (a *Addr2Line) Tool() string {
	return a.tool
}

// Resolve runs addr2line for one address. Only stdout decides the outcome; a
// non-zero exit status is reported only when stdout is unusable.
func (a *Addr2Line) Resolve(ctx context.Context, address string) (Location, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.tool, "-pfiaCe", a.binary, address)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = killWait

	runErr := cmd.Run()
	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			// Never started: not installed, not executable, timed out
			return Location{}, &ResolveError{Tool: a.tool, Address: address, ExitCode: -1, Err: runErr}
		}
		exitCode = exitErr.ExitCode()
	}

	loc, err := ParseOutput(address, stdout.String())
	if err != nil && exitCode != 0 {
		return Location{}, &ResolveError{Tool: a.tool, Address: address, ExitCode: exitCode, Stderr: strings.TrimSpace(stderr.String())}
	}
	return loc, err
}

// ParseOutput parses the first line of addr2line output.
func ParseOutput(address, output string) (Location, error) {
	first, _, _ := strings.Cut(output, "\n")
	first = strings.TrimRight(first, "\r")

	m := addr2lineOutput.FindStringSubmatch(first)
	if m == nil {
		return Location{}, &ParseError{Address: address, Output: first}
	}
	return Location{Function: m[1], File: m[2], Line: m[3]}, nil
}
