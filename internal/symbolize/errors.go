package symbolize

import "fmt"

// ResolveError represents a failure to run the addr2line tool for an address.
// The token it refers to is left unannotated.
type ResolveError struct {
	// Tool is the executable that was invoked
	Tool string
	// Address is the token that was being resolved
	Address string
	// ExitCode is the tool's exit code (-1 if it never ran)
	ExitCode int
	// Stderr is whatever the tool printed on stderr
	Stderr string
	// Underlying error if any
	Err error
}

func (e *ResolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed for %s (exit code %d): %v", e.Tool, e.Address, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("%s failed for %s (exit code %d)\nstderr: %s", e.Tool, e.Address, e.ExitCode, e.Stderr)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// ParseError represents addr2line output that doesn't match the expected
// "function at file:line" grammar.
type ParseError struct {
	// Address is the token that was being resolved
	Address string
	// Output is the first line of tool output
	Output string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unrecognized addr2line output for %s: %q", e.Address, e.Output)
}

// PrerequisiteError represents a missing prerequisite (addr2line binary, flash image).
type PrerequisiteError struct {
	// Prerequisite is the name of the missing prerequisite
	Prerequisite string
	// Details provides additional context
	Details string
	// Underlying error
	Err error
}

func (e *PrerequisiteError) Error() string {
	msg := fmt.Sprintf("missing prerequisite: %s", e.Prerequisite)
	if e.Details != "" {
		msg += "\n" + e.Details
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\nError: %v", e.Err)
	}
	return msg
}

func (e *PrerequisiteError) Unwrap() error {
	return e.Err
}
