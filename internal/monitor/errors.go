package monitor

import (
	"errors"
	"fmt"
	"os"
)

// ErrQuit is the cancellation cause when the user asks to exit.
var ErrQuit = errors.New("quit requested")

// Exit codes
const (
	ExitOK     = 0
	ExitError  = 1
	ExitSignal = 255
)

// KeyListenerError means the key listener could not continue: the terminal
// failed or a reset it requested failed. The whole session ends with it.
type KeyListenerError struct {
	// Op is what the listener was doing ("read" or "reset")
	Op string
	// Underlying error
	Err error
}

func (e *KeyListenerError) Error() string {
	return fmt.Sprintf("key listener %s failed: %v", e.Op, e.Err)
}

func (e *KeyListenerError) Unwrap() error {
	return e.Err
}

// SignalError means the process was asked to terminate by a signal.
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("terminated by signal: %v", e.Signal)
}

// ReadError is a serial transport failure other than a timeout.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("serial read failed: %v", e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ExitCode maps the result of Run to a process exit status.
func ExitCode(err error) int {
	var sigErr *SignalError
	switch {
	case err == nil, errors.Is(err, ErrQuit):
		return ExitOK
	case errors.As(err, &sigErr):
		return ExitSignal
	default:
		return ExitError
	}
}
