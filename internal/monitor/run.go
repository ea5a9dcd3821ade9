package monitor

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunOptions selects the optional activities that run beside the read loop.
type RunOptions struct {
	// Keys feeds the key listener. Nil when stdin is not interactive.
	Keys KeySource
	// Signals ends the session with a SignalError. Nil disables watching.
	Signals <-chan os.Signal
	Logger  *zap.Logger
}

// Run drives the session until the user quits, a signal arrives or one of
// the activities fails. The first error wins and cancels the others.
func Run(ctx context.Context, s *Session, opts RunOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(guard("read loop", logger, func() error {
		return s.ReadLoop(ctx)
	}))

	if opts.Keys != nil {
		listener := NewKeyListener(opts.Keys, s, logger)
		g.Go(guard("key listener", logger, func() error {
			return listener.Run(ctx)
		}))
	}

	if opts.Signals != nil {
		g.Go(func() error {
			return watchSignals(ctx, opts.Signals, logger)
		})
	}

	err := g.Wait()
	logger.Debug("session ended", zap.Error(err))
	return err
}

// guard turns a panic in fn into an error so Run returns normally and the
// caller's deferred cleanup (terminal restore) still happens.
func guard(name string, logger *zap.Logger, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic", zap.String("activity", name), zap.Any("value", r), zap.Stack("stack"))
				err = fmt.Errorf("%s panicked: %v", name, r)
			}
		}()
		return fn()
	}
}

// NotifySignals subscribes to the termination signals. Call stop when the
// session is over.
func NotifySignals() (sigs <-chan os.Signal, stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	return ch, func() { signal.Stop(ch) }
}

func watchSignals(ctx context.Context, sigs <-chan os.Signal, logger *zap.Logger) error {
	select {
	case <-ctx.Done():
		return nil
	case sig := <-sigs:
		logger.Info("received signal", zap.Stringer("signal", sig))
		return &SignalError{Signal: sig}
	}
}
