package goroutine

import (
	"context"
	"fmt"
	"runtime/debug"
)

// Logger is the minimal logging surface the recovery handler needs.
type Logger interface {
	Errorf(format string, args ...interface{})
}

// RecoveryHandler runs goroutines with panic recovery.
type RecoveryHandler struct {
	logger Logger
}

func NewRecoveryHandler(logger Logger) *RecoveryHandler {
	return &RecoveryHandler{logger: logger}
}

// SafeGo launches fn in a goroutine and logs any panic.
func (rh *RecoveryHandler) SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				rh.logger.Errorf("panic in goroutine: %v\nstack trace:\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}

// SafeGoWithContext is SafeGo for context-aware functions.
func (rh *RecoveryHandler) SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				rh.logger.Errorf("panic in goroutine (with context): %v\nstack trace:\n%s", r, debug.Stack())
			}
		}()
		fn(ctx)
	}()
}

// SimpleLogger writes through fmt.Printf when no structured logger is
// wired in yet.
type SimpleLogger struct{}

func (l *SimpleLogger) Errorf(format string, args ...interface{}) {
	fmt.Printf("[ERROR] "+format+"\n", args...)
}

var DefaultRecoveryHandler = NewRecoveryHandler(&SimpleLogger{})

// SafeGo launches fn under the default recovery handler.
func SafeGo(fn func()) {
	DefaultRecoveryHandler.SafeGo(fn)
}

// SafeGoWithContext launches fn under the default recovery handler.
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	DefaultRecoveryHandler.SafeGoWithContext(ctx, fn)
}
