package tsdemux

import (
	"context"

	"github.com/asticode/go-astikit"
)

// Logger is the logging interface this package writes diagnostics to. It
// is satisfied by astikit.CompleteLogger (and therefore by
// astikit.AdaptStdLogger wrapping any *log.Logger, zap, logrus, etc.).
type Logger = astikit.CompleteLogger

// noopLogger discards everything; used when no logger is configured.
type noopLogger struct{}

func (noopLogger) Debug(v ...interface{})            {}
func (noopLogger) Debugf(f string, v ...interface{}) {}
func (noopLogger) DebugC(ctx context.Context, v ...interface{})                       {}
func (noopLogger) DebugCf(ctx context.Context, f string, v ...interface{})            {}
func (noopLogger) Error(v ...interface{})            {}
func (noopLogger) Errorf(f string, v ...interface{}) {}
func (noopLogger) ErrorC(ctx context.Context, v ...interface{})                       {}
func (noopLogger) ErrorCf(ctx context.Context, f string, v ...interface{})            {}
func (noopLogger) Fatal(v ...interface{})            {}
func (noopLogger) Fatalf(f string, v ...interface{}) {}
func (noopLogger) FatalC(ctx context.Context, v ...interface{})                       {}
func (noopLogger) FatalCf(ctx context.Context, f string, v ...interface{})            {}
func (noopLogger) Info(v ...interface{})             {}
func (noopLogger) Infof(f string, v ...interface{})  {}
func (noopLogger) InfoC(ctx context.Context, v ...interface{})                        {}
func (noopLogger) InfoCf(ctx context.Context, f string, v ...interface{})             {}
func (noopLogger) Warn(v ...interface{})             {}
func (noopLogger) Warnf(f string, v ...interface{})  {}
func (noopLogger) WarnC(ctx context.Context, v ...interface{})                        {}
func (noopLogger) WarnCf(ctx context.Context, f string, v ...interface{})             {}
func (noopLogger) Print(v ...interface{})            {}
func (noopLogger) Printf(f string, v ...interface{}) {}

var defaultLogger Logger = noopLogger{}
