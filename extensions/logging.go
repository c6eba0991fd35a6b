// Package extensions contains optional cross-cutting extensions for observed
// components.
package extensions

import (
	"context"
	"log/slog"
	"time"

	compose "github.com/composefn/compose-go"
)

// LoggingExtension logs subscription lifecycle events through slog.
//
// Usage:
//
//	handler := slog.NewTextHandler(os.Stdout, nil)
//	c := compose.Observe(component, extensions.NewLoggingExtension(handler))
//
//	// Silent (for testing)
//	c := compose.Observe(component, extensions.NewLoggingExtension(extensions.NewSilentHandler()))
type LoggingExtension struct {
	compose.BaseExtension
	logger *slog.Logger
}

// NewLoggingExtension creates a logging extension writing to handler
func NewLoggingExtension(handler slog.Handler) *LoggingExtension {
	return &LoggingExtension{
		BaseExtension: compose.NewBaseExtension("logging"),
		logger:        slog.New(handler),
	}
}

func (e *LoggingExtension) WrapRun(next func() (any, error), sub compose.Subscription) (any, error) {
	start := time.Now()
	result, err := next()
	if err != nil {
		e.logger.Error("run failed",
			"subscription", sub.ID,
			"duration", time.Since(start),
			"error", err,
		)
		return result, err
	}
	e.logger.Debug("run completed",
		"subscription", sub.ID,
		"duration", time.Since(start),
	)
	return result, err
}

func (e *LoggingExtension) OnSubscribe(sub compose.Subscription, props compose.Props) {
	e.logger.Debug("subscribed",
		"subscription", sub.ID,
		"inputs", len(props),
	)
}

func (e *LoggingExtension) OnDeliver(sub compose.Subscription, value any) {
	e.logger.Debug("delivered",
		"subscription", sub.ID,
		"value", value,
	)
}

func (e *LoggingExtension) OnShortCircuit(sub compose.Subscription, sentinel any) {
	if failure, ok := compose.AsFailure(sentinel); ok {
		e.logger.Warn("failure delivered",
			"subscription", sub.ID,
			"error", failure.Err,
		)
		return
	}
	e.logger.Debug("loading delivered",
		"subscription", sub.ID,
	)
}

func (e *LoggingExtension) OnCleanup(sub compose.Subscription, err error) {
	if err != nil {
		e.logger.Warn("cleanup failed",
			"subscription", sub.ID,
			"error", err,
		)
		return
	}
	e.logger.Debug("cleaned up",
		"subscription", sub.ID,
	)
}

// SilentHandler is a slog.Handler that discards all log output.
// Useful for testing when you don't want log output.
type SilentHandler struct{}

// NewSilentHandler creates a new silent log handler
func NewSilentHandler() *SilentHandler {
	return &SilentHandler{}
}

func (h *SilentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return false
}

func (h *SilentHandler) Handle(ctx context.Context, record slog.Record) error {
	return nil
}

func (h *SilentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *SilentHandler) WithGroup(name string) slog.Handler {
	return h
}
