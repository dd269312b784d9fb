// Package alerting formats analysis results into human-readable alert text
// and defines the seam to the external notification channel (Telegram in
// the production deployment).
package alerting

import (
	"context"

	"go.uber.org/zap"
)

// Notifier delivers a formatted alert message to an external channel. The
// concrete Telegram implementation lives outside this module.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// LogNotifier writes alert messages to the log. Used when no chat channel
// is configured.
type LogNotifier struct {
	logger *zap.SugaredLogger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the message at info level.
func (n *LogNotifier) Notify(_ context.Context, message string) error {
	n.logger.Infow("Alert", "message", message)
	return nil
}

// NopNotifier discards all messages.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(context.Context, string) error { return nil }
