package logger

import "portfolio_aggregator/internal/app/port"

// slogAdapter implements port.Logger on top of the package-global slog
// functions, so services that expect an injected logger get one.
type slogAdapter struct{}

// NewSlogAdapter creates a new slogAdapter instance.
func NewSlogAdapter() port.Logger {
	return &slogAdapter{}
}

func (a *slogAdapter) Info(msg string, args ...any) {
	Info(msg, args...)
}

func (a *slogAdapter) Debug(msg string, args ...any) {
	Debug(msg, args...)
}

func (a *slogAdapter) Warn(msg string, args ...any) {
	Warn(msg, args...)
}

func (a *slogAdapter) Error(msg string, args ...any) {
	Error(msg, args...)
}
