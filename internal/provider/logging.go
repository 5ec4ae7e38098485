package provider

import (
	"context"
	"time"
)

// Logger is the logging interface used by providers.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type logged struct {
	Provider
	logger Logger
}

// WithLogging wraps p so every request is logged with its id, duration
// and outcome.
func WithLogging(p Provider, logger Logger) Provider {
	if logger == nil {
		return p
	}
	return &logged{Provider: p, logger: logger}
}

func (l *logged) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	l.logger.Debug("generate %s: provider=%s model=%s chars=%d", req.ID, l.Name(), req.Options.Model, len(req.ExistingText))
	text, err := l.Provider.Generate(ctx, req)
	if err != nil {
		l.logger.Warn("generate %s failed after %v: %v", req.ID, time.Since(start), err)
		return "", err
	}
	l.logger.Info("generate %s done in %v (%d chars)", req.ID, time.Since(start), len(text))
	return text, nil
}
