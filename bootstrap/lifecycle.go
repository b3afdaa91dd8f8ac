package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/authgate/config"
	"github.com/kbukum/authgate/logger"
)

// Config is the typed application config. Implementations embed
// config.ServiceConfig and add defaults and checks for their own sections.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}

// Hook runs at a fixed point of the lifecycle. An error from a start or
// ready hook aborts startup.
type Hook func(ctx context.Context) error

// OnStart hooks run after the first batch of components started, before
// the configure callbacks.
func (a *App[C]) OnStart(hooks ...Hook) { a.onStart = append(a.onStart, hooks...) }

// OnReady hooks run once every component, including late ones, has started.
func (a *App[C]) OnReady(hooks ...Hook) { a.onReady = append(a.onReady, hooks...) }

// OnStop hooks run before components are stopped.
func (a *App[C]) OnStop(hooks ...Hook) { a.onStop = append(a.onStop, hooks...) }

func runHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("hook %d: %w", i, err)
		}
	}
	return nil
}

// Option adjusts NewApp.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout time.Duration
}

// WithLogger replaces the logger NewApp would build from config.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// WithGracefulTimeout bounds the whole shutdown sequence.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		if d > 0 {
			o.gracefulTimeout = d
		}
	}
}
