package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/authgate/logger"
)

// DefaultStopTimeout bounds each component's Stop.
const DefaultStopTimeout = 10 * time.Second

type slot struct {
	c       Component
	running bool
}

// Registry starts components in registration order and stops them in
// reverse. Register the database before anything that reads credentials.
type Registry struct {
	mu    sync.RWMutex
	slots []*slot
	names map[string]struct{}
	log   *logger.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{names: make(map[string]struct{}), log: log.WithComponent("registry")}
}

// Register appends c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.names[c.Name()]; dup {
		return fmt.Errorf("component %s already registered", c.Name())
	}
	r.names[c.Name()] = struct{}{}
	r.slots = append(r.slots, &slot{c: c})
	return nil
}

// StartAll starts every component that is not running yet and stops at the
// first failure. Calling it again picks up components registered since.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.slots {
		if s.running {
			continue
		}
		if err := s.c.Start(ctx); err != nil {
			r.log.Error("component start failed", map[string]interface{}{
				logger.FieldComponent: s.c.Name(),
				logger.FieldError:     err.Error(),
			})
			return fmt.Errorf("start %s: %w", s.c.Name(), err)
		}
		s.running = true
		r.log.Debug("component started", map[string]interface{}{logger.FieldComponent: s.c.Name()})
	}
	return nil
}

// StopAll stops running components in reverse order. Every component gets
// its own DefaultStopTimeout; failures are joined.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for i := len(r.slots) - 1; i >= 0; i-- {
		s := r.slots[i]
		if !s.running {
			continue
		}
		stopCtx, cancel := context.WithTimeout(ctx, DefaultStopTimeout)
		err := s.c.Stop(stopCtx)
		cancel()
		s.running = false
		if err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", s.c.Name(), err))
			continue
		}
		r.log.Info("component stopped", map[string]interface{}{logger.FieldComponent: s.c.Name()})
	}
	return errors.Join(errs...)
}

// HealthAll asks every registered component for its health, in
// registration order. It is the checker behind the health endpoints.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Health, len(r.slots))
	for i, s := range r.slots {
		out[i] = s.c.Health(ctx)
	}
	return out
}
