package server

import (
	"context"

	"github.com/rs/zerolog/log"
)

type hook struct {
	name string
	fn   func(context.Context) error
}

// ShutdownHooks collects cleanup functions registered during startup.
// Execute runs them in reverse registration order, mirroring defer, so
// dependencies shut down after their dependents. A failing hook is logged and
// does not stop the remainder.
type ShutdownHooks struct {
	hooks []hook
}

// Add registers a cleanup function. Nil hooks are ignored with a warning.
func (s *ShutdownHooks) Add(name string, fn func(context.Context) error) {
	if fn == nil {
		log.Warn().Str("hook", name).Msg("ignoring nil shutdown hook")
		return
	}
	s.hooks = append(s.hooks, hook{name: name, fn: fn})
}

// AddSimple registers a cleanup function that needs no context.
func (s *ShutdownHooks) AddSimple(name string, fn func() error) {
	if fn == nil {
		log.Warn().Str("hook", name).Msg("ignoring nil shutdown hook")
		return
	}
	s.Add(name, func(context.Context) error { return fn() })
}

// Execute runs all hooks, most recently registered first.
func (s *ShutdownHooks) Execute(ctx context.Context) {
	for i := len(s.hooks) - 1; i >= 0; i-- {
		h := s.hooks[i]
		if err := h.fn(ctx); err != nil {
			log.Warn().Str("hook", h.name).Err(err).Msg("shutdown hook failed")
		} else {
			log.Debug().Str("hook", h.name).Msg("shutdown hook complete")
		}
	}
}
