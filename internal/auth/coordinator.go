// Package auth coordinates credential acquisition: the fast path reads the
// store, the slow path runs a browser capture under a process-wide gate.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gridiron-hq/fantasy-bridge/internal/credential"
)

// CaptureFunc acquires a fresh cookie pair. The production implementation is
// browser.Capture; tests substitute counters and stubs.
type CaptureFunc func(ctx context.Context, timeout time.Duration, headless bool) (s2, swid string, err error)

// Coordinator ensures a session holds valid credentials before league data is
// requested. At most one capture runs at a time process-wide; concurrent
// callers queue on the gate and re-check validity once they acquire it, so a
// single successful login satisfies every waiter.
type Coordinator struct {
	store   *credential.Store
	capture CaptureFunc

	gate sync.Mutex

	timeout  time.Duration
	headless bool
	persist  credential.PersistMode
}

// Option adjusts coordinator construction.
type Option func(*Coordinator)

// WithTimeout sets the default capture deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

// WithHeadless controls browser window visibility during capture.
func WithHeadless(headless bool) Option {
	return func(c *Coordinator) { c.headless = headless }
}

// WithPersistMode sets where captured credentials are written.
func WithPersistMode(mode credential.PersistMode) Option {
	return func(c *Coordinator) { c.persist = mode }
}

// NewCoordinator wires a store to a capture function.
func NewCoordinator(store *credential.Store, capture CaptureFunc, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:    store,
		capture:  capture,
		timeout:  3 * time.Minute,
		headless: false,
		persist:  credential.PersistEnv,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ensure returns valid credentials for the session, acquiring them via
// browser capture only when the store cannot supply a valid pair. Capture
// failures propagate unchanged.
func (c *Coordinator) Ensure(ctx context.Context, session string) (credential.Credential, credential.AuthState, error) {
	cred, state := c.store.Get(session)
	if state.Valid {
		return cred, state, nil
	}

	c.gate.Lock()
	defer c.gate.Unlock()

	// A concurrent caller may have completed a capture while this one waited
	// on the gate.
	cred, state = c.store.Get(session)
	if state.Valid {
		return cred, state, nil
	}

	return c.acquire(ctx, session, c.timeout)
}

// Authenticate forces a fresh browser capture for the session regardless of
// current validity, for callers that explicitly want a new login.
func (c *Coordinator) Authenticate(ctx context.Context, session string, timeout time.Duration) (credential.Credential, credential.AuthState, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}

	c.gate.Lock()
	defer c.gate.Unlock()

	return c.acquire(ctx, session, timeout)
}

// acquire runs the capture and stores the result. Callers hold the gate.
func (c *Coordinator) acquire(ctx context.Context, session string, timeout time.Duration) (credential.Credential, credential.AuthState, error) {
	log.Info().
		Str("session", session).
		Dur("timeout", timeout).
		Msg("starting browser credential capture")

	s2, swid, err := c.capture(ctx, timeout, c.headless)
	if err != nil {
		return credential.Credential{}, credential.AuthState{}, err
	}

	cred := credential.Credential{S2: s2, SWID: swid}
	if err := c.store.Set(session, cred, c.persist); err != nil {
		return credential.Credential{}, credential.AuthState{}, err
	}

	cred, state := c.store.Get(session)
	log.Info().
		Str("session", session).
		Str("espn_s2", state.MaskedS2).
		Str("swid", state.MaskedSWID).
		Msg("credentials acquired")

	return cred, state, nil
}
