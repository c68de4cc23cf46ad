// Package league caches constructed league handles per session, rebuilding
// them when the session's credentials rotate.
package league

import (
	"context"
	"fmt"
	"sync"

	"github.com/maypok86/otter/v2"
	"github.com/rs/zerolog/log"

	"github.com/gridiron-hq/fantasy-bridge/internal/auth"
	"github.com/gridiron-hq/fantasy-bridge/internal/credential"
	"github.com/gridiron-hq/fantasy-bridge/internal/espn"
)

// Constructor builds a league handle from the external API. The production
// implementation wraps espn.Client.League.
type Constructor func(ctx context.Context, leagueID, year int, cred credential.Credential) (*espn.League, error)

// sessionState tracks the cache keys owned by one session and the fingerprint
// of the credentials its handles were built with.
type sessionState struct {
	fingerprint string
	keys        map[string]struct{}
}

// Cache maps (session, league id, year) to a league handle. Handles built
// with credentials that no longer match the session's current ones are never
// served: the session's entries are evicted before lookup.
type Cache struct {
	coordinator *auth.Coordinator
	build       Constructor

	handles *otter.Cache[string, *espn.League]

	// mu guards sessions and makes a session's evict-then-insert sequence
	// atomic with respect to concurrent reads of the same session.
	mu       sync.Mutex
	sessions map[string]*sessionState
}

// NewCache creates a cache backed by an in-memory store bounded to maxSize
// handles.
func NewCache(coordinator *auth.Coordinator, build Constructor, maxSize int) *Cache {
	handles := otter.Must(&otter.Options[string, *espn.League]{
		MaximumSize: maxSize,
	})

	return &Cache{
		coordinator: coordinator,
		build:       build,
		handles:     handles,
		sessions:    make(map[string]*sessionState),
	}
}

// Get returns the league handle for the key, ensuring credentials first and
// constructing the handle on a miss. Construction failures propagate with
// their espn error classification intact.
func (c *Cache) Get(ctx context.Context, session string, leagueID, year int) (*espn.League, error) {
	cred, _, err := c.coordinator.Ensure(ctx, session)
	if err != nil {
		return nil, err
	}

	fingerprint := cred.Fingerprint()
	key := cacheKey(session, leagueID, year)

	c.mu.Lock()
	state := c.sessions[session]
	if state == nil || state.fingerprint != fingerprint {
		// First use of the session, or its credentials rotated: every handle
		// built under the old credentials is dropped before serving anything.
		if state != nil {
			c.evictLocked(session, state)
		}
		state = &sessionState{
			fingerprint: fingerprint,
			keys:        make(map[string]struct{}),
		}
		c.sessions[session] = state
	}

	if entry, ok := c.handles.GetEntry(key); ok {
		c.mu.Unlock()
		return entry.Value, nil
	}
	c.mu.Unlock()

	log.Info().
		Str("session", session).
		Int("league", leagueID).
		Int("year", year).
		Msg("constructing league handle")

	// Built outside the lock; construction is a network round trip.
	handle, err := c.build(ctx, leagueID, year, cred)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	state = c.sessions[session]
	if state == nil || state.fingerprint != fingerprint {
		// The session's credentials rotated (or it was purged) during
		// construction. The handle was valid for this request, but caching it
		// would let it outlive its credentials.
		return handle, nil
	}

	c.handles.Set(key, handle)
	state.keys[key] = struct{}{}

	return handle, nil
}

// PurgeSession drops every handle belonging to the session along with its
// credential fingerprint, as on logout.
func (c *Cache) PurgeSession(session string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if state, ok := c.sessions[session]; ok {
		c.evictLocked(session, state)
		delete(c.sessions, session)
	}
}

func (c *Cache) evictLocked(session string, state *sessionState) {
	for key := range state.keys {
		c.handles.Invalidate(key)
	}
	if len(state.keys) > 0 {
		log.Info().
			Str("session", session).
			Int("handles", len(state.keys)).
			Msg("evicted cached league handles")
	}
}

func cacheKey(session string, leagueID, year int) string {
	return fmt.Sprintf("league://%s/%d/%d", session, leagueID, year)
}
