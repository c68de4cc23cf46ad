// Package audit records one entry per tool invocation, carried on the
// request context and written to the diagnostic log when the tool returns.
package audit

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Entry accumulates the auditable facts of a single tool call. Handlers fill
// in fields as they become known; the middleware emits the entry.
type Entry struct {
	Tool     string
	Session  string
	LeagueID int
	Year     int
	Error    string
}

type contextKey struct{}

// Context returns a derived context carrying a fresh entry, and the entry.
func Context(ctx context.Context) (context.Context, *Entry) {
	entry := &Entry{}
	return context.WithValue(ctx, contextKey{}, entry), entry
}

// Log returns the entry on the context. When no middleware installed one, a
// detached entry is returned so callers never need a nil check; writes to it
// are simply not emitted.
func Log(ctx context.Context) *Entry {
	if entry, ok := ctx.Value(contextKey{}).(*Entry); ok {
		return entry
	}
	return &Entry{}
}

// Middleware wraps tool handlers so every invocation produces exactly one
// audit record, success or failure.
func Middleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ctx, entry := Context(ctx)
			entry.Tool = req.Params.Name

			start := time.Now()
			result, err := next(ctx, req)
			if err != nil && entry.Error == "" {
				entry.Error = err.Error()
			}

			entry.emit(time.Since(start))
			return result, err
		}
	}
}

func (e *Entry) emit(elapsed time.Duration) {
	var ev *zerolog.Event
	if e.Error != "" {
		ev = log.Warn().Str("error", e.Error)
	} else {
		ev = log.Info()
	}

	ev = ev.Str("tool", e.Tool).Dur("duration", elapsed)
	if e.Session != "" {
		ev = ev.Str("session", e.Session)
	}
	if e.LeagueID != 0 {
		ev = ev.Int("league", e.LeagueID)
	}
	if e.Year != 0 {
		ev = ev.Int("year", e.Year)
	}

	ev.Msg("tool call")
}
