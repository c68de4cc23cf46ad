package audit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridiron-hq/fantasy-bridge/internal/audit"
)

func TestLog_ReturnsContextEntry(t *testing.T) {
	ctx, entry := audit.Context(context.Background())

	assert.Same(t, entry, audit.Log(ctx))
}

func TestLog_DetachedWithoutMiddleware(t *testing.T) {
	entry := audit.Log(context.Background())

	require.NotNil(t, entry)
	assert.NotPanics(t, func() {
		entry.Session = "s1"
	})
}

func TestMiddleware_InstallsEntryAndPropagatesResult(t *testing.T) {
	var captured *audit.Entry
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		captured = audit.Log(ctx)
		captured.Session = "s1"
		return mcp.NewToolResultText("ok"), nil
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = "get_league_info"

	result, err := audit.Middleware()(handler)(context.Background(), req)

	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotNil(t, captured)
	assert.Equal(t, "get_league_info", captured.Tool)
	assert.Equal(t, "s1", captured.Session)
}

func TestMiddleware_RecordsHandlerError(t *testing.T) {
	var captured *audit.Entry
	handlerErr := errors.New("boom")
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		captured = audit.Log(ctx)
		return nil, handlerErr
	}

	_, err := audit.Middleware()(handler)(context.Background(), mcp.CallToolRequest{})

	assert.ErrorIs(t, err, handlerErr)
	assert.Equal(t, "boom", captured.Error)
}
