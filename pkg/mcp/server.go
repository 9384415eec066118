// Package mcp exposes marketplace queries and cache administration as Model
// Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/internhub/internhub/pkg/models"
)

const serverName = "internhub"

// Marketplace is the read side of the marketplace service.
type Marketplace interface {
	ActivePositions(ctx context.Context, fresh bool) ([]models.PositionListing, error)
	StartupPositions(ctx context.Context, startupID string, fresh bool) ([]models.Position, error)
	Startups(ctx context.Context, fresh bool) ([]models.Startup, error)
	StartupApplications(ctx context.Context, ownerID string, fresh bool) ([]models.StartupApplication, error)
	StudentApplications(ctx context.Context, studentID string, fresh bool) ([]models.StudentApplication, error)
	StartupActivity(ctx context.Context, startupID string, limit int) ([]models.ActivityEvent, error)
}

// CacheAdmin inspects and invalidates the query cache.
type CacheAdmin interface {
	Stats() models.CacheStats
	Len() int
	Contains(key string) bool
	Invalidate(key string)
	InvalidateAll()
	InvalidatePrefix(prefix string) int
	InvalidateTag(tags ...string) int
}

// Server serves marketplace tools over an MCP transport.
type Server struct {
	server *mcp.Server
	market Marketplace
	cache  CacheAdmin
	log    *zap.Logger
}

// New creates a Server and registers its tools. cache may be nil, in which
// case the cache tools report that no cache is attached.
func New(market Marketplace, cache CacheAdmin, log *zap.Logger, version string) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil),
		market: market,
		cache:  cache,
		log:    log,
	}
	s.register()
	return s
}

// ServeStdio serves a single client on stdin/stdout until ctx is cancelled
// or the client disconnects.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.serve(ctx, &mcp.StdioTransport{})
}

func (s *Server) serve(ctx context.Context, transport mcp.Transport) error {
	err := s.server.Run(ctx, transport)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve mcp: %w", err)
	}
	return nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
