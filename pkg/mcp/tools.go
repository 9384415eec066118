package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

func (s *Server) register() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "internhub_positions",
		Description: "List active internship positions, or every position of one startup.",
	}, s.positions)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "internhub_startups",
		Description: "List registered startups.",
	}, s.startups)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "internhub_applications",
		Description: "List applications submitted by a student or received by a startup owner.",
	}, s.applications)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "internhub_activity",
		Description: "Show recent activity for a startup, newest first.",
	}, s.activity)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "internhub_cache_stats",
		Description: "Show query cache statistics (entries, hits, misses, hit rate).",
	}, s.cacheStats)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "internhub_cache_invalidate",
		Description: "Invalidate query cache entries by key, key prefix or tag. With no arguments the whole cache is cleared.",
	}, s.cacheInvalidate)
}

type positionsInput struct {
	StartupID string `json:"startup_id,omitempty" jsonschema:"restrict to one startup, including closed positions"`
	Fresh     bool   `json:"fresh,omitempty" jsonschema:"bypass the query cache"`
}

func (s *Server) positions(ctx context.Context, _ *mcp.CallToolRequest, in positionsInput) (*mcp.CallToolResult, any, error) {
	if in.StartupID != "" {
		positions, err := s.market.StartupPositions(ctx, in.StartupID, in.Fresh)
		if err != nil {
			return s.fail("internhub_positions", "Error fetching startup positions", err), nil, nil
		}
		return textResult(formatStartupPositions(positions)), nil, nil
	}
	positions, err := s.market.ActivePositions(ctx, in.Fresh)
	if err != nil {
		return s.fail("internhub_positions", "Error fetching positions", err), nil, nil
	}
	return textResult(formatListings(positions)), nil, nil
}

type freshInput struct {
	Fresh bool `json:"fresh,omitempty" jsonschema:"bypass the query cache"`
}

func (s *Server) startups(ctx context.Context, _ *mcp.CallToolRequest, in freshInput) (*mcp.CallToolResult, any, error) {
	startups, err := s.market.Startups(ctx, in.Fresh)
	if err != nil {
		return s.fail("internhub_startups", "Error fetching startups", err), nil, nil
	}
	return textResult(formatStartups(startups)), nil, nil
}

type applicationsInput struct {
	StudentID string `json:"student_id,omitempty" jsonschema:"student whose applications to list"`
	OwnerID   string `json:"owner_id,omitempty" jsonschema:"startup owner whose incoming applications to list"`
	Fresh     bool   `json:"fresh,omitempty" jsonschema:"bypass the query cache"`
}

func (s *Server) applications(ctx context.Context, _ *mcp.CallToolRequest, in applicationsInput) (*mcp.CallToolResult, any, error) {
	switch {
	case in.StudentID != "" && in.OwnerID == "":
		apps, err := s.market.StudentApplications(ctx, in.StudentID, in.Fresh)
		if err != nil {
			return s.fail("internhub_applications", "Error fetching applications", err), nil, nil
		}
		return textResult(formatStudentApplications(apps)), nil, nil
	case in.OwnerID != "" && in.StudentID == "":
		apps, err := s.market.StartupApplications(ctx, in.OwnerID, in.Fresh)
		if err != nil {
			return s.fail("internhub_applications", "Error fetching applications", err), nil, nil
		}
		return textResult(formatStartupApplications(apps)), nil, nil
	default:
		return errorResult("exactly one of student_id or owner_id is required"), nil, nil
	}
}

type activityInput struct {
	StartupID string `json:"startup_id,omitempty" jsonschema:"the startup to inspect"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum events to return, default 50"`
}

func (s *Server) activity(ctx context.Context, _ *mcp.CallToolRequest, in activityInput) (*mcp.CallToolResult, any, error) {
	if in.StartupID == "" {
		return errorResult("startup_id is required"), nil, nil
	}
	events, err := s.market.StartupActivity(ctx, in.StartupID, in.Limit)
	if err != nil {
		return s.fail("internhub_activity", "Error fetching activity", err), nil, nil
	}
	return textResult(formatActivity(events)), nil, nil
}

func (s *Server) cacheStats(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	if s.cache == nil {
		return textResult("Query cache is not attached."), nil, nil
	}
	return textResult(formatCacheStats(s.cache.Stats())), nil, nil
}

type invalidateInput struct {
	Key    string `json:"key,omitempty" jsonschema:"exact cache key"`
	Prefix string `json:"prefix,omitempty" jsonschema:"key prefix such as startup_applications_"`
	Tag    string `json:"tag,omitempty" jsonschema:"invalidation tag such as applications"`
}

func (s *Server) cacheInvalidate(_ context.Context, _ *mcp.CallToolRequest, in invalidateInput) (*mcp.CallToolResult, any, error) {
	if s.cache == nil {
		return textResult("Query cache is not attached."), nil, nil
	}

	var removed int
	switch {
	case in.Key != "":
		if s.cache.Contains(in.Key) {
			removed = 1
		}
		s.cache.Invalidate(in.Key)
	case in.Prefix != "":
		removed = s.cache.InvalidatePrefix(in.Prefix)
	case in.Tag != "":
		removed = s.cache.InvalidateTag(in.Tag)
	default:
		removed = s.cache.Len()
		s.cache.InvalidateAll()
	}
	s.log.Info("cache invalidated via mcp", zap.Int("removed", removed))
	return textResult(fmt.Sprintf("Removed %d cache entries.", removed)), nil, nil
}

func (s *Server) fail(tool, msg string, err error) *mcp.CallToolResult {
	s.log.Warn("mcp tool failed", zap.String("tool", tool), zap.Error(err))
	return errorResult(msg + ": " + err.Error())
}
