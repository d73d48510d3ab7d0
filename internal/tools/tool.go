// Package tools exposes session history and memory recall as callable tools,
// both as genai function declarations and on an MCP server.
package tools

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/genai"

	"github.com/chronos-agent/agent-memory/internal/history"
	"github.com/chronos-agent/agent-memory/internal/store"
)

// HistoryReader is the part of history.Querier the tools need.
type HistoryReader interface {
	ListRecentSessions(ctx context.Context, userID, appName string, limit int) ([]history.SessionSummary, error)
	GetSessionTranscript(ctx context.Context, sessionID, userID, appName string) (*history.Transcript, error)
	SearchSessionsByContent(ctx context.Context, term, userID, appName string, limit int) ([]history.SearchHit, error)
}

var _ HistoryReader = (*history.Querier)(nil)

// Deps holds what the tools read from, plus the scope used when a call
// leaves user_id or app_name out.
type Deps struct {
	History HistoryReader
	Memory  store.MemoryService
	AppName string
	UserID  string
}

func (d Deps) scope(userID, appName string) (string, string) {
	if userID == "" {
		userID = d.UserID
	}
	if appName == "" {
		appName = d.AppName
	}
	return userID, appName
}

// Tool is a single callable function.
type Tool interface {
	Declaration() *genai.FunctionDeclaration
	Call(ctx context.Context, args map[string]any) (any, error)

	register(s *mcp.Server)
}

// typedTool binds a declaration to a handler taking a decoded input struct.
type typedTool[In any] struct {
	decl *genai.FunctionDeclaration
	run  func(ctx context.Context, in In) (any, error)
}

func (t *typedTool[In]) Declaration() *genai.FunctionDeclaration {
	return t.decl
}

func (t *typedTool[In]) Call(ctx context.Context, args map[string]any) (any, error) {
	var in In
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return t.run(ctx, in)
}

func (t *typedTool[In]) register(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        t.decl.Name,
		Description: t.decl.Description,
	}, func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		out, err := t.run(ctx, in)
		if err != nil {
			return nil, nil, err
		}
		b, err := json.Marshal(out)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to encode tool result", goerr.V("tool", t.decl.Name))
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: string(b)},
			},
		}, nil, nil
	})
}

func decodeArgs(args map[string]any, dst any) error {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal function arguments")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return goerr.Wrap(err, "failed to parse input parameters", goerr.V("args", string(raw)))
	}
	return nil
}
