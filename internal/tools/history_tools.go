package tools

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/chronos-agent/agent-memory/internal/history"
)

var scopeProperties = map[string]*genai.Schema{
	"user_id": {
		Type:        genai.TypeString,
		Description: "User whose sessions to read (default: the configured user)",
	},
	"app_name": {
		Type:        genai.TypeString,
		Description: "Application the sessions belong to (default: the configured app)",
	},
}

func withScope(props map[string]*genai.Schema) map[string]*genai.Schema {
	out := make(map[string]*genai.Schema, len(props)+len(scopeProperties))
	for k, v := range scopeProperties {
		out[k] = v
	}
	for k, v := range props {
		out[k] = v
	}
	return out
}

type pastSessionsInput struct {
	UserID  string `json:"user_id,omitempty" jsonschema:"User whose sessions to list"`
	AppName string `json:"app_name,omitempty" jsonschema:"Application the sessions belong to"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum number of sessions (default 10)"`
}

// NewPastSessions creates the get_past_sessions tool.
func NewPastSessions(d Deps) Tool {
	return &typedTool[pastSessionsInput]{
		decl: &genai.FunctionDeclaration{
			Name:        "get_past_sessions",
			Description: "List the user's most recently updated conversation sessions with their first and last user messages.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: withScope(map[string]*genai.Schema{
					"limit": {
						Type:        genai.TypeInteger,
						Description: "Maximum number of sessions to return (default: 10)",
					},
				}),
			},
		},
		run: func(ctx context.Context, in pastSessionsInput) (any, error) {
			userID, appName := d.scope(in.UserID, in.AppName)
			limit := in.Limit
			if limit <= 0 {
				limit = history.DefaultSessionLimit
			}
			sessions, err := d.History.ListRecentSessions(ctx, userID, appName, limit)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to list sessions", goerr.V("user_id", userID), goerr.V("app_name", appName))
			}
			return sessions, nil
		},
	}
}

type sessionConversationInput struct {
	SessionID string `json:"session_id" jsonschema:"Session to fetch"`
	UserID    string `json:"user_id,omitempty" jsonschema:"Owner of the session"`
	AppName   string `json:"app_name,omitempty" jsonschema:"Application the session belongs to"`
}

// NewSessionConversation creates the get_session_conversation tool.
func NewSessionConversation(d Deps) Tool {
	return &typedTool[sessionConversationInput]{
		decl: &genai.FunctionDeclaration{
			Name:        "get_session_conversation",
			Description: "Get the full conversation of one past session, events in chronological order.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: withScope(map[string]*genai.Schema{
					"session_id": {
						Type:        genai.TypeString,
						Description: "ID of the session, as returned by get_past_sessions",
					},
				}),
				Required: []string{"session_id"},
			},
		},
		run: func(ctx context.Context, in sessionConversationInput) (any, error) {
			if in.SessionID == "" {
				return nil, goerr.New("session_id is required")
			}
			userID, appName := d.scope(in.UserID, in.AppName)
			t, err := d.History.GetSessionTranscript(ctx, in.SessionID, userID, appName)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to get session conversation", goerr.V("session_id", in.SessionID))
			}
			return t, nil
		},
	}
}

type searchSessionsInput struct {
	SearchTerm string `json:"search_term" jsonschema:"Text to look for in user messages (case-sensitive)"`
	UserID     string `json:"user_id,omitempty" jsonschema:"User whose sessions to search"`
	AppName    string `json:"app_name,omitempty" jsonschema:"Application the sessions belong to"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum number of matches (default 5)"`
}

// NewSearchSessions creates the search_sessions_by_content tool.
func NewSearchSessions(d Deps) Tool {
	return &typedTool[searchSessionsInput]{
		decl: &genai.FunctionDeclaration{
			Name:        "search_sessions_by_content",
			Description: "Find past user messages containing a search term. Matching is case-sensitive; newest matches come first.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: withScope(map[string]*genai.Schema{
					"search_term": {
						Type:        genai.TypeString,
						Description: "Text to search for",
					},
					"limit": {
						Type:        genai.TypeInteger,
						Description: "Maximum number of matches to return (default: 5)",
					},
				}),
				Required: []string{"search_term"},
			},
		},
		run: func(ctx context.Context, in searchSessionsInput) (any, error) {
			if in.SearchTerm == "" {
				return nil, goerr.New("search_term is required")
			}
			userID, appName := d.scope(in.UserID, in.AppName)
			limit := in.Limit
			if limit <= 0 {
				limit = history.DefaultSearchLimit
			}
			hits, err := d.History.SearchSessionsByContent(ctx, in.SearchTerm, userID, appName, limit)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to search sessions", goerr.V("search_term", in.SearchTerm))
			}
			return hits, nil
		},
	}
}
