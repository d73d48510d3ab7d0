package tools

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

type loadMemoryInput struct {
	Query string `json:"query" jsonschema:"Keyword to look for in remembered conversations"`
}

// NewLoadMemory creates the load_memory tool, which recalls memories of the
// configured app and user.
func NewLoadMemory(d Deps) Tool {
	return &typedTool[loadMemoryInput]{
		decl: &genai.FunctionDeclaration{
			Name:        "load_memory",
			Description: "Recall text from earlier conversations that contains the query, ignoring case. Returns up to 10 memories, newest first.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"query": {
						Type:        genai.TypeString,
						Description: "Keyword to search for",
					},
				},
				Required: []string{"query"},
			},
		},
		run: func(ctx context.Context, in loadMemoryInput) (any, error) {
			resp, err := d.Memory.SearchMemory(ctx, d.AppName, d.UserID, in.Query)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to search memory", goerr.V("query", in.Query))
			}
			return resp, nil
		},
	}
}
