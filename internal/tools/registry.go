package tools

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/genai"
)

// ErrUnknownTool is returned when a call names no registered tool.
var ErrUnknownTool = goerr.New("unknown tool")

// Registry holds tools by name.
type Registry struct {
	tools []Tool
	index map[string]Tool
}

// New returns a registry of the given tools.
func New(tools ...Tool) *Registry {
	r := &Registry{index: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.tools = append(r.tools, t)
		r.index[t.Declaration().Name] = t
	}
	return r
}

// NewDefault returns a registry with every history tool, plus load_memory
// when d.Memory is set.
func NewDefault(d Deps) *Registry {
	tools := []Tool{
		NewPastSessions(d),
		NewSessionConversation(d),
		NewSearchSessions(d),
	}
	if d.Memory != nil {
		tools = append(tools, NewLoadMemory(d))
	}
	return New(tools...)
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for _, t := range r.tools {
		names = append(names, t.Declaration().Name)
	}
	return names
}

// Spec returns every tool as one genai tool for function calling.
func (r *Registry) Spec() *genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(r.tools))
	for _, t := range r.tools {
		decls = append(decls, t.Declaration())
	}
	return &genai.Tool{FunctionDeclarations: decls}
}

// Execute runs the tool named by fc. The result is converted to its JSON
// form; results that are not JSON objects are wrapped as {"result": value}.
func (r *Registry) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	t, ok := r.index[fc.Name]
	if !ok {
		return nil, goerr.Wrap(ErrUnknownTool, "cannot execute", goerr.V("name", fc.Name))
	}

	log.Debug("executing tool", "name", fc.Name, "args", fc.Args)
	out, err := t.Call(ctx, fc.Args)
	if err != nil {
		return nil, err
	}

	resp, err := toResponse(out)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode tool result", goerr.V("name", fc.Name))
	}
	return &genai.FunctionResponse{
		ID:       fc.ID,
		Name:     fc.Name,
		Response: resp,
	}, nil
}

func toResponse(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, err
	}
	if m, ok := generic.(map[string]any); ok {
		return m, nil
	}
	return map[string]any{"result": generic}, nil
}

// NewMCPServer returns an MCP server offering every tool of r.
func NewMCPServer(r *Registry, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "agent-memory",
		Version: version,
	}, nil)
	for _, t := range r.tools {
		t.register(server)
	}
	return server
}
