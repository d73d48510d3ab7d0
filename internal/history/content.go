package history

import (
	"encoding/json"
	"strings"

	"google.golang.org/genai"
)

// Payload is the decoded first part of an event's content. It is exactly one
// of TextPayload, FunctionCallPayload, FunctionResponsePayload or RawPayload.
type Payload interface {
	payload()
}

// TextPayload is a plain text part.
type TextPayload struct {
	Text string
}

// FunctionCallPayload is a tool invocation requested by the model, kept as stored.
type FunctionCallPayload struct {
	Call json.RawMessage
}

// FunctionResponsePayload is the result of a tool invocation, kept as stored.
type FunctionResponsePayload struct {
	Response json.RawMessage
}

// RawPayload holds content that could not be decoded.
type RawPayload struct {
	Raw string
}

func (TextPayload) payload()             {}
func (FunctionCallPayload) payload()     {}
func (FunctionResponsePayload) payload() {}
func (RawPayload) payload()              {}

// Stored part keys. Content written by other runtimes may use the camel-case
// spelling of the genai wire format.
var (
	functionCallKeys     = []string{"function_call", "functionCall"}
	functionResponseKeys = []string{"function_response", "functionResponse"}
)

type storedContent struct {
	Role  string                       `json:"role,omitempty"`
	Parts []map[string]json.RawMessage `json:"parts"`
}

func parseStored(raw string) (storedContent, bool) {
	var c storedContent
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return storedContent{}, false
	}
	return c, true
}

// DecodeContent decodes the first part of a stored event content.
// Empty content and content without parts decode to nil; content that is not
// a JSON object of the expected shape decodes to RawPayload.
func DecodeContent(raw string) Payload {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	c, ok := parseStored(raw)
	if !ok {
		return RawPayload{Raw: raw}
	}
	if len(c.Parts) == 0 {
		return nil
	}
	p, ok := decodePart(c.Parts[0])
	if !ok {
		return RawPayload{Raw: raw}
	}
	return p
}

func decodePart(part map[string]json.RawMessage) (Payload, bool) {
	if v, ok := part["text"]; ok {
		var text string
		if err := json.Unmarshal(v, &text); err != nil {
			return nil, false
		}
		return TextPayload{Text: text}, true
	}
	if v, ok := lookup(part, functionCallKeys); ok {
		return FunctionCallPayload{Call: v}, true
	}
	if v, ok := lookup(part, functionResponseKeys); ok {
		return FunctionResponsePayload{Response: v}, true
	}
	return nil, true
}

func lookup(part map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := part[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// MessageText reduces a payload to the message text shown in listings. Text
// payloads yield their text, call/response payloads an empty string, and
// undecodable or empty content nil.
func MessageText(p Payload) *string {
	switch v := p.(type) {
	case TextPayload:
		return &v.Text
	case FunctionCallPayload, FunctionResponsePayload:
		empty := ""
		return &empty
	default:
		return nil
	}
}

// decodeGenaiContent decodes every part of a stored content into a
// genai.Content. Parts that fail to decode are dropped.
func decodeGenaiContent(raw string) (*genai.Content, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, true
	}
	c, ok := parseStored(raw)
	if !ok {
		return nil, false
	}
	out := &genai.Content{Role: c.Role}
	for _, part := range c.Parts {
		p, ok := decodePart(part)
		if !ok {
			continue
		}
		switch v := p.(type) {
		case TextPayload:
			out.Parts = append(out.Parts, &genai.Part{Text: v.Text})
		case FunctionCallPayload:
			var fc genai.FunctionCall
			if json.Unmarshal(v.Call, &fc) == nil {
				out.Parts = append(out.Parts, &genai.Part{FunctionCall: &fc})
			}
		case FunctionResponsePayload:
			var fr genai.FunctionResponse
			if json.Unmarshal(v.Response, &fr) == nil {
				out.Parts = append(out.Parts, &genai.Part{FunctionResponse: &fr})
			}
		}
	}
	return out, true
}

// encodeContent renders c in the stored shape read by DecodeContent.
func encodeContent(c *genai.Content) (string, error) {
	if c == nil {
		return "", nil
	}
	type part struct {
		Text             *string                 `json:"text,omitempty"`
		FunctionCall     *genai.FunctionCall     `json:"function_call,omitempty"`
		FunctionResponse *genai.FunctionResponse `json:"function_response,omitempty"`
	}
	out := struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}{Role: c.Role, Parts: []part{}}

	for _, p := range c.Parts {
		if p == nil {
			continue
		}
		switch {
		case p.FunctionCall != nil:
			out.Parts = append(out.Parts, part{FunctionCall: p.FunctionCall})
		case p.FunctionResponse != nil:
			out.Parts = append(out.Parts, part{FunctionResponse: p.FunctionResponse})
		default:
			text := p.Text
			out.Parts = append(out.Parts, part{Text: &text})
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeActions returns the decoded actions, or nil when absent or undecodable.
func decodeActions(raw string) any {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil
	}
	return v
}
