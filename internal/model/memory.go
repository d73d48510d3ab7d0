// Package model defines the core memory and session data types.
package model

import (
	"time"

	"google.golang.org/genai"
)

// DefaultRole is the message role used when a memory carries no author.
const DefaultRole = "user"

// MemoryRecord is one stored unit of conversational text.
type MemoryRecord struct {
	ID        int64     `json:"id"`
	AppName   string    `json:"app_name"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Content   string    `json:"content"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MemoryMetadata is the structured form of MemoryRecord.Metadata.
type MemoryMetadata struct {
	Author  string  `json:"author"`
	EventID *string `json:"event_id"`
}

// MemoryEntry is a recalled memory rehydrated into a message.
type MemoryEntry struct {
	Content   *genai.Content `json:"content"`
	Author    string         `json:"author,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Text returns the text of the entry's first part.
func (e MemoryEntry) Text() string {
	if e.Content == nil || len(e.Content.Parts) == 0 || e.Content.Parts[0] == nil {
		return ""
	}
	return e.Content.Parts[0].Text
}
