package model

import (
	"encoding/json"
	"time"

	"google.golang.org/genai"
)

// AuthorUser is the author of events typed by the human side of a session.
const AuthorUser = "user"

// Session is one bounded conversation identified by (AppName, UserID, ID).
type Session struct {
	ID         string    `json:"session_id"`
	AppName    string    `json:"app_name"`
	UserID     string    `json:"user_id"`
	CreateTime time.Time `json:"create_time"`
	UpdateTime time.Time `json:"update_time"`
	Events     []Event   `json:"events,omitempty"`
}

// Event is one turn of a session.
type Event struct {
	ID        string          `json:"event_id"`
	Author    string          `json:"author"`
	Timestamp time.Time       `json:"timestamp"`
	Content   *genai.Content  `json:"content,omitempty"`
	Actions   json.RawMessage `json:"actions,omitempty"`
}

// Texts returns the non-empty text parts of the event in order.
func (e Event) Texts() []string {
	if e.Content == nil {
		return nil
	}
	var texts []string
	for _, p := range e.Content.Parts {
		if p != nil && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return texts
}
