// Package store provides the memory service interface and its SQLite implementation.
package store

import (
	"context"

	"github.com/chronos-agent/agent-memory/internal/model"
)

// SearchLimit caps the number of memories returned by a single search.
const SearchLimit = 10

// SearchMemoryResponse holds the memories matching a search.
type SearchMemoryResponse struct {
	Memories []model.MemoryEntry `json:"memories"`
}

// MemoryService is what the agent runtime calls to write and recall memories.
type MemoryService interface {
	// AddSessionToMemory stores every text part of a finished session.
	AddSessionToMemory(ctx context.Context, session *model.Session) error

	// SearchMemory returns the newest memories of one app/user whose content
	// contains query, ignoring case.
	SearchMemory(ctx context.Context, appName, userID, query string) (*SearchMemoryResponse, error)
}
