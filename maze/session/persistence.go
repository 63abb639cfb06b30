package session

import (
	"time"

	"github.com/wricardo/mcp-training/mazesolver/maze/engine"
	"github.com/wricardo/mcp-training/mazesolver/maze/service"
)

// SessionPersistence is durable storage for sessions. IDs are matched
// case-insensitively. Load and Delete return ErrSessionNotFound for unknown IDs.
type SessionPersistence interface {
	Save(session *service.Session) error
	Load(id string) (*service.Session, error)
	Delete(id string) error
	ListAll() ([]string, error)
	Exists(id string) bool
}

// PersistedSessionData represents the JSON structure for persisted sessions.
// Config is stored inline so generated mazes survive without a config file;
// ConfigID is used when Config is missing.
type PersistedSessionData struct {
	ID             string                `json:"id"`
	ConfigID       string                `json:"config_id,omitempty"`
	Config         *engine.MazeConfig    `json:"config,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	LastAccessedAt time.Time             `json:"last_accessed_at"`
	History        []service.SolveRecord `json:"history"`
}
