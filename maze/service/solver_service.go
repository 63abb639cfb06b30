package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/mazesolver/maze/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMazeNotFound    = errors.New("maze not found")
	ErrInvalidRequest  = errors.New("invalid request")
)

// SolverService defines all solver operations
type SolverService interface {
	// Session Management
	CreateSession(ctx context.Context, mazeName string) (*SessionInfo, error)
	CreateSessionFromConfig(ctx context.Context, config *engine.MazeConfig) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Solving
	Solve(ctx context.Context, sessionID string, req SolveRequest) (*SolveResult, error)
	SolveOnce(ctx context.Context, req SolveOnceRequest) (*SolveResult, error)
	GetSolveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	DescribeCell(ctx context.Context, sessionID string, cell engine.Cell) (*CellInfo, error)
	Render(ctx context.Context, sessionID string) (string, error)

	// Mazes
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, mazeName string) (*engine.MazeConfig, error)
	SaveConfig(ctx context.Context, mazeName string, config *engine.MazeConfig) error
	GenerateMaze(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *engine.MazeConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id, configID string, config *engine.MazeConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles maze configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.MazeConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.MazeConfig
	SaveConfig(name string, config *engine.MazeConfig) error
}

// Session is one maze loaded for repeated solving. The grid and engine are
// immutable; only the access time and history change.
type Session struct {
	ID             string
	ConfigID       string
	Config         *engine.MazeConfig
	Grid           *engine.Grid
	Engine         *engine.Engine
	CreatedAt      time.Time
	LastAccessedAt time.Time

	mu      sync.Mutex
	history []SolveRecord
}

// NewSession builds a session around config.
func NewSession(id, configID string, config *engine.MazeConfig) (*Session, error) {
	if err := engine.ValidateMazeConfig(config); err != nil {
		return nil, err
	}
	grid, err := engine.NewGridFromConfig(config)
	if err != nil {
		return nil, err
	}
	h, err := engine.HeuristicByName(config.Heuristic)
	if err != nil {
		return nil, err
	}
	eng, err := engine.NewEngine(grid, engine.WithHeuristic(h))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Session{
		ID:             id,
		ConfigID:       configID,
		Config:         config,
		Grid:           grid,
		Engine:         eng,
		CreatedAt:      now,
		LastAccessedAt: now,
	}, nil
}

// MaxSolveHistory caps the records kept per session. Older records are
// dropped first; sequence numbers keep counting.
const MaxSolveHistory = 500

// AddSolve appends a record and assigns its sequence number.
func (s *Session) AddSolve(rec SolveRecord) SolveRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.Seq = 1
	if n := len(s.history); n > 0 {
		rec.Seq = s.history[n-1].Seq + 1
	}
	if len(s.history) >= MaxSolveHistory {
		n := copy(s.history, s.history[len(s.history)-MaxSolveHistory+1:])
		s.history = s.history[:n]
	}
	s.history = append(s.history, rec)
	return rec
}

// History returns a copy of the solve history, oldest first.
func (s *Session) History() []SolveRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SolveRecord, len(s.history))
	copy(out, s.history)
	return out
}

// SetHistory replaces the history, used when restoring from storage.
func (s *Session) SetHistory(history []SolveRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(history) > MaxSolveHistory {
		history = history[len(history)-MaxSolveHistory:]
	}
	s.history = append([]SolveRecord(nil), history...)
}

// LastSolve returns the most recent record, if any.
func (s *Session) LastSolve() (SolveRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return SolveRecord{}, false
	}
	return s.history[len(s.history)-1], true
}
