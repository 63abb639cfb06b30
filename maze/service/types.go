package service

import (
	"time"

	"github.com/wricardo/mcp-training/mazesolver/maze/engine"
)

// Reasons a solve did not find a path.
const (
	ReasonNoPath       = "no_path"      // frontier exhausted; goal unreachable under the heading constraint
	ReasonDisconnected = "disconnected" // start and goal lie in different open regions
	ReasonTimeout      = "timeout"      // deadline expired before the search finished
)

// SessionInfo provides information about a solver session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigID       string             `json:"config_id"`
	MazeName       string             `json:"maze_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Rows           int                `json:"rows"`
	Cols           int                `json:"cols"`
	Start          engine.Cell        `json:"start"`
	Heading        engine.Heading     `json:"heading"`
	Goal           engine.Cell        `json:"goal"`
	Heuristic      string             `json:"heuristic"`
	Solves         int                `json:"solves"`
	Watchers       int                `json:"watchers"` // live WebSocket clients, filled in by the API layer
	Config         *engine.MazeConfig `json:"config,omitempty"`
}

// SolveRequest asks for a path on a session's maze. Nil fields fall back to
// the maze defaults.
type SolveRequest struct {
	Start     *engine.Cell    `json:"start,omitempty"`
	Heading   *engine.Heading `json:"heading,omitempty"`
	Goal      *engine.Cell    `json:"goal,omitempty"`
	Heuristic string          `json:"heuristic,omitempty"`
	Trace     bool            `json:"trace,omitempty"`
	Render    bool            `json:"render,omitempty"`
	TimeoutMS int             `json:"timeout_ms,omitempty"`
}

// SolveOnceRequest solves a caller-supplied grid without creating a session.
// Start, Heading and Goal are required.
type SolveOnceRequest struct {
	Grid   [][]int  `json:"grid,omitempty"`
	Layout []string `json:"layout,omitempty"`
	SolveRequest
}

// SolveResult contains the outcome of one solve
type SolveResult struct {
	Found     bool                `json:"found"`
	Reason    string              `json:"reason,omitempty"`
	Message   string              `json:"message"`
	Start     engine.Cell         `json:"start"`
	Heading   engine.Heading      `json:"heading"`
	Goal      engine.Cell         `json:"goal"`
	Heuristic string              `json:"heuristic"`
	Path      []engine.Cell       `json:"path,omitempty"`
	States    []engine.State      `json:"states,omitempty"`
	Moves     []engine.MoveKind   `json:"moves,omitempty"`
	Cost      int                 `json:"cost"`
	Stats     engine.Stats        `json:"stats"`
	ElapsedMS float64             `json:"elapsed_ms"`
	Trace     []engine.TraceEvent `json:"trace,omitempty"`
	Render    string              `json:"render,omitempty"`
}

// SolveRecord is one entry in a session's solve history
type SolveRecord struct {
	Seq        int            `json:"seq"`
	Timestamp  time.Time      `json:"timestamp"`
	Start      engine.Cell    `json:"start"`
	Heading    engine.Heading `json:"heading"`
	Goal       engine.Cell    `json:"goal"`
	Heuristic  string         `json:"heuristic"`
	Found      bool           `json:"found"`
	Reason     string         `json:"reason,omitempty"`
	Cost       int            `json:"cost"`
	PathLength int            `json:"path_length"`
	Expanded   int            `json:"expanded"`
	ElapsedMS  float64        `json:"elapsed_ms"`
	Path       []engine.Cell  `json:"path,omitempty"`
}

// HistoryOptions configures solve history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated solve history
type HistoryResponse struct {
	Solves      []SolveRecord `json:"solves"`
	TotalSolves int           `json:"total_solves"`
	Page        int           `json:"page"`
	PageSize    int           `json:"page_size"`
	TotalPages  int           `json:"total_pages"`
	HasNext     bool          `json:"has_next"`
	HasPrevious bool          `json:"has_previous"`
}

// ConfigInfo provides information about a maze configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	OpenCells   int    `json:"open_cells"`
}

// GenerateRequest asks for a new random maze
type GenerateRequest struct {
	Name          string       `json:"name,omitempty"`
	Rows          int          `json:"rows"`
	Cols          int          `json:"cols"`
	Seed          int64        `json:"seed,omitempty"`
	Loops         int          `json:"loops,omitempty"`
	Start         *engine.Cell `json:"start,omitempty"`
	Save          bool         `json:"save,omitempty"`
	CreateSession bool         `json:"create_session,omitempty"`
}

// GenerateResult contains a generated maze and, on request, its session
type GenerateResult struct {
	ConfigID string             `json:"config_id,omitempty"`
	Seed     int64              `json:"seed"`
	Config   *engine.MazeConfig `json:"config"`
	Render   string             `json:"render"`
	Session  *SessionInfo       `json:"session,omitempty"`
}

// CellInfo describes a single cell of a session's maze
type CellInfo struct {
	Cell       engine.Cell     `json:"cell"`
	InBounds   bool            `json:"in_bounds"`
	Walkable   bool            `json:"walkable"`
	IsStart    bool            `json:"is_start"`
	IsGoal     bool            `json:"is_goal"`
	OnLastPath bool            `json:"on_last_path"`
	Open       map[string]bool `json:"open,omitempty"` // heading name -> neighbour walkable
	Region     int             `json:"region_size"`    // open cells connected to this one
}
