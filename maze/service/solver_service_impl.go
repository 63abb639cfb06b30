package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/mazesolver/maze/engine"
	"github.com/wricardo/mcp-training/mazesolver/maze/generator"
	"github.com/wricardo/mcp-training/mazesolver/maze/render"
)

const (
	// MaxTraceEvents caps the trace returned with a single solve.
	MaxTraceEvents = 5000

	defaultGeneratedSize = 11
	defaultHistoryLimit  = 20
	maxHistoryLimit      = 100
)

// solverServiceImpl implements the SolverService interface
type solverServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewSolverService creates a new solver service instance
func NewSolverService(sessions SessionManager, configs ConfigManager) SolverService {
	return &solverServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// CreateSession creates a new session on a named maze, or the default maze
// when the name is empty
func (s *solverServiceImpl) CreateSession(ctx context.Context, mazeName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.MazeConfig
	configID := mazeName
	if mazeName != "" {
		var err error
		config, err = s.configs.LoadConfig(mazeName)
		if err != nil {
			if errors.Is(err, ErrMazeNotFound) {
				return nil, s.notFoundWithOptions(mazeName)
			}
			return nil, fmt.Errorf("failed to load maze %s: %w", mazeName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.getConfigID(config.Name)
	}

	session, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.WithFields(log.Fields{"session": session.ID, "maze": configID}).Debug("session created")
	return s.sessionInfo(session), nil
}

// CreateSessionFromConfig creates a session on an ad-hoc maze that is not
// stored in the config directory
func (s *solverServiceImpl) CreateSessionFromConfig(ctx context.Context, config *engine.MazeConfig) (*SessionInfo, error) {
	if err := engine.ValidateMazeConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Create("", "", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.WithFields(log.Fields{"session": session.ID, "maze": config.Name}).Debug("session created from inline maze")
	return s.sessionInfo(session), nil
}

// GetSession retrieves session information
func (s *solverServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return s.sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *solverServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		info := s.sessionInfo(sess)
		info.Config = nil
		result = append(result, info)
	}
	return result, nil
}

// DeleteSession removes a session
func (s *solverServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return err
	}
	log.WithField("session", sessionID).Debug("session deleted")
	return nil
}

// Solve runs one search on a session's maze and records it in the history.
// A missing path is reported through Found and Reason, not as an error.
func (s *solverServiceImpl) Solve(ctx context.Context, sessionID string, req SolveRequest) (*SolveResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	start, heading, goal := sess.Config.Defaults(sess.Grid)
	if req.Start != nil {
		start = *req.Start
	}
	if req.Heading != nil {
		heading = *req.Heading
	}
	if req.Goal != nil {
		goal = *req.Goal
	}

	heuristicName := req.Heuristic
	if heuristicName == "" {
		heuristicName = sess.Config.Heuristic
	}
	eng, name, err := engineFor(sess.Grid, heuristicName, sess.Config.Heuristic, sess.Engine)
	if err != nil {
		return nil, err
	}

	result, err := runSolve(ctx, sess.Grid, eng, start, heading, goal, req)
	if err != nil {
		return nil, err
	}
	result.Heuristic = name

	sess.AddSolve(SolveRecord{
		Timestamp:  time.Now(),
		Start:      start,
		Heading:    heading,
		Goal:       goal,
		Heuristic:  name,
		Found:      result.Found,
		Reason:     result.Reason,
		Cost:       result.Cost,
		PathLength: len(result.Path),
		Expanded:   result.Stats.Expanded,
		ElapsedMS:  result.ElapsedMS,
		Path:       result.Path,
	})
	s.sessions.UpdateLastAccessed(sessionID)
	if err := s.sessions.Save(sessionID); err != nil {
		log.WithError(err).WithField("session", sessionID).Warn("failed to persist session after solve")
	}

	log.WithFields(log.Fields{
		"session":  sess.ID,
		"maze":     sess.ConfigID,
		"found":    result.Found,
		"reason":   result.Reason,
		"cost":     result.Cost,
		"expanded": result.Stats.Expanded,
	}).Info("solve finished")

	return result, nil
}

// SolveOnce solves a caller-supplied grid without touching any session
func (s *solverServiceImpl) SolveOnce(ctx context.Context, req SolveOnceRequest) (*SolveResult, error) {
	if len(req.Grid) > 0 && len(req.Layout) > 0 {
		return nil, fmt.Errorf("%w: set either grid or layout, not both", ErrInvalidRequest)
	}
	if req.Start == nil || req.Heading == nil || req.Goal == nil {
		return nil, fmt.Errorf("%w: start, heading and goal are required", ErrInvalidRequest)
	}

	var grid *engine.Grid
	var err error
	switch {
	case len(req.Layout) > 0:
		grid, err = engine.ParseLayout(req.Layout)
	default:
		grid, err = engine.NewGrid(req.Grid)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	eng, name, err := engineFor(grid, req.Heuristic, "", nil)
	if err != nil {
		return nil, err
	}

	result, err := runSolve(ctx, grid, eng, *req.Start, *req.Heading, *req.Goal, req.SolveRequest)
	if err != nil {
		return nil, err
	}
	result.Heuristic = name

	log.WithFields(log.Fields{
		"rows":     grid.Rows(),
		"cols":     grid.Cols(),
		"found":    result.Found,
		"cost":     result.Cost,
		"expanded": result.Stats.Expanded,
	}).Debug("stateless solve finished")

	return result, nil
}

// engineFor returns the session engine when the requested heuristic matches
// the one it was built with, and a fresh engine otherwise.
func engineFor(grid *engine.Grid, requested, current string, eng *engine.Engine) (*engine.Engine, string, error) {
	name := strings.ToLower(strings.TrimSpace(requested))
	if name == "" {
		name = engine.DefaultHeuristic
	}
	h, err := engine.HeuristicByName(name)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	currentName := strings.ToLower(strings.TrimSpace(current))
	if currentName == "" {
		currentName = engine.DefaultHeuristic
	}
	if eng != nil && name == currentName {
		return eng, name, nil
	}

	eng, err = engine.NewEngine(grid, engine.WithHeuristic(h))
	if err != nil {
		return nil, "", err
	}
	return eng, name, nil
}

type searchOutcome struct {
	result *engine.Result
	err    error
}

// runSolve validates the request, runs the search under the context's
// deadline and converts the outcome into a SolveResult.
func runSolve(ctx context.Context, grid *engine.Grid, eng *engine.Engine, start engine.Cell, heading engine.Heading, goal engine.Cell, req SolveRequest) (*SolveResult, error) {
	if err := eng.Validate(start, heading, goal); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if req.TimeoutMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMS)*time.Millisecond)
		defer cancel()
	}

	var stats engine.Stats
	var events []engine.TraceEvent
	trace := func(ev engine.TraceEvent) {
		if ev.Stale {
			stats.Stale++
		} else {
			stats.Expanded++
		}
		if req.Trace && len(events) < MaxTraceEvents {
			events = append(events, ev)
		}
	}

	out := &SolveResult{
		Start:   start,
		Heading: heading,
		Goal:    goal,
	}

	began := time.Now()
	var outcome searchOutcome
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		// The engine is not cancellable; on expiry the goroutine finishes
		// on its own and its result is dropped.
		done := make(chan searchOutcome, 1)
		go func() {
			r, err := eng.SearchWithTrace(start, heading, goal, trace)
			done <- searchOutcome{result: r, err: err}
		}()

		select {
		case outcome = <-done:
		case <-ctx.Done():
			out.Reason = ReasonTimeout
			out.Message = "No path found within budget"
			out.ElapsedMS = elapsedMS(began)
			return out, nil
		}
	} else {
		r, err := eng.SearchWithTrace(start, heading, goal, trace)
		outcome = searchOutcome{result: r, err: err}
	}
	out.ElapsedMS = elapsedMS(began)

	if outcome.err != nil {
		if !errors.Is(outcome.err, engine.ErrNoPathFound) {
			return nil, outcome.err
		}
		out.Stats = stats
		if engine.Reachable(grid, start, goal) {
			out.Reason = ReasonNoPath
			out.Message = "No path found: the goal cannot be reached without reversing"
		} else {
			out.Reason = ReasonDisconnected
			out.Message = "No path found: start and goal are in disconnected regions"
		}
		if req.Trace {
			out.Trace = events
		}
		if req.Render {
			out.Render = render.Text(grid, render.Overlay{Start: &start, Goal: &goal})
		}
		return out, nil
	}

	res := outcome.result
	out.Found = true
	out.Path = res.Path
	out.States = res.States
	out.Moves = res.Moves
	out.Cost = res.Cost
	out.Stats = res.Stats
	out.Message = fmt.Sprintf("Path found: %d moves over %d cells", res.Cost, len(res.Path))
	if req.Trace {
		out.Trace = events
	}
	if req.Render {
		out.Render = render.Result(grid, res)
	}
	return out, nil
}

func elapsedMS(since time.Time) float64 {
	return float64(time.Since(since).Microseconds()) / 1000
}

// GetSolveHistory returns paginated solve history
func (s *solverServiceImpl) GetSolveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.History()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultHistoryLimit
	}
	if opts.Limit > maxHistoryLimit {
		opts.Limit = maxHistoryLimit
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var solves []SolveRecord
	if opts.Order == "desc" {
		// most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			solves = append(solves, history[i])
		}
	} else if start < total {
		solves = history[start:end]
	}
	if solves == nil {
		solves = []SolveRecord{}
	}

	return &HistoryResponse{
		Solves:      solves,
		TotalSolves: total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// DescribeCell reports walkability and neighbourhood of one cell
func (s *solverServiceImpl) DescribeCell(ctx context.Context, sessionID string, cell engine.Cell) (*CellInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	grid := sess.Grid
	start, _, goal := sess.Config.Defaults(grid)
	info := &CellInfo{
		Cell:     cell,
		InBounds: grid.InBounds(cell),
		Walkable: grid.IsOpen(cell),
		IsStart:  cell == start,
		IsGoal:   cell == goal,
	}
	if !info.InBounds {
		return info, nil
	}

	info.Open = make(map[string]bool, engine.NumHeadings)
	for _, h := range engine.Headings {
		info.Open[h.String()] = grid.IsOpen(cell.Step(h))
	}
	if info.Walkable {
		info.Region = len(engine.ReachableCells(grid, cell))
	}
	if last, ok := sess.LastSolve(); ok {
		for _, c := range last.Path {
			if c == cell {
				info.OnLastPath = true
				break
			}
		}
	}
	return info, nil
}

// Render draws the session maze with the most recent solved path, if any
func (s *solverServiceImpl) Render(ctx context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return "", err
	}

	start, _, goal := sess.Config.Defaults(sess.Grid)
	overlay := render.Overlay{Start: &start, Goal: &goal}
	if last, ok := sess.LastSolve(); ok {
		start, goal = last.Start, last.Goal
		overlay.Path = last.Path
	}
	return render.Text(sess.Grid, overlay), nil
}

// ListConfigs returns available maze configurations
func (s *solverServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific maze configuration
func (s *solverServiceImpl) LoadConfig(ctx context.Context, mazeName string) (*engine.MazeConfig, error) {
	config, err := s.configs.LoadConfig(mazeName)
	if err != nil && errors.Is(err, ErrMazeNotFound) {
		return nil, s.notFoundWithOptions(mazeName)
	}
	return config, err
}

// SaveConfig saves a maze configuration to disk
func (s *solverServiceImpl) SaveConfig(ctx context.Context, mazeName string, config *engine.MazeConfig) error {
	if err := engine.ValidateMazeConfig(config); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return s.configs.SaveConfig(mazeName, config)
}

// GenerateMaze carves a random maze, optionally saving it and opening a
// session on it
func (s *solverServiceImpl) GenerateMaze(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if req.Rows == 0 {
		req.Rows = defaultGeneratedSize
	}
	if req.Cols == 0 {
		req.Cols = defaultGeneratedSize
	}

	gen := generator.New(req.Seed)
	config, err := gen.GenerateConfig(req.Name, req.Rows, req.Cols, generator.Options{
		Start: req.Start,
		Loops: req.Loops,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	result := &GenerateResult{
		Seed:   gen.Seed(),
		Config: config,
	}

	grid, err := engine.NewGridFromConfig(config)
	if err != nil {
		return nil, err
	}
	result.Render = render.Text(grid, render.Overlay{Start: config.Start, Goal: config.Goal})

	if req.Save {
		result.ConfigID = configIDFromName(config.Name)
		if err := s.configs.SaveConfig(result.ConfigID, config); err != nil {
			return nil, fmt.Errorf("failed to save generated maze: %w", err)
		}
	}

	if req.CreateSession {
		s.mu.Lock()
		sess, err := s.sessions.Create("", result.ConfigID, config)
		s.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		result.Session = s.sessionInfo(sess)
	}

	log.WithFields(log.Fields{
		"maze":  config.Name,
		"rows":  req.Rows,
		"cols":  req.Cols,
		"seed":  result.Seed,
		"saved": req.Save,
	}).Info("maze generated")

	return result, nil
}

// configIDFromName turns a display name into a file-safe identifier.
func configIDFromName(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, id)
	if id == "" {
		id = "generated"
	}
	return id
}

// getSession wraps lookup failures in ErrSessionNotFound
func (s *solverServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return sess, nil
}

// getConfigID returns the config_id for a display name, used for consistent API responses
func (s *solverServiceImpl) getConfigID(displayName string) string {
	available, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range available {
			if cfg.Name == displayName {
				return cfg.ConfigID
			}
		}
	}
	if displayName == "" {
		return "default"
	}
	return configIDFromName(displayName)
}

func (s *solverServiceImpl) notFoundWithOptions(mazeName string) error {
	available, err := s.configs.ListConfigs()
	if err != nil || len(available) == 0 {
		return fmt.Errorf("%w: '%s'. Use /api/mazes to list available mazes", ErrMazeNotFound, mazeName)
	}
	ids := make([]string, 0, len(available))
	for _, cfg := range available {
		ids = append(ids, cfg.ConfigID)
	}
	return fmt.Errorf("%w: '%s'. Available mazes: %v", ErrMazeNotFound, mazeName, ids)
}

func (s *solverServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	start, heading, goal := sess.Config.Defaults(sess.Grid)
	heuristic := sess.Config.Heuristic
	if heuristic == "" {
		heuristic = engine.DefaultHeuristic
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigID:       sess.ConfigID,
		MazeName:       sess.Config.Name,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Rows:           sess.Grid.Rows(),
		Cols:           sess.Grid.Cols(),
		Start:          start,
		Heading:        heading,
		Goal:           goal,
		Heuristic:      heuristic,
		Solves:         len(sess.History()),
		Config:         sess.Config,
	}
}
