package engine

import (
	"fmt"

	"github.com/zyedidia/generic/heap"
	"github.com/zyedidia/generic/mapset"
)

// Status is the lifecycle of a single search.
type Status int

const (
	Initialized Status = iota
	Running
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Engine searches one grid for minimum-cost constrained paths.
type Engine struct {
	grid      *Grid
	heuristic Heuristic
	trace     TraceFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithHeuristic replaces the default Manhattan heuristic.
func WithHeuristic(h Heuristic) Option {
	return func(e *Engine) {
		if h != nil {
			e.heuristic = h
		}
	}
}

// WithTrace installs a hook called once per frontier pop on every search.
func WithTrace(fn TraceFunc) Option {
	return func(e *Engine) {
		e.trace = fn
	}
}

// NewEngine creates an engine over grid.
func NewEngine(grid *Grid, opts ...Option) (*Engine, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: grid is nil", ErrInvalidGrid)
	}

	e := &Engine{
		grid:      grid,
		heuristic: Manhattan,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Grid returns the grid the engine searches.
func (e *Engine) Grid() *Grid {
	return e.grid
}

// Search finds a minimum-cost path from (start, heading) to any state on goal.
// It returns ErrInvalidStart, ErrInvalidGoal or ErrInvalidHeading before
// searching when the request is malformed, and ErrNoPathFound when the
// frontier is exhausted.
func (e *Engine) Search(start Cell, heading Heading, goal Cell) (*Result, error) {
	return e.SearchWithTrace(start, heading, goal, e.trace)
}

// SearchWithTrace is Search with a per-call trace hook that overrides the
// engine-wide one.
func (e *Engine) SearchWithTrace(start Cell, heading Heading, goal Cell, trace TraceFunc) (*Result, error) {
	if err := e.Validate(start, heading, goal); err != nil {
		return nil, err
	}

	s := newSearch(e.grid, e.heuristic, trace, goal)
	s.init(State{Cell: start, Heading: heading})
	if !s.run() {
		return nil, fmt.Errorf("%w from %s facing %s to %s after expanding %d states",
			ErrNoPathFound, start, heading, goal, s.stats.Expanded)
	}
	return s.reconstruct(), nil
}

// Validate checks a request against the grid without searching.
func (e *Engine) Validate(start Cell, heading Heading, goal Cell) error {
	if !heading.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidHeading, int(heading))
	}
	if !e.grid.InBounds(start) {
		return fmt.Errorf("%w: %s is out of bounds for %dx%d grid", ErrInvalidStart, start, e.grid.rows, e.grid.cols)
	}
	if !e.grid.IsOpen(start) {
		return fmt.Errorf("%w: %s is blocked", ErrInvalidStart, start)
	}
	if !e.grid.InBounds(goal) {
		return fmt.Errorf("%w: %s is out of bounds for %dx%d grid", ErrInvalidGoal, goal, e.grid.rows, e.grid.cols)
	}
	if !e.grid.IsOpen(goal) {
		return fmt.Errorf("%w: %s is blocked", ErrInvalidGoal, goal)
	}
	return nil
}

// costRecord is the best known cost to a state and the predecessor that
// achieved it. root marks the start state, which has no parent.
type costRecord struct {
	g      int
	parent State
	move   MoveKind
	root   bool
}

// frontierEntry is never mutated after insertion; an improved cost is a new
// entry and the old one is discarded lazily on pop.
type frontierEntry struct {
	f     float64
	g     int
	seq   uint64
	state State
}

// entryLess orders by f, then FIFO among equal f.
func entryLess(a, b frontierEntry) bool {
	if a.f != b.f {
		return a.f < b.f
	}
	return a.seq < b.seq
}

// search holds the call-local state of one Search.
type search struct {
	grid      *Grid
	heuristic Heuristic
	trace     TraceFunc
	goal      Cell

	status   Status
	frontier *heap.Heap[frontierEntry]
	records  map[State]costRecord
	closed   mapset.Set[State]
	seq      uint64
	stats    Stats
	terminal State
}

func newSearch(grid *Grid, h Heuristic, trace TraceFunc, goal Cell) *search {
	return &search{
		grid:      grid,
		heuristic: h,
		trace:     trace,
		goal:      goal,
		status:    Initialized,
		frontier:  heap.New(entryLess),
		records:   make(map[State]costRecord),
		closed:    mapset.New[State](),
	}
}

func (s *search) init(start State) {
	s.records[start] = costRecord{g: 0, root: true}
	s.push(start, 0)
}

func (s *search) push(st State, g int) {
	s.frontier.Push(frontierEntry{
		f:     float64(g) + s.heuristic(st.Cell, s.goal),
		g:     g,
		seq:   s.seq,
		state: st,
	})
	s.seq++
	s.stats.Pushed++
}

// run drives the search to Succeeded or Failed and reports whether the goal
// was reached.
func (s *search) run() bool {
	s.status = Running
	step := 0

	for s.frontier.Size() > 0 {
		entry, _ := s.frontier.Pop()
		current := entry.state
		stale := s.closed.Has(current)

		if s.trace != nil {
			h := s.heuristic(current.Cell, s.goal)
			s.trace(TraceEvent{
				Step:    step,
				Cell:    current.Cell,
				Heading: current.Heading,
				G:       entry.g,
				H:       h,
				F:       entry.f,
				Stale:   stale,
			})
		}
		step++

		if stale {
			s.stats.Stale++
			continue
		}
		s.closed.Put(current)
		s.stats.Expanded++

		if current.Cell == s.goal {
			s.status = Succeeded
			s.terminal = current
			return true
		}

		candidate := s.records[current].g + MoveCost
		for _, next := range Successors(s.grid, current) {
			// Closed states still take part in relaxation so that a merely
			// admissible heuristic cannot leave a stale parent link behind.
			if rec, seen := s.records[next.State]; seen && candidate >= rec.g {
				continue
			}
			s.records[next.State] = costRecord{g: candidate, parent: current, move: next.Move}
			s.push(next.State, candidate)
		}
	}

	s.status = Failed
	return false
}
