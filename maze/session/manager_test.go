package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/mazesolver/maze/engine"
	"github.com/wricardo/mcp-training/mazesolver/maze/service"
)

func testMaze() *engine.MazeConfig {
	return engine.DefaultMazeConfig()
}

func TestManager_Create(t *testing.T) {
	m := NewManager()

	tests := []struct {
		name    string
		id      string
		config  *engine.MazeConfig
		wantErr error
	}{
		{"generated id", "", testMaze(), nil},
		{"explicit id", "abcd", testMaze(), nil},
		{"duplicate id", "ABCD", testMaze(), ErrSessionAlreadyExists},
		{"path-like id", "../x", testMaze(), ErrInvalidSessionID},
		{"invalid maze", "bad1", &engine.MazeConfig{Name: "bad"}, engine.ErrInvalidGrid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := m.Create(tt.id, "classic", tt.config)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			if tt.id == "" && len(sess.ID) != 4 {
				t.Errorf("Expected 4-character generated id, got %q", sess.ID)
			}
			if tt.id != "" && sess.ID != tt.id {
				t.Errorf("Expected id %q, got %q", tt.id, sess.ID)
			}
			if sess.Engine == nil || sess.Grid == nil || sess.ConfigID != "classic" {
				t.Errorf("Session not fully initialized: %+v", sess)
			}
		})
	}

	if m.Count() != 2 {
		t.Errorf("Expected 2 sessions, got %d", m.Count())
	}
}

func TestManager_Get(t *testing.T) {
	m := NewManager()
	created, err := m.Create("beef", "classic", testMaze())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := m.Get("BEEF")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != created {
		t.Error("Expected case-insensitive lookup to return the same session")
	}

	if _, err := m.Get("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if !errors.Is(ErrSessionNotFound, service.ErrSessionNotFound) {
		t.Error("Expected session sentinel to match the service sentinel")
	}
}

func TestManager_GetOrCreate(t *testing.T) {
	m := NewManager()

	first, err := m.GetOrCreate("c0de", "classic", testMaze())
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	second, err := m.GetOrCreate("c0de", "classic", testMaze())
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if first != second {
		t.Error("Expected the existing session on second call")
	}
}

func TestManager_Delete(t *testing.T) {
	m := NewManager()
	if _, err := m.Create("dead", "classic", testMaze()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := m.Delete("DEAD"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := m.Delete("dead"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}
	if err := m.DeleteFromMemory("dead"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	m := NewManager()
	old, _ := m.Create("0001", "classic", testMaze())
	fresh, _ := m.Create("0002", "classic", testMaze())
	old.LastAccessedAt = time.Now().Add(-2 * time.Hour)
	fresh.LastAccessedAt = time.Now()

	if removed := m.CleanupExpiredSessions(time.Hour); removed != 1 {
		t.Errorf("Expected 1 removed session, got %d", removed)
	}
	if _, err := m.Get("0001"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected expired session to be gone, got %v", err)
	}
	if _, err := m.Get("0002"); err != nil {
		t.Errorf("Expected fresh session to remain: %v", err)
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	m := NewManager()
	sess, _ := m.Create("0003", "classic", testMaze())
	before := time.Now().Add(-time.Minute)
	sess.LastAccessedAt = before

	if err := m.UpdateLastAccessed("0003"); err != nil {
		t.Fatalf("UpdateLastAccessed failed: %v", err)
	}
	if !sess.LastAccessedAt.After(before) {
		t.Error("Expected LastAccessedAt to move forward")
	}
	if err := m.UpdateLastAccessed("ffff"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if err := m.Save("0003"); err != nil {
		t.Errorf("Save without persistence should be a no-op, got %v", err)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("%04x", i)
			if _, err := m.Create(id, "classic", testMaze()); err != nil {
				t.Errorf("Create %s failed: %v", id, err)
				return
			}
			if _, err := m.Get(id); err != nil {
				t.Errorf("Get %s failed: %v", id, err)
			}
			m.List()
		}(i)
	}
	wg.Wait()

	if m.Count() != 20 {
		t.Errorf("Expected 20 sessions, got %d", m.Count())
	}
}

func TestManager_SessionHistoryIsolation(t *testing.T) {
	m := NewManager()
	a, _ := m.Create("000a", "classic", testMaze())
	b, _ := m.Create("000b", "classic", testMaze())

	rec := a.AddSolve(service.SolveRecord{Found: true, Cost: 8})
	if rec.Seq != 1 {
		t.Errorf("Expected seq 1, got %d", rec.Seq)
	}
	if len(a.History()) != 1 || len(b.History()) != 0 {
		t.Errorf("History leaked between sessions: %d, %d", len(a.History()), len(b.History()))
	}
}
