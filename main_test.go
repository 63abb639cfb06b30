package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/mazesolver/api"
	"github.com/wricardo/mcp-training/mazesolver/maze/engine"
	"github.com/wricardo/mcp-training/mazesolver/maze/session"
	"github.com/wricardo/mcp-training/mazesolver/transport/mcp"
)

// withDirs points the directory flags at fresh temp dirs for one test.
func withDirs(t *testing.T) (string, string) {
	t.Helper()
	mazes, sessions := t.TempDir(), t.TempDir()

	data, err := json.Marshal(engine.DefaultMazeConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(mazes, "classic.json"), data, 0644); err != nil {
		t.Fatal(err)
	}

	origConfig, origSessions := *configDir, *sessionsDir
	*configDir, *sessionsDir = mazes, sessions
	t.Cleanup(func() { *configDir, *sessionsDir = origConfig, origSessions })
	return mazes, sessions
}

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Maze Solver Server" {
		t.Errorf("Unexpected app name %s", AppName)
	}
}

func TestFlagDefaults(t *testing.T) {
	if *port <= 0 || *port > 65535 {
		t.Errorf("Invalid default port: %d", *port)
	}
	if *host == "" {
		t.Error("Host should have a default value")
	}
	if *configDir == "" || *sessionsDir == "" {
		t.Error("Directories should have default values")
	}
	if *logFormat != "text" {
		t.Errorf("Expected text log format by default, got %s", *logFormat)
	}
}

func TestEnvDefault(t *testing.T) {
	t.Setenv("MAZE_TEST_DIR", "/srv/mazes")
	if got := envDefault("MAZE_TEST_DIR", "configs"); got != "/srv/mazes" {
		t.Errorf("Expected env value, got %s", got)
	}
	t.Setenv("MAZE_TEST_DIR", "")
	if got := envDefault("MAZE_TEST_DIR", "configs"); got != "configs" {
		t.Errorf("Expected fallback, got %s", got)
	}
}

func TestSetupLogging(t *testing.T) {
	defer func() {
		log.SetFormatter(&log.TextFormatter{})
		log.SetLevel(log.InfoLevel)
	}()

	if err := setupLogging("json", true); err != nil {
		t.Fatalf("setupLogging failed: %v", err)
	}
	if _, ok := log.StandardLogger().Formatter.(*log.JSONFormatter); !ok {
		t.Error("Expected JSON formatter")
	}
	if log.GetLevel() != log.DebugLevel {
		t.Errorf("Expected debug level, got %s", log.GetLevel())
	}

	if err := setupLogging("text", false); err != nil {
		t.Fatalf("setupLogging failed: %v", err)
	}
	if log.GetLevel() != log.InfoLevel {
		t.Errorf("Expected info level, got %s", log.GetLevel())
	}

	if err := setupLogging("xml", false); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestInitializeServices(t *testing.T) {
	withDirs(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	solver, sessions, err := initializeServices(ctx)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}

	info, err := solver.CreateSession(ctx, "classic")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(*sessionsDir, info.ID+".json")); err != nil {
		t.Errorf("Expected session file to be written: %v", err)
	}
	if sessions.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", sessions.Count())
	}
}

func TestInitializeServices_ReloadsSessions(t *testing.T) {
	withDirs(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	solver, _, err := initializeServices(ctx)
	if err != nil {
		t.Fatal(err)
	}
	info, err := solver.CreateSession(ctx, "classic")
	if err != nil {
		t.Fatal(err)
	}

	_, sessions, err := initializeServices(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sessions.Get(info.ID); err != nil {
		t.Errorf("Expected session %s to be reloaded: %v", info.ID, err)
	}
}

func TestInitializeServices_InvalidConfigDir(t *testing.T) {
	withDirs(t)
	*configDir = filepath.Join(t.TempDir(), "missing")

	if _, _, err := initializeServices(context.Background()); err == nil {
		t.Error("Expected error for non-existent config directory")
	}
}

func TestSyncWithFilesystem(t *testing.T) {
	dir := t.TempDir()
	persistence, err := session.NewFilePersistence(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	manager := session.NewManagerWithPersistence(persistence)

	kept, err := manager.Create("", "classic", engine.DefaultMazeConfig())
	if err != nil {
		t.Fatal(err)
	}
	gone, err := manager.Create("", "classic", engine.DefaultMazeConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, gone.ID+".json")); err != nil {
		t.Fatal(err)
	}

	if pruned := syncWithFilesystem(manager, persistence); pruned != 1 {
		t.Errorf("Expected 1 pruned session, got %d", pruned)
	}
	if _, err := manager.Get(kept.ID); err != nil {
		t.Errorf("Expected %s to survive: %v", kept.ID, err)
	}
	if syncWithFilesystem(manager, nil) != 0 {
		t.Error("Expected no pruning without persistence")
	}
}

func TestRouter(t *testing.T) {
	withDirs(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	solver, _, err := initializeServices(ctx)
	if err != nil {
		t.Fatal(err)
	}
	router := newRouter(api.NewServer(solver, nil), mcp.NewClient("http://127.0.0.1:1"))

	t.Run("api", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", w.Code)
		}
	})

	t.Run("mcp rejects GET", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/mcp", nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405, got %d", w.Code)
		}
	})

	t.Run("mcp initialize", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"0.0.1"}}}`
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body)))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %s", ct)
		}
		if !strings.Contains(w.Body.String(), "Maze Solver") {
			t.Errorf("Expected server info in response, got %s", w.Body.String())
		}
	})
}
