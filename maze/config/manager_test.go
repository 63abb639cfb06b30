package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/mcp-training/mazesolver/maze/engine"
	"github.com/wricardo/mcp-training/mazesolver/maze/service"
)

const spiralJSON = `{
  "name": "Spiral",
  "description": "small spiral",
  "layout": ["000", "110", "000"],
  "start": {"row": 0, "col": 0},
  "heading": "east",
  "goal": {"row": 2, "col": 0}
}`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func TestNewManager_MissingDir(t *testing.T) {
	if _, err := NewManager(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestManager_DefaultFallbacks(t *testing.T) {
	t.Run("empty dir uses built-in maze", func(t *testing.T) {
		m, err := NewManager(t.TempDir())
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}
		if m.GetDefault().Name != engine.DefaultMazeConfig().Name {
			t.Errorf("Expected built-in default, got %q", m.GetDefault().Name)
		}
	})

	t.Run("first valid file without classic", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "spiral.json", spiralJSON)
		writeFile(t, dir, "aaa-broken.json", `{"name": "broken"}`)

		m, err := NewManager(dir)
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}
		if m.GetDefault().Name != "Spiral" {
			t.Errorf("Expected Spiral as default, got %q", m.GetDefault().Name)
		}
	})

	t.Run("classic wins", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "spiral.json", spiralJSON)
		writeFile(t, dir, "classic.json", `{"name": "Classic Maze", "layout": ["00", "00"]}`)

		m, err := NewManager(dir)
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}
		if m.GetDefault().Name != "Classic Maze" {
			t.Errorf("Expected classic as default, got %q", m.GetDefault().Name)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "spiral.json", spiralJSON)
	writeFile(t, dir, "broken.json", `{"name": "Broken", "layout": ["0x"]}`)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	config, err := m.LoadConfig("spiral")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Name != "Spiral" || *config.Heading != engine.East {
		t.Errorf("Unexpected config %+v", config)
	}

	again, err := m.LoadConfig("spiral.json")
	if err != nil {
		t.Fatalf("LoadConfig with extension failed: %v", err)
	}
	if again != config {
		t.Error("Expected cached config to be returned")
	}

	tests := []struct {
		name string
		want error
	}{
		{"missing", ErrConfigNotFound},
		{"../spiral", ErrConfigNotFound},
		{"broken", ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.LoadConfig(tt.name); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if !errors.Is(ErrConfigNotFound, service.ErrMazeNotFound) {
		t.Error("Expected ErrConfigNotFound to match the service sentinel")
	}
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "spiral.json", spiralJSON)
	writeFile(t, dir, "classic.json", `{"name": "Classic", "grid": [[0,1],[0,0]]}`)
	writeFile(t, dir, "notes.txt", "ignored")
	writeFile(t, dir, "broken.json", "{")
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	configs, err := m.ListConfigs()
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("Expected 2 configs, got %d", len(configs))
	}
	if configs[0].ConfigID != "classic" || configs[1].ConfigID != "spiral" {
		t.Errorf("Expected sorted ids, got %s, %s", configs[0].ConfigID, configs[1].ConfigID)
	}
	if configs[0].Rows != 2 || configs[0].Cols != 2 || configs[0].OpenCells != 3 {
		t.Errorf("Unexpected classic info %+v", configs[0])
	}
	if configs[1].Filename != "spiral.json" || configs[1].Description != "small spiral" {
		t.Errorf("Unexpected spiral info %+v", configs[1])
	}
}

func TestManager_SaveConfig(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	maze := engine.DefaultMazeConfig()
	maze.Name = "Saved"
	if err := m.SaveConfig("saved", maze); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "saved.json")); err != nil {
		t.Errorf("Expected saved.json on disk: %v", err)
	}

	// a fresh manager reads it back from disk
	m2, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	loaded, err := m2.LoadConfig("saved")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Name != "Saved" || *loaded.Start != *maze.Start || *loaded.Heading != engine.North {
		t.Errorf("Round trip lost data: %+v", loaded)
	}

	if err := m.SaveConfig("bad", &engine.MazeConfig{Name: "bad"}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if err := m.SaveConfig("../escape", maze); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for path escape, got %v", err)
	}
}

func TestManager_SetDefaultAndRefresh(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "spiral.json", spiralJSON)
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if err := m.SetDefault("missing"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}

	writeFile(t, dir, "classic.json", `{"name": "Late Classic", "layout": ["0"]}`)
	m.RefreshCache()
	if m.GetDefault().Name != "Late Classic" {
		t.Errorf("Expected refreshed default, got %q", m.GetDefault().Name)
	}

	if err := m.SetDefault("spiral"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	if m.GetDefault().Name != "Spiral" {
		t.Errorf("Expected Spiral, got %q", m.GetDefault().Name)
	}
}

func TestManager_ConcurrentLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "spiral.json", spiralJSON)
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]*engine.MazeConfig, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = m.LoadConfig("spiral")
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if r == nil || r != results[0] {
			t.Errorf("Goroutine %d got a different config instance", i)
		}
	}
}
