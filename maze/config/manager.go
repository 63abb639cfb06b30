package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/mazesolver/maze/engine"
	"github.com/wricardo/mcp-training/mazesolver/maze/service"
)

var (
	// ErrConfigNotFound aliases the service sentinel.
	ErrConfigNotFound = service.ErrMazeNotFound
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultConfigName is loaded as the default maze when present.
const DefaultConfigName = "classic"

// Manager serves maze configurations from a directory of JSON files. Parsed
// mazes are cached by ID (the file name without .json) until RefreshCache.
type Manager struct {
	dir string

	mu            sync.RWMutex
	cache         map[string]*engine.MazeConfig
	defaultConfig *engine.MazeConfig
}

// NewManager creates a manager over configDir, which must exist.
func NewManager(configDir string) (*Manager, error) {
	info, err := os.Stat(configDir)
	if err != nil {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config path is not a directory: %s", configDir)
	}

	m := &Manager{
		dir:   configDir,
		cache: make(map[string]*engine.MazeConfig),
	}
	m.loadDefaultConfig()
	return m, nil
}

// mazeID normalizes name and rejects anything that could leave the directory.
func mazeID(name string) (string, bool) {
	id := strings.TrimSuffix(strings.TrimSpace(name), ".json")
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", false
	}
	return id, true
}

func (m *Manager) file(id string) string {
	return filepath.Join(m.dir, id+".json")
}

// LoadConfig returns the maze stored as name (with or without .json).
func (m *Manager) LoadConfig(name string) (*engine.MazeConfig, error) {
	id, ok := mazeID(name)
	if !ok {
		return nil, fmt.Errorf("%w: invalid maze name %q", ErrConfigNotFound, name)
	}

	m.mu.RLock()
	config, cached := m.cache[id]
	m.mu.RUnlock()
	if cached {
		return config, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if config, cached := m.cache[id]; cached {
		return config, nil
	}

	path := m.file(id)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, id)
	}
	config, err := engine.LoadMazeConfig(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, id, err)
	}

	m.cache[id] = config
	return config, nil
}

// ListConfigs summarizes every loadable maze in the directory, sorted by ID.
// Invalid files are skipped.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	if _, err := os.ReadDir(m.dir); err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}
	files, err := filepath.Glob(filepath.Join(m.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config directory: %w", err)
	}

	infos := make([]*service.ConfigInfo, 0, len(files))
	for _, file := range files {
		base := filepath.Base(file)
		id := strings.TrimSuffix(base, ".json")

		config, err := m.LoadConfig(id)
		if err != nil {
			log.WithError(err).WithField("file", base).Debug("skipping invalid maze config")
			continue
		}
		grid, err := engine.NewGridFromConfig(config)
		if err != nil {
			continue
		}

		infos = append(infos, &service.ConfigInfo{
			Filename:    base,
			ConfigID:    id,
			Name:        config.Name,
			Description: config.Description,
			Rows:        grid.Rows(),
			Cols:        grid.Cols(),
			OpenCells:   len(grid.OpenCells()),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].ConfigID < infos[j].ConfigID })
	return infos, nil
}

// GetDefault returns the maze used when a caller names none.
func (m *Manager) GetDefault() *engine.MazeConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault makes the stored maze name the default.
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
	return nil
}

// RefreshCache forgets every parsed maze and re-resolves the default.
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.cache = make(map[string]*engine.MazeConfig)
	m.mu.Unlock()

	m.loadDefaultConfig()
}

// loadDefaultConfig picks classic.json, else the first valid file, else the
// built-in maze.
func (m *Manager) loadDefaultConfig() {
	config, err := m.LoadConfig(DefaultConfigName)
	if err != nil {
		config = engine.DefaultMazeConfig()
		if infos, listErr := m.ListConfigs(); listErr == nil && len(infos) > 0 {
			if first, err := m.LoadConfig(infos[0].ConfigID); err == nil {
				config = first
			}
		}
	}

	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
}

// SaveConfig validates config and writes it as name.json, replacing any
// existing file and cache entry.
func (m *Manager) SaveConfig(name string, config *engine.MazeConfig) error {
	id, ok := mazeID(name)
	if !ok {
		return fmt.Errorf("%w: invalid maze name %q", ErrInvalidConfig, name)
	}
	if err := engine.ValidateMazeConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(m.file(id), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.cache[id] = config
	m.mu.Unlock()

	log.WithFields(log.Fields{"maze": id, "name": config.Name}).Info("saved maze config")
	return nil
}
