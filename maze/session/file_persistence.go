package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/mazesolver/maze/service"
)

const sessionFileExt = ".json"

// FilePersistence stores one JSON file per session in a directory.
type FilePersistence struct {
	dir     string
	configs service.ConfigManager
}

// NewFilePersistence creates sessionsDir if needed. configManager resolves
// the maze of sessions stored by config ID only; it may be nil when every
// stored session carries its maze inline.
func NewFilePersistence(sessionsDir string, configManager service.ConfigManager) (*FilePersistence, error) {
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &FilePersistence{dir: sessionsDir, configs: configManager}, nil
}

func (fp *FilePersistence) path(id string) string {
	return filepath.Join(fp.dir, strings.ToLower(id)+sessionFileExt)
}

// Save writes the session snapshot. The previous file is replaced only
// after the new one is fully written.
func (fp *FilePersistence) Save(session *service.Session) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}

	data, err := json.MarshalIndent(PersistedSessionData{
		ID:             session.ID,
		ConfigID:       session.ConfigID,
		Config:         session.Config,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		History:        session.History(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", session.ID, err)
	}

	target := fp.path(session.ID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// Load restores a session, including its solve history.
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	raw, err := os.ReadFile(fp.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}

	maze := data.Config
	if maze == nil {
		if fp.configs == nil || data.ConfigID == "" {
			return nil, fmt.Errorf("session %s has no maze and no config id", id)
		}
		if maze, err = fp.configs.LoadConfig(data.ConfigID); err != nil {
			return nil, fmt.Errorf("failed to load maze '%s': %w", data.ConfigID, err)
		}
	}

	session, err := service.NewSession(data.ID, data.ConfigID, maze)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	session.CreatedAt = data.CreatedAt
	session.LastAccessedAt = data.LastAccessedAt
	session.SetHistory(data.History)
	return session, nil
}

// Delete removes the session file.
func (fp *FilePersistence) Delete(id string) error {
	err := os.Remove(fp.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// ListAll returns the IDs of all stored sessions.
func (fp *FilePersistence) ListAll() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(fp.dir, "*"+sessionFileExt))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions directory: %w", err)
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, strings.TrimSuffix(filepath.Base(m), sessionFileExt))
	}
	return ids, nil
}

// Exists reports whether a file is stored for id.
func (fp *FilePersistence) Exists(id string) bool {
	_, err := os.Stat(fp.path(id))
	return err == nil
}
