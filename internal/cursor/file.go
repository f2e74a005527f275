package cursor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"alertbridge/internal/constants"
	"alertbridge/internal/logger"
)

// FileStore keeps state as a JSON object on local disk.
type FileStore struct {
	path   string
	logger logger.Logger
}

func NewFileStore(path string, log logger.Logger) *FileStore {
	if path == "" {
		path = constants.DefaultStateFile
	}
	return &FileStore{path: path, logger: log}
}

func (s *FileStore) Name() string {
	return constants.CursorBackendFile
}

func (s *FileStore) Load(_ context.Context) (State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		recordOperation(s.Name(), "load", nil)
		return State{}, nil
	}
	if err != nil {
		recordOperation(s.Name(), "load", err)
		return State{}, transientRead(s.Name(), err)
	}

	state := State{}
	if err := json.Unmarshal(data, &state); err != nil {
		recordOperation(s.Name(), "load", err)
		return State{}, transientRead(s.Name(), fmt.Errorf("failed to parse %s: %w", s.path, err))
	}

	recordOperation(s.Name(), "load", nil)
	return state, nil
}

// Save writes to a temp file in the same directory and renames it over the
// target, so a crash never leaves a truncated state file.
func (s *FileStore) Save(_ context.Context, state State) error {
	err := s.write(state)
	recordOperation(s.Name(), "save", err)
	if err != nil {
		return err
	}
	recordPositions(state)
	return nil
}

func (s *FileStore) write(state State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cursor state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp state file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
