package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Store saves and loads the current model artifact.
type Store interface {
	// Save replaces the stored artifact. A failed save leaves the previous
	// artifact intact.
	Save(ctx context.Context, a *Artifact) error
	// Load returns the stored artifact, ErrNotFound when there is none, or
	// ErrSchemaMismatch when it was trained on different features.
	Load(ctx context.Context) (*Artifact, error)
	// Location describes where the artifact lives, for logs.
	Location() string
}

// FileStore keeps the artifact as a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a store at path. Parent directories are created on Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Location() string { return s.path }

// Save writes the artifact to a temporary file in the same directory and
// renames it over the target.
func (s *FileStore) Save(_ context.Context, a *Artifact) error {
	data, err := a.Marshal()
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".model-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("install artifact: %w", err)
	}

	slog.Info("model artifact saved",
		slog.String("component", "artifact"),
		slog.String("path", s.path),
		slog.String("learner", a.Learner),
		slog.Int("bytes", len(data)),
	)
	return nil
}

func (s *FileStore) Load(_ context.Context) (*Artifact, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return Unmarshal(data)
}
