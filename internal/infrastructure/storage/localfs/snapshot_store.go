package localfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bubble-support/faq-bot/internal/core/domain"
)

// SnapshotStore persists the embedding snapshot as a JSON file so a
// restart does not re-embed an unchanged knowledge base.
type SnapshotStore struct {
	path string
}

func NewSnapshotStore(path string) (*SnapshotStore, error) {
	if path == "" {
		path = "./data/embeddings.json"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &SnapshotStore{path: path}, nil
}

// Load returns (nil, nil) when no snapshot has been written yet.
func (s *SnapshotStore) Load(_ context.Context) (*domain.EmbeddingSnapshot, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snapshot domain.EmbeddingSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snapshot, nil
}

// Save writes through a temp file and renames so readers never see a
// torn snapshot.
func (s *SnapshotStore) Save(_ context.Context, snapshot *domain.EmbeddingSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}
