package service

import (
	"fmt"
	"os"
	"path/filepath"
)

// ============================================================
// File Storage
// ============================================================

// FileStorage keeps the original documents plans were imported from.
type FileStorage struct {
	root string
}

func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

func (s *FileStorage) PlanDir(planID string) string {
	return filepath.Join(s.root, planID)
}

func (s *FileStorage) SourcePath(planID string) string {
	return filepath.Join(s.PlanDir(planID), "source.svg")
}

func (s *FileStorage) WriteSource(planID string, data []byte) error {
	if err := os.MkdirAll(s.PlanDir(planID), 0o755); err != nil {
		return fmt.Errorf("mkdir plan dir: %w", err)
	}
	if err := os.WriteFile(s.SourcePath(planID), data, 0o644); err != nil {
		return fmt.Errorf("write source: %w", err)
	}
	return nil
}

// RemovePlan deletes everything kept for a plan. A missing directory is not an error.
func (s *FileStorage) RemovePlan(planID string) error {
	if err := os.RemoveAll(s.PlanDir(planID)); err != nil {
		return fmt.Errorf("remove plan dir: %w", err)
	}
	return nil
}

func (s *FileStorage) ReadSource(planID string) ([]byte, error) {
	data, err := os.ReadFile(s.SourcePath(planID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSourceNotFound
		}
		return nil, fmt.Errorf("read source: %w", err)
	}
	return data, nil
}
