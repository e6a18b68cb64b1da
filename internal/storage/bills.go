package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
)

// BillFile describes one generated bill on disk
type BillFile struct {
	FileName   string    `json:"file_name"`
	FullPath   string    `json:"full_path"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// BillStore reads the generated bills directory
type BillStore struct {
	dir    string
	logger *zap.Logger
}

// NewBillStore creates a store over dir
func NewBillStore(dir string, logger *zap.Logger) *BillStore {
	return &BillStore{
		dir:    dir,
		logger: logger,
	}
}

// Dir returns the generated bills directory
func (s *BillStore) Dir() string {
	return s.dir
}

// List returns the generated bills, newest first.
// The directory is created if it does not exist yet.
func (s *BillStore) List() ([]BillFile, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		s.logger.Error("Failed to create bills folder",
			zap.String("dir", s.dir),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read bills folder: %w", err)
	}

	bills := make([]BillFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isWorkbook(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		bills = append(bills, BillFile{
			FileName:   e.Name(),
			FullPath:   filepath.Join(s.dir, e.Name()),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}

	sort.SliceStable(bills, func(i, j int) bool {
		if bills[i].ModifiedAt.Equal(bills[j].ModifiedAt) {
			return bills[i].FileName > bills[j].FileName
		}
		return bills[i].ModifiedAt.After(bills[j].ModifiedAt)
	})

	return bills, nil
}

// Path returns the full path of the bill called name if it exists
func (s *BillStore) Path(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, name)
	if err := validatePath(s.dir, path); err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("bill %s: %w", name, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrInvalidName, name)
	}

	return path, nil
}
