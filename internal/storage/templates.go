package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/garyjia/gst-billing/internal/billing"
)

// TemplateCatalog lists the bill templates in a directory.
// The directory is never created; operators provision it.
type TemplateCatalog struct {
	dir    string
	logger *zap.Logger
}

// NewTemplateCatalog creates a catalog over dir
func NewTemplateCatalog(dir string, logger *zap.Logger) *TemplateCatalog {
	return &TemplateCatalog{
		dir:    dir,
		logger: logger,
	}
}

// Dir returns the templates directory
func (c *TemplateCatalog) Dir() string {
	return c.dir
}

// List returns the template file names, sorted
func (c *TemplateCatalog) List() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			c.logger.Error("Templates folder is missing", zap.String("dir", c.dir))
			return nil, fmt.Errorf("%w: templates folder %s could not be found", billing.ErrTemplateNotFound, c.dir)
		}
		return nil, fmt.Errorf("failed to read templates folder: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isWorkbook(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	if len(names) == 0 {
		c.logger.Warn("No templates found", zap.String("dir", c.dir))
	}

	return names, nil
}

// Resolve returns the full path of the template called name.
// Missing templates yield an error matching billing.ErrTemplateNotFound.
func (c *TemplateCatalog) Resolve(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}

	path := filepath.Join(c.dir, name)
	if err := validatePath(c.dir, path); err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", billing.ErrTemplateNotFound, name)
	}

	return path, nil
}
