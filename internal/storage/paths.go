// Package storage lists bill templates and generated bills on the local filesystem.
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const workbookExt = ".xlsx"

// ErrInvalidName is returned for names that are not a bare .xlsx file name
var ErrInvalidName = errors.New("invalid file name")

// checkName accepts only a bare workbook file name, so callers cannot reach
// outside the directory they were given.
func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !strings.EqualFold(filepath.Ext(name), workbookExt) {
		return fmt.Errorf("%w: %q is not an %s file", ErrInvalidName, name, workbookExt)
	}
	return nil
}

// validatePath checks that fullPath stays within baseDir
func validatePath(baseDir, fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}

	return nil
}

func isWorkbook(name string) bool {
	// skip hidden files such as the synthesizer's in-flight .bill-*.xlsx
	return !strings.HasPrefix(name, ".") && !strings.HasPrefix(name, "~$") &&
		strings.EqualFold(filepath.Ext(name), workbookExt)
}
