package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"salesreport/internal/errors"
	"salesreport/internal/validation"
)

// Manager provides the file operations shared by every artifact writer
type Manager struct {
	logger    *slog.Logger
	validator *validation.FileValidator
}

// NewManager creates a new file manager instance
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:    logger,
		validator: validation.NewFileValidator(logger),
	}
}

// FileExists checks if a regular file exists at the given path
func (m *Manager) FileExists(path string) bool {
	info, err := os.Stat(path)
	exists := err == nil && !info.IsDir()

	m.logger.Debug("FileExists check",
		slog.String("path", path),
		slog.Bool("exists", exists))

	return exists
}

// WriteAtomic produces the file at path by streaming write into a temporary
// file in the same directory and renaming it over path once write succeeds.
// Readers never observe a partially written artifact and a failed write
// leaves any previous file untouched.
//
// The target directory must already exist; otherwise an OUTPUT_PATH error is
// returned and nothing is created.
func (m *Manager) WriteAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := m.validator.ValidateOutputDirectory(dir); err != nil {
		return errors.NewOutputPathError(path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.NewOutputPathError(path, err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			m.logger.Warn("Failed to remove temporary file",
				slog.String("path", tmpPath),
				slog.String("error", rmErr.Error()))
		}
	}

	if err := write(tmp); err != nil {
		cleanup()
		return errors.NewRenderError(fmt.Sprintf("failed to write %s", path), err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return errors.NewRenderError(fmt.Sprintf("failed to sync %s", path), err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.NewRenderError(fmt.Sprintf("failed to close %s", path), err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		cleanup()
		return errors.NewRenderError(fmt.Sprintf("failed to set permissions on %s", path), err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return errors.NewRenderError(fmt.Sprintf("failed to move %s into place", path), err)
	}

	m.logger.Debug("Artifact written",
		slog.String("path", path))
	return nil
}
