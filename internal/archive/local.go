package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/seoforge/seopipe/internal/signal"
)

// LocalConfig captures the parameters for the filesystem archive.
type LocalConfig struct {
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// Local writes page bodies to the local filesystem.
type Local struct {
	baseDir string
	clock   signal.Clock
}

// NewLocal creates a filesystem-backed archive. The base directory is
// created and checked for writability up front so misconfiguration
// fails at startup.
func NewLocal(cfg LocalConfig, clock signal.Clock) (*Local, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat base directory: %w", err)
		}
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create base directory: %w", mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("clean up test file: %w", err)
	}

	return &Local{baseDir: cfg.BaseDir, clock: clockOrSystem(clock)}, nil
}

// Store writes body under a derived object path inside the base
// directory.
func (l *Local) Store(_ context.Context, pageURL string, body []byte) error {
	name, err := ObjectName(pageURL, l.clock.Now())
	if err != nil {
		return err
	}

	fullPath := filepath.Join(l.baseDir, name)

	// Reject paths escaping the base directory.
	cleanBase := filepath.Clean(l.baseDir)
	if !strings.HasPrefix(filepath.Clean(fullPath), cleanBase+string(filepath.Separator)) {
		return fmt.Errorf("path traversal detected")
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return fmt.Errorf("create parent directories: %w", err)
	}
	if err := os.WriteFile(fullPath, body, 0o600); err != nil {
		return fmt.Errorf("write archive file: %w", err)
	}
	return nil
}
