package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"shelver/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The library root is created so organizer operations can run; the inbox,
// log and data folders are not.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LibraryDir = filepath.Join(base, "library")
	cfgVal.Paths.InboxDir = filepath.Join(base, "inbox")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Metrics.Bind = "127.0.0.1:0"
	cfgVal.Watch.DebounceSeconds = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := os.MkdirAll(builder.cfg.Paths.LibraryDir, 0o755); err != nil {
		t.Fatalf("mkdir library: %v", err)
	}
	return builder.cfg
}

// WithImportMode sets media_management.import_mode.
func WithImportMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.MediaManagement.ImportMode = mode
	}
}

// WithHardlinks toggles media_management.copy_using_hardlinks.
func WithHardlinks(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.MediaManagement.CopyUsingHardlinks = enabled
	}
}

// WithFileName overrides the file name template.
func WithFileName(template string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Naming.FileName = template
		b.cfg.Naming.MultiPartFileName = template
	}
}

// With applies an arbitrary mutation.
func With(mutate func(*config.Config)) ConfigOption {
	return func(b *configBuilder) {
		mutate(b.cfg)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LibraryDir)
}
