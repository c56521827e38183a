package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// LibraryDir is the root folder that holds one folder per author. It is
	// never created by shelver: a missing root means a misconfigured library.
	LibraryDir string `toml:"library_dir" validate:"required"`
	InboxDir   string `toml:"inbox_dir"`
	LogDir     string `toml:"log_dir"`
	DataDir    string `toml:"data_dir" validate:"required"`
}

// Naming contains the templates used to build canonical folder and file names.
type Naming struct {
	AuthorFolder       string `toml:"author_folder" validate:"required"`
	BookFolder         string `toml:"book_folder" validate:"required"`
	FileName           string `toml:"file_name" validate:"required"`
	MultiPartFileName  string `toml:"multi_part_file_name"`
	ASCIIOnly          bool   `toml:"ascii_only"`
	IllegalReplacement string `toml:"illegal_replacement"`
	MaxPathLength      int    `toml:"max_path_length" validate:"gte=0"`
}

// MediaManagement contains the transfer and filesystem policy applied when
// files are organized.
type MediaManagement struct {
	ImportMode         string `toml:"import_mode" validate:"oneof=move copy"`
	CopyUsingHardlinks bool   `toml:"copy_using_hardlinks"`
	FileDate           string `toml:"file_date" validate:"oneof=none release_date"`
	SetPermissions     bool   `toml:"set_permissions"`
	ChmodFolder        string `toml:"chmod_folder"`
	ChmodFile          string `toml:"chmod_file"`
	ChownGroup         string `toml:"chown_group"`
	PruneEmptyFolders  bool   `toml:"prune_empty_folders"`
}

// Watch contains configuration for the inbox daemon and library watcher.
type Watch struct {
	DebounceSeconds          int      `toml:"debounce_seconds" validate:"gte=0"`
	SuppressionWindowSeconds int      `toml:"suppression_window_seconds" validate:"gt=0"`
	Extensions               []string `toml:"extensions"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout" validate:"gte=0"`
	FolderCreated  bool   `toml:"folder_created"`
	ImportFailed   bool   `toml:"import_failed"`
}

// Metrics contains configuration for the Prometheus endpoint of the daemon.
type Metrics struct {
	Enabled bool   `toml:"enabled"`
	Bind    string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" validate:"oneof=console logfmt json"`
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
}

// Config encapsulates all configuration values for shelver.
//
// Configuration sections by subsystem:
//   - Paths: library root, inbox, logs and state
//   - Naming: author/book/file templates and path-length ceiling
//   - MediaManagement: transfer mode, hardlinks, timestamps, permissions
//   - Watch: inbox daemon debounce and self-change suppression
//   - Notifications: ntfy push notification settings
//   - Metrics: Prometheus endpoint
//   - Logging: log format and level
type Config struct {
	Paths           Paths           `toml:"paths"`
	Naming          Naming          `toml:"naming"`
	MediaManagement MediaManagement `toml:"media_management"`
	Watch           Watch           `toml:"watch"`
	Notifications   Notifications   `toml:"notifications"`
	Metrics         Metrics         `toml:"metrics"`
	Logging         Logging         `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shelver/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shelver.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state, log and inbox directories. The library
// root is deliberately left alone.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.InboxDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CatalogPath returns the SQLite database holding file records and transfer history.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.DataDir, "catalog.db")
}

// LockPath returns the lock file guarding the watch daemon.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "shelver.lock")
}

// FolderMode returns the permission bits applied to newly created folders.
func (c *Config) FolderMode() (os.FileMode, error) {
	return parseMode(c.MediaManagement.ChmodFolder, "media_management.chmod_folder")
}

// FileMode returns the permission bits applied to organized files.
func (c *Config) FileMode() (os.FileMode, error) {
	return parseMode(c.MediaManagement.ChmodFile, "media_management.chmod_file")
}

func parseMode(value, field string) (os.FileMode, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("%s must be set", field)
	}
	parsed, err := strconv.ParseUint(value, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an octal mode", field, value)
	}
	if parsed > 0o7777 {
		return 0, fmt.Errorf("%s: %q is out of range", field, value)
	}
	return os.FileMode(parsed), nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
