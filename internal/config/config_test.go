package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"shelver/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SHELVER_LIBRARY_DIR", "")
	t.Setenv("SHELVER_NTFY_TOPIC", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, "library", "books"); cfg.Paths.LibraryDir != want {
		t.Fatalf("unexpected library dir: got %q want %q", cfg.Paths.LibraryDir, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "shelver"); cfg.Paths.DataDir != want {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, want)
	}
	if cfg.Naming.MaxPathLength != 260 {
		t.Fatalf("expected default max path length 260, got %d", cfg.Naming.MaxPathLength)
	}
	if cfg.MediaManagement.ImportMode != "move" {
		t.Fatalf("unexpected import mode: %q", cfg.MediaManagement.ImportMode)
	}
	if cfg.MediaManagement.FileDate != "none" {
		t.Fatalf("unexpected file date policy: %q", cfg.MediaManagement.FileDate)
	}
	if cfg.Naming.MultiPartFileName == "" {
		t.Fatal("expected multi-part file name template to default")
	}
	if cfg.CatalogPath() != filepath.Join(cfg.Paths.DataDir, "catalog.db") {
		t.Fatalf("unexpected catalog path: %q", cfg.CatalogPath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.InboxDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if _, err := os.Stat(cfg.Paths.LibraryDir); !os.IsNotExist(err) {
		t.Fatalf("expected library root to be left alone, stat err=%v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "shelver.toml")
	t.Setenv("SHELVER_LIBRARY_DIR", "")

	type payload struct {
		Paths struct {
			LibraryDir string `toml:"library_dir"`
			DataDir    string `toml:"data_dir"`
		} `toml:"paths"`
		Naming struct {
			BookFolder string `toml:"book_folder"`
		} `toml:"naming"`
		MediaManagement struct {
			ImportMode  string `toml:"import_mode"`
			FileDate    string `toml:"file_date"`
			ChmodFolder string `toml:"chmod_folder"`
		} `toml:"media_management"`
		Watch struct {
			Extensions []string `toml:"extensions"`
		} `toml:"watch"`
	}
	custom := payload{}
	custom.Paths.LibraryDir = filepath.Join(tempDir, "books")
	custom.Paths.DataDir = filepath.Join(tempDir, "state")
	custom.Naming.BookFolder = "{Book Series} {Book SeriesPosition} - {Book Title}"
	custom.MediaManagement.ImportMode = "COPY"
	custom.MediaManagement.FileDate = "release_date"
	custom.MediaManagement.ChmodFolder = "0775"
	custom.Watch.Extensions = []string{"M4B", ".epub", "m4b", " "}

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.MediaManagement.ImportMode != "copy" {
		t.Fatalf("expected import mode to be lower-cased, got %q", cfg.MediaManagement.ImportMode)
	}
	if cfg.MediaManagement.FileDate != "release_date" {
		t.Fatalf("unexpected file date policy: %q", cfg.MediaManagement.FileDate)
	}
	mode, err := cfg.FolderMode()
	if err != nil {
		t.Fatalf("FolderMode: %v", err)
	}
	if mode != 0o775 {
		t.Fatalf("unexpected folder mode: %o", mode)
	}
	if got := strings.Join(cfg.Watch.Extensions, ","); got != ".m4b,.epub" {
		t.Fatalf("unexpected extensions: %q", got)
	}
	if cfg.Naming.AuthorFolder != config.Default().Naming.AuthorFolder {
		t.Fatalf("expected author folder default to survive, got %q", cfg.Naming.AuthorFolder)
	}
}

func TestEnvOverridesLibraryDirAndFillsTopic(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "shelver.toml")
	content := "[paths]\nlibrary_dir = \"" + filepath.Join(tempDir, "from-file") + "\"\n" +
		"[notifications]\nntfy_topic = \"https://ntfy.example/file\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	envLibrary := filepath.Join(tempDir, "from-env")
	t.Setenv("SHELVER_LIBRARY_DIR", envLibrary)
	t.Setenv("SHELVER_NTFY_TOPIC", "https://ntfy.example/env")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.LibraryDir != envLibrary {
		t.Fatalf("expected env library dir, got %q", cfg.Paths.LibraryDir)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/file" {
		t.Fatalf("expected file topic to win over env fallback, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestCreateSample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample config is not valid toml: %v", err)
	}
	if decoded.Naming.MaxPathLength != 260 {
		t.Fatalf("unexpected sample max path length: %d", decoded.Naming.MaxPathLength)
	}
	if decoded.MediaManagement.ImportMode != "move" {
		t.Fatalf("unexpected sample import mode: %q", decoded.MediaManagement.ImportMode)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Paths.LibraryDir = "/srv/books"
		cfg.Paths.InboxDir = "/srv/inbox"
		cfg.Paths.DataDir = "/var/lib/shelver"
		return cfg
	}

	if cfg := base(); cfg.Validate() != nil {
		t.Fatalf("expected base config to validate, got %v", cfg.Validate())
	}

	cases := map[string]func(*config.Config){
		"missing library":      func(c *config.Config) { c.Paths.LibraryDir = "" },
		"relative library":     func(c *config.Config) { c.Paths.LibraryDir = "books" },
		"root library":         func(c *config.Config) { c.Paths.LibraryDir = "/" },
		"inbox equals library": func(c *config.Config) { c.Paths.InboxDir = c.Paths.LibraryDir },
		"import mode":          func(c *config.Config) { c.MediaManagement.ImportMode = "symlink" },
		"file date":            func(c *config.Config) { c.MediaManagement.FileDate = "added" },
		"folder mode":          func(c *config.Config) { c.MediaManagement.ChmodFolder = "rwx" },
		"file mode range":      func(c *config.Config) { c.MediaManagement.ChmodFile = "77777" },
		"nested author folder": func(c *config.Config) { c.Naming.AuthorFolder = "{Author Name}/x" },
		"empty file name":      func(c *config.Config) { c.Naming.FileName = "" },
		"illegal replacement":  func(c *config.Config) { c.Naming.IllegalReplacement = ":" },
		"short max path":       func(c *config.Config) { c.Naming.MaxPathLength = 10 },
		"log format":           func(c *config.Config) { c.Logging.Format = "xml" },
		"metrics bind": func(c *config.Config) {
			c.Metrics.Enabled = true
			c.Metrics.Bind = "not-an-address"
		},
	}
	for name, mutate := range cases {
		cfg := base()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestValidateMessagesUseTomlKeys(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LibraryDir = "/srv/books"
	cfg.MediaManagement.ImportMode = "symlink"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "media_management.import_mode") {
		t.Fatalf("expected toml key in message, got %q", err.Error())
	}
}
