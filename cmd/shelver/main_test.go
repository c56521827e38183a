package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shelver/internal/config"
	"shelver/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	homeDir := filepath.Join(testsupport.BaseDir(cfg), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("SHELVER_LIBRARY_DIR", "")

	configPath := filepath.Join(homeDir, ".config", "shelver", "config.toml")
	writeTestConfig(t, configPath, cfg, "")
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config, fileName string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	content := fmt.Sprintf(
		"[paths]\nlibrary_dir = %q\ninbox_dir = %q\nlog_dir = %q\ndata_dir = %q\n",
		cfg.Paths.LibraryDir,
		cfg.Paths.InboxDir,
		cfg.Paths.LogDir,
		cfg.Paths.DataDir,
	)
	if fileName != "" {
		content += fmt.Sprintf("\n[naming]\nfile_name = %q\n", fileName)
	}
	content += "\n[logging]\nlevel = \"error\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)
	requireContains(t, out, "Import mode: move")
	if strings.Contains(out, "Warning:") {
		t.Fatalf("unexpected warning for existing library:\n%s", out)
	}

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestConfigValidateWarnsAboutMissingLibrary(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.RemoveAll(env.cfg.Paths.LibraryDir); err != nil {
		t.Fatalf("remove library: %v", err)
	}

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "missing")
	requireContains(t, out, "Warning: library directory "+env.cfg.Paths.LibraryDir+" is missing")
}

func TestImportAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.cfg.Paths.InboxDir, "Frank Herbert", "Dune", "dune.epub")
	testsupport.WriteContent(t, source, "spice")

	out, _, err := runCLI(t, []string{"import"}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	dest := filepath.Join(env.cfg.Paths.LibraryDir, "Frank Herbert", "Dune", "Dune.epub")
	requireContains(t, out, "Imported "+source+" -> "+dest+" (moved)")
	requireContains(t, out, "created folder "+filepath.Join(env.cfg.Paths.LibraryDir, "Frank Herbert"))
	if got := testsupport.ReadContent(t, dest); got != "spice" {
		t.Fatalf("unexpected content %q", got)
	}

	out, _, err = runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var entries []struct {
		Status      string
		Operation   string
		Destination string
	}
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0].Status != "completed" || entries[0].Destination != dest {
		t.Fatalf("unexpected history: %#v", entries)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history table: %v", err)
	}
	requireContains(t, out, "move_for_import")
	requireContains(t, out, "dune.epub")
}

func TestImportEmptyInbox(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"import"}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	requireContains(t, out, "Inbox is empty")
}

func TestImportCopyModeKeepsSource(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.cfg.Paths.InboxDir, "Ann Leckie", "Ancillary Justice", "aj.epub")
	testsupport.WriteContent(t, source, "breq")

	out, _, err := runCLI(t, []string{"import", "--mode", "copy", source}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	requireContains(t, out, "(copied)")
	if got := testsupport.ReadContent(t, source); got != "breq" {
		t.Fatalf("source should remain, got %q", got)
	}

	if _, _, err := runCLI(t, []string{"import", "--mode", "link", source}, env.configPath); err == nil {
		t.Fatal("expected invalid mode error")
	}
}

func TestImportReportsFailures(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.cfg.Paths.InboxDir, "Frank Herbert", "Dune", "dune.epub")
	testsupport.WriteContent(t, source, "new")
	testsupport.WriteContent(t, filepath.Join(env.cfg.Paths.LibraryDir, "Frank Herbert", "Dune", "Dune.epub"), "old")

	out, _, err := runCLI(t, []string{"import"}, env.configPath)
	if err == nil {
		t.Fatal("expected import failure")
	}
	requireContains(t, out, "Failed dune.epub")

	out, _, err = runCLI(t, []string{"history", "--failed", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, `"Status": "failed"`)
}

func TestReorganizeAppliesNewTemplate(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.cfg.Paths.InboxDir, "Frank Herbert", "Dune", "dune.epub")
	testsupport.WriteContent(t, source, "spice")
	if _, _, err := runCLI(t, []string{"import"}, env.configPath); err != nil {
		t.Fatalf("import: %v", err)
	}

	writeTestConfig(t, env.configPath, env.cfg, "{Author Name} - {Book Title}")
	out, _, err := runCLI(t, []string{"reorganize"}, env.configPath)
	if err != nil {
		t.Fatalf("reorganize: %v", err)
	}
	dest := filepath.Join(env.cfg.Paths.LibraryDir, "Frank Herbert", "Dune", "Frank Herbert - Dune.epub")
	requireContains(t, out, "-> "+dest+" (moved)")
	requireContains(t, out, "1 moved, 0 already organized, 0 failed")
	if got := testsupport.ReadContent(t, dest); got != "spice" {
		t.Fatalf("unexpected content %q", got)
	}

	out, _, err = runCLI(t, []string{"reorganize"}, env.configPath)
	if err != nil {
		t.Fatalf("second reorganize: %v", err)
	}
	requireContains(t, out, "0 moved, 1 already organized, 0 failed")
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("SHELVER_NTFY_TOPIC", "")

	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "ntfy topic not configured")
}

func TestLogsShowsTrailingLines(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir logs: %v", err)
	}
	logPath := filepath.Join(env.cfg.Paths.LogDir, "shelver.log")
	if err := os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "second\nthird\n" {
		t.Fatalf("unexpected output %q", out)
	}
}
