package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeNaming()
	c.normalizeMediaManagement()
	c.normalizeWatch()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("SHELVER_LIBRARY_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.LibraryDir = strings.TrimSpace(value)
	}
	var err error
	if c.Paths.LibraryDir, err = expandPath(strings.TrimSpace(c.Paths.LibraryDir)); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.InboxDir, err = expandPath(strings.TrimSpace(c.Paths.InboxDir)); err != nil {
		return fmt.Errorf("paths.inbox_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeNaming() {
	c.Naming.AuthorFolder = strings.TrimSpace(c.Naming.AuthorFolder)
	c.Naming.BookFolder = strings.TrimSpace(c.Naming.BookFolder)
	c.Naming.FileName = strings.TrimSpace(c.Naming.FileName)
	c.Naming.MultiPartFileName = strings.TrimSpace(c.Naming.MultiPartFileName)
	if c.Naming.MultiPartFileName == "" {
		c.Naming.MultiPartFileName = c.Naming.FileName
	}
	if c.Naming.MaxPathLength == 0 {
		c.Naming.MaxPathLength = defaultMaxPathLength
	}
}

func (c *Config) normalizeMediaManagement() {
	c.MediaManagement.ImportMode = strings.ToLower(strings.TrimSpace(c.MediaManagement.ImportMode))
	if c.MediaManagement.ImportMode == "" {
		c.MediaManagement.ImportMode = defaultImportMode
	}
	c.MediaManagement.FileDate = strings.ToLower(strings.TrimSpace(c.MediaManagement.FileDate))
	if c.MediaManagement.FileDate == "" {
		c.MediaManagement.FileDate = defaultFileDate
	}
	c.MediaManagement.ChmodFolder = strings.TrimSpace(c.MediaManagement.ChmodFolder)
	if c.MediaManagement.ChmodFolder == "" {
		c.MediaManagement.ChmodFolder = defaultChmodFolder
	}
	c.MediaManagement.ChmodFile = strings.TrimSpace(c.MediaManagement.ChmodFile)
	if c.MediaManagement.ChmodFile == "" {
		c.MediaManagement.ChmodFile = defaultChmodFile
	}
	c.MediaManagement.ChownGroup = strings.TrimSpace(c.MediaManagement.ChownGroup)
}

func (c *Config) normalizeWatch() {
	if c.Watch.SuppressionWindowSeconds <= 0 {
		c.Watch.SuppressionWindowSeconds = defaultSuppressionWindowSeconds
	}
	if c.Watch.DebounceSeconds < 0 {
		c.Watch.DebounceSeconds = 0
	}
	if len(c.Watch.Extensions) == 0 {
		c.Watch.Extensions = append([]string(nil), defaultExtensions...)
		return
	}
	exts := make([]string, 0, len(c.Watch.Extensions))
	seen := make(map[string]struct{}, len(c.Watch.Extensions))
	for _, ext := range c.Watch.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	c.Watch.Extensions = exts
}

func (c *Config) normalizeNotifications() {
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("SHELVER_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = value
		}
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json", "logfmt":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch c.Logging.Level {
	case "":
		c.Logging.Level = defaultLogLevel
	case "warning":
		c.Logging.Level = "warn"
	}
}
