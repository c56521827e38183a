package config

import (
	"errors"
	"fmt"
	"net"
	"os/user"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", describeValidation(err))
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateNaming(); err != nil {
		return err
	}
	if err := c.validateMediaManagement(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if !filepath.IsAbs(c.Paths.LibraryDir) {
		return fmt.Errorf("paths.library_dir must be absolute, got %q", c.Paths.LibraryDir)
	}
	if filepath.Dir(c.Paths.LibraryDir) == c.Paths.LibraryDir {
		return errors.New("paths.library_dir must not be the filesystem root")
	}
	if c.Paths.InboxDir != "" && c.Paths.InboxDir == c.Paths.LibraryDir {
		return errors.New("paths.inbox_dir must differ from paths.library_dir")
	}
	return nil
}

func (c *Config) validateNaming() error {
	for field, template := range map[string]string{
		"naming.author_folder": c.Naming.AuthorFolder,
		"naming.book_folder":   c.Naming.BookFolder,
	} {
		if strings.ContainsAny(template, `/\`) {
			return fmt.Errorf("%s must describe a single folder, got %q", field, template)
		}
	}
	if strings.ContainsAny(c.Naming.IllegalReplacement, `\/:*?"<>|`) {
		return fmt.Errorf("naming.illegal_replacement %q contains an illegal character", c.Naming.IllegalReplacement)
	}
	if c.Naming.MaxPathLength > 0 && c.Naming.MaxPathLength < 32 {
		return errors.New("naming.max_path_length must be at least 32")
	}
	return nil
}

func (c *Config) validateMediaManagement() error {
	if _, err := c.FolderMode(); err != nil {
		return err
	}
	if _, err := c.FileMode(); err != nil {
		return err
	}
	if group := c.MediaManagement.ChownGroup; group != "" && c.MediaManagement.SetPermissions {
		if _, err := user.LookupGroup(group); err != nil {
			if _, idErr := user.LookupGroupId(group); idErr != nil {
				return fmt.Errorf("media_management.chown_group %q: %w", group, err)
			}
		}
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if !c.Metrics.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Metrics.Bind); err != nil {
		return fmt.Errorf("metrics.bind %q: %w", c.Metrics.Bind, err)
	}
	return nil
}

// describeValidation rewrites validator output into the toml key names users edit.
func describeValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s must be set", key))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fe.Value()))
		default:
			messages = append(messages, fmt.Sprintf("%s failed %s=%s", key, fe.Tag(), fe.Param()))
		}
	}
	return errors.New(strings.Join(messages, "; "))
}
