package disk

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"shelver/internal/config"
)

const (
	maxNameBytes = 255
	maxPathBytes = 4095
)

// Provider is the filesystem surface used to materialize folders and finish transfers.
type Provider interface {
	FileExists(path string) bool
	FolderExists(path string) bool
	// CreateFolder creates exactly one directory; its parent must exist.
	CreateFolder(path string) error
	SetFolderPermissions(path string) error
	SetFilePermissions(path string) error
	IsValidPath(path string) bool
	// RemoveEmptyFolder deletes path only when it has no entries and reports
	// whether it did.
	RemoveEmptyFolder(path string) (bool, error)
}

// Policy controls the permissions applied to created folders and organized files.
type Policy struct {
	Enabled    bool
	FolderMode os.FileMode
	FileMode   os.FileMode
	// GID is the group to assign, or -1 to leave ownership alone.
	GID int
}

// PolicyFromConfig resolves the media management permission settings.
func PolicyFromConfig(cfg *config.Config) (Policy, error) {
	policy := Policy{GID: -1, FolderMode: 0o755, FileMode: 0o644}
	if cfg == nil {
		return policy, nil
	}
	policy.Enabled = cfg.MediaManagement.SetPermissions
	var err error
	if policy.FolderMode, err = cfg.FolderMode(); err != nil {
		return Policy{}, err
	}
	if policy.FileMode, err = cfg.FileMode(); err != nil {
		return Policy{}, err
	}
	if group := strings.TrimSpace(cfg.MediaManagement.ChownGroup); group != "" {
		gid, err := lookupGID(group)
		if err != nil {
			return Policy{}, err
		}
		policy.GID = gid
	}
	return policy, nil
}

func lookupGID(group string) (int, error) {
	if g, err := user.LookupGroup(group); err == nil {
		return strconv.Atoi(g.Gid)
	}
	if g, err := user.LookupGroupId(group); err == nil {
		return strconv.Atoi(g.Gid)
	}
	if gid, err := strconv.Atoi(group); err == nil && gid >= 0 {
		return gid, nil
	}
	return -1, fmt.Errorf("unknown group %q", group)
}

// Local is the Provider backed by the host filesystem.
type Local struct {
	policy Policy
}

// NewLocal returns a Provider applying policy to created folders and organized files.
func NewLocal(policy Policy) *Local {
	if policy.FolderMode == 0 {
		policy.FolderMode = 0o755
	}
	if policy.FileMode == 0 {
		policy.FileMode = 0o644
	}
	return &Local{policy: policy}
}

func (l *Local) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (l *Local) FolderExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (l *Local) CreateFolder(path string) error {
	if err := os.Mkdir(path, l.policy.FolderMode); err != nil {
		if errors.Is(err, fs.ErrExist) && l.FolderExists(path) {
			return nil
		}
		return err
	}
	return nil
}

func (l *Local) SetFolderPermissions(path string) error {
	return l.apply(path, l.policy.FolderMode)
}

func (l *Local) SetFilePermissions(path string) error {
	return l.apply(path, l.policy.FileMode)
}

func (l *Local) apply(path string, mode os.FileMode) error {
	if !l.policy.Enabled {
		return nil
	}
	if err := unix.Chmod(path, uint32(mode.Perm())); err != nil {
		return &fs.PathError{Op: "chmod", Path: path, Err: err}
	}
	if l.policy.GID >= 0 {
		if err := unix.Lchown(path, -1, l.policy.GID); err != nil {
			return &fs.PathError{Op: "chown", Path: path, Err: err}
		}
	}
	return nil
}

func (l *Local) RemoveEmptyFolder(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, err
	}
	if len(entries) > 0 {
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		return false, err
	}
	return true, nil
}

func (l *Local) IsValidPath(path string) bool {
	return ValidatePath(path) == nil
}

// ValidatePath reports why path cannot be used as a destination on this platform.
func ValidatePath(path string) error {
	switch {
	case path == "":
		return errors.New("path is empty")
	case !filepath.IsAbs(path):
		return fmt.Errorf("path %q is not absolute", path)
	case strings.ContainsRune(path, 0):
		return fmt.Errorf("path %q contains a NUL byte", path)
	case len(path) > maxPathBytes:
		return fmt.Errorf("path is %d bytes, limit is %d", len(path), maxPathBytes)
	}
	for _, segment := range strings.Split(path, string(filepath.Separator)) {
		if segment == "." || segment == ".." {
			return fmt.Errorf("path %q contains relative segment %q", path, segment)
		}
		if len(segment) > maxNameBytes {
			return fmt.Errorf("segment %q exceeds %d bytes", segment, maxNameBytes)
		}
	}
	return nil
}
