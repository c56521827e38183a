package transfer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"

	"shelver/internal/fileutil"
	"shelver/internal/logging"
)

// Mode selects how bytes are placed at the destination.
type Mode int

const (
	Move Mode = iota
	Copy
	HardLinkOrCopy
)

func (m Mode) String() string {
	switch m {
	case Move:
		return "move"
	case Copy:
		return "copy"
	case HardLinkOrCopy:
		return "hardlink_or_copy"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Outcome records what a transfer actually did.
type Outcome int

const (
	None Outcome = iota
	Moved
	Copied
	HardLinked
)

func (o Outcome) String() string {
	switch o {
	case Moved:
		return "moved"
	case Copied:
		return "copied"
	case HardLinked:
		return "hardlinked"
	}
	return "none"
}

// ErrDestinationExists reports that the destination path is already occupied.
var ErrDestinationExists = errors.New("destination already exists")

// Executor performs transfers.
type Executor interface {
	Transfer(ctx context.Context, src, dst string, mode Mode) (Outcome, error)
}

// DiskTransfer is the Executor backed by the host filesystem.
type DiskTransfer struct {
	logger *slog.Logger
	link   func(oldname, newname string) error
	rename func(oldpath, newpath string) error
	remove func(name string) error
}

// Option customizes a DiskTransfer.
type Option func(*DiskTransfer)

// WithLinker replaces the hardlink syscall. Used to simulate filesystems
// without link support.
func WithLinker(link func(oldname, newname string) error) Option {
	return func(d *DiskTransfer) { d.link = link }
}

// WithRenamer replaces the rename syscall. Used to simulate cross-device moves.
func WithRenamer(rename func(oldpath, newpath string) error) Option {
	return func(d *DiskTransfer) { d.rename = rename }
}

// WithRemover replaces the unlink used to drop the source after a
// cross-device copy.
func WithRemover(remove func(name string) error) Option {
	return func(d *DiskTransfer) { d.remove = remove }
}

// NewDiskTransfer constructs a DiskTransfer.
func NewDiskTransfer(logger *slog.Logger, opts ...Option) *DiskTransfer {
	d := &DiskTransfer{
		logger: logging.NewComponentLogger(logger, "transfer"),
		link:   unix.Link,
		rename: os.Rename,
		remove: os.Remove,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Transfer places src at dst according to mode.
func (d *DiskTransfer) Transfer(ctx context.Context, src, dst string, mode Mode) (Outcome, error) {
	logger := logging.WithContext(ctx, d.logger).With(
		logging.String("source", src),
		logging.String("destination", dst),
		logging.String("mode", mode.String()),
	)
	if _, err := os.Lstat(dst); err == nil {
		return None, fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return None, fmt.Errorf("stat destination: %w", err)
	}

	switch mode {
	case Move:
		if err := d.move(logger, src, dst); err != nil {
			return None, err
		}
		return Moved, nil
	case Copy:
		if err := fileutil.CopyFileVerified(src, dst); err != nil {
			return None, fmt.Errorf("copy file: %w", err)
		}
		return Copied, nil
	case HardLinkOrCopy:
		err := d.link(src, dst)
		if err == nil {
			return HardLinked, nil
		}
		logger.Debug("hardlink refused, copying instead", logging.Error(err))
		if err := fileutil.CopyFileVerified(src, dst); err != nil {
			return None, fmt.Errorf("copy file after hardlink failure: %w", err)
		}
		return Copied, nil
	}
	return None, fmt.Errorf("unsupported transfer mode %s", mode)
}

func (d *DiskTransfer) move(logger *slog.Logger, src, dst string) error {
	err := d.rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, unix.EXDEV) {
		return fmt.Errorf("move file: %w", err)
	}
	logger.Debug("source on another filesystem, copying then removing")
	if err := fileutil.CopyFileVerified(src, dst); err != nil {
		return fmt.Errorf("copy file across devices: %w", err)
	}
	// The source must stay the only copy when it cannot be removed.
	if err := d.remove(src); err != nil {
		if rbErr := os.Remove(dst); rbErr != nil {
			logging.WarnWithContext(logger, "cross-device copy left at destination", "transfer_rollback_failed",
				logging.Error(rbErr),
				logging.String(logging.FieldImpact, "file exists at both source and destination"),
				logging.String(logging.FieldErrorHint, "delete the destination copy before retrying"),
			)
			return errors.Join(fmt.Errorf("remove source after copy: %w", err), fmt.Errorf("roll back destination: %w", rbErr))
		}
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}
