package organizer

import (
	"errors"
	"fmt"

	"shelver/internal/folders"
	"shelver/internal/services"
	"shelver/internal/transfer"
)

var (
	// ErrSourceMissing reports that the file to organize is not on disk.
	ErrSourceMissing = errors.New("source file missing")
	// ErrSamePath reports that the file already sits at its canonical path.
	ErrSamePath = errors.New("source and destination are the same path")
	// ErrInvalidPath reports a destination the platform cannot represent.
	ErrInvalidPath = errors.New("invalid destination path")
	// ErrRootFolderMissing reports a missing library root above the author folder.
	ErrRootFolderMissing = folders.ErrRootFolderMissing
	// ErrTransferFailed reports that the byte transfer itself failed.
	ErrTransferFailed = errors.New("transfer failed")
)

// PreconditionError names the violated precondition and the path involved.
type PreconditionError struct {
	Kind   error
	Path   string
	Detail string
}

func (e *PreconditionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%v: %s (%s)", e.Kind, e.Path, e.Detail)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Path)
}

func (e *PreconditionError) Unwrap() error {
	return e.Kind
}

func sourceMissing(operation, path string) error {
	return services.Wrap(
		services.ErrNotFound,
		"organizer",
		operation,
		"Source file does not exist; it may have been moved or deleted outside shelver",
		&PreconditionError{Kind: ErrSourceMissing, Path: path},
	)
}

func samePath(operation, path string) error {
	return services.Wrap(
		services.ErrConflict,
		"organizer",
		operation,
		"File is already at its canonical location",
		&PreconditionError{Kind: ErrSamePath, Path: path},
	)
}

func invalidPath(operation, path, detail string) error {
	return services.Wrap(
		services.ErrValidation,
		"organizer",
		operation,
		"Destination path is not valid on this platform; shorten the naming templates",
		&PreconditionError{Kind: ErrInvalidPath, Path: path, Detail: detail},
	)
}

func rootMissing(operation string, err error) error {
	return services.Wrap(
		services.ErrConfiguration,
		"organizer",
		operation,
		"Library root folder is missing; check paths.library_dir and that the volume is mounted",
		err,
	)
}

func transferFailed(operation string, err error) error {
	marker := services.ErrTransient
	if errors.Is(err, transfer.ErrDestinationExists) {
		marker = services.ErrConflict
	}
	return services.Wrap(
		marker,
		"organizer",
		operation,
		"Failed to transfer file into the library",
		fmt.Errorf("%w: %w", ErrTransferFailed, err),
	)
}

// FailureReason classifies err for metrics and history.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSamePath):
		return "same_path"
	case errors.Is(err, ErrInvalidPath):
		return "invalid_path"
	case errors.Is(err, ErrSourceMissing):
		return "source_missing"
	case errors.Is(err, ErrRootFolderMissing):
		return "root_folder_missing"
	case errors.Is(err, transfer.ErrDestinationExists):
		return "destination_exists"
	case errors.Is(err, ErrTransferFailed):
		return "transfer_failed"
	}
	return "other"
}
