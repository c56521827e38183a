package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"shelver/internal/config"
	"shelver/internal/disk"
	"shelver/internal/filedate"
	"shelver/internal/folders"
	"shelver/internal/library"
	"shelver/internal/logging"
	"shelver/internal/naming"
	"shelver/internal/services"
	"shelver/internal/transfer"
	"shelver/internal/watch"
)

const (
	OperationMoveForReorganization = "move_for_reorganization"
	OperationMoveForImport         = "move_for_import"
	OperationCopyForImport         = "copy_for_import"
)

// PathBuilder renders canonical names. It must not touch the filesystem.
type PathBuilder interface {
	BuildFileName(author library.Author, edition library.Edition, file library.ManagedFile) string
	BuildFilePath(author library.Author, edition library.Edition, fileName, extension string) string
	BuildBookFolder(author library.Author, edition library.Edition) string
}

// FolderEnsurer materializes the folder levels of a destination.
type FolderEnsurer interface {
	Ensure(ctx context.Context, levels folders.Levels) (folders.Record, error)
}

// TimestampSyncer stamps organized files. Failures are logged, never returned.
type TimestampSyncer interface {
	SyncTimestamps(ctx context.Context, file library.ManagedFile, author library.Author, book library.Book) error
}

// Recorder persists completed operations. Failures are logged, never returned.
type Recorder interface {
	RecordTransfer(ctx context.Context, result Result) error
	RecordFailure(ctx context.Context, failure Failure) error
}

// Metrics observes operation results.
type Metrics interface {
	ObserveTransfer(operation, mode, outcome string, size int64, elapsed time.Duration)
	ObserveFailure(operation, reason string)
}

// Result describes a completed operation.
type Result struct {
	Operation string
	Source    string
	File      library.ManagedFile
	Plan      Plan
	Mode      transfer.Mode
	Outcome   transfer.Outcome
	Folders   folders.Record
	Pruned    []string
	Warnings  []string
	Elapsed   time.Duration
}

// Failure describes an operation that returned an error.
type Failure struct {
	Operation   string
	FileID      int64
	Source      string
	Destination string
	Reason      string
	Err         error
}

// Options tunes organizer policy.
type Options struct {
	CopyUsingHardlinks bool
	// MaxPathLength caps import destinations; 0 selects DefaultMaxPathLength.
	MaxPathLength     int
	PruneEmptyFolders bool
}

// Dependencies are the collaborators of a Service. Paths, Disk, Folders and
// Transfer are required; the rest may be nil.
type Dependencies struct {
	Paths      PathBuilder
	Disk       disk.Provider
	Folders    FolderEnsurer
	Transfer   transfer.Executor
	Timestamps TimestampSyncer
	Recorder   Recorder
	Metrics    Metrics
	Logger     *slog.Logger
}

// Service organizes managed files into the library. It holds no per-file
// state; callers serialize operations on the same file.
type Service struct {
	opts       Options
	paths      PathBuilder
	disk       disk.Provider
	folders    FolderEnsurer
	transfer   transfer.Executor
	timestamps TimestampSyncer
	recorder   Recorder
	metrics    Metrics
	logger     *slog.Logger
}

// New constructs a Service from explicit collaborators.
func New(opts Options, deps Dependencies) *Service {
	if opts.MaxPathLength <= 0 {
		opts.MaxPathLength = DefaultMaxPathLength
	}
	return &Service{
		opts:       opts,
		paths:      deps.Paths,
		disk:       deps.Disk,
		folders:    deps.Folders,
		transfer:   deps.Transfer,
		timestamps: deps.Timestamps,
		recorder:   deps.Recorder,
		metrics:    deps.Metrics,
		logger:     logging.NewComponentLogger(deps.Logger, "organizer"),
	}
}

// NewFromConfig wires the default filesystem collaborators from cfg. Any
// collaborator already set in deps is kept.
func NewFromConfig(cfg *config.Config, notifier watch.Notifier, deps Dependencies, folderOpts ...folders.Option) (*Service, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "organizer", "init", "Configuration is required", nil)
	}
	if deps.Paths == nil {
		deps.Paths = naming.NewBuilder(naming.OptionsFromConfig(cfg))
	}
	if deps.Disk == nil {
		policy, err := disk.PolicyFromConfig(cfg)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "organizer", "init", "Invalid permission settings in [media_management]", err)
		}
		deps.Disk = disk.NewLocal(policy)
	}
	if deps.Folders == nil {
		deps.Folders = folders.New(deps.Disk, notifier, deps.Logger, folderOpts...)
	}
	if deps.Transfer == nil {
		deps.Transfer = transfer.NewDiskTransfer(deps.Logger)
	}
	if deps.Timestamps == nil {
		policy, err := filedate.ParsePolicy(cfg.MediaManagement.FileDate)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "organizer", "init", "Invalid media_management.file_date", err)
		}
		deps.Timestamps = filedate.NewSyncer(policy)
	}
	return New(Options{
		CopyUsingHardlinks: cfg.MediaManagement.CopyUsingHardlinks,
		MaxPathLength:      cfg.Naming.MaxPathLength,
		PruneEmptyFolders:  cfg.MediaManagement.PruneEmptyFolders,
	}, deps), nil
}

// MoveForReorganization moves file to the canonical path derived from its
// current metadata.
func (s *Service) MoveForReorganization(ctx context.Context, file library.ManagedFile, author library.Author, edition library.Edition) (library.ManagedFile, error) {
	result, err := s.MoveForReorganizationDetailed(ctx, file, author, edition)
	return result.File, err
}

// MoveForReorganizationDetailed is MoveForReorganization returning the full Result.
func (s *Service) MoveForReorganizationDetailed(ctx context.Context, file library.ManagedFile, author library.Author, edition library.Edition) (Result, error) {
	return s.organize(ctx, request{
		operation: OperationMoveForReorganization,
		file:      file,
		author:    author,
		edition:   edition,
		extension: file.Extension(),
		mode:      transfer.Move,
	})
}

// CanonicalPath returns where MoveForReorganization would place file. No
// filesystem access happens.
func (s *Service) CanonicalPath(file library.ManagedFile, author library.Author, edition library.Edition) string {
	return s.plan(author, edition, file, file.Extension()).Path
}

// MoveForImport places a newly discovered file into the library, removing it
// from its source location.
func (s *Service) MoveForImport(ctx context.Context, file library.ManagedFile, importCtx library.ImportContext) (library.ManagedFile, error) {
	result, err := s.MoveForImportDetailed(ctx, file, importCtx)
	return result.File, err
}

// MoveForImportDetailed is MoveForImport returning the full Result.
func (s *Service) MoveForImportDetailed(ctx context.Context, file library.ManagedFile, importCtx library.ImportContext) (Result, error) {
	return s.organize(ctx, importRequest(OperationMoveForImport, file, importCtx, transfer.Move))
}

// CopyForImport places a newly discovered file into the library and keeps the
// source. A hardlink is attempted first when configured.
func (s *Service) CopyForImport(ctx context.Context, file library.ManagedFile, importCtx library.ImportContext) (library.ManagedFile, error) {
	result, err := s.CopyForImportDetailed(ctx, file, importCtx)
	return result.File, err
}

// CopyForImportDetailed is CopyForImport returning the full Result.
func (s *Service) CopyForImportDetailed(ctx context.Context, file library.ManagedFile, importCtx library.ImportContext) (Result, error) {
	mode := transfer.Copy
	if s.opts.CopyUsingHardlinks {
		mode = transfer.HardLinkOrCopy
	}
	return s.organize(ctx, importRequest(OperationCopyForImport, file, importCtx, mode))
}

type request struct {
	operation string
	file      library.ManagedFile
	author    library.Author
	edition   library.Edition
	extension string
	mode      transfer.Mode
	shorten   bool
}

func importRequest(operation string, file library.ManagedFile, importCtx library.ImportContext, mode transfer.Mode) request {
	extension := importCtx.Extension()
	if extension == "" {
		extension = file.Extension()
	}
	return request{
		operation: operation,
		file:      file,
		author:    importCtx.Author,
		edition:   importCtx.Edition,
		extension: extension,
		mode:      mode,
		shorten:   true,
	}
}

func (s *Service) organize(ctx context.Context, req request) (Result, error) {
	started := time.Now()
	ctx = services.WithOperation(ctx, req.operation)
	if req.file.ID != 0 {
		ctx = services.WithFileID(ctx, req.file.ID)
	}
	logger := logging.WithContext(ctx, s.logger)
	source := req.file.Path

	plan := s.plan(req.author, req.edition, req.file, req.extension)
	if req.shorten {
		shortened, err := s.shorten(plan, req.author, req.edition, req.extension, s.opts.MaxPathLength)
		if err != nil {
			return s.fail(ctx, req, plan.Path, invalidPath(req.operation, plan.Path, err.Error()))
		}
		if shortened.Truncated {
			logger.Info("destination shortened to fit path length limit",
				logging.String("original", plan.Path),
				logging.String("destination", shortened.Path),
				logging.Int("limit", s.opts.MaxPathLength),
			)
		}
		plan = shortened
		if n := utf8.RuneCountInString(plan.Path); n > s.opts.MaxPathLength {
			return s.fail(ctx, req, plan.Path, invalidPath(req.operation, plan.Path, fmt.Sprintf("still %d characters after shortening", n)))
		}
	}

	if source == plan.Path {
		return s.fail(ctx, req, plan.Path, samePath(req.operation, source))
	}
	if !s.disk.IsValidPath(plan.Path) {
		return s.fail(ctx, req, plan.Path, invalidPath(req.operation, plan.Path, ""))
	}
	if !s.disk.FileExists(source) {
		return s.fail(ctx, req, plan.Path, sourceMissing(req.operation, source))
	}

	levels := folders.Levels{
		Author: req.author.Path,
		Book:   s.paths.BuildBookFolder(req.author, req.edition),
		Track:  filepath.Dir(plan.Path),
	}
	record, err := s.folders.Ensure(ctx, levels)
	if err != nil {
		return s.fail(ctx, req, plan.Path, rootMissing(req.operation, err))
	}

	logger.Info("transferring file",
		logging.String("source", source),
		logging.String("destination", plan.Path),
		logging.String("mode", req.mode.String()),
	)
	outcome, err := s.transfer.Transfer(ctx, source, plan.Path, req.mode)
	if err != nil {
		return s.fail(ctx, req, plan.Path, transferFailed(req.operation, err))
	}

	result := Result{
		Operation: req.operation,
		Source:    source,
		File:      req.file.WithPath(plan.Path),
		Plan:      plan,
		Mode:      req.mode,
		Outcome:   outcome,
		Folders:   record,
	}
	s.finish(ctx, logger, req, &result)
	result.Elapsed = time.Since(started)

	if s.metrics != nil {
		s.metrics.ObserveTransfer(req.operation, req.mode.String(), outcome.String(), req.file.Size, result.Elapsed)
	}
	if s.recorder != nil {
		if err := s.recorder.RecordTransfer(ctx, result); err != nil {
			logging.WarnWithContext(logger, "failed to record transfer history", "history_write_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check data_dir permissions"),
				logging.String(logging.FieldImpact, "transfer succeeded but is missing from history"),
			)
		}
	}
	logger.Info("file organized",
		logging.String("destination", plan.Path),
		logging.String("outcome", outcome.String()),
		logging.Bool("folders_created", record.Changed()),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// finish runs the best-effort steps after a successful transfer.
func (s *Service) finish(ctx context.Context, logger *slog.Logger, req request, result *Result) {
	if s.timestamps != nil {
		if err := s.timestamps.SyncTimestamps(ctx, result.File, req.author, req.edition.Book); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("timestamp sync: %v", err))
			logging.WarnWithContext(logger, "failed to sync file timestamps", "timestamp_sync_failed",
				logging.String("path", result.File.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check ownership of the destination"),
				logging.String(logging.FieldImpact, "file keeps its previous timestamps"),
			)
		}
	}
	if err := s.disk.SetFilePermissions(result.File.Path); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("permissions: %v", err))
		logging.WarnWithContext(logger, "failed to normalize file permissions", "file_permissions_failed",
			logging.String("path", result.File.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check chmod_file and chown_group"),
		)
	}
	if req.mode == transfer.Move && s.opts.PruneEmptyFolders {
		result.Pruned = s.prune(logger, filepath.Dir(result.Source), req.author.RootFolder())
	}
}

// prune removes empty folders from dir upwards, stopping below root. Nothing
// outside root is touched.
func (s *Service) prune(logger *slog.Logger, dir, root string) []string {
	if root == "" {
		return nil
	}
	root = filepath.Clean(root)
	prefix := root + string(filepath.Separator)
	var removed []string
	for current := filepath.Clean(dir); strings.HasPrefix(current, prefix); current = filepath.Dir(current) {
		ok, err := s.disk.RemoveEmptyFolder(current)
		if err != nil {
			logger.Debug("stopped pruning", logging.String("path", current), logging.Error(err))
			break
		}
		if !ok {
			break
		}
		removed = append(removed, current)
	}
	if len(removed) > 0 {
		logger.Info("pruned empty folders", logging.Int("count", len(removed)), logging.String("deepest", removed[0]))
	}
	return removed
}

func (s *Service) fail(ctx context.Context, req request, destination string, err error) (Result, error) {
	logger := logging.WithContext(ctx, s.logger)
	reason := FailureReason(err)
	logger.Error("organize failed",
		logging.String("source", req.file.Path),
		logging.String("destination", destination),
		logging.String("reason", reason),
		logging.Error(err),
	)
	if s.metrics != nil {
		s.metrics.ObserveFailure(req.operation, reason)
	}
	if s.recorder != nil {
		failure := Failure{
			Operation:   req.operation,
			FileID:      req.file.ID,
			Source:      req.file.Path,
			Destination: destination,
			Reason:      reason,
			Err:         err,
		}
		if recErr := s.recorder.RecordFailure(ctx, failure); recErr != nil {
			logger.Warn("failed to record failure history", logging.Error(recErr))
		}
	}
	return Result{}, err
}
