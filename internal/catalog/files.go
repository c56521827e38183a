package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shelver/internal/library"
)

const fileColumns = "id, edition_id, path, size, date_added, modified, part, part_count"

func scanFile(scanner interface{ Scan(dest ...any) error }) (library.ManagedFile, error) {
	var (
		file      library.ManagedFile
		dateAdded sql.NullString
		modified  sql.NullString
	)
	if err := scanner.Scan(
		&file.ID,
		&file.EditionID,
		&file.Path,
		&file.Size,
		&dateAdded,
		&modified,
		&file.Part,
		&file.PartCount,
	); err != nil {
		return library.ManagedFile{}, err
	}
	file.DateAdded = parseTime(dateAdded)
	file.Modified = parseTime(modified)
	return file, nil
}

// SaveFile inserts file when it has no ID and updates it otherwise. The
// stored record is returned.
func (s *Store) SaveFile(ctx context.Context, file library.ManagedFile) (library.ManagedFile, error) {
	if file.Path == "" {
		return library.ManagedFile{}, errors.New("file path is required")
	}
	if file.DateAdded.IsZero() {
		file.DateAdded = time.Now().UTC()
	}

	if file.ID == 0 {
		var id int64
		err := retryOnBusy(ctx, func() error {
			res, err := s.db.ExecContext(ctx,
				`INSERT INTO files (edition_id, path, size, date_added, modified, part, part_count)
                 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				file.EditionID, file.Path, file.Size, nullableTime(file.DateAdded), nullableTime(file.Modified), file.Part, file.PartCount,
			)
			if err != nil {
				return err
			}
			id, err = res.LastInsertId()
			return err
		})
		if err != nil {
			return library.ManagedFile{}, fmt.Errorf("insert file: %w", err)
		}
		return s.FileByID(ctx, id)
	}

	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`UPDATE files SET edition_id = ?, path = ?, size = ?, date_added = ?, modified = ?, part = ?, part_count = ?
             WHERE id = ?`,
			file.EditionID, file.Path, file.Size, nullableTime(file.DateAdded), nullableTime(file.Modified), file.Part, file.PartCount, file.ID,
		)
		return err
	})
	if err != nil {
		return library.ManagedFile{}, fmt.Errorf("update file: %w", err)
	}
	return s.FileByID(ctx, file.ID)
}

// FileByID fetches a file record. ErrFileNotFound is returned when absent.
func (s *Store) FileByID(ctx context.Context, id int64) (library.ManagedFile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return library.ManagedFile{}, fmt.Errorf("%w: id %d", ErrFileNotFound, id)
	}
	if err != nil {
		return library.ManagedFile{}, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

// FileByPath fetches the record stored for path.
func (s *Store) FileByPath(ctx context.Context, path string) (library.ManagedFile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE path = ?`, path)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return library.ManagedFile{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		return library.ManagedFile{}, fmt.Errorf("get file by path: %w", err)
	}
	return file, nil
}

// ListFiles returns every file record ordered by path.
func (s *Store) ListFiles(ctx context.Context) ([]library.ManagedFile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+fileColumns+` FROM files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []library.ManagedFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// ErrFileNotFound reports a missing file record.
var ErrFileNotFound = errors.New("file record not found")
