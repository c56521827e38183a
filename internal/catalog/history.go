package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"shelver/internal/organizer"
	"shelver/internal/transfer"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Entry is one row of transfer history.
type Entry struct {
	ID             int64
	Status         string
	Operation      string
	FileID         int64
	Source         string
	Destination    string
	Mode           string
	Outcome        string
	FoldersCreated []string
	Truncated      bool
	Reason         string
	Message        string
	Elapsed        time.Duration
	CreatedAt      time.Time
}

const historyColumns = "id, status, operation, file_id, source_path, destination_path, mode, outcome, folders_created, truncated, reason, message, elapsed_ms, created_at"

// RecordTransfer stores a completed operation. Moved files with a stored
// record get their path replaced in the same transaction.
func (s *Store) RecordTransfer(ctx context.Context, result organizer.Result) error {
	var created []string
	if result.Folders.Author {
		created = append(created, "author")
	}
	if result.Folders.Book {
		created = append(created, "book")
	}
	if result.Folders.Track {
		created = append(created, "track")
	}

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin history tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO history (status, operation, file_id, source_path, destination_path, mode, outcome,
                 folders_created, truncated, message, elapsed_ms, created_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			StatusCompleted,
			result.Operation,
			nullableID(result.File.ID),
			result.Source,
			result.File.Path,
			result.Mode.String(),
			result.Outcome.String(),
			nullableString(strings.Join(created, ",")),
			boolToInt(result.Plan.Truncated),
			nullableString(strings.Join(result.Warnings, "; ")),
			result.Elapsed.Milliseconds(),
			time.Now().UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}

		if result.File.ID != 0 && result.Outcome == transfer.Moved {
			if _, err := tx.ExecContext(ctx, `UPDATE files SET path = ? WHERE id = ?`, result.File.Path, result.File.ID); err != nil {
				return fmt.Errorf("update file path: %w", err)
			}
		}
		return tx.Commit()
	})
}

// RecordFailure stores a failed operation.
func (s *Store) RecordFailure(ctx context.Context, failure organizer.Failure) error {
	message := ""
	if failure.Err != nil {
		message = failure.Err.Error()
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO history (status, operation, file_id, source_path, destination_path, reason, message, created_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			StatusFailed,
			failure.Operation,
			nullableID(failure.FileID),
			failure.Source,
			nullableString(failure.Destination),
			nullableString(failure.Reason),
			nullableString(message),
			time.Now().UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert failure: %w", err)
		}
		return nil
	})
}

// HistoryFilter narrows History results.
type HistoryFilter struct {
	Status string
	FileID int64
	Limit  int
}

// History returns history entries, newest first.
func (s *Store) History(ctx context.Context, filter HistoryFilter) ([]Entry, error) {
	query := `SELECT ` + historyColumns + ` FROM history`
	var (
		clauses []string
		args    []any
	)
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.FileID != 0 {
		clauses = append(clauses, "file_id = ?")
		args = append(args, filter.FileID)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		entry       Entry
		fileID      sql.NullInt64
		destination sql.NullString
		mode        sql.NullString
		outcome     sql.NullString
		folders     sql.NullString
		truncated   int
		reason      sql.NullString
		message     sql.NullString
		elapsedMS   int64
		createdRaw  sql.NullString
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.Status,
		&entry.Operation,
		&fileID,
		&entry.Source,
		&destination,
		&mode,
		&outcome,
		&folders,
		&truncated,
		&reason,
		&message,
		&elapsedMS,
		&createdRaw,
	); err != nil {
		return Entry{}, err
	}
	entry.FileID = fileID.Int64
	entry.Destination = destination.String
	entry.Mode = mode.String
	entry.Outcome = outcome.String
	if folders.String != "" {
		entry.FoldersCreated = strings.Split(folders.String, ",")
	}
	entry.Truncated = truncated != 0
	entry.Reason = reason.String
	entry.Message = message.String
	entry.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	entry.CreatedAt = parseTime(createdRaw)
	return entry, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// Stats returns history counts keyed by status.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM history GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("history stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[status] = count
	}
	return stats, rows.Err()
}
