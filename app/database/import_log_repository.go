package database

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

var _ ImportLogRepository = (*PostgresImportLogRepository)(nil)

// PostgresImportLogRepository handles database operations for import runs
type PostgresImportLogRepository struct {
	db *DB
}

func NewImportLogRepository(db *DB) *PostgresImportLogRepository {
	return &PostgresImportLogRepository{db: db}
}

// CreateLog opens a run record in "processing" state. Exactly one row per run.
func (r *PostgresImportLogRepository) CreateLog(feedID, networkID *string, importType string) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO import_logs (feed_id, network_id, import_type, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, feedID, networkID, importType, StatusProcessing).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create import log: %w", err)
	}
	return id, nil
}

// FinalizeLog writes the run outcome once, at the end of the run. A row an
// operator already flipped to "stopped" keeps that status.
func (r *PostgresImportLogRepository) FinalizeLog(id, status string, processed, created, updated int, errors []string) error {
	if errors == nil {
		errors = []string{}
	}
	_, err := r.db.Exec(`
		UPDATE import_logs
		SET status = CASE WHEN status = $7 THEN status ELSE $2 END,
			products_processed = $3, products_created = $4, products_updated = $5,
			errors = $6, completed_at = NOW()
		WHERE id = $1
	`, id, status, processed, created, updated, pq.Array(errors), StatusStopped)
	if err != nil {
		return fmt.Errorf("failed to finalize import log: %w", err)
	}
	return nil
}

func (r *PostgresImportLogRepository) GetLogStatus(id string) (string, error) {
	var status string
	err := r.db.QueryRow(`SELECT status FROM import_logs WHERE id = $1`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get import log status: %w", err)
	}
	return status, nil
}

func (r *PostgresImportLogRepository) GetLogs(limit int) ([]ImportLog, error) {
	rows, err := r.db.Query(`
		SELECT id, feed_id, network_id, import_type, status,
		       products_processed, products_created, products_updated,
		       errors, started_at, completed_at
		FROM import_logs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import logs: %w", err)
	}
	defer rows.Close()

	var logs []ImportLog
	for rows.Next() {
		var l ImportLog
		err := rows.Scan(&l.ID, &l.FeedID, &l.NetworkID, &l.ImportType, &l.Status,
			&l.ProductsProcessed, &l.ProductsCreated, &l.ProductsUpdated,
			pq.Array(&l.Errors), &l.StartedAt, &l.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import log row: %w", err)
		}
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import log rows: %w", err)
	}

	return logs, nil
}

// MarkStopped flips a running import to "stopped". The running loop polls for
// this and finalizes with the counters accumulated so far.
func (r *PostgresImportLogRepository) MarkStopped(id string) error {
	_, err := r.db.Exec(`
		UPDATE import_logs
		SET status = $2
		WHERE id = $1 AND status = $3
	`, id, StatusStopped, StatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to mark import log stopped: %w", err)
	}
	return nil
}

// DeleteFinished bulk-deletes completed and failed runs
func (r *PostgresImportLogRepository) DeleteFinished() (int64, error) {
	res, err := r.db.Exec(`
		DELETE FROM import_logs
		WHERE status IN ($1, $2)
	`, StatusCompleted, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("failed to delete finished import logs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
