package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopradar/ads-monitor/internal/domain"
)

// ScanRepo backs the page-analysis use case and the scan read endpoint.
type ScanRepo struct{ db *sql.DB }

// NewScanRepo creates a Postgres-backed scan repository.
func NewScanRepo(db *sql.DB) *ScanRepo { return &ScanRepo{db: db} }

func (r *ScanRepo) PageByID(ctx context.Context, id string) (*domain.Page, error) {
	return pageByID(ctx, r.db, id)
}

func (r *ScanRepo) SaveScan(ctx context.Context, s *domain.Scan) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scans
			(id, page_id, type, status, result, priority, retry_count,
			 max_retries, error_message, started_at, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, s.ID, s.PageID, s.Type, s.Status, nullJSON(s.Result), s.Priority,
		s.RetryCount, s.MaxRetries, s.Error, s.StartedAt, s.CompletedAt, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("save scan: %w", err)
	}
	return nil
}

func (r *ScanRepo) UpdateScan(ctx context.Context, s *domain.Scan) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scans SET
			status = $2, result = $3, retry_count = $4, error_message = $5,
			started_at = $6, completed_at = $7
		WHERE id = $1
	`, s.ID, s.Status, nullJSON(s.Result), s.RetryCount, s.Error,
		s.StartedAt, s.CompletedAt)
	if err != nil {
		return fmt.Errorf("update scan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update scan %s: no row", s.ID)
	}
	return nil
}

// ScanByID returns (nil, nil) when the scan does not exist.
func (r *ScanRepo) ScanByID(ctx context.Context, id string) (*domain.Scan, error) {
	s := &domain.Scan{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, page_id, type, status, COALESCE(result,'null'), priority,
		       retry_count, max_retries, COALESCE(error_message,''),
		       started_at, completed_at, created_at
		FROM scans WHERE id = $1
	`, id).Scan(
		&s.ID, &s.PageID, &s.Type, &s.Status, &s.Result, &s.Priority,
		&s.RetryCount, &s.MaxRetries, &s.Error,
		&s.StartedAt, &s.CompletedAt, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get scan: %w", err)
	}
	return s, nil
}

// UpsertAds writes the batch and refreshes the page's ad counters in
// the same transaction.
func (r *ScanRepo) UpsertAds(ctx context.Context, page *domain.Page, ads []*domain.Ad) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := upsertAdsTx(ctx, tx, ads); err != nil {
		return err
	}
	if err := refreshAdCounters(ctx, tx, page.ID); err != nil {
		return err
	}
	return tx.Commit()
}
