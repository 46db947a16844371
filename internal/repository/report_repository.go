package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/commonapp/common-backend/internal/models"
)

// ErrReportNotFound is returned when no report row matches.
var ErrReportNotFound = errors.New("report not found")

// ReportRepository works with the reports table.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a report in pending status.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO reports (reporter_id, target_type, target_id, reason, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, created_at
	`, report.ReporterID, report.TargetType, report.TargetID, report.Reason, report.Description).
		Scan(&report.ID, &report.Status, &report.CreatedAt)
}

// GetByID returns a report by id.
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	err := r.db.GetContext(ctx, &report, `SELECT * FROM reports WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	return &report, err
}

// ListByReporter returns a user's own reports, newest first.
func (r *ReportRepository) ListByReporter(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.SelectContext(ctx, &reports, `
		SELECT * FROM reports WHERE reporter_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, reporterID, limit, offset)
	return reports, err
}

// ListPending returns the moderation queue, oldest first.
func (r *ReportRepository) ListPending(ctx context.Context, limit, offset int) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.SelectContext(ctx, &reports, `
		SELECT * FROM reports WHERE status = 'pending' ORDER BY created_at ASC LIMIT $1 OFFSET $2
	`, limit, offset)
	return reports, err
}

// Resolve terminal-transitions a pending report. Returns false when
// the report was not pending anymore (another admin got there first).
func (r *ReportRepository) Resolve(ctx context.Context, id, reviewerID uuid.UUID, status string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE reports SET status = $3, reviewed_by = $2, reviewed_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id, reviewerID, status)
	if err != nil {
		return false, fmt.Errorf("report repository: resolve %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("report repository: resolve %w", err)
	}
	return n > 0, nil
}

// CountPending returns the moderation queue size.
func (r *ReportRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM reports WHERE status = 'pending'`); err != nil {
		return 0, fmt.Errorf("report repository: count pending %w", err)
	}
	return count, nil
}
