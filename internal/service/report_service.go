package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/commonapp/common-backend/internal/models"
	"github.com/commonapp/common-backend/internal/pkg/apperror"
	"github.com/commonapp/common-backend/internal/repository"
	"github.com/commonapp/common-backend/internal/validation"
)

// ReportStorage is the storage surface ReportService needs.
type ReportStorage interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	ListByReporter(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.Report, error)
}

// ReportTargetResolver checks that the reported target exists.
type ReportTargetResolver interface {
	PostExists(ctx context.Context, id uuid.UUID) error
	ThreadExists(ctx context.Context, id uuid.UUID) error
}

// ReportService handles user-side report creation. A report targets
// exactly one post or one thread, never both.
type ReportService struct {
	repo     ReportStorage
	resolver ReportTargetResolver
}

// NewReportService creates the service.
func NewReportService(repo ReportStorage, resolver ReportTargetResolver) *ReportService {
	return &ReportService{repo: repo, resolver: resolver}
}

// CreateReport validates and stores a report in pending status.
func (s *ReportService) CreateReport(ctx context.Context, reporterID uuid.UUID, targetType string, targetID uuid.UUID, reason string, description *string) (*models.Report, error) {
	switch targetType {
	case models.ReportTargetPost:
		if err := s.resolver.PostExists(ctx, targetID); err != nil {
			return nil, err
		}
	case models.ReportTargetThread:
		if err := s.resolver.ThreadExists(ctx, targetID); err != nil {
			return nil, err
		}
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "invalid report target type")
	}

	if !validReason(reason) {
		return nil, apperror.New(apperror.ErrCodeValidation, "invalid report reason")
	}
	if reason == models.ReportReasonOther {
		if description == nil || strings.TrimSpace(*description) == "" {
			return nil, apperror.New(apperror.ErrCodeValidation, "a description is required for reason 'other'")
		}
	}
	if description != nil && len(*description) > validation.MaxReportDescription {
		return nil, apperror.New(apperror.ErrCodeValidation, "description is too long")
	}

	report := &models.Report{
		ReporterID:  reporterID,
		TargetType:  targetType,
		TargetID:    targetID,
		Reason:      reason,
		Description: description,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "report not created")
	}
	return report, nil
}

// ListMyReports returns the caller's own reports.
func (s *ReportService) ListMyReports(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Report, error) {
	return s.repo.ListByReporter(ctx, userID, limit, offset)
}

func validReason(reason string) bool {
	for _, r := range models.ReportReasons {
		if r == reason {
			return true
		}
	}
	return false
}

// RepoTargetResolver resolves targets against the live repositories.
type RepoTargetResolver struct {
	Posts   *repository.PostRepository
	Threads *repository.ThreadRepository
}

func (r *RepoTargetResolver) PostExists(ctx context.Context, id uuid.UUID) error {
	_, err := r.Posts.GetByID(ctx, id)
	if errors.Is(err, repository.ErrPostNotFound) {
		return apperror.ErrPostNotFound
	}
	return err
}

func (r *RepoTargetResolver) ThreadExists(ctx context.Context, id uuid.UUID) error {
	_, err := r.Threads.GetByID(ctx, id)
	if errors.Is(err, repository.ErrThreadNotFound) {
		return apperror.ErrThreadNotFound
	}
	return err
}
