package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/commonapp/common-backend/internal/goroutine"
	"github.com/commonapp/common-backend/internal/logger"
	"github.com/commonapp/common-backend/internal/models"
	"github.com/commonapp/common-backend/internal/pkg/apperror"
)

// ModerationPostStorage is the post surface moderation needs.
type ModerationPostStorage interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Post, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	CountByStatus(ctx context.Context, status string) (int, error)
}

// ModerationReportStorage is the report surface moderation needs.
type ModerationReportStorage interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	ListPending(ctx context.Context, limit, offset int) ([]models.Report, error)
	Resolve(ctx context.Context, id, reviewerID uuid.UUID, status string) (bool, error)
	CountPending(ctx context.Context) (int, error)
}

// AdminChecker re-reads the caller's account row. Moderation never
// trusts the JWT claim alone; the admin flag is verified at the point
// of mutation.
type AdminChecker interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ModerationMailer sends the best-effort moderation notices.
type ModerationMailer interface {
	SendPostModerated(ctx context.Context, ownerID uuid.UUID, postTitle, outcome string)
}

// PendingCounts mirrors the admin dashboard badges. The counters are
// decremented on successful transitions instead of re-queried, so they
// are eventually consistent with storage, not authoritative.
type PendingCounts struct {
	Posts   int `json:"pending_posts"`
	Reports int `json:"pending_reports"`
}

// ModerationService owns the admin-only state machines for posts and
// reports.
type ModerationService struct {
	posts     ModerationPostStorage
	reports   ModerationReportStorage
	users     AdminChecker
	publisher EventPublisher
	mailer    ModerationMailer

	mu     sync.Mutex
	counts PendingCounts
	seeded bool
}

// NewModerationService creates the service. publisher and mailer may
// be nil in tests.
func NewModerationService(posts ModerationPostStorage, reports ModerationReportStorage, users AdminChecker, publisher EventPublisher, mailer ModerationMailer) *ModerationService {
	return &ModerationService{
		posts:     posts,
		reports:   reports,
		users:     users,
		publisher: publisher,
		mailer:    mailer,
	}
}

// requireAdmin verifies the caller holds the admin flag in storage.
func (s *ModerationService) requireAdmin(ctx context.Context, adminID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, adminID)
	if err != nil {
		return apperror.ErrForbidden
	}
	if !user.IsAdmin || !user.IsActive {
		return apperror.ErrForbidden
	}
	return nil
}

// ApprovePost moves a pending post to approved.
func (s *ModerationService) ApprovePost(ctx context.Context, adminID, postID uuid.UUID) error {
	return s.transitionPost(ctx, adminID, postID,
		models.PostStatusPending, models.PostStatusApproved, models.EventPostApproved, "approved", true)
}

// RejectPost moves a pending post to rejected.
func (s *ModerationService) RejectPost(ctx context.Context, adminID, postID uuid.UUID) error {
	return s.transitionPost(ctx, adminID, postID,
		models.PostStatusPending, models.PostStatusRejected, models.EventPostRejected, "rejected", true)
}

// HidePost is the moderation-only removal of an approved post,
// distinct from the owner's close/delete.
func (s *ModerationService) HidePost(ctx context.Context, adminID, postID uuid.UUID) error {
	return s.transitionPost(ctx, adminID, postID,
		models.PostStatusApproved, models.PostStatusHidden, models.EventPostHidden, "removed", false)
}

// DismissReport terminal-transitions a pending report with no action.
func (s *ModerationService) DismissReport(ctx context.Context, adminID, reportID uuid.UUID) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}

	ok, err := s.reports.Resolve(ctx, reportID, adminID, models.ReportStatusDismissed)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.New(apperror.ErrCodeConflict, "report is not pending")
	}

	s.adjustCounts(0, -1)
	return nil
}

// ReviewReportWithAction marks a report reviewed and, when it targets
// a post, hides that post. The report transition is the durable
// outcome; a post that already left the approved state does not undo
// it.
func (s *ModerationService) ReviewReportWithAction(ctx context.Context, adminID, reportID uuid.UUID) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}

	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return mapStorageErr(err)
	}
	if report.Status != models.ReportStatusPending {
		return apperror.New(apperror.ErrCodeConflict, "report is not pending")
	}

	ok, err := s.reports.Resolve(ctx, reportID, adminID, models.ReportStatusReviewed)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.New(apperror.ErrCodeConflict, "report is not pending")
	}
	s.adjustCounts(0, -1)

	if report.TargetType == models.ReportTargetPost {
		if err := s.hideReportedPost(ctx, report.TargetID); err != nil && logger.Log != nil {
			logger.Log.WithError(err).WithField("post_id", report.TargetID).
				Warn("moderation service: reported post not hidden")
		}
	}

	return nil
}

// ListPendingPosts returns the post moderation queue.
func (s *ModerationService) ListPendingPosts(ctx context.Context, adminID uuid.UUID, limit, offset int) ([]models.Post, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.posts.ListByStatus(ctx, models.PostStatusPending, limit, offset)
}

// ListPendingReports returns the report moderation queue.
func (s *ModerationService) ListPendingReports(ctx context.Context, adminID uuid.UUID, limit, offset int) ([]models.Report, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.reports.ListPending(ctx, limit, offset)
}

// Counts returns the pending badges, seeding them from storage on
// first use.
func (s *ModerationService) Counts(ctx context.Context, adminID uuid.UUID) (PendingCounts, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return PendingCounts{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seeded {
		posts, err := s.posts.CountByStatus(ctx, models.PostStatusPending)
		if err != nil {
			return PendingCounts{}, err
		}
		reports, err := s.reports.CountPending(ctx)
		if err != nil {
			return PendingCounts{}, err
		}
		s.counts = PendingCounts{Posts: posts, Reports: reports}
		s.seeded = true
	}

	return s.counts, nil
}

func (s *ModerationService) transitionPost(ctx context.Context, adminID, postID uuid.UUID, from, to, event, outcome string, countsPending bool) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return mapStorageErr(err)
	}
	if post.Status != from {
		return apperror.New(apperror.ErrCodeConflict, "post is not in a state that allows this transition")
	}

	ok, err := s.posts.UpdateStatus(ctx, postID, from, to)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.New(apperror.ErrCodeConflict, "post state changed, retry")
	}

	if countsPending {
		s.adjustCounts(-1, 0)
	}

	// Notifications are fire-and-forget; the transition above is the
	// durable source of truth and is never rolled back.
	if s.publisher != nil {
		if err := s.publisher.BroadcastToUser(post.OwnerID, event, post); err != nil && logger.Log != nil {
			logger.Log.WithError(err).Warn("moderation service: realtime publish failed")
		}
	}
	if s.mailer != nil {
		ownerID, title := post.OwnerID, post.Title
		goroutine.SafeGoWithContext(context.Background(), func(ctx context.Context) {
			s.mailer.SendPostModerated(ctx, ownerID, title, outcome)
		})
	}

	return nil
}

// hideReportedPost hides the target of an actioned report when it is
// still visible.
func (s *ModerationService) hideReportedPost(ctx context.Context, postID uuid.UUID) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	switch post.Status {
	case models.PostStatusApproved:
		_, err = s.posts.UpdateStatus(ctx, postID, models.PostStatusApproved, models.PostStatusHidden)
	case models.PostStatusPending:
		_, err = s.posts.UpdateStatus(ctx, postID, models.PostStatusPending, models.PostStatusHidden)
	}
	if err != nil {
		return err
	}

	if s.mailer != nil {
		ownerID, title := post.OwnerID, post.Title
		goroutine.SafeGoWithContext(context.Background(), func(ctx context.Context) {
			s.mailer.SendPostModerated(ctx, ownerID, title, "removed")
		})
	}
	return nil
}

func (s *ModerationService) adjustCounts(posts, reports int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seeded {
		return
	}
	s.counts.Posts += posts
	s.counts.Reports += reports
	if s.counts.Posts < 0 {
		s.counts.Posts = 0
	}
	if s.counts.Reports < 0 {
		s.counts.Reports = 0
	}
}
