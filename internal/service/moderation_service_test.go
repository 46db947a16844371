package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/commonapp/common-backend/internal/models"
	"github.com/commonapp/common-backend/internal/pkg/apperror"
	"github.com/commonapp/common-backend/internal/repository"
)

type mockModerationPostRepo struct {
	mock.Mock
}

func (m *mockModerationPostRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *mockModerationPostRepo) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Post, error) {
	args := m.Called(ctx, status, limit, offset)
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *mockModerationPostRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *mockModerationPostRepo) CountByStatus(ctx context.Context, status string) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

type mockModerationReportRepo struct {
	mock.Mock
}

func (m *mockModerationReportRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func (m *mockModerationReportRepo) ListPending(ctx context.Context, limit, offset int) ([]models.Report, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Report), args.Error(1)
}

func (m *mockModerationReportRepo) Resolve(ctx context.Context, id, reviewerID uuid.UUID, status string) (bool, error) {
	args := m.Called(ctx, id, reviewerID, status)
	return args.Bool(0), args.Error(1)
}

func (m *mockModerationReportRepo) CountPending(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockAdminChecker struct {
	mock.Mock
}

func (m *mockAdminChecker) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func adminUser(id uuid.UUID) *models.User {
	return &models.User{ID: id, IsAdmin: true, IsActive: true}
}

func newModerationFixture() (*mockModerationPostRepo, *mockModerationReportRepo, *mockAdminChecker, *ModerationService) {
	posts := new(mockModerationPostRepo)
	reports := new(mockModerationReportRepo)
	users := new(mockAdminChecker)
	svc := NewModerationService(posts, reports, users, nil, nil)
	return posts, reports, users, svc
}

func TestModerationService_ApprovePost(t *testing.T) {
	posts, _, users, svc := newModerationFixture()
	ctx := context.Background()

	adminID := uuid.New()
	post := &models.Post{ID: uuid.New(), OwnerID: uuid.New(), Status: models.PostStatusPending}

	users.On("GetByID", ctx, adminID).Return(adminUser(adminID), nil)
	posts.On("GetByID", ctx, post.ID).Return(post, nil)
	posts.On("UpdateStatus", ctx, post.ID, models.PostStatusPending, models.PostStatusApproved).Return(true, nil)

	assert.NoError(t, svc.ApprovePost(ctx, adminID, post.ID))
	posts.AssertExpectations(t)
}

func TestModerationService_RejectPost(t *testing.T) {
	posts, _, users, svc := newModerationFixture()
	ctx := context.Background()

	adminID := uuid.New()
	post := &models.Post{ID: uuid.New(), OwnerID: uuid.New(), Status: models.PostStatusPending}

	users.On("GetByID", ctx, adminID).Return(adminUser(adminID), nil)
	posts.On("GetByID", ctx, post.ID).Return(post, nil)
	posts.On("UpdateStatus", ctx, post.ID, models.PostStatusPending, models.PostStatusRejected).Return(true, nil)

	assert.NoError(t, svc.RejectPost(ctx, adminID, post.ID))
}

func TestModerationService_HidePost_RequiresApproved(t *testing.T) {
	posts, _, users, svc := newModerationFixture()
	ctx := context.Background()

	adminID := uuid.New()
	post := &models.Post{ID: uuid.New(), Status: models.PostStatusPending}

	users.On("GetByID", ctx, adminID).Return(adminUser(adminID), nil)
	posts.On("GetByID", ctx, post.ID).Return(post, nil)

	err := svc.HidePost(ctx, adminID, post.ID)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	posts.AssertNotCalled(t, "UpdateStatus", ctx, post.ID, mock.Anything, mock.Anything)
}

func TestModerationService_ApprovePost_AlreadyApprovedConflicts(t *testing.T) {
	posts, _, users, svc := newModerationFixture()
	ctx := context.Background()

	adminID := uuid.New()
	post := &models.Post{ID: uuid.New(), Status: models.PostStatusApproved}

	users.On("GetByID", ctx, adminID).Return(adminUser(adminID), nil)
	posts.On("GetByID", ctx, post.ID).Return(post, nil)

	err := svc.ApprovePost(ctx, adminID, post.ID)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestModerationService_NonAdminForbidden(t *testing.T) {
	posts, _, users, svc := newModerationFixture()
	ctx := context.Background()

	callerID := uuid.New()
	users.On("GetByID", ctx, callerID).Return(&models.User{ID: callerID, IsAdmin: false, IsActive: true}, nil)

	err := svc.ApprovePost(ctx, callerID, uuid.New())

	assert.ErrorIs(t, err, apperror.ErrForbidden)
	posts.AssertNotCalled(t, "GetByID", ctx, mock.Anything)
}

func TestModerationService_DeactivatedAdminForbidden(t *testing.T) {
	_, _, users, svc := newModerationFixture()
	ctx := context.Background()

	callerID := uuid.New()
	// The JWT claim may still say admin; storage is authoritative.
	users.On("GetByID", ctx, callerID).Return(&models.User{ID: callerID, IsAdmin: true, IsActive: false}, nil)

	err := svc.ApprovePost(ctx, callerID, uuid.New())

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestModerationService_DismissReport(t *testing.T) {
	_, reports, users, svc := newModerationFixture()
	ctx := context.Background()

	adminID := uuid.New()
	reportID := uuid.New()

	users.On("GetByID", ctx, adminID).Return(adminUser(adminID), nil)
	reports.On("Resolve", ctx, reportID, adminID, models.ReportStatusDismissed).Return(true, nil)

	assert.NoError(t, svc.DismissReport(ctx, adminID, reportID))
}

func TestModerationService_DismissReport_NotPendingConflicts(t *testing.T) {
	_, reports, users, svc := newModerationFixture()
	ctx := context.Background()

	adminID := uuid.New()
	reportID := uuid.New()

	users.On("GetByID", ctx, adminID).Return(adminUser(adminID), nil)
	reports.On("Resolve", ctx, reportID, adminID, models.ReportStatusDismissed).Return(false, nil)

	err := svc.DismissReport(ctx, adminID, reportID)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestModerationService_ReviewReport_HidesReportedPost(t *testing.T) {
	posts, reports, users, svc := newModerationFixture()
	ctx := context.Background()

	adminID := uuid.New()
	post := &models.Post{ID: uuid.New(), OwnerID: uuid.New(), Status: models.PostStatusApproved}
	report := &models.Report{
		ID:         uuid.New(),
		TargetType: models.ReportTargetPost,
		TargetID:   post.ID,
		Status:     models.ReportStatusPending,
	}

	users.On("GetByID", ctx, adminID).Return(adminUser(adminID), nil)
	reports.On("GetByID", ctx, report.ID).Return(report, nil)
	reports.On("Resolve", ctx, report.ID, adminID, models.ReportStatusReviewed).Return(true, nil)
	posts.On("GetByID", ctx, post.ID).Return(post, nil)
	posts.On("UpdateStatus", ctx, post.ID, models.PostStatusApproved, models.PostStatusHidden).Return(true, nil)

	assert.NoError(t, svc.ReviewReportWithAction(ctx, adminID, report.ID))
	posts.AssertExpectations(t)
}

func TestModerationService_ReviewReport_ThreadTargetLeavesPostsAlone(t *testing.T) {
	posts, reports, users, svc := newModerationFixture()
	ctx := context.Background()

	adminID := uuid.New()
	report := &models.Report{
		ID:         uuid.New(),
		TargetType: models.ReportTargetThread,
		TargetID:   uuid.New(),
		Status:     models.ReportStatusPending,
	}

	users.On("GetByID", ctx, adminID).Return(adminUser(adminID), nil)
	reports.On("GetByID", ctx, report.ID).Return(report, nil)
	reports.On("Resolve", ctx, report.ID, adminID, models.ReportStatusReviewed).Return(true, nil)

	assert.NoError(t, svc.ReviewReportWithAction(ctx, adminID, report.ID))
	posts.AssertNotCalled(t, "GetByID", ctx, mock.Anything)
}

func TestModerationService_Counts_SeedsThenDecrements(t *testing.T) {
	posts, reports, users, svc := newModerationFixture()
	ctx := context.Background()

	adminID := uuid.New()
	users.On("GetByID", ctx, adminID).Return(adminUser(adminID), nil)
	posts.On("CountByStatus", ctx, models.PostStatusPending).Return(3, nil)
	reports.On("CountPending", ctx).Return(2, nil)

	counts, err := svc.Counts(ctx, adminID)
	assert.NoError(t, err)
	assert.Equal(t, 3, counts.Posts)
	assert.Equal(t, 2, counts.Reports)

	// An approval decrements the pending-post badge without re-querying.
	post := &models.Post{ID: uuid.New(), Status: models.PostStatusPending}
	posts.On("GetByID", ctx, post.ID).Return(post, nil)
	posts.On("UpdateStatus", ctx, post.ID, models.PostStatusPending, models.PostStatusApproved).Return(true, nil)
	assert.NoError(t, svc.ApprovePost(ctx, adminID, post.ID))

	counts, err = svc.Counts(ctx, adminID)
	assert.NoError(t, err)
	assert.Equal(t, 2, counts.Posts)
	assert.Equal(t, 2, counts.Reports)

	// Counts are seeded once; the storage counters were read once.
	posts.AssertNumberOfCalls(t, "CountByStatus", 1)
}

func TestModerationService_ApprovePost_MissingPostIsNotFound(t *testing.T) {
	posts, _, users, svc := newModerationFixture()
	ctx := context.Background()

	adminID := uuid.New()
	postID := uuid.New()

	users.On("GetByID", ctx, adminID).Return(adminUser(adminID), nil)
	posts.On("GetByID", ctx, postID).Return(nil, repository.ErrPostNotFound)

	err := svc.ApprovePost(ctx, adminID, postID)

	assert.ErrorIs(t, err, apperror.ErrPostNotFound)
	assert.True(t, apperror.IsNotFound(err))
}

func TestModerationService_ReviewReport_MissingReportIsNotFound(t *testing.T) {
	_, reports, users, svc := newModerationFixture()
	ctx := context.Background()

	adminID := uuid.New()
	reportID := uuid.New()

	users.On("GetByID", ctx, adminID).Return(adminUser(adminID), nil)
	reports.On("GetByID", ctx, reportID).Return(nil, repository.ErrReportNotFound)

	err := svc.ReviewReportWithAction(ctx, adminID, reportID)

	assert.True(t, apperror.IsNotFound(err))
}
