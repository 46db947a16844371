package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/commonapp/common-backend/internal/models"
	"github.com/commonapp/common-backend/internal/pkg/apperror"
	"github.com/commonapp/common-backend/internal/repository"
	"github.com/commonapp/common-backend/internal/validation"
)

type mockThreadRepo struct {
	mock.Mock
}

func (m *mockThreadRepo) InsertIfAbsent(ctx context.Context, thread *models.Thread) (bool, error) {
	args := m.Called(ctx, thread)
	if args.Bool(0) {
		thread.ID = uuid.New()
		thread.CreatedAt = time.Now()
	}
	return args.Bool(0), args.Error(1)
}

func (m *mockThreadRepo) GetByPostAndRespondent(ctx context.Context, postID, respondentID uuid.UUID) (*models.Thread, error) {
	args := m.Called(ctx, postID, respondentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Thread), args.Error(1)
}

func (m *mockThreadRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Thread, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Thread), args.Error(1)
}

func (m *mockThreadRepo) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]repository.ThreadWithPost, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]repository.ThreadWithPost), args.Error(1)
}

func (m *mockThreadRepo) CreateMessage(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	if args.Error(0) == nil {
		msg.ID = uuid.New()
		msg.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *mockThreadRepo) ListMessages(ctx context.Context, threadID uuid.UUID, limit, offset int) ([]models.Message, error) {
	args := m.Called(ctx, threadID, limit, offset)
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *mockThreadRepo) SetClosedAt(ctx context.Context, threadID uuid.UUID) error {
	args := m.Called(ctx, threadID)
	return args.Error(0)
}

type mockPostRepoForThreads struct {
	mock.Mock
}

func (m *mockPostRepoForThreads) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *mockPostRepoForThreads) IncrementInterested(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func approvedPost(ownerID uuid.UUID) *models.Post {
	return &models.Post{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Title:   "Pickup soccer at the park",
		Status:  models.PostStatusApproved,
	}
}

func TestThreadService_FindOrCreateThread_CreatesAndIncrements(t *testing.T) {
	threads := new(mockThreadRepo)
	posts := new(mockPostRepoForThreads)
	svc := NewThreadService(threads, posts, nil, nil)
	ctx := context.Background()

	ownerID := uuid.New()
	respondentID := uuid.New()
	post := approvedPost(ownerID)

	posts.On("GetByID", ctx, post.ID).Return(post, nil)
	threads.On("InsertIfAbsent", ctx, mock.AnythingOfType("*models.Thread")).Return(true, nil)
	posts.On("IncrementInterested", ctx, post.ID).Return(nil)

	thread, created, err := svc.FindOrCreateThread(ctx, post.ID, respondentID)

	assert.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, ownerID, thread.OwnerID)
	assert.Equal(t, respondentID, thread.RespondentID)
	assert.Equal(t, respondentID, thread.CreatedBy)
	posts.AssertNumberOfCalls(t, "IncrementInterested", 1)
}

func TestThreadService_FindOrCreateThread_SecondCallReturnsExisting(t *testing.T) {
	threads := new(mockThreadRepo)
	posts := new(mockPostRepoForThreads)
	svc := NewThreadService(threads, posts, nil, nil)
	ctx := context.Background()

	ownerID := uuid.New()
	respondentID := uuid.New()
	post := approvedPost(ownerID)

	existing := &models.Thread{
		ID:           uuid.New(),
		PostID:       post.ID,
		OwnerID:      ownerID,
		RespondentID: respondentID,
	}

	posts.On("GetByID", ctx, post.ID).Return(post, nil)
	threads.On("InsertIfAbsent", ctx, mock.AnythingOfType("*models.Thread")).Return(false, nil)
	threads.On("GetByPostAndRespondent", ctx, post.ID, respondentID).Return(existing, nil)

	thread, created, err := svc.FindOrCreateThread(ctx, post.ID, respondentID)

	assert.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, thread.ID)
	// The counter moves only on a true creation.
	posts.AssertNotCalled(t, "IncrementInterested", ctx, post.ID)
}

func TestThreadService_FindOrCreateThread_OwnPostRejected(t *testing.T) {
	threads := new(mockThreadRepo)
	posts := new(mockPostRepoForThreads)
	svc := NewThreadService(threads, posts, nil, nil)
	ctx := context.Background()

	ownerID := uuid.New()
	post := approvedPost(ownerID)

	posts.On("GetByID", ctx, post.ID).Return(post, nil)

	_, _, err := svc.FindOrCreateThread(ctx, post.ID, ownerID)

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	threads.AssertNotCalled(t, "InsertIfAbsent", ctx, mock.Anything)
}

func TestThreadService_FindOrCreateThread_PendingPostRejected(t *testing.T) {
	threads := new(mockThreadRepo)
	posts := new(mockPostRepoForThreads)
	svc := NewThreadService(threads, posts, nil, nil)
	ctx := context.Background()

	post := approvedPost(uuid.New())
	post.Status = models.PostStatusPending

	posts.On("GetByID", ctx, post.ID).Return(post, nil)

	_, _, err := svc.FindOrCreateThread(ctx, post.ID, uuid.New())

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestThreadService_FindOrCreateThread_CounterFailureIsSwallowed(t *testing.T) {
	threads := new(mockThreadRepo)
	posts := new(mockPostRepoForThreads)
	svc := NewThreadService(threads, posts, nil, nil)
	ctx := context.Background()

	post := approvedPost(uuid.New())
	respondentID := uuid.New()

	posts.On("GetByID", ctx, post.ID).Return(post, nil)
	threads.On("InsertIfAbsent", ctx, mock.AnythingOfType("*models.Thread")).Return(true, nil)
	posts.On("IncrementInterested", ctx, post.ID).Return(assert.AnError)

	thread, created, err := svc.FindOrCreateThread(ctx, post.ID, respondentID)

	// The thread row committed; a failed counter bump must not fail
	// the operation.
	assert.NoError(t, err)
	assert.True(t, created)
	assert.NotNil(t, thread)
}

func TestThreadService_AppendMessage_TrimsContent(t *testing.T) {
	threads := new(mockThreadRepo)
	posts := new(mockPostRepoForThreads)
	svc := NewThreadService(threads, posts, nil, nil)
	ctx := context.Background()

	senderID := uuid.New()
	post := approvedPost(uuid.New())
	thread := &models.Thread{
		ID:           uuid.New(),
		PostID:       post.ID,
		OwnerID:      post.OwnerID,
		RespondentID: senderID,
	}

	threads.On("GetByID", ctx, thread.ID).Return(thread, nil)
	posts.On("GetByID", ctx, post.ID).Return(post, nil)
	threads.On("CreateMessage", ctx, mock.AnythingOfType("*models.Message")).Return(nil)

	msg, err := svc.AppendMessage(ctx, thread.ID, senderID, "  see you there  ")

	assert.NoError(t, err)
	assert.Equal(t, "see you there", msg.Content)
}

func TestThreadService_AppendMessage_EmptyContentRejected(t *testing.T) {
	threads := new(mockThreadRepo)
	posts := new(mockPostRepoForThreads)
	svc := NewThreadService(threads, posts, nil, nil)
	ctx := context.Background()

	_, err := svc.AppendMessage(ctx, uuid.New(), uuid.New(), "   \n\t ")

	assert.ErrorIs(t, err, apperror.ErrEmptyMessage)
	threads.AssertNotCalled(t, "CreateMessage", ctx, mock.Anything)
}

func TestThreadService_AppendMessage_NonParticipantForbidden(t *testing.T) {
	threads := new(mockThreadRepo)
	posts := new(mockPostRepoForThreads)
	svc := NewThreadService(threads, posts, nil, nil)
	ctx := context.Background()

	thread := &models.Thread{
		ID:           uuid.New(),
		OwnerID:      uuid.New(),
		RespondentID: uuid.New(),
	}

	threads.On("GetByID", ctx, thread.ID).Return(thread, nil)

	_, err := svc.AppendMessage(ctx, thread.ID, uuid.New(), "hello")

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestThreadService_AppendMessage_ClosedThreadRejected(t *testing.T) {
	threads := new(mockThreadRepo)
	posts := new(mockPostRepoForThreads)
	svc := NewThreadService(threads, posts, nil, nil)
	ctx := context.Background()

	senderID := uuid.New()
	closedAt := time.Now().Add(-time.Hour)
	post := approvedPost(uuid.New())
	thread := &models.Thread{
		ID:           uuid.New(),
		PostID:       post.ID,
		OwnerID:      post.OwnerID,
		RespondentID: senderID,
		ClosedAt:     &closedAt,
	}

	threads.On("GetByID", ctx, thread.ID).Return(thread, nil)
	posts.On("GetByID", ctx, post.ID).Return(post, nil)

	_, err := svc.AppendMessage(ctx, thread.ID, senderID, "too late")

	assert.ErrorIs(t, err, apperror.ErrThreadClosed)
	threads.AssertNotCalled(t, "CreateMessage", ctx, mock.Anything)
}

func TestIsThreadClosed_GraceWindow(t *testing.T) {
	expiry := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	thread := &models.Thread{ID: uuid.New()}

	// Still inside the grace window.
	now := expiry.Add(23*time.Hour + 59*time.Minute)
	assert.False(t, IsThreadClosed(thread, &expiry, now))

	// Past expiry plus grace.
	now = expiry.Add(24*time.Hour + time.Minute)
	assert.True(t, IsThreadClosed(thread, &expiry, now))
}

func TestIsThreadClosed_ExplicitCloseWins(t *testing.T) {
	closedAt := time.Now()
	thread := &models.Thread{ID: uuid.New(), ClosedAt: &closedAt}

	assert.True(t, IsThreadClosed(thread, nil, time.Now()))
}

func TestIsThreadClosed_NoExpiryStaysOpen(t *testing.T) {
	thread := &models.Thread{ID: uuid.New()}

	assert.False(t, IsThreadClosed(thread, nil, time.Now().Add(365*24*time.Hour)))
}

func TestThreadService_ListThreadsForUser_OpenBeforeClosed(t *testing.T) {
	threads := new(mockThreadRepo)
	posts := new(mockPostRepoForThreads)
	svc := NewThreadService(threads, posts, nil, nil)
	ctx := context.Background()

	userID := uuid.New()
	closedAt := time.Now().Add(-time.Hour)

	closedNewest := repository.ThreadWithPost{
		Thread:    models.Thread{ID: uuid.New(), OwnerID: userID, ClosedAt: &closedAt},
		PostTitle: "closed newest",
	}
	openMiddle := repository.ThreadWithPost{
		Thread:    models.Thread{ID: uuid.New(), OwnerID: userID},
		PostTitle: "open middle",
	}
	openOldest := repository.ThreadWithPost{
		Thread:    models.Thread{ID: uuid.New(), OwnerID: userID},
		PostTitle: "open oldest",
	}

	threads.On("ListByParticipant", ctx, userID).
		Return([]repository.ThreadWithPost{closedNewest, openMiddle, openOldest}, nil)

	views, err := svc.ListThreadsForUser(ctx, userID)

	assert.NoError(t, err)
	assert.Len(t, views, 3)
	// Open threads first, each part keeping its incoming order.
	assert.Equal(t, "open middle", views[0].PostTitle)
	assert.Equal(t, "open oldest", views[1].PostTitle)
	assert.Equal(t, "closed newest", views[2].PostTitle)
	assert.True(t, views[2].Closed)
}

func TestThreadService_FindOrCreateThread_MissingPostIsNotFound(t *testing.T) {
	threads := new(mockThreadRepo)
	posts := new(mockPostRepoForThreads)
	svc := NewThreadService(threads, posts, nil, nil)
	ctx := context.Background()

	postID := uuid.New()
	posts.On("GetByID", ctx, postID).Return(nil, repository.ErrPostNotFound)

	_, _, err := svc.FindOrCreateThread(ctx, postID, uuid.New())

	assert.ErrorIs(t, err, apperror.ErrPostNotFound)
	assert.True(t, apperror.IsNotFound(err))
}

func TestThreadService_AppendMessage_MissingThreadIsNotFound(t *testing.T) {
	threads := new(mockThreadRepo)
	posts := new(mockPostRepoForThreads)
	svc := NewThreadService(threads, posts, nil, nil)
	ctx := context.Background()

	threadID := uuid.New()
	threads.On("GetByID", ctx, threadID).Return(nil, repository.ErrThreadNotFound)

	_, err := svc.AppendMessage(ctx, threadID, uuid.New(), "anyone there?")

	assert.ErrorIs(t, err, apperror.ErrThreadNotFound)
	assert.True(t, apperror.IsNotFound(err))
}

func TestThreadService_GetThread_MissingThreadIsNotFound(t *testing.T) {
	threads := new(mockThreadRepo)
	posts := new(mockPostRepoForThreads)
	svc := NewThreadService(threads, posts, nil, nil)
	ctx := context.Background()

	threadID := uuid.New()
	threads.On("GetByID", ctx, threadID).Return(nil, repository.ErrThreadNotFound)

	_, err := svc.GetThread(ctx, threadID, uuid.New())

	assert.True(t, apperror.IsNotFound(err))
}

func TestThreadService_AppendMessage_OverlongContentRejected(t *testing.T) {
	threads := new(mockThreadRepo)
	posts := new(mockPostRepoForThreads)
	svc := NewThreadService(threads, posts, nil, nil)
	ctx := context.Background()

	content := strings.Repeat("a", validation.MaxMessageLength+1)
	_, err := svc.AppendMessage(ctx, uuid.New(), uuid.New(), content)

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	threads.AssertNotCalled(t, "CreateMessage", ctx, mock.Anything)
}

func TestThreadService_ThreadClosed_SeesExpiryOfHiddenPost(t *testing.T) {
	threads := new(mockThreadRepo)
	posts := new(mockPostRepoForThreads)
	svc := NewThreadService(threads, posts, nil, nil)
	ctx := context.Background()

	userID := uuid.New()
	expiry := time.Now().Add(-48 * time.Hour)
	post := &models.Post{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		Status:    models.PostStatusHidden,
		ExpiresAt: &expiry,
	}
	thread := &models.Thread{
		ID:           uuid.New(),
		PostID:       post.ID,
		OwnerID:      post.OwnerID,
		RespondentID: userID,
	}

	threads.On("GetByID", ctx, thread.ID).Return(thread, nil)
	posts.On("GetByID", ctx, post.ID).Return(post, nil)

	closed, err := svc.ThreadClosed(ctx, thread.ID, userID)

	assert.NoError(t, err)
	assert.True(t, closed)
}

func TestThreadService_ThreadClosed_OpenForParticipant(t *testing.T) {
	threads := new(mockThreadRepo)
	posts := new(mockPostRepoForThreads)
	svc := NewThreadService(threads, posts, nil, nil)
	ctx := context.Background()

	userID := uuid.New()
	post := approvedPost(uuid.New())
	thread := &models.Thread{
		ID:           uuid.New(),
		PostID:       post.ID,
		OwnerID:      post.OwnerID,
		RespondentID: userID,
	}

	threads.On("GetByID", ctx, thread.ID).Return(thread, nil)
	posts.On("GetByID", ctx, post.ID).Return(post, nil)

	closed, err := svc.ThreadClosed(ctx, thread.ID, userID)

	assert.NoError(t, err)
	assert.False(t, closed)
}
