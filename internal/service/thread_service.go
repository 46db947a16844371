package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/commonapp/common-backend/internal/goroutine"
	"github.com/commonapp/common-backend/internal/logger"
	"github.com/commonapp/common-backend/internal/models"
	"github.com/commonapp/common-backend/internal/pkg/apperror"
	"github.com/commonapp/common-backend/internal/realtime"
	"github.com/commonapp/common-backend/internal/repository"
	"github.com/commonapp/common-backend/internal/validation"
)

// closeGraceWindow keeps a thread writable for a fixed period after
// its post expires.
const closeGraceWindow = 24 * time.Hour

// ThreadStorage describes what ThreadService needs from the thread
// tables.
type ThreadStorage interface {
	InsertIfAbsent(ctx context.Context, thread *models.Thread) (bool, error)
	GetByPostAndRespondent(ctx context.Context, postID, respondentID uuid.UUID) (*models.Thread, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Thread, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID) ([]repository.ThreadWithPost, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, threadID uuid.UUID, limit, offset int) ([]models.Message, error)
	SetClosedAt(ctx context.Context, threadID uuid.UUID) error
}

// PostStorage is the post-side dependency of ThreadService.
type PostStorage interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	IncrementInterested(ctx context.Context, id uuid.UUID) error
}

// EventPublisher pushes a realtime event to one user. *ws.Hub
// implements it.
type EventPublisher interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// InterestMailer sends the best-effort email notices that accompany
// thread activity.
type InterestMailer interface {
	SendNewInterest(ctx context.Context, recipientID uuid.UUID, postTitle string)
	SendNewMessage(ctx context.Context, recipientID uuid.UUID, postTitle string)
}

// ChangeStream receives committed row inserts so live thread
// subscriptions can fold them in. *realtime.Feed implements it.
type ChangeStream interface {
	PublishInsert(table string, row any)
}

// ThreadService implements the interest/messaging core: idempotent
// thread creation, message append and the derived closed state.
type ThreadService struct {
	threads   ThreadStorage
	posts     PostStorage
	publisher EventPublisher
	mailer    InterestMailer
	changes   ChangeStream
}

// NewThreadService creates the service. publisher and mailer may be
// nil in tests.
func NewThreadService(threads ThreadStorage, posts PostStorage, publisher EventPublisher, mailer InterestMailer) *ThreadService {
	return &ThreadService{
		threads:   threads,
		posts:     posts,
		publisher: publisher,
		mailer:    mailer,
	}
}

// SetChangeStream attaches the in-process change feed. Optional: when
// unset, inserts are simply not streamed.
func (s *ThreadService) SetChangeStream(cs ChangeStream) {
	s.changes = cs
}

// FindOrCreateThread returns the unique thread for (post, respondent),
// creating it if absent. The interested counter is bumped only on a
// true creation; a failed bump after the thread row committed is
// logged and swallowed, so the counter may under-count but the
// operation never half-fails.
func (s *ThreadService) FindOrCreateThread(ctx context.Context, postID, respondentID uuid.UUID) (*models.Thread, bool, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, false, mapStorageErr(err)
	}

	if post.OwnerID == respondentID {
		return nil, false, apperror.New(apperror.ErrCodeValidation, "cannot respond to your own post")
	}
	if post.Status != models.PostStatusApproved {
		return nil, false, apperror.New(apperror.ErrCodeConflict, "post is not open for responses")
	}

	thread := &models.Thread{
		PostID:       postID,
		OwnerID:      post.OwnerID,
		RespondentID: respondentID,
		CreatedBy:    respondentID,
	}

	created, err := s.threads.InsertIfAbsent(ctx, thread)
	if err != nil {
		return nil, false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "thread creation failed")
	}

	if !created {
		existing, err := s.threads.GetByPostAndRespondent(ctx, postID, respondentID)
		if err != nil {
			return nil, false, mapStorageErr(err)
		}
		return existing, false, nil
	}

	// Best-effort from here on: the thread row is committed.
	if err := s.posts.IncrementInterested(ctx, postID); err != nil && logger.Log != nil {
		logger.Log.WithError(err).WithField("post_id", postID).
			Warn("thread service: interested counter not incremented")
	}

	if s.changes != nil {
		s.changes.PublishInsert(realtime.TableThreads, *thread)
	}

	s.notify(post.OwnerID, models.EventNewThread, thread, func(ctx context.Context) {
		s.mailer.SendNewInterest(ctx, post.OwnerID, post.Title)
	})

	return thread, true, nil
}

// GetThread returns a thread after checking the caller participates.
func (s *ThreadService) GetThread(ctx context.Context, threadID, userID uuid.UUID) (*models.Thread, error) {
	thread, err := s.threads.GetByID(ctx, threadID)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	if !thread.HasParticipant(userID) {
		return nil, apperror.ErrForbidden
	}
	return thread, nil
}

// AppendMessage stores a message in a thread. Content must be
// non-empty after trimming; writes to a closed thread are rejected.
func (s *ThreadService) AppendMessage(ctx context.Context, threadID, senderID uuid.UUID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ErrEmptyMessage
	}
	if err := validation.ValidateMessageContent(content); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	thread, err := s.threads.GetByID(ctx, threadID)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	if !thread.HasParticipant(senderID) {
		return nil, apperror.ErrForbidden
	}

	post, err := s.posts.GetByID(ctx, thread.PostID)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	if IsThreadClosed(thread, post.ExpiresAt, time.Now()) {
		return nil, apperror.ErrThreadClosed
	}

	msg := &models.Message{
		ThreadID: threadID,
		SenderID: senderID,
		Content:  content,
	}
	if err := s.threads.CreateMessage(ctx, msg); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "message not stored")
	}

	if s.changes != nil {
		s.changes.PublishInsert(realtime.TableMessages, *msg)
	}

	recipient := thread.OtherParticipant(senderID)
	s.notify(recipient, models.EventNewMessage, msg, func(ctx context.Context) {
		s.mailer.SendNewMessage(ctx, recipient, post.Title)
	})

	return msg, nil
}

// ThreadClosed reports a thread's derived closed state to one of its
// participants. The post row is read directly; a hidden or closed post
// still drives the expiry of its threads.
func (s *ThreadService) ThreadClosed(ctx context.Context, threadID, userID uuid.UUID) (bool, error) {
	thread, err := s.GetThread(ctx, threadID, userID)
	if err != nil {
		return false, err
	}

	var expiresAt *time.Time
	if post, err := s.posts.GetByID(ctx, thread.PostID); err == nil {
		expiresAt = post.ExpiresAt
	}
	return IsThreadClosed(thread, expiresAt, time.Now()), nil
}

// ListMessages returns a thread's messages in creation order.
func (s *ThreadService) ListMessages(ctx context.Context, threadID, userID uuid.UUID, limit, offset int) ([]models.Message, error) {
	if _, err := s.GetThread(ctx, threadID, userID); err != nil {
		return nil, err
	}
	return s.threads.ListMessages(ctx, threadID, limit, offset)
}

// ListThreadsForUser returns a user's threads newest-created first,
// with open threads partitioned before closed ones. The partition is
// stable: ordering within each part stays by creation time.
func (s *ThreadService) ListThreadsForUser(ctx context.Context, userID uuid.UUID) ([]models.ThreadView, error) {
	rows, err := s.threads.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	views := make([]models.ThreadView, len(rows))
	for i, row := range rows {
		views[i] = models.ThreadView{
			Thread:    row.Thread,
			Closed:    IsThreadClosed(&row.Thread, row.PostExpiresAt, now),
			PostTitle: row.PostTitle,
		}
	}

	sort.SliceStable(views, func(i, j int) bool {
		return !views[i].Closed && views[j].Closed
	})

	return views, nil
}

// CloseThread records an explicit close on behalf of a participant.
func (s *ThreadService) CloseThread(ctx context.Context, threadID, userID uuid.UUID) error {
	thread, err := s.threads.GetByID(ctx, threadID)
	if err != nil {
		return mapStorageErr(err)
	}
	if !thread.HasParticipant(userID) {
		return apperror.ErrForbidden
	}
	return s.threads.SetClosedAt(ctx, threadID)
}

// IsThreadClosed derives the closed state: an explicit closed_at wins,
// otherwise the thread closes once the post's expiry plus the grace
// window has passed.
func IsThreadClosed(thread *models.Thread, postExpiresAt *time.Time, now time.Time) bool {
	if thread.ClosedAt != nil {
		return true
	}
	if postExpiresAt == nil {
		return false
	}
	return now.After(postExpiresAt.Add(closeGraceWindow))
}

// notify fans an event out over the hub and fires the email notice,
// both best-effort and never blocking the caller.
func (s *ThreadService) notify(userID uuid.UUID, event string, data any, email func(context.Context)) {
	if s.publisher != nil {
		if err := s.publisher.BroadcastToUser(userID, event, data); err != nil && logger.Log != nil {
			logger.Log.WithError(err).Warn("thread service: realtime publish failed")
		}
	}
	if s.mailer != nil {
		goroutine.SafeGoWithContext(context.Background(), email)
	}
}
