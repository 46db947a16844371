package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/commonapp/common-backend/internal/logger"
	"github.com/commonapp/common-backend/internal/models"
)

// EmailRecipientLookup resolves a user id to an address and the
// notification opt-in.
type EmailRecipientLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// EmailService sends transactional notices over SMTP. Every send is
// fire-and-forget: failures are logged and never surfaced to the
// operation that triggered them.
type EmailService struct {
	dialer *gomail.Dialer
	from   string
	users  EmailRecipientLookup
}

// NewEmailService creates the service. With an empty host the service
// stays in no-op mode, which keeps development setups mail-free.
func NewEmailService(host string, port int, username, password, from string, users EmailRecipientLookup) *EmailService {
	var dialer *gomail.Dialer
	if host != "" {
		dialer = gomail.NewDialer(host, port, username, password)
	}
	return &EmailService{
		dialer: dialer,
		from:   from,
		users:  users,
	}
}

// SendPostModerated notifies a post owner about a moderation outcome.
func (s *EmailService) SendPostModerated(ctx context.Context, ownerID uuid.UUID, postTitle, outcome string) {
	subject := fmt.Sprintf("Your post %q was %s", postTitle, outcome)
	body := fmt.Sprintf("<p>Your post <strong>%s</strong> was %s by a moderator.</p>", postTitle, outcome)
	s.send(ctx, ownerID, subject, body)
}

// SendNewInterest notifies a post owner that someone is interested.
func (s *EmailService) SendNewInterest(ctx context.Context, recipientID uuid.UUID, postTitle string) {
	subject := fmt.Sprintf("Someone is interested in %q", postTitle)
	body := fmt.Sprintf("<p>Someone responded to your post <strong>%s</strong>. Open the app to chat.</p>", postTitle)
	s.send(ctx, recipientID, subject, body)
}

// SendNewMessage notifies a thread participant about a new message.
func (s *EmailService) SendNewMessage(ctx context.Context, recipientID uuid.UUID, postTitle string) {
	subject := fmt.Sprintf("New message about %q", postTitle)
	body := fmt.Sprintf("<p>You have a new message about <strong>%s</strong>.</p>", postTitle)
	s.send(ctx, recipientID, subject, body)
}

// send resolves the recipient, honors the opt-out and dispatches.
func (s *EmailService) send(ctx context.Context, userID uuid.UUID, subject, htmlBody string) {
	if s.dialer == nil {
		return
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logSendError(err, userID)
		return
	}
	profile, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		s.logSendError(err, userID)
		return
	}
	if !profile.EmailOnEvents {
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logSendError(err, userID)
	}
}

func (s *EmailService) logSendError(err error, userID uuid.UUID) {
	if logger.Log != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Warn("email service: send failed")
	}
}
