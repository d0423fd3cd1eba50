package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/afterschool-api/pkg/jobs"
	"github.com/noah-isme/afterschool-api/pkg/mailer"
	appErrors "github.com/noah-isme/afterschool-api/pkg/errors"
)

const (
	// VerificationCodeLength is the number of characters in a signup code.
	VerificationCodeLength = 7
	verificationAlphabet   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// JobVerificationMail is the mail queue job type for signup codes.
	JobVerificationMail = "verification_mail"
)

// VerificationStore keeps the current code per email.
type VerificationStore interface {
	Save(ctx context.Context, email, code string, ttl time.Duration) error
	Get(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// VerificationMail is the payload of a JobVerificationMail job.
type VerificationMail struct {
	Email string
	Code  string
}

// VerificationService issues and checks signup codes. Checking a code does
// not consume it, so the same code is accepted again at signup.
type VerificationService struct {
	store   VerificationStore
	queue   jobEnqueuer
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// NewVerificationService constructs the service. A zero ttl keeps codes until
// they are replaced or expired explicitly.
func NewVerificationService(store VerificationStore, queue jobEnqueuer, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *VerificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationService{store: store, queue: queue, ttl: ttl, metrics: metrics, logger: logger}
}

// Issue generates a fresh code for email, replacing any earlier one, and
// queues the mail that delivers it.
func (s *VerificationService) Issue(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	code, err := generateVerificationCode()
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate verification code")
	}
	if err := s.store.Save(ctx, email, code, s.ttl); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store verification code")
	}

	if s.queue != nil {
		job := jobs.Job{ID: uuid.NewString(), Type: JobVerificationMail, Payload: VerificationMail{Email: email, Code: code}}
		if err := s.queue.Enqueue(job); err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue verification mail")
		}
	}

	s.metrics.RecordVerificationIssued()
	s.logger.Info("verification code issued", zap.String("email", email), zap.Duration("ttl", s.ttl))
	s.logger.Debug("verification code value", zap.String("email", email), zap.String("code", code))
	return code, nil
}

// Verify reports whether code matches the stored code for email. An absent or
// expired entry is a mismatch, not an error.
func (s *VerificationService) Verify(ctx context.Context, email, code string) (bool, error) {
	if code == "" {
		return false, nil
	}
	stored, err := s.store.Get(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load verification code")
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(code)) == 1, nil
}

// Expire removes the code for email.
func (s *VerificationService) Expire(ctx context.Context, email string) error {
	if err := s.store.Delete(ctx, normalizeEmail(email)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to expire verification code")
	}
	return nil
}

// NewVerificationMailHandler returns the queue handler that mails codes.
func NewVerificationMailHandler(m mailer.Mailer) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(VerificationMail)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
		}
		return m.Send(ctx, mailer.Message{
			To:      payload.Email,
			Subject: "[After-school] Signup verification code",
			Body:    fmt.Sprintf("Your verification code is %s\n\nEnter it on the signup page to continue.", payload.Code),
		})
	}
}

func generateVerificationCode() (string, error) {
	max := big.NewInt(int64(len(verificationAlphabet)))
	buf := make([]byte, VerificationCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = verificationAlphabet[n.Int64()]
	}
	return string(buf), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
