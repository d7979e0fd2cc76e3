package verification

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/campusboard-api/internal/application/notification"
	"github.com/campusboard-api/internal/domain"
	jwtinfra "github.com/campusboard-api/internal/infrastructure/jwt"
	"github.com/campusboard-api/internal/pkg/id"
)

// CodeLifetime is how long an issued code (and its continuation token) stays
// redeemable. Fixed, not configurable.
const CodeLifetime = 10 * time.Minute

// historyRetention is how long spent code records stay in the table after
// issuance. Longer than Window so the limiter always sees a full hour of
// history before DynamoDB TTL reaps the record.
const historyRetention = 2 * time.Hour

// DynamoDB attribute names used in partial update maps.
const (
	fieldEmailVerified      = "email_verified"
	fieldPhoneVerified      = "phone_verified"
	fieldVerificationStatus = "verification_status"
)

type Service interface {
	// Start issues a verification code for the caller's email or phone and
	// returns a continuation token for Submit / Resend.
	Start(ctx context.Context, userID string, req domain.StartVerificationRequest) (string, error)
	// Resend supersedes the pending code with a fresh one for the same
	// address and returns a new continuation token.
	Resend(ctx context.Context, req domain.ResendVerificationRequest) (string, error)
	// Submit redeems a code. On success the matching contact flag on the
	// account is set; the code can never be redeemed again.
	Submit(ctx context.Context, req domain.SubmitVerificationRequest) error
	// Review records an admin's decision on a user's identity document.
	Review(ctx context.Context, userID string, req domain.SetVerificationStatusRequest) (*domain.User, error)
}

type codeStore interface {
	Put(ctx context.Context, v *domain.VerificationCode) error
	GetLatest(ctx context.Context, address string) (*domain.VerificationCode, error)
	ListIssuedSince(ctx context.Context, address string, since int64) ([]int64, error)
	MarkUsed(ctx context.Context, address, createdAt string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type tokenProvider interface {
	SignVerification(userID, address, channel string, ttl time.Duration) (string, error)
	VerifyVerification(token string) (*jwtinfra.VerificationClaims, error)
}

type notifier interface {
	Emit(ctx context.Context, e notification.Emission)
}

type service struct {
	users    userStore
	codes    map[string]codeStore  // channel -> table
	senders  map[string]CodeSender // channel -> delivery gateway
	tokens   tokenProvider
	notifier notifier
	limiter  *IssueLimiter
}

type ServiceDeps struct {
	UserRepo    userStore
	EmailCodes  codeStore
	PhoneCodes  codeStore
	EmailSender CodeSender
	PhoneSender CodeSender
	Tokens      tokenProvider
	Notifier    notifier
	Limiter     *IssueLimiter
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users: deps.UserRepo,
		codes: map[string]codeStore{
			domain.ChannelEmail: deps.EmailCodes,
			domain.ChannelPhone: deps.PhoneCodes,
		},
		senders: map[string]CodeSender{
			domain.ChannelEmail: deps.EmailSender,
			domain.ChannelPhone: deps.PhoneSender,
		},
		tokens:   deps.Tokens,
		notifier: deps.Notifier,
		limiter:  deps.Limiter,
	}
}

func (s *service) Start(ctx context.Context, userID string, req domain.StartVerificationRequest) (string, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return "", err
	}

	var address string
	switch req.Channel {
	case domain.ChannelEmail:
		if u.EmailVerified {
			return "", fmt.Errorf("email already verified: %w", domain.ErrConflict)
		}
		address = u.Email
	case domain.ChannelPhone:
		if u.Phone == nil {
			return "", fmt.Errorf("no phone number on account: %w", domain.ErrBadRequest)
		}
		if u.PhoneVerified {
			return "", fmt.Errorf("phone already verified: %w", domain.ErrConflict)
		}
		address = *u.Phone
	default:
		return "", fmt.Errorf("unknown channel %q: %w", req.Channel, domain.ErrBadRequest)
	}

	return s.issue(ctx, userID, address, req.Channel)
}

func (s *service) Resend(ctx context.Context, req domain.ResendVerificationRequest) (string, error) {
	claims, err := s.tokens.VerifyVerification(req.Token)
	if err != nil {
		return "", fmt.Errorf("invalid verification token: %w", domain.ErrUnauthorized)
	}
	return s.issue(ctx, claims.UserID, claims.Address, claims.Channel)
}

// issue is the shared issuance path: check the per-address limits, store the
// code, then attempt delivery. A delivery failure is reported but the stored
// code stands: it supersedes prior codes and counts toward the rate window
// either way.
func (s *service) issue(ctx context.Context, userID, address, channel string) (string, error) {
	sender, ok := s.senders[channel]
	if !ok {
		return "", fmt.Errorf("unknown channel %q: %w", channel, domain.ErrBadRequest)
	}

	now := time.Now().UTC()
	stamps, err := s.codes[channel].ListIssuedSince(ctx, address, now.Add(-Window).Unix())
	if err != nil {
		return "", err
	}
	if err := s.limiter.Allow(stamps, now); err != nil {
		return "", err
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}
	v := &domain.VerificationCode{
		Address:   address,
		CreatedAt: id.New(),
		Code:      code,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(CodeLifetime).Unix(),
		IsUsed:    false,
		PurgeAt:   now.Add(historyRetention).Unix(),
	}
	if err := s.codes[channel].Put(ctx, v); err != nil {
		return "", err
	}

	token, err := s.tokens.SignVerification(userID, address, channel, CodeLifetime)
	if err != nil {
		return "", err
	}

	if err := sender.Send(ctx, address, code); err != nil {
		// The stored code stays live and redeemable; the caller gets the
		// token together with the typed delivery error.
		return token, err
	}
	return token, nil
}

func (s *service) Submit(ctx context.Context, req domain.SubmitVerificationRequest) error {
	claims, err := s.tokens.VerifyVerification(req.Token)
	if err != nil {
		return fmt.Errorf("invalid verification token: %w", domain.ErrUnauthorized)
	}
	codes, ok := s.codes[claims.Channel]
	if !ok {
		return fmt.Errorf("unknown channel %q: %w", claims.Channel, domain.ErrBadRequest)
	}

	latest, err := codes.GetLatest(ctx, claims.Address)
	if err != nil {
		return err
	}
	if latest.IsUsed {
		return fmt.Errorf("code already consumed: %w", domain.ErrCodeMismatch)
	}
	if time.Now().Unix() > latest.ExpiresAt {
		// Spent either way: an expired code still occupies its slot in the
		// rate window, it just can't be redeemed.
		if err := codes.MarkUsed(ctx, claims.Address, latest.CreatedAt); err != nil {
			slog.Warn("failed to mark expired code as used", "address", claims.Address, "err", err)
		}
		return fmt.Errorf("code expired, request a new one: %w", domain.ErrCodeExpired)
	}
	if latest.Code != req.Code {
		return fmt.Errorf("wrong code: %w", domain.ErrCodeMismatch)
	}
	if err := codes.MarkUsed(ctx, claims.Address, latest.CreatedAt); err != nil {
		return err
	}

	field := fieldEmailVerified
	if claims.Channel == domain.ChannelPhone {
		field = fieldPhoneVerified
	}
	if err := s.users.Update(ctx, claims.UserID, map[string]interface{}{field: true}); err != nil {
		return err
	}

	s.notifier.Emit(ctx, notification.Emission{
		UserID:  claims.UserID,
		Type:    domain.NotifyContactVerified,
		Title:   "Contact verified",
		Message: fmt.Sprintf("Your %s has been verified.", claims.Channel),
	})
	return nil
}

func (s *service) Review(ctx context.Context, userID string, req domain.SetVerificationStatusRequest) (*domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, userID, map[string]interface{}{fieldVerificationStatus: req.Status}); err != nil {
		return nil, err
	}
	u.VerificationStatus = req.Status

	switch req.Status {
	case domain.VerificationVerified:
		s.notifier.Emit(ctx, notification.Emission{
			UserID:  userID,
			Type:    domain.NotifyIDVerified,
			Title:   "Identity verified",
			Message: "Your identity document has been approved.",
		})
	case domain.VerificationRejected:
		msg := "Your identity document was rejected."
		if req.Notes != "" {
			msg = msg + " " + req.Notes
		}
		s.notifier.Emit(ctx, notification.Emission{
			UserID:  userID,
			Type:    domain.NotifyIDRejected,
			Title:   "Identity rejected",
			Message: msg,
		})
	}
	return u, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
