package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campusboard-api/internal/application/notification"
	"github.com/campusboard-api/internal/domain"
	jwtinfra "github.com/campusboard-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

type mockCodeStore struct{ mock.Mock }

func (m *mockCodeStore) Put(ctx context.Context, v *domain.VerificationCode) error {
	return m.Called(ctx, v).Error(0)
}
func (m *mockCodeStore) GetLatest(ctx context.Context, address string) (*domain.VerificationCode, error) {
	args := m.Called(ctx, address)
	if v, _ := args.Get(0).(*domain.VerificationCode); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCodeStore) ListIssuedSince(ctx context.Context, address string, since int64) ([]int64, error) {
	args := m.Called(ctx, address, since)
	if s, _ := args.Get(0).([]int64); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCodeStore) MarkUsed(ctx context.Context, address, createdAt string) error {
	return m.Called(ctx, address, createdAt).Error(0)
}

type mockTokenProvider struct{ mock.Mock }

func (m *mockTokenProvider) SignVerification(userID, address, channel string, ttl time.Duration) (string, error) {
	args := m.Called(userID, address, channel, ttl)
	return args.String(0), args.Error(1)
}
func (m *mockTokenProvider) VerifyVerification(token string) (*jwtinfra.VerificationClaims, error) {
	args := m.Called(token)
	if c, _ := args.Get(0).(*jwtinfra.VerificationClaims); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Emit(ctx context.Context, e notification.Emission) {
	m.Called(ctx, e)
}

// fakeSender records the last code it was asked to deliver.
type fakeSender struct {
	sendErr  error
	sentTo   string
	sentCode string
	calls    int
}

func (f *fakeSender) Send(_ context.Context, address, code string) error {
	f.calls++
	f.sentTo = address
	f.sentCode = code
	return f.sendErr
}

type fixture struct {
	users      *mockUserStore
	emailCodes *mockCodeStore
	phoneCodes *mockCodeStore
	email      *fakeSender
	phone      *fakeSender
	tokens     *mockTokenProvider
	notifier   *mockNotifier
	svc        Service
}

func newFixture() *fixture {
	f := &fixture{
		users:      &mockUserStore{},
		emailCodes: &mockCodeStore{},
		phoneCodes: &mockCodeStore{},
		email:      &fakeSender{},
		phone:      &fakeSender{},
		tokens:     &mockTokenProvider{},
		notifier:   &mockNotifier{},
	}
	f.svc = NewService(ServiceDeps{
		UserRepo:    f.users,
		EmailCodes:  f.emailCodes,
		PhoneCodes:  f.phoneCodes,
		EmailSender: f.email,
		PhoneSender: f.phone,
		Tokens:      f.tokens,
		Notifier:    f.notifier,
		Limiter:     NewIssueLimiter(60*time.Second, 5),
	})
	return f
}

func pendingUser() *domain.User {
	phone := "+5215512345678"
	return &domain.User{
		UserID:             "u1",
		Email:              "ana@example.com",
		Phone:              &phone,
		Role:               domain.RoleStudent,
		VerificationStatus: domain.VerificationPending,
	}
}

func emailClaims() *jwtinfra.VerificationClaims {
	return &jwtinfra.VerificationClaims{
		UserID:  "u1",
		Address: "ana@example.com",
		Channel: domain.ChannelEmail,
	}
}

// --- Start ---

func TestStartIssuesAndDeliversCode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.users.On("Get", ctx, "u1").Return(pendingUser(), nil)
	f.emailCodes.On("ListIssuedSince", ctx, "ana@example.com", mock.Anything).Return([]int64{}, nil)
	f.emailCodes.On("Put", ctx, mock.Anything).Return(nil)
	f.tokens.On("SignVerification", "u1", "ana@example.com", domain.ChannelEmail, CodeLifetime).
		Return("token-1", nil)

	token, err := f.svc.Start(ctx, "u1", domain.StartVerificationRequest{Channel: domain.ChannelEmail})

	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.Equal(t, "ana@example.com", f.email.sentTo)
	assert.Len(t, f.email.sentCode, 6)

	stored := f.emailCodes.Calls[1].Arguments.Get(1).(*domain.VerificationCode)
	assert.Equal(t, f.email.sentCode, stored.Code)
	assert.False(t, stored.IsUsed)
	assert.Equal(t, stored.IssuedAt+600, stored.ExpiresAt)
}

func TestStartRejectsAlreadyVerifiedEmail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	u := pendingUser()
	u.EmailVerified = true
	f.users.On("Get", ctx, "u1").Return(u, nil)

	_, err := f.svc.Start(ctx, "u1", domain.StartVerificationRequest{Channel: domain.ChannelEmail})

	assert.ErrorIs(t, err, domain.ErrConflict)
	f.emailCodes.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestStartRejectsPhoneChannelWithoutNumber(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	u := pendingUser()
	u.Phone = nil
	f.users.On("Get", ctx, "u1").Return(u, nil)

	_, err := f.svc.Start(ctx, "u1", domain.StartVerificationRequest{Channel: domain.ChannelPhone})

	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestStartSurfacesUnconfiguredSMS(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.users.On("Get", ctx, "u1").Return(pendingUser(), nil)
	f.phoneCodes.On("ListIssuedSince", ctx, "+5215512345678", mock.Anything).Return([]int64{}, nil)
	f.phoneCodes.On("Put", ctx, mock.Anything).Return(nil)
	f.tokens.On("SignVerification", "u1", "+5215512345678", domain.ChannelPhone, CodeLifetime).
		Return("token-1", nil)
	f.phone.sendErr = domain.ErrSMSNotConfigured

	token, err := f.svc.Start(ctx, "u1", domain.StartVerificationRequest{Channel: domain.ChannelPhone})

	// Distinguishable from a transport failure, and non-fatal: the stored
	// code stays redeemable and the caller can fall back to email.
	assert.ErrorIs(t, err, domain.ErrSMSNotConfigured)
	assert.Equal(t, "token-1", token)
	f.phoneCodes.AssertCalled(t, "Put", ctx, mock.Anything)
}

func TestStartBlocksRapidResend(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.users.On("Get", ctx, "u1").Return(pendingUser(), nil)
	f.emailCodes.On("ListIssuedSince", ctx, "ana@example.com", mock.Anything).
		Return([]int64{time.Now().Add(-5 * time.Second).Unix()}, nil)

	_, err := f.svc.Start(ctx, "u1", domain.StartVerificationRequest{Channel: domain.ChannelEmail})

	assert.ErrorIs(t, err, domain.ErrRateLimited)
	f.emailCodes.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	assert.Zero(t, f.email.calls)
}

func TestStartBlocksHourlyCap(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	now := time.Now()
	stamps := []int64{
		now.Add(-5 * time.Minute).Unix(),
		now.Add(-15 * time.Minute).Unix(),
		now.Add(-25 * time.Minute).Unix(),
		now.Add(-35 * time.Minute).Unix(),
		now.Add(-45 * time.Minute).Unix(),
	}
	f.users.On("Get", ctx, "u1").Return(pendingUser(), nil)
	f.emailCodes.On("ListIssuedSince", ctx, "ana@example.com", mock.Anything).Return(stamps, nil)

	_, err := f.svc.Start(ctx, "u1", domain.StartVerificationRequest{Channel: domain.ChannelEmail})

	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestStartKeepsStoredCodeOnDeliveryFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.users.On("Get", ctx, "u1").Return(pendingUser(), nil)
	f.emailCodes.On("ListIssuedSince", ctx, "ana@example.com", mock.Anything).Return([]int64{}, nil)
	f.emailCodes.On("Put", ctx, mock.Anything).Return(nil)
	f.tokens.On("SignVerification", "u1", "ana@example.com", domain.ChannelEmail, CodeLifetime).
		Return("token-1", nil)
	f.email.sendErr = domain.ErrDeliveryFailed

	token, err := f.svc.Start(ctx, "u1", domain.StartVerificationRequest{Channel: domain.ChannelEmail})

	assert.ErrorIs(t, err, domain.ErrDeliveryFailed)
	// The code was stored before the send attempt; it stays live and the
	// caller still receives the continuation token.
	assert.Equal(t, "token-1", token)
	f.emailCodes.AssertCalled(t, "Put", ctx, mock.Anything)
}

// --- Resend ---

func TestResendIssuesFreshCode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.tokens.On("VerifyVerification", "token-1").Return(emailClaims(), nil)
	f.emailCodes.On("ListIssuedSince", ctx, "ana@example.com", mock.Anything).
		Return([]int64{time.Now().Add(-2 * time.Minute).Unix()}, nil)
	f.emailCodes.On("Put", ctx, mock.Anything).Return(nil)
	f.tokens.On("SignVerification", "u1", "ana@example.com", domain.ChannelEmail, CodeLifetime).
		Return("token-2", nil)

	token, err := f.svc.Resend(ctx, domain.ResendVerificationRequest{Token: "token-1"})

	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
	assert.Equal(t, 1, f.email.calls)
}

func TestResendRejectsBadToken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.tokens.On("VerifyVerification", "garbage").Return(nil, errors.New("token is malformed"))

	_, err := f.svc.Resend(ctx, domain.ResendVerificationRequest{Token: "garbage"})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// --- Submit ---

func TestSubmitRedeemsCodeAndFlagsEmail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	now := time.Now()
	f.tokens.On("VerifyVerification", "token-1").Return(emailClaims(), nil)
	f.emailCodes.On("GetLatest", ctx, "ana@example.com").Return(&domain.VerificationCode{
		Address:   "ana@example.com",
		CreatedAt: "01J8ZQW9",
		Code:      "123456",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(CodeLifetime).Unix(),
	}, nil)
	f.emailCodes.On("MarkUsed", ctx, "ana@example.com", "01J8ZQW9").Return(nil)
	f.users.On("Update", ctx, "u1", map[string]interface{}{fieldEmailVerified: true}).Return(nil)
	f.notifier.On("Emit", ctx, mock.Anything).Return()

	err := f.svc.Submit(ctx, domain.SubmitVerificationRequest{Token: "token-1", Code: "123456"})

	require.NoError(t, err)
	f.users.AssertExpectations(t)

	emitted := f.notifier.Calls[0].Arguments.Get(1).(notification.Emission)
	assert.Equal(t, domain.NotifyContactVerified, emitted.Type)
	assert.Equal(t, "u1", emitted.UserID)
}

func TestSubmitRejectsWrongCode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	now := time.Now()
	f.tokens.On("VerifyVerification", "token-1").Return(emailClaims(), nil)
	f.emailCodes.On("GetLatest", ctx, "ana@example.com").Return(&domain.VerificationCode{
		Address:   "ana@example.com",
		CreatedAt: "01J8ZQW9",
		Code:      "123456",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(CodeLifetime).Unix(),
	}, nil)

	err := f.svc.Submit(ctx, domain.SubmitVerificationRequest{Token: "token-1", Code: "999999"})

	assert.ErrorIs(t, err, domain.ErrCodeMismatch)
	f.emailCodes.AssertNotCalled(t, "MarkUsed", mock.Anything, mock.Anything, mock.Anything)
	f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitRejectsExpiredCodeAndSpendsIt(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.tokens.On("VerifyVerification", "token-1").Return(emailClaims(), nil)
	f.emailCodes.On("GetLatest", ctx, "ana@example.com").Return(&domain.VerificationCode{
		Address:   "ana@example.com",
		CreatedAt: "01J8ZQW9",
		Code:      "123456",
		IssuedAt:  time.Now().Add(-20 * time.Minute).Unix(),
		ExpiresAt: time.Now().Add(-10 * time.Minute).Unix(),
	}, nil)
	f.emailCodes.On("MarkUsed", ctx, "ana@example.com", "01J8ZQW9").Return(nil)

	err := f.svc.Submit(ctx, domain.SubmitVerificationRequest{Token: "token-1", Code: "123456"})

	assert.ErrorIs(t, err, domain.ErrCodeExpired)
	// Expired codes are spent, not deleted: they still count toward the window.
	f.emailCodes.AssertCalled(t, "MarkUsed", ctx, "ana@example.com", "01J8ZQW9")
	f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitRejectsSupersededCode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Only the newest record is consulted. After a resend, submitting the
	// earlier code's digits no longer matches.
	now := time.Now()
	f.tokens.On("VerifyVerification", "token-2").Return(emailClaims(), nil)
	f.emailCodes.On("GetLatest", ctx, "ana@example.com").Return(&domain.VerificationCode{
		Address:   "ana@example.com",
		CreatedAt: "01J8ZQWB", // the resent code
		Code:      "654321",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(CodeLifetime).Unix(),
	}, nil)

	err := f.svc.Submit(ctx, domain.SubmitVerificationRequest{Token: "token-2", Code: "123456"})

	assert.ErrorIs(t, err, domain.ErrCodeMismatch)
}

func TestSubmitRejectsConsumedCode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	now := time.Now()
	f.tokens.On("VerifyVerification", "token-1").Return(emailClaims(), nil)
	f.emailCodes.On("GetLatest", ctx, "ana@example.com").Return(&domain.VerificationCode{
		Address:   "ana@example.com",
		CreatedAt: "01J8ZQW9",
		Code:      "123456",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(CodeLifetime).Unix(),
		IsUsed:    true,
	}, nil)

	err := f.svc.Submit(ctx, domain.SubmitVerificationRequest{Token: "token-1", Code: "123456"})

	assert.ErrorIs(t, err, domain.ErrCodeMismatch)
	f.emailCodes.AssertNotCalled(t, "MarkUsed", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitLosesRedemptionRace(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	now := time.Now()
	f.tokens.On("VerifyVerification", "token-1").Return(emailClaims(), nil)
	f.emailCodes.On("GetLatest", ctx, "ana@example.com").Return(&domain.VerificationCode{
		Address:   "ana@example.com",
		CreatedAt: "01J8ZQW9",
		Code:      "123456",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(CodeLifetime).Unix(),
	}, nil)
	// The conditional update lost to a concurrent redeemer.
	f.emailCodes.On("MarkUsed", ctx, "ana@example.com", "01J8ZQW9").Return(domain.ErrCodeMismatch)

	err := f.svc.Submit(ctx, domain.SubmitVerificationRequest{Token: "token-1", Code: "123456"})

	assert.ErrorIs(t, err, domain.ErrCodeMismatch)
	f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitFlagsPhoneOnPhoneChannel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	now := time.Now()
	claims := &jwtinfra.VerificationClaims{
		UserID:  "u1",
		Address: "+5215512345678",
		Channel: domain.ChannelPhone,
	}
	f.tokens.On("VerifyVerification", "token-1").Return(claims, nil)
	f.phoneCodes.On("GetLatest", ctx, "+5215512345678").Return(&domain.VerificationCode{
		Address:   "+5215512345678",
		CreatedAt: "01J8ZQW9",
		Code:      "123456",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(CodeLifetime).Unix(),
	}, nil)
	f.phoneCodes.On("MarkUsed", ctx, "+5215512345678", "01J8ZQW9").Return(nil)
	f.users.On("Update", ctx, "u1", map[string]interface{}{fieldPhoneVerified: true}).Return(nil)
	f.notifier.On("Emit", ctx, mock.Anything).Return()

	err := f.svc.Submit(ctx, domain.SubmitVerificationRequest{Token: "token-1", Code: "123456"})

	require.NoError(t, err)
	f.users.AssertExpectations(t)
}

// --- Review ---

func TestReviewApprovesAndNotifies(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.users.On("Get", ctx, "u1").Return(pendingUser(), nil)
	f.users.On("Update", ctx, "u1",
		map[string]interface{}{fieldVerificationStatus: domain.VerificationVerified}).Return(nil)
	f.notifier.On("Emit", ctx, mock.Anything).Return()

	u, err := f.svc.Review(ctx, "u1", domain.SetVerificationStatusRequest{Status: domain.VerificationVerified})

	require.NoError(t, err)
	assert.Equal(t, domain.VerificationVerified, u.VerificationStatus)

	emitted := f.notifier.Calls[0].Arguments.Get(1).(notification.Emission)
	assert.Equal(t, domain.NotifyIDVerified, emitted.Type)
}

func TestReviewRejectsWithNotes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.users.On("Get", ctx, "u1").Return(pendingUser(), nil)
	f.users.On("Update", ctx, "u1",
		map[string]interface{}{fieldVerificationStatus: domain.VerificationRejected}).Return(nil)
	f.notifier.On("Emit", ctx, mock.Anything).Return()

	_, err := f.svc.Review(ctx, "u1", domain.SetVerificationStatusRequest{
		Status: domain.VerificationRejected,
		Notes:  "Document unreadable.",
	})

	require.NoError(t, err)
	emitted := f.notifier.Calls[0].Arguments.Get(1).(notification.Emission)
	assert.Equal(t, domain.NotifyIDRejected, emitted.Type)
	assert.Contains(t, emitted.Message, "Document unreadable.")
}
