package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/campusboard-api/internal/application/notification"
	"github.com/campusboard-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockRequestStore struct{ mock.Mock }

func (m *mockRequestStore) Put(ctx context.Context, cr *domain.ChatRequest) error {
	return m.Called(ctx, cr).Error(0)
}
func (m *mockRequestStore) Get(ctx context.Context, requestID string) (*domain.ChatRequest, error) {
	args := m.Called(ctx, requestID)
	if cr, _ := args.Get(0).(*domain.ChatRequest); cr != nil {
		return cr, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRequestStore) GetExisting(ctx context.Context, applicationID, requesterUserID, recipientUserID string) (*domain.ChatRequest, error) {
	args := m.Called(ctx, applicationID, requesterUserID, recipientUserID)
	if cr, _ := args.Get(0).(*domain.ChatRequest); cr != nil {
		return cr, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRequestStore) ListByRecipient(ctx context.Context, recipientUserID string) ([]domain.ChatRequest, error) {
	args := m.Called(ctx, recipientUserID)
	if crs, _ := args.Get(0).([]domain.ChatRequest); crs != nil {
		return crs, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRequestStore) ListByRequester(ctx context.Context, requesterUserID string) ([]domain.ChatRequest, error) {
	args := m.Called(ctx, requesterUserID)
	if crs, _ := args.Get(0).([]domain.ChatRequest); crs != nil {
		return crs, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRequestStore) Respond(ctx context.Context, requestID, status string, respondedAt time.Time) error {
	return m.Called(ctx, requestID, status, respondedAt).Error(0)
}

type mockConversationStore struct{ mock.Mock }

func (m *mockConversationStore) Put(ctx context.Context, c *domain.Conversation) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockConversationStore) Get(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	args := m.Called(ctx, conversationID)
	if c, _ := args.Get(0).(*domain.Conversation); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockConversationStore) GetByApplication(ctx context.Context, applicationID string) (*domain.Conversation, error) {
	args := m.Called(ctx, applicationID)
	if c, _ := args.Get(0).(*domain.Conversation); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockConversationStore) ListByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	args := m.Called(ctx, userID)
	if cs, _ := args.Get(0).([]domain.Conversation); cs != nil {
		return cs, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockConversationStore) ScanAll(ctx context.Context) ([]domain.Conversation, error) {
	args := m.Called(ctx)
	if cs, _ := args.Get(0).([]domain.Conversation); cs != nil {
		return cs, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockConversationStore) SetActive(ctx context.Context, conversationID string, active bool) error {
	return m.Called(ctx, conversationID, active).Error(0)
}

type mockMessageStore struct{ mock.Mock }

func (m *mockMessageStore) Put(ctx context.Context, msg *domain.Message) error {
	return m.Called(ctx, msg).Error(0)
}
func (m *mockMessageStore) Get(ctx context.Context, messageID string) (*domain.Message, error) {
	args := m.Called(ctx, messageID)
	if msg, _ := args.Get(0).(*domain.Message); msg != nil {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMessageStore) ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	args := m.Called(ctx, conversationID)
	if msgs, _ := args.Get(0).([]domain.Message); msgs != nil {
		return msgs, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMessageStore) MarkReadByRecipient(ctx context.Context, conversationID, userID string) error {
	return m.Called(ctx, conversationID, userID).Error(0)
}
func (m *mockMessageStore) SetFlagged(ctx context.Context, messageID string, flagged bool) error {
	return m.Called(ctx, messageID, flagged).Error(0)
}

type mockApplicationStore struct{ mock.Mock }

func (m *mockApplicationStore) Get(ctx context.Context, applicationID string) (*domain.Application, error) {
	args := m.Called(ctx, applicationID)
	if a, _ := args.Get(0).(*domain.Application); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockJobStore struct{ mock.Mock }

func (m *mockJobStore) Get(ctx context.Context, jobID string) (*domain.JobPost, error) {
	args := m.Called(ctx, jobID)
	if j, _ := args.Get(0).(*domain.JobPost); j != nil {
		return j, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Emit(ctx context.Context, e notification.Emission) {
	m.Called(ctx, e)
}

type fixture struct {
	requests      *mockRequestStore
	conversations *mockConversationStore
	messages      *mockMessageStore
	applications  *mockApplicationStore
	jobs          *mockJobStore
	notifier      *mockNotifier
	svc           Service
}

func newFixture() *fixture {
	f := &fixture{
		requests:      &mockRequestStore{},
		conversations: &mockConversationStore{},
		messages:      &mockMessageStore{},
		applications:  &mockApplicationStore{},
		jobs:          &mockJobStore{},
		notifier:      &mockNotifier{},
	}
	f.svc = NewService(ServiceDeps{
		RequestRepo:      f.requests,
		ConversationRepo: f.conversations,
		MessageRepo:      f.messages,
		ApplicationRepo:  f.applications,
		JobRepo:          f.jobs,
		Notifier:         f.notifier,
	})
	return f
}

func acceptedApplication() *domain.Application {
	return &domain.Application{
		ApplicationID:   "a1",
		JobID:           "j1",
		ApplicantUserID: "s1",
		Status:          domain.ApplicationAccepted,
	}
}

func companyJob() *domain.JobPost {
	return &domain.JobPost{
		JobID:         "j1",
		CompanyUserID: "c1",
		Title:         "Backend Intern",
	}
}

func pendingRequest() *domain.ChatRequest {
	return &domain.ChatRequest{
		RequestID:       "r1",
		ApplicationID:   "a1",
		RequesterUserID: "c1",
		RecipientUserID: "s1",
		Status:          domain.ChatRequestPending,
	}
}

func activeConversation() *domain.Conversation {
	return &domain.Conversation{
		ConversationID: "conv1",
		ApplicationID:  "a1",
		Participant1ID: "c1",
		Participant2ID: "s1",
		IsActive:       true,
	}
}

// --- RequestChat ---

func TestRequestChatFromCompanyTargetsApplicant(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.applications.On("Get", ctx, "a1").Return(acceptedApplication(), nil)
	f.jobs.On("Get", ctx, "j1").Return(companyJob(), nil)
	f.conversations.On("GetByApplication", ctx, "a1").Return(nil, domain.ErrNotFound)
	f.requests.On("GetExisting", ctx, "a1", "c1", "s1").Return(nil, domain.ErrNotFound)
	f.requests.On("Put", ctx, mock.Anything).Return(nil)
	f.notifier.On("Emit", ctx, mock.Anything).Return()

	cr, err := f.svc.RequestChat(ctx, "a1", "c1", domain.ChatRequestInput{Message: "Let's talk"})

	require.NoError(t, err)
	assert.Equal(t, "s1", cr.RecipientUserID)
	assert.Equal(t, domain.ChatRequestPending, cr.Status)

	emitted := f.notifier.Calls[0].Arguments.Get(1).(notification.Emission)
	assert.Equal(t, domain.NotifyChatRequest, emitted.Type)
	assert.Equal(t, "s1", emitted.UserID)
}

func TestRequestChatFromApplicantTargetsCompany(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.applications.On("Get", ctx, "a1").Return(acceptedApplication(), nil)
	f.jobs.On("Get", ctx, "j1").Return(companyJob(), nil)
	f.conversations.On("GetByApplication", ctx, "a1").Return(nil, domain.ErrNotFound)
	f.requests.On("GetExisting", ctx, "a1", "s1", "c1").Return(nil, domain.ErrNotFound)
	f.requests.On("Put", ctx, mock.Anything).Return(nil)
	f.notifier.On("Emit", ctx, mock.Anything).Return()

	cr, err := f.svc.RequestChat(ctx, "a1", "s1", domain.ChatRequestInput{Message: "Hello"})

	require.NoError(t, err)
	assert.Equal(t, "c1", cr.RecipientUserID)
}

func TestRequestChatRejectsThirdParty(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.applications.On("Get", ctx, "a1").Return(acceptedApplication(), nil)
	f.jobs.On("Get", ctx, "j1").Return(companyJob(), nil)

	_, err := f.svc.RequestChat(ctx, "a1", "intruder", domain.ChatRequestInput{Message: "hi"})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	f.requests.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRequestChatRejectsExistingConversation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.applications.On("Get", ctx, "a1").Return(acceptedApplication(), nil)
	f.jobs.On("Get", ctx, "j1").Return(companyJob(), nil)
	f.conversations.On("GetByApplication", ctx, "a1").Return(activeConversation(), nil)

	_, err := f.svc.RequestChat(ctx, "a1", "c1", domain.ChatRequestInput{Message: "hi"})

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRequestChatRejectsDuplicateRequest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.applications.On("Get", ctx, "a1").Return(acceptedApplication(), nil)
	f.jobs.On("Get", ctx, "j1").Return(companyJob(), nil)
	f.conversations.On("GetByApplication", ctx, "a1").Return(nil, domain.ErrNotFound)
	f.requests.On("GetExisting", ctx, "a1", "c1", "s1").Return(pendingRequest(), nil)

	_, err := f.svc.RequestChat(ctx, "a1", "c1", domain.ChatRequestInput{Message: "hi"})

	assert.ErrorIs(t, err, domain.ErrConflict)
}

// --- Respond ---

func TestRespondApprovalOpensConversation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.requests.On("Get", ctx, "r1").Return(pendingRequest(), nil)
	f.requests.On("Respond", ctx, "r1", domain.ChatRequestApproved, mock.Anything).Return(nil)
	f.conversations.On("Put", ctx, mock.Anything).Return(nil)
	f.notifier.On("Emit", ctx, mock.Anything).Return()

	cr, conv, err := f.svc.Respond(ctx, "r1", "s1", true)

	require.NoError(t, err)
	assert.Equal(t, domain.ChatRequestApproved, cr.Status)
	require.NotNil(t, conv)
	assert.True(t, conv.IsActive)
	assert.Equal(t, "c1", conv.Participant1ID)
	assert.Equal(t, "s1", conv.Participant2ID)

	emitted := f.notifier.Calls[0].Arguments.Get(1).(notification.Emission)
	assert.Equal(t, "c1", emitted.UserID)
}

func TestRespondRejectionSkipsConversation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.requests.On("Get", ctx, "r1").Return(pendingRequest(), nil)
	f.requests.On("Respond", ctx, "r1", domain.ChatRequestRejected, mock.Anything).Return(nil)

	cr, conv, err := f.svc.Respond(ctx, "r1", "s1", false)

	require.NoError(t, err)
	assert.Equal(t, domain.ChatRequestRejected, cr.Status)
	assert.Nil(t, conv)
	f.conversations.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRespondRejectsNonRecipient(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.requests.On("Get", ctx, "r1").Return(pendingRequest(), nil)

	_, _, err := f.svc.Respond(ctx, "r1", "c1", true)

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRespondRejectsAlreadyAnswered(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cr := pendingRequest()
	cr.Status = domain.ChatRequestApproved
	f.requests.On("Get", ctx, "r1").Return(cr, nil)

	_, _, err := f.svc.Respond(ctx, "r1", "s1", true)

	assert.ErrorIs(t, err, domain.ErrConflict)
}

// --- Messages ---

func TestListMessagesMarksThemRead(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.conversations.On("Get", ctx, "conv1").Return(activeConversation(), nil)
	f.messages.On("ListByConversation", ctx, "conv1").
		Return([]domain.Message{{MessageID: "m1", SenderUserID: "c1", Content: "hi"}}, nil)
	f.messages.On("MarkReadByRecipient", ctx, "conv1", "s1").Return(nil)

	msgs, err := f.svc.ListMessages(ctx, "conv1", "s1")

	require.NoError(t, err)
	require.Len(t, msgs, 1)
	f.messages.AssertCalled(t, "MarkReadByRecipient", ctx, "conv1", "s1")
}

func TestListMessagesRejectsOutsider(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.conversations.On("Get", ctx, "conv1").Return(activeConversation(), nil)

	_, err := f.svc.ListMessages(ctx, "conv1", "intruder")

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSendMessageNotifiesOtherParticipant(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.conversations.On("Get", ctx, "conv1").Return(activeConversation(), nil)
	f.messages.On("Put", ctx, mock.Anything).Return(nil)
	f.notifier.On("Emit", ctx, mock.Anything).Return()

	m, err := f.svc.SendMessage(ctx, "conv1", "s1", domain.SendMessageRequest{Content: "hello"})

	require.NoError(t, err)
	assert.Equal(t, "s1", m.SenderUserID)
	assert.Equal(t, "hello", m.Content)

	emitted := f.notifier.Calls[0].Arguments.Get(1).(notification.Emission)
	assert.Equal(t, domain.NotifyNewMessage, emitted.Type)
	assert.Equal(t, "c1", emitted.UserID)
}

func TestSendMessageRejectsDeactivatedConversation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	conv := activeConversation()
	conv.IsActive = false
	f.conversations.On("Get", ctx, "conv1").Return(conv, nil)

	_, err := f.svc.SendMessage(ctx, "conv1", "s1", domain.SendMessageRequest{Content: "hello"})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	f.messages.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

// --- Moderation ---

func TestDeactivateConversation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.conversations.On("Get", ctx, "conv1").Return(activeConversation(), nil)
	f.conversations.On("SetActive", ctx, "conv1", false).Return(nil)

	err := f.svc.DeactivateConversation(ctx, "conv1")

	require.NoError(t, err)
	f.conversations.AssertExpectations(t)
}

func TestFlagMessage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.messages.On("Get", ctx, "m1").Return(&domain.Message{MessageID: "m1"}, nil)
	f.messages.On("SetFlagged", ctx, "m1", true).Return(nil)

	m, err := f.svc.FlagMessage(ctx, "m1", true)

	require.NoError(t, err)
	assert.True(t, m.FlaggedByAdmin)
}
