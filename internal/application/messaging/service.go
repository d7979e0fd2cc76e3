package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/campusboard-api/internal/application/notification"
	"github.com/campusboard-api/internal/domain"
	"github.com/campusboard-api/internal/pkg/id"
)

type Service interface {
	// RequestChat asks the other party of an application to open a chat.
	RequestChat(ctx context.Context, applicationID, requesterUserID string, req domain.ChatRequestInput) (*domain.ChatRequest, error)
	ListRequests(ctx context.Context, userID string) (incoming, outgoing []domain.ChatRequest, err error)
	// Respond approves or rejects a pending request; approval opens the
	// conversation between the two parties.
	Respond(ctx context.Context, requestID, userID string, approve bool) (*domain.ChatRequest, *domain.Conversation, error)

	ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error)
	ListMessages(ctx context.Context, conversationID, userID string) ([]domain.Message, error)
	SendMessage(ctx context.Context, conversationID, senderUserID string, req domain.SendMessageRequest) (*domain.Message, error)

	// Admin moderation surface.
	ListAllConversations(ctx context.Context) ([]domain.Conversation, error)
	DeactivateConversation(ctx context.Context, conversationID string) error
	FlagMessage(ctx context.Context, messageID string, flagged bool) (*domain.Message, error)
}

type requestStore interface {
	Put(ctx context.Context, cr *domain.ChatRequest) error
	Get(ctx context.Context, requestID string) (*domain.ChatRequest, error)
	GetExisting(ctx context.Context, applicationID, requesterUserID, recipientUserID string) (*domain.ChatRequest, error)
	ListByRecipient(ctx context.Context, recipientUserID string) ([]domain.ChatRequest, error)
	ListByRequester(ctx context.Context, requesterUserID string) ([]domain.ChatRequest, error)
	Respond(ctx context.Context, requestID, status string, respondedAt time.Time) error
}

type conversationStore interface {
	Put(ctx context.Context, c *domain.Conversation) error
	Get(ctx context.Context, conversationID string) (*domain.Conversation, error)
	GetByApplication(ctx context.Context, applicationID string) (*domain.Conversation, error)
	ListByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error)
	ScanAll(ctx context.Context) ([]domain.Conversation, error)
	SetActive(ctx context.Context, conversationID string, active bool) error
}

type messageStore interface {
	Put(ctx context.Context, m *domain.Message) error
	Get(ctx context.Context, messageID string) (*domain.Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error)
	MarkReadByRecipient(ctx context.Context, conversationID, userID string) error
	SetFlagged(ctx context.Context, messageID string, flagged bool) error
}

type applicationStore interface {
	Get(ctx context.Context, applicationID string) (*domain.Application, error)
}

type jobStore interface {
	Get(ctx context.Context, jobID string) (*domain.JobPost, error)
}

type notifier interface {
	Emit(ctx context.Context, e notification.Emission)
}

type service struct {
	requests      requestStore
	conversations conversationStore
	messages      messageStore
	applications  applicationStore
	jobs          jobStore
	notifier      notifier
}

type ServiceDeps struct {
	RequestRepo      requestStore
	ConversationRepo conversationStore
	MessageRepo      messageStore
	ApplicationRepo  applicationStore
	JobRepo          jobStore
	Notifier         notifier
}

func NewService(deps ServiceDeps) Service {
	return &service{
		requests:      deps.RequestRepo,
		conversations: deps.ConversationRepo,
		messages:      deps.MessageRepo,
		applications:  deps.ApplicationRepo,
		jobs:          deps.JobRepo,
		notifier:      deps.Notifier,
	}
}

func (s *service) RequestChat(ctx context.Context, applicationID, requesterUserID string, req domain.ChatRequestInput) (*domain.ChatRequest, error) {
	a, err := s.applications.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	j, err := s.jobs.Get(ctx, a.JobID)
	if err != nil {
		return nil, err
	}

	// Only the two parties of the application may open a chat, and the
	// recipient is always the other one.
	var recipientUserID string
	switch requesterUserID {
	case a.ApplicantUserID:
		recipientUserID = j.CompanyUserID
	case j.CompanyUserID:
		recipientUserID = a.ApplicantUserID
	default:
		return nil, fmt.Errorf("not a party of this application: %w", domain.ErrForbidden)
	}

	if _, err := s.conversations.GetByApplication(ctx, applicationID); err == nil {
		return nil, fmt.Errorf("conversation already exists for this application: %w", domain.ErrConflict)
	}
	if _, err := s.requests.GetExisting(ctx, applicationID, requesterUserID, recipientUserID); err == nil {
		return nil, fmt.Errorf("chat request already sent: %w", domain.ErrConflict)
	}

	cr := &domain.ChatRequest{
		RequestID:       id.New(),
		ApplicationID:   applicationID,
		RequesterUserID: requesterUserID,
		RecipientUserID: recipientUserID,
		Message:         req.Message,
		Status:          domain.ChatRequestPending,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.requests.Put(ctx, cr); err != nil {
		return nil, err
	}

	s.notifier.Emit(ctx, notification.Emission{
		UserID:        recipientUserID,
		Type:          domain.NotifyChatRequest,
		Title:         "Chat request",
		Message:       fmt.Sprintf("You received a chat request about %q.", j.Title),
		JobID:         &j.JobID,
		ApplicationID: &applicationID,
	})
	return cr, nil
}

func (s *service) ListRequests(ctx context.Context, userID string) ([]domain.ChatRequest, []domain.ChatRequest, error) {
	incoming, err := s.requests.ListByRecipient(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	outgoing, err := s.requests.ListByRequester(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return incoming, outgoing, nil
}

func (s *service) Respond(ctx context.Context, requestID, userID string, approve bool) (*domain.ChatRequest, *domain.Conversation, error) {
	cr, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if cr.RecipientUserID != userID {
		return nil, nil, fmt.Errorf("chat request is addressed to another user: %w", domain.ErrForbidden)
	}
	if cr.Status != domain.ChatRequestPending {
		return nil, nil, fmt.Errorf("chat request already answered: %w", domain.ErrConflict)
	}

	status := domain.ChatRequestRejected
	if approve {
		status = domain.ChatRequestApproved
	}
	now := time.Now().UTC()
	if err := s.requests.Respond(ctx, requestID, status, now); err != nil {
		return nil, nil, err
	}
	cr.Status = status
	cr.RespondedAt = &now

	if !approve {
		return cr, nil, nil
	}

	conv := &domain.Conversation{
		ConversationID: id.New(),
		ApplicationID:  cr.ApplicationID,
		Participant1ID: cr.RequesterUserID,
		Participant2ID: cr.RecipientUserID,
		IsActive:       true,
		CreatedAt:      now,
	}
	if err := s.conversations.Put(ctx, conv); err != nil {
		return nil, nil, err
	}

	s.notifier.Emit(ctx, notification.Emission{
		UserID:        cr.RequesterUserID,
		Type:          domain.NotifyChatRequest,
		Title:         "Chat request approved",
		Message:       "Your chat request was approved, you can start messaging.",
		ApplicationID: &cr.ApplicationID,
	})
	return cr, conv, nil
}

func (s *service) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	return s.conversations.ListByParticipant(ctx, userID)
}

// ListMessages returns the conversation history and marks messages addressed
// to the caller as read.
func (s *service) ListMessages(ctx context.Context, conversationID, userID string) ([]domain.Message, error) {
	conv, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, fmt.Errorf("not a participant: %w", domain.ErrForbidden)
	}
	msgs, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if err := s.messages.MarkReadByRecipient(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *service) SendMessage(ctx context.Context, conversationID, senderUserID string, req domain.SendMessageRequest) (*domain.Message, error) {
	conv, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderUserID) {
		return nil, fmt.Errorf("not a participant: %w", domain.ErrForbidden)
	}
	if !conv.IsActive {
		return nil, fmt.Errorf("conversation was deactivated by an administrator: %w", domain.ErrForbidden)
	}

	m := &domain.Message{
		MessageID:      id.New(),
		ConversationID: conversationID,
		SenderUserID:   senderUserID,
		Content:        req.Content,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.Put(ctx, m); err != nil {
		return nil, err
	}

	s.notifier.Emit(ctx, notification.Emission{
		UserID:  conv.OtherParticipant(senderUserID),
		Type:    domain.NotifyNewMessage,
		Title:   "New message",
		Message: "You have a new message.",
	})
	return m, nil
}

func (s *service) ListAllConversations(ctx context.Context) ([]domain.Conversation, error) {
	return s.conversations.ScanAll(ctx)
}

func (s *service) DeactivateConversation(ctx context.Context, conversationID string) error {
	if _, err := s.conversations.Get(ctx, conversationID); err != nil {
		return err
	}
	return s.conversations.SetActive(ctx, conversationID, false)
}

func (s *service) FlagMessage(ctx context.Context, messageID string, flagged bool) (*domain.Message, error) {
	m, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.messages.SetFlagged(ctx, messageID, flagged); err != nil {
		return nil, err
	}
	m.FlaggedByAdmin = flagged
	return m, nil
}
