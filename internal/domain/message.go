package domain

import "time"

// Chat request statuses.
const (
	ChatRequestPending  = "pending"
	ChatRequestApproved = "approved"
	ChatRequestRejected = "rejected"
)

// ChatRequest asks the other party of an application to open a conversation.
// One per (application, requester, recipient).
type ChatRequest struct {
	RequestID       string     `json:"id" dynamodbav:"request_id"`
	ApplicationID   string     `json:"application_id" dynamodbav:"application_id"`
	RequesterUserID string     `json:"requester_user_id" dynamodbav:"requester_user_id"`
	RecipientUserID string     `json:"recipient_user_id" dynamodbav:"recipient_user_id"`
	Message         string     `json:"message" dynamodbav:"message"`
	Status          string     `json:"status" dynamodbav:"status"`
	CreatedAt       time.Time  `json:"created" dynamodbav:"created_at"`
	RespondedAt     *time.Time `json:"responded_at,omitempty" dynamodbav:"responded_at"`
}

// Conversation links the two parties of an application once a chat request
// was approved. Admins can deactivate a conversation that violates conduct.
type Conversation struct {
	ConversationID string    `json:"id" dynamodbav:"conversation_id"`
	ApplicationID  string    `json:"application_id" dynamodbav:"application_id"`
	Participant1ID string    `json:"participant_1_id" dynamodbav:"participant_1_id"`
	Participant2ID string    `json:"participant_2_id" dynamodbav:"participant_2_id"`
	IsActive       bool      `json:"is_active" dynamodbav:"is_active"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
}

// OtherParticipant returns the conversation partner of userID.
func (c *Conversation) OtherParticipant(userID string) string {
	if userID == c.Participant1ID {
		return c.Participant2ID
	}
	return c.Participant1ID
}

// HasParticipant reports whether userID takes part in the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	return userID == c.Participant1ID || userID == c.Participant2ID
}

// Message is a single conversation entry. Visible to admins for moderation.
type Message struct {
	MessageID      string    `json:"id" dynamodbav:"message_id"`
	ConversationID string    `json:"conversation_id" dynamodbav:"conversation_id"`
	SenderUserID   string    `json:"sender_user_id" dynamodbav:"sender_user_id"`
	Content        string    `json:"content" dynamodbav:"content"`
	IsRead         bool      `json:"is_read" dynamodbav:"is_read"`
	FlaggedByAdmin bool      `json:"flagged_by_admin" dynamodbav:"flagged_by_admin"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
}

type ChatRequestInput struct {
	Message string `json:"message" validate:"required"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}
