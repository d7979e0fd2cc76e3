package domain

import "time"

// Notification types.
const (
	NotifyApplicationSubmitted = "AS"
	NotifyApplicationDecided   = "AC"
	NotifyJobPosted            = "JP"
	NotifyJobApproved          = "JA"
	NotifyJobRejected          = "JR"
	NotifyIDVerified           = "IV"
	NotifyIDRejected           = "IR"
	NotifyContactVerified      = "EV"
	NotifyChatRequest          = "CR"
	NotifyNewMessage           = "NM"
)

type Notification struct {
	NotificationID       string    `json:"id" dynamodbav:"notification_id"`
	UserID               string    `json:"user_id" dynamodbav:"user_id"`
	Type                 string    `json:"type" dynamodbav:"type"`
	Title                string    `json:"title" dynamodbav:"title"`
	Message              string    `json:"message" dynamodbav:"message"`
	RelatedJobID         *string   `json:"related_job_id,omitempty" dynamodbav:"related_job_id"`
	RelatedApplicationID *string   `json:"related_application_id,omitempty" dynamodbav:"related_application_id"`
	Readed               int       `json:"readed" dynamodbav:"readed"` // 0 = unread, 1 = read
	CreatedAt            time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt            time.Time `json:"updated" dynamodbav:"updated_at"`
}
