package domain

import "time"

// Document kinds.
const (
	DocumentIDProof      = "id_document"
	DocumentProfilePhoto = "profile_photo"
	DocumentCV           = "cv"
	DocumentTranscript   = "transcript"
	DocumentCertificate  = "certificate"
	DocumentOther        = "other"
	DocumentJobImage     = "job_image"
)

// Document records metadata for every object uploaded to S3 so admins can
// audit what a given account submitted.
type Document struct {
	DocumentID  string    `json:"id" dynamodbav:"document_id"`
	OwnerUserID string    `json:"owner_user_id" dynamodbav:"owner_user_id"`
	Kind        string    `json:"kind" dynamodbav:"kind"`
	ObjectKey   string    `json:"object_key" dynamodbav:"object_key"`
	ContentType string    `json:"content_type" dynamodbav:"content_type"`
	Size        int64     `json:"size" dynamodbav:"size"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
}
