package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEnable             = "enable"
	fieldDeletedAt          = "deleted_at"
	fieldReaded             = "readed"
	fieldRefreshToken       = "refresh_token"
	fieldRefreshExpiresAt   = "refresh_expires_at"
	fieldIsUsed             = "is_used"
	fieldIsApproved         = "is_approved"
	fieldIsActive           = "is_active"
	fieldIsRead             = "is_read"
	fieldFlaggedByAdmin     = "flagged_by_admin"
	fieldStatus             = "status"
	fieldRespondedAt        = "responded_at"
	fieldVerificationStatus = "verification_status"
	fieldEmailVerified      = "email_verified"
	fieldPhoneVerified      = "phone_verified"
)
