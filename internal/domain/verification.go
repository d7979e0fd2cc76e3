package domain

// Verification channels.
const (
	ChannelEmail = "email"
	ChannelPhone = "phone"
)

// VerificationCode is a single-use, time-limited 6-digit code proving
// possession of an email address or phone number.
// PK: address, SK: created_at (ULID, so newest-first ordering is the key order).
// Only the newest unused record for an address is redeemable; issuing a new
// code supersedes all prior ones. Older records stay until PurgeAt so the
// issuance limiter can count attempts inside its rolling window.
type VerificationCode struct {
	Address   string `json:"address" dynamodbav:"address"`
	CreatedAt string `json:"created_at" dynamodbav:"created_at"` // ULID sort key
	Code      string `json:"code" dynamodbav:"code"`
	IssuedAt  int64  `json:"issued_at" dynamodbav:"issued_at"`   // Unix seconds
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // IssuedAt + code lifetime
	IsUsed    bool   `json:"is_used" dynamodbav:"is_used"`
	PurgeAt   int64  `json:"purge_at" dynamodbav:"purge_at"` // DynamoDB TTL (Unix seconds)
}

type StartVerificationRequest struct {
	Channel string `json:"channel" validate:"required,oneof=email phone"`
}

type SubmitVerificationRequest struct {
	Token string `json:"token" validate:"required"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type ResendVerificationRequest struct {
	Token string `json:"token" validate:"required"`
}
