package domain

import "time"

// Account roles.
const (
	RoleStudent = "student"
	RoleCompany = "company"
	RoleAdmin   = "admin"
)

// Administrative verification statuses. This axis is an admin's manual review
// of the uploaded ID document and is independent of the contact flags
// EmailVerified / PhoneVerified: an account may have a verified email yet
// still be pending administrative review.
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

type User struct {
	UserID             string     `json:"id" dynamodbav:"user_id"`
	Username           string     `json:"username" dynamodbav:"username"`
	Email              string     `json:"email" dynamodbav:"email"`
	Phone              *string    `json:"phone" dynamodbav:"phone"`
	PasswordHash       string     `json:"-" dynamodbav:"password_hash"`
	Role               string     `json:"role" dynamodbav:"role"` // "student" | "company" | "admin"
	FirstName          string     `json:"first_name" dynamodbav:"first_name"`
	LastName           string     `json:"last_name" dynamodbav:"last_name"`
	EmailVerified      bool       `json:"email_verified" dynamodbav:"email_verified"`
	PhoneVerified      bool       `json:"phone_verified" dynamodbav:"phone_verified"`
	VerificationStatus string     `json:"verification_status" dynamodbav:"verification_status"`
	IDDocumentKey      *string    `json:"id_document_key,omitempty" dynamodbav:"id_document_key"`
	ProfilePhotoKey    *string    `json:"profile_photo_key,omitempty" dynamodbav:"profile_photo_key"`
	Enable             int        `json:"enable" dynamodbav:"enable"`
	DeletedAt          *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt          time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt          time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// IsCompany reports whether the account belongs to an employer.
func (u *User) IsCompany() bool { return u.Role == RoleCompany }

type RegisterRequest struct {
	Username    string  `json:"username" validate:"required"`
	Password    string  `json:"password" validate:"required,min=8,max=72"`
	Email       string  `json:"email" validate:"required,email"`
	Phone       *string `json:"phone" validate:"omitempty,e164"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	AccountType string  `json:"account_type" validate:"required,oneof=student company"`
	// Base64-encoded ID document (image or PDF) reviewed by an admin.
	IDDocument *string `json:"id_document"`
}

type UpdateUserRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,e164"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Enable    *int    `json:"enable"` // 1 = enabled, 0 = disabled
}

type SetVerificationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=verified rejected"`
	Notes  string `json:"notes"`
}
