package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campusboard-api/internal/domain"
	"github.com/campusboard-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldUsername        = "username"
	fieldEmail           = "email"
	fieldPhone           = "phone"
	fieldFirstName       = "first_name"
	fieldLastName        = "last_name"
	fieldEnable          = "enable"
	fieldPasswordHash    = "password_hash"
	fieldProfilePhotoKey = "profile_photo_key"
	fieldEmailVerified   = "email_verified"
	fieldPhoneVerified   = "phone_verified"
)

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	SetProfilePhoto(ctx context.Context, userID, b64Data string) (*domain.User, error)
	ListDocuments(ctx context.Context, userID string) ([]domain.Document, error)
}

type userStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
}

type sessionStore interface {
	SoftDeleteByUser(ctx context.Context, userID string) error
}

type documentStore interface {
	Put(ctx context.Context, d *domain.Document) error
	ListByOwner(ctx context.Context, ownerUserID string) ([]domain.Document, error)
}

type objectStore interface {
	UploadBase64(ctx context.Context, key, b64Data string) (string, error)
}

type service struct {
	repo         userStore
	sessionRepo  sessionStore
	documentRepo documentStore
	objects      objectStore
}

type ServiceDeps struct {
	UserRepo     userStore
	SessionRepo  sessionStore
	DocumentRepo documentStore
	Objects      objectStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:         deps.UserRepo,
		sessionRepo:  deps.SessionRepo,
		documentRepo: deps.DocumentRepo,
		objects:      deps.Objects,
	}
}

// Register creates a student or company account. The account starts with
// both contact flags unset and verification_status pending; an optional
// base64 identity document is stored for admin review.
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("username already taken: %w", domain.ErrConflict)
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := &domain.User{
		UserID:             id.New(),
		Username:           req.Username,
		Email:              req.Email,
		Phone:              req.Phone,
		PasswordHash:       string(hash),
		Role:               req.AccountType,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		VerificationStatus: domain.VerificationPending,
		Enable:             1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if req.IDDocument != nil && *req.IDDocument != "" {
		key := fmt.Sprintf("users/%s/id_document.pdf", u.UserID)
		if _, err := s.objects.UploadBase64(ctx, key, *req.IDDocument); err != nil {
			return nil, err
		}
		u.IDDocumentKey = &key
		s.recordDocument(ctx, u.UserID, domain.DocumentIDProof, key)
	}

	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	updates := map[string]interface{}{}
	if req.Username != nil {
		updates[fieldUsername] = *req.Username
	}
	if req.Email != nil || req.Phone != nil {
		u, err := s.repo.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		// A changed address has to be proven again; an unchanged one keeps
		// its verified flag.
		if req.Email != nil && u.Email != *req.Email {
			updates[fieldEmail] = *req.Email
			updates[fieldEmailVerified] = false
		}
		if req.Phone != nil && (u.Phone == nil || *u.Phone != *req.Phone) {
			updates[fieldPhone] = *req.Phone
			updates[fieldPhoneVerified] = false
		}
	}
	if req.FirstName != nil {
		updates[fieldFirstName] = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
	}
	if req.Enable != nil {
		if *req.Enable != 0 && *req.Enable != 1 {
			return nil, fmt.Errorf("enable must be 0 or 1: %w", domain.ErrBadRequest)
		}
		updates[fieldEnable] = *req.Enable
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, userID)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

func (s *service) Delete(ctx context.Context, userID string) error {
	if err := s.repo.SoftDelete(ctx, userID); err != nil {
		return err
	}
	return s.sessionRepo.SoftDeleteByUser(ctx, userID)
}

func (s *service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrUnauthorized)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, userID, map[string]interface{}{fieldPasswordHash: string(hash)})
}

func (s *service) SetProfilePhoto(ctx context.Context, userID, b64Data string) (*domain.User, error) {
	key := fmt.Sprintf("users/%s/profile_photo.jpg", userID)
	if _, err := s.objects.UploadBase64(ctx, key, b64Data); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{fieldProfilePhotoKey: key}); err != nil {
		return nil, err
	}
	s.recordDocument(ctx, userID, domain.DocumentProfilePhoto, key)
	return s.repo.Get(ctx, userID)
}

func (s *service) ListDocuments(ctx context.Context, userID string) ([]domain.Document, error) {
	return s.documentRepo.ListByOwner(ctx, userID)
}

// recordDocument stores upload metadata for the admin audit trail. Best
// effort: the upload itself already succeeded.
func (s *service) recordDocument(ctx context.Context, userID, kind, key string) {
	err := s.documentRepo.Put(ctx, &domain.Document{
		DocumentID:  id.New(),
		OwnerUserID: userID,
		Kind:        kind,
		ObjectKey:   key,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		slog.Warn("failed to record document metadata", "user_id", userID, "kind", kind, "err", err)
	}
}
