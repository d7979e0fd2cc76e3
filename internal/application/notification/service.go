package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campusboard-api/internal/domain"
	"github.com/campusboard-api/internal/infrastructure/dynamo"
	"github.com/campusboard-api/internal/pkg/id"
)

// Emission describes an in-app notification to be delivered to one user.
type Emission struct {
	UserID        string
	Type          string
	Title         string
	Message       string
	JobID         *string
	ApplicationID *string
}

type Service interface {
	// Emit stores a notification for a user. Best effort: a storage failure
	// is logged, never propagated, so emitting can't fail the operation that
	// triggered it.
	Emit(ctx context.Context, e Emission)
	List(ctx context.Context, userID string, unreadOnly bool) (items []domain.Notification, unread int, err error)
	MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) error
}

type service struct {
	repo *dynamo.NotificationRepo
}

func NewService(repo *dynamo.NotificationRepo) Service {
	return &service{repo: repo}
}

func (s *service) Emit(ctx context.Context, e Emission) {
	now := time.Now().UTC()
	n := &domain.Notification{
		NotificationID:       id.New(),
		UserID:               e.UserID,
		Type:                 e.Type,
		Title:                e.Title,
		Message:              e.Message,
		RelatedJobID:         e.JobID,
		RelatedApplicationID: e.ApplicationID,
		Readed:               0,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.repo.Put(ctx, n); err != nil {
		slog.Warn("failed to store notification", "user_id", e.UserID, "type", e.Type, "err", err)
	}
}

func (s *service) List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, int, error) {
	items, err := s.repo.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, 0, err
	}
	unread := 0
	for i := range items {
		if items[i].Readed == 0 {
			unread++
		}
	}
	return items, unread, nil
}

func (s *service) MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, fmt.Errorf("notification belongs to another user: %w", domain.ErrForbidden)
	}
	if err := s.repo.MarkAsRead(ctx, notificationID); err != nil {
		return nil, err
	}
	n.Readed = 1
	return n, nil
}

func (s *service) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllRead(ctx, userID)
}
