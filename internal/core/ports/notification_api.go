package ports

import (
	"context"

	"github.com/clubly/loyalty-agent/internal/core/domain"
)

// ListOptions filters the notification list endpoint.
type ListOptions struct {
	Type       string
	UnreadOnly bool
	PerPage    int
}

// NotificationAPI is the server-persisted notification surface.
type NotificationAPI interface {
	List(ctx context.Context, opts ListOptions) ([]domain.Notification, *domain.PageMeta, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) error
}

// SnapshotCache persists the last successful notification snapshot per user so
// a restarted agent has data before its first poll completes. Implementations
// are best-effort; callers tolerate every error.
type SnapshotCache interface {
	Save(ctx context.Context, userID int64, notifications []domain.Notification) error
	Load(ctx context.Context, userID int64) ([]domain.Notification, error)
}
