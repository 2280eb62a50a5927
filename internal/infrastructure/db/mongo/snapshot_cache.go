package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clubly/loyalty-agent/internal/core/domain"
)

const snapshotCollection = "notification_snapshots"

// SnapshotCache stores the last successful notification list per user, so a
// restarted agent has something to show before the first poll lands.
type SnapshotCache struct {
	coll *mongo.Collection
}

func NewSnapshotCache(db *mongo.Database) *SnapshotCache {
	return &SnapshotCache{coll: db.Collection(snapshotCollection)}
}

type snapshotDoc struct {
	UserID        int64           `bson:"_id"`
	Notifications []snapshotEntry `bson:"notifications"`
	UpdatedAt     int64           `bson:"updated_at"`
}

type snapshotEntry struct {
	ID        int64   `bson:"id"`
	UserID    int64   `bson:"user_id,omitempty"`
	Type      string  `bson:"type"`
	Title     string  `bson:"title"`
	Message   string  `bson:"message"`
	Data      string  `bson:"data,omitempty"`
	ReadAt    *string `bson:"read_at,omitempty"`
	CreatedAt string  `bson:"created_at"`
}

// Save replaces the user's snapshot with the given list.
func (c *SnapshotCache) Save(ctx context.Context, userID int64, notifications []domain.Notification) error {
	entries := make([]snapshotEntry, 0, len(notifications))
	for _, n := range notifications {
		entries = append(entries, snapshotEntry{
			ID:        n.ID,
			UserID:    n.UserID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			Data:      string(n.Data),
			ReadAt:    n.ReadAt,
			CreatedAt: n.CreatedAt,
		})
	}

	doc := snapshotDoc{
		UserID:        userID,
		Notifications: entries,
		UpdatedAt:     time.Now().UTC().Unix(),
	}
	_, err := c.coll.ReplaceOne(ctx, bson.M{"_id": userID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns the user's last snapshot, or nil when none is stored.
func (c *SnapshotCache) Load(ctx context.Context, userID int64) ([]domain.Notification, error) {
	var doc snapshotDoc
	if err := c.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	notifications := make([]domain.Notification, 0, len(doc.Notifications))
	for _, e := range doc.Notifications {
		notifications = append(notifications, domain.Notification{
			ID:        e.ID,
			UserID:    e.UserID,
			Type:      e.Type,
			Title:     e.Title,
			Message:   e.Message,
			Data:      []byte(e.Data),
			ReadAt:    e.ReadAt,
			CreatedAt: e.CreatedAt,
		})
	}
	return notifications, nil
}
