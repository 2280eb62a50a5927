package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// Realtime domain events delivered on the private user channel and, for
// admins, the shared admin channel.
const (
	EventUserRegistered       = "user.registered"
	EventSubscriptionCreated  = "subscription.created"
	EventValidationCreated    = "validation.created"
	EventPartnerStatusChanged = "partner.status.changed"
)

// RealtimeEvents lists every domain event a channel subscription listens for.
var RealtimeEvents = []string{
	EventUserRegistered,
	EventSubscriptionCreated,
	EventValidationCreated,
	EventPartnerStatusChanged,
}

// AdminChannel is the shared channel joined in addition to the per-user
// channel when the current identity is an admin.
const AdminChannel = "admin"

// UserChannel returns the private channel name for a user id.
func UserChannel(userID int64) string {
	return "user." + strconv.FormatInt(userID, 10)
}

// Notification is a single server- or realtime-originated event record.
// ID is the de-duplication key across both origins. CreatedAt stays in its
// wire form: realtime payloads are not guaranteed to carry well-formed
// timestamps, and entries that fail to parse must sort as oldest rather than
// be rejected.
type Notification struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id,omitempty"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	ReadAt    *string         `json:"read_at"`
	CreatedAt string          `json:"created_at"`
}

// Read reports whether the notification carries an authoritative read mark.
func (n Notification) Read() bool {
	return n.ReadAt != nil && *n.ReadAt != ""
}

// CreatedTime parses the created_at wire value. ok is false when the value is
// missing or unparseable; such entries sort as oldest.
func (n Notification) CreatedTime() (t time.Time, ok bool) {
	if n.CreatedAt == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, n.CreatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// PageMeta is the pagination envelope returned by list endpoints.
type PageMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}
