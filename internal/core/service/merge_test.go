package service

import (
	"testing"

	"github.com/clubly/loyalty-agent/internal/core/domain"
)

func notif(id int64, createdAt string) domain.Notification {
	return domain.Notification{ID: id, Type: "user.registered", CreatedAt: createdAt}
}

func ids(list []domain.Notification) []int64 {
	out := make([]int64, len(list))
	for i, n := range list {
		out[i] = n.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMergeNotifications_DedupServerWins(t *testing.T) {
	readAt := "2026-02-01T10:05:00Z"
	server := []domain.Notification{
		{ID: 3, CreatedAt: "2026-02-01T10:00:00Z", ReadAt: &readAt},
	}
	buffer := []domain.Notification{
		{ID: 3, CreatedAt: "2026-02-01T10:00:00Z"},
		{ID: 4, CreatedAt: "2026-02-01T10:01:00Z"},
	}

	merged := mergeNotifications(server, buffer)
	if !equalIDs(ids(merged), []int64{4, 3}) {
		t.Fatalf("unexpected ids: %v", ids(merged))
	}
	for _, n := range merged {
		if n.ID == 3 && !n.Read() {
			t.Fatalf("server copy must win the collision")
		}
	}
}

func TestMergeNotifications_SortNewestFirst(t *testing.T) {
	server := []domain.Notification{
		notif(1, "2026-02-01T09:00:00Z"),
		notif(2, "2026-02-01T11:00:00Z"),
	}
	buffer := []domain.Notification{
		notif(5, "2026-02-01T10:00:00Z"),
	}

	merged := mergeNotifications(server, buffer)
	if !equalIDs(ids(merged), []int64{2, 5, 1}) {
		t.Fatalf("unexpected order: %v", ids(merged))
	}
}

func TestMergeNotifications_UnparseableTimestampsSortOldest(t *testing.T) {
	server := []domain.Notification{
		notif(1, "not-a-timestamp"),
		notif(2, "2026-02-01T11:00:00Z"),
	}
	buffer := []domain.Notification{
		notif(3, ""),
	}

	merged := mergeNotifications(server, buffer)
	got := ids(merged)
	if got[0] != 2 {
		t.Fatalf("parseable entry must sort first, got %v", got)
	}
	// Unparseable entries keep their merge order relative to each other.
	if !equalIDs(got[1:], []int64{1, 3}) {
		t.Fatalf("unexpected tail order: %v", got)
	}
}

func TestMergeNotifications_AcceptsDatetimeWithoutZone(t *testing.T) {
	server := []domain.Notification{
		notif(1, "2026-02-01 09:30:00"),
		notif(2, "2026-02-01 10:30:00"),
	}

	merged := mergeNotifications(server, nil)
	if !equalIDs(ids(merged), []int64{2, 1}) {
		t.Fatalf("unexpected order: %v", ids(merged))
	}
}

func TestMergeNotifications_Idempotent(t *testing.T) {
	server := []domain.Notification{
		notif(1, "2026-02-01T09:00:00Z"),
		notif(2, "2026-02-01T11:00:00Z"),
	}
	buffer := []domain.Notification{
		notif(2, "2026-02-01T11:00:00Z"),
		notif(3, "2026-02-01T12:00:00Z"),
	}

	once := mergeNotifications(server, buffer)
	twice := mergeNotifications(once, buffer)
	if !equalIDs(ids(once), ids(twice)) {
		t.Fatalf("merge not idempotent: %v vs %v", ids(once), ids(twice))
	}
}

func TestMergeNotifications_InputsNotMutated(t *testing.T) {
	server := []domain.Notification{
		notif(1, "2026-02-01T09:00:00Z"),
		notif(2, "2026-02-01T08:00:00Z"),
	}
	buffer := []domain.Notification{
		notif(3, "2026-02-01T12:00:00Z"),
	}

	_ = mergeNotifications(server, buffer)
	if !equalIDs(ids(server), []int64{1, 2}) || !equalIDs(ids(buffer), []int64{3}) {
		t.Fatalf("inputs mutated: %v %v", ids(server), ids(buffer))
	}
}

func TestMergeNotifications_Empty(t *testing.T) {
	if got := mergeNotifications(nil, nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", ids(got))
	}
}
