package service

import (
	"sort"

	"github.com/clubly/loyalty-agent/internal/core/domain"
)

// mergeNotifications combines the server snapshot with the realtime buffer
// into one de-duplicated, freshest-first view. Server entries win every id
// collision: they carry the authoritative read_at. The inputs are never
// mutated and the result is deterministic for a given pair of inputs.
func mergeNotifications(server, buffer []domain.Notification) []domain.Notification {
	seen := make(map[int64]struct{}, len(server)+len(buffer))
	merged := make([]domain.Notification, 0, len(server)+len(buffer))

	for _, n := range server {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		merged = append(merged, n)
	}
	for _, n := range buffer {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		merged = append(merged, n)
	}

	// Most recent first. Realtime delivery order is not server persistence
	// order, so created_at is the only sort key that can be trusted; entries
	// without a parseable timestamp sort as oldest.
	sort.SliceStable(merged, func(i, j int) bool {
		ti, iok := merged[i].CreatedTime()
		tj, jok := merged[j].CreatedTime()
		switch {
		case iok && jok:
			return ti.After(tj)
		case iok:
			return true
		case jok:
			return false
		default:
			return false
		}
	})

	return merged
}
