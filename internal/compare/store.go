// Package compare keeps each owner's comparison selection: the short, capped
// list of car IDs a user has picked to compare side by side.
//
// A Store owns the selection. Writers always replace the whole list, and
// subscribers receive the full list after every change, so readers never see
// a partially applied update.
package compare

import (
	"context"
	"errors"
	"strings"
)

// DefaultCap is the selection size used when a store is built with cap <= 0.
const DefaultCap = 3

// ErrFull is returned when a change would grow a selection past its cap.
var ErrFull = errors.New("comparison selection is full")

// Store is the read / write / subscribe contract for comparison selections.
// Owner identifies whose selection is addressed (user ID or client ID).
type Store interface {
	// Get returns the owner's selection; an unknown owner has an empty one.
	Get(ctx context.Context, owner string) ([]string, error)
	// Replace sets the selection to ids (blank and repeated IDs dropped).
	Replace(ctx context.Context, owner string, ids []string) ([]string, error)
	// Toggle removes id when selected and appends it otherwise.
	Toggle(ctx context.Context, owner, id string) ([]string, error)
	// Clear empties the selection.
	Clear(ctx context.Context, owner string) error
	// Subscribe delivers the full selection after each change until ctx ends.
	Subscribe(ctx context.Context, owner string) (<-chan []string, error)
	// Cap is the maximum selection size.
	Cap() int
}

// clean trims ids, drops blanks and duplicates, and keeps first-seen order.
func clean(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// toggle computes the selection after toggling id.
func toggle(cur []string, id string, limit int) ([]string, error) {
	out := make([]string, 0, len(cur)+1)
	removed := false
	for _, v := range cur {
		if v == id {
			removed = true
			continue
		}
		out = append(out, v)
	}
	if removed {
		return out, nil
	}
	if len(cur) >= limit {
		return nil, ErrFull
	}
	return append(out, id), nil
}

func capOrDefault(n int) int {
	if n <= 0 {
		return DefaultCap
	}
	return n
}
