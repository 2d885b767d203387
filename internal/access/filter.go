package access

import (
	"sort"

	"github.com/crmsuite/calendard/internal/database"
)

// FilterOptions carries the UI-owned toggle state into the filter.
// The core never stores this; the caller threads it through.
type FilterOptions struct {
	// VisibleCalendarIDs is the set of calendar ids the user has toggled
	// on. The "default" key governs only virtual-default entries, never
	// other calendars.
	VisibleCalendarIDs map[string]bool

	// ShowCompletedTasks includes task entries already marked done.
	ShowCompletedTasks bool
}

// Filter yields the entries the user should see, chronologically
// ascending. An entry passes when it is visible per EntryVisible and
// its effective calendar is toggled on.
func Filter(entries []database.Entry, currentUserID string, refs []Ref, opts FilterOptions) []database.Entry {
	out := make([]database.Entry, 0, len(entries))

	for i := range entries {
		e := &entries[i]

		if !EntryVisible(e, refs, currentUserID) {
			continue
		}
		if !opts.VisibleCalendarIDs[e.EffectiveCalendarID()] {
			continue
		}
		if !opts.ShowCompletedTasks && e.Type == database.EntryTask && e.Completed {
			continue
		}

		out = append(out, *e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartsAt.Before(out[j].StartsAt)
	})

	return out
}

// AllVisible builds a toggle set that shows every accessible calendar.
// Convenience for callers with no stored preferences yet.
func AllVisible(refs []Ref) map[string]bool {
	ids := make(map[string]bool, len(refs))
	for _, ref := range refs {
		ids[ref.ID()] = true
	}
	return ids
}
