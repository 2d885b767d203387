// Package access resolves which calendars a user may see and which
// entries those calendars expose. All functions are pure over the
// snapshots they are given; persistence and identity are the caller's
// concern.
package access

import (
	"github.com/crmsuite/calendard/internal/database"
)

// Ref identifies a calendar a user can reach: either a persisted
// Calendar row or the user's virtual default calendar. The virtual
// default shares the literal id "default" across all users, so it is
// carried as a tagged value rather than a bare id to keep one user's
// default entries from ever matching another's.
type Ref struct {
	Virtual  bool
	OwnerID  string             // owner of the virtual default; set when Virtual
	Calendar *database.Calendar // set when !Virtual
}

// PersistedRef wraps a stored calendar.
func PersistedRef(c *database.Calendar) Ref {
	return Ref{Calendar: c}
}

// VirtualDefaultRef synthesizes the default calendar for an owner.
func VirtualDefaultRef(ownerID, ownerName string) Ref {
	return Ref{
		Virtual: true,
		OwnerID: ownerID,
		Calendar: &database.Calendar{
			ID:        database.DefaultCalendarID,
			Name:      "My Calendar",
			Color:     "#4285f4",
			OwnerID:   ownerID,
			OwnerName: ownerName,
			IsDefault: true,
			IsVisible: true,
		},
	}
}

// ID returns the calendar id, "default" for virtual refs.
func (r Ref) ID() string {
	if r.Virtual {
		return database.DefaultCalendarID
	}
	return r.Calendar.ID
}

// Owner returns the owning user id.
func (r Ref) Owner() string {
	if r.Virtual {
		return r.OwnerID
	}
	return r.Calendar.OwnerID
}

// Resolve computes the ordered set of calendars the user may see:
// owned calendars first (input order), then calendars shared with the
// user whose share was accepted (input order). A user who owns no
// calendar gets a synthesized virtual default at the head. Shares whose
// target calendar no longer exists are dropped, and each calendar
// appears at most once even if granted twice. Deterministic for
// identical inputs.
func Resolve(currentUserID, currentUserName string, calendars []database.Calendar, shares []database.Share) []Ref {
	byID := make(map[string]*database.Calendar, len(calendars))
	seen := make(map[string]bool, len(calendars))
	var owned []Ref

	for i := range calendars {
		c := &calendars[i]
		byID[c.ID] = c
		if c.OwnerID == currentUserID && !seen[c.ID] {
			seen[c.ID] = true
			owned = append(owned, PersistedRef(c))
		}
	}

	if len(owned) == 0 {
		owned = append(owned, VirtualDefaultRef(currentUserID, currentUserName))
	}

	for i := range shares {
		s := &shares[i]
		if s.SharedWithID != currentUserID || s.Status != database.ShareAccepted {
			continue
		}
		cal, ok := byID[s.CalendarID]
		if !ok {
			// Share outlived its calendar; nothing to show.
			continue
		}
		// Duplicate grants collapse to the first occurrence so each
		// calendar appears exactly once.
		if seen[cal.ID] {
			continue
		}
		seen[cal.ID] = true
		owned = append(owned, PersistedRef(cal))
	}

	return owned
}

// EntryVisible reports whether an entry may be shown to the user given
// their accessible calendars.
//
// Entries on the virtual default calendar are visible only to their own
// owner: the "default" id is shared by every user and must never grant
// cross-user visibility. For persisted calendars, a shared calendar
// shows the calendar owner's entries and an owned calendar shows the
// current user's. When the entry's calendar is not accessible at all
// (deleted, or never shared), only the entry's owner still sees it.
func EntryVisible(entry *database.Entry, refs []Ref, currentUserID string) bool {
	effective := entry.EffectiveCalendarID()

	if effective == database.DefaultCalendarID {
		return entry.OwnerID == currentUserID
	}

	for _, ref := range refs {
		if ref.Virtual || ref.ID() != effective {
			continue
		}
		return ref.Owner() == entry.OwnerID || ref.Owner() == currentUserID
	}

	return entry.OwnerID == currentUserID
}
