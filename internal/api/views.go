package api

import (
	"context"
	"net/http"
	"time"

	"github.com/crmsuite/calendard/internal/access"
	"github.com/crmsuite/calendard/internal/apikeys"
	"github.com/crmsuite/calendard/internal/entries"
	"github.com/crmsuite/calendard/internal/response"
	"github.com/crmsuite/calendard/internal/util"
	"github.com/crmsuite/calendard/internal/view"
)

type dayColumnJSON struct {
	Date  string              `json:"date"`
	Hours map[int][]entryJSON `json:"hours"`
}

type monthCellJSON struct {
	Day     int         `json:"day"`
	Date    string      `json:"date"`
	Entries []entryJSON `json:"entries"`
}

type viewJSON struct {
	Mode        string             `json:"mode"`
	Title       string             `json:"title"`
	Cursor      time.Time          `json:"cursor"`
	WindowStart time.Time          `json:"window_start"`
	WindowEnd   time.Time          `json:"window_end"`
	Calendars   []calendarJSON     `json:"calendars"`
	Days        []dayColumnJSON    `json:"days,omitempty"`
	MonthWeeks  [][]*monthCellJSON `json:"month_weeks,omitempty"`
	MonthCounts *[12]int           `json:"month_counts,omitempty"`
	Upcoming    []entryJSON        `json:"upcoming,omitempty"`
}

// GetView projects the caller's visible entries onto the requested
// calendar view. Query parameters: mode, cursor (RFC3339 or
// YYYY-MM-DD), nav (next/prev/today), tz (IANA name).
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "read")
	if authKey == nil {
		return
	}

	ctx := r.Context()
	q := r.URL.Query()

	p, err := h.prefsStore.Get(ctx, authKey.UserID)
	if err != nil {
		response.WriteInternalError(w, "failed to load preferences")
		return
	}

	modeStr := q.Get("mode")
	if modeStr == "" {
		modeStr = p.DefaultView
	}
	mode, err := view.ParseMode(modeStr)
	if err != nil {
		response.WriteValidationError(w, err.Error(), nil)
		return
	}

	tz := q.Get("tz")
	if tz == "" {
		tz = h.config.Display.Timezone
	}
	loc, err := util.LoadLocation(tz)
	if err != nil {
		response.WriteValidationError(w, err.Error(), nil)
		return
	}

	now := time.Now()
	cursor, err := parseCursor(q.Get("cursor"), now, loc)
	if err != nil {
		response.WriteValidationError(w, err.Error(), nil)
		return
	}

	switch q.Get("nav") {
	case "":
	case "next":
		cursor = view.Next(cursor, mode)
	case "prev":
		cursor = view.Prev(cursor, mode)
	case "today":
		cursor = now
	default:
		response.WriteValidationError(w, "nav must be next, prev, or today", nil)
		return
	}

	refs, err := h.accessibleRefs(ctx, authKey)
	if err != nil {
		response.WriteInternalError(w, "failed to resolve calendars")
		return
	}

	start, end, err := view.Window(cursor, mode, now, loc)
	if err != nil {
		response.WriteValidationError(w, err.Error(), nil)
		return
	}

	raw, err := h.entryRepo.ListForOwners(ctx, refOwners(refs), start, end)
	if err != nil {
		response.WriteInternalError(w, "failed to load entries")
		return
	}
	occurrences := entries.Expand(raw, start, end)

	visible := access.AllVisible(refs)
	for id, on := range p.VisibleCalendarIDs {
		if _, ok := visible[id]; ok {
			visible[id] = on
		}
	}

	filtered := access.Filter(occurrences, authKey.UserID, refs, access.FilterOptions{
		VisibleCalendarIDs: visible,
		ShowCompletedTasks: p.ShowCompletedTasks,
	})

	buckets, err := view.Project(filtered, cursor, mode, now, loc)
	if err != nil {
		response.WriteValidationError(w, err.Error(), nil)
		return
	}

	response.JSON(w, http.StatusOK, renderView(buckets, start, end, refs))
}

func parseCursor(s string, now time.Time, loc *time.Location) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(util.ISODate, s, loc)
}

// accessibleRefs resolves the calendars the caller may see: their own
// plus those shared with them and accepted.
func (h *Handler) accessibleRefs(ctx context.Context, authKey *apikeys.AuthenticatedKey) ([]access.Ref, error) {
	owned, err := h.calendarRepo.ListForOwner(ctx, authKey.UserID)
	if err != nil {
		return nil, err
	}

	accepted, err := h.shareRepo.AcceptedForUser(ctx, authKey.UserID)
	if err != nil {
		return nil, err
	}

	sharedIDs := make([]string, 0, len(accepted))
	for i := range accepted {
		sharedIDs = append(sharedIDs, accepted[i].CalendarID)
	}
	shared, err := h.calendarRepo.GetByIDs(ctx, sharedIDs)
	if err != nil {
		return nil, err
	}

	all := append(owned, shared...)
	return access.Resolve(authKey.UserID, authKey.UserName, all, accepted), nil
}

// refOwners returns the distinct owner ids behind a set of refs.
func refOwners(refs []access.Ref) []string {
	seen := make(map[string]bool, len(refs))
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if owner := ref.Owner(); !seen[owner] {
			seen[owner] = true
			out = append(out, owner)
		}
	}
	return out
}

func renderView(b *view.Buckets, start, end time.Time, refs []access.Ref) *viewJSON {
	out := &viewJSON{
		Mode:        string(b.Mode),
		Title:       b.Title,
		Cursor:      b.Cursor,
		WindowStart: start,
		WindowEnd:   end,
		Calendars:   make([]calendarJSON, 0, len(refs)),
	}

	for _, ref := range refs {
		cj := toCalendarJSON(ref.Calendar)
		cj.Virtual = ref.Virtual
		out.Calendars = append(out.Calendars, cj)
	}

	switch b.Mode {
	case view.ModeDay, view.Mode4Day, view.ModeWeek:
		out.Days = make([]dayColumnJSON, 0, len(b.Days))
		for _, col := range b.Days {
			dc := dayColumnJSON{
				Date:  col.Date.Format(util.ISODate),
				Hours: make(map[int][]entryJSON, len(col.Hours)),
			}
			for hour, list := range col.Hours {
				dc.Hours[hour] = toEntriesJSON(list)
			}
			out.Days = append(out.Days, dc)
		}
	case view.ModeMonth:
		out.MonthWeeks = make([][]*monthCellJSON, 0, len(b.MonthWeeks))
		for _, week := range b.MonthWeeks {
			row := make([]*monthCellJSON, len(week))
			for i, cell := range week {
				if cell == nil {
					continue
				}
				row[i] = &monthCellJSON{
					Day:     cell.Day,
					Date:    cell.Date.Format(util.ISODate),
					Entries: toEntriesJSON(cell.Entries),
				}
			}
			out.MonthWeeks = append(out.MonthWeeks, row)
		}
	case view.ModeYear:
		counts := b.MonthCounts
		out.MonthCounts = &counts
	case view.ModeSchedule:
		out.Upcoming = toEntriesJSON(b.Upcoming)
	}

	return out
}
