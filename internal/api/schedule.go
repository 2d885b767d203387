package api

import (
	"net/http"
	"time"

	"github.com/crmsuite/calendard/internal/availability"
	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/entries"
	"github.com/crmsuite/calendard/internal/response"
	"github.com/crmsuite/calendard/internal/util"
)

// GetSchedule returns the caller's availability template, creating the
// default one on first access.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "read")
	if authKey == nil {
		return
	}

	sched, err := h.scheduleRepo.GetOrCreate(r.Context(), authKey.UserID, authKey.UserName)
	if err != nil {
		response.WriteInternalError(w, "failed to load schedule")
		return
	}

	response.JSON(w, http.StatusOK, toScheduleJSON(sched))
}

type saveScheduleRequest struct {
	Timezone              string                  `json:"timezone"`
	WorkingHours          []database.WorkingHours `json:"working_hours"`
	BufferBetweenMeetings int                     `json:"buffer_between_meetings"`
	MinimumNotice         int                     `json:"minimum_notice"`
	BlockedDates          []string                `json:"blocked_dates"`
}

// SaveSchedule replaces the caller's availability template wholesale.
func (h *Handler) SaveSchedule(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "write")
	if authKey == nil {
		return
	}

	var req saveScheduleRequest
	if err := parseJSON(r, &req); err != nil {
		response.WriteValidationError(w, "invalid JSON body", nil)
		return
	}

	ctx := r.Context()
	if _, err := h.scheduleRepo.GetOrCreate(ctx, authKey.UserID, authKey.UserName); err != nil {
		response.WriteInternalError(w, "failed to load schedule")
		return
	}

	sched, err := h.scheduleRepo.Save(ctx, &database.UserSchedule{
		UserID:                authKey.UserID,
		UserName:              authKey.UserName,
		Timezone:              req.Timezone,
		WorkingHours:          req.WorkingHours,
		BufferBetweenMeetings: req.BufferBetweenMeetings,
		MinimumNotice:         req.MinimumNotice,
		BlockedDates:          req.BlockedDates,
	})
	if err != nil {
		response.WriteValidationError(w, err.Error(), nil)
		return
	}

	h.auditLogger.LogWithIP(ctx, database.AuditScheduleSaved, sched.UserID, authKey.ID,
		authKey.UserID, clientIP(r), nil)

	response.JSON(w, http.StatusOK, toScheduleJSON(sched))
}

// CheckAvailability reports whether an instant is bookable against a
// user's template and existing entries. Query parameters: time
// (RFC3339, required), user_id (defaults to the caller).
func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "read")
	if authKey == nil {
		return
	}

	q := r.URL.Query()
	candidate, err := time.Parse(time.RFC3339, q.Get("time"))
	if err != nil {
		response.WriteValidationError(w, "invalid time format (use RFC3339)", nil)
		return
	}

	userID := q.Get("user_id")
	if userID == "" {
		userID = authKey.UserID
	}

	ctx := r.Context()
	sched, err := h.scheduleRepo.GetOrCreate(ctx, userID, "")
	if err != nil {
		response.WriteInternalError(w, "failed to load schedule")
		return
	}

	now := time.Now()
	ok, err := availability.Bookable(sched, candidate, now)
	if err != nil {
		// Malformed templates fail closed rather than leak an error.
		ok = false
	}

	if ok {
		slotLen := time.Duration(h.config.Booking.SlotMinutes) * time.Minute
		busy, busyErr := h.busyIntervals(r, userID, candidate, slotLen)
		if busyErr != nil {
			response.WriteInternalError(w, "failed to load entries")
			return
		}
		slot := availability.Interval{Start: candidate, End: candidate.Add(slotLen)}
		buffer := time.Duration(sched.BufferBetweenMeetings) * time.Minute
		for _, b := range busy {
			padded := availability.Interval{Start: b.Start.Add(-buffer), End: b.End.Add(buffer)}
			if slot.Overlaps(padded) {
				ok = false
				break
			}
		}
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"user_id":   userID,
		"time":      candidate,
		"available": ok,
	})
}

// ListSlots returns the open booking slots on a calendar date. Query
// parameters: date (YYYY-MM-DD, required), user_id (defaults to the
// caller), slot_minutes (defaults to the configured length).
func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "read")
	if authKey == nil {
		return
	}

	q := r.URL.Query()
	userID := q.Get("user_id")
	if userID == "" {
		userID = authKey.UserID
	}

	ctx := r.Context()
	sched, err := h.scheduleRepo.GetOrCreate(ctx, userID, "")
	if err != nil {
		response.WriteInternalError(w, "failed to load schedule")
		return
	}

	loc, err := util.LoadLocation(sched.Timezone)
	if err != nil {
		response.WriteInternalError(w, "schedule timezone is invalid")
		return
	}
	date, err := time.ParseInLocation(util.ISODate, q.Get("date"), loc)
	if err != nil {
		response.WriteValidationError(w, "invalid date format (use YYYY-MM-DD)", nil)
		return
	}

	slotMinutes := h.config.Booking.SlotMinutes
	if s := q.Get("slot_minutes"); s != "" {
		if n, convErr := parsePositiveInt(s); convErr == nil {
			slotMinutes = n
		} else {
			response.WriteValidationError(w, "slot_minutes must be a positive integer", nil)
			return
		}
	}
	slotLen := time.Duration(slotMinutes) * time.Minute

	busy, err := h.busyIntervals(r, userID, date, 24*time.Hour)
	if err != nil {
		response.WriteInternalError(w, "failed to load entries")
		return
	}

	slots, err := availability.Slots(sched, date, slotLen, busy, time.Now())
	if err != nil {
		// Fail closed: a broken template yields no bookable slots.
		slots = nil
	}
	if slots == nil {
		slots = []availability.Interval{}
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"date":    date.Format(util.ISODate),
		"slots":   slots,
	})
}

// busyIntervals collects a user's entry occurrences around an instant
// so slot arithmetic can avoid them.
func (h *Handler) busyIntervals(r *http.Request, userID string, around time.Time, span time.Duration) ([]availability.Interval, error) {
	start := around.Add(-span)
	end := around.Add(2 * span)

	raw, err := h.entryRepo.ListForOwners(r.Context(), []string{userID}, start, end)
	if err != nil {
		return nil, err
	}

	occurrences := entries.Expand(raw, start, end)
	out := make([]availability.Interval, 0, len(occurrences))
	for i := range occurrences {
		e := &occurrences[i]
		iv := availability.Interval{Start: e.StartsAt}
		if e.EndsAt.Valid {
			iv.End = e.EndsAt.Time
		} else {
			iv.End = e.StartsAt.Add(time.Duration(h.config.Booking.SlotMinutes) * time.Minute)
		}
		out = append(out, iv)
	}
	return out, nil
}
