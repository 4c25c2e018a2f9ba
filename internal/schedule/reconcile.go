package schedule

import (
	"cmp"
	"iter"
	"slices"

	"github.com/noah-isme/trainer-attendance-api/internal/models"
)

// MatchRecord picks the stored record for occ out of one client's records.
// A record on the same date whose normalized time equals the expected time
// wins; otherwise the first record on that date is used.
func MatchRecord(occ models.Occurrence, records []models.AttendanceRecord) *models.AttendanceRecord {
	want := NormalizeTime(occ.ExpectedTime)
	day := occ.Date.String()

	var fallback *models.AttendanceRecord
	for i := range records {
		rec := &records[i]
		if rec.ScheduledDate.String() != day {
			continue
		}
		if NormalizeTime(rec.ScheduledTime) == want {
			return rec
		}
		if fallback == nil {
			fallback = rec
		}
	}
	return fallback
}

// Reconcile merges a client's occurrences with stored records, producing
// exactly one entry per occurrence ordered by date then time. Records that
// belong to other clients are ignored.
func Reconcile(client models.Client, occurrences iter.Seq[models.Occurrence], records []models.AttendanceRecord) []models.DayEntry {
	byDate := make(map[string][]models.AttendanceRecord)
	for _, rec := range records {
		if rec.ClientID != client.ID {
			continue
		}
		key := rec.ScheduledDate.String()
		byDate[key] = append(byDate[key], rec)
	}

	var entries []models.DayEntry
	for occ := range occurrences {
		entries = append(entries, NewDayEntry(client, occ, MatchRecord(occ, byDate[occ.Date.String()])))
	}
	SortEntries(entries)
	return entries
}

// NewDayEntry presents an occurrence with its matched record, or as the
// implicit scheduled placeholder when rec is nil.
func NewDayEntry(client models.Client, occ models.Occurrence, rec *models.AttendanceRecord) models.DayEntry {
	entry := models.DayEntry{
		ClientID:         client.ID,
		ClientName:       client.Name,
		TrainingPrograms: client.TrainingPrograms,
		Date:             occ.Date,
		Weekday:          occ.Weekday,
		ScheduledTime:    occ.ExpectedTime,
		Status:           models.AttendanceStatusScheduled,
	}
	if rec == nil {
		return entry
	}

	id := rec.ID
	markedAt := rec.CreatedAt
	entry.Recorded = true
	entry.AttendanceID = &id
	entry.Status = rec.Status
	entry.ScheduledTime = NormalizeTime(rec.ScheduledTime)
	entry.WorkoutID = rec.WorkoutID
	entry.RescheduledTo = rec.RescheduledTo
	entry.RescheduleReason = rec.RescheduleReason
	entry.WorkoutStartedAt = rec.WorkoutStartedAt
	entry.MarkedAt = &markedAt
	return entry
}

// SortEntries orders entries by date, normalized time, then client name.
func SortEntries(entries []models.DayEntry) {
	slices.SortStableFunc(entries, func(a, b models.DayEntry) int {
		if c := a.Date.Compare(b.Date.Time); c != 0 {
			return c
		}
		if c := cmp.Compare(NormalizeTime(a.ScheduledTime), NormalizeTime(b.ScheduledTime)); c != 0 {
			return c
		}
		return cmp.Compare(a.ClientName, b.ClientName)
	})
}

// MonthDays adds day-of-month coordinates for calendar rendering.
func MonthDays(entries []models.DayEntry) []models.MonthDayEntry {
	out := make([]models.MonthDayEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, models.MonthDayEntry{DayEntry: entry, DayOfMonth: entry.Date.Day()})
	}
	return out
}

// Summarize counts entries per presented status.
func Summarize(entries []models.DayEntry) models.AttendanceSummary {
	summary := models.AttendanceSummary{Total: len(entries)}
	for _, entry := range entries {
		switch entry.Status {
		case models.AttendanceStatusScheduled:
			summary.Scheduled++
		case models.AttendanceStatusAttending:
			summary.Attending++
		case models.AttendanceStatusAttended:
			summary.Attended++
		case models.AttendanceStatusMissed:
			summary.Missed++
		case models.AttendanceStatusRescheduled:
			summary.Rescheduled++
		}
	}
	return summary
}
