package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AttendanceStatus enumerates the lifecycle states of a session.
type AttendanceStatus string

const (
	AttendanceStatusScheduled   AttendanceStatus = "scheduled"
	AttendanceStatusAttending   AttendanceStatus = "attending"
	AttendanceStatusAttended    AttendanceStatus = "attended"
	AttendanceStatusMissed      AttendanceStatus = "missed"
	AttendanceStatusRescheduled AttendanceStatus = "rescheduled"
)

// Valid reports whether the status is supported.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusScheduled, AttendanceStatusAttending, AttendanceStatusAttended,
		AttendanceStatusMissed, AttendanceStatusRescheduled:
		return true
	default:
		return false
	}
}

// ExerciseWeights keeps the last weight used per exercise, stored as jsonb.
type ExerciseWeights map[string]float64

// With returns a copy of the map with exercise set to weight.
func (w ExerciseWeights) With(exercise string, weight float64) ExerciseWeights {
	out := make(ExerciseWeights, len(w)+1)
	for k, v := range w {
		out[k] = v
	}
	out[exercise] = weight
	return out
}

// Value implements driver.Valuer.
func (w ExerciseWeights) Value() (driver.Value, error) {
	if w == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(w)
}

// Scan implements sql.Scanner.
func (w *ExerciseWeights) Scan(src interface{}) error {
	raw, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("scan exercise weights: %w", err)
	}
	out := ExerciseWeights{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("scan exercise weights: %w", err)
		}
	}
	*w = out
	return nil
}

// AttendanceRecord materialises one occurrence once the trainer acts on it.
// (client_id, scheduled_date, scheduled_time) is unique.
type AttendanceRecord struct {
	ID               string           `db:"id" json:"id"`
	TrainerID        string           `db:"trainer_id" json:"trainer_id"`
	ClientID         string           `db:"client_id" json:"client_id"`
	ScheduledDate    Date             `db:"scheduled_date" json:"scheduled_date"`
	ScheduledTime    string           `db:"scheduled_time" json:"scheduled_time"`
	Status           AttendanceStatus `db:"status" json:"status"`
	WorkoutID        *string          `db:"workout_id" json:"workout_id,omitempty"`
	RescheduledTo    *Date            `db:"rescheduled_to" json:"rescheduled_to,omitempty"`
	RescheduleReason *string          `db:"reschedule_reason" json:"reschedule_reason,omitempty"`
	ExerciseWeights  ExerciseWeights  `db:"exercise_weights" json:"exercise_weights"`
	WorkoutStartedAt *time.Time       `db:"workout_started_at" json:"workout_started_at,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceFilter narrows record listings. TrainerID is mandatory.
type AttendanceFilter struct {
	TrainerID   string
	ClientID    string
	From        *Date
	To          *Date
	Status      *AttendanceStatus
	Limit       int
	NewestFirst bool
}

// AttendanceUpdate carries the fields written when an existing record changes status.
// Nil WorkoutID / WorkoutStartedAt leave the stored value untouched; the reschedule
// fields are always written.
type AttendanceUpdate struct {
	Status           AttendanceStatus
	WorkoutID        *string
	RescheduledTo    *Date
	RescheduleReason *string
	WorkoutStartedAt *time.Time
	UpdatedAt        time.Time
}

// DayEntry is one reconciled occurrence. Recorded is false for the implicit
// scheduled placeholder, in which case AttendanceID and timestamps are nil.
type DayEntry struct {
	ClientID         string           `json:"client_id"`
	ClientName       string           `json:"client_name,omitempty"`
	TrainingPrograms []string         `json:"training_programs,omitempty"`
	Date             Date             `json:"date"`
	Weekday          Weekday          `json:"weekday"`
	ScheduledTime    string           `json:"scheduled_time"`
	Status           AttendanceStatus `json:"status"`
	Recorded         bool             `json:"recorded"`
	AttendanceID     *string          `json:"attendance_id"`
	WorkoutID        *string          `json:"workout_id"`
	RescheduledTo    *Date            `json:"rescheduled_to"`
	RescheduleReason *string          `json:"reschedule_reason"`
	WorkoutStartedAt *time.Time       `json:"workout_started_at"`
	MarkedAt         *time.Time       `json:"marked_at"`
}

// MonthDayEntry adds calendar coordinates to a reconciled entry.
type MonthDayEntry struct {
	DayEntry
	DayOfMonth int `json:"day_of_month"`
}

// AttendanceSummary counts reconciled entries per presented status.
type AttendanceSummary struct {
	Total       int `json:"total_scheduled"`
	Scheduled   int `json:"scheduled"`
	Attending   int `json:"attending"`
	Attended    int `json:"attended"`
	Missed      int `json:"missed"`
	Rescheduled int `json:"rescheduled"`
}

// UpcomingEntry is an unreconciled future occurrence for one client.
type UpcomingEntry struct {
	Date          Date             `json:"date"`
	Weekday       Weekday          `json:"weekday"`
	ClientID      string           `json:"client_id"`
	ClientName    string           `json:"client_name"`
	ScheduledTime string           `json:"scheduled_time"`
	Status        AttendanceStatus `json:"status"`
}

// AttendingClient is a client currently mid-session.
type AttendingClient struct {
	AttendanceID     string     `db:"attendance_id" json:"attendance_id"`
	ClientID         string     `db:"client_id" json:"client_id"`
	ClientName       string     `db:"client_name" json:"client_name"`
	ScheduledTime    string     `db:"scheduled_time" json:"scheduled_time"`
	WorkoutID        *string    `db:"workout_id" json:"workout_id,omitempty"`
	WorkoutStartedAt *time.Time `db:"workout_started_at" json:"workout_started_at,omitempty"`
}
