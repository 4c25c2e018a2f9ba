package models

import (
	"time"

	"github.com/lib/pq"
)

// Client is a trainee owned by one trainer.
type Client struct {
	ID               string         `db:"id" json:"id"`
	TrainerID        string         `db:"trainer_id" json:"trainer_id"`
	Name             string         `db:"name" json:"name"`
	Phone            string         `db:"phone" json:"phone"`
	TrainingPrograms pq.StringArray `db:"training_programs" json:"training_programs"`
	ScheduleSet      ScheduleSet    `db:"schedule_set" json:"schedule_set"`
	CustomDays       pq.StringArray `db:"custom_days" json:"custom_days"`
	SessionTimes     SessionTimes   `db:"session_times" json:"session_times"`
	IsArchived       bool           `db:"is_archived" json:"is_archived"`
	ArchivedAt       *time.Time     `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// Schedule returns the client's recurring-schedule descriptor.
func (c Client) Schedule() Schedule {
	days := make([]Weekday, 0, len(c.CustomDays))
	for _, d := range c.CustomDays {
		days = append(days, Weekday(d))
	}
	return Schedule{Set: c.ScheduleSet, CustomDays: days, SessionTimes: c.SessionTimes}
}
