package dto

import "github.com/noah-isme/trainer-attendance-api/internal/models"

// UpdateScheduleRequest replaces a client's recurring-schedule descriptor.
type UpdateScheduleRequest struct {
	ScheduleSet  models.ScheduleSet        `json:"schedule_set" validate:"required,schedule_set"`
	CustomDays   []models.Weekday          `json:"custom_days" validate:"omitempty,dive,weekday"`
	SessionTimes map[models.Weekday]string `json:"session_times" validate:"omitempty,dive,keys,weekday,endkeys,time_of_day"`
}

// Schedule converts the request into the persisted descriptor.
func (r UpdateScheduleRequest) Schedule() models.Schedule {
	s := models.Schedule{Set: r.ScheduleSet, CustomDays: r.CustomDays}
	if len(r.SessionTimes) > 0 {
		s.SessionTimes = models.SessionTimes(r.SessionTimes)
	}
	return s
}
