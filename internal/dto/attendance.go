package dto

import "github.com/noah-isme/trainer-attendance-api/internal/models"

// SetAttendanceStatusRequest marks one occurrence. The occurrence is addressed
// by its natural key; scheduled_time may be HH:MM or HH:MM:SS.
type SetAttendanceStatusRequest struct {
	ClientID         string                  `json:"client_id" validate:"required"`
	ScheduledDate    string                  `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	ScheduledTime    string                  `json:"scheduled_time" validate:"required,time_of_day"`
	Status           models.AttendanceStatus `json:"status" validate:"required,attendance_status"`
	WorkoutID        *string                 `json:"workout_id,omitempty" validate:"omitempty,min=1,max=64"`
	RescheduledTo    *string                 `json:"rescheduled_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
	RescheduleReason *string                 `json:"reschedule_reason,omitempty" validate:"omitempty,max=500"`
}

// SetAttendanceStatusResult reports the stored record and whether it was created.
type SetAttendanceStatusResult struct {
	Record  models.AttendanceRecord `json:"record"`
	Created bool                    `json:"created"`
}

// RecordExerciseWeightRequest sets the last weight used for one exercise.
type RecordExerciseWeightRequest struct {
	Exercise string   `json:"exercise" validate:"required,max=100"`
	Weight   *float64 `json:"weight" validate:"required,gte=0"`
}
