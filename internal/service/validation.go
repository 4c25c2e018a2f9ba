package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/trainer-attendance-api/internal/models"
	"github.com/noah-isme/trainer-attendance-api/internal/schedule"
)

func registerScheduleValidations(v *validator.Validate) {
	v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(fl.Field().String()).Valid()
	})
	v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return models.Weekday(fl.Field().String()).Valid()
	})
	v.RegisterValidation("schedule_set", func(fl validator.FieldLevel) bool {
		return models.ScheduleSet(fl.Field().String()).Valid()
	})
	v.RegisterValidation("time_of_day", func(fl validator.FieldLevel) bool {
		return schedule.ValidTimeOfDay(fl.Field().String())
	})
}
