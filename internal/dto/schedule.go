package dto

import "github.com/noah-isme/trainer-attendance-api/internal/models"

// TodaySchedule is the reconciled schedule for the trainer's current day.
type TodaySchedule struct {
	Date    models.Date              `json:"date"`
	Weekday models.Weekday           `json:"weekday"`
	Entries []models.DayEntry        `json:"entries"`
	Summary models.AttendanceSummary `json:"summary"`
}

// UpcomingSchedule lists expected sessions from today onward.
type UpcomingSchedule struct {
	From    models.Date            `json:"from"`
	To      models.Date            `json:"to"`
	Days    int                    `json:"days"`
	Entries []models.UpcomingEntry `json:"entries"`
}

// MonthlyAttendance is one client's reconciled calendar month.
type MonthlyAttendance struct {
	ClientID   string                   `json:"client_id"`
	ClientName string                   `json:"client_name"`
	Year       int                      `json:"year"`
	Month      int                      `json:"month"`
	Days       []models.MonthDayEntry   `json:"days"`
	Summary    models.AttendanceSummary `json:"summary"`
}

// AttendanceRange is one client's reconciled entries over an inclusive window.
type AttendanceRange struct {
	ClientID string                   `json:"client_id"`
	From     models.Date              `json:"from"`
	To       models.Date              `json:"to"`
	Entries  []models.DayEntry        `json:"entries"`
	Summary  models.AttendanceSummary `json:"summary"`
}

// AttendanceHistory lists stored records for one client, newest first.
type AttendanceHistory struct {
	ClientID string                    `json:"client_id"`
	Limit    int                       `json:"limit"`
	Records  []models.AttendanceRecord `json:"records"`
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}
