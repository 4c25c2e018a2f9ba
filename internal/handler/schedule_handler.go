package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trainer-attendance-api/internal/dto"
	"github.com/noah-isme/trainer-attendance-api/internal/models"
	"github.com/noah-isme/trainer-attendance-api/pkg/response"
)

type scheduleService interface {
	Today(ctx context.Context, claims *models.JWTClaims) (*dto.TodaySchedule, error)
	Upcoming(ctx context.Context, claims *models.JWTClaims, days int) (*dto.UpcomingSchedule, error)
	ClientMonth(ctx context.Context, claims *models.JWTClaims, clientID string, year, month int) (*dto.MonthlyAttendance, error)
	ClientRange(ctx context.Context, claims *models.JWTClaims, clientID, fromRaw, toRaw string) (*dto.AttendanceRange, error)
	ClientHistory(ctx context.Context, claims *models.JWTClaims, clientID string, limit int) (*dto.AttendanceHistory, error)
	Attending(ctx context.Context, claims *models.JWTClaims) ([]models.AttendingClient, error)
	ExportClientMonth(ctx context.Context, claims *models.JWTClaims, clientID string, year, month int, rawFormat string) (*dto.ExportFile, error)
}

// ScheduleHandler serves the reconciled schedule views.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler builds a new handler.
func NewScheduleHandler(service scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// Today godoc
// @Summary Today's sessions
// @Description Every active client's session today, merged with recorded attendance
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /schedule/today [get]
func (h *ScheduleHandler) Today(c *gin.Context) {
	today, err := h.service.Today(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, today, nil)
}

// Upcoming godoc
// @Summary Upcoming sessions
// @Tags Schedule
// @Produce json
// @Param days query int false "Window length in days (default 7)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedule/upcoming [get]
func (h *ScheduleHandler) Upcoming(c *gin.Context) {
	days, err := queryInt(c, "days")
	if err != nil {
		response.Error(c, err)
		return
	}
	upcoming, err := h.service.Upcoming(c.Request.Context(), claimsFromContext(c), days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, upcoming, nil)
}

// ClientMonth godoc
// @Summary Monthly attendance for a client
// @Tags Schedule
// @Produce json
// @Param id path string true "Client ID"
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /clients/{id}/attendance/monthly [get]
func (h *ScheduleHandler) ClientMonth(c *gin.Context) {
	year, month, err := yearMonth(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.ClientMonth(c.Request.Context(), claimsFromContext(c), c.Param("id"), year, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ClientRange godoc
// @Summary Attendance for a client over a date range
// @Tags Schedule
// @Produce json
// @Param id path string true "Client ID"
// @Param from query string true "First day (YYYY-MM-DD)"
// @Param to query string true "Last day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /clients/{id}/attendance/range [get]
func (h *ScheduleHandler) ClientRange(c *gin.Context) {
	result, err := h.service.ClientRange(c.Request.Context(), claimsFromContext(c), c.Param("id"), c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ClientHistory godoc
// @Summary Recorded attendance for a client, newest first
// @Tags Schedule
// @Produce json
// @Param id path string true "Client ID"
// @Param limit query int false "Maximum records (default 30)"
// @Success 200 {object} response.Envelope
// @Router /clients/{id}/attendance [get]
func (h *ScheduleHandler) ClientHistory(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.Error(c, err)
		return
	}
	history, err := h.service.ClientHistory(c.Request.Context(), claimsFromContext(c), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history.Records, map[string]interface{}{"limit": history.Limit})
}

// Attending godoc
// @Summary Clients currently working out
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/attending [get]
func (h *ScheduleHandler) Attending(c *gin.Context) {
	clients, err := h.service.Attending(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clients, map[string]interface{}{"total": len(clients)})
}

// ExportClientMonth godoc
// @Summary Export monthly attendance
// @Tags Schedule
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Client ID"
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /clients/{id}/attendance/monthly/export [get]
func (h *ScheduleHandler) ExportClientMonth(c *gin.Context) {
	year, month, err := yearMonth(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.service.ExportClientMonth(c.Request.Context(), claimsFromContext(c), c.Param("id"), year, month, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}

func yearMonth(c *gin.Context) (int, int, error) {
	year, err := queryInt(c, "year")
	if err != nil {
		return 0, 0, err
	}
	month, err := queryInt(c, "month")
	if err != nil {
		return 0, 0, err
	}
	return year, month, nil
}
