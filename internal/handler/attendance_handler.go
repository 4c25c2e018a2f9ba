package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trainer-attendance-api/internal/dto"
	"github.com/noah-isme/trainer-attendance-api/internal/models"
	"github.com/noah-isme/trainer-attendance-api/pkg/response"
)

type attendanceService interface {
	SetStatus(ctx context.Context, claims *models.JWTClaims, req dto.SetAttendanceStatusRequest) (*dto.SetAttendanceStatusResult, error)
	RecordExerciseWeight(ctx context.Context, claims *models.JWTClaims, attendanceID string, req dto.RecordExerciseWeightRequest) (*models.AttendanceRecord, error)
}

// AttendanceHandler exposes attendance write endpoints.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler builds a new handler.
func NewAttendanceHandler(service attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// SetStatus godoc
// @Summary Set attendance status for a session
// @Description Creates the record for a scheduled session or updates the existing one
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.SetAttendanceStatusRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) SetStatus(c *gin.Context) {
	var req dto.SetAttendanceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid attendance payload"))
		return
	}

	result, err := h.service.SetStatus(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	response.JSON(c, status, result.Record, map[string]interface{}{"created": result.Created})
}

// RecordWeight godoc
// @Summary Record exercise weight
// @Description Stores the last weight used for one exercise on an attendance record
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Attendance ID"
// @Param payload body dto.RecordExerciseWeightRequest true "Weight payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/{id}/weights [put]
func (h *AttendanceHandler) RecordWeight(c *gin.Context) {
	var req dto.RecordExerciseWeightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid weight payload"))
		return
	}

	record, err := h.service.RecordExerciseWeight(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
