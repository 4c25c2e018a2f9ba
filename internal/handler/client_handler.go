package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trainer-attendance-api/internal/dto"
	"github.com/noah-isme/trainer-attendance-api/internal/models"
	"github.com/noah-isme/trainer-attendance-api/pkg/response"
)

type clientService interface {
	List(ctx context.Context, claims *models.JWTClaims, archived bool) ([]models.Client, error)
	UpdateSchedule(ctx context.Context, claims *models.JWTClaims, clientID string, req dto.UpdateScheduleRequest) (*models.Client, error)
}

// ClientHandler exposes the trainer's client roster.
type ClientHandler struct {
	service clientService
}

// NewClientHandler builds a new handler.
func NewClientHandler(service clientService) *ClientHandler {
	return &ClientHandler{service: service}
}

// List godoc
// @Summary List clients
// @Tags Clients
// @Produce json
// @Param archived query bool false "Return archived clients instead of active ones"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	archived, err := strconv.ParseBool(c.DefaultQuery("archived", "false"))
	if err != nil {
		response.Error(c, invalidPayload(err, "archived must be a boolean"))
		return
	}
	clients, err := h.service.List(c.Request.Context(), claimsFromContext(c), archived)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clients, map[string]interface{}{"total": len(clients)})
}

// UpdateSchedule godoc
// @Summary Replace a client's recurring schedule
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Param payload body dto.UpdateScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /clients/{id}/schedule [put]
func (h *ClientHandler) UpdateSchedule(c *gin.Context) {
	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid schedule payload"))
		return
	}
	client, err := h.service.UpdateSchedule(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, client, nil)
}
