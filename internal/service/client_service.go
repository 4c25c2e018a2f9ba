package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/trainer-attendance-api/internal/dto"
	"github.com/noah-isme/trainer-attendance-api/internal/models"
	"github.com/noah-isme/trainer-attendance-api/internal/schedule"
	appErrors "github.com/noah-isme/trainer-attendance-api/pkg/errors"
)

type clientStore interface {
	FindByID(ctx context.Context, trainerID, id string) (*models.Client, error)
	ListByTrainer(ctx context.Context, trainerID string, archived bool) ([]models.Client, error)
	UpdateSchedule(ctx context.Context, trainerID, id string, s models.Schedule) (*models.Client, error)
}

// ClientService exposes the trainer's client roster and schedule descriptors.
type ClientService struct {
	trainers  trainerResolver
	clients   clientStore
	cache     scheduleInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClientService constructs the client service.
func NewClientService(trainers trainerResolver, clients clientStore, cache scheduleInvalidator, validate *validator.Validate, logger *zap.Logger) *ClientService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerScheduleValidations(validate)
	return &ClientService{trainers: trainers, clients: clients, cache: cache, validator: validate, logger: logger}
}

// List returns the trainer's clients filtered by archive state.
func (s *ClientService) List(ctx context.Context, claims *models.JWTClaims, archived bool) ([]models.Client, error) {
	if err := requireClaims(claims); err != nil {
		return nil, err
	}
	trainer, err := s.trainers.ResolveTrainer(ctx, claims)
	if err != nil {
		return nil, err
	}
	clients, err := s.clients.ListByTrainer(ctx, trainer.ID, archived)
	if err != nil {
		return nil, persistenceError(err, "failed to list clients")
	}
	if clients == nil {
		clients = []models.Client{}
	}
	return clients, nil
}

// UpdateSchedule validates and stores a new schedule descriptor for a client.
func (s *ClientService) UpdateSchedule(ctx context.Context, claims *models.JWTClaims, clientID string, req dto.UpdateScheduleRequest) (*models.Client, error) {
	if err := requireClaims(claims); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	descriptor := req.Schedule()
	if err := schedule.Validate(descriptor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	trainer, err := s.trainers.ResolveTrainer(ctx, claims)
	if err != nil {
		return nil, err
	}

	client, err := s.clients.UpdateSchedule(ctx, trainer.ID, clientID, descriptor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrClientNotFound
		}
		return nil, persistenceError(err, "failed to update client schedule")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, trainerCachePattern(trainer.ID)); err != nil {
			s.logger.Warn("failed to invalidate schedule cache", zap.String("trainer_id", trainer.ID), zap.Error(err))
		}
	}
	s.logger.Info("client schedule updated",
		zap.String("trainer_id", trainer.ID),
		zap.String("client_id", clientID),
		zap.String("schedule_set", string(descriptor.Set)),
	)
	return client, nil
}

func loadClient(ctx context.Context, clients clientStore, trainerID, clientID string) (*models.Client, error) {
	if clientID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "client id is required")
	}
	client, err := clients.FindByID(ctx, trainerID, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrClientNotFound
		}
		return nil, persistenceError(err, "failed to load client")
	}
	return client, nil
}
