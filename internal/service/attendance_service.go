package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/trainer-attendance-api/internal/dto"
	"github.com/noah-isme/trainer-attendance-api/internal/models"
	"github.com/noah-isme/trainer-attendance-api/internal/repository"
	"github.com/noah-isme/trainer-attendance-api/internal/schedule"
	appErrors "github.com/noah-isme/trainer-attendance-api/pkg/errors"
)

type trainerResolver interface {
	ResolveTrainer(ctx context.Context, claims *models.JWTClaims) (*models.User, error)
}

type attendanceStore interface {
	FindByNaturalKey(ctx context.Context, clientID string, date models.Date, scheduledTime string) (*models.AttendanceRecord, error)
	FindByID(ctx context.Context, trainerID, id string) (*models.AttendanceRecord, error)
	Insert(ctx context.Context, rec *models.AttendanceRecord) error
	Update(ctx context.Context, id string, upd models.AttendanceUpdate) (*models.AttendanceRecord, error)
	MergeExerciseWeight(ctx context.Context, trainerID, id, exercise string, weight float64) (*models.AttendanceRecord, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
	ListAttending(ctx context.Context, trainerID string, date models.Date) ([]models.AttendingClient, error)
}

type scheduleInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// AttendanceService owns the attendance lifecycle: status upserts by natural
// key and exercise weight tracking.
type AttendanceService struct {
	trainers  trainerResolver
	records   attendanceStore
	clients   clientStore
	cache     scheduleInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs the attendance service. cache and metrics may be nil.
func NewAttendanceService(trainers trainerResolver, records attendanceStore, clients clientStore, cache scheduleInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerScheduleValidations(validate)
	return &AttendanceService{
		trainers:  trainers,
		records:   records,
		clients:   clients,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// SetStatus upserts the attendance record for one occurrence. Any status may
// follow any other.
func (s *AttendanceService) SetStatus(ctx context.Context, claims *models.JWTClaims, req dto.SetAttendanceStatusRequest) (*dto.SetAttendanceStatusResult, error) {
	if err := requireClaims(claims); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	date, err := models.ParseDate(req.ScheduledDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheduled_date")
	}
	var rescheduledTo *models.Date
	if req.RescheduledTo != nil {
		target, err := models.ParseDate(*req.RescheduledTo)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rescheduled_to")
		}
		rescheduledTo = &target
	}

	trainer, err := s.trainers.ResolveTrainer(ctx, claims)
	if err != nil {
		return nil, err
	}
	if _, err := loadClient(ctx, s.clients, trainer.ID, req.ClientID); err != nil {
		return nil, err
	}

	scheduledTime := schedule.NormalizeTime(req.ScheduledTime)
	now := s.now().UTC()
	var startedAt *time.Time
	if req.Status == models.AttendanceStatusAttending {
		startedAt = &now
	}

	existing, err := s.records.FindByNaturalKey(ctx, req.ClientID, date, scheduledTime)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, persistenceError(err, "failed to load attendance")
	}

	if existing != nil {
		updated, err := s.records.Update(ctx, existing.ID, models.AttendanceUpdate{
			Status:           req.Status,
			WorkoutID:        req.WorkoutID,
			RescheduledTo:    rescheduledTo,
			RescheduleReason: req.RescheduleReason,
			WorkoutStartedAt: startedAt,
			UpdatedAt:        now,
		})
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.ErrAttendanceNotFound
			}
			return nil, persistenceError(err, "failed to update attendance")
		}
		s.afterWrite(ctx, trainer.ID, updated, false)
		return &dto.SetAttendanceStatusResult{Record: *updated, Created: false}, nil
	}

	record := &models.AttendanceRecord{
		TrainerID:        trainer.ID,
		ClientID:         req.ClientID,
		ScheduledDate:    date,
		ScheduledTime:    scheduledTime,
		Status:           req.Status,
		WorkoutID:        req.WorkoutID,
		RescheduledTo:    rescheduledTo,
		RescheduleReason: req.RescheduleReason,
		ExerciseWeights:  models.ExerciseWeights{},
		WorkoutStartedAt: startedAt,
		CreatedAt:        now,
	}
	if err := s.records.Insert(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicateAttendance) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "attendance for this session was recorded concurrently; retry to update it")
		}
		return nil, persistenceError(err, "failed to create attendance")
	}
	s.afterWrite(ctx, trainer.ID, record, true)
	return &dto.SetAttendanceStatusResult{Record: *record, Created: true}, nil
}

// RecordExerciseWeight stores the weight for one exercise on an attendance
// record. Other exercises on the record are left as they are.
func (s *AttendanceService) RecordExerciseWeight(ctx context.Context, claims *models.JWTClaims, attendanceID string, req dto.RecordExerciseWeightRequest) (*models.AttendanceRecord, error) {
	if err := requireClaims(claims); err != nil {
		return nil, err
	}
	if attendanceID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attendance id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exercise weight payload")
	}

	trainer, err := s.trainers.ResolveTrainer(ctx, claims)
	if err != nil {
		return nil, err
	}

	current, err := s.records.FindByID(ctx, trainer.ID, attendanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAttendanceNotFound
		}
		return nil, persistenceError(err, "failed to load attendance")
	}

	weight := *req.Weight
	if stored, ok := current.ExerciseWeights[req.Exercise]; ok && stored == weight {
		return current, nil
	}

	updated, err := s.records.MergeExerciseWeight(ctx, trainer.ID, attendanceID, req.Exercise, weight)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAttendanceNotFound
		}
		return nil, persistenceError(err, "failed to record exercise weight")
	}

	s.metrics.RecordWeightUpdate()
	s.logger.Info("exercise weight recorded",
		zap.String("trainer_id", trainer.ID),
		zap.String("attendance_id", attendanceID),
		zap.String("exercise", req.Exercise),
		zap.Float64("weight", weight),
	)
	return updated, nil
}

func (s *AttendanceService) afterWrite(ctx context.Context, trainerID string, rec *models.AttendanceRecord, created bool) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, trainerCachePattern(trainerID)); err != nil {
			s.logger.Warn("failed to invalidate schedule cache", zap.String("trainer_id", trainerID), zap.Error(err))
		}
	}
	s.metrics.RecordStatusTransition(rec.Status, created)
	s.logger.Info("attendance status set",
		zap.String("trainer_id", trainerID),
		zap.String("attendance_id", rec.ID),
		zap.String("client_id", rec.ClientID),
		zap.String("scheduled_date", rec.ScheduledDate.String()),
		zap.String("scheduled_time", rec.ScheduledTime),
		zap.String("status", string(rec.Status)),
		zap.Bool("created", created),
	)
}

func requireClaims(claims *models.JWTClaims) error {
	if claims == nil || claims.UserID == "" {
		return appErrors.ErrNotAuthenticated
	}
	return nil
}

// persistenceError keeps the store message visible in the error detail.
func persistenceError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
