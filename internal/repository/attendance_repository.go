package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/trainer-attendance-api/internal/models"
	"github.com/noah-isme/trainer-attendance-api/pkg/database"
)

// scheduled_time is a Postgres time column; lib/pq decodes it as time.Time,
// so it is read back as text to keep the HH:MM:SS form.
const attendanceColumns = `id, trainer_id, client_id, scheduled_date, scheduled_time::text AS scheduled_time, status, workout_id, rescheduled_to, reschedule_reason, exercise_weights, workout_started_at, created_at, updated_at`

// ErrDuplicateAttendance reports an insert that lost the natural-key race.
var ErrDuplicateAttendance = errors.New("attendance already recorded for this session")

// AttendanceRepository persists attendance records keyed by (client, date, time).
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// FindByNaturalKey loads the record for one occurrence. scheduledTime must already be normalized.
func (r *AttendanceRepository) FindByNaturalKey(ctx context.Context, clientID string, date models.Date, scheduledTime string) (*models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE client_id = $1 AND scheduled_date = $2 AND scheduled_time = $3 LIMIT 1`
	var rec models.AttendanceRecord
	if err := r.db.GetContext(ctx, &rec, query, clientID, date, scheduledTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance by natural key: %w", err)
	}
	return &rec, nil
}

// FindByID loads a record owned by trainerID.
func (r *AttendanceRepository) FindByID(ctx context.Context, trainerID, id string) (*models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE id = $1 AND trainer_id = $2 LIMIT 1`
	var rec models.AttendanceRecord
	if err := r.db.GetContext(ctx, &rec, query, id, trainerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return &rec, nil
}

// Insert stores a new record and refreshes rec from the returned row.
func (r *AttendanceRepository) Insert(ctx context.Context, rec *models.AttendanceRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = rec.CreatedAt
	if rec.ExerciseWeights == nil {
		rec.ExerciseWeights = models.ExerciseWeights{}
	}

	query := `INSERT INTO attendance (id, trainer_id, client_id, scheduled_date, scheduled_time, status, workout_id, rescheduled_to, reschedule_reason, exercise_weights, workout_started_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING ` + attendanceColumns
	row := r.db.QueryRowxContext(ctx, query,
		rec.ID,
		rec.TrainerID,
		rec.ClientID,
		rec.ScheduledDate,
		rec.ScheduledTime,
		rec.Status,
		rec.WorkoutID,
		rec.RescheduledTo,
		rec.RescheduleReason,
		rec.ExerciseWeights,
		rec.WorkoutStartedAt,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err := row.StructScan(rec); err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %w", ErrDuplicateAttendance, err)
		}
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

// Update applies a status change in place and returns the stored row.
func (r *AttendanceRepository) Update(ctx context.Context, id string, upd models.AttendanceUpdate) (*models.AttendanceRecord, error) {
	if upd.UpdatedAt.IsZero() {
		upd.UpdatedAt = time.Now().UTC()
	}
	query := `UPDATE attendance SET
	status = $2,
	rescheduled_to = $3,
	reschedule_reason = $4,
	workout_id = COALESCE($5, workout_id),
	workout_started_at = COALESCE($6, workout_started_at),
	updated_at = $7
WHERE id = $1
RETURNING ` + attendanceColumns
	var rec models.AttendanceRecord
	if err := r.db.GetContext(ctx, &rec, query, id, upd.Status, upd.RescheduledTo, upd.RescheduleReason, upd.WorkoutID, upd.WorkoutStartedAt, upd.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("update attendance: %w", err)
	}
	return &rec, nil
}

// MergeExerciseWeight sets one exercise in the record's weight map without
// touching the other keys.
func (r *AttendanceRepository) MergeExerciseWeight(ctx context.Context, trainerID, id, exercise string, weight float64) (*models.AttendanceRecord, error) {
	query := `UPDATE attendance SET
	exercise_weights = COALESCE(exercise_weights, '{}'::jsonb) || jsonb_build_object($3::text, $4::numeric),
	updated_at = $5
WHERE id = $1 AND trainer_id = $2
RETURNING ` + attendanceColumns
	var rec models.AttendanceRecord
	if err := r.db.GetContext(ctx, &rec, query, id, trainerID, exercise, weight, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("merge exercise weight: %w", err)
	}
	return &rec, nil
}

// List returns records matching filter ordered by date, time and creation.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	conditions := []string{"trainer_id = $1"}
	args := []interface{}{filter.TrainerID}

	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("scheduled_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("scheduled_date <= $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	order := "scheduled_date ASC, scheduled_time ASC, created_at ASC"
	if filter.NewestFirst {
		order = "scheduled_date DESC, scheduled_time DESC, created_at DESC"
	}

	query := fmt.Sprintf("SELECT %s FROM attendance WHERE %s ORDER BY %s", attendanceColumns, strings.Join(conditions, " AND "), order)
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// ListAttending returns the clients marked attending on date, joined with their names.
func (r *AttendanceRepository) ListAttending(ctx context.Context, trainerID string, date models.Date) ([]models.AttendingClient, error) {
	const query = `SELECT a.id AS attendance_id, a.client_id, c.name AS client_name, a.scheduled_time::text AS scheduled_time, a.workout_id, a.workout_started_at
FROM attendance a
JOIN clients c ON c.id = a.client_id
WHERE a.trainer_id = $1 AND a.scheduled_date = $2 AND a.status = $3
ORDER BY a.workout_started_at ASC NULLS LAST, a.scheduled_time ASC`
	var out []models.AttendingClient
	if err := r.db.SelectContext(ctx, &out, query, trainerID, date, models.AttendanceStatusAttending); err != nil {
		return nil, fmt.Errorf("list attending clients: %w", err)
	}
	return out, nil
}
