package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/trainer-attendance-api/internal/models"
)

const clientColumns = `id, trainer_id, name, phone, training_programs, schedule_set, custom_days, session_times, is_archived, archived_at, created_at, updated_at`

// ClientRepository reads clients and their schedule descriptors.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository constructs the repository.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// FindByID returns the client when it belongs to trainerID.
func (r *ClientRepository) FindByID(ctx context.Context, trainerID, id string) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1 AND trainer_id = $2 LIMIT 1`
	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, id, trainerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return &client, nil
}

// ListByTrainer returns the trainer's clients filtered by archive flag, ordered by name.
func (r *ClientRepository) ListByTrainer(ctx context.Context, trainerID string, archived bool) ([]models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE trainer_id = $1 AND is_archived = $2 ORDER BY name ASC, id ASC`
	var clients []models.Client
	if err := r.db.SelectContext(ctx, &clients, query, trainerID, archived); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// UpdateSchedule replaces the client's schedule descriptor.
func (r *ClientRepository) UpdateSchedule(ctx context.Context, trainerID, id string, s models.Schedule) (*models.Client, error) {
	days := make(pq.StringArray, 0, len(s.CustomDays))
	for _, d := range s.CustomDays {
		days = append(days, string(d))
	}
	times := s.SessionTimes
	if times == nil {
		times = models.SessionTimes{}
	}

	query := `UPDATE clients SET schedule_set = $3, custom_days = $4, session_times = $5, updated_at = $6
WHERE id = $1 AND trainer_id = $2
RETURNING ` + clientColumns
	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, id, trainerID, s.Set, days, times, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("update client schedule: %w", err)
	}
	return &client, nil
}
