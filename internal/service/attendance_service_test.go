package service

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/trainer-attendance-api/internal/dto"
	"github.com/noah-isme/trainer-attendance-api/internal/models"
	"github.com/noah-isme/trainer-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/trainer-attendance-api/pkg/errors"
)

// memoryAttendanceStore is an in-memory attendance table. hideOnFind makes
// natural-key lookups miss, which is how a concurrent insert looks.
type memoryAttendanceStore struct {
	records    []models.AttendanceRecord
	reads      int
	merges     int
	listCalls  int
	insertErr  error
	listErr    error
	hideOnFind bool
}

func (m *memoryAttendanceStore) FindByNaturalKey(ctx context.Context, clientID string, date models.Date, scheduledTime string) (*models.AttendanceRecord, error) {
	m.reads++
	if m.hideOnFind {
		return nil, sql.ErrNoRows
	}
	for i := range m.records {
		rec := m.records[i]
		if rec.ClientID == clientID && rec.ScheduledDate.String() == date.String() && rec.ScheduledTime == scheduledTime {
			return &rec, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryAttendanceStore) FindByID(ctx context.Context, trainerID, id string) (*models.AttendanceRecord, error) {
	m.reads++
	for i := range m.records {
		if m.records[i].ID == id && m.records[i].TrainerID == trainerID {
			rec := m.records[i]
			return &rec, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryAttendanceStore) Insert(ctx context.Context, rec *models.AttendanceRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	for _, existing := range m.records {
		if existing.ClientID == rec.ClientID && existing.ScheduledDate.String() == rec.ScheduledDate.String() && existing.ScheduledTime == rec.ScheduledTime {
			return fmt.Errorf("%w: duplicate key value violates unique constraint", repository.ErrDuplicateAttendance)
		}
	}
	rec.ID = fmt.Sprintf("att-%d", len(m.records)+1)
	rec.UpdatedAt = rec.CreatedAt
	m.records = append(m.records, *rec)
	return nil
}

func (m *memoryAttendanceStore) Update(ctx context.Context, id string, upd models.AttendanceUpdate) (*models.AttendanceRecord, error) {
	for i := range m.records {
		rec := &m.records[i]
		if rec.ID != id {
			continue
		}
		rec.Status = upd.Status
		rec.RescheduledTo = upd.RescheduledTo
		rec.RescheduleReason = upd.RescheduleReason
		if upd.WorkoutID != nil {
			rec.WorkoutID = upd.WorkoutID
		}
		if upd.WorkoutStartedAt != nil {
			rec.WorkoutStartedAt = upd.WorkoutStartedAt
		}
		rec.UpdatedAt = upd.UpdatedAt
		out := *rec
		return &out, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memoryAttendanceStore) MergeExerciseWeight(ctx context.Context, trainerID, id, exercise string, weight float64) (*models.AttendanceRecord, error) {
	m.merges++
	for i := range m.records {
		rec := &m.records[i]
		if rec.ID == id && rec.TrainerID == trainerID {
			rec.ExerciseWeights = rec.ExerciseWeights.With(exercise, weight)
			out := *rec
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryAttendanceStore) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.AttendanceRecord
	for _, rec := range m.records {
		if rec.TrainerID != filter.TrainerID {
			continue
		}
		if filter.ClientID != "" && rec.ClientID != filter.ClientID {
			continue
		}
		if filter.From != nil && rec.ScheduledDate.Before(filter.From.Time) {
			continue
		}
		if filter.To != nil && rec.ScheduledDate.After(filter.To.Time) {
			continue
		}
		if filter.Status != nil && rec.Status != *filter.Status {
			continue
		}
		out = append(out, rec)
	}
	slices.SortStableFunc(out, func(a, b models.AttendanceRecord) int {
		if c := a.ScheduledDate.Compare(b.ScheduledDate.Time); c != 0 {
			return c
		}
		if c := cmp.Compare(a.ScheduledTime, b.ScheduledTime); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if filter.NewestFirst {
		slices.Reverse(out)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memoryAttendanceStore) ListAttending(ctx context.Context, trainerID string, date models.Date) ([]models.AttendingClient, error) {
	var out []models.AttendingClient
	for _, rec := range m.records {
		if rec.TrainerID == trainerID && rec.ScheduledDate.String() == date.String() && rec.Status == models.AttendanceStatusAttending {
			out = append(out, models.AttendingClient{
				AttendanceID:     rec.ID,
				ClientID:         rec.ClientID,
				ScheduledTime:    rec.ScheduledTime,
				WorkoutID:        rec.WorkoutID,
				WorkoutStartedAt: rec.WorkoutStartedAt,
			})
		}
	}
	return out, nil
}

type memoryClientStore struct {
	clients map[string]models.Client
	reads   int
	updated *models.Schedule
}

func (m *memoryClientStore) FindByID(ctx context.Context, trainerID, id string) (*models.Client, error) {
	m.reads++
	client, ok := m.clients[id]
	if !ok || client.TrainerID != trainerID {
		return nil, sql.ErrNoRows
	}
	return &client, nil
}

func (m *memoryClientStore) ListByTrainer(ctx context.Context, trainerID string, archived bool) ([]models.Client, error) {
	m.reads++
	var out []models.Client
	for _, client := range m.clients {
		if client.TrainerID == trainerID && client.IsArchived == archived {
			out = append(out, client)
		}
	}
	slices.SortFunc(out, func(a, b models.Client) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (m *memoryClientStore) UpdateSchedule(ctx context.Context, trainerID, id string, s models.Schedule) (*models.Client, error) {
	client, ok := m.clients[id]
	if !ok || client.TrainerID != trainerID {
		return nil, sql.ErrNoRows
	}
	days := make([]string, 0, len(s.CustomDays))
	for _, d := range s.CustomDays {
		days = append(days, string(d))
	}
	client.ScheduleSet = s.Set
	client.CustomDays = days
	client.SessionTimes = s.SessionTimes
	m.clients[id] = client
	m.updated = &s
	return &client, nil
}

type recordingInvalidator struct {
	patterns []string
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, pattern string) error {
	r.patterns = append(r.patterns, pattern)
	return nil
}

type attendanceFixture struct {
	auth      *mockAuthRepo
	records   *memoryAttendanceStore
	clients   *memoryClientStore
	cache     *recordingInvalidator
	svc       *AttendanceService
	claims    *models.JWTClaims
	clock     time.Time
	validator *validator.Validate
}

func newAttendanceFixture(t *testing.T) *attendanceFixture {
	t.Helper()
	clients := &memoryClientStore{clients: map[string]models.Client{
		"client-1": {ID: "client-1", TrainerID: "trainer-1", Name: "Dana", ScheduleSet: models.ScheduleSetSunday},
		"client-2": {ID: "client-2", TrainerID: "trainer-2", Name: "Other", ScheduleSet: models.ScheduleSetSunday},
	}}
	f := &attendanceFixture{
		auth:      &mockAuthRepo{userByID: &models.User{ID: "trainer-1", AuthID: "auth-1", Active: true}},
		records:   &memoryAttendanceStore{},
		clients:   clients,
		cache:     &recordingInvalidator{},
		claims:    &models.JWTClaims{UserID: "auth-1"},
		clock:     time.Date(2027, time.March, 2, 9, 3, 0, 0, time.UTC),
		validator: validator.New(),
	}
	auth := NewAuthService(f.auth, f.validator, zap.NewNop(), testAuthConfig())
	f.svc = NewAttendanceService(auth, f.records, f.clients, f.cache, NewMetricsService(), f.validator, zap.NewNop())
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func setStatus(clientID, date, at string, status models.AttendanceStatus) dto.SetAttendanceStatusRequest {
	return dto.SetAttendanceStatusRequest{ClientID: clientID, ScheduledDate: date, ScheduledTime: at, Status: status}
}

func TestSetStatusRequiresAuthentication(t *testing.T) {
	f := newAttendanceFixture(t)

	for _, claims := range []*models.JWTClaims{nil, {}} {
		_, err := f.svc.SetStatus(context.Background(), claims, setStatus("client-1", "2027-03-02", "09:00", models.AttendanceStatusAttended))
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrNotAuthenticated))
		assert.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status)
	}
	assert.Zero(t, f.auth.authLookups)
	assert.Zero(t, f.clients.reads)
	assert.Zero(t, f.records.reads)
}

func TestSetStatusAttendingThenAttended(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	started := f.clock

	first, err := f.svc.SetStatus(ctx, f.claims, setStatus("client-1", "2027-03-02", "09:00", models.AttendanceStatusAttending))
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, "09:00:00", first.Record.ScheduledTime)
	assert.Equal(t, "trainer-1", first.Record.TrainerID)
	require.NotNil(t, first.Record.WorkoutStartedAt)

	f.clock = f.clock.Add(50 * time.Minute)
	second, err := f.svc.SetStatus(ctx, f.claims, setStatus("client-1", "2027-03-02", "09:00:00", models.AttendanceStatusAttended))
	require.NoError(t, err)
	assert.False(t, second.Created)

	require.Len(t, f.records.records, 1)
	stored := f.records.records[0]
	assert.Equal(t, models.AttendanceStatusAttended, stored.Status)
	require.NotNil(t, stored.WorkoutStartedAt)
	assert.True(t, started.Equal(*stored.WorkoutStartedAt))
}

func TestSetStatusReenteringAttendingRefreshesStart(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()

	_, err := f.svc.SetStatus(ctx, f.claims, setStatus("client-1", "2027-03-02", "09:00", models.AttendanceStatusAttending))
	require.NoError(t, err)
	_, err = f.svc.SetStatus(ctx, f.claims, setStatus("client-1", "2027-03-02", "09:00", models.AttendanceStatusMissed))
	require.NoError(t, err)

	f.clock = f.clock.Add(time.Hour)
	res, err := f.svc.SetStatus(ctx, f.claims, setStatus("client-1", "2027-03-02", "09:00", models.AttendanceStatusAttending))
	require.NoError(t, err)
	require.NotNil(t, res.Record.WorkoutStartedAt)
	assert.True(t, f.clock.Equal(*res.Record.WorkoutStartedAt))
	assert.Len(t, f.records.records, 1)
}

func TestSetStatusWritesRescheduleFieldsAsPassed(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()

	target := "2027-03-05"
	reason := "travel"
	req := setStatus("client-1", "2027-03-02", "09:00", models.AttendanceStatusRescheduled)
	req.RescheduledTo = &target
	req.RescheduleReason = &reason
	res, err := f.svc.SetStatus(ctx, f.claims, req)
	require.NoError(t, err)
	require.NotNil(t, res.Record.RescheduledTo)
	assert.Equal(t, target, res.Record.RescheduledTo.String())

	res, err = f.svc.SetStatus(ctx, f.claims, setStatus("client-1", "2027-03-02", "09:00", models.AttendanceStatusAttended))
	require.NoError(t, err)
	assert.Nil(t, res.Record.RescheduledTo)
	assert.Nil(t, res.Record.RescheduleReason)
}

func TestSetStatusKeepsWorkoutWhenOmitted(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()

	workout := "workout-7"
	req := setStatus("client-1", "2027-03-02", "09:00", models.AttendanceStatusAttending)
	req.WorkoutID = &workout
	_, err := f.svc.SetStatus(ctx, f.claims, req)
	require.NoError(t, err)

	res, err := f.svc.SetStatus(ctx, f.claims, setStatus("client-1", "2027-03-02", "09:00", models.AttendanceStatusAttended))
	require.NoError(t, err)
	require.NotNil(t, res.Record.WorkoutID)
	assert.Equal(t, workout, *res.Record.WorkoutID)
}

func TestSetStatusValidation(t *testing.T) {
	f := newAttendanceFixture(t)
	cases := map[string]dto.SetAttendanceStatusRequest{
		"unknown status": setStatus("client-1", "2027-03-02", "09:00", "done"),
		"bad time":       setStatus("client-1", "2027-03-02", "9am", models.AttendanceStatusAttended),
		"bad date":       setStatus("client-1", "02/03/2027", "09:00", models.AttendanceStatusAttended),
		"missing client": setStatus("", "2027-03-02", "09:00", models.AttendanceStatusAttended),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.SetStatus(context.Background(), f.claims, req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
	assert.Zero(t, f.records.reads)
	assert.Zero(t, f.auth.authLookups)
}

func TestSetStatusTrainerNotFound(t *testing.T) {
	f := newAttendanceFixture(t)

	_, err := f.svc.SetStatus(context.Background(), &models.JWTClaims{UserID: "stranger"}, setStatus("client-1", "2027-03-02", "09:00", models.AttendanceStatusAttended))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrTrainerNotFound))
	assert.Zero(t, f.records.reads)
}

func TestSetStatusClientOfAnotherTrainer(t *testing.T) {
	f := newAttendanceFixture(t)

	_, err := f.svc.SetStatus(context.Background(), f.claims, setStatus("client-2", "2027-03-02", "09:00", models.AttendanceStatusAttended))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrClientNotFound))
	assert.Zero(t, f.records.reads)
	assert.Empty(t, f.records.records)
}

func TestSetStatusInsertRaceIsConflict(t *testing.T) {
	f := newAttendanceFixture(t)
	f.records.records = []models.AttendanceRecord{{
		ID:            "att-1",
		TrainerID:     "trainer-1",
		ClientID:      "client-1",
		ScheduledDate: models.NewDate(2027, time.March, 2),
		ScheduledTime: "09:00:00",
		Status:        models.AttendanceStatusAttending,
	}}
	f.records.hideOnFind = true

	_, err := f.svc.SetStatus(context.Background(), f.claims, setStatus("client-1", "2027-03-02", "09:00", models.AttendanceStatusAttended))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Len(t, f.records.records, 1)
	assert.Empty(t, f.cache.patterns)
}

func TestSetStatusPersistenceFailurePassesMessage(t *testing.T) {
	f := newAttendanceFixture(t)
	f.records.insertErr = errors.New("pq: could not extend file")

	_, err := f.svc.SetStatus(context.Background(), f.claims, setStatus("client-1", "2027-03-02", "09:00", models.AttendanceStatusAttended))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "pq: could not extend file")
}

func TestSetStatusInvalidatesTrainerCache(t *testing.T) {
	f := newAttendanceFixture(t)

	_, err := f.svc.SetStatus(context.Background(), f.claims, setStatus("client-1", "2027-03-02", "09:00", models.AttendanceStatusMissed))
	require.NoError(t, err)
	assert.Equal(t, []string{"trainer:trainer-1:*"}, f.cache.patterns)
}

func TestRecordExerciseWeightIdempotent(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	res, err := f.svc.SetStatus(ctx, f.claims, setStatus("client-1", "2027-03-02", "09:00", models.AttendanceStatusAttending))
	require.NoError(t, err)
	id := res.Record.ID

	squat := 100.0
	bench := 62.5
	_, err = f.svc.RecordExerciseWeight(ctx, f.claims, id, dto.RecordExerciseWeightRequest{Exercise: "squat", Weight: &squat})
	require.NoError(t, err)
	_, err = f.svc.RecordExerciseWeight(ctx, f.claims, id, dto.RecordExerciseWeightRequest{Exercise: "bench", Weight: &bench})
	require.NoError(t, err)
	before := f.records.records[0].ExerciseWeights

	rec, err := f.svc.RecordExerciseWeight(ctx, f.claims, id, dto.RecordExerciseWeightRequest{Exercise: "squat", Weight: &squat})
	require.NoError(t, err)
	assert.Equal(t, before, rec.ExerciseWeights)
	assert.Equal(t, models.ExerciseWeights{"squat": 100, "bench": 62.5}, f.records.records[0].ExerciseWeights)
	assert.Equal(t, 2, f.records.merges)
}

func TestRecordExerciseWeightOverwritesSingleExercise(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	res, err := f.svc.SetStatus(ctx, f.claims, setStatus("client-1", "2027-03-02", "09:00", models.AttendanceStatusAttended))
	require.NoError(t, err)

	first, second := 80.0, 85.0
	_, err = f.svc.RecordExerciseWeight(ctx, f.claims, res.Record.ID, dto.RecordExerciseWeightRequest{Exercise: "deadlift", Weight: &first})
	require.NoError(t, err)
	rec, err := f.svc.RecordExerciseWeight(ctx, f.claims, res.Record.ID, dto.RecordExerciseWeightRequest{Exercise: "deadlift", Weight: &second})
	require.NoError(t, err)
	assert.Equal(t, models.ExerciseWeights{"deadlift": 85}, rec.ExerciseWeights)
}

func TestRecordExerciseWeightErrors(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	weight := 10.0

	_, err := f.svc.RecordExerciseWeight(ctx, nil, "att-1", dto.RecordExerciseWeightRequest{Exercise: "row", Weight: &weight})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotAuthenticated))

	_, err = f.svc.RecordExerciseWeight(ctx, f.claims, "att-1", dto.RecordExerciseWeightRequest{Exercise: "row"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	negative := -5.0
	_, err = f.svc.RecordExerciseWeight(ctx, f.claims, "att-1", dto.RecordExerciseWeightRequest{Exercise: "row", Weight: &negative})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = f.svc.RecordExerciseWeight(ctx, f.claims, "missing", dto.RecordExerciseWeightRequest{Exercise: "row", Weight: &weight})
	assert.True(t, appErrors.Is(err, appErrors.ErrAttendanceNotFound))
	assert.Zero(t, f.records.merges)
}
