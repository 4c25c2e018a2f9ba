package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/trainer-attendance-api/internal/dto"
	"github.com/noah-isme/trainer-attendance-api/internal/models"
	"github.com/noah-isme/trainer-attendance-api/internal/schedule"
	appErrors "github.com/noah-isme/trainer-attendance-api/pkg/errors"
	"github.com/noah-isme/trainer-attendance-api/pkg/export"
)

const (
	defaultUpcomingDays = 7
	defaultHistoryLimit = 30
	maxHistoryLimit     = 200
	maxRangeDays        = 92
)

type scheduleCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ScheduleConfig tunes schedule views.
type ScheduleConfig struct {
	Location           *time.Location
	DefaultSessionTime string
	UpcomingMaxDays    int
	CacheTTL           time.Duration
	ExportsEnabled     bool
}

// ScheduleService builds the reconciled schedule views a trainer works from.
type ScheduleService struct {
	trainers trainerResolver
	records  attendanceStore
	clients  clientStore
	cache    scheduleCache
	resolver schedule.Resolver
	logger   *zap.Logger
	cfg      ScheduleConfig
	now      func() time.Time
}

// NewScheduleService constructs the schedule service. cache may be nil.
func NewScheduleService(trainers trainerResolver, records attendanceStore, clients clientStore, cache scheduleCache, logger *zap.Logger, cfg ScheduleConfig) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.UpcomingMaxDays <= 0 {
		cfg.UpcomingMaxDays = 31
	}
	return &ScheduleService{
		trainers: trainers,
		records:  records,
		clients:  clients,
		cache:    cache,
		resolver: schedule.NewResolver(cfg.DefaultSessionTime),
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *ScheduleService) today() models.Date {
	return models.DateOf(s.now().In(s.cfg.Location))
}

// Today reconciles every active client's occurrence for the current day.
func (s *ScheduleService) Today(ctx context.Context, claims *models.JWTClaims) (*dto.TodaySchedule, error) {
	if err := requireClaims(claims); err != nil {
		return nil, err
	}
	trainer, err := s.trainers.ResolveTrainer(ctx, claims)
	if err != nil {
		return nil, err
	}

	today := s.today()
	cacheKey := fmt.Sprintf("%s:today:%s", trainerCachePrefix(trainer.ID), today)
	var cached dto.TodaySchedule
	if s.tryCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	clients, err := s.clients.ListByTrainer(ctx, trainer.ID, false)
	if err != nil {
		return nil, persistenceError(err, "failed to list clients")
	}
	records, err := s.records.List(ctx, models.AttendanceFilter{TrainerID: trainer.ID, From: &today, To: &today})
	if err != nil {
		return nil, persistenceError(err, "failed to list attendance")
	}

	entries := []models.DayEntry{}
	for _, client := range clients {
		entries = append(entries, schedule.Reconcile(client, s.resolver.Occurrences(client.Schedule(), today, 1), records)...)
	}
	schedule.SortEntries(entries)

	result := &dto.TodaySchedule{
		Date:    today,
		Weekday: today.WeekdayCode(),
		Entries: entries,
		Summary: schedule.Summarize(entries),
	}
	s.persistCache(ctx, cacheKey, result)
	return result, nil
}

// Upcoming lists expected sessions for the next days, starting today. The
// entries are not reconciled with stored records.
func (s *ScheduleService) Upcoming(ctx context.Context, claims *models.JWTClaims, days int) (*dto.UpcomingSchedule, error) {
	if err := requireClaims(claims); err != nil {
		return nil, err
	}
	if days == 0 {
		days = defaultUpcomingDays
	}
	if days < 1 || days > s.cfg.UpcomingMaxDays {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("days must be between 1 and %d", s.cfg.UpcomingMaxDays))
	}
	trainer, err := s.trainers.ResolveTrainer(ctx, claims)
	if err != nil {
		return nil, err
	}

	clients, err := s.clients.ListByTrainer(ctx, trainer.ID, false)
	if err != nil {
		return nil, persistenceError(err, "failed to list clients")
	}

	from := s.today()
	entries := []models.UpcomingEntry{}
	for _, client := range clients {
		for occ := range s.resolver.Occurrences(client.Schedule(), from, days) {
			entries = append(entries, models.UpcomingEntry{
				Date:          occ.Date,
				Weekday:       occ.Weekday,
				ClientID:      client.ID,
				ClientName:    client.Name,
				ScheduledTime: occ.ExpectedTime,
				Status:        models.AttendanceStatusScheduled,
			})
		}
	}
	slices.SortStableFunc(entries, func(a, b models.UpcomingEntry) int {
		if c := a.Date.Compare(b.Date.Time); c != 0 {
			return c
		}
		if c := cmp.Compare(schedule.NormalizeTime(a.ScheduledTime), schedule.NormalizeTime(b.ScheduledTime)); c != 0 {
			return c
		}
		return cmp.Compare(a.ClientName, b.ClientName)
	})

	return &dto.UpcomingSchedule{From: from, To: from.AddDays(days - 1), Days: days, Entries: entries}, nil
}

// ClientMonth reconciles one client's occurrences over a calendar month.
func (s *ScheduleService) ClientMonth(ctx context.Context, claims *models.JWTClaims, clientID string, year, month int) (*dto.MonthlyAttendance, error) {
	if err := requireClaims(claims); err != nil {
		return nil, err
	}
	if month < 1 || month > 12 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year is out of range")
	}
	trainer, err := s.trainers.ResolveTrainer(ctx, claims)
	if err != nil {
		return nil, err
	}
	client, err := loadClient(ctx, s.clients, trainer.ID, clientID)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("%s:month:%s:%04d-%02d", trainerCachePrefix(trainer.ID), client.ID, year, month)
	var cached dto.MonthlyAttendance
	if s.tryCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	first := models.NewDate(year, time.Month(month), 1)
	last := first.AddDate(0, 1, -1)
	entries, err := s.reconcileClient(ctx, trainer.ID, client, first, models.Date{Time: last})
	if err != nil {
		return nil, err
	}

	result := &dto.MonthlyAttendance{
		ClientID:   client.ID,
		ClientName: client.Name,
		Year:       year,
		Month:      month,
		Days:       schedule.MonthDays(entries),
		Summary:    schedule.Summarize(entries),
	}
	s.persistCache(ctx, cacheKey, result)
	return result, nil
}

// ClientRange reconciles one client's occurrences over an inclusive window.
func (s *ScheduleService) ClientRange(ctx context.Context, claims *models.JWTClaims, clientID, fromRaw, toRaw string) (*dto.AttendanceRange, error) {
	if err := requireClaims(claims); err != nil {
		return nil, err
	}
	from, err := models.ParseDate(fromRaw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD")
	}
	to, err := models.ParseDate(toRaw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD")
	}
	if to.Before(from.Time) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	if schedule.DaysBetween(from, to) > maxRangeDays {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("range must not exceed %d days", maxRangeDays))
	}

	trainer, err := s.trainers.ResolveTrainer(ctx, claims)
	if err != nil {
		return nil, err
	}
	client, err := loadClient(ctx, s.clients, trainer.ID, clientID)
	if err != nil {
		return nil, err
	}

	entries, err := s.reconcileClient(ctx, trainer.ID, client, from, to)
	if err != nil {
		return nil, err
	}
	return &dto.AttendanceRange{
		ClientID: client.ID,
		From:     from,
		To:       to,
		Entries:  entries,
		Summary:  schedule.Summarize(entries),
	}, nil
}

// ClientHistory lists a client's stored records, newest first.
func (s *ScheduleService) ClientHistory(ctx context.Context, claims *models.JWTClaims, clientID string, limit int) (*dto.AttendanceHistory, error) {
	if err := requireClaims(claims); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = defaultHistoryLimit
	}
	if limit < 1 || limit > maxHistoryLimit {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit))
	}
	trainer, err := s.trainers.ResolveTrainer(ctx, claims)
	if err != nil {
		return nil, err
	}
	client, err := loadClient(ctx, s.clients, trainer.ID, clientID)
	if err != nil {
		return nil, err
	}

	records, err := s.records.List(ctx, models.AttendanceFilter{
		TrainerID:   trainer.ID,
		ClientID:    client.ID,
		Limit:       limit,
		NewestFirst: true,
	})
	if err != nil {
		return nil, persistenceError(err, "failed to list attendance")
	}
	if records == nil {
		records = []models.AttendanceRecord{}
	}
	return &dto.AttendanceHistory{ClientID: client.ID, Limit: limit, Records: records}, nil
}

// Attending returns clients currently marked attending today.
func (s *ScheduleService) Attending(ctx context.Context, claims *models.JWTClaims) ([]models.AttendingClient, error) {
	if err := requireClaims(claims); err != nil {
		return nil, err
	}
	trainer, err := s.trainers.ResolveTrainer(ctx, claims)
	if err != nil {
		return nil, err
	}
	out, err := s.records.ListAttending(ctx, trainer.ID, s.today())
	if err != nil {
		return nil, persistenceError(err, "failed to list attending clients")
	}
	if out == nil {
		out = []models.AttendingClient{}
	}
	return out, nil
}

// ExportClientMonth renders a client's month as CSV or PDF.
func (s *ScheduleService) ExportClientMonth(ctx context.Context, claims *models.JWTClaims, clientID string, year, month int, rawFormat string) (*dto.ExportFile, error) {
	if !s.cfg.ExportsEnabled {
		return nil, appErrors.ErrFeatureDisabled
	}
	if err := requireClaims(claims); err != nil {
		return nil, err
	}
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	monthly, err := s.ClientMonth(ctx, claims, clientID, year, month)
	if err != nil {
		return nil, err
	}

	renderer := export.NewRenderer(format)
	payload, err := renderer.Render(monthlyDataset(monthly))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("monthly attendance exported",
		zap.String("client_id", monthly.ClientID),
		zap.Int("year", year),
		zap.Int("month", month),
		zap.String("format", string(format)),
		zap.Int("bytes", len(payload)),
	)
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("attendance-%s-%04d-%02d.%s", monthly.ClientID, year, month, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}, nil
}

var exportHeaders = []string{"Date", "Day", "Time", "Status", "Workout", "Rescheduled To", "Reason"}

func monthlyDataset(m *dto.MonthlyAttendance) export.Dataset {
	rows := make([]map[string]string, 0, len(m.Days))
	for _, day := range m.Days {
		row := map[string]string{
			"Date":   day.Date.String(),
			"Day":    string(day.Weekday),
			"Time":   day.ScheduledTime,
			"Status": string(day.Status),
		}
		if day.WorkoutID != nil {
			row["Workout"] = *day.WorkoutID
		}
		if day.RescheduledTo != nil {
			row["Rescheduled To"] = day.RescheduledTo.String()
		}
		if day.RescheduleReason != nil {
			row["Reason"] = *day.RescheduleReason
		}
		rows = append(rows, row)
	}
	return export.Dataset{
		Title:   fmt.Sprintf("%s - %04d-%02d", m.ClientName, m.Year, m.Month),
		Headers: exportHeaders,
		Rows:    rows,
		Footer: []string{
			"Total scheduled: " + strconv.Itoa(m.Summary.Total),
			"Attended: " + strconv.Itoa(m.Summary.Attended),
			"Missed: " + strconv.Itoa(m.Summary.Missed),
			"Rescheduled: " + strconv.Itoa(m.Summary.Rescheduled),
			"Pending: " + strconv.Itoa(m.Summary.Scheduled+m.Summary.Attending),
		},
	}
}

func (s *ScheduleService) reconcileClient(ctx context.Context, trainerID string, client *models.Client, from, to models.Date) ([]models.DayEntry, error) {
	records, err := s.records.List(ctx, models.AttendanceFilter{
		TrainerID: trainerID,
		ClientID:  client.ID,
		From:      &from,
		To:        &to,
	})
	if err != nil {
		return nil, persistenceError(err, "failed to list attendance")
	}
	entries := schedule.Reconcile(*client, s.resolver.Between(client.Schedule(), from, to), records)
	if entries == nil {
		entries = []models.DayEntry{}
	}
	return entries, nil
}

func (s *ScheduleService) tryCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("schedule cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *ScheduleService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("schedule cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func trainerCachePrefix(trainerID string) string {
	return "trainer:" + trainerID
}

func trainerCachePattern(trainerID string) string {
	return trainerCachePrefix(trainerID) + ":*"
}
