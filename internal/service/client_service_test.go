package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/trainer-attendance-api/internal/dto"
	"github.com/noah-isme/trainer-attendance-api/internal/models"
	appErrors "github.com/noah-isme/trainer-attendance-api/pkg/errors"
)

func newClientService(f *attendanceFixture) *ClientService {
	auth := NewAuthService(f.auth, f.validator, zap.NewNop(), testAuthConfig())
	return NewClientService(auth, f.clients, f.cache, f.validator, zap.NewNop())
}

func TestClientServiceListScopedToTrainer(t *testing.T) {
	f := newAttendanceFixture(t)
	svc := newClientService(f)

	clients, err := svc.List(context.Background(), f.claims, false)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "client-1", clients[0].ID)

	archived, err := svc.List(context.Background(), f.claims, true)
	require.NoError(t, err)
	assert.Empty(t, archived)
	assert.NotNil(t, archived)
}

func TestClientServiceUpdateSchedule(t *testing.T) {
	f := newAttendanceFixture(t)
	svc := newClientService(f)

	client, err := svc.UpdateSchedule(context.Background(), f.claims, "client-1", dto.UpdateScheduleRequest{
		ScheduleSet:  models.ScheduleSetCustom,
		CustomDays:   []models.Weekday{models.WeekdayMonday, models.WeekdayFriday},
		SessionTimes: map[models.Weekday]string{models.WeekdayMonday: "18:00"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleSetCustom, client.ScheduleSet)
	assert.Equal(t, []string{"mon", "fri"}, []string(client.CustomDays))
	assert.Equal(t, []string{"trainer:trainer-1:*"}, f.cache.patterns)
}

func TestClientServiceUpdateScheduleValidation(t *testing.T) {
	f := newAttendanceFixture(t)
	svc := newClientService(f)

	cases := map[string]dto.UpdateScheduleRequest{
		"unknown set":          {ScheduleSet: "weekly"},
		"custom without days":  {ScheduleSet: models.ScheduleSetCustom},
		"bad weekday":          {ScheduleSet: models.ScheduleSetCustom, CustomDays: []models.Weekday{"monday"}},
		"duplicate weekday":    {ScheduleSet: models.ScheduleSetCustom, CustomDays: []models.Weekday{"mon", "mon"}},
		"bad session time":     {ScheduleSet: models.ScheduleSetSunday, SessionTimes: map[models.Weekday]string{"sun": "25:00"}},
		"bad session time key": {ScheduleSet: models.ScheduleSetSunday, SessionTimes: map[models.Weekday]string{"sunday": "08:00"}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.UpdateSchedule(context.Background(), f.claims, "client-1", req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
	assert.Nil(t, f.clients.updated)
	assert.Zero(t, f.auth.authLookups)
}

func TestClientServiceUpdateScheduleUnknownClient(t *testing.T) {
	f := newAttendanceFixture(t)
	svc := newClientService(f)

	_, err := svc.UpdateSchedule(context.Background(), f.claims, "client-2", dto.UpdateScheduleRequest{ScheduleSet: models.ScheduleSetSaturday})
	assert.True(t, appErrors.Is(err, appErrors.ErrClientNotFound))
}
