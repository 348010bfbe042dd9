package schedule_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/schedule"
	"github.com/trezcool/swimschool/core/user"
	inmemdb "github.com/trezcool/swimschool/storage/database/inmem"
	"github.com/trezcool/swimschool/tests"
)

// a Tuesday
var tuesday = time.Date(2025, time.June, 3, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*schedule.Service, user.User) {
	testutil.FreezeTime(t, tuesday)
	db := inmemdb.Open()
	usr := testutil.CreateUser(t, inmemdb.NewUserRepository(db), "Ana", "ana@test.mx")
	return schedule.NewService(inmemdb.NewScheduleRepository(db)), usr
}

func days(scheds []schedule.Schedule) []string {
	res := make([]string, 0, len(scheds))
	for _, s := range scheds {
		res = append(res, s.Day)
	}
	return res
}

func TestService_Assign(t *testing.T) {
	ctx := context.Background()
	svc, usr := setup(t)

	_, err := svc.ForUser(ctx, usr.ID)
	assert.Equal(t, schedule.ErrNoSchedules, err)

	_, err = svc.Assign(ctx, schedule.NewSchedule{UserID: usr.ID + 1, Days: []string{"LUNES"}, EntryTime: "16:00", DepartureTime: "17:00"})
	assert.Equal(t, user.ErrNotFound, err)

	first, err := svc.Assign(ctx, schedule.NewSchedule{UserID: usr.ID, Days: []string{"LUNES", "MARTES"}, EntryTime: "16:00", DepartureTime: "17:00"})
	require.NoError(t, err)
	require.Len(t, first, 2)
	for _, s := range first {
		assert.True(t, s.IsActive())
		assert.Equal(t, usr.ID, s.UserID)
		assert.Equal(t, "16:00", s.EntryTime)
	}

	// reassigning deactivates the previous week
	second, err := svc.Assign(ctx, schedule.NewSchedule{UserID: usr.ID, Days: []string{"MARTES", "JUEVES"}, EntryTime: "18:00", DepartureTime: "19:00"})
	require.NoError(t, err)

	active, err := svc.ForUser(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, second, active)
	assert.ElementsMatch(t, []string{"MARTES", "JUEVES"}, days(active))
	for _, s := range active {
		assert.NotEqual(t, first[0].ID, s.ID)
		assert.NotEqual(t, first[1].ID, s.ID)
	}

	// one active class per day
	tue, err := svc.On(ctx, usr.ID, tuesday)
	require.NoError(t, err)
	assert.Equal(t, "18:00", tue.EntryTime)
}

func TestService_Assign_concurrent(t *testing.T) {
	ctx := context.Background()
	svc, usr := setup(t)

	weeks := [][]string{{"LUNES"}, {"MARTES", "MIÉRCOLES"}, {"JUEVES", "VIERNES", "SÁBADO"}, {"DOMINGO"}}
	var wg sync.WaitGroup
	for _, week := range weeks {
		wg.Add(1)
		go func(week []string) {
			defer wg.Done()
			_, err := svc.Assign(ctx, schedule.NewSchedule{UserID: usr.ID, Days: week, EntryTime: "16:00", DepartureTime: "17:00"})
			assert.NoError(t, err)
		}(week)
	}
	wg.Wait()

	// exactly one of the weeks survives
	active, err := svc.ForUser(ctx, usr.ID)
	require.NoError(t, err)
	got := days(active)
	var matched int
	for _, week := range weeks {
		if assert.ObjectsAreEqual(week, got) {
			matched++
		}
	}
	assert.Equal(t, 1, matched, "active days %v", got)
}

func TestService_On(t *testing.T) {
	ctx := context.Background()
	svc, usr := setup(t)

	_, err := svc.Assign(ctx, schedule.NewSchedule{UserID: usr.ID, Days: []string{"MARTES", "SÁBADO"}, EntryTime: "07:30", DepartureTime: "08:30"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		userID  int
		at      time.Time
		wantDay string
		wantErr error
	}{
		{name: "tuesday", userID: usr.ID, at: tuesday, wantDay: "MARTES"},
		{name: "saturday", userID: usr.ID, at: tuesday.AddDate(0, 0, 4), wantDay: "SÁBADO"},
		{name: "wednesday", userID: usr.ID, at: tuesday.AddDate(0, 0, 1), wantErr: schedule.ErrNotFound},
		{name: "other user", userID: usr.ID + 1, at: tuesday, wantErr: schedule.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := svc.On(ctx, tt.userID, tt.at)
			assert.Equal(t, tt.wantErr, err)
			if tt.wantErr == nil {
				assert.Equal(t, tt.wantDay, s.Day)
				assert.True(t, s.IsActive())
			}
		})
	}
}

func TestNewSchedule_Validate(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)

	tests := []struct {
		name    string
		ns      schedule.NewSchedule
		wantErr bool
	}{
		{name: "valid", ns: schedule.NewSchedule{UserID: 1, Days: []string{" LUNES ", "MARTES"}, EntryTime: "16:00", DepartureTime: "17:00"}},
		{name: "no days", ns: schedule.NewSchedule{UserID: 1, EntryTime: "16:00", DepartureTime: "17:00"}, wantErr: true},
		{name: "unknown day", ns: schedule.NewSchedule{UserID: 1, Days: []string{"FUNDAY"}, EntryTime: "16:00", DepartureTime: "17:00"}, wantErr: true},
		{name: "duplicated day", ns: schedule.NewSchedule{UserID: 1, Days: []string{"LUNES", "LUNES"}, EntryTime: "16:00", DepartureTime: "17:00"}, wantErr: true},
		{
			name: "eight days", wantErr: true,
			ns: schedule.NewSchedule{UserID: 1, Days: []string{"LUNES", "MARTES", "MIÉRCOLES", "JUEVES", "VIERNES", "SÁBADO", "DOMINGO", "LUNES"}, EntryTime: "16:00", DepartureTime: "17:00"},
		},
		{name: "bad time", ns: schedule.NewSchedule{UserID: 1, Days: []string{"LUNES"}, EntryTime: "4pm", DepartureTime: "17:00"}, wantErr: true},
		{name: "departure before entry", ns: schedule.NewSchedule{UserID: 1, Days: []string{"LUNES"}, EntryTime: "17:00", DepartureTime: "16:00"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ns.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
