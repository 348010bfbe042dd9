package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/swimschool/core/schedule"
)

type scheduleRepository struct {
	db *DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) ActiveSchedules(_ context.Context, userID int) ([]schedule.Schedule, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	scheds := make([]schedule.Schedule, 0)
	for _, s := range repo.db.schedules {
		if s.UserID == userID && s.IsActive() {
			scheds = append(scheds, s)
		}
	}
	return scheds, nil
}

func (repo *scheduleRepository) ActiveScheduleOn(_ context.Context, userID int, day string) (schedule.Schedule, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, s := range repo.db.schedules {
		if s.UserID == userID && s.Day == day && s.IsActive() {
			return s, nil
		}
	}
	return schedule.Schedule{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) ReplaceActive(_ context.Context, userID int, scheds []schedule.Schedule, at time.Time) ([]schedule.Schedule, error) {
	var created []schedule.Schedule
	err := repo.db.withUserLock(userID, func() error {
		repo.db.mu.Lock()
		defer repo.db.mu.Unlock()

		for i, s := range repo.db.schedules {
			if s.UserID == userID && s.IsActive() {
				repo.db.schedules[i].Status = schedule.StatusInactive
				repo.db.schedules[i].UpdatedAt = at
			}
		}
		created = make([]schedule.Schedule, 0, len(scheds))
		for _, s := range scheds {
			s.ID = repo.db.nextID("schedules")
			repo.db.schedules = append(repo.db.schedules, s)
			created = append(created, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
