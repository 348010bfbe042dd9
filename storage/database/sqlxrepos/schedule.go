package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/schedule"
)

const scheduleColumns = `id, user_id, day, entry_time, departure_time, status, created_at, updated_at`

type scheduleRepository struct {
	db core.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db core.DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) ActiveSchedules(ctx context.Context, userID int) ([]schedule.Schedule, error) {
	q := `SELECT ` + scheduleColumns + ` FROM user_schedules WHERE user_id = $1 AND status = $2 ORDER BY id`
	scheds := make([]schedule.Schedule, 0)
	if err := repo.db.SelectContext(ctx, &scheds, q, userID, schedule.StatusActive); err != nil {
		return nil, errors.Wrap(err, "listing schedules")
	}
	return scheds, nil
}

func (repo *scheduleRepository) ActiveScheduleOn(ctx context.Context, userID int, day string) (schedule.Schedule, error) {
	q := `SELECT ` + scheduleColumns + ` FROM user_schedules WHERE user_id = $1 AND day = $2 AND status = $3`
	var sched schedule.Schedule
	if err := repo.db.GetContext(ctx, &sched, q, userID, day, schedule.StatusActive); err != nil {
		return schedule.Schedule{}, trapNoRowsErr(err, schedule.ErrNotFound, "getting schedule")
	}
	return sched, nil
}

func (repo *scheduleRepository) ReplaceActive(ctx context.Context, userID int, scheds []schedule.Schedule, at time.Time) ([]schedule.Schedule, error) {
	created := make([]schedule.Schedule, 0, len(scheds))
	err := withUserLock(ctx, repo.db, userID, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE user_schedules SET status = $3, updated_at = $4 WHERE user_id = $1 AND status = $2`,
			userID, schedule.StatusActive, schedule.StatusInactive, at.UTC())
		if err != nil {
			return errors.Wrap(err, "deactivating schedules")
		}

		q := `INSERT INTO user_schedules (user_id, day, entry_time, departure_time, status, created_at, updated_at)
			VALUES (:user_id, :day, :entry_time, :departure_time, :status, :created_at, :updated_at) RETURNING id`
		for _, s := range scheds {
			rows, err := sqlx.NamedQueryContext(ctx, tx, q, s)
			if err != nil {
				return errors.Wrap(err, "inserting schedule")
			}
			if rows.Next() {
				err = rows.Scan(&s.ID)
			}
			_ = rows.Close()
			if err != nil {
				return errors.Wrap(err, "inserting schedule")
			}
			created = append(created, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
