package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/attendance"
)

const attendanceColumns = `id, user_id, attendance_date, status, created_at, updated_at`

type attendanceRepository struct {
	db   core.DB
	exec core.DBExecutor
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db core.DB) *attendanceRepository {
	return &attendanceRepository{db: db, exec: db}
}

func (repo *attendanceRepository) GetOn(ctx context.Context, userID int, day time.Time) (attendance.Attendance, error) {
	q := `SELECT ` + attendanceColumns + ` FROM user_attendances WHERE user_id = $1 AND attendance_date = $2`
	var att attendance.Attendance
	if err := repo.exec.GetContext(ctx, &att, q, userID, core.NewDate(day)); err != nil {
		return attendance.Attendance{}, trapNoRowsErr(err, attendance.ErrNotFound, "getting attendance")
	}
	return att, nil
}

func (repo *attendanceRepository) Insert(ctx context.Context, a attendance.Attendance) (bool, error) {
	q := `INSERT INTO user_attendances (user_id, attendance_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, attendance_date) DO NOTHING`
	res, err := repo.exec.ExecContext(ctx, q, a.UserID, a.Date, a.Status, a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		return false, errors.Wrap(err, "inserting attendance")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "inserting attendance")
	}
	return n > 0, nil
}

func (repo *attendanceRepository) Between(ctx context.Context, userID int, from, to time.Time) ([]attendance.Attendance, error) {
	q := `SELECT ` + attendanceColumns + ` FROM user_attendances
		WHERE user_id = $1 AND attendance_date >= $2 AND attendance_date < $3
		ORDER BY attendance_date`
	atts := make([]attendance.Attendance, 0)
	if err := repo.exec.SelectContext(ctx, &atts, q, userID, core.NewDate(from), core.NewDate(to)); err != nil {
		return nil, errors.Wrap(err, "listing attendances")
	}
	return atts, nil
}

func (repo *attendanceRepository) WithUserLock(ctx context.Context, userID int, fn func(attendance.Repository) error) error {
	return withUserLock(ctx, repo.db, userID, func(tx *sqlx.Tx) error {
		return fn(&attendanceRepository{db: repo.db, exec: tx})
	})
}
