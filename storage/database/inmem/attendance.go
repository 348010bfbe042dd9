package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) GetOn(_ context.Context, userID int, day time.Time) (attendance.Attendance, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	date := core.NewDate(day)
	for _, att := range repo.db.attendances {
		if att.UserID == userID && att.Date.Equal(date) {
			return att, nil
		}
	}
	return attendance.Attendance{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) Insert(_ context.Context, a attendance.Attendance) (bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, att := range repo.db.attendances {
		if att.UserID == a.UserID && att.Date.Equal(a.Date) {
			return false, nil
		}
	}
	a.ID = repo.db.nextID("attendances")
	repo.db.attendances = append(repo.db.attendances, a)
	return true, nil
}

func (repo *attendanceRepository) Between(_ context.Context, userID int, from, to time.Time) ([]attendance.Attendance, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	start, end := core.NewDate(from).String(), core.NewDate(to).String()
	atts := make([]attendance.Attendance, 0)
	for _, att := range repo.db.attendances {
		if day := att.Date.String(); att.UserID == userID && day >= start && day < end {
			atts = append(atts, att)
		}
	}
	sort.Slice(atts, func(i, j int) bool { return atts[i].Date.Before(atts[j].Date.Time) })
	return atts, nil
}

func (repo *attendanceRepository) WithUserLock(_ context.Context, userID int, fn func(attendance.Repository) error) error {
	return repo.db.withUserLock(userID, func() error { return fn(repo) })
}

// Add stores a without any check. Tests use it to seed past days.
func (repo *attendanceRepository) Add(a attendance.Attendance) attendance.Attendance {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	a.ID = repo.db.nextID("attendances")
	repo.db.attendances = append(repo.db.attendances, a)
	return a
}
