package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/schedule"
	"github.com/trezcool/swimschool/core/user"
)

const (
	batchSize        = 10
	reportSheetTitle = "Asistencias"
)

var (
	// errors
	ErrNotFound      = errors.New("attendance not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrWrongRole     = errors.New("attendance can only be checked in for students")
	ErrNoClassToday  = errors.New("the user has no class today")
	ErrAlreadyMarked = errors.New("the user already has an attendance today")
	ErrNoAttendances = errors.New("no attendances found")

	reportHeadings    = []string{"Nombre alumno", "Día", "Asistencia", "Fecha"}
	reportNameReplace = strings.NewReplacer(" ", "-", "/", "-")
)

type (
	Repository interface {
		// GetOn fails with ErrNotFound when the user has no row on day.
		GetOn(ctx context.Context, userID int, day time.Time) (Attendance, error)
		// Insert returns false when a row already exists for the user and day.
		Insert(ctx context.Context, a Attendance) (bool, error)
		// Between lists a user's rows with from <= date < to, ordered by date.
		Between(ctx context.Context, userID int, from, to time.Time) ([]Attendance, error)
		// WithUserLock runs fn while holding the lock of the user, fn's repository shares the lock's transaction.
		// It fails with user.ErrNotFound when the user does not exist.
		WithUserLock(ctx context.Context, userID int, fn func(Repository) error) error
	}

	UserFinder interface {
		GetByID(ctx context.Context, id int) (user.User, error)
		Students(ctx context.Context, limit, offset int) ([]user.User, error)
	}

	ScheduleFinder interface {
		On(ctx context.Context, userID int, t time.Time) (schedule.Schedule, error)
	}

	Service struct {
		repo      Repository
		users     UserFinder
		schedules ScheduleFinder
		exporter  core.SpreadsheetExporter
		logger    core.Logger
	}

	// Report is a rendered attendance workbook.
	Report struct {
		Filename    string
		ContentType string
		Content     []byte
	}
)

func NewService(repo Repository, users UserFinder, schedules ScheduleFinder, exporter core.SpreadsheetExporter, logger core.Logger) *Service {
	return &Service{repo: repo, users: users, schedules: schedules, exporter: exporter, logger: logger}
}

func (svc *Service) hasClassToday(ctx context.Context, userID int, today time.Time) (bool, error) {
	_, err := svc.schedules.On(ctx, userID, today)
	switch {
	case err == schedule.ErrNotFound:
		return false, nil
	case err != nil:
		return false, pkgerrors.Wrap(err, "getting today's schedule")
	}
	return true, nil
}

// RecordDailyStatus decides today's status of a user when it has not been checked in:
//  - no active class today: no_class
//  - a class and a present row: nothing to do
//  - a class and no present row: absent
// A row is never overwritten. The returned bool reports whether a row was written.
func (svc *Service) RecordDailyStatus(ctx context.Context, userID int) (Status, bool, error) {
	var (
		status  Status
		written bool
	)
	today := core.Today()

	err := svc.repo.WithUserLock(ctx, userID, func(repo Repository) error {
		hasClass, err := svc.hasClassToday(ctx, userID, today)
		if err != nil {
			return err
		}

		existing, err := repo.GetOn(ctx, userID, today)
		found := err == nil
		if err != nil && err != ErrNotFound {
			return pkgerrors.Wrap(err, "getting today's attendance")
		}

		status = StatusAbsent
		if !hasClass {
			status = StatusNoClass
		}
		switch {
		case !hasClass && found && existing.Status == StatusNoClass:
			return nil
		case hasClass && found && existing.Status == StatusPresent:
			status = StatusPresent
			return nil
		case hasClass && found && existing.Status == StatusAbsent:
			return nil
		}

		now := core.NowFunc().UTC()
		written, err = repo.Insert(ctx, Attendance{
			UserID:    userID,
			Date:      core.NewDate(today),
			Status:    status,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return pkgerrors.Wrap(err, "inserting attendance")
	})
	if err != nil {
		return 0, false, err
	}
	return status, written, nil
}

// CheckIn marks a student present today.
func (svc *Service) CheckIn(ctx context.Context, userID int) (Attendance, user.User, error) {
	usr, err := svc.users.GetByID(ctx, userID)
	switch {
	case err == user.ErrNotFound:
		return Attendance{}, user.User{}, ErrUserNotFound
	case err != nil:
		return Attendance{}, user.User{}, pkgerrors.Wrap(err, "getting user")
	}
	if !usr.IsStudent() {
		return Attendance{}, usr, ErrWrongRole
	}

	today := core.Today()
	var att Attendance
	err = svc.repo.WithUserLock(ctx, userID, func(repo Repository) error {
		hasClass, err := svc.hasClassToday(ctx, userID, today)
		if err != nil {
			return err
		}
		if !hasClass {
			return ErrNoClassToday
		}

		switch _, err = repo.GetOn(ctx, userID, today); {
		case err == nil:
			return ErrAlreadyMarked
		case err != ErrNotFound:
			return pkgerrors.Wrap(err, "getting today's attendance")
		}

		now := core.NowFunc().UTC()
		att = Attendance{UserID: userID, Date: core.NewDate(today), Status: StatusPresent, CreatedAt: now, UpdatedAt: now}
		inserted, err := repo.Insert(ctx, att)
		if err != nil {
			return pkgerrors.Wrap(err, "inserting attendance")
		}
		if !inserted {
			return ErrAlreadyMarked
		}
		return nil
	})
	if err == user.ErrNotFound {
		err = ErrUserNotFound
	}
	return att, usr, err
}

// RunDaily records today's status of every student, batchSize students at a time.
// A failure on one student is logged and does not stop the pass.
func (svc *Service) RunDaily(ctx context.Context) (Summary, error) {
	var summary Summary
	for offset := 0; ; offset += batchSize {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		students, err := svc.users.Students(ctx, batchSize, offset)
		if err != nil {
			return summary, pkgerrors.Wrap(err, "listing students")
		}

		for _, usr := range students {
			status, written, err := svc.RecordDailyStatus(ctx, usr.ID)
			if err != nil {
				svc.logger.Error(fmt.Sprintf("recording daily attendance of user %d: %v", usr.ID, err), err, usr)
				continue
			}
			switch {
			case status == StatusPresent:
				summary.Present++
			case !written:
			case status == StatusNoClass:
				summary.NoClass++
			case status == StatusAbsent:
				summary.Absent++
			}
		}

		if len(students) < batchSize {
			return summary, nil
		}
	}
}

func (svc *Service) month(ctx context.Context, userID int, month time.Time) ([]Entry, error) {
	from, to := core.MonthRange(month)
	atts, err := svc.repo.Between(ctx, userID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "listing attendances")
	}
	if len(atts) == 0 {
		return nil, ErrNoAttendances
	}
	entries := make([]Entry, 0, len(atts))
	for _, att := range atts {
		entries = append(entries, NewEntry(att))
	}
	return entries, nil
}

// CurrentMonth lists the user's attendances of the current month.
func (svc *Service) CurrentMonth(ctx context.Context, userID int) ([]Entry, error) {
	return svc.month(ctx, userID, core.Today())
}

// History lists the attendances of an existing user during the month q.Month (YYYY-MM).
func (svc *Service) History(ctx context.Context, q MonthQuery) (user.User, []Entry, error) {
	usr, month, err := svc.resolveQuery(ctx, q)
	if err != nil {
		return user.User{}, nil, err
	}
	entries, err := svc.month(ctx, usr.ID, month)
	return usr, entries, err
}

// Report renders the monthly history of a user as a workbook.
func (svc *Service) Report(ctx context.Context, q MonthQuery) (Report, error) {
	usr, entries, err := svc.History(ctx, q)
	if err != nil {
		return Report{}, err
	}

	name := usr.FullName()
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{name, e.TranslatedFormat, e.StatusLabel, e.FormattedDate})
	}
	content, err := svc.exporter.Export(core.Sheet{Title: reportSheetTitle, Headings: reportHeadings, Rows: rows})
	if err != nil {
		return Report{}, pkgerrors.Wrap(err, "exporting attendance report")
	}
	return Report{
		Filename:    ReportFilename(usr, core.Now()),
		ContentType: svc.exporter.ContentType(),
		Content:     content,
	}, nil
}

func (svc *Service) resolveQuery(ctx context.Context, q MonthQuery) (user.User, time.Time, error) {
	month, err := core.ParseMonth(q.Month)
	if err != nil {
		return user.User{}, time.Time{}, core.NewFieldError("date", err)
	}
	usr, err := svc.users.GetByID(ctx, q.UserID)
	switch {
	case err == user.ErrNotFound:
		return user.User{}, time.Time{}, ErrUserNotFound
	case err != nil:
		return user.User{}, time.Time{}, pkgerrors.Wrap(err, "getting user")
	}
	return usr, month, nil
}

// ReportFilename returns reporte-asistencias-<name>-<id>-<YYYYMMDDhhmmss>.xlsx.
func ReportFilename(usr user.User, at time.Time) string {
	name := reportNameReplace.Replace(strings.ToLower(core.CleanString(usr.Name)))
	return fmt.Sprintf("reporte-asistencias-%s-%d-%s.xlsx", name, usr.ID, at.Format(core.CodeLayout))
}
