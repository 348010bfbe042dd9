package scheduler

import (
	"context"
	"fmt"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/attendance"
	"github.com/trezcool/swimschool/services/metrics"
)

const (
	AttendanceJob = "daily-attendance"
	TokenPurgeJob = "revoked-token-purge"
)

type (
	DailyRunner interface {
		RunDaily(ctx context.Context) (attendance.Summary, error)
	}

	Purger interface {
		Purge(ctx context.Context) (int64, error)
	}
)

// AttendancePass records the daily status of every student.
func AttendancePass(runner DailyRunner, logger core.Logger) Job {
	return func(ctx context.Context) error {
		summary, err := runner.RunDaily(ctx)
		metrics.AttendanceRecords.WithLabelValues("no_class").Add(float64(summary.NoClass))
		metrics.AttendanceRecords.WithLabelValues("present").Add(float64(summary.Present))
		metrics.AttendanceRecords.WithLabelValues("absent").Add(float64(summary.Absent))
		if err != nil {
			return err
		}
		logger.Info(fmt.Sprintf("daily attendance: %d no class, %d present, %d absent",
			summary.NoClass, summary.Present, summary.Absent))
		return nil
	}
}

// TokenPurge deletes the expired revoked tokens.
func TokenPurge(purger Purger, logger core.Logger) Job {
	return func(ctx context.Context) error {
		n, err := purger.Purge(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info(fmt.Sprintf("purged %d revoked tokens", n))
		}
		return nil
	}
}
