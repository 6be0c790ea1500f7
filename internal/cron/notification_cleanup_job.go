package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/logger"
)

const defaultNotificationRetentionDays = 30

type readNotificationPurger interface {
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type NotificationCleanupJobParams struct {
	Logger     *logger.Logger
	Repository readNotificationPurger
	// Retention is counted in whole local days; zero means 30.
	Retention int
	// Location defines "midnight" for the cutoff; nil means UTC.
	Location *time.Location
	Now      func() time.Time
}

// NotificationCleanupJob purges read notifications older than the retention
// window. The cutoff is the local midnight Retention days back, so every run
// on the same calendar day removes the same rows.
type NotificationCleanupJob struct {
	logg      *logger.Logger
	repo      readNotificationPurger
	retention int
	loc       *time.Location
	now       func() time.Time
}

func NewNotificationCleanupJob(p NotificationCleanupJobParams) (*NotificationCleanupJob, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("notification cleanup: logger required")
	case p.Repository == nil:
		return nil, errors.New("notification cleanup: repository required")
	}
	job := &NotificationCleanupJob{
		logg:      p.Logger,
		repo:      p.Repository,
		retention: p.Retention,
		loc:       p.Location,
		now:       p.Now,
	}
	if job.retention <= 0 {
		job.retention = defaultNotificationRetentionDays
	}
	if job.loc == nil {
		job.loc = time.UTC
	}
	if job.now == nil {
		job.now = time.Now
	}
	return job, nil
}

func (j *NotificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *NotificationCleanupJob) cutoff() time.Time {
	y, m, d := j.now().In(j.loc).Date()
	return time.Date(y, m, d-j.retention, 0, 0, 0, 0, j.loc).UTC()
}

func (j *NotificationCleanupJob) Run(ctx context.Context) error {
	cutoff := j.cutoff()
	deleted, err := j.repo.DeleteReadOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge read notifications before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	if deleted > 0 {
		j.logg.Info(j.logg.WithFields(ctx, map[string]any{
			"cutoff":  cutoff.Format(time.RFC3339),
			"deleted": deleted,
		}), "notification_cleanup.purged")
	}
	return nil
}
