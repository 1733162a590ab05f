package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/gamestore-backend/pkg/logger"
)

const (
	staleCartDays       = 30
	outboxRetentionDays = 30
	day                 = 24 * time.Hour
)

type StaleCartJobParams struct {
	Logger *logger.Logger
	Carts  interface {
		DeleteStale(ctx context.Context, before time.Time) (int64, error)
	}
	Days int
}

// NewStaleCartJob drops cart lines untouched for Days (default 30).
func NewStaleCartJob(params StaleCartJobParams) (Job, error) {
	if params.Carts == nil {
		return nil, errors.New("stale cart job: cart service required")
	}
	return newPurgeJob("stale-cart-cleanup", params.Logger, params.Carts.DeleteStale, params.Days, staleCartDays)
}

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	Repository interface {
		DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}
	Retention int
}

// NewOutboxRetentionJob deletes outbox rows published more than Retention
// days ago (default 30).
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Repository == nil {
		return nil, errors.New("outbox retention job: repository required")
	}
	return newPurgeJob("outbox-retention", params.Logger, params.Repository.DeletePublishedBefore, params.Retention, outboxRetentionDays)
}

// purgeJob deletes whatever purge selects as older than maxAge.
type purgeJob struct {
	name   string
	logg   *logger.Logger
	purge  func(ctx context.Context, cutoff time.Time) (int64, error)
	maxAge time.Duration
	now    func() time.Time
}

func newPurgeJob(name string, logg *logger.Logger, purge func(context.Context, time.Time) (int64, error), days, defaultDays int) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("%s: logger required", name)
	}
	if days <= 0 {
		days = defaultDays
	}
	return &purgeJob{name: name, logg: logg, purge: purge, maxAge: time.Duration(days) * day, now: time.Now}, nil
}

func (j *purgeJob) Name() string { return j.name }

func (j *purgeJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	deleted, err := j.purge(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"max_age_days": int(j.maxAge / day),
		"rows_deleted": deleted,
	}), "purge complete")
	return nil
}
