package period

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/hansei/chulseok/core"
)

var ErrNotFound = errors.New("not found")

type (
	Repository interface {
		GetConfig(ctx context.Context, date string) (Config, error)
		CreateConfig(ctx context.Context, cfg Config) error
		UpdateConfig(ctx context.Context, cfg Config) error
		QuerySupervisorShifts(ctx context.Context, date string) ([]SupervisorShift, error)
	}

	Service struct {
		repo  Repository
		cache core.Cache
	}
)

// NewService builds the timetable service. Config lookups go through cache;
// pass core.NopCache to disable caching.
func NewService(repo Repository, cache core.Cache) *Service {
	if cache == nil {
		cache = core.NopCache{}
	}
	return &Service{repo: repo, cache: cache}
}

func configCacheKey(date string) string { return "period-config:" + date }

// ConfigFor returns the timetable for a date: the stored configuration when
// one exists, the computed default otherwise.
func (svc *Service) ConfigFor(ctx context.Context, date time.Time) (Config, error) {
	dateStr := date.Format(DateFormat)
	if cached, ok := svc.cache.Get(configCacheKey(dateStr)); ok {
		if cfg, ok := cached.(Config); ok {
			return cfg, nil
		}
	}

	cfg, err := svc.repo.GetConfig(ctx, dateStr)
	if err == ErrNotFound {
		cfg = DefaultConfig(date)
	} else if err != nil {
		return Config{}, err
	}

	svc.cache.Set(configCacheKey(dateStr), cfg)
	return cfg, nil
}

// SaveConfig upserts the timetable for cfg.ConfigDate.
func (svc *Service) SaveConfig(ctx context.Context, cfg Config) error {
	var err error
	if _, err = svc.repo.GetConfig(ctx, cfg.ConfigDate); err == ErrNotFound {
		err = svc.repo.CreateConfig(ctx, cfg)
	} else if err == nil {
		err = svc.repo.UpdateConfig(ctx, cfg)
	}
	if err != nil {
		return err
	}

	svc.cache.Delete(configCacheKey(cfg.ConfigDate))
	return nil
}

// Supervisors returns the supervising-teacher schedule for a date keyed by
// grade, plus the total shift count.
func (svc *Service) Supervisors(ctx context.Context, date time.Time) (map[int][]SupervisorShift, int, error) {
	shifts, err := svc.repo.QuerySupervisorShifts(ctx, date.Format(DateFormat))
	if err != nil {
		return nil, 0, err
	}

	byGrade := map[int][]SupervisorShift{1: {}, 2: {}, 3: {}}
	for _, s := range shifts {
		if _, ok := byGrade[s.Grade]; ok {
			byGrade[s.Grade] = append(byGrade[s.Grade], s)
		}
	}
	return byGrade, len(shifts), nil
}
