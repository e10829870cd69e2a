package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/hansei/chulseok/core/period"
)

type periodRepository struct {
	db *periodTable
}

var _ period.Repository = (*periodRepository)(nil) // interface compliance check

func NewPeriodRepository(db *DB) *periodRepository {
	return &periodRepository{db: db.period}
}

// AddSupervisorShift seeds a supervising-teacher slot for a date.
func (repo *periodRepository) AddSupervisorShift(date string, shift period.SupervisorShift) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.shifts[date] = append(repo.db.shifts[date], shift)
}

func (repo *periodRepository) GetConfig(_ context.Context, date string) (period.Config, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cfg, ok := repo.db.configs[date]; ok {
		return *cfg, nil
	}
	return period.Config{}, period.ErrNotFound
}

func (repo *periodRepository) CreateConfig(_ context.Context, cfg period.Config) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	cfg.ID = uuid.New().String()
	repo.db.configs[cfg.ConfigDate] = &cfg
	return nil
}

func (repo *periodRepository) UpdateConfig(_ context.Context, cfg period.Config) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.configs[cfg.ConfigDate]
	if !ok {
		return period.ErrNotFound
	}
	cfg.ID = existing.ID
	repo.db.configs[cfg.ConfigDate] = &cfg
	return nil
}

func (repo *periodRepository) QuerySupervisorShifts(_ context.Context, date string) ([]period.SupervisorShift, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return append([]period.SupervisorShift(nil), repo.db.shifts[date]...), nil
}
