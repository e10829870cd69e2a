package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/hansei/chulseok/core/seating"
)

type seatingRepository struct {
	db *seatingTable
}

var _ seating.Repository = (*seatingRepository)(nil) // interface compliance check

func NewSeatingRepository(db *DB) *seatingRepository {
	return &seatingRepository{db: db.seating}
}

// AddLayout seeds a classroom layout; layouts have no write API of their own.
func (repo *seatingRepository) AddLayout(layout seating.Layout) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if layout.ID == "" {
		layout.ID = uuid.New().String()
	}
	repo.db.layouts[layout.ClassroomKey] = &layout
}

func (repo *seatingRepository) QueryActiveArrangements(_ context.Context, classroom, date string) ([]seating.Arrangement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var active []seating.Arrangement
	for _, a := range repo.db.arrangements {
		if a.Classroom == classroom && a.ArrangementDate == date && a.IsActive {
			active = append(active, *a)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].PositionKey < active[j].PositionKey })
	return active, nil
}

func (repo *seatingRepository) DeactivateArrangements(_ context.Context, classroom, date string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, a := range repo.db.arrangements {
		if a.Classroom == classroom && a.ArrangementDate == date {
			a.IsActive = false
		}
	}
	return nil
}

func (repo *seatingRepository) CreateArrangements(_ context.Context, rows []seating.Arrangement) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, row := range rows {
		row.ID = uuid.New().String()
		a := row
		repo.db.arrangements = append(repo.db.arrangements, &a)
	}
	return nil
}

func (repo *seatingRepository) GetLayout(_ context.Context, classroomKey string) (seating.Layout, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if layout, ok := repo.db.layouts[classroomKey]; ok && layout.IsActive {
		return *layout, nil
	}
	return seating.Layout{}, seating.ErrNotFound
}

func (repo *seatingRepository) QueryLayouts(_ context.Context) ([]seating.Layout, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var layouts []seating.Layout
	for _, layout := range repo.db.layouts {
		if layout.IsActive {
			layouts = append(layouts, *layout)
		}
	}
	sort.Slice(layouts, func(i, j int) bool { return layouts[i].ClassroomKey < layouts[j].ClassroomKey })
	return layouts, nil
}
