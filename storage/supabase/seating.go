package supabase

import (
	"context"

	"github.com/hansei/chulseok/core/seating"
)

const (
	arrangementsTable = "seat_arrangements"
	layoutsTable      = "classroom_layouts"
)

type seatingRepository struct {
	client *Client
}

var _ seating.Repository = (*seatingRepository)(nil) // interface compliance check

func NewSeatingRepository(client *Client) *seatingRepository {
	return &seatingRepository{client: client}
}

func (repo seatingRepository) QueryActiveArrangements(ctx context.Context, classroom, date string) ([]seating.Arrangement, error) {
	q := NewQuery().
		Eq("classroom", classroom).
		Eq("arrangement_date", date).
		Eq("is_active", true).
		Select("*").
		Order("position_key")
	var rows []seating.Arrangement
	if err := repo.client.Get(ctx, arrangementsTable, q, true, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (repo seatingRepository) DeactivateArrangements(ctx context.Context, classroom, date string) error {
	q := NewQuery().Eq("classroom", classroom).Eq("arrangement_date", date)
	return repo.client.Patch(ctx, arrangementsTable, q, map[string]interface{}{"is_active": false}, true)
}

func (repo seatingRepository) CreateArrangements(ctx context.Context, rows []seating.Arrangement) error {
	inserts := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		inserts = append(inserts, map[string]interface{}{
			"classroom":        row.Classroom,
			"position_key":     row.PositionKey,
			"student_emails":   row.StudentEmails,
			"arrangement_date": row.ArrangementDate,
			"created_by":       row.CreatedBy,
			"is_active":        row.IsActive,
		})
	}
	return repo.client.Post(ctx, arrangementsTable, inserts, true, nil)
}

func (repo seatingRepository) GetLayout(ctx context.Context, classroomKey string) (seating.Layout, error) {
	q := NewQuery().Eq("classroom_key", classroomKey).Eq("is_active", true).Select("*")
	var rows []seating.Layout
	if err := repo.client.Get(ctx, layoutsTable, q, true, &rows); err != nil {
		return seating.Layout{}, err
	}
	if len(rows) == 0 {
		return seating.Layout{}, seating.ErrNotFound
	}
	return rows[0], nil
}

func (repo seatingRepository) QueryLayouts(ctx context.Context) ([]seating.Layout, error) {
	q := NewQuery().Eq("is_active", true).Select("*").Order("classroom_key")
	var rows []seating.Layout
	if err := repo.client.Get(ctx, layoutsTable, q, true, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
