package supabase

import (
	"context"

	"github.com/hansei/chulseok/core/period"
)

const (
	periodConfigsTable = "period_configs"
	supervisorsTable   = "supervisor_schedules"
)

type periodRepository struct {
	client *Client
}

var _ period.Repository = (*periodRepository)(nil) // interface compliance check

func NewPeriodRepository(client *Client) *periodRepository {
	return &periodRepository{client: client}
}

func (repo periodRepository) GetConfig(ctx context.Context, date string) (period.Config, error) {
	q := NewQuery().Eq("config_date", date).Select("*")
	var rows []period.Config
	if err := repo.client.Get(ctx, periodConfigsTable, q, true, &rows); err != nil {
		return period.Config{}, err
	}
	if len(rows) == 0 {
		return period.Config{}, period.ErrNotFound
	}
	return rows[0], nil
}

func (repo periodRepository) CreateConfig(ctx context.Context, cfg period.Config) error {
	return repo.client.Post(ctx, periodConfigsTable, []period.Config{cfg}, true, nil)
}

func (repo periodRepository) UpdateConfig(ctx context.Context, cfg period.Config) error {
	q := NewQuery().Eq("config_date", cfg.ConfigDate)
	return repo.client.Patch(ctx, periodConfigsTable, q, cfg, true)
}

func (repo periodRepository) QuerySupervisorShifts(ctx context.Context, date string) ([]period.SupervisorShift, error) {
	type shiftRow struct {
		Grade        int    `json:"grade"`
		TeacherEmail string `json:"teacher_email"`
		StartTime    string `json:"start_time"`
		EndTime      string `json:"end_time"`
		Notes        string `json:"notes"`
		User         *struct {
			Name     string `json:"name"`
			Profiles []struct {
				Position string `json:"position"`
				Subject  string `json:"subject"`
			} `json:"teacher_profiles"`
		} `json:"users"`
	}

	q := NewQuery().
		Eq("schedule_date", date).
		Select("*,users(name,teacher_profiles(position,subject))").
		Order("grade,start_time")
	var rows []shiftRow
	if err := repo.client.Get(ctx, supervisorsTable, q, true, &rows); err != nil {
		return nil, err
	}

	shifts := make([]period.SupervisorShift, 0, len(rows))
	for _, row := range rows {
		shift := period.SupervisorShift{
			Grade:        row.Grade,
			TeacherEmail: row.TeacherEmail,
			TeacherName:  "알 수 없음",
			StartTime:    row.StartTime,
			EndTime:      row.EndTime,
			Notes:        row.Notes,
		}
		if row.User != nil {
			shift.TeacherName = row.User.Name
			if len(row.User.Profiles) > 0 {
				shift.Position = row.User.Profiles[0].Position
				shift.Subject = row.User.Profiles[0].Subject
			}
		}
		shifts = append(shifts, shift)
	}
	return shifts, nil
}
