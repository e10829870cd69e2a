package supabase

import (
	"context"

	"github.com/hansei/chulseok/core/attendance"
)

const attendanceTable = "attendance_records"

type attendanceRepository struct {
	client *Client
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(client *Client) *attendanceRepository {
	return &attendanceRepository{client: client}
}

// attendanceRow carries the embedded student info the read views render.
type attendanceRow struct {
	attendance.Record
	User *struct {
		Name     string `json:"name"`
		Profiles []struct {
			StudentNumber string `json:"student_id"`
		} `json:"student_profiles"`
	} `json:"users,omitempty"`
}

func (repo attendanceRepository) unrowSlice(rows []attendanceRow) []attendance.Record {
	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		rec := row.Record
		if row.User != nil {
			rec.StudentName = row.User.Name
			if len(row.User.Profiles) > 0 {
				rec.StudentNumber = row.User.Profiles[0].StudentNumber
			}
		}
		recs = append(recs, rec)
	}
	return recs
}

const embeddedStudentSelect = "*,users(name,student_profiles(student_id))"

func (repo attendanceRepository) GetRecord(ctx context.Context, date string, periodCode int, studentEmail string) (attendance.Record, error) {
	q := NewQuery().
		Eq("attendance_date", date).
		Eq("period", periodCode).
		Eq("student_email", studentEmail).
		Select("*")
	var rows []attendance.Record
	if err := repo.client.Get(ctx, attendanceTable, q, true, &rows); err != nil {
		return attendance.Record{}, err
	}
	if len(rows) == 0 {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return rows[0], nil
}

func (repo attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) error {
	rec.StudentName, rec.StudentNumber = "", "" // embedded columns, not writable
	return repo.client.Post(ctx, attendanceTable, []attendance.Record{rec}, true, nil)
}

func (repo attendanceRepository) UpdateRecord(ctx context.Context, rec attendance.Record) error {
	rec.StudentName, rec.StudentNumber = "", ""
	q := NewQuery().
		Eq("attendance_date", rec.AttendanceDate).
		Eq("period", rec.Period).
		Eq("student_email", rec.StudentEmail)
	return repo.client.Patch(ctx, attendanceTable, q, rec, true)
}

func (repo attendanceRepository) QueryRecords(ctx context.Context, date string, periodCode int) ([]attendance.Record, error) {
	q := NewQuery().
		Eq("attendance_date", date).
		Eq("period", periodCode).
		Select(embeddedStudentSelect)
	var rows []attendanceRow
	if err := repo.client.Get(ctx, attendanceTable, q, true, &rows); err != nil {
		return nil, err
	}
	return repo.unrowSlice(rows), nil
}

func (repo attendanceRepository) QueryRecordsByDate(ctx context.Context, date string) ([]attendance.Record, error) {
	q := NewQuery().
		Eq("attendance_date", date).
		Select("*").
		Order("period")
	var rows []attendanceRow
	if err := repo.client.Get(ctx, attendanceTable, q, true, &rows); err != nil {
		return nil, err
	}
	return repo.unrowSlice(rows), nil
}

func (repo attendanceRepository) QueryRecordsByRange(ctx context.Context, from, to string) ([]attendance.Record, error) {
	q := NewQuery().
		Gte("attendance_date", from).
		Lte("attendance_date", to).
		Select("attendance_date,period,status,student_email").
		Order("attendance_date.desc,period")
	var rows []attendanceRow
	if err := repo.client.Get(ctx, attendanceTable, q, true, &rows); err != nil {
		return nil, err
	}
	return repo.unrowSlice(rows), nil
}
