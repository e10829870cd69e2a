package inmemdb

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/hansei/chulseok/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db.attendance}
}

func recordKey(date string, periodCode int, studentEmail string) string {
	return fmt.Sprintf("%s|%d|%s", date, periodCode, studentEmail)
}

func (repo *attendanceRepository) GetRecord(_ context.Context, date string, periodCode int, studentEmail string) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.records[recordKey(date, periodCode, studentEmail)]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) CreateRecord(_ context.Context, rec attendance.Record) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec.ID = uuid.New().String()
	repo.db.records[recordKey(rec.AttendanceDate, rec.Period, rec.StudentEmail)] = &rec
	return nil
}

func (repo *attendanceRepository) UpdateRecord(_ context.Context, rec attendance.Record) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := recordKey(rec.AttendanceDate, rec.Period, rec.StudentEmail)
	if _, ok := repo.db.records[key]; !ok {
		return attendance.ErrNotFound
	}
	repo.db.records[key] = &rec
	return nil
}

func (repo *attendanceRepository) queryMatching(match func(*attendance.Record) bool) []attendance.Record {
	var recs []attendance.Record
	for _, rec := range repo.db.records {
		if match(rec) {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].AttendanceDate != recs[j].AttendanceDate {
			return recs[i].AttendanceDate > recs[j].AttendanceDate
		}
		return recs[i].Period < recs[j].Period
	})
	return recs
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, date string, periodCode int) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.queryMatching(func(rec *attendance.Record) bool {
		return rec.AttendanceDate == date && rec.Period == periodCode
	}), nil
}

func (repo *attendanceRepository) QueryRecordsByDate(_ context.Context, date string) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.queryMatching(func(rec *attendance.Record) bool {
		return rec.AttendanceDate == date
	}), nil
}

func (repo *attendanceRepository) QueryRecordsByRange(_ context.Context, from, to string) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.queryMatching(func(rec *attendance.Record) bool {
		return from <= rec.AttendanceDate && rec.AttendanceDate <= to
	}), nil
}
