package attendance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hansei/chulseok/core"
	"github.com/hansei/chulseok/core/period"
	"github.com/hansei/chulseok/core/user"
)

type fakeRepo struct {
	records map[string]Record
	writes  int
}

func newFakeRepo() *fakeRepo { return &fakeRepo{records: make(map[string]Record)} }

func recKey(date string, periodCode int, email string) string {
	return fmt.Sprintf("%s|%d|%s", date, periodCode, email)
}

func (r *fakeRepo) GetRecord(_ context.Context, date string, periodCode int, email string) (Record, error) {
	rec, ok := r.records[recKey(date, periodCode, email)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *fakeRepo) CreateRecord(_ context.Context, rec Record) error {
	r.writes++
	r.records[recKey(rec.AttendanceDate, rec.Period, rec.StudentEmail)] = rec
	return nil
}

func (r *fakeRepo) UpdateRecord(_ context.Context, rec Record) error {
	r.writes++
	r.records[recKey(rec.AttendanceDate, rec.Period, rec.StudentEmail)] = rec
	return nil
}

func (r *fakeRepo) QueryRecords(_ context.Context, date string, periodCode int) ([]Record, error) {
	var recs []Record
	for _, rec := range r.records {
		if rec.AttendanceDate == date && rec.Period == periodCode {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (r *fakeRepo) QueryRecordsByDate(_ context.Context, date string) ([]Record, error) {
	var recs []Record
	for _, rec := range r.records {
		if rec.AttendanceDate == date {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (r *fakeRepo) QueryRecordsByRange(_ context.Context, from, to string) ([]Record, error) {
	var recs []Record
	for _, rec := range r.records {
		if from <= rec.AttendanceDate && rec.AttendanceDate <= to {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

type fakeDirectory struct {
	users map[string]user.User
}

func (d *fakeDirectory) GetByEmail(_ context.Context, email string) (user.User, error) {
	usr, ok := d.users[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

type fakeTimetable struct{}

func (fakeTimetable) ConfigFor(_ context.Context, date time.Time) (period.Config, error) {
	return period.DefaultConfig(date), nil
}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

var _ core.Logger = nopLogger{}

func newTestService(repo *fakeRepo) *Service {
	dir := &fakeDirectory{users: map[string]user.User{
		"a@hansei.hs.kr": {ID: "uid-a", Email: "a@hansei.hs.kr", Role: user.RoleStudent},
		"b@hansei.hs.kr": {ID: "uid-b", Email: "b@hansei.hs.kr", Role: user.RoleStudent},
	}}
	return NewService(repo, dir, fakeTimetable{}, nil, nopLogger{})
}

var (
	monday  = time.Date(2024, 8, 19, 0, 0, 0, 0, time.UTC)
	teacher = user.User{ID: "uid-t", Email: "t@hansei.hs.kr", Name: "김교사", Role: user.RoleTeacher}
)

func TestMarkMissIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo)

	out, err := svc.Mark(ctx, ActionMiss, monday, 11, []string{"a@hansei.hs.kr"}, teacher)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, OutcomeMarked, out[0].Result)

	out, err = svc.Mark(ctx, ActionMiss, monday, 11, []string{"a@hansei.hs.kr"}, teacher)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, out[0].Result)

	require.Len(t, repo.records, 1)
	rec := repo.records[recKey("2024-08-19", 11, "a@hansei.hs.kr")]
	assert.Equal(t, StatusAbsent, rec.Status)
	assert.Equal(t, "uid-t", rec.MarkedBy)
	assert.Equal(t, "1차자습", rec.Notes)
	assert.Equal(t, 1, repo.writes)
}

func TestMarkReturnInvertsMiss(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.Mark(ctx, ActionMiss, monday, 11, []string{"a@hansei.hs.kr"}, teacher)
	require.NoError(t, err)

	out, err := svc.Mark(ctx, ActionReturn, monday, 11, []string{"a@hansei.hs.kr", "b@hansei.hs.kr"}, teacher)
	require.NoError(t, err)
	assert.Equal(t, OutcomeReturned, out[0].Result)
	assert.Equal(t, OutcomeSkipped, out[1].Result) // never marked absent

	require.Len(t, repo.records, 1)
	rec := repo.records[recKey("2024-08-19", 11, "a@hansei.hs.kr")]
	assert.Equal(t, StatusReturned, rec.Status)
	assert.Equal(t, "uid-t", rec.ReturnedBy)
	assert.NotNil(t, rec.ReturnedAt)
}

func TestMarkRejectsUnscheduledPeriod(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo)

	// period 14 only exists on the holiday timetable
	_, err := svc.Mark(ctx, ActionMiss, monday, 14, []string{"a@hansei.hs.kr"}, teacher)
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.Empty(t, repo.records) // whole batch rejected, nothing written
}

func TestMarkValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeRepo())

	_, err := svc.Mark(ctx, "promote", monday, 11, []string{"a@hansei.hs.kr"}, teacher)
	assert.True(t, core.IsValidation(err))

	_, err = svc.Mark(ctx, ActionMiss, monday, 11, nil, teacher)
	assert.True(t, core.IsValidation(err))
}

func TestMarkUnknownStudent(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo)

	out, err := svc.Mark(ctx, ActionMiss, monday, 11, []string{"ghost@hansei.hs.kr"}, teacher)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, out[0].Result)
	assert.Empty(t, repo.records)
}

func TestMissingForGroupsByPeriod(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.Mark(ctx, ActionMiss, monday, 11, []string{"a@hansei.hs.kr", "b@hansei.hs.kr"}, teacher)
	require.NoError(t, err)
	_, err = svc.Mark(ctx, ActionMiss, monday, 12, []string{"a@hansei.hs.kr"}, teacher)
	require.NoError(t, err)
	// a returned record no longer counts as missing
	_, err = svc.Mark(ctx, ActionReturn, monday, 12, []string{"a@hansei.hs.kr"}, teacher)
	require.NoError(t, err)

	missing, err := svc.MissingFor(ctx, monday)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a@hansei.hs.kr", "b@hansei.hs.kr"}, missing[11])
	assert.Empty(t, missing[12])
}

func TestMarkBulk(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo)

	n, err := svc.MarkBulk(ctx, monday, 1, []string{"a@hansei.hs.kr", "ghost@hansei.hs.kr", "b@hansei.hs.kr"},
		StatusActivity, teacher, "분임토의실")
	require.NoError(t, err)
	assert.Equal(t, 2, n) // unknown student skipped

	acts, err := svc.Activities(ctx, monday, 1)
	require.NoError(t, err)
	assert.Len(t, acts, 2)

	_, err = svc.MarkBulk(ctx, monday, 1, []string{"a@hansei.hs.kr"}, "vanished", teacher, "")
	assert.True(t, core.IsValidation(err))
}

func TestStatusForAndStatistics(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.Mark(ctx, ActionMiss, monday, 11, []string{"a@hansei.hs.kr", "b@hansei.hs.kr"}, teacher)
	require.NoError(t, err)
	_, err = svc.Mark(ctx, ActionReturn, monday, 11, []string{"b@hansei.hs.kr"}, teacher)
	require.NoError(t, err)

	st, err := svc.StatusFor(ctx, monday, 11)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total)
	assert.Len(t, st.Absent, 1)
	assert.Len(t, st.Returned, 1)
	assert.Empty(t, st.Present)

	stats, err := svc.Statistics(ctx, monday, monday)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRecords)
	assert.Equal(t, 1, stats.ByStatus[StatusAbsent])
	assert.Equal(t, 1, stats.ByStatus[StatusReturned])
	assert.Equal(t, 2, stats.ByDate["2024-08-19"].Total)
	assert.Equal(t, 1, stats.ByDate["2024-08-19"].Absent)
	assert.Equal(t, 2, stats.ByPeriod[11].Total)
}
