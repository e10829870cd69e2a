package seating

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hansei/chulseok/core/attendance"
	"github.com/hansei/chulseok/core/user"
)

type fakeRepo struct {
	layout       Layout
	arrangements []Arrangement
	deactivated  int
}

func (r *fakeRepo) QueryActiveArrangements(_ context.Context, classroom, date string) ([]Arrangement, error) {
	var active []Arrangement
	for _, a := range r.arrangements {
		if a.Classroom == classroom && a.ArrangementDate == date && a.IsActive {
			active = append(active, a)
		}
	}
	return active, nil
}

func (r *fakeRepo) DeactivateArrangements(_ context.Context, classroom, date string) error {
	for i := range r.arrangements {
		if r.arrangements[i].Classroom == classroom && r.arrangements[i].ArrangementDate == date {
			r.arrangements[i].IsActive = false
			r.deactivated++
		}
	}
	return nil
}

func (r *fakeRepo) CreateArrangements(_ context.Context, rows []Arrangement) error {
	r.arrangements = append(r.arrangements, rows...)
	return nil
}

func (r *fakeRepo) GetLayout(_ context.Context, key string) (Layout, error) {
	if r.layout.ClassroomKey != key {
		return Layout{}, ErrNotFound
	}
	return r.layout, nil
}

func (r *fakeRepo) QueryLayouts(_ context.Context) ([]Layout, error) {
	return []Layout{r.layout}, nil
}

type fakeRoster struct {
	students map[string]Occupant
}

func (f *fakeRoster) QueryStudentsByEmails(_ context.Context, emails []string) ([]Occupant, error) {
	var found []Occupant
	for _, email := range emails {
		if occ, ok := f.students[email]; ok {
			found = append(found, occ)
		}
	}
	return found, nil
}

type fakeAttendance struct {
	status attendance.Status
}

func (f *fakeAttendance) StatusFor(_ context.Context, _ time.Time, _ int) (attendance.Status, error) {
	return f.status, nil
}

var chartDate = time.Date(2024, 8, 19, 0, 0, 0, 0, time.UTC)

func newChartService() (*Service, *fakeRepo) {
	repo := &fakeRepo{
		layout: Layout{
			ClassroomKey: "study-1",
			Name:         "1학년 자습실",
			Sections:     []Section{{Name: "1-A", Cols: 2}},
			IsActive:     true,
		},
		arrangements: []Arrangement{{
			Classroom:       "study-1",
			PositionKey:     "1-A-L",
			StudentEmails:   []string{"a@hansei.hs.kr", "b@hansei.hs.kr", "c@hansei.hs.kr"},
			ArrangementDate: "2024-08-19",
			IsActive:        true,
		}},
	}
	roster := &fakeRoster{students: map[string]Occupant{
		"a@hansei.hs.kr": {Email: "a@hansei.hs.kr", Name: "김철수", Number: "11001"},
		"b@hansei.hs.kr": {Email: "b@hansei.hs.kr", Name: "이영희", Number: "11002"},
		"c@hansei.hs.kr": {Email: "c@hansei.hs.kr", Name: "박민수", Number: "11003"},
	}}
	records := &fakeAttendance{status: attendance.Status{
		Absent: []attendance.Record{{StudentEmail: "b@hansei.hs.kr", Status: attendance.StatusAbsent}},
		Activity: []attendance.Record{{
			StudentEmail:     "c@hansei.hs.kr",
			Status:           attendance.StatusActivity,
			ActivityType:     "분임토의",
			ActivityLocation: "분임토의실",
		}},
	}}
	return NewService(repo, roster, records), repo
}

func TestAssembleReverseFill(t *testing.T) {
	svc, _ := newChartService()

	chart, err := svc.Assemble(context.Background(), "study-1", chartDate, 11)
	require.NoError(t, err)
	require.Len(t, chart.Sections, 1)
	require.Len(t, chart.Sections[0].Rows, RowsPerPosition)
	assert.Equal(t, 3, chart.StudentCount)

	// list [a,b,c] renders c in the topmost row, then b, then a
	left := func(r int) Seat { return chart.Sections[0].Rows[r].Seats[0] }
	require.NotNil(t, left(0).Student)
	assert.Equal(t, "c@hansei.hs.kr", left(0).Student.Email)
	assert.Equal(t, "b@hansei.hs.kr", left(1).Student.Email)
	assert.Equal(t, "a@hansei.hs.kr", left(2).Student.Email)
	for r := 3; r < RowsPerPosition; r++ {
		assert.Nil(t, left(r).Student)
		assert.Equal(t, SeatEmpty, left(r).AttendanceStatus)
	}

	// the right side has no arrangement at all: empty seats, not an error
	for r := 0; r < RowsPerPosition; r++ {
		assert.Equal(t, SeatEmpty, chart.Sections[0].Rows[r].Seats[1].AttendanceStatus)
	}
}

func TestAssembleAnnotatesAttendance(t *testing.T) {
	svc, _ := newChartService()

	chart, err := svc.Assemble(context.Background(), "study-1", chartDate, 11)
	require.NoError(t, err)

	left := func(r int) Seat { return chart.Sections[0].Rows[r].Seats[0] }
	assert.Equal(t, attendance.StatusActivity, left(0).AttendanceStatus)
	require.NotNil(t, left(0).Activity)
	assert.Equal(t, "분임토의실", left(0).Activity.Place)

	assert.Equal(t, attendance.StatusAbsent, left(1).AttendanceStatus)
	assert.Nil(t, left(1).Activity)

	// no record defaults to present
	assert.Equal(t, attendance.StatusPresent, left(2).AttendanceStatus)
}

func TestAssembleUnknownStudent(t *testing.T) {
	svc, repo := newChartService()
	repo.arrangements[0].StudentEmails = []string{"ghost@hansei.hs.kr"}

	chart, err := svc.Assemble(context.Background(), "study-1", chartDate, 11)
	require.NoError(t, err)

	seat := chart.Sections[0].Rows[0].Seats[0]
	require.NotNil(t, seat.Student)
	assert.Equal(t, "알 수 없음", seat.Student.Name)
}

func TestSaveDeactivatesThenInserts(t *testing.T) {
	svc, repo := newChartService()
	admin := user.User{ID: "uid-admin", Role: user.RoleAdmin}

	n, err := svc.Save(context.Background(), "study-1", chartDate, map[string][]string{
		"1-A-L": {"b@hansei.hs.kr"},
		"1-A-R": {}, // empty positions are not persisted
	}, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, repo.deactivated)

	arrangements, err := svc.Arrangements(context.Background(), "study-1", chartDate)
	require.NoError(t, err)
	require.Len(t, arrangements, 1)
	assert.Equal(t, []string{"b@hansei.hs.kr"}, arrangements["1-A-L"])

	_, err = svc.Save(context.Background(), "study-1", chartDate, nil, admin)
	require.Error(t, err)
}
