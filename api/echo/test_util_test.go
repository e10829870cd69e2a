package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hansei/chulseok/core/attendance"
	"github.com/hansei/chulseok/core/period"
	"github.com/hansei/chulseok/core/school"
	"github.com/hansei/chulseok/core/seating"
	"github.com/hansei/chulseok/core/user"
	emailsvc "github.com/hansei/chulseok/services/email"
	inmemdb "github.com/hansei/chulseok/storage/inmem"
)

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type testDeps struct {
	server     Server
	users      *user.Service
	schools    *school.Service
	periods    *period.Service
	attendance *attendance.Service
	seating    *seating.Service

	userRepo interface {
		CreateUser(ctx context.Context, usr user.User) (user.User, error)
		CreateStudentProfile(ctx context.Context, profile user.StudentProfile) error
	}
	seatingRepo interface {
		AddLayout(layout seating.Layout)
	}
}

func newTestServer(t *testing.T) *testDeps {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}

	userRepo := inmemdb.NewUserRepository(db)
	seatingRepo := inmemdb.NewSeatingRepository(db)

	usrSvc := user.NewService(userRepo)
	schSvc := school.NewService(inmemdb.NewSchoolRepository(db))
	prdSvc := period.NewService(inmemdb.NewPeriodRepository(db), nil)
	attSvc := attendance.NewService(
		inmemdb.NewAttendanceRepository(db), usrSvc, prdSvc, emailsvc.NewConsoleServiceMock(), nopLogger{})
	seatSvc := seating.NewService(seatingRepo, userRepo, attSvc)

	server := NewServer(ServerDeps{
		DisableReqLogs: true,
		Logger:         nopLogger{},
		UserSvc:        usrSvc,
		SchoolSvc:      schSvc,
		PeriodSvc:      prdSvc,
		AttendanceSvc:  attSvc,
		SeatingSvc:     seatSvc,
	})

	return &testDeps{
		server:      server,
		users:       usrSvc,
		schools:     schSvc,
		periods:     prdSvc,
		attendance:  attSvc,
		seating:     seatSvc,
		userRepo:    userRepo,
		seatingRepo: seatingRepo,
	}
}

func (d *testDeps) seedUser(t *testing.T, email, name, role string) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr, err := d.userRepo.CreateUser(context.Background(), user.User{
		Email:     email,
		Name:      name,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seeding user %s: %v", email, err)
	}
	return usr
}

// seedClass creates a school and a class owned by teacherEmail and enrolls
// the given students.
func (d *testDeps) seedClass(t *testing.T, teacherEmail string, studentEmails ...string) school.Class {
	t.Helper()
	ctx := context.Background()

	sch, err := d.schools.CreateSchool(ctx, school.NewSchool{Name: "한세고등학교", GradeCount: 3})
	if err != nil {
		t.Fatalf("seeding school: %v", err)
	}
	cls, err := d.schools.CreateClass(ctx, school.NewClass{
		SchoolID: sch.ID, Grade: 1, ClassNumber: 1, ClassName: "1학년 1반", TeacherEmail: teacherEmail,
	})
	if err != nil {
		t.Fatalf("seeding class: %v", err)
	}
	for _, email := range studentEmails {
		if err := d.schools.Enroll(ctx, email, cls.ID); err != nil {
			t.Fatalf("enrolling %s: %v", email, err)
		}
	}
	return cls
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func getElevatedToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(usr)
	claims.Elevated = true
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getElevatedToken() failed: %v", err)
	}
	return token
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}
