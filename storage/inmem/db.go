// Package inmemdb provides map-backed repositories for tests and local
// development runs without a hosted data store.
package inmemdb

import (
	"sync"

	"github.com/hansei/chulseok/core/attendance"
	"github.com/hansei/chulseok/core/period"
	"github.com/hansei/chulseok/core/school"
	"github.com/hansei/chulseok/core/seating"
	"github.com/hansei/chulseok/core/user"
)

type (
	DB struct {
		user       *userTable
		school     *schoolTable
		attendance *attendanceTable
		seating    *seatingTable
		period     *periodTable
	}

	userTable struct {
		sync.RWMutex
		users           map[string]*user.User
		studentProfiles map[string]*user.StudentProfile
		teacherProfiles map[string]*user.TeacherProfile
	}

	schoolTable struct {
		sync.RWMutex
		schools     map[string]*school.School
		classes     map[string]*school.Class
		enrollments map[string]*school.Enrollment // keyed studentEmail|classID
	}

	attendanceTable struct {
		sync.RWMutex
		records map[string]*attendance.Record // keyed date|period|studentEmail
	}

	seatingTable struct {
		sync.RWMutex
		arrangements []*seating.Arrangement
		layouts      map[string]*seating.Layout
	}

	periodTable struct {
		sync.RWMutex
		configs map[string]*period.Config // keyed config_date
		shifts  map[string][]period.SupervisorShift
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{
			users:           make(map[string]*user.User),
			studentProfiles: make(map[string]*user.StudentProfile),
			teacherProfiles: make(map[string]*user.TeacherProfile),
		},
		school: &schoolTable{
			schools:     make(map[string]*school.School),
			classes:     make(map[string]*school.Class),
			enrollments: make(map[string]*school.Enrollment),
		},
		attendance: &attendanceTable{records: make(map[string]*attendance.Record)},
		seating:    &seatingTable{layouts: make(map[string]*seating.Layout)},
		period: &periodTable{
			configs: make(map[string]*period.Config),
			shifts:  make(map[string][]period.SupervisorShift),
		},
	}
	return db, nil
}
