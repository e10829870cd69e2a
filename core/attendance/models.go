package attendance

import "time"

// Record statuses. A student with no record for a (date, period) is present.
const (
	StatusPresent  = "present"
	StatusAbsent   = "absent"
	StatusReturned = "returned"
	StatusActivity = "activity"
)

// Mark actions.
const (
	ActionMiss   = "miss"
	ActionReturn = "return"
)

// Per-student outcomes of a Mark call.
const (
	OutcomeMarked   = "marked"
	OutcomeReturned = "returned"
	OutcomeSkipped  = "skipped"
	OutcomeNotFound = "not_found"
)

type (
	Record struct {
		ID               string     `json:"id,omitempty"`
		AttendanceDate   string     `json:"attendance_date"`
		Period           int        `json:"period"`
		StudentID        string     `json:"student_id,omitempty"`
		StudentEmail     string     `json:"student_email"`
		Status           string     `json:"status"`
		MarkedBy         string     `json:"marked_by,omitempty"`
		MarkedAt         *time.Time `json:"marked_at,omitempty"`
		ReturnedBy       string     `json:"returned_by,omitempty"`
		ReturnedAt       *time.Time `json:"returned_at,omitempty"`
		ActivityType     string     `json:"activity_type,omitempty"`
		ActivityLocation string     `json:"activity_location,omitempty"`
		Notes            string     `json:"notes,omitempty"`
		UpdatedAt        time.Time  `json:"updated_at,omitempty"`

		// Filled by embedded selects on read paths, never written back.
		StudentName   string `json:"student_name,omitempty"`
		StudentNumber string `json:"student_number,omitempty"`
	}

	// Outcome reports what happened to one student of a Mark batch, so
	// callers can tell newly-marked students apart from suppressed
	// duplicates.
	Outcome struct {
		StudentEmail string `json:"student_email"`
		Result       string `json:"result"`
	}

	// Status groups a period's records for the visualization views.
	Status struct {
		Present  []Record `json:"present"`
		Absent   []Record `json:"absent"`
		Returned []Record `json:"returned"`
		Activity []Record `json:"activity"`
		Total    int      `json:"total_records"`
	}

	Breakdown struct {
		Total   int `json:"total"`
		Present int `json:"present"`
		Absent  int `json:"absent"`
	}

	Stats struct {
		TotalRecords int                   `json:"total_records"`
		ByStatus     map[string]int        `json:"by_status"`
		ByDate       map[string]*Breakdown `json:"by_date"`
		ByPeriod     map[int]*Breakdown    `json:"by_period"`
	}
)

func knownStatus(status string) bool {
	switch status {
	case StatusPresent, StatusAbsent, StatusReturned, StatusActivity:
		return true
	}
	return false
}
