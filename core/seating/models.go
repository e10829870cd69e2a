package seating

import "time"

// RowsPerPosition is the fixed number of seat rows behind one position key.
const RowsPerPosition = 7

// SeatEmpty marks an unoccupied slot in an assembled chart.
const SeatEmpty = "empty"

type (
	// Section describes one column group of a classroom. Double-column
	// sections seat students on a left and a right side; Stick marks
	// sections rendered flush against their neighbor.
	Section struct {
		Name  string `json:"name"`
		Cols  int    `json:"cols"`
		Stick bool   `json:"stick"`
	}

	Layout struct {
		ID           string    `json:"id,omitempty"`
		ClassroomKey string    `json:"classroom_key"`
		Name         string    `json:"name"`
		Sections     []Section `json:"sections"`
		IsActive     bool      `json:"is_active"`
	}

	// Arrangement is one stored position row: an ordered student list behind
	// a position key for a classroom+date. Re-saving a classroom+date
	// deactivates the previous rows instead of deleting them.
	Arrangement struct {
		ID              string    `json:"id,omitempty"`
		Classroom       string    `json:"classroom"`
		PositionKey     string    `json:"position_key"`
		StudentEmails   []string  `json:"student_emails"`
		ArrangementDate string    `json:"arrangement_date"`
		CreatedBy       string    `json:"created_by,omitempty"`
		IsActive        bool      `json:"is_active"`
		CreatedAt       time.Time `json:"created_at,omitempty"`
	}

	// Occupant is the roster info rendered on a seat.
	Occupant struct {
		ID          string `json:"id,omitempty"`
		Email       string `json:"email"`
		Name        string `json:"name"`
		Number      string `json:"number,omitempty"`
		Grade       int    `json:"grade,omitempty"`
		ClassNumber int    `json:"class_number,omitempty"`
	}

	Activity struct {
		Type  string `json:"type"`
		Place string `json:"place"`
	}

	Seat struct {
		Position         string    `json:"position"`
		Student          *Occupant `json:"student"`
		AttendanceStatus string    `json:"attendance_status"`
		Activity         *Activity `json:"activity,omitempty"`
	}

	Row struct {
		Seats []Seat `json:"seats"`
	}

	SectionChart struct {
		Name  string `json:"name"`
		Stick bool   `json:"stick"`
		Rows  []Row  `json:"rows"`
	}

	Chart struct {
		Classroom    string         `json:"classroom"`
		Date         string         `json:"date"`
		Period       int            `json:"period"`
		Sections     []SectionChart `json:"sections"`
		StudentCount int            `json:"student_count"`
	}
)

// Sides returns the seat sides a section exposes, left to right.
func (s Section) Sides() []string {
	if s.Cols > 1 {
		return []string{"L", "R"}
	}
	return []string{"L"}
}
