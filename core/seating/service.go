package seating

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/hansei/chulseok/core"
	"github.com/hansei/chulseok/core/attendance"
	"github.com/hansei/chulseok/core/period"
	"github.com/hansei/chulseok/core/user"
)

var (
	ErrNotFound   = errors.New("not found")
	errNoPosition = errors.New("arrangement has no positions")
)

type (
	Repository interface {
		QueryActiveArrangements(ctx context.Context, classroom, date string) ([]Arrangement, error)
		DeactivateArrangements(ctx context.Context, classroom, date string) error
		CreateArrangements(ctx context.Context, rows []Arrangement) error
		GetLayout(ctx context.Context, classroomKey string) (Layout, error)
		QueryLayouts(ctx context.Context) ([]Layout, error)
	}

	// Roster resolves student emails to their display info.
	Roster interface {
		QueryStudentsByEmails(ctx context.Context, emails []string) ([]Occupant, error)
	}

	// AttendanceLookup supplies per-period attendance state for annotation.
	AttendanceLookup interface {
		StatusFor(ctx context.Context, date time.Time, periodCode int) (attendance.Status, error)
	}

	Service struct {
		repo    Repository
		roster  Roster
		records AttendanceLookup
	}
)

func NewService(repo Repository, roster Roster, records AttendanceLookup) *Service {
	return &Service{repo: repo, roster: roster, records: records}
}

func (svc *Service) Layout(ctx context.Context, classroomKey string) (Layout, error) {
	return svc.repo.GetLayout(ctx, classroomKey)
}

func (svc *Service) Layouts(ctx context.Context) ([]Layout, error) {
	return svc.repo.QueryLayouts(ctx)
}

// Arrangements returns the active position-to-students map for a
// classroom+date.
func (svc *Service) Arrangements(ctx context.Context, classroom string, date time.Time) (map[string][]string, error) {
	rows, err := svc.repo.QueryActiveArrangements(ctx, classroom, date.Format(period.DateFormat))
	if err != nil {
		return nil, err
	}

	arrangements := make(map[string][]string, len(rows))
	for _, row := range rows {
		arrangements[row.PositionKey] = row.StudentEmails
	}
	return arrangements, nil
}

// SeatData joins the active arrangement with roster info per position key.
// Emails with no matching student row still occupy their seat, rendered
// name-unknown rather than dropped.
func (svc *Service) SeatData(ctx context.Context, classroom string, date time.Time) (map[string][]Occupant, int, error) {
	arrangements, err := svc.Arrangements(ctx, classroom, date)
	if err != nil {
		return nil, 0, err
	}

	var allEmails []string
	for _, emails := range arrangements {
		allEmails = append(allEmails, emails...)
	}

	occupants, err := svc.occupantsByEmail(ctx, allEmails)
	if err != nil {
		return nil, 0, err
	}

	seatData := make(map[string][]Occupant, len(arrangements))
	for positionKey, emails := range arrangements {
		seats := make([]Occupant, 0, len(emails))
		for _, email := range emails {
			seats = append(seats, occupants[email])
		}
		seatData[positionKey] = seats
	}
	return seatData, len(allEmails), nil
}

// Assemble builds the renderable chart for a classroom, date and period:
// layout geometry filled with the active arrangement, roster info and the
// period's attendance state. Position rows fill in reverse order: the last
// listed student sits in the topmost rendered row. Unassigned slots render
// as empty seats.
func (svc *Service) Assemble(ctx context.Context, classroom string, date time.Time, periodCode int) (Chart, error) {
	layout, err := svc.repo.GetLayout(ctx, classroom)
	if err != nil {
		return Chart{}, err
	}

	arrangements, err := svc.Arrangements(ctx, classroom, date)
	if err != nil {
		return Chart{}, err
	}

	var allEmails []string
	for _, emails := range arrangements {
		allEmails = append(allEmails, emails...)
	}
	occupants, err := svc.occupantsByEmail(ctx, allEmails)
	if err != nil {
		return Chart{}, err
	}

	status, err := svc.records.StatusFor(ctx, date, periodCode)
	if err != nil {
		return Chart{}, err
	}
	recordsByEmail := make(map[string]attendance.Record)
	for _, group := range [][]attendance.Record{status.Absent, status.Returned, status.Activity, status.Present} {
		for _, rec := range group {
			recordsByEmail[rec.StudentEmail] = rec
		}
	}

	chart := Chart{
		Classroom:    classroom,
		Date:         date.Format(period.DateFormat),
		Period:       periodCode,
		Sections:     make([]SectionChart, 0, len(layout.Sections)),
		StudentCount: len(allEmails),
	}
	for _, section := range layout.Sections {
		sc := SectionChart{Name: section.Name, Stick: section.Stick}
		sides := section.Sides()

		for r := 0; r < RowsPerPosition; r++ {
			row := Row{Seats: make([]Seat, 0, len(sides))}
			for _, side := range sides {
				positionKey := fmt.Sprintf("%s-%s", section.Name, side)
				emails := arrangements[positionKey]

				seat := Seat{
					Position:         fmt.Sprintf("%s%d", positionKey, r+1),
					AttendanceStatus: SeatEmpty,
				}
				// reverse fill: emails[len-1] occupies row 0
				if idx := len(emails) - 1 - r; idx >= 0 {
					occ := occupants[emails[idx]]
					seat.Student = &occ
					seat.AttendanceStatus = attendance.StatusPresent
					if rec, ok := recordsByEmail[occ.Email]; ok {
						seat.AttendanceStatus = rec.Status
						if rec.Status == attendance.StatusActivity {
							seat.Activity = &Activity{Type: rec.ActivityType, Place: rec.ActivityLocation}
						}
					}
				}
				row.Seats = append(row.Seats, seat)
			}
			sc.Rows = append(sc.Rows, row)
		}
		chart.Sections = append(chart.Sections, sc)
	}
	return chart, nil
}

// Save replaces the active arrangement for a classroom+date: the current
// rows are deactivated, then the non-empty positions are inserted as the new
// active set. The two steps are not atomic; a concurrent reader can observe
// zero active rows in between. Returns the number of positions saved.
func (svc *Service) Save(ctx context.Context, classroom string, date time.Time, arrangements map[string][]string, actor user.User) (int, error) {
	if len(arrangements) == 0 {
		return 0, core.NewValidationError(errNoPosition,
			core.FieldError{Field: "arrangements", Error: errNoPosition.Error()})
	}

	dateStr := date.Format(period.DateFormat)
	if err := svc.repo.DeactivateArrangements(ctx, classroom, dateStr); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	rows := make([]Arrangement, 0, len(arrangements))
	for positionKey, emails := range arrangements {
		if len(emails) == 0 {
			continue
		}
		rows = append(rows, Arrangement{
			Classroom:       classroom,
			PositionKey:     positionKey,
			StudentEmails:   emails,
			ArrangementDate: dateStr,
			CreatedBy:       actor.ID,
			IsActive:        true,
			CreatedAt:       now,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := svc.repo.CreateArrangements(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (svc *Service) occupantsByEmail(ctx context.Context, emails []string) (map[string]Occupant, error) {
	byEmail := make(map[string]Occupant, len(emails))
	if len(emails) == 0 {
		return byEmail, nil
	}

	students, err := svc.roster.QueryStudentsByEmails(ctx, emails)
	if err != nil {
		return nil, err
	}
	for _, s := range students {
		byEmail[s.Email] = s
	}
	for _, email := range emails {
		if _, ok := byEmail[email]; !ok {
			byEmail[email] = Occupant{Email: email, Name: "알 수 없음"}
		}
	}
	return byEmail, nil
}
