package attendance

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/hansei/chulseok/core"
	"github.com/hansei/chulseok/core/period"
	"github.com/hansei/chulseok/core/user"
)

var (
	ErrNotFound      = errors.New("not found")
	errBadAction     = errors.New("action must be miss or return")
	errBadStatus     = errors.New("unknown attendance status")
	errNoStudents    = errors.New("student list is empty")
	errInvalidPeriod = errors.New("period is not scheduled on this date")
)

type (
	Repository interface {
		GetRecord(ctx context.Context, date string, periodCode int, studentEmail string) (Record, error)
		CreateRecord(ctx context.Context, rec Record) error
		UpdateRecord(ctx context.Context, rec Record) error
		QueryRecords(ctx context.Context, date string, periodCode int) ([]Record, error)
		QueryRecordsByDate(ctx context.Context, date string) ([]Record, error)
		QueryRecordsByRange(ctx context.Context, from, to string) ([]Record, error)
	}

	// Directory resolves student emails to user rows.
	Directory interface {
		GetByEmail(ctx context.Context, email string) (user.User, error)
	}

	// Timetable provides the valid period list for a date.
	Timetable interface {
		ConfigFor(ctx context.Context, date time.Time) (period.Config, error)
	}

	Service struct {
		repo    Repository
		users   Directory
		periods Timetable
		mailSvc core.EmailService
		logger  core.Logger

		// The store has no unique constraint on (student, date, period), so
		// concurrent marks are serialized here per key.
		locks [64]sync.Mutex
	}
)

func NewService(repo Repository, users Directory, periods Timetable, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		repo:    repo,
		users:   users,
		periods: periods,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

func (svc *Service) lockFor(date string, periodCode int, email string) *sync.Mutex {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s|%d|%s", date, periodCode, email)
	return &svc.locks[h.Sum32()%uint32(len(svc.locks))]
}

// Mark applies a miss or return action to a batch of students for one
// (date, period). The whole batch is rejected when the period is not in the
// date's timetable. Already-absent students are skipped on miss; students
// never marked absent are skipped on return. The per-student outcome list
// tells callers which was which.
func (svc *Service) Mark(ctx context.Context, action string, date time.Time, periodCode int, studentEmails []string, actor user.User) ([]Outcome, error) {
	if action != ActionMiss && action != ActionReturn {
		return nil, core.NewValidationError(errBadAction, core.FieldError{Field: "action", Error: errBadAction.Error()})
	}
	if len(studentEmails) == 0 {
		return nil, core.NewValidationError(errNoStudents, core.FieldError{Field: "uids", Error: errNoStudents.Error()})
	}

	cfg, err := svc.periods.ConfigFor(ctx, date)
	if err != nil {
		return nil, err
	}
	if !containsPeriod(cfg.AllPeriods, periodCode) {
		return nil, core.NewValidationError(errInvalidPeriod, core.FieldError{Field: "period", Error: errInvalidPeriod.Error()})
	}

	dateStr := date.Format(period.DateFormat)
	outcomes := make([]Outcome, 0, len(studentEmails))
	for _, email := range studentEmails {
		email = core.CleanString(email, true /* lower */)

		res, err := svc.markOne(ctx, action, dateStr, periodCode, email, actor)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, Outcome{StudentEmail: email, Result: res})
	}

	svc.notify(action, dateStr, periodCode, outcomes, actor)
	return outcomes, nil
}

func (svc *Service) markOne(ctx context.Context, action, date string, periodCode int, email string, actor user.User) (string, error) {
	mu := svc.lockFor(date, periodCode, email)
	mu.Lock()
	defer mu.Unlock()

	usr, err := svc.users.GetByEmail(ctx, email)
	if err == user.ErrNotFound {
		return OutcomeNotFound, nil
	} else if err != nil {
		return "", err
	}

	rec, err := svc.repo.GetRecord(ctx, date, periodCode, usr.Email)
	exists := err == nil
	if err != nil && err != ErrNotFound {
		return "", err
	}

	now := time.Now().UTC()
	switch action {
	case ActionMiss:
		if exists && rec.Status == StatusAbsent {
			return OutcomeSkipped, nil
		}
		if !exists {
			rec = Record{
				AttendanceDate: date,
				Period:         periodCode,
				StudentID:      usr.ID,
				StudentEmail:   usr.Email,
			}
		}
		rec.Status = StatusAbsent
		rec.MarkedBy = actor.ID
		rec.MarkedAt = &now
		rec.Notes = period.Format(periodCode)
		rec.UpdatedAt = now
		if exists {
			err = svc.repo.UpdateRecord(ctx, rec)
		} else {
			err = svc.repo.CreateRecord(ctx, rec)
		}
		if err != nil {
			return "", err
		}
		return OutcomeMarked, nil

	default: // ActionReturn
		if !exists || rec.Status != StatusAbsent {
			return OutcomeSkipped, nil
		}
		rec.Status = StatusReturned
		rec.ReturnedBy = actor.ID
		rec.ReturnedAt = &now
		rec.UpdatedAt = now
		if err = svc.repo.UpdateRecord(ctx, rec); err != nil {
			return "", err
		}
		return OutcomeReturned, nil
	}
}

// MarkBulk is the generic form used by admin tooling: it writes any known
// status for a batch of students, skipping unknown emails, and reports how
// many records were written.
func (svc *Service) MarkBulk(ctx context.Context, date time.Time, periodCode int, studentEmails []string, status string, actor user.User, notes string) (int, error) {
	if !knownStatus(status) {
		return 0, core.NewValidationError(errBadStatus, core.FieldError{Field: "status", Error: errBadStatus.Error()})
	}
	if len(studentEmails) == 0 {
		return 0, core.NewValidationError(errNoStudents, core.FieldError{Field: "student_emails", Error: errNoStudents.Error()})
	}

	dateStr := date.Format(period.DateFormat)
	processed := 0
	for _, email := range studentEmails {
		email = core.CleanString(email, true)

		mu := svc.lockFor(dateStr, periodCode, email)
		mu.Lock()
		err := svc.writeStatus(ctx, dateStr, periodCode, email, status, actor, notes)
		mu.Unlock()

		if err == user.ErrNotFound {
			svc.logger.Warn(fmt.Sprintf("bulk mark: unknown student %s", email))
			continue
		}
		if err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}

func (svc *Service) writeStatus(ctx context.Context, date string, periodCode int, email, status string, actor user.User, notes string) error {
	usr, err := svc.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	rec, err := svc.repo.GetRecord(ctx, date, periodCode, usr.Email)
	exists := err == nil
	if err != nil && err != ErrNotFound {
		return err
	}
	if !exists {
		rec = Record{
			AttendanceDate: date,
			Period:         periodCode,
			StudentID:      usr.ID,
			StudentEmail:   usr.Email,
		}
	}

	now := time.Now().UTC()
	rec.Status = status
	rec.Notes = notes
	rec.UpdatedAt = now
	switch status {
	case StatusAbsent:
		rec.MarkedBy = actor.ID
		rec.MarkedAt = &now
	case StatusReturned, StatusPresent:
		rec.ReturnedBy = actor.ID
		rec.ReturnedAt = &now
	}

	if exists {
		return svc.repo.UpdateRecord(ctx, rec)
	}
	return svc.repo.CreateRecord(ctx, rec)
}

// MissingFor groups the date's absent students by period.
func (svc *Service) MissingFor(ctx context.Context, date time.Time) (map[int][]string, error) {
	recs, err := svc.repo.QueryRecordsByDate(ctx, date.Format(period.DateFormat))
	if err != nil {
		return nil, err
	}

	missing := make(map[int][]string)
	for _, rec := range recs {
		if rec.Status == StatusAbsent {
			missing[rec.Period] = append(missing[rec.Period], rec.StudentEmail)
		}
	}
	return missing, nil
}

// StatusFor returns the date+period's records grouped by status.
func (svc *Service) StatusFor(ctx context.Context, date time.Time, periodCode int) (Status, error) {
	recs, err := svc.repo.QueryRecords(ctx, date.Format(period.DateFormat), periodCode)
	if err != nil {
		return Status{}, err
	}

	st := Status{
		Present:  []Record{},
		Absent:   []Record{},
		Returned: []Record{},
		Activity: []Record{},
		Total:    len(recs),
	}
	for _, rec := range recs {
		switch rec.Status {
		case StatusPresent:
			st.Present = append(st.Present, rec)
		case StatusAbsent:
			st.Absent = append(st.Absent, rec)
		case StatusReturned:
			st.Returned = append(st.Returned, rec)
		case StatusActivity:
			st.Activity = append(st.Activity, rec)
		}
	}
	return st, nil
}

// Activities returns the date+period's activity records (study groups,
// labs and similar out-of-seat placements).
func (svc *Service) Activities(ctx context.Context, date time.Time, periodCode int) ([]Record, error) {
	recs, err := svc.repo.QueryRecords(ctx, date.Format(period.DateFormat), periodCode)
	if err != nil {
		return nil, err
	}

	activities := make([]Record, 0, len(recs))
	for _, rec := range recs {
		if rec.Status == StatusActivity {
			activities = append(activities, rec)
		}
	}
	return activities, nil
}

// Statistics aggregates records in [from, to] by status, date and period.
func (svc *Service) Statistics(ctx context.Context, from, to time.Time) (Stats, error) {
	recs, err := svc.repo.QueryRecordsByRange(ctx, from.Format(period.DateFormat), to.Format(period.DateFormat))
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalRecords: len(recs),
		ByStatus:     make(map[string]int),
		ByDate:       make(map[string]*Breakdown),
		ByPeriod:     make(map[int]*Breakdown),
	}
	for _, rec := range recs {
		stats.ByStatus[rec.Status]++

		d, ok := stats.ByDate[rec.AttendanceDate]
		if !ok {
			d = &Breakdown{}
			stats.ByDate[rec.AttendanceDate] = d
		}
		p, ok := stats.ByPeriod[rec.Period]
		if !ok {
			p = &Breakdown{}
			stats.ByPeriod[rec.Period] = p
		}

		d.Total++
		p.Total++
		switch rec.Status {
		case StatusPresent:
			d.Present++
			p.Present++
		case StatusAbsent:
			d.Absent++
			p.Absent++
		}
	}
	return stats, nil
}

// notify emails a summary of the batch to the acting teacher. Delivery is
// best effort and never affects the attendance write.
func (svc *Service) notify(action, date string, periodCode int, outcomes []Outcome, actor user.User) {
	if svc.mailSvc == nil || actor.Email == "" {
		return
	}

	var affected []string
	want := OutcomeMarked
	if action == ActionReturn {
		want = OutcomeReturned
	}
	for _, o := range outcomes {
		if o.Result == want {
			affected = append(affected, o.StudentEmail)
		}
	}
	if len(affected) == 0 {
		return
	}

	verb := "부재 처리"
	if action == ActionReturn {
		verb = "복귀 처리"
	}
	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: actor.Name, Address: actor.Email}},
		Subject: fmt.Sprintf("[출석] %s %s %s (%d명)", date, period.Format(periodCode), verb, len(affected)),
		TextContent: fmt.Sprintf(
			"%s %s %s 완료\n\n대상 학생:\n%s\n",
			date, period.Format(periodCode), verb, strings.Join(affected, "\n"),
		),
	}
	go svc.mailSvc.SendMessages(msg)
}

func containsPeriod(list []int, code int) bool {
	for _, p := range list {
		if p == code {
			return true
		}
	}
	return false
}
