package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hansei/chulseok/core"
)

// Period codes. Regular class periods run 1-7; self-study sessions 11-15;
// meals 21-23; 25 marks overnight leave.
const (
	SelfStudy1 = 11
	SelfStudy2 = 12
	SelfStudy3 = 13
	SelfStudy4 = 14
	SelfStudy5 = 15
	Breakfast  = 21
	Lunch      = 22
	Dinner     = 23
	Overnight  = 25
)

// DateFormat is the wire format for schedule dates.
const DateFormat = "2006-01-02"

var (
	// WeekdayPeriods and HolidayPeriods list valid codes in timetable order.
	WeekdayPeriods = []int{1, 2, 3, 4, 22, 5, 6, 7, 11, 23, 12, 13, 25}
	HolidayPeriods = []int{11, 22, 12, 13, 23, 14, 15, 25}

	labels = map[int]string{
		1: "1교시", 2: "2교시", 3: "3교시", 4: "4교시",
		5: "5교시", 6: "6교시", 7: "7교시",
		SelfStudy1: "1차자습", SelfStudy2: "2차자습", SelfStudy3: "3차자습",
		SelfStudy4: "4차자습", SelfStudy5: "5차자습",
		Breakfast: "조식", Lunch: "중식", Dinner: "석식", Overnight: "외박",
	}

	labelCodes = map[string]int{
		"조식": Breakfast, "중식": Lunch, "석식": Dinner, "외박": Overnight,
		"1차자습": SelfStudy1, "2차자습": SelfStudy2, "3차자습": SelfStudy3,
		"4차자습": SelfStudy4, "5차자습": SelfStudy5,
	}

	// Minute-of-day ranges, inclusive on both ends. Overnight has no range;
	// it is assigned explicitly, never resolved from a clock.
	timeRanges = map[int][2]int{
		1:          {8*60 + 30, 9*60 + 20},
		2:          {9*60 + 30, 10*60 + 20},
		3:          {10*60 + 30, 11*60 + 20},
		4:          {11*60 + 30, 12*60 + 20},
		5:          {13*60 + 10, 14 * 60},
		6:          {14*60 + 10, 15 * 60},
		7:          {15*60 + 10, 16 * 60},
		SelfStudy1: {19 * 60, 20*60 + 50},
		SelfStudy2: {21 * 60, 22*60 + 50},
		SelfStudy3: {7 * 60, 8*60 + 20},
		SelfStudy4: {16*60 + 10, 17 * 60},
		SelfStudy5: {17*60 + 10, 18 * 60},
		Breakfast:  {6*60 + 30, 7*60 + 30},
		Lunch:      {12*60 + 20, 13*60 + 10},
		Dinner:     {18 * 60, 19 * 60},
	}

	// Some ranges touch (13:10 ends lunch and starts period 5), so resolution
	// order is fixed: class periods first, then self-study, then meals.
	scanOrder = []int{1, 2, 3, 4, 5, 6, 7, 11, 12, 13, 14, 15, 21, 22, 23}
)

var errBadClock = errors.New("time must be in HH:MM format")

// Known reports whether code is a recognized period code.
func Known(code int) bool {
	_, ok := labels[code]
	return ok
}

// ValidFor reports whether code belongs to the timetable for the day type.
func ValidFor(code int, isHoliday bool) bool {
	list := WeekdayPeriods
	if isHoliday {
		list = HolidayPeriods
	}
	for _, p := range list {
		if p == code {
			return true
		}
	}
	return false
}

// Format renders a period code as its display label, e.g. 11 -> "1차자습".
func Format(code int) string {
	if name, ok := labels[code]; ok {
		return name
	}
	return fmt.Sprintf("%d교시", code)
}

// Parse maps a display label back to its code. Returns 0 when the label is
// not recognized.
func Parse(label string) int {
	label = strings.TrimSpace(label)
	if code, ok := labelCodes[label]; ok {
		return code
	}
	if strings.HasSuffix(label, "교시") {
		if n, err := strconv.Atoi(strings.TrimSuffix(label, "교시")); err == nil && 1 <= n && n <= 7 {
			return n
		}
	}
	return 0
}

// CurrentPeriodAt resolves the period containing t. Regular class ranges are
// skipped on holidays. When no range matches, self-study 1 is returned.
func CurrentPeriodAt(t time.Time, isHoliday bool) int {
	m := t.Hour()*60 + t.Minute()
	for _, code := range scanOrder {
		if isHoliday && code <= 7 {
			continue
		}
		r := timeRanges[code]
		if r[0] <= m && m <= r[1] {
			return code
		}
	}
	return SelfStudy1
}

// CurrentPeriod resolves a period from an "HH:MM" clock string.
func CurrentPeriod(clock string, isHoliday bool) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, core.NewValidationError(errBadClock,
			core.FieldError{Field: "time", Error: errBadClock.Error()})
	}
	return CurrentPeriodAt(t, isHoliday), nil
}

// IsHolidayDate reports whether date falls on a weekend.
func IsHolidayDate(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
