package period

import "time"

type (
	// Slot describes one timetable entry of a day's configuration.
	Slot struct {
		Name      string `json:"name"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	}

	// Config is a day's timetable. Explicit per-date configurations live in
	// storage; dates without one fall back to DefaultConfig.
	Config struct {
		ID             string          `json:"id,omitempty"`
		ConfigDate     string          `json:"config_date"`
		IsHoliday      bool            `json:"is_holiday"`
		RegularPeriods []int           `json:"regular_periods"`
		StudyPeriods   []int           `json:"study_periods"`
		MealPeriods    []int           `json:"meal_periods"`
		SpecialPeriods []int           `json:"special_periods"`
		AllPeriods     []int           `json:"all_periods"`
		Slots          map[string]Slot `json:"period_info"`
	}

	// SupervisorShift is one supervising-teacher slot for a grade.
	SupervisorShift struct {
		Grade        int    `json:"grade"`
		TeacherEmail string `json:"teacher_email"`
		TeacherName  string `json:"teacher_name"`
		Position     string `json:"position,omitempty"`
		Subject      string `json:"subject,omitempty"`
		StartTime    string `json:"start_time"`
		EndTime      string `json:"end_time"`
		Notes        string `json:"notes,omitempty"`
	}
)

var defaultSlots = map[string]Slot{
	"1":  {Name: "1교시", StartTime: "08:30", EndTime: "09:20"},
	"2":  {Name: "2교시", StartTime: "09:30", EndTime: "10:20"},
	"3":  {Name: "3교시", StartTime: "10:30", EndTime: "11:20"},
	"4":  {Name: "4교시", StartTime: "11:30", EndTime: "12:20"},
	"5":  {Name: "5교시", StartTime: "13:10", EndTime: "14:00"},
	"6":  {Name: "6교시", StartTime: "14:10", EndTime: "15:00"},
	"7":  {Name: "7교시", StartTime: "15:10", EndTime: "16:00"},
	"11": {Name: "1차자습", StartTime: "19:00", EndTime: "20:50"},
	"12": {Name: "2차자습", StartTime: "21:00", EndTime: "22:50"},
	"13": {Name: "3차자습", StartTime: "07:00", EndTime: "08:20"},
	"14": {Name: "4차자습", StartTime: "16:10", EndTime: "17:00"},
	"15": {Name: "5차자습", StartTime: "17:10", EndTime: "18:00"},
	"21": {Name: "조식", StartTime: "06:30", EndTime: "07:30"},
	"22": {Name: "중식", StartTime: "12:20", EndTime: "13:10"},
	"23": {Name: "석식", StartTime: "18:00", EndTime: "19:00"},
	"25": {Name: "외박", StartTime: "22:50", EndTime: "07:00"},
}

// DefaultConfig builds the standard timetable for a date: the weekday
// schedule Monday through Friday, the holiday schedule on weekends.
func DefaultConfig(date time.Time) Config {
	isHoliday := IsHolidayDate(date)

	cfg := Config{
		ConfigDate:     date.Format(DateFormat),
		IsHoliday:      isHoliday,
		StudyPeriods:   []int{11, 12, 13, 14, 15},
		MealPeriods:    []int{22, 23},
		SpecialPeriods: []int{21, 25},
		Slots:          defaultSlots,
	}
	if isHoliday {
		cfg.RegularPeriods = []int{}
		cfg.AllPeriods = append([]int(nil), HolidayPeriods...)
	} else {
		cfg.RegularPeriods = []int{1, 2, 3, 4, 5, 6, 7}
		cfg.AllPeriods = append([]int(nil), WeekdayPeriods...)
	}
	return cfg
}
