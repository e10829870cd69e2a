package echoapi

import (
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hansei/chulseok/core"
	"github.com/hansei/chulseok/core/attendance"
	"github.com/hansei/chulseok/core/period"
	"github.com/hansei/chulseok/core/seating"
	"github.com/hansei/chulseok/core/user"
)

type seatingApi struct {
	svc           *seating.Service
	attendanceSvc *attendance.Service
	periodSvc     *period.Service
	userSvc       *user.Service
}

func registerSeatingAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *seating.Service,
	attendanceSvc *attendance.Service,
	periodSvc *period.Service,
	userSvc *user.Service,
) {
	api := seatingApi{svc: svc, attendanceSvc: attendanceSvc, periodSvc: periodSvc, userSvc: userSvc}

	sg := g.Group("/seating", jwt)
	sg.GET("/chart", api.chart)
	sg.GET("/layouts", api.layouts)
	sg.GET("/arrangements", api.arrangements, requirePermission(user.PermViewStudentList))
	sg.POST("/arrangements", api.saveArrangements, requireRoles(user.RoleAdmin, user.RoleSuperAdmin))

	// DSHS-Life compatible endpoints; these keep their historical raw
	// response shapes instead of the {success, ...} envelope.
	staff := requireRoles(user.RoleTeacher, user.RoleAdmin, user.RoleSuperAdmin)
	sg.GET("/seats", api.legacySeats, staff)
	sg.GET("/missing", api.legacyMissing, staff)
	sg.POST("/missing", api.legacyMark, staff)
	sg.GET("/config", api.legacyConfig, staff)
	sg.GET("/supervisor", api.legacySupervisor, staff)
}

type (
	ChartResponse struct {
		Success bool          `json:"success"`
		Chart   seating.Chart `json:"chart"`
	}

	LayoutListResponse struct {
		Success bool             `json:"success"`
		Layouts []seating.Layout `json:"layouts"`
	}

	ArrangementsResponse struct {
		Success      bool                `json:"success"`
		Classroom    string              `json:"classroom"`
		Date         string              `json:"date"`
		Arrangements map[string][]string `json:"arrangements"`
	}

	SaveArrangementsRequest struct {
		Classroom    string              `json:"classroom" validate:"required"`
		Date         string              `json:"date" validate:"required"`
		Arrangements map[string][]string `json:"arrangements" validate:"required"`
	}

	SaveArrangementsResponse struct {
		Success bool   `json:"success"`
		Saved   int    `json:"saved"`
		Message string `json:"message"`
	}

	legacySeatRow struct {
		Prefix string   `json:"prefix"`
		Snums  []string `json:"snums"`
	}

	legacyMarkRequest struct {
		Action string   `json:"action"`
		Date   string   `json:"date"`
		Period int      `json:"period"`
		UIDs   []string `json:"uids"`
	}

	legacyMissingItem struct {
		Period     int      `json:"period"`
		PeriodName string   `json:"period_name"`
		Students   []string `json:"students"`
	}

	legacySupervisorItem struct {
		Grade       int    `json:"grade"`
		TeacherName string `json:"teacher_name"`
		Period      string `json:"period"`
		Time        string `json:"time"`
	}
)

func (sr *SaveArrangementsRequest) Validate() error {
	sr.Classroom = core.CleanString(sr.Classroom)
	if _, err := time.Parse(period.DateFormat, sr.Date); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "invalid date; want YYYY-MM-DD"})
	}
	return core.Validate.Struct(sr)
}

func (api *seatingApi) chart(ctx echo.Context) error {
	classroom := core.CleanString(ctx.QueryParam("classroom"))
	if classroom == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "classroom", Error: "this field is required"})
	}
	date, err := bindDateParam(ctx, "date")
	if err != nil {
		return err
	}
	periodCode, err := bindPeriodParam(ctx)
	if err != nil {
		return err
	}

	chart, err := api.svc.Assemble(ctx.Request().Context(), classroom, date, periodCode)
	if err != nil {
		if errors.Cause(err) == seating.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "assembling seat chart")
	}
	return ctx.JSON(http.StatusOK, ChartResponse{Success: true, Chart: chart})
}

func (api *seatingApi) layouts(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	if classroom := core.CleanString(ctx.QueryParam("classroom")); classroom != "" {
		layout, err := api.svc.Layout(rctx, classroom)
		if err != nil {
			if errors.Cause(err) == seating.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding classroom layout")
		}
		return ctx.JSON(http.StatusOK, LayoutListResponse{Success: true, Layouts: []seating.Layout{layout}})
	}

	layouts, err := api.svc.Layouts(rctx)
	if err != nil {
		return errors.Wrap(err, "querying classroom layouts")
	}
	if layouts == nil {
		layouts = []seating.Layout{}
	}
	return ctx.JSON(http.StatusOK, LayoutListResponse{Success: true, Layouts: layouts})
}

func (api *seatingApi) arrangements(ctx echo.Context) error {
	classroom := core.CleanString(ctx.QueryParam("classroom"))
	if classroom == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "classroom", Error: "this field is required"})
	}
	date, err := bindDateParam(ctx, "date")
	if err != nil {
		return err
	}

	arrangements, err := api.svc.Arrangements(ctx.Request().Context(), classroom, date)
	if err != nil {
		return errors.Wrap(err, "querying seat arrangements")
	}
	return ctx.JSON(http.StatusOK, ArrangementsResponse{
		Success:      true,
		Classroom:    classroom,
		Date:         date.Format(period.DateFormat),
		Arrangements: arrangements,
	})
}

func (api *seatingApi) saveArrangements(ctx echo.Context) error {
	var data SaveArrangementsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveArrangementsRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	date, _ := time.Parse(period.DateFormat, data.Date)

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	saved, err := api.svc.Save(ctx.Request().Context(), data.Classroom, date, data.Arrangements, actor)
	if err != nil {
		return errors.Wrap(err, "saving seat arrangements")
	}
	return ctx.JSON(http.StatusOK, SaveArrangementsResponse{
		Success: true,
		Saved:   saved,
		Message: "자리배치가 성공적으로 저장되었습니다.",
	})
}

// Legacy endpoints

func (api *seatingApi) legacySeats(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	layouts, err := api.svc.Layouts(rctx)
	if err != nil {
		return errors.Wrap(err, "querying classroom layouts")
	}

	today := time.Now()
	seats := []legacySeatRow{}
	for _, layout := range layouts {
		arrangements, err := api.svc.Arrangements(rctx, layout.ClassroomKey, today)
		if err != nil {
			return errors.Wrap(err, "querying seat arrangements")
		}

		keys := make([]string, 0, len(arrangements))
		for key := range arrangements {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			seats = append(seats, legacySeatRow{Prefix: key, Snums: arrangements[key]})
		}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"seats": seats})
}

func (api *seatingApi) legacyMissing(ctx echo.Context) error {
	date, err := bindDateParam(ctx, "date")
	if err != nil {
		return err
	}

	missing, err := api.attendanceSvc.MissingFor(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "querying missing students")
	}

	codes := make([]int, 0, len(missing))
	for code := range missing {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	items := make([]legacyMissingItem, 0, len(codes))
	for _, code := range codes {
		items = append(items, legacyMissingItem{
			Period:     code,
			PeriodName: period.Format(code),
			Students:   missing[code],
		})
	}
	return ctx.JSON(http.StatusOK, echo.Map{"items": items})
}

func (api *seatingApi) legacyMark(ctx echo.Context) error {
	var data legacyMarkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to legacyMarkRequest")
	}
	date, err := time.Parse(period.DateFormat, data.Date)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "invalid date; want YYYY-MM-DD"})
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if _, err := api.attendanceSvc.Mark(ctx.Request().Context(), data.Action, date, data.Period, data.UIDs, actor); err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"error": nil})
}

func (api *seatingApi) legacyConfig(ctx echo.Context) error {
	date, err := bindDateParam(ctx, "date")
	if err != nil {
		return err
	}

	cfg, err := api.periodSvc.ConfigFor(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "querying period config")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"date":    date.Format(period.DateFormat),
		"config":  cfg,
		"periods": cfg.AllPeriods,
	})
}

func (api *seatingApi) legacySupervisor(ctx echo.Context) error {
	date, err := bindDateParam(ctx, "date")
	if err != nil {
		return err
	}

	byGrade, _, err := api.periodSvc.Supervisors(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "querying supervisors")
	}

	grades := make([]int, 0, len(byGrade))
	for grade := range byGrade {
		grades = append(grades, grade)
	}
	sort.Ints(grades)

	items := []legacySupervisorItem{}
	for _, grade := range grades {
		for _, shift := range byGrade[grade] {
			label := ""
			if code, err := period.CurrentPeriod(shift.StartTime, false); err == nil {
				label = period.Format(code)
			}
			items = append(items, legacySupervisorItem{
				Grade:       shift.Grade,
				TeacherName: shift.TeacherName,
				Period:      label,
				Time:        shift.StartTime + "-" + shift.EndTime,
			})
		}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"items": items})
}
