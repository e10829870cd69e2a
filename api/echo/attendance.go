package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hansei/chulseok/core"
	"github.com/hansei/chulseok/core/attendance"
	"github.com/hansei/chulseok/core/period"
	"github.com/hansei/chulseok/core/school"
	"github.com/hansei/chulseok/core/user"
)

type attendanceApi struct {
	svc       *attendance.Service
	userSvc   *user.Service
	schoolSvc *school.Service
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service, userSvc *user.Service, schoolSvc *school.Service) {
	api := attendanceApi{svc: svc, userSvc: userSvc, schoolSvc: schoolSvc}

	ag := g.Group("/attendance", jwt)
	ag.GET("", api.query)
	ag.POST("", api.mark)
	ag.GET("/status", api.status, requirePermission(user.PermViewStudentList))
	ag.GET("/activities", api.activities, requirePermission(user.PermViewStudentList))
	ag.GET("/statistics", api.statistics, requirePermission(user.PermViewAllData))
}

type (
	MarkRequest struct {
		Date          string   `json:"date" validate:"required"`
		Period        int      `json:"period" validate:"required"`
		Status        string   `json:"status" validate:"required"`
		StudentEmails []string `json:"student_emails" validate:"required,min=1"`
		Notes         string   `json:"notes"`
	}

	MarkResponse struct {
		Success   bool   `json:"success"`
		Processed int    `json:"processed"`
		Message   string `json:"message,omitempty"`
	}

	RecordListResponse struct {
		Success bool                `json:"success"`
		Records []attendance.Record `json:"records"`
	}

	StatusResponse struct {
		Success bool              `json:"success"`
		Date    string            `json:"date"`
		Period  int               `json:"period"`
		Status  attendance.Status `json:"status"`
	}

	StatisticsResponse struct {
		Success    bool             `json:"success"`
		From       string           `json:"from"`
		To         string           `json:"to"`
		Statistics attendance.Stats `json:"statistics"`
	}
)

func (mr *MarkRequest) Validate() error {
	for i, email := range mr.StudentEmails {
		mr.StudentEmails[i] = core.CleanString(email, true /* lower */)
	}
	return core.Validate.Struct(mr)
}

func bindPeriodParam(ctx echo.Context) (int, error) {
	raw := ctx.QueryParam("period")
	if raw == "" {
		return 0, core.NewValidationError(nil, core.FieldError{Field: "period", Error: "this field is required"})
	}
	code, err := strconv.Atoi(raw)
	if err != nil || !period.Known(code) {
		return 0, core.NewValidationError(nil, core.FieldError{Field: "period", Error: "unknown period code"})
	}
	return code, nil
}

func (api *attendanceApi) query(ctx echo.Context) error {
	date, err := bindDateParam(ctx, "date")
	if err != nil {
		return err
	}
	periodCode, err := bindPeriodParam(ctx)
	if err != nil {
		return err
	}

	st, err := api.svc.StatusFor(ctx.Request().Context(), date, periodCode)
	if err != nil {
		return errors.Wrap(err, "querying attendance records")
	}

	records := make([]attendance.Record, 0, st.Total)
	records = append(records, st.Present...)
	records = append(records, st.Absent...)
	records = append(records, st.Returned...)
	records = append(records, st.Activity...)
	return ctx.JSON(http.StatusOK, RecordListResponse{Success: true, Records: records})
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data MarkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	date, err := time.Parse(period.DateFormat, data.Date)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "invalid date; want YYYY-MM-DD"})
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	// students only self-mark; teachers only mark their own rosters;
	// admins mark anybody
	switch {
	case actor.IsStudent():
		for _, email := range data.StudentEmails {
			if email != actor.Email {
				return errHttpForbidden
			}
		}
	case actor.IsTeacher():
		covered, err := api.schoolSvc.TeacherCoversStudents(ctx.Request().Context(), actor.Email, data.StudentEmails)
		if err != nil {
			return errors.Wrap(err, "checking class ownership")
		}
		if !covered {
			return errHttpForbidden
		}
	}

	processed, err := api.svc.MarkBulk(ctx.Request().Context(), date, data.Period, data.StudentEmails, data.Status, actor, data.Notes)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, MarkResponse{Success: true, Processed: processed})
}

func (api *attendanceApi) status(ctx echo.Context) error {
	date, err := bindDateParam(ctx, "date")
	if err != nil {
		return err
	}
	periodCode, err := bindPeriodParam(ctx)
	if err != nil {
		return err
	}

	st, err := api.svc.StatusFor(ctx.Request().Context(), date, periodCode)
	if err != nil {
		return errors.Wrap(err, "querying attendance status")
	}
	return ctx.JSON(http.StatusOK, StatusResponse{
		Success: true,
		Date:    date.Format(period.DateFormat),
		Period:  periodCode,
		Status:  st,
	})
}

func (api *attendanceApi) activities(ctx echo.Context) error {
	date, err := bindDateParam(ctx, "date")
	if err != nil {
		return err
	}
	periodCode, err := bindPeriodParam(ctx)
	if err != nil {
		return err
	}

	records, err := api.svc.Activities(ctx.Request().Context(), date, periodCode)
	if err != nil {
		return errors.Wrap(err, "querying activities")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, RecordListResponse{Success: true, Records: records})
}

func (api *attendanceApi) statistics(ctx echo.Context) error {
	to, err := bindDateParam(ctx, "to")
	if err != nil {
		return err
	}
	var from time.Time
	if raw := ctx.QueryParam("from"); raw == "" {
		from = to.AddDate(0, 0, -30)
	} else if from, err = time.Parse(period.DateFormat, raw); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "from", Error: "invalid date; want YYYY-MM-DD"})
	}
	if from.After(to) {
		return core.NewValidationError(nil, core.FieldError{Field: "from", Error: "must not be after to"})
	}

	stats, err := api.svc.Statistics(ctx.Request().Context(), from, to)
	if err != nil {
		return errors.Wrap(err, "querying statistics")
	}
	return ctx.JSON(http.StatusOK, StatisticsResponse{
		Success:    true,
		From:       from.Format(period.DateFormat),
		To:         to.Format(period.DateFormat),
		Statistics: stats,
	})
}
