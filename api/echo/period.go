package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hansei/chulseok/core"
	"github.com/hansei/chulseok/core/period"
	"github.com/hansei/chulseok/core/user"
)

type periodApi struct {
	svc *period.Service
}

func registerPeriodAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *period.Service) {
	api := periodApi{svc: svc}

	pg := g.Group("/periods", jwt)
	pg.GET("/config", api.config)
	pg.POST("/config", api.saveConfig, requirePermission(user.PermManageSystem))
	pg.GET("/current", api.current)

	g.GET("/supervisors", api.supervisors, jwt, requirePermission(user.PermViewStudentList))
}

type (
	ConfigResponse struct {
		Success bool          `json:"success"`
		Config  period.Config `json:"config"`
	}

	CurrentPeriodResponse struct {
		Success bool   `json:"success"`
		Date    string `json:"date"`
		Period  int    `json:"period"`
		Name    string `json:"name"`
	}

	SupervisorsResponse struct {
		Success bool                             `json:"success"`
		Date    string                           `json:"date"`
		Total   int                              `json:"total"`
		ByGrade map[int][]period.SupervisorShift `json:"by_grade"`
	}
)

func (api *periodApi) config(ctx echo.Context) error {
	date, err := bindDateParam(ctx, "date")
	if err != nil {
		return err
	}

	cfg, err := api.svc.ConfigFor(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "querying period config")
	}
	return ctx.JSON(http.StatusOK, ConfigResponse{Success: true, Config: cfg})
}

func (api *periodApi) saveConfig(ctx echo.Context) error {
	var data period.Config
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Config")
	}
	if data.ConfigDate == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "config_date", Error: "this field is required"})
	}

	if err := api.svc.SaveConfig(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "saving period config")
	}
	return ctx.JSON(http.StatusOK, successMessage("period config saved"))
}

// current resolves the active period for a clock time; "time" defaults to
// now, "date" decides whether the holiday schedule applies.
func (api *periodApi) current(ctx echo.Context) error {
	date, err := bindDateParam(ctx, "date")
	if err != nil {
		return err
	}

	cfg, err := api.svc.ConfigFor(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "querying period config")
	}

	var code int
	if clock := ctx.QueryParam("time"); clock != "" {
		if code, err = period.CurrentPeriod(clock, cfg.IsHoliday); err != nil {
			return err
		}
	} else {
		code = period.CurrentPeriodAt(time.Now(), cfg.IsHoliday)
	}

	return ctx.JSON(http.StatusOK, CurrentPeriodResponse{
		Success: true,
		Date:    date.Format(period.DateFormat),
		Period:  code,
		Name:    period.Format(code),
	})
}

func (api *periodApi) supervisors(ctx echo.Context) error {
	date, err := bindDateParam(ctx, "date")
	if err != nil {
		return err
	}

	byGrade, total, err := api.svc.Supervisors(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "querying supervisors")
	}
	return ctx.JSON(http.StatusOK, SupervisorsResponse{
		Success: true,
		Date:    date.Format(period.DateFormat),
		Total:   total,
		ByGrade: byGrade,
	})
}
