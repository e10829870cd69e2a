package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hansei/chulseok/core"
	"github.com/hansei/chulseok/core/period"
)

type (
	TokenResponse struct {
		Token string `json:"token"`
	}

	ElevateRequest struct {
		Password string `json:"password" validate:"required"`
	}

	// SuccessResponse is the envelope every mutating endpoint answers with.
	SuccessResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message,omitempty"`
	}

	Pagination struct {
		Limit  int `query:"limit"`
		Offset int `query:"offset"`
	}
)

func (er *ElevateRequest) Validate() error {
	return core.Validate.Struct(er)
}

func (p *Pagination) Bind(ctx echo.Context) {
	_ = ctx.Bind(p)
	if p.Limit <= 0 || p.Limit > 500 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

func successMessage(msg string) SuccessResponse {
	return SuccessResponse{Success: true, Message: msg}
}

// bindDateParam reads the "date" query param (defaults to today).
func bindDateParam(ctx echo.Context, param string) (time.Time, error) {
	raw := ctx.QueryParam(param)
	if raw == "" {
		return time.Now(), nil
	}
	date, err := time.Parse(period.DateFormat, raw)
	if err != nil {
		return time.Time{}, core.NewValidationError(nil, core.FieldError{Field: param, Error: "invalid date; want YYYY-MM-DD"})
	}
	return date, nil
}
