package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// forecastRequest is shared by GET /api/forecast and websocket PREDICT.
type forecastRequest struct {
	Symbol string `validate:"required,max=16,printascii"`
	Range  string `default:"DAY" validate:"oneof=DAY WEEK MONTH YEAR_TO_DATE YTD YEAR"`
}

type symbolsRequest struct {
	Prefix string `validate:"max=16"`
	Limit  int    `default:"50" validate:"gte=1,lte=500"`
}

type indicatorsRequest struct {
	Symbol string `validate:"required,max=16,printascii"`
	Range  string `default:"DAY" validate:"oneof=DAY WEEK MONTH YEAR_TO_DATE YTD YEAR"`
	Specs  string `default:"EMA:8,EMA:34,RSI:14" validate:"max=256"`
}

// bind fills defaults then validates req. A nil result means req is usable.
func bind(ctx context.Context, req any) []ValidationError {
	if err := defaults.Set(req); err != nil {
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
	}
	if err := validate.StructCtx(ctx, req); err != nil {
		return validationErrors(err)
	}
	return nil
}

func validationErrors(err error) []ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
	}
	out := make([]ValidationError, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, ValidationError{
			Code:    "ERR_" + strings.ToUpper(e.Tag()),
			Field:   strings.ToLower(e.Field()),
			Message: errorMessage(e),
		})
	}
	return out
}

func errorMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "printascii":
		return fmt.Sprintf("%s contains invalid characters", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
