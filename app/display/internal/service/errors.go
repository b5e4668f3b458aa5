package service

import (
	"errors"
	nethttp "net/http"

	kerrors "github.com/go-kratos/kratos/v2/errors"

	"github.com/iWorld-y/report_flow/app/report_flow/pkg/analysis"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/store"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/view"
)

// toHTTPError 把领域错误映射为带 reason 的 kratos 错误
func toHTTPError(err error) error {
	if err == nil {
		return nil
	}
	var se *kerrors.Error
	if errors.As(err, &se) {
		return se
	}

	msg := err.Error()
	switch {
	case errors.Is(err, view.ErrBusy):
		return kerrors.Conflict("BUSY", msg)
	case errors.Is(err, view.ErrDiscarded):
		return kerrors.Conflict("DISCARDED", msg)
	case errors.Is(err, view.ErrConfirmationRequired):
		return kerrors.New(nethttp.StatusPreconditionRequired, "CONFIRMATION_REQUIRED", msg)
	case errors.Is(err, store.ErrNotFound):
		return kerrors.NotFound("REPORT_NOT_FOUND", msg)
	case errors.Is(err, store.ErrUnavailable):
		return kerrors.ServiceUnavailable("STORE_UNAVAILABLE", msg)
	case errors.Is(err, store.ErrDuplicateID):
		return kerrors.Conflict("DUPLICATE_REPORT", msg)
	case errors.Is(err, analysis.ErrValidation):
		return kerrors.BadRequest("VALIDATION", msg)
	case errors.Is(err, analysis.ErrMalformedResponse):
		return kerrors.New(nethttp.StatusBadGateway, "MALFORMED_MODEL_RESPONSE", msg)
	case errors.Is(err, analysis.ErrAnalysisUnavailable):
		return kerrors.ServiceUnavailable("ANALYSIS_UNAVAILABLE", msg)
	default:
		return kerrors.InternalServer("INTERNAL", msg)
	}
}
