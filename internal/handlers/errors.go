package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/SscSPs/partner_settlement_app/internal/dto"
	"github.com/SscSPs/partner_settlement_app/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	var appErr *apperrors.AppError
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidState),
		errors.Is(err, apperrors.ErrAlreadyResolved),
		errors.Is(err, apperrors.ErrConcurrentUpdate),
		errors.Is(err, apperrors.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &appErr) && appErr.Code >= 400 && appErr.Code < 600:
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// respondError writes err as a dto.ErrorResponse. Server errors are logged
// and their detail is not sent to the caller.
func respondError(c *gin.Context, err error, msg string) {
	logger := middleware.GetLoggerFromContext(c)
	status := statusFor(err)
	resp := dto.ErrorResponse{Error: err.Error(), Code: apperrors.Code(err)}
	var vErr *apperrors.ValidationError
	if errors.As(err, &vErr) {
		resp.Field = vErr.Field
	}
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.Error(msg, slog.String("error", err.Error()))
		resp = dto.ErrorResponse{Error: msg, Code: apperrors.Code(err)}
	} else {
		logger.Warn(msg, slog.String("error", err.Error()), slog.Int("status", status))
	}
	c.JSON(status, resp)
}

// bindingCodes maps validator tags to the codes the UI understands.
var bindingCodes = map[string]string{
	"required":    apperrors.CodeRequired,
	"required_if": apperrors.CodeRequired,
	"reasonlen":   apperrors.CodeReasonTooShort,
	"gt":          apperrors.CodeOutOfRange,
	"min":         apperrors.CodeOutOfRange,
	"max":         apperrors.CodeOutOfRange,
}

// respondBindError reports a request that failed to bind. The first failed
// field is surfaced with a machine readable code.
func respondBindError(c *gin.Context, err error) {
	middleware.GetLoggerFromContext(c).Warn("Failed to bind request", slog.String("error", err.Error()))
	resp := dto.ErrorResponse{Error: "Invalid request format: " + err.Error(), Code: apperrors.CodeInvalidValue}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		resp.Field = fe.Field()
		if code, ok := bindingCodes[fe.Tag()]; ok {
			resp.Code = code
		}
	}
	c.JSON(http.StatusBadRequest, resp)
}

// operatorFrom returns the operator stored by middleware.RequireOperator.
func operatorFrom(c *gin.Context) string {
	operator, _ := middleware.GetOperatorFromContext(c)
	return operator
}
