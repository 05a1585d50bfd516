package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/storefront-api/services"
	"github.com/upb/storefront-api/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses. Internal errors
// are logged and answered with a generic message.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	message := publicMessage(err)

	var writeErr error
	switch {
	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w, message)
	case services.IsValidationError(err):
		writeErr = utils.WriteBadRequest(w, message, stringDetails(services.GetErrorDetails(err)))
	case services.IsUnauthenticatedError(err):
		writeErr = utils.WriteUnauthorized(w, message)
	case services.IsForbiddenError(err):
		writeErr = utils.WriteForbidden(w, message)
	case services.IsConflictError(err):
		writeErr = utils.WriteConflict(w, message)
	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")
	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleValidationError answers a request body that failed validation
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var writeErr error
	if utils.IsValidationError(err) {
		writeErr = utils.WriteBadRequest(w, "Validation failed", utils.GetValidationFields(err))
	} else {
		writeErr = utils.WriteBadRequest(w, err.Error(), nil)
	}
	if writeErr != nil {
		logger.Error("failed to write validation error response", zap.Error(writeErr))
	}
}

// publicMessage is the DomainError message without the type prefix or cause
func publicMessage(err error) string {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}

func stringDetails(details map[string]interface{}) map[string]string {
	if len(details) == 0 {
		return nil
	}
	out := make(map[string]string, len(details))
	for k, v := range details {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
