package middleware

import (
	"errors"
	"net/http"

	"cbt-question-gen/internal/domain"
	"cbt-question-gen/internal/dto"
	"cbt-question-gen/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// InvalidRequestMessage is returned with every 400 from the generation endpoint.
const InvalidRequestMessage = "Missing exam, subject, or count in request."

// ErrorHandler is a centralized error handling middleware
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		l := logger.FromContext(c.UserContext()).With(
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
		)

		// Handle validation errors
		var validationErrs domain.ValidationErrors
		if errors.As(err, &validationErrs) {
			l.Warn("Validation errors occurred", zap.Int("error_count", len(validationErrs)), zap.Error(err))
			return c.Status(http.StatusBadRequest).JSON(dto.ErrorResponse{
				Code:    string(domain.CodeInvalidRequest),
				Message: InvalidRequestMessage,
				Errors:  validationErrs,
			})
		}

		// Handle domain errors
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			statusCode := mapDomainErrorToHTTPStatus(domainErr)
			fields := []zap.Field{
				zap.String("code", string(domainErr.Code)),
				zap.Int("status", statusCode),
				zap.Error(err),
			}
			for k, v := range domainErr.Context {
				fields = append(fields, zap.Any(k, v))
			}

			if statusCode >= http.StatusInternalServerError {
				l.Error("Domain error occurred", fields...)
				return c.Status(statusCode).JSON(dto.ErrorResponse{
					Code:    string(domainErr.Code),
					Message: domain.GenerationFailedMessage,
				})
			}
			l.Warn("Domain error occurred", fields...)
			return c.Status(statusCode).JSON(dto.ErrorResponse{
				Code:    string(domainErr.Code),
				Message: domainErr.Message,
			})
		}

		// Handle fiber errors
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			l.Warn("Fiber error occurred",
				zap.Int("code", fiberErr.Code),
				zap.String("message", fiberErr.Message),
			)
			return c.Status(fiberErr.Code).JSON(dto.ErrorResponse{
				Code:    "HTTP_ERROR",
				Message: fiberErr.Message,
			})
		}

		// Handle unknown errors
		l.Error("Unknown error occurred", zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(dto.ErrorResponse{
			Code:    string(domain.CodeInternal),
			Message: "Internal server error",
		})
	}
}

// mapDomainErrorToHTTPStatus maps domain errors to HTTP status codes
func mapDomainErrorToHTTPStatus(err *domain.DomainError) int {
	switch err.Code {
	case domain.CodeInvalidRequest:
		return http.StatusBadRequest
	case domain.CodeUpstreamFailure, domain.CodeMalformedUpstreamResponse, domain.CodeUnexpectedSchema:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
