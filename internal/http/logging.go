package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/equipment-reservation/internal/application"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	pairs := []any{"handler", handlerName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// handlerBase holds what every handler shares.
type handlerBase struct {
	name      string
	responder responder
	logger    *slog.Logger
}

func newHandlerBase(name string, logger *slog.Logger) handlerBase {
	base := defaultLogger(logger)
	return handlerBase{name: name, responder: newResponder(base), logger: base}
}

func (h handlerBase) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, h.name, operation, attrs...)
}

// fail logs a service error and writes the matching response.
func (h handlerBase) fail(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	logger.WarnContext(ctx, msg, "error", err, "error_kind", application.ErrorKind(err))
	h.responder.handleServiceError(ctx, w, err)
}

// badRequest logs and reports a request that could not be decoded.
func (h handlerBase) badRequest(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	h.log(ctx, operation, "error_kind", "bad_request").WarnContext(ctx, "invalid request", "error", err)
	h.responder.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{ErrorCode: "BAD_REQUEST", Message: badRequestMessage(err)})
}

func badRequestMessage(err error) string {
	var fErr *fieldError
	if errors.As(err, &fErr) {
		return fErr.Message
	}
	return errBadRequestBody.Error()
}
