package transport

import (
	"context"
	"net/http"

	"tabeya-be/internal/apperr"
	"tabeya-be/internal/logger"
	"tabeya-be/internal/utils"

	"go.uber.org/zap"
)

func respond(w http.ResponseWriter, code int, message string, data any) {
	utils.WriteJSON(w, code, utils.Envelope{Success: true, Message: message, Data: data})
}

// respondError writes the client-safe part of err. The cause is logged only.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	e := apperr.From(err)
	code := apperr.HTTPStatus(e)

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "transport"),
		zap.String("reason", e.Reason),
		zap.Int("status", code),
	)
	if code >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	} else {
		log.Info("request rejected", zap.String("message", e.Message))
	}

	utils.WriteJSONError(w, code, e.Reason, e.Message)
}
