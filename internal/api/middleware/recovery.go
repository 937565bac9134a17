package middleware

import (
	"log/slog"
	"net/http"

	"github.com/BlueStarAcademy/sudampvp/internal/api/apierr"
	"github.com/BlueStarAcademy/sudampvp/internal/middleware"
)

// Recovery turns handler panics into a 500 INTERNAL_ERROR body
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger.With(slog.String("component", "api")), writeInternalError)
}

func writeInternalError(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
