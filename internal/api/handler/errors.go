package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/cragcast/cragcast/internal/api/middleware"
	"github.com/cragcast/cragcast/internal/api/response"
	"github.com/cragcast/cragcast/internal/catalog"
	"github.com/cragcast/cragcast/internal/climbing"
	"github.com/cragcast/cragcast/internal/weather"
)

// writeServiceError maps domain errors to problem responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, climbing.ErrInvalidInput), errors.Is(err, weather.ErrInvalidCoordinates):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, catalog.ErrLocationNotFound), errors.Is(err, catalog.ErrSpotNotFound):
		response.NotFound(w, r, err.Error())
	case errors.Is(err, weather.ErrNoDataForLocation):
		response.NotFound(w, r, "no forecast is available for this location")
	case errors.Is(err, weather.ErrProviderUnavailable),
		errors.Is(err, weather.ErrInvalidAPIKey),
		errors.Is(err, context.DeadlineExceeded):
		log.Warn().Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("weather provider unavailable")
		response.ServiceUnavailable(w, r, "weather data is temporarily unavailable")
	default:
		log.Error().Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("unhandled error")
		response.InternalError(w, r, "an unexpected error occurred")
	}
}
