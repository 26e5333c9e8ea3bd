package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/cragcast/cragcast/internal/api/models"
)

// Recovery turns a handler panic into a 500 problem and logs the stack with
// the request id and route. http.ErrAbortHandler is re-raised so net/http can
// drop the connection. If the handler already started the response, the
// status cannot change and only the log line is written.
func Recovery(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := newResponseWriter(w)
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}

				requestID := GetRequestID(r.Context())
				log.Error().
					Str("request_id", requestID).
					Str("method", r.Method).
					Str("route", routePattern(r)).
					Str("panic", fmt.Sprint(v)).
					Bool("response_started", rw.started).
					Bytes("stack", debug.Stack()).
					Msg("handler panicked")

				if rw.started {
					return
				}
				models.NewInternalError(requestID, "an unexpected error occurred").
					WithInstance(r.URL.Path).
					Write(rw)
			}()

			next.ServeHTTP(rw, r)
		})
	}
}
