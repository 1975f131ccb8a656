package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/andrewpaige1/mindflow-api/logging"
	"github.com/andrewpaige1/mindflow-api/metrics"
)

// Instrument tags the request with a correlation id, then logs and records
// one metric sample per request under the route pattern.
func Instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.WithCorrelationID(r.Context(), logging.NewCorrelationID())

		wrapper := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next(wrapper, r.WithContext(ctx))

		duration := time.Since(start)
		metrics.RecordAPIRequest(r.Method, route, strconv.Itoa(wrapper.statusCode), duration)
		logging.Ctx(ctx).Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", wrapper.statusCode).
			Dur("duration", duration).
			Msg("request")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
