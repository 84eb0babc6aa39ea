package middleware

import (
	"bytes"
	"net/http"
	"time"

	"infinite-experiment/garrison/internal/auth"
	"infinite-experiment/garrison/internal/constants"
	"infinite-experiment/garrison/internal/logging"
)

const maxLoggedBody = 2048

type respLogger struct {
	http.ResponseWriter
	status int
	buf    *bytes.Buffer
}

func (l *respLogger) WriteHeader(code int) {
	l.status = code
	l.ResponseWriter.WriteHeader(code)
}

func (l *respLogger) Write(b []byte) (int, error) {
	if room := maxLoggedBody - l.buf.Len(); room > 0 {
		if len(b) > room {
			l.buf.Write(b[:room])
		} else {
			l.buf.Write(b)
		}
	}
	return l.ResponseWriter.Write(b)
}

// DebugLogging logs headers and response bodies at debug level. Credentials
// are redacted. Mounted outside production only.
func DebugLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := make(map[string]string, len(r.Header))
		for name := range r.Header {
			switch name {
			case constants.HeaderAPIKey, "Authorization", "Cookie":
				headers[name] = "[redacted]"
			default:
				headers[name] = r.Header.Get(name)
			}
		}

		lw := &respLogger{ResponseWriter: w, status: http.StatusOK, buf: &bytes.Buffer{}}

		start := time.Now()
		next.ServeHTTP(lw, r)

		logging.Debug("HTTP exchange",
			"request_id", auth.GetRequestID(r.Context()),
			"method", r.Method,
			"url", r.URL.String(),
			"headers", headers,
			"status_code", lw.status,
			"duration", time.Since(start).String(),
			"body", lw.buf.String(),
		)
	})
}
