package main

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"homenest/internal/auth"
	"homenest/internal/handlers"
	"homenest/internal/logger"
	"homenest/internal/metrics"
)

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

// keepPlusInPath escapes '+' in the request path before routing. pat decodes route
// parameters as query values, which would turn "a+b@x.com" into "a b@x.com".
func keepPlusInPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if escaped := r.URL.EscapedPath(); strings.Contains(escaped, "+") {
			r = r.Clone(r.Context())
			r.URL.RawPath = strings.ReplaceAll(escaped, "+", "%2B")
		}
		next.ServeHTTP(w, r)
	})
}

func makeResponseJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// logRequest attaches a request-scoped logger and logs the outcome once the
// handler returns.
func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, rlog := logger.ContextWithLogger(r.Context())
		w.Header().Set("X-Request-ID", logger.RequestID(ctx))

		rec := &metrics.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		rlog.WithFields(logrus.Fields{
			"remote":   r.RemoteAddr,
			"method":   r.Method,
			"path":     r.URL.RequestURI(),
			"status":   rec.Status,
			"duration": time.Since(start),
		}).Info("request")
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.FromContext(r.Context()).Errorf("panic: %v\n%s", err, debug.Stack())
				w.Header().Set("Connection", "close")
				handlers.WriteError(w, r, fmt.Errorf("%v", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authenticate verifies the bearer token and stores the caller in the request context.
func (app *application) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := auth.Authenticate(r, app.verifier, app.cfg.Auth.VerifyTimeout)
		if err != nil {
			logger.FromContext(r.Context()).WithError(err).Debug("authentication failed")
			handlers.WriteError(w, r, err)
			return
		}
		ctx := auth.WithIdentity(r.Context(), id)
		ctx, _ = logger.ContextWithIdentity(ctx, id.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
