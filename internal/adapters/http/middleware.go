package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
	"github.com/CalistoMango/TheShipyard-sub000/internal/ports"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyPrincipal ctxKey = "verified_principal"
)

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpLogger().ErrorContext(r.Context(), "panic recovered",
					"operation", "http_panic_recovery",
					"outcome", "failure",
					"request_id", requestIDFromContext(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
				)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(payload []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(payload)
	r.bytes += n
	return n, err
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		statusCode := recorder.statusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		outcome := "success"
		if statusCode >= 400 {
			outcome = "failure"
		}

		fields := []any{
			"operation", "http_request",
			"outcome", outcome,
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", statusCode,
			"bytes", recorder.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestIDFromContext(r.Context()),
		}
		switch {
		case statusCode >= 500:
			httpLogger().ErrorContext(r.Context(), "http request completed", fields...)
		case statusCode >= 400:
			httpLogger().WarnContext(r.Context(), "http request completed", fields...)
		default:
			httpLogger().InfoContext(r.Context(), "http request completed", fields...)
		}
	})
}

func requestIDFromContext(ctx context.Context) string {
	v := ctx.Value(ctxKeyRequestID)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func bearerTokenFromHeader(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errors.New("missing bearer token")
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func mapDomainError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, domain.ErrAmountBelowMin):
		return http.StatusBadRequest, "AMOUNT_BELOW_MINIMUM", err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", err.Error()
	case errors.Is(err, domain.ErrSelfVote):
		return http.StatusForbidden, "SELF_VOTE", "builders cannot vote on their own build"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrIdeaNotOpen):
		return http.StatusConflict, "IDEA_NOT_OPEN", "idea is not accepting contributions"
	case errors.Is(err, domain.ErrBuildNotPending):
		return http.StatusConflict, "BUILD_NOT_PENDING", "build is not pending review"
	case errors.Is(err, domain.ErrBuildNotVoting):
		return http.StatusConflict, "BUILD_NOT_VOTING", "build is not in voting"
	case errors.Is(err, domain.ErrVotingClosed):
		return http.StatusConflict, "VOTING_CLOSED", "voting window has closed"
	case errors.Is(err, domain.ErrVotingStillOpen):
		return http.StatusConflict, "VOTING_STILL_OPEN", "voting window is still open"
	case errors.Is(err, domain.ErrNothingToClaim):
		return http.StatusConflict, "NOTHING_TO_CLAIM", "no claimable amount"
	case errors.Is(err, domain.ErrReportAlreadyClosed):
		return http.StatusConflict, "REPORT_ALREADY_CLOSED", "report was already resolved"
	case errors.Is(err, domain.ErrLedgerDrift):
		return http.StatusConflict, "LEDGER_DRIFT", "settlement amount does not match ledger"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, domain.ErrCooldownActive):
		return http.StatusTooManyRequests, "COOLDOWN_ACTIVE", "resubmission cooldown active"
	case errors.Is(err, domain.ErrTxUnverified):
		return http.StatusUnprocessableEntity, "TX_UNVERIFIED", "settlement transaction could not be verified"
	case errors.Is(err, domain.ErrVerificationUnavailable):
		return http.StatusServiceUnavailable, "VERIFICATION_UNAVAILABLE", "settlement ledger unavailable, retry later"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}

func principalFromContext(ctx context.Context) (ports.VerifiedPrincipal, bool) {
	v := ctx.Value(ctxKeyPrincipal)
	principal, ok := v.(ports.VerifiedPrincipal)
	return principal, ok
}
