package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authgate/auth"
	"github.com/kbukum/authgate/auth/authctx"
	"github.com/kbukum/authgate/auth/jwt"
	"github.com/kbukum/authgate/authz"
	"github.com/kbukum/authgate/errors"
	"github.com/kbukum/authgate/logger"
	"github.com/kbukum/authgate/observability"
)

// Denial kinds, as recorded on the access-denied metric.
const (
	DeniedUnauthenticated = "unauthenticated"
	DeniedForbidden       = "forbidden"
)

// Enforcer authenticates the bearer token on a request and then checks the
// route's role requirement. Every token failure becomes the same 401; the
// reason is only logged. A role mismatch is a 403.
type Enforcer struct {
	validator auth.TokenValidator
	table     *authz.Table
	clock     auth.Clock
	metrics   *observability.Metrics
	log       *logger.Logger
}

// EnforcerOption configures an Enforcer.
type EnforcerOption func(*Enforcer)

// WithClock overrides the clock tokens are validated against.
func WithClock(clock auth.Clock) EnforcerOption {
	return func(e *Enforcer) { e.clock = clock }
}

// WithMetrics records failures and denials on m.
func WithMetrics(m *observability.Metrics) EnforcerOption {
	return func(e *Enforcer) { e.metrics = m }
}

// NewEnforcer creates an enforcer. A nil table means every route only needs
// an authenticated principal.
func NewEnforcer(validator auth.TokenValidator, table *authz.Table, log *logger.Logger, opts ...EnforcerOption) *Enforcer {
	if table == nil {
		table = authz.NewTable()
	}
	e := &Enforcer{
		validator: validator,
		table:     table,
		clock:     auth.SystemClock,
		log:       log.WithComponent("enforcer"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check authenticates r and authorizes it against the route table. On
// success it returns r's context carrying the principal.
func (e *Enforcer) Check(r *http.Request) (context.Context, *errors.AppError) {
	ctx := r.Context()
	log := e.log.WithContext(ctx)

	// An abandoned request is never let through.
	if err := ctx.Err(); err != nil {
		e.deny(ctx, DeniedUnauthenticated)
		log.Warn("request rejected", map[string]interface{}{
			logger.FieldReason: "context_done",
			logger.FieldError:  err.Error(),
		})
		return nil, errors.Unauthenticated()
	}

	token, ok := BearerToken(r)
	if !ok {
		e.deny(ctx, DeniedUnauthenticated)
		log.Debug("request rejected", map[string]interface{}{logger.FieldReason: "missing_token"})
		return nil, errors.Unauthenticated()
	}

	principal, err := e.validator.Validate(token, e.clock())
	if err != nil {
		reason := string(jwt.ReasonOf(err))
		if reason == "" {
			reason = "invalid"
		}
		e.metrics.ValidationFailure(ctx, reason)
		e.deny(ctx, DeniedUnauthenticated)
		log.Warn("token rejected", map[string]interface{}{
			logger.FieldReason: reason,
			logger.FieldRoute:  r.URL.Path,
		})
		return nil, errors.Unauthenticated()
	}

	req, ok := e.table.Lookup(r.Method, r.URL.Path)
	if ok && !req.SatisfiedBy(principal.Roles) {
		e.deny(ctx, DeniedForbidden)
		log.Info("access denied", map[string]interface{}{
			logger.FieldUserID: principal.Subject,
			logger.FieldRoute:  r.URL.Path,
			"required":         req.Roles,
		})
		return nil, errors.Forbidden()
	}

	return authctx.WithPrincipal(ctx, principal), nil
}

func (e *Enforcer) deny(ctx context.Context, kind string) {
	e.metrics.AccessDenied(ctx, kind)
}

// Gin returns the enforcer as Gin middleware.
func (e *Enforcer) Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, appErr := e.Check(c.Request)
		if appErr != nil {
			writeAuthError(c.Writer, appErr)
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Middleware returns the enforcer as net/http middleware.
func (e *Enforcer) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, appErr := e.Check(r)
			if appErr != nil {
				writeAuthError(w, appErr)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>". The
// scheme is case-insensitive.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeAuthError(w http.ResponseWriter, appErr *errors.AppError) {
	if appErr.HTTPStatus == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer`)
	}
	writeJSON(w, appErr.HTTPStatus, appErr.ToResponse())
}
