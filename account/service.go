package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/authgate/auth"
	"github.com/kbukum/authgate/auth/jwt"
	"github.com/kbukum/authgate/credential"
	"github.com/kbukum/authgate/logger"
	"github.com/kbukum/authgate/observability"
	"github.com/kbukum/authgate/resilience"
	"github.com/kbukum/authgate/throttle"
)

// Service runs the account flows.
type Service struct {
	store        credential.Store
	issuer       *jwt.Issuer
	limiter      throttle.Limiter
	metrics      *observability.Metrics
	clock        auth.Clock
	defaultRoles []string
	retry        resilience.RetryConfig
	log          *logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLimiter throttles logins per normalized username.
func WithLimiter(l throttle.Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithMetrics records logins and issued tokens on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the clock tokens are issued against.
func WithClock(c auth.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithDefaultRoles sets the roles granted on self-registration.
func WithDefaultRoles(roles ...string) Option {
	return func(s *Service) { s.defaultRoles = roles }
}

// NewService creates a Service. Without WithLimiter logins are not throttled.
func NewService(store credential.Store, issuer *jwt.Issuer, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:   store,
		issuer:  issuer,
		limiter: throttle.NopLimiter{},
		clock:   auth.SystemClock,
		retry:   resilience.ConflictRetryConfig(credential.ErrStampMismatch),
		log:     log.WithComponent("account"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a self-service account with the default roles.
func (s *Service) Register(ctx context.Context, username, plaintext string) (*credential.User, error) {
	return s.create(ctx, "account.Register", username, plaintext, s.defaultRoles)
}

// CreateUser creates an account with explicit roles.
func (s *Service) CreateUser(ctx context.Context, username, plaintext string, roles []string) (*credential.User, error) {
	return s.create(ctx, "account.CreateUser", username, plaintext, roles)
}

func (s *Service) create(ctx context.Context, op, username, plaintext string, roles []string) (u *credential.User, err error) {
	ctx, span := observability.StartSpan(ctx, op, attribute.String(observability.AttrUsername, username))
	defer func() { observability.EndSpan(span, err) }()

	u, err = s.store.CreateUser(ctx, username, plaintext, roles)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String(observability.AttrUserID, u.ID))
	return u, nil
}

// Login checks username and plaintext and issues an access token.
//
// Every attempt counts against the username's throttle window; a successful
// login clears it. A limiter that cannot be reached lets the attempt through.
func (s *Service) Login(ctx context.Context, username, plaintext string) (tok *jwt.Token, err error) {
	ctx, span := observability.StartSpan(ctx, "account.Login", attribute.String(observability.AttrUsername, username))
	result := observability.LoginUnavailable
	defer func() {
		span.SetAttributes(attribute.String(observability.AttrResult, result))
		s.metrics.Login(ctx, result)
		observability.EndSpan(span, err)
	}()

	log := s.log.WithContext(ctx)
	key := credential.Normalize(username)

	allowed, lerr := s.limiter.Allow(ctx, key)
	if lerr != nil {
		log.Warn("Login throttle unavailable", logger.ErrorFields("throttle_allow", lerr))
	} else if !allowed {
		result = observability.LoginLockedOut
		retryAfter := s.retryAfter(ctx, key)
		log.Warn("Login locked out", map[string]interface{}{
			logger.FieldUsername: username,
			"retry_after":        retryAfter.String(),
		})
		return nil, &LockedOutError{RetryAfter: retryAfter}
	}

	u, err := s.store.FindByUsername(ctx, username)
	if errors.Is(err, credential.ErrNotFound) {
		s.store.VerifyPassword(nil, plaintext)
		result = observability.LoginFailure
		log.Info("Login failed", map[string]interface{}{logger.FieldUsername: username, logger.FieldReason: "unknown_user"})
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if err != nil {
		return nil, err
	}

	if !s.store.VerifyPassword(u, plaintext) {
		result = observability.LoginFailure
		log.Info("Login failed", map[string]interface{}{logger.FieldUserID: u.ID, logger.FieldReason: "wrong_password"})
		return nil, ErrInvalidCredentials
	}

	tok, err = s.issuer.Issue(u, s.clock())
	if err != nil {
		return nil, fmt.Errorf("account: issue token: %w", err)
	}
	if rerr := s.limiter.Reset(ctx, key); rerr != nil {
		log.Warn("Login throttle reset failed", logger.ErrorFields("throttle_reset", rerr))
	}

	result = observability.LoginSuccess
	s.metrics.TokenIssued(ctx, tok.KeyID)
	span.SetAttributes(attribute.String(observability.AttrUserID, u.ID))
	log.Info("Login succeeded", map[string]interface{}{
		logger.FieldUserID:  u.ID,
		logger.FieldTokenID: tok.ID,
		logger.FieldKeyID:   tok.KeyID,
	})
	return tok, nil
}

func (s *Service) retryAfter(ctx context.Context, key string) time.Duration {
	ra, ok := s.limiter.(throttle.RetryAfterer)
	if !ok {
		return 0
	}
	d, err := ra.RetryAfter(ctx, key)
	if err != nil {
		return 0
	}
	return d
}

// Profile returns the stored user behind a token subject.
func (s *Service) Profile(ctx context.Context, userID string) (*credential.User, error) {
	return s.store.FindByID(ctx, userID)
}

// ChangePassword replaces userID's password after checking current. A
// concurrent change to the same user is retried from a fresh read.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) (u *credential.User, err error) {
	ctx, span := observability.StartSpan(ctx, "account.ChangePassword", attribute.String(observability.AttrUserID, userID))
	defer func() { observability.EndSpan(span, err) }()

	u, err = resilience.Retry(ctx, s.retry, func() (*credential.User, error) {
		u, err := s.store.FindByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !s.store.VerifyPassword(u, current) {
			return nil, ErrInvalidCredentials
		}
		return s.store.ChangePassword(ctx, u, next)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// SetRoles replaces username's roles, retrying on concurrent changes.
func (s *Service) SetRoles(ctx context.Context, username string, roles []string) (u *credential.User, err error) {
	ctx, span := observability.StartSpan(ctx, "account.SetRoles", attribute.String(observability.AttrUsername, username))
	defer func() { observability.EndSpan(span, err) }()

	u, err = resilience.Retry(ctx, s.retry, func() (*credential.User, error) {
		u, err := s.store.FindByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		return s.store.SetRoles(ctx, u, roles)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}
