package main

import (
	"context"
	"fmt"

	"github.com/kbukum/authgate/account"
	"github.com/kbukum/authgate/auth/jwt"
	"github.com/kbukum/authgate/auth/password"
	"github.com/kbukum/authgate/authz"
	"github.com/kbukum/authgate/bootstrap"
	"github.com/kbukum/authgate/credential"
	"github.com/kbukum/authgate/database"
	"github.com/kbukum/authgate/observability"
	"github.com/kbukum/authgate/redis"
	"github.com/kbukum/authgate/server"
	"github.com/kbukum/authgate/server/middleware"
	"github.com/kbukum/authgate/throttle"
)

// configure builds the store, the token keyring and the HTTP surface once
// the infrastructure components are up. The credential health check and the
// server are registered here and started by the app afterwards.
func configure(ctx context.Context, app *bootstrap.App[*Config], db *database.Component, rc *redis.Component) error {
	cfg := app.Cfg
	log := app.Logger

	keys, err := cfg.Auth.JWT.Keyring()
	if err != nil {
		return fmt.Errorf("auth.jwt: %w", err)
	}
	metrics, err := observability.NewMetrics(observability.Meter(serviceName))
	if err != nil {
		return err
	}

	store := credential.NewGormStore(db.DB(), password.NewHasher(cfg.Auth.Password), cfg.Auth.Password.Policy, log)
	if cfg.SeedFile != "" {
		if _, err := credential.SeedFromFile(ctx, store, cfg.SeedFile, log); err != nil {
			return err
		}
	}

	var client *redis.Client
	if rc != nil {
		client = rc.Client()
	}
	loginLimiter, err := throttle.New(cfg.Throttle, client)
	if err != nil {
		return err
	}
	requestLimiter, err := throttle.New(cfg.Server.RateLimit, client)
	if err != nil {
		return err
	}

	svc := account.NewService(store, jwt.NewIssuer(keys, cfg.Auth.JWT), log,
		account.WithLimiter(loginLimiter),
		account.WithMetrics(metrics),
		account.WithDefaultRoles(cfg.Auth.DefaultRoles...),
	)

	srv, err := server.New(cfg.Server, log)
	if err != nil {
		return err
	}
	if err := srv.ApplyMiddleware(cfg.Environment, metrics); err != nil {
		return err
	}
	srv.RegisterHealthEndpoints(app.Name, app.Components.HealthAll)

	table := authz.NewTable()
	enforcer := middleware.NewEnforcer(jwt.NewValidator(keys, cfg.Auth.JWT), table, log,
		middleware.WithMetrics(metrics))
	account.NewHandler(svc, log).Mount(srv.GinEngine(), table, enforcer.Gin(),
		middleware.RateLimit(middleware.RateLimitConfig{Limiter: requestLimiter, Log: log}))

	for _, rule := range table.Rules() {
		log.Debug("Route requirement", map[string]interface{}{"rule": rule.String()})
	}
	log.Info("Auth configured", map[string]interface{}{
		"auth":        cfg.Auth.Describe(),
		"environment": cfg.Environment,
		"throttle":    cfg.Throttle.Enabled,
		"rate_limit":  cfg.Server.RateLimit.Enabled,
	})

	if err := app.RegisterComponent(credential.NewHealthComponent(store)); err != nil {
		return err
	}
	return app.RegisterComponent(server.NewComponent(srv))
}
