// Command authgate serves the authentication API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kbukum/authgate/bootstrap"
	"github.com/kbukum/authgate/config"
	"github.com/kbukum/authgate/credential"
	"github.com/kbukum/authgate/database"
	"github.com/kbukum/authgate/database/migration"
	"github.com/kbukum/authgate/observability"
	"github.com/kbukum/authgate/redis"
	"github.com/kbukum/authgate/version"
)

func main() {
	configFile := flag.String("config", "", "config file (default: search ./cmd/authgate, ./config, .)")
	envFile := flag.String("env", "", ".env file (default: search ./cmd/authgate, .)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().String())
		return
	}

	if err := run(*configFile, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "authgate: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, envFile string) error {
	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg,
		config.WithConfigFile(configFile),
		config.WithEnvFile(envFile),
	); err != nil {
		return err
	}

	cfg.ApplyDefaults()
	app, err := bootstrap.NewApp(&cfg,
		bootstrap.WithGracefulTimeout(time.Duration(cfg.Server.WriteTimeout)*time.Second))
	if err != nil {
		return err
	}
	if app.Version == "dev" {
		app.Version = version.Get().Version
	}

	db := database.NewComponent(cfg.Database, app.Logger).
		WithAutoMigrate(credential.Models()...).
		WithMigrations(migration.Up)
	if err := app.RegisterComponent(db); err != nil {
		return err
	}

	var rc *redis.Component
	if cfg.UsesRedis() {
		rc = redis.NewComponent(cfg.Redis, app.Logger)
		if err := app.RegisterComponent(rc); err != nil {
			return err
		}
	}

	telemetry := observability.NewComponent(cfg.Telemetry, observability.ServiceInfo{
		Name:        app.Name,
		Version:     app.Version,
		Environment: cfg.Environment,
	})
	if err := app.RegisterComponent(telemetry); err != nil {
		return err
	}

	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*Config]) error {
		return configure(ctx, a, db, rc)
	})
	app.OnReady(func(context.Context) error {
		app.Logger.Info("authgate listening", map[string]interface{}{
			"addr":        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			"environment": cfg.Environment,
			"tls":         cfg.Server.TLS.IsEnabled(),
		})
		return nil
	})
	return app.Run(context.Background())
}
