package database

import (
	"context"
	"fmt"

	"github.com/kbukum/authgate/component"
	"github.com/kbukum/authgate/logger"
)

// ComponentName is the name the database registers and reports under.
const ComponentName = "database"

// MigrateFunc applies versioned migrations to an open database.
type MigrateFunc func(ctx context.Context, db *DB) error

// Component opens the credential database on Start and brings its schema
// up to date: versioned migrations first when Config.Migrate is set, then
// GORM auto-migration when Config.AutoMigrate is set.
type Component struct {
	cfg     Config
	log     *logger.Logger
	models  []interface{}
	migrate MigrateFunc
	db      *DB
}

var _ component.Component = (*Component)(nil)

func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent(ComponentName)}
}

// WithAutoMigrate adds models for GORM auto-migration.
func (c *Component) WithAutoMigrate(models ...interface{}) *Component {
	c.models = append(c.models, models...)
	return c
}

// WithMigrations sets the versioned migration step.
func (c *Component) WithMigrations(fn MigrateFunc) *Component {
	c.migrate = fn
	return c
}

// DB is nil until Start succeeds.
func (c *Component) DB() *DB { return c.db }

func (c *Component) Name() string { return ComponentName }

func (c *Component) Start(ctx context.Context) error {
	db, err := New(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	if c.cfg.Migrate && c.migrate != nil {
		if err := c.migrate(ctx, db); err != nil {
			_ = db.Close()
			return fmt.Errorf("migrate schema: %w", err)
		}
	}
	if c.cfg.AutoMigrate && len(c.models) > 0 {
		if err := db.AutoMigrate(c.models...); err != nil {
			_ = db.Close()
			return err
		}
	}
	c.db = db
	return nil
}

func (c *Component) Stop(context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Health pings the pool. The database is required, so a failed ping is
// unhealthy.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.db == nil {
		return component.Health{Name: ComponentName, Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.CheckHealth(ctx, ComponentName, func(ctx context.Context) bool {
		return c.db.Ping(ctx) == nil
	}, false)
}
