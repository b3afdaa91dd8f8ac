// Package database wraps GORM with connection retry, pooling, error
// translation, transactions and a lifecycle component.
//
// Two drivers are supported: "postgres" for deployments and "sqlite" for
// development and tests. Schema comes from GORM auto-migration when
// auto_migrate is set, or from the versioned SQL files in the migration
// subpackage when migrate is set.
//
//	comp := database.NewComponent(cfg.Database, log).
//	    WithAutoMigrate(&credential.User{}, &credential.Role{})
//	registry.Register(comp)
//	// after Start:
//	store := credential.NewGormStore(comp.DB(), hasher, policy)
package database
