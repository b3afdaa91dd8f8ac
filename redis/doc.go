// Package redis wraps go-redis with authgate logging, configuration
// conventions and a lifecycle component. The login throttle keeps its
// attempt counters here when several authgate instances share state.
//
//	comp := redis.NewComponent(cfg.Redis, log)
//	registry.Register(comp)
//	// after Start:
//	n, err := comp.Client().IncrWindow(ctx, "authgate:login:ALICE", 5*time.Minute)
package redis
