package component

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/kbukum/authgate/logger"
)

type fakeComponent struct {
	name     string
	startErr error
	stopErr  error
	events   *[]string
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Start(ctx context.Context) error {
	*f.events = append(*f.events, "start:"+f.name)
	return f.startErr
}

func (f *fakeComponent) Stop(ctx context.Context) error {
	*f.events = append(*f.events, "stop:"+f.name)
	return f.stopErr
}

func (f *fakeComponent) Health(ctx context.Context) Health {
	return Health{Name: f.name, Status: StatusHealthy}
}

func TestRegistry_StartStopOrder(t *testing.T) {
	var events []string
	r := NewRegistry(logger.NewNop())
	for _, name := range []string{"database", "redis", "server"} {
		if err := r.Register(&fakeComponent{name: name, events: &events}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	ctx := context.Background()
	if err := r.StartAll(ctx); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if err := r.StopAll(ctx); err != nil {
		t.Fatalf("StopAll: %v", err)
	}

	want := "start:database,start:redis,start:server,stop:server,stop:redis,stop:database"
	if got := strings.Join(events, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestRegistry_DuplicateName(t *testing.T) {
	var events []string
	r := NewRegistry(logger.NewNop())
	if err := r.Register(&fakeComponent{name: "db", events: &events}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&fakeComponent{name: "db", events: &events}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestRegistry_StartFailureSkipsStopOfUnstarted(t *testing.T) {
	var events []string
	r := NewRegistry(logger.NewNop())
	_ = r.Register(&fakeComponent{name: "a", events: &events})
	_ = r.Register(&fakeComponent{name: "b", events: &events, startErr: fmt.Errorf("boom")})
	_ = r.Register(&fakeComponent{name: "c", events: &events})

	ctx := context.Background()
	if err := r.StartAll(ctx); err == nil {
		t.Fatal("expected start error")
	}
	events = nil
	if err := r.StopAll(ctx); err != nil {
		t.Fatalf("StopAll: %v", err)
	}
	if got := strings.Join(events, ","); got != "stop:a" {
		t.Errorf("only started components should stop, got %s", got)
	}
}

func TestRegistry_HealthAll(t *testing.T) {
	var events []string
	r := NewRegistry(logger.NewNop())
	_ = r.Register(&fakeComponent{name: "db", events: &events})

	h := r.HealthAll(context.Background())
	if len(h) != 1 || h[0].Name != "db" || h[0].Status != StatusHealthy {
		t.Errorf("unexpected health %+v", h)
	}
}

func TestCheckHealth(t *testing.T) {
	ctx := context.Background()
	up := func(context.Context) bool { return true }
	down := func(context.Context) bool { return false }

	if h := CheckHealth(ctx, "store", up, false); h.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s", h.Status)
	}
	if h := CheckHealth(ctx, "store", down, false); h.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy, got %s", h.Status)
	}
	if h := CheckHealth(ctx, "cache", down, true); h.Status != StatusDegraded {
		t.Errorf("expected degraded, got %s", h.Status)
	}
}

func TestRegistry_StartAllStartsLateRegistrations(t *testing.T) {
	var events []string
	r := NewRegistry(logger.NewNop())
	_ = r.Register(&fakeComponent{name: "database", events: &events})
	ctx := context.Background()
	if err := r.StartAll(ctx); err != nil {
		t.Fatal(err)
	}
	_ = r.Register(&fakeComponent{name: "server", events: &events})
	if err := r.StartAll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := r.StopAll(ctx); err != nil {
		t.Fatal(err)
	}
	want := "start:database,start:server,stop:server,stop:database"
	if got := strings.Join(events, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
