package authz

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Requirement is the role set a route demands. The principal must carry at
// least one of Roles; an empty set admits any authenticated principal.
type Requirement struct {
	Method string
	Path   string
	Roles  []string
}

// SatisfiedBy reports whether roles intersect the requirement.
func (r Requirement) SatisfiedBy(roles []string) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, want := range r.Roles {
		if slices.Contains(roles, want) {
			return true
		}
	}
	return false
}

func (r Requirement) String() string {
	if len(r.Roles) == 0 {
		return fmt.Sprintf("%s %s: authenticated", r.Method, r.Path)
	}
	return fmt.Sprintf("%s %s: %s", r.Method, r.Path, strings.Join(r.Roles, "|"))
}

// Table maps route templates to role requirements.
type Table struct {
	mu    sync.RWMutex
	rules []Requirement
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// Require declares that method+path needs one of roles. Registering the same
// method and path twice replaces the earlier declaration. Method "*" matches
// every method.
func (t *Table) Require(method, path string, roles ...string) *Table {
	req := Requirement{
		Method: strings.ToUpper(method),
		Path:   normalizePath(path),
		Roles:  slices.Clone(roles),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for i, r := range t.rules {
		if r.Method == req.Method && r.Path == req.Path {
			t.rules[i] = req
			return t
		}
	}
	t.rules = append(t.rules, req)
	return t
}

// Lookup finds the requirement for a request. path may be a concrete request
// path or the router's route template; exact template matches win over
// parameterized ones, and earlier registrations win ties.
func (t *Table) Lookup(method, path string) (Requirement, bool) {
	method = strings.ToUpper(method)
	path = normalizePath(path)

	t.mu.RLock()
	defer t.mu.RUnlock()

	var (
		best  Requirement
		found bool
		score = -1
	)
	for _, r := range t.rules {
		if r.Method != "*" && r.Method != method {
			continue
		}
		s, ok := matchPath(r.Path, path)
		if !ok {
			continue
		}
		if r.Method != "*" {
			s++
		}
		if s > score {
			best, found, score = r, true, s
		}
	}
	return best, found
}

// Rules returns a copy of every registered requirement, in registration order.
func (t *Table) Rules() []Requirement {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.rules)
}
