package authz

import "strings"

// matchPath compares a route template against a path segment by segment.
//
//   - ":name" matches exactly one segment
//   - "*" or "*name" as the last segment matches the remainder
//   - anything else must match literally
//
// The returned score counts literal segments so callers can prefer the most
// specific template. A path that is itself a template matches only when the
// parameter segments line up.
func matchPath(pattern, path string) (int, bool) {
	if pattern == path {
		return 1 << 16, true
	}

	pat := splitPath(pattern)
	got := splitPath(path)
	score := 0

	for i, seg := range pat {
		if strings.HasPrefix(seg, "*") {
			if i != len(pat)-1 {
				return 0, false
			}
			return score, true
		}
		if i >= len(got) {
			return 0, false
		}
		switch {
		case strings.HasPrefix(seg, ":"):
			if got[i] == "" {
				return 0, false
			}
		case seg == got[i]:
			score += 2
		default:
			return 0, false
		}
	}
	if len(got) != len(pat) {
		return 0, false
	}
	return score, true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}
