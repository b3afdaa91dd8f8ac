package middleware

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authgate/config"
)

// CORSConfig is the configurable part of the CORS policy. The environment
// comes from the service config.
type CORSConfig struct {
	// AllowedOrigins is the production allow-list. Entries are
	// scheme://host[:port]; a leading "*." on the host matches any subdomain.
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	// MaxAge is how long browsers may cache a preflight answer.
	MaxAge time.Duration `yaml:"max_age" mapstructure:"max_age"`
}

// CORSPolicy is the cross-origin policy chosen once at startup. It is never
// modified afterwards and is safe for concurrent use.
type CORSPolicy struct {
	environment    string
	anyOrigin      bool
	origins        []string
	wildcards      []originPattern
	anyMethod      bool
	methods        []string
	maxAge         time.Duration
	allowsWildcard bool
}

type originPattern struct {
	scheme string
	suffix string // ".example.com"
	port   string
}

// SelectCORSPolicy resolves the environment into a policy:
//
//	development: any origin, any method, any header, no credentials
//	production:  the configured origins only, GET only, any header
//
// staging uses the production policy. Any other environment is an error.
func SelectCORSPolicy(environment string, cfg CORSConfig) (*CORSPolicy, error) {
	switch environment {
	case config.EnvDevelopment:
		return &CORSPolicy{
			environment:    environment,
			anyOrigin:      true,
			anyMethod:      true,
			maxAge:         cfg.MaxAge,
			allowsWildcard: true,
		}, nil
	case config.EnvProduction, config.EnvStaging:
		p := &CORSPolicy{
			environment: environment,
			methods:     []string{http.MethodGet},
			maxAge:      cfg.MaxAge,
		}
		for _, raw := range cfg.AllowedOrigins {
			if err := p.addOrigin(raw); err != nil {
				return nil, err
			}
		}
		return p, nil
	default:
		return nil, fmt.Errorf("cors: unknown environment %q", environment)
	}
}

func (p *CORSPolicy) addOrigin(raw string) error {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "*" {
		return fmt.Errorf("cors: \"*\" is not allowed in the production origin list")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" || u.Path != "" || u.RawQuery != "" {
		return fmt.Errorf("cors: invalid origin %q", raw)
	}
	host := u.Hostname()
	if rest, ok := strings.CutPrefix(host, "*."); ok {
		if rest == "" || strings.Contains(rest, "*") {
			return fmt.Errorf("cors: invalid wildcard origin %q", raw)
		}
		p.wildcards = append(p.wildcards, originPattern{scheme: u.Scheme, suffix: "." + rest, port: u.Port()})
		return nil
	}
	if strings.Contains(host, "*") {
		return fmt.Errorf("cors: wildcard must be the leftmost label in %q", raw)
	}
	p.origins = append(p.origins, u.Scheme+"://"+u.Host)
	return nil
}

// Environment returns the environment the policy was selected for.
func (p *CORSPolicy) Environment() string { return p.environment }

// AllowsOrigin reports whether origin may make cross-origin requests.
func (p *CORSPolicy) AllowsOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	if p.anyOrigin {
		return true
	}
	origin = strings.ToLower(origin)
	if slices.Contains(p.origins, origin) {
		return true
	}
	if len(p.wildcards) == 0 {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	host := u.Hostname()
	for _, w := range p.wildcards {
		if u.Scheme == w.scheme && u.Port() == w.port &&
			len(host) > len(w.suffix) && strings.HasSuffix(host, w.suffix) {
			return true
		}
	}
	return false
}

// AllowsMethod reports whether method may be used cross-origin.
func (p *CORSPolicy) AllowsMethod(method string) bool {
	return p.anyMethod || slices.Contains(p.methods, strings.ToUpper(method))
}

// CORS applies the policy. Preflights from a disallowed origin or for a
// disallowed method get 403 without CORS headers; allowed preflights get 204.
func CORS(policy *CORSPolicy) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			h := w.Header()
			h.Add("Vary", "Origin")

			requestedMethod := r.Header.Get("Access-Control-Request-Method")
			if r.Method == http.MethodOptions && requestedMethod != "" {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				if !policy.AllowsOrigin(origin) || !policy.AllowsMethod(requestedMethod) {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				policy.writePreflightHeaders(h, origin, requestedMethod, r.Header.Get("Access-Control-Request-Headers"))
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if policy.AllowsOrigin(origin) && policy.AllowsMethod(r.Method) {
				policy.writeOriginHeader(h, origin)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GinCORS returns a Gin middleware for CORS.
func GinCORS(policy *CORSPolicy) gin.HandlerFunc {
	return GinWrap(CORS(policy))
}

func (p *CORSPolicy) writeOriginHeader(h http.Header, origin string) {
	if p.allowsWildcard {
		h.Set("Access-Control-Allow-Origin", "*")
		return
	}
	h.Set("Access-Control-Allow-Origin", origin)
}

func (p *CORSPolicy) writePreflightHeaders(h http.Header, origin, method, headers string) {
	p.writeOriginHeader(h, origin)
	if p.anyMethod {
		h.Set("Access-Control-Allow-Methods", strings.ToUpper(method))
	} else {
		h.Set("Access-Control-Allow-Methods", strings.Join(p.methods, ", "))
	}
	if headers != "" {
		h.Set("Access-Control-Allow-Headers", headers)
	}
	if p.maxAge > 0 {
		h.Set("Access-Control-Max-Age", fmt.Sprintf("%d", int(p.maxAge.Seconds())))
	}
}

// HSTS sets Strict-Transport-Security on requests that arrived over HTTPS,
// directly or through a proxy that sets X-Forwarded-Proto.
func HSTS(maxAge time.Duration, includeSubdomains bool) Middleware {
	value := fmt.Sprintf("max-age=%d", int(maxAge.Seconds()))
	if includeSubdomains {
		value += "; includeSubDomains"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
				w.Header().Set("Strict-Transport-Security", value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
