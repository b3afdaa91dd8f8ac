// Package security builds the listener TLS configuration for the API server.
//
//	cfg := security.TLSConfig{
//	    CertFile:     "/etc/authgate/tls/cert.pem",
//	    KeyFile:      "/etc/authgate/tls/key.pem",
//	    ClientCAFile: "/etc/authgate/tls/clients-ca.pem", // optional mTLS
//	}
//	tlsConfig, err := cfg.Build()
//
// A zero TLSConfig means plain HTTP (h2c).
package security
