// Package version reports the build identity of the authgate binary.
//
//	go build -ldflags "-X github.com/kbukum/authgate/version.Version=1.4.0" ./cmd/authgate
//
// Unset fields fall back to the VCS stamps the Go toolchain embeds.
package version
