// Package platform locates platform-specific files such as the system CA bundle.
package platform

import (
	"fmt"
	"os"
	"runtime"
)

// caBundles lists well-known CA bundle locations per OS, most common first.
var caBundles = map[string][]string{
	"linux": {
		"/etc/ssl/certs/ca-certificates.crt", // Debian/Ubuntu/Alpine
		"/etc/pki/tls/certs/ca-bundle.crt",   // RHEL/CentOS/Fedora
		"/etc/ssl/ca-bundle.pem",             // openSUSE
		"/etc/pki/ca-trust/extracted/pem/tls-ca-bundle.pem",
	},
	"darwin": {
		"/etc/ssl/cert.pem",
		"/opt/homebrew/etc/openssl@3/cert.pem",
		"/usr/local/etc/openssl@3/cert.pem",
	},
	"freebsd": {
		"/usr/local/share/certs/ca-root-nss.crt",
		"/etc/ssl/cert.pem",
	},
}

// DetectCABundle returns the first CA bundle that exists on this platform.
func DetectCABundle() (string, error) {
	return detectCABundle(runtime.GOOS, pathExists)
}

func detectCABundle(goos string, exists func(string) bool) (string, error) {
	candidates, ok := caBundles[goos]
	if !ok {
		return "", fmt.Errorf("unsupported platform: %s", goos)
	}
	for _, p := range candidates {
		if exists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("CA bundle not found (checked %v)", candidates)
}

// pathExists checks if a path exists on the filesystem.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Platform returns a string describing the current platform.
func Platform() string {
	return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
}
