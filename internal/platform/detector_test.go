package platform

import (
	"runtime"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectCABundle(t *testing.T) {
	path, err := DetectCABundle()
	if err != nil {
		t.Skipf("no CA bundle on this host: %v", err)
	}
	assert.True(t, pathExists(path), "detected bundle %s does not exist", path)
}

func TestDetectCABundle_Order(t *testing.T) {
	tests := []struct {
		name     string
		goos     string
		existing []string
		want     string
		wantErr  bool
	}{
		{"debian", "linux", []string{"/etc/ssl/certs/ca-certificates.crt", "/etc/pki/tls/certs/ca-bundle.crt"}, "/etc/ssl/certs/ca-certificates.crt", false},
		{"rhel", "linux", []string{"/etc/pki/tls/certs/ca-bundle.crt"}, "/etc/pki/tls/certs/ca-bundle.crt", false},
		{"macos", "darwin", []string{"/etc/ssl/cert.pem"}, "/etc/ssl/cert.pem", false},
		{"nothing installed", "linux", nil, "", true},
		{"unsupported", "plan9", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exists := func(p string) bool { return slices.Contains(tt.existing, p) }
			got, err := detectCABundle(tt.goos, exists)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathExists(t *testing.T) {
	assert.True(t, pathExists("/"))
	assert.False(t, pathExists("/this/path/should/definitely/not/exist/anywhere"))
}

func TestPlatform(t *testing.T) {
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, Platform())
}
