package scan

import (
	"context"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ksyq12/heroku-auto-ssl/internal/errors"
)

func TestClassify(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cert := func(notAfter time.Time) *x509.Certificate {
		return &x509.Certificate{
			Subject:  pkix.Name{CommonName: "www.example.com"},
			Issuer:   pkix.Name{CommonName: "R3"},
			NotAfter: notAfter,
		}
	}

	tests := []struct {
		name        string
		notAfter    time.Time
		days        int
		expired     bool
		shouldRenew bool
	}{
		{"far away", now.Add(60 * 24 * time.Hour), 60, false, false},
		{"inside renewal window", now.Add(7*24*time.Hour + time.Hour), 7, false, true},
		{"just outside window", now.Add(8 * 24 * time.Hour), 8, false, false},
		{"less than a day", now.Add(3 * time.Hour), 0, true, true},
		{"already expired", now.Add(-48 * time.Hour), -2, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Classify("www.example.com", cert(tt.notAfter), now, 7)
			assert.Equal(t, tt.days, st.DaysLeft)
			assert.Equal(t, tt.expired, st.Expired)
			assert.Equal(t, tt.shouldRenew, st.ShouldRenew)
			assert.Equal(t, "R3", st.Issuer)
			assert.Equal(t, "www.example.com", st.Subject)
		})
	}
}

func TestLoadDomains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domains.master.txt")
	require.NoError(t, os.WriteFile(path, []byte("example.com www.example.com\r\napi.example.com\n"), 0644))

	root, domains, err := LoadDomains(path)
	require.NoError(t, err)
	assert.Equal(t, "example.com", root)
	assert.Equal(t, []string{"www.example.com", "api.example.com"}, domains)

	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0644))
	_, _, err = LoadDomains(path)
	assert.Error(t, err)

	_, _, err = LoadDomains(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Equal(t, apperrors.ErrCodeScan, apperrors.CodeOf(err))
}

func TestLoadCABundle(t *testing.T) {
	srv := httptest.NewTLSServer(http.NotFoundHandler())
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "ca.pem")
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	require.NoError(t, os.WriteFile(path, data, 0644))

	pool, err := LoadCABundle(path)
	require.NoError(t, err)
	assert.NotNil(t, pool)

	require.NoError(t, os.WriteFile(path, []byte("not pem"), 0644))
	_, err = LoadCABundle(path)
	assert.ErrorContains(t, err, "no certificates found")
}

func tlsServer(t *testing.T) (*httptest.Server, int, *x509.CertPool) {
	t.Helper()
	srv := httptest.NewTLSServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	_, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())
	return srv, port, pool
}

func TestScanner_Scan(t *testing.T) {
	srv, port, pool := tlsServer(t)

	s := NewScanner(Options{Roots: pool, Port: port, Timeout: 5 * time.Second, Concurrency: 2, RenewWithinDays: 7})
	results, err := s.Scan(context.Background(), []string{"127.0.0.1", "127.0.0.1"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "127.0.0.1", results[0].Domain)
	assert.True(t, results[0].NotAfter.Equal(srv.Certificate().NotAfter))
	assert.False(t, results[0].Expired)
	assert.False(t, results[0].ShouldRenew)

	s.now = func() time.Time { return srv.Certificate().NotAfter.Add(-72 * time.Hour) }
	results, err = s.Scan(context.Background(), []string{"127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, 3, results[0].DaysLeft)
	assert.True(t, results[0].ShouldRenew)
}

func TestScanner_UntrustedFailsFast(t *testing.T) {
	_, port, _ := tlsServer(t)

	s := NewScanner(Options{Roots: x509.NewCertPool(), Port: port, Timeout: 5 * time.Second, Concurrency: 1})
	_, err := s.Scan(context.Background(), []string{"127.0.0.1", "127.0.0.1"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeScan, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "127.0.0.1: error getting SSL certificate")
}

// stallingListener accepts TCP connections on 127.0.0.1 and never answers
// the TLS handshake.
func stallingListener(t *testing.T) (int, *atomic.Int32) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var accepted atomic.Int32
	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			accepted.Add(1)
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})
	return ln.Addr().(*net.TCPAddr).Port, &accepted
}

func TestScanner_ReportsEarliestFailingDomain(t *testing.T) {
	port, _ := stallingListener(t)

	// 127.0.0.1 times out in the handshake; 127.0.0.2 is refused at once.
	s := NewScanner(Options{Roots: x509.NewCertPool(), Port: port, Timeout: 300 * time.Millisecond, Concurrency: 2})
	_, err := s.Scan(context.Background(), []string{"127.0.0.1", "127.0.0.2"})
	require.Error(t, err)

	var e *apperrors.Error
	require.True(t, apperrors.As(err, &e))
	assert.Equal(t, "127.0.0.1", e.Subject)
	assert.NotContains(t, err.Error(), "canceled")
}

func TestScanner_StopsAfterFailure(t *testing.T) {
	port, accepted := stallingListener(t)

	s := NewScanner(Options{Roots: x509.NewCertPool(), Port: port, Timeout: 300 * time.Millisecond, Concurrency: 1})
	_, err := s.Scan(context.Background(), []string{"127.0.0.2", "127.0.0.1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.2: error getting SSL certificate")
	assert.Equal(t, int32(0), accepted.Load())
}

func TestSummarize(t *testing.T) {
	r := Summarize([]Status{
		{Domain: "a.example.com", DaysLeft: -1, Expired: true, ShouldRenew: true},
		{Domain: "b.example.com", DaysLeft: 5, ShouldRenew: true},
		{Domain: "c.example.com", DaysLeft: 50},
	})
	assert.Len(t, r.Expired, 1)
	assert.Len(t, r.Valid, 2)
	assert.Len(t, r.NoAction, 1)
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, r.RenewalDomains())

	out, err := r.Render()
	require.NoError(t, err)
	assert.Contains(t, out, "Should renew (2)")
	assert.Contains(t, out, "No action (1)")
}

func TestWriteRenewalList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domains.txt")

	written, err := WriteRenewalList(path, "example.com", Summarize([]Status{
		{Domain: "www.example.com", ShouldRenew: true},
		{Domain: "api.example.com"},
		{Domain: "shop.example.com", ShouldRenew: true},
	}))
	require.NoError(t, err)
	assert.True(t, written)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "example.com www.example.com shop.example.com\n", string(data))

	written, err = WriteRenewalList(path, "example.com", Summarize([]Status{{Domain: "api.example.com"}}))
	require.NoError(t, err)
	assert.False(t, written)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "stale renewal list is removed")

	written, err = WriteRenewalList(path, "example.com", Summarize(nil))
	require.NoError(t, err)
	assert.False(t, written)
}
