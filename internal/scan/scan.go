// Package scan reports how long the certificates served for a list of
// domains remain valid and which of them should be renewed.
package scan

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"math"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/ksyq12/heroku-auto-ssl/internal/errors"
	"github.com/ksyq12/heroku-auto-ssl/internal/logger"
	"github.com/ksyq12/heroku-auto-ssl/internal/platform"
)

// Status is the certificate state of one domain
type Status struct {
	Domain      string    `json:"domain"`
	Subject     string    `json:"subject"`
	Issuer      string    `json:"issuer"`
	NotAfter    time.Time `json:"not_after"`
	DaysLeft    int       `json:"days_left"`
	Expired     bool      `json:"expired"`
	ShouldRenew bool      `json:"should_renew"`
}

// Classify computes the status of cert served for domain at now
func Classify(domain string, cert *x509.Certificate, now time.Time, renewWithinDays int) Status {
	days := int(math.Floor(cert.NotAfter.Sub(now).Hours() / 24))
	return Status{
		Domain:      domain,
		Subject:     cert.Subject.CommonName,
		Issuer:      cert.Issuer.CommonName,
		NotAfter:    cert.NotAfter,
		DaysLeft:    days,
		Expired:     days <= 0,
		ShouldRenew: days <= renewWithinDays,
	}
}

// LoadDomains reads a whitespace-delimited domain list. The first entry is
// the root domain and is returned separately.
func LoadDomains(path string) (string, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, apperrors.Wrap(apperrors.ErrCodeScan, "failed to read domain list", err)
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", nil, apperrors.Subject(apperrors.ErrCodeScan, path, "domain list is empty")
	}
	return fields[0], fields[1:], nil
}

// LoadCABundle builds a root pool from a PEM bundle. An empty path uses the
// platform bundle, falling back to the system pool.
func LoadCABundle(path string) (*x509.CertPool, error) {
	if path == "" {
		detected, err := platform.DetectCABundle()
		if err != nil {
			logger.Debug("%v on %s; using the system pool", err, platform.Platform())
			return x509.SystemCertPool()
		}
		logger.Debug("Using CA bundle %s on %s", detected, platform.Platform())
		path = detected
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeScan, "failed to read CA bundle", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, apperrors.Subject(apperrors.ErrCodeScan, path, "no certificates found in CA bundle")
	}
	return pool, nil
}

// Scanner dials domains over TLS and inspects the served certificate
type Scanner struct {
	roots           *x509.CertPool
	port            int
	timeout         time.Duration
	concurrency     int
	renewWithinDays int
	now             func() time.Time
}

// Options configures a Scanner
type Options struct {
	Roots           *x509.CertPool
	Port            int
	Timeout         time.Duration
	Concurrency     int
	RenewWithinDays int
}

// NewScanner creates a scanner
func NewScanner(opts Options) *Scanner {
	if opts.Port == 0 {
		opts.Port = 443
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Scanner{
		roots:           opts.Roots,
		port:            opts.Port,
		timeout:         opts.Timeout,
		concurrency:     opts.Concurrency,
		renewWithinDays: opts.RenewWithinDays,
		now:             time.Now,
	}
}

// Scan checks the domains in order, up to the configured number at a time.
// Results keep input order. When a domain fails, domains after it are not
// started and the error of the earliest failing domain is returned, so the
// outcome matches a sequential scan.
func (s *Scanner) Scan(ctx context.Context, domains []string) ([]Status, error) {
	results := make([]Status, len(domains))
	errs := make([]error, len(domains))

	var mu sync.Mutex
	failed := len(domains)
	after := func(i int) bool {
		mu.Lock()
		defer mu.Unlock()
		return i > failed
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, domain := range domains {
		if after(i) {
			break
		}
		i, domain := i, domain
		g.Go(func() error {
			if after(i) {
				return nil
			}
			logger.Info("Checking %s", domain)
			cert, err := s.fetch(ctx, domain)
			if err != nil {
				logger.Error("%s: %v", domain, err)
				errs[i] = apperrors.WrapSubject(apperrors.ErrCodeScan, domain,
					fmt.Errorf("error getting SSL certificate: %w", err))
				mu.Lock()
				if i < failed {
					failed = i
				}
				mu.Unlock()
				return nil
			}
			st := Classify(domain, cert, s.now(), s.renewWithinDays)
			logger.Info("%s expires in %d day(s)", domain, st.DaysLeft)
			results[i] = st
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (s *Scanner) fetch(ctx context.Context, domain string) (*x509.Certificate, error) {
	d := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: s.timeout},
		Config: &tls.Config{
			RootCAs:    s.roots,
			ServerName: domain,
			MinVersion: tls.VersionTLS12,
		},
	}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(domain, strconv.Itoa(s.port)))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	certs := conn.(*tls.Conn).ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return nil, fmt.Errorf("no certificate presented")
	}
	return certs[0], nil
}
