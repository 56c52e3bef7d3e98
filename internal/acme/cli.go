package acme

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	apperrors "github.com/ksyq12/heroku-auto-ssl/internal/errors"
	"github.com/ksyq12/heroku-auto-ssl/internal/executor"
	"github.com/ksyq12/heroku-auto-ssl/internal/logger"
)

// CLIIssuer obtains certificates with an installed ACME client
type CLIIssuer struct {
	exec      executor.CommandExecutor
	bin       string
	liveDir   string
	extraArgs []string
}

// NewCLIIssuer creates an issuer running bin
func NewCLIIssuer(exec executor.CommandExecutor, bin, liveDir string, extraArgs []string) *CLIIssuer {
	return &CLIIssuer{exec: exec, bin: bin, liveDir: liveDir, extraArgs: extraArgs}
}

// Name returns the client executable
func (c *CLIIssuer) Name() string {
	return c.bin
}

// Bin returns the client executable name
func (c *CLIIssuer) Bin() string {
	return c.bin
}

// Installed checks if the ACME client is on PATH
func (c *CLIIssuer) Installed() bool {
	_, err := c.exec.LookPath(c.bin)
	return err == nil
}

// Args returns the client arguments for req
func (c *CLIIssuer) Args(req Request) []string {
	args := []string{
		"certonly",
		"--non-interactive",
		"--agree-tos",
		"--email", req.Email,
	}
	if req.DryRun {
		args = append(args, "--dry-run")
	}
	args = append(args, c.extraArgs...)
	for _, d := range req.Domains {
		args = append(args, "-d", d)
	}
	return args
}

// GetCertPaths returns the certificate paths for a domain
func (c *CLIIssuer) GetCertPaths(domain string) *Certificate {
	dir := filepath.Join(c.liveDir, domain)
	return &Certificate{
		Domain:        domain,
		CertPath:      filepath.Join(dir, CertFile),
		KeyPath:       filepath.Join(dir, KeyFile),
		FullChainPath: filepath.Join(dir, FullChainFile),
		ChainPath:     filepath.Join(dir, ChainFile),
	}
}

// Issue runs the client in certonly mode for every requested domain
func (c *CLIIssuer) Issue(ctx context.Context, req Request) (*Certificate, error) {
	if len(req.Domains) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeIssue, "no domains requested")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	args := c.Args(req)
	logger.Debug("running %s %s", c.bin, strings.Join(args, " "))
	res, err := c.exec.Run(c.bin, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIssue, c.bin+" failed", err)
	}
	if !res.OK() {
		out := strings.TrimSpace(res.StderrString())
		if out == "" {
			out = strings.TrimSpace(res.StdoutString())
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeIssue, c.bin+" failed",
			fmt.Errorf("exit %d: %s", res.ExitCode, out))
	}

	cert := c.GetCertPaths(req.Domains[0])
	cert.Domains = req.Domains
	cert.DryRun = req.DryRun
	return cert, nil
}
