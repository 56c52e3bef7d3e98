// Package heroku wraps the Heroku CLI commands used to check apps and
// install certificates on their SSL endpoints.
package heroku

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/ksyq12/heroku-auto-ssl/internal/config"
	apperrors "github.com/ksyq12/heroku-auto-ssl/internal/errors"
	"github.com/ksyq12/heroku-auto-ssl/internal/executor"
)

// Exit codes and output markers of the Heroku CLI
const (
	ExitNotLoggedIn   = 100
	ExitNoAccess      = 1
	NoEndpointMessage = "has no SSL Endpoints."
)

var (
	sslAddonPattern = regexp.MustCompile(`ssl \(.*\)[ ]+endpoint`)
	versionPattern  = regexp.MustCompile(`heroku(?:-cli)?/(\d+(?:\.\d+)*)`)
)

// CLI runs Heroku CLI commands
type CLI struct {
	exec executor.CommandExecutor
	bin  string
}

// New creates a CLI that runs bin (usually "heroku") through exec
func New(exec executor.CommandExecutor, bin string) *CLI {
	if bin == "" {
		bin = "heroku"
	}
	return &CLI{exec: exec, bin: bin}
}

// Bin returns the Heroku CLI executable name
func (c *CLI) Bin() string {
	return c.bin
}

// Installed reports whether the Heroku CLI is on PATH
func (c *CLI) Installed() bool {
	_, err := c.exec.LookPath(c.bin)
	return err == nil
}

func (c *CLI) run(args ...string) (*executor.Result, error) {
	res, err := c.exec.Run(c.bin, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run %s %s: %w", c.bin, args[0], err)
	}
	return res, nil
}

// output returns the most useful text of a failed command
func output(res *executor.Result) string {
	if s := strings.TrimSpace(res.StderrString()); s != "" {
		return s
	}
	return strings.TrimSpace(res.StdoutString())
}

// Version returns the installed CLI version and the raw version line
func (c *CLI) Version() (*version.Version, string, error) {
	res, err := c.run("--version")
	if err != nil {
		return nil, "", err
	}
	raw := strings.TrimSpace(res.StdoutString())
	if !res.OK() {
		return nil, raw, fmt.Errorf("%s --version exited %d: %s", c.bin, res.ExitCode, output(res))
	}
	m := versionPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, raw, fmt.Errorf("unrecognized version output %q", raw)
	}
	v, err := version.NewVersion(m[1])
	if err != nil {
		return nil, raw, err
	}
	return v, raw, nil
}

// WhoAmI returns the logged in account
func (c *CLI) WhoAmI() (string, error) {
	res, err := c.run("whoami")
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeAuth, "heroku whoami failed", err)
	}
	switch res.ExitCode {
	case 0:
		return res.Trimmed(), nil
	case ExitNotLoggedIn:
		return "", apperrors.ErrNotLoggedIn
	default:
		return "", apperrors.Wrap(apperrors.ErrCodeAuth, "unknown error",
			fmt.Errorf("heroku whoami exited %d: %s", res.ExitCode, output(res)))
	}
}

// DomainCheck is the result of `heroku domains`
type DomainCheck struct {
	Accessible bool
	HasDomain  bool
}

// HasDomain reports whether domain is registered with app. An app that
// cannot be accessed is reported through Accessible, not as an error.
func (c *CLI) HasDomain(app, domain string) (DomainCheck, error) {
	res, err := c.run("domains", "--app", app)
	if err != nil {
		return DomainCheck{}, apperrors.WrapSubject(apperrors.ErrCodePreflight, app, err)
	}
	switch res.ExitCode {
	case 0, ExitNoAccess:
		return DomainCheck{
			Accessible: res.ExitCode == 0,
			HasDomain:  strings.Contains(res.StdoutString(), domain),
		}, nil
	default:
		return DomainCheck{}, apperrors.WrapSubject(apperrors.ErrCodePreflight, app,
			fmt.Errorf("heroku domains exited %d: %s", res.ExitCode, output(res)))
	}
}

// HasSSLEndpoint reports whether app has the SSL endpoint addon
func (c *CLI) HasSSLEndpoint(app string) (bool, error) {
	res, err := c.run("addons", "--app", app)
	if err != nil {
		return false, apperrors.WrapSubject(apperrors.ErrCodePreflight, app, err)
	}
	if !res.OK() {
		return false, apperrors.WrapSubject(apperrors.ErrCodePreflight, app,
			fmt.Errorf("heroku addons exited %d: %s", res.ExitCode, output(res)))
	}
	return sslAddonPattern.Match(res.Stdout), nil
}

// EndpointAction returns config.ActionUpdate when app already serves a
// certificate and config.ActionCreate when it has no SSL endpoint yet.
func (c *CLI) EndpointAction(app string) (string, error) {
	res, err := c.run("certs:info", "--app", app)
	if err != nil {
		return "", apperrors.WrapSubject(apperrors.ErrCodePreflight, app, err)
	}
	if res.OK() {
		return config.ActionUpdate, nil
	}
	if strings.Contains(res.StderrString(), NoEndpointMessage) {
		return config.ActionCreate, nil
	}
	return "", apperrors.WrapSubject(apperrors.ErrCodePreflight, app,
		fmt.Errorf("heroku certs:info exited %d: %s", res.ExitCode, output(res)))
}

// AddCert installs a certificate on an app without an SSL endpoint
func (c *CLI) AddCert(app, certFile, keyFile string) error {
	return c.certCommand(app, "certs:add", certFile, keyFile, "--app", app)
}

// UpdateCert replaces the certificate of an app's SSL endpoint
func (c *CLI) UpdateCert(app, certFile, keyFile string) error {
	return c.certCommand(app, "certs:update", certFile, keyFile, "--app", app, "--confirm", app)
}

// DeployCert adds or updates the certificate according to action
func (c *CLI) DeployCert(app, action, certFile, keyFile string) error {
	switch action {
	case config.ActionCreate:
		return c.AddCert(app, certFile, keyFile)
	case config.ActionUpdate:
		return c.UpdateCert(app, certFile, keyFile)
	default:
		return apperrors.Subject(apperrors.ErrCodeDeploy, app, fmt.Sprintf("unknown endpoint action %q", action))
	}
}

func (c *CLI) certCommand(app string, args ...string) error {
	res, err := c.run(args...)
	if err != nil {
		return apperrors.WrapSubject(apperrors.ErrCodeDeploy, app, err)
	}
	if !res.OK() {
		return apperrors.WrapSubject(apperrors.ErrCodeDeploy, app,
			fmt.Errorf("heroku %s exited %d: %s", args[0], res.ExitCode, output(res)))
	}
	return nil
}
