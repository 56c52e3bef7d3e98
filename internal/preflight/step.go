package preflight

import (
	"fmt"

	"github.com/hashicorp/go-version"

	"github.com/ksyq12/heroku-auto-ssl/internal/config"
	"github.com/ksyq12/heroku-auto-ssl/internal/heroku"
)

// Heroku is the part of the Heroku CLI the checks use
type Heroku interface {
	Bin() string
	WhoAmI() (string, error)
	Version() (*version.Version, string, error)
	HasDomain(app, domain string) (heroku.DomainCheck, error)
	HasSSLEndpoint(app string) (bool, error)
	EndpointAction(app string) (string, error)
}

// Tool is a CLI the run depends on
type Tool interface {
	Bin() string
	Installed() bool
}

// Step is one check of the preflight chain
type Step interface {
	Name() string
	Run(ctx *StepContext) error
}

// AlwaysStep is implemented by steps that run even when checks are skipped
type AlwaysStep interface {
	Always() bool
}

// StepContext carries the state shared by the steps of one run. When Sites
// is nil it is loaded from SitesFile by the sites step. Steps record derived
// site fields (HerokuHasDomain, EndpointAction) on Sites.
type StepContext struct {
	Heroku     Heroku
	Tools      []Tool
	SitesFile  string
	Sites      []*config.Site
	MinVersion string

	details  []string
	warnings []string
}

// Detail records an informational line for the current step
func (c *StepContext) Detail(format string, args ...interface{}) {
	c.details = append(c.details, fmt.Sprintf(format, args...))
}

// Warn records a warning for the current step without failing it
func (c *StepContext) Warn(format string, args ...interface{}) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

func (c *StepContext) reset() {
	c.details = nil
	c.warnings = nil
}

func isAlways(s Step) bool {
	a, ok := s.(AlwaysStep)
	return ok && a.Always()
}
