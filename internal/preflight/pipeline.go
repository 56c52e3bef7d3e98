// Package preflight runs the ordered checks that must pass before a
// certificate is requested: required tools, Heroku login, app access, domain
// registration, SSL endpoint add-ons and the endpoint action of each app.
// The site file is loaded by the chain itself, right after the tool check.
package preflight

import (
	"context"
	"fmt"
	"strings"

	"github.com/ksyq12/heroku-auto-ssl/internal/logger"
)

// Check statuses
const (
	StatusSuccess = "success"
	StatusWarning = "warning"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Check is the outcome of one step
type Check struct {
	Name    string   `json:"name"`
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// SiteState is a site with its derived fields
type SiteState struct {
	App            string `json:"heroku_app"`
	Domain         string `json:"cert_url"`
	HasDomain      bool   `json:"heroku_has_domain"`
	EndpointAction string `json:"endpoint_action,omitempty"`
}

// Report is the outcome of a pipeline run
type Report struct {
	Checks []Check     `json:"checks"`
	Sites  []SiteState `json:"sites"`
	OK     bool        `json:"ok"`
}

// Pipeline runs steps in order and stops at the first failure
type Pipeline struct {
	steps []Step

	// OnCheck, when set, is called as each step finishes.
	OnCheck func(Check)
}

// NewPipeline creates an empty pipeline
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// AddStep appends s to the pipeline
func (p *Pipeline) AddStep(s Step) {
	p.steps = append(p.steps, s)
}

// Steps returns the names of the configured steps in order
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return names
}

// Run executes the pipeline. With skipChecks set, only steps that must
// always run are executed; the rest are reported as skipped.
func (p *Pipeline) Run(ctx context.Context, sctx *StepContext, skipChecks bool) (*Report, error) {
	report := &Report{}

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			return p.finish(report, sctx, ctx.Err())
		default:
		}

		if skipChecks && !isAlways(step) {
			logger.Debug("preflight step %s skipped", step.Name())
			p.add(report, Check{Name: step.Name(), Status: StatusSkipped, Message: "skipped"})
			continue
		}

		logger.Debug("preflight step: %s", step.Name())
		sctx.reset()
		err := step.Run(sctx)

		check := Check{
			Name:    step.Name(),
			Details: append(append([]string(nil), sctx.details...), sctx.warnings...),
		}
		switch {
		case err != nil:
			check.Status = StatusError
			check.Message = err.Error()
		case len(sctx.warnings) > 0:
			check.Status = StatusWarning
			check.Message = strings.Join(sctx.warnings, "; ")
			check.Details = append([]string(nil), sctx.details...)
		default:
			check.Status = StatusSuccess
			check.Message = "ok"
		}
		p.add(report, check)

		if err != nil {
			logger.Debug("preflight step %s failed: %v", step.Name(), err)
			return p.finish(report, sctx, fmt.Errorf("%s: %w", step.Name(), err))
		}
	}

	return p.finish(report, sctx, nil)
}

func (p *Pipeline) add(report *Report, c Check) {
	report.Checks = append(report.Checks, c)
	if p.OnCheck != nil {
		p.OnCheck(c)
	}
}

func (p *Pipeline) finish(report *Report, sctx *StepContext, err error) (*Report, error) {
	for _, s := range sctx.Sites {
		report.Sites = append(report.Sites, SiteState{
			App:            s.HerokuApp,
			Domain:         s.CertURL,
			HasDomain:      s.HerokuHasDomain,
			EndpointAction: s.EndpointAction,
		})
	}
	report.OK = err == nil
	return report, err
}

// Default returns the full preflight chain in order
func Default() *Pipeline {
	p := NewPipeline()
	p.AddStep(&DependenciesStep{})
	p.AddStep(&SitesStep{})
	p.AddStep(&AuthStep{})
	p.AddStep(&VersionStep{})
	p.AddStep(&AppAccessStep{})
	p.AddStep(&DomainRegistrationStep{})
	p.AddStep(&SSLEndpointStep{})
	p.AddStep(&EndpointActionStep{})
	return p
}
