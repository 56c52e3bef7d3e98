package preflight

import (
	"strings"

	apperrors "github.com/ksyq12/heroku-auto-ssl/internal/errors"
)

// AppAccessStep lists each app's domains, recording whether the site's
// domain is registered. Inaccessible apps are collected and fail the step
// after every site is checked.
type AppAccessStep struct{}

func (s *AppAccessStep) Name() string { return "app-access" }

func (s *AppAccessStep) Run(ctx *StepContext) error {
	var denied []string
	for _, site := range ctx.Sites {
		res, err := ctx.Heroku.HasDomain(site.HerokuApp, site.CertURL)
		if err != nil {
			return err
		}
		site.HerokuHasDomain = res.HasDomain
		if !res.Accessible {
			denied = append(denied, site.HerokuApp)
			continue
		}
		ctx.Detail("%s: accessible", site.HerokuApp)
	}
	if len(denied) > 0 {
		return apperrors.Subject(apperrors.ErrCodePreflight, strings.Join(denied, ", "),
			"can't be accessed with the current Heroku account")
	}
	return nil
}

// DomainRegistrationStep checks that every site's domain is registered
// with its app.
type DomainRegistrationStep struct{}

func (s *DomainRegistrationStep) Name() string { return "domain-registration" }

func (s *DomainRegistrationStep) Run(ctx *StepContext) error {
	var missing []string
	for _, site := range ctx.Sites {
		if !site.HerokuHasDomain {
			missing = append(missing, site.String())
			continue
		}
		ctx.Detail("%s", site)
	}
	if len(missing) > 0 {
		return apperrors.Subject(apperrors.ErrCodePreflight, strings.Join(missing, ", "),
			"domain not registered. Make sure to register the provided domains with Heroku")
	}
	return nil
}

// SSLEndpointStep checks that every app has the SSL endpoint add-on
type SSLEndpointStep struct{}

func (s *SSLEndpointStep) Name() string { return "ssl-endpoint" }

func (s *SSLEndpointStep) Run(ctx *StepContext) error {
	var missing []string
	for _, site := range ctx.Sites {
		ok, err := ctx.Heroku.HasSSLEndpoint(site.HerokuApp)
		if err != nil {
			return err
		}
		if !ok {
			missing = append(missing, site.HerokuApp)
			continue
		}
		ctx.Detail("%s: ssl endpoint", site.HerokuApp)
	}
	if len(missing) > 0 {
		return apperrors.Subject(apperrors.ErrCodePreflight, strings.Join(missing, ", "),
			"no SSL endpoint add-on. Add it with: heroku addons:create ssl:endpoint")
	}
	return nil
}

// EndpointActionStep records whether each app's certificate is created or
// updated. It always runs because deployment depends on it.
type EndpointActionStep struct{}

func (s *EndpointActionStep) Name() string { return "endpoint-action" }

func (s *EndpointActionStep) Always() bool { return true }

func (s *EndpointActionStep) Run(ctx *StepContext) error {
	for _, site := range ctx.Sites {
		action, err := ctx.Heroku.EndpointAction(site.HerokuApp)
		if err != nil {
			return err
		}
		site.EndpointAction = action
		ctx.Detail("%s: %s", site.HerokuApp, action)
	}
	return nil
}
