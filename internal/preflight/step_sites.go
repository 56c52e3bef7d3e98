package preflight

import (
	"github.com/ksyq12/heroku-auto-ssl/internal/config"
)

// SitesStep loads the site file unless sites were given up front, and lists
// every site as "app (domain)"
type SitesStep struct{}

func (s *SitesStep) Name() string { return "sites" }

func (s *SitesStep) Always() bool { return true }

func (s *SitesStep) Run(ctx *StepContext) error {
	if ctx.Sites == nil {
		sites, err := config.LoadSites(ctx.SitesFile)
		if err != nil {
			return err
		}
		ctx.Sites = sites
	}
	for _, site := range ctx.Sites {
		ctx.Detail("%s", site)
	}
	return nil
}
