package preflight

import (
	"strings"

	apperrors "github.com/ksyq12/heroku-auto-ssl/internal/errors"
)

// DependenciesStep checks that every required CLI is on PATH
type DependenciesStep struct{}

func (s *DependenciesStep) Name() string { return "dependencies" }

func (s *DependenciesStep) Always() bool { return true }

func (s *DependenciesStep) Run(ctx *StepContext) error {
	var missing []string
	for _, tool := range ctx.Tools {
		if !tool.Installed() {
			missing = append(missing, tool.Bin())
			continue
		}
		ctx.Detail("%s: installed", tool.Bin())
	}
	if len(missing) > 0 {
		return &apperrors.Error{
			Code:    apperrors.ErrCodeDependency,
			Subject: strings.Join(missing, ", "),
			Message: "not installed",
		}
	}
	return nil
}
