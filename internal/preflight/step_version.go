package preflight

import (
	"github.com/hashicorp/go-version"

	apperrors "github.com/ksyq12/heroku-auto-ssl/internal/errors"
)

// VersionStep checks the Heroku CLI version against MinVersion. An
// unrecognized version is a warning.
type VersionStep struct{}

func (s *VersionStep) Name() string { return "heroku-version" }

func (s *VersionStep) Run(ctx *StepContext) error {
	v, raw, err := ctx.Heroku.Version()
	if err != nil {
		ctx.Warn("could not determine heroku version: %v", err)
		return nil
	}
	ctx.Detail("%s", raw)

	if ctx.MinVersion == "" {
		return nil
	}
	min, err := version.NewVersion(ctx.MinVersion)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfig, "invalid heroku.min_version", err)
	}
	if v.LessThan(min) {
		return apperrors.Newf(apperrors.ErrCodePreflight, "heroku %s is older than the required %s", v, min)
	}
	return nil
}
