package preflight

// AuthStep checks that the Heroku CLI is logged in
type AuthStep struct{}

func (s *AuthStep) Name() string { return "heroku-login" }

func (s *AuthStep) Run(ctx *StepContext) error {
	user, err := ctx.Heroku.WhoAmI()
	if err != nil {
		return err
	}
	ctx.Detail("Logged in as %s", user)
	return nil
}
