package cli

import (
	"fmt"
	"os"

	acmechallenge "github.com/go-acme/lego/v4/challenge"

	"github.com/ksyq12/heroku-auto-ssl/internal/acme"
	"github.com/ksyq12/heroku-auto-ssl/internal/config"
	"github.com/ksyq12/heroku-auto-ssl/internal/executor"
	"github.com/ksyq12/heroku-auto-ssl/internal/input"
)

// Dependencies aggregates all CLI external dependencies for testability
type Dependencies struct {
	ConfigLoader  ConfigLoader
	Executor      executor.CommandExecutor
	Prompter      Prompter
	IssuerFactory IssuerFactory
	Getenv        func(string) string
}

// ConfigLoader handles configuration loading
type ConfigLoader interface {
	Load(path string) (*config.Config, error)
}

// Prompter asks the user for confirmations and key passphrases
type Prompter interface {
	Confirm(question string) (bool, error)
	Passphrase(keyID string) (string, error)
}

// IssuerFactory creates the configured ACME issuer
type IssuerFactory interface {
	Create(cfg *config.Config, exec executor.CommandExecutor, provider acmechallenge.Provider) (acme.Issuer, error)
}

// Package-level dependencies (can be overridden for testing)
var deps = &Dependencies{
	ConfigLoader:  &realConfigLoader{},
	Executor:      executor.NewSystemExecutor(),
	Prompter:      &realPrompter{},
	IssuerFactory: &realIssuerFactory{},
	Getenv:        os.Getenv,
}

// SetDeps replaces the package dependencies (for testing)
func SetDeps(d *Dependencies) {
	deps = d
}

// GetDeps returns the current dependencies (for testing)
func GetDeps() *Dependencies {
	return deps
}

// Real implementations that delegate to existing functions

type realConfigLoader struct{}

func (r *realConfigLoader) Load(path string) (*config.Config, error) {
	return config.Load(path)
}

type realPrompter struct {
	p *input.Prompter
}

func (r *realPrompter) prompter() *input.Prompter {
	if r.p == nil {
		r.p = input.NewTerminalPrompter()
	}
	return r.p
}

func (r *realPrompter) Confirm(question string) (bool, error) {
	return r.prompter().Confirm(question)
}

func (r *realPrompter) Passphrase(keyID string) (string, error) {
	return r.prompter().Passphrase(keyID)
}

type realIssuerFactory struct{}

func (r *realIssuerFactory) Create(cfg *config.Config, exec executor.CommandExecutor, provider acmechallenge.Provider) (acme.Issuer, error) {
	switch cfg.ACME.Client {
	case config.ClientCLI:
		liveDir, err := config.ExpandPath(cfg.ACME.LiveDir)
		if err != nil {
			return nil, err
		}
		return acme.NewCLIIssuer(exec, cfg.ACME.Bin, liveDir, cfg.ACME.ExtraArgs), nil
	case config.ClientLego:
		keyType, ok := acme.ParseKeyType(cfg.ACME.KeyType)
		if !ok {
			return nil, fmt.Errorf("unsupported key type %q", cfg.ACME.KeyType)
		}
		accountFile, err := config.ExpandPath(cfg.ACME.AccountFile)
		if err != nil {
			return nil, err
		}
		certDir, err := config.ExpandPath(cfg.ACME.CertDir)
		if err != nil {
			return nil, err
		}
		return acme.NewLegoIssuer(accountFile, certDir, cfg.ACME.Directory, keyType, provider), nil
	}
	return nil, fmt.Errorf("unknown ACME client %q", cfg.ACME.Client)
}
