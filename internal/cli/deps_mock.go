package cli

import (
	"context"
	"errors"

	acmechallenge "github.com/go-acme/lego/v4/challenge"

	"github.com/ksyq12/heroku-auto-ssl/internal/acme"
	"github.com/ksyq12/heroku-auto-ssl/internal/config"
	"github.com/ksyq12/heroku-auto-ssl/internal/executor"
)

// MockConfigLoader is a test double for ConfigLoader
type MockConfigLoader struct {
	Cfg     *config.Config
	LoadErr error
	Paths   []string
}

func (m *MockConfigLoader) Load(path string) (*config.Config, error) {
	m.Paths = append(m.Paths, path)
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Cfg == nil {
		m.Cfg = config.New()
	}
	return m.Cfg, nil
}

// MockPrompter is a test double for Prompter
type MockPrompter struct {
	Answers     []bool
	Passphrases map[string]string

	ConfirmCalls    []string
	PassphraseCalls []string
}

func (m *MockPrompter) Confirm(question string) (bool, error) {
	m.ConfirmCalls = append(m.ConfirmCalls, question)
	if len(m.Answers) == 0 {
		return false, errors.New("EOF")
	}
	answer := m.Answers[0]
	m.Answers = m.Answers[1:]
	return answer, nil
}

func (m *MockPrompter) Passphrase(keyID string) (string, error) {
	m.PassphraseCalls = append(m.PassphraseCalls, keyID)
	if p, ok := m.Passphrases[keyID]; ok {
		return p, nil
	}
	return "secret", nil
}

// MockIssuer is a test double for acme.Issuer
type MockIssuer struct {
	Cert     *acme.Certificate
	Err      error
	Requests []acme.Request
}

func (m *MockIssuer) Name() string { return "mock" }

func (m *MockIssuer) Issue(ctx context.Context, req acme.Request) (*acme.Certificate, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Cert != nil {
		return m.Cert, nil
	}
	return &acme.Certificate{
		Domain:        req.Domains[0],
		Domains:       req.Domains,
		CertPath:      "/live/" + req.Domains[0] + "/cert.pem",
		KeyPath:       "/live/" + req.Domains[0] + "/privkey.pem",
		FullChainPath: "/live/" + req.Domains[0] + "/fullchain.pem",
		ChainPath:     "/live/" + req.Domains[0] + "/chain.pem",
		DryRun:        req.DryRun,
	}, nil
}

// MockIssuerFactory is a test double for IssuerFactory
type MockIssuerFactory struct {
	Issuer   *MockIssuer
	Err      error
	Provider acmechallenge.Provider
}

func (m *MockIssuerFactory) Create(cfg *config.Config, exec executor.CommandExecutor, provider acmechallenge.Provider) (acme.Issuer, error) {
	m.Provider = provider
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Issuer == nil {
		m.Issuer = &MockIssuer{}
	}
	return m.Issuer, nil
}

// MockDependenciesBuilder helps create mock dependencies for tests
type MockDependenciesBuilder struct {
	deps *Dependencies
}

// NewMockDeps creates a new MockDependenciesBuilder with sensible defaults
func NewMockDeps() *MockDependenciesBuilder {
	return &MockDependenciesBuilder{
		deps: &Dependencies{
			ConfigLoader:  &MockConfigLoader{Cfg: config.New()},
			Executor:      &executor.MockExecutor{},
			Prompter:      &MockPrompter{Answers: []bool{true}},
			IssuerFactory: &MockIssuerFactory{},
			Getenv:        func(string) string { return "" },
		},
	}
}

// WithConfig sets the config for the mock
func (b *MockDependenciesBuilder) WithConfig(cfg *config.Config) *MockDependenciesBuilder {
	b.deps.ConfigLoader = &MockConfigLoader{Cfg: cfg}
	return b
}

// WithExecutor sets the command executor
func (b *MockDependenciesBuilder) WithExecutor(exec executor.CommandExecutor) *MockDependenciesBuilder {
	b.deps.Executor = exec
	return b
}

// WithPrompter sets the prompter
func (b *MockDependenciesBuilder) WithPrompter(p Prompter) *MockDependenciesBuilder {
	b.deps.Prompter = p
	return b
}

// WithIssuerFactory sets the issuer factory
func (b *MockDependenciesBuilder) WithIssuerFactory(f IssuerFactory) *MockDependenciesBuilder {
	b.deps.IssuerFactory = f
	return b
}

// WithEnv sets the environment seen by the commands
func (b *MockDependenciesBuilder) WithEnv(env map[string]string) *MockDependenciesBuilder {
	b.deps.Getenv = func(k string) string { return env[k] }
	return b
}

// Build returns the configured Dependencies
func (b *MockDependenciesBuilder) Build() *Dependencies {
	return b.deps
}

// useDeps installs d for the duration of the test
func useDeps(t interface {
	Helper()
	Cleanup(func())
}, d *Dependencies) {
	t.Helper()
	old := GetDeps()
	SetDeps(d)
	t.Cleanup(func() {
		SetDeps(old)
	})
}
