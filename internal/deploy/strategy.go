// Package deploy pushes renewed certificates to Heroku apps.
//
// A Strategy decides which apps receive the certificate for a domain:
//
//	broadcast  every app listed in HEROKU_APP_IDS (JSON array)
//	targeted   the app mapped to the domain in HEROKU_AUTO_SSL_DOMAIN_MAPPING (JSON object)
//
// Strategies are looked up by name with Get, so the hook command only
// carries the configured strategy name.
package deploy

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/ksyq12/heroku-auto-ssl/internal/errors"
)

// Environment variables read by the built-in strategies
const (
	AppIDsEnv        = "HEROKU_APP_IDS"
	DomainMappingEnv = "HEROKU_AUTO_SSL_DOMAIN_MAPPING"
)

// Strategy resolves the apps that serve a domain
type Strategy interface {
	// Name returns the strategy name (broadcast, targeted)
	Name() string

	// Apps returns the Heroku apps that should receive the certificate
	Apps(domain string) ([]string, error)
}

// Factory builds a strategy reading its settings through getenv
type Factory func(getenv func(string) string) Strategy

var registry = make(map[string]Factory)

func init() {
	Register("broadcast", func(getenv func(string) string) Strategy { return &Broadcast{getenv: getenv} })
	Register("targeted", func(getenv func(string) string) Strategy { return &Targeted{getenv: getenv} })
}

// Register adds a strategy factory under name. It panics when name is
// already taken.
func Register(name string, f Factory) {
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("deploy: strategy %q registered twice", name))
	}
	registry[name] = f
}

// Get returns the strategy registered under name
func Get(name string, getenv func(string) string) (Strategy, bool) {
	f, ok := registry[name]
	if !ok {
		return nil, false
	}
	return f(getenv), true
}

// Available returns all registered strategy names, sorted
func Available() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Broadcast deploys to every app in HEROKU_APP_IDS
type Broadcast struct {
	getenv func(string) string
}

func (b *Broadcast) Name() string { return "broadcast" }

// Apps ignores the domain and returns every configured app
func (b *Broadcast) Apps(string) ([]string, error) {
	raw := strings.TrimSpace(b.getenv(AppIDsEnv))
	if raw == "" {
		return nil, apperrors.Newf(apperrors.ErrCodeHook, "%s is not set", AppIDsEnv)
	}
	var apps []string
	if err := json.Unmarshal([]byte(raw), &apps); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeHook, fmt.Sprintf("%s is not a JSON array of app names", AppIDsEnv), err)
	}
	return apps, nil
}

// Targeted deploys to the single app mapped to the domain
type Targeted struct {
	getenv func(string) string
}

func (t *Targeted) Name() string { return "targeted" }

// Apps returns the app mapped to domain
func (t *Targeted) Apps(domain string) ([]string, error) {
	raw := strings.TrimSpace(t.getenv(DomainMappingEnv))
	if raw == "" {
		return nil, apperrors.Newf(apperrors.ErrCodeHook, "%s is not set", DomainMappingEnv)
	}
	var mapping map[string]string
	if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeHook, fmt.Sprintf("%s is not a JSON object of domain to app", DomainMappingEnv), err)
	}
	app, ok := mapping[domain]
	if !ok || app == "" {
		return nil, apperrors.Subject(apperrors.ErrCodeHook, domain, "no app mapped in "+DomainMappingEnv)
	}
	return []string{app}, nil
}
