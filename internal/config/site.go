package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/multierr"
	"golang.org/x/net/idna"
	"gopkg.in/yaml.v3"

	apperrors "github.com/ksyq12/heroku-auto-ssl/internal/errors"
)

// Endpoint actions derived from `heroku certs:info`
const (
	ActionCreate = "create"
	ActionUpdate = "update"
)

// ChallengeProto holds the Challenge Post Protocol settings of a site
type ChallengeProto struct {
	RootURL string `json:"root_url" yaml:"root_url" toml:"root_url"`
	PrivKey string `json:"priv_key" yaml:"priv_key" toml:"priv_key"`
}

// Site is one Heroku app serving one domain of the shared certificate
type Site struct {
	HerokuApp      string         `json:"heroku_app" yaml:"heroku_app" toml:"heroku_app"`
	CertURL        string         `json:"cert_url" yaml:"cert_url" toml:"cert_url"`
	ChallengeProto ChallengeProto `json:"challenge_proto" yaml:"challenge_proto" toml:"challenge_proto"`

	// Derived by preflight checks.
	HerokuHasDomain bool   `json:"-" yaml:"-" toml:"-"`
	EndpointAction  string `json:"-" yaml:"-" toml:"-"`
}

var rootURLPattern = regexp.MustCompile(`^/`)

// Validate checks the fields read from the site file
func (s Site) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.HerokuApp, validation.Required),
		validation.Field(&s.CertURL, validation.Required, is.Domain),
		validation.Field(&s.ChallengeProto),
	)
}

func (c ChallengeProto) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.RootURL, validation.Match(rootURLPattern).Error("must start with /")),
		validation.Field(&c.PrivKey, validation.Required),
	)
}

// String returns "app (domain)"
func (s *Site) String() string {
	return fmt.Sprintf("%s (%s)", s.HerokuApp, s.CertURL)
}

type tomlSites struct {
	Sites []*Site `toml:"sites"`
}

// LoadSites reads, normalizes and validates the site file at path. The
// format is chosen by extension: .json, .yaml/.yml or .toml.
func LoadSites(path string) ([]*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeConfig, "failed to read sites", err)
	}

	sites, err := ParseSites(filepath.Ext(path), data)
	if err != nil {
		return nil, apperrors.WrapSubject(apperrors.ErrCodeConfig, path, err)
	}
	return sites, nil
}

// ParseSites decodes site entries in the format named by ext
func ParseSites(ext string, data []byte) ([]*Site, error) {
	var sites []*Site
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &sites); err != nil {
			return nil, fmt.Errorf("failed to parse sites: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &sites); err != nil {
			return nil, fmt.Errorf("failed to parse sites: %w", err)
		}
	case ".toml":
		var doc tomlSites
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("failed to parse sites: %w", err)
		}
		sites = doc.Sites
	default:
		return nil, apperrors.Newf(apperrors.ErrCodeConfig, "unsupported site file format %q", ext)
	}

	if len(sites) == 0 {
		return nil, apperrors.Validation("no sites configured")
	}

	var errs error
	for i, s := range sites {
		if s == nil {
			errs = multierr.Append(errs, apperrors.Subject(apperrors.ErrCodeValidation, fmt.Sprintf("sites[%d]", i), "empty entry"))
			continue
		}
		if err := s.normalize(); err != nil {
			errs = multierr.Append(errs, apperrors.WrapSubject(apperrors.ErrCodeValidation, fmt.Sprintf("sites[%d]", i), err))
			continue
		}
		if err := s.Validate(); err != nil {
			errs = multierr.Append(errs, apperrors.WrapSubject(apperrors.ErrCodeValidation, fmt.Sprintf("sites[%d]", i), err))
		}
	}
	if errs != nil {
		return nil, errs
	}
	return sites, nil
}

// normalize trims fields and converts internationalized domains to ASCII
func (s *Site) normalize() error {
	s.HerokuApp = strings.TrimSpace(s.HerokuApp)
	s.ChallengeProto.RootURL = strings.TrimSpace(s.ChallengeProto.RootURL)
	s.ChallengeProto.PrivKey = strings.TrimSpace(s.ChallengeProto.PrivKey)
	s.HerokuHasDomain = false
	s.EndpointAction = ""

	domain := strings.TrimSpace(s.CertURL)
	if domain == "" {
		s.CertURL = ""
		return nil
	}
	ascii, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return fmt.Errorf("cert_url: %w", err)
	}
	s.CertURL = ascii
	return nil
}

// Domains returns the cert_url of each site in order
func Domains(sites []*Site) []string {
	domains := make([]string, len(sites))
	for i, s := range sites {
		domains[i] = s.CertURL
	}
	return domains
}

// KeyIDs returns the distinct priv_key values in site order
func KeyIDs(sites []*Site) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, s := range sites {
		k := s.ChallengeProto.PrivKey
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}
