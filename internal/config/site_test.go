package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ksyq12/heroku-auto-ssl/internal/errors"
)

const sitesJSON = `[
  {
    "heroku_app": "app-one",
    "cert_url": "www.example.com",
    "challenge_proto": {"root_url": "/.challenge", "priv_key": "KEY1"}
  },
  {
    "heroku_app": "app-two",
    "cert_url": "API.Example.com",
    "challenge_proto": {"root_url": "", "priv_key": "KEY2"},
    "heroku_has_domain": true,
    "endpoint_action": "update"
  },
  {
    "heroku_app": "app-three",
    "cert_url": "bücher.example.com",
    "challenge_proto": {"priv_key": "KEY1"}
  }
]`

const sitesYAML = `
- heroku_app: app-one
  cert_url: www.example.com
  challenge_proto:
    root_url: /.challenge
    priv_key: KEY1
`

const sitesTOML = `
[[sites]]
heroku_app = "app-one"
cert_url = "www.example.com"

  [sites.challenge_proto]
  root_url = "/.challenge"
  priv_key = "KEY1"

[[sites]]
heroku_app = "app-two"
cert_url = "api.example.com"

  [sites.challenge_proto]
  priv_key = "KEY2"
`

func writeSites(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestLoadSites_JSON(t *testing.T) {
	sites, err := LoadSites(writeSites(t, "sites.json", sitesJSON))
	require.NoError(t, err)
	require.Len(t, sites, 3)

	assert.Equal(t, "app-one", sites[0].HerokuApp)
	assert.Equal(t, "/.challenge", sites[0].ChallengeProto.RootURL)
	assert.Equal(t, "api.example.com", sites[1].CertURL, "domain should be lower-cased")
	assert.Equal(t, "xn--bcher-kva.example.com", sites[2].CertURL, "domain should be punycode")

	// Derived fields are never read from the file
	assert.False(t, sites[1].HerokuHasDomain)
	assert.Empty(t, sites[1].EndpointAction)
}

func TestLoadSites_YAML(t *testing.T) {
	sites, err := LoadSites(writeSites(t, "sites.yml", sitesYAML))
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "KEY1", sites[0].ChallengeProto.PrivKey)
}

func TestLoadSites_TOML(t *testing.T) {
	sites, err := LoadSites(writeSites(t, "sites.toml", sitesTOML))
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, "app-two", sites[1].HerokuApp)
	assert.Equal(t, "KEY2", sites[1].ChallengeProto.PrivKey)
}

func TestLoadSites_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    string
		wantErr string
	}{
		{"unsupported extension", "sites.ini", "[]", "unsupported site file format"},
		{"malformed json", "sites.json", "[{", "failed to parse sites"},
		{"empty list", "sites.json", "[]", "no sites configured"},
		{"missing app", "sites.json", `[{"cert_url":"www.example.com","challenge_proto":{"priv_key":"K"}}]`, "heroku_app"},
		{"bad domain", "sites.json", `[{"heroku_app":"a","cert_url":"not a domain","challenge_proto":{"priv_key":"K"}}]`, "cert_url"},
		{"missing key", "sites.json", `[{"heroku_app":"a","cert_url":"www.example.com","challenge_proto":{}}]`, "priv_key"},
		{"relative root url", "sites.json", `[{"heroku_app":"a","cert_url":"www.example.com","challenge_proto":{"root_url":"x","priv_key":"K"}}]`, "must start with /"},
		{"null entry", "sites.json", `[null]`, "empty entry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSites(writeSites(t, tt.file, tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadSites_ReportsEveryInvalidEntry(t *testing.T) {
	data := `[
	  {"heroku_app":"","cert_url":"www.example.com","challenge_proto":{"priv_key":"K"}},
	  {"heroku_app":"ok","cert_url":"www.example.com","challenge_proto":{"priv_key":"K"}},
	  {"heroku_app":"b","cert_url":"www.example.com","challenge_proto":{}}
	]`
	_, err := LoadSites(writeSites(t, "sites.json", data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sites[0]")
	assert.Contains(t, err.Error(), "sites[2]")
	assert.NotContains(t, err.Error(), "sites[1]", "valid entry reported")
	assert.True(t, errors.Is(err, &apperrors.Error{Code: apperrors.ErrCodeValidation}))
}

func TestLoadSites_MissingFile(t *testing.T) {
	_, err := LoadSites(filepath.Join(t.TempDir(), "nope.json"))
	assert.Equal(t, apperrors.ErrCodeConfig, apperrors.CodeOf(err))
}

func TestDomainsAndKeyIDs(t *testing.T) {
	sites := []*Site{
		{HerokuApp: "a", CertURL: "a.example.com", ChallengeProto: ChallengeProto{PrivKey: "K2"}},
		{HerokuApp: "b", CertURL: "b.example.com", ChallengeProto: ChallengeProto{PrivKey: "K1"}},
		{HerokuApp: "c", CertURL: "c.example.com", ChallengeProto: ChallengeProto{PrivKey: "K2"}},
	}

	assert.Equal(t, []string{"a.example.com", "b.example.com", "c.example.com"}, Domains(sites))
	assert.Equal(t, []string{"K2", "K1"}, KeyIDs(sites))
	assert.Equal(t, "a (a.example.com)", sites[0].String())
}
