package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksyq12/heroku-auto-ssl/internal/acme"
	"github.com/ksyq12/heroku-auto-ssl/internal/config"
	apperrors "github.com/ksyq12/heroku-auto-ssl/internal/errors"
	"github.com/ksyq12/heroku-auto-ssl/internal/executor"
	"github.com/ksyq12/heroku-auto-ssl/internal/heroku"
)

// fakeHeroku answers heroku subcommands per app; missing entries succeed
// with a healthy default.
type fakeHeroku struct {
	whoami   *executor.Result
	version  *executor.Result
	domains  map[string]*executor.Result
	addons   map[string]*executor.Result
	certInfo map[string]*executor.Result
}

func healthy() *fakeHeroku {
	return &fakeHeroku{
		domains:  map[string]*executor.Result{},
		addons:   map[string]*executor.Result{},
		certInfo: map[string]*executor.Result{},
	}
}

func appArg(args []string) string {
	for i, a := range args {
		if a == "--app" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func (f *fakeHeroku) executor() *executor.MockExecutor {
	return &executor.MockExecutor{
		RunFunc: func(name string, args ...string) (*executor.Result, error) {
			app := appArg(args)
			pick := func(m map[string]*executor.Result, def *executor.Result) *executor.Result {
				if r, ok := m[app]; ok {
					return r
				}
				return def
			}
			switch args[0] {
			case "whoami":
				if f.whoami != nil {
					return f.whoami, nil
				}
				return &executor.Result{Stdout: []byte("dev@example.com\n")}, nil
			case "--version":
				if f.version != nil {
					return f.version, nil
				}
				return &executor.Result{Stdout: []byte("heroku/7.60.2 linux-x64 node-v14.19.0\n")}, nil
			case "domains":
				return pick(f.domains, &executor.Result{Stdout: []byte(app + ".example.com\n")}), nil
			case "addons":
				return pick(f.addons, &executor.Result{Stdout: []byte("ssl (ssl-x)  endpoint  $20/month\n")}), nil
			case "certs:info":
				return pick(f.certInfo, &executor.Result{}), nil
			}
			return &executor.Result{ExitCode: 127}, nil
		},
	}
}

func testSites() []*config.Site {
	return []*config.Site{
		{HerokuApp: "app-a", CertURL: "app-a.example.com", ChallengeProto: config.ChallengeProto{PrivKey: "K1"}},
		{HerokuApp: "app-b", CertURL: "app-b.example.com", ChallengeProto: config.ChallengeProto{PrivKey: "K1"}},
	}
}

func newContext(mock *executor.MockExecutor, sites []*config.Site) *StepContext {
	return &StepContext{
		Heroku:     heroku.New(mock, "heroku"),
		Tools:      []Tool{heroku.New(mock, "heroku"), acme.NewCLIIssuer(mock, "letsencrypt", "", nil)},
		Sites:      sites,
		MinVersion: "7.0.0",
	}
}

func statuses(r *Report) map[string]string {
	m := make(map[string]string)
	for _, c := range r.Checks {
		m[c.Name] = c.Status
	}
	return m
}

func TestPipeline_AllPass(t *testing.T) {
	fake := healthy()
	fake.certInfo["app-b"] = &executor.Result{ExitCode: 1, Stderr: []byte("app-b has no SSL Endpoints.")}
	sites := testSites()

	var seen []string
	p := Default()
	p.OnCheck = func(c Check) { seen = append(seen, c.Name) }

	report, err := p.Run(context.Background(), newContext(fake.executor(), sites), false)
	require.NoError(t, err)
	assert.True(t, report.OK)
	assert.Equal(t, p.Steps(), seen)

	for name, status := range statuses(report) {
		assert.Equal(t, StatusSuccess, status, name)
	}

	assert.True(t, sites[0].HerokuHasDomain)
	assert.Equal(t, config.ActionUpdate, sites[0].EndpointAction)
	assert.Equal(t, config.ActionCreate, sites[1].EndpointAction)
	require.Len(t, report.Sites, 2)
	assert.Equal(t, config.ActionCreate, report.Sites[1].EndpointAction)
}

func TestPipeline_MissingDependencies(t *testing.T) {
	mock := healthy().executor()
	mock.LookPathFunc = func(file string) (string, error) {
		return "", errors.New("not found")
	}

	report, err := Default().Run(context.Background(), newContext(mock, testSites()), false)
	require.Error(t, err)
	assert.False(t, report.OK)
	assert.True(t, apperrors.Is(err, apperrors.ErrDependencyMissing))
	// Every missing binary is reported before aborting
	assert.Contains(t, err.Error(), "heroku, letsencrypt")
	assert.Empty(t, mock.Calls, "no heroku command may run without dependencies")
}

func TestPipeline_NotLoggedIn(t *testing.T) {
	fake := healthy()
	fake.whoami = &executor.Result{ExitCode: 100}
	mock := fake.executor()

	_, err := Default().Run(context.Background(), newContext(mock, testSites()), false)
	assert.ErrorIs(t, err, apperrors.ErrNotLoggedIn)
	assert.Empty(t, mock.CallsTo("heroku", "domains"))
}

func TestPipeline_VersionWarning(t *testing.T) {
	fake := healthy()
	fake.version = &executor.Result{Stdout: []byte("something else\n")}

	report, err := Default().Run(context.Background(), newContext(fake.executor(), testSites()), false)
	require.NoError(t, err)
	assert.Equal(t, StatusWarning, statuses(report)["heroku-version"])
}

func TestPipeline_VersionTooOld(t *testing.T) {
	fake := healthy()
	fake.version = &executor.Result{Stdout: []byte("heroku-cli/6.16.12 (darwin-x64)\n")}

	_, err := Default().Run(context.Background(), newContext(fake.executor(), testSites()), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "older than the required 7.0.0")
}

func TestPipeline_InaccessibleAppsCollected(t *testing.T) {
	fake := healthy()
	fake.domains["app-a"] = &executor.Result{ExitCode: 1}
	fake.domains["app-b"] = &executor.Result{ExitCode: 1}
	mock := fake.executor()

	_, err := Default().Run(context.Background(), newContext(mock, testSites()), false)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPreflight))
	assert.Contains(t, err.Error(), "app-a, app-b")
	// Both apps were queried before aborting
	assert.Len(t, mock.CallsTo("heroku", "domains"), 2)
	assert.Empty(t, mock.CallsTo("heroku", "addons"))
}

func TestPipeline_UnexpectedDomainsExitAbortsAtOnce(t *testing.T) {
	fake := healthy()
	fake.domains["app-a"] = &executor.Result{ExitCode: 2, Stderr: []byte("boom")}
	mock := fake.executor()

	_, err := Default().Run(context.Background(), newContext(mock, testSites()), false)
	require.Error(t, err)
	assert.Len(t, mock.CallsTo("heroku", "domains"), 1)
}

func TestPipeline_DomainNotRegistered(t *testing.T) {
	fake := healthy()
	fake.domains["app-b"] = &executor.Result{Stdout: []byte("other.example.com\n")}

	_, err := Default().Run(context.Background(), newContext(fake.executor(), testSites()), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Make sure to register the provided domains with Heroku")
	assert.Contains(t, err.Error(), "app-b (app-b.example.com)")
	assert.NotContains(t, err.Error(), "app-a")
}

func TestPipeline_MissingSSLAddon(t *testing.T) {
	fake := healthy()
	fake.addons["app-a"] = &executor.Result{Stdout: []byte("heroku-redis (redis-x)  hobby-dev  free\n")}
	mock := fake.executor()

	report, err := Default().Run(context.Background(), newContext(mock, testSites()), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app-a")
	assert.Equal(t, StatusError, statuses(report)["ssl-endpoint"])
	assert.Empty(t, mock.CallsTo("heroku", "certs:info"))
}

func TestPipeline_SkipChecks(t *testing.T) {
	fake := healthy()
	fake.whoami = &executor.Result{ExitCode: 100}
	mock := fake.executor()
	sites := testSites()

	report, err := Default().Run(context.Background(), newContext(mock, sites), true)
	require.NoError(t, err)

	st := statuses(report)
	assert.Equal(t, StatusSuccess, st["dependencies"])
	assert.Equal(t, StatusSuccess, st["sites"])
	assert.Equal(t, StatusSkipped, st["heroku-login"])
	assert.Equal(t, StatusSkipped, st["app-access"])
	assert.Equal(t, StatusSuccess, st["endpoint-action"])

	assert.Empty(t, mock.CallsTo("heroku", "whoami"))
	assert.Len(t, mock.CallsTo("heroku", "certs:info"), 2)
	assert.Equal(t, config.ActionUpdate, sites[0].EndpointAction)
}

func TestPipeline_EndpointActionFailure(t *testing.T) {
	fake := healthy()
	fake.certInfo["app-a"] = &executor.Result{ExitCode: 1, Stderr: []byte("Internal server error")}

	_, err := Default().Run(context.Background(), newContext(fake.executor(), testSites()), true)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "endpoint-action: "))
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := healthy().executor()
	report, err := Default().Run(ctx, newContext(mock, testSites()), false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Checks)
	assert.Empty(t, mock.Calls)
}

func TestPipeline_LoadsSiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
  {"heroku_app": "app-a", "cert_url": "app-a.example.com", "challenge_proto": {"priv_key": "K1"}}
]`), 0644))

	sctx := newContext(healthy().executor(), nil)
	sctx.SitesFile = path

	report, err := Default().Run(context.Background(), sctx, false)
	require.NoError(t, err)
	require.Len(t, sctx.Sites, 1)
	assert.Equal(t, "app-a", sctx.Sites[0].HerokuApp)
	require.Len(t, report.Sites, 1)
	assert.Equal(t, config.ActionUpdate, report.Sites[0].EndpointAction)

	for _, c := range report.Checks {
		if c.Name == "sites" {
			assert.Equal(t, []string{"app-a (app-a.example.com)"}, c.Details)
		}
	}
}

func TestPipeline_DependenciesCheckedBeforeSiteFile(t *testing.T) {
	mock := healthy().executor()
	mock.LookPathFunc = func(file string) (string, error) {
		if file == "heroku" {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + file, nil
	}
	sctx := newContext(mock, nil)
	sctx.SitesFile = filepath.Join(t.TempDir(), "missing.json")

	report, err := Default().Run(context.Background(), sctx, false)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrDependencyMissing))
	assert.NotContains(t, err.Error(), "missing.json")
	require.Len(t, report.Checks, 1)
	assert.Equal(t, "dependencies", report.Checks[0].Name)
}

func TestPipeline_UnreadableSiteFile(t *testing.T) {
	sctx := newContext(healthy().executor(), nil)
	sctx.SitesFile = filepath.Join(t.TempDir(), "missing.json")

	report, err := Default().Run(context.Background(), sctx, false)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConfig, apperrors.CodeOf(err))
	assert.Equal(t, StatusError, statuses(report)["sites"])
	assert.Equal(t, StatusSuccess, statuses(report)["dependencies"])
}
