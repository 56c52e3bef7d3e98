//go:build integration

package integration

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ksyq12/heroku-auto-ssl/internal/challenge"
	"github.com/ksyq12/heroku-auto-ssl/internal/config"
	"github.com/ksyq12/heroku-auto-ssl/internal/executor"
	"github.com/ksyq12/heroku-auto-ssl/internal/hook"
	"github.com/ksyq12/heroku-auto-ssl/internal/input"
	"github.com/ksyq12/heroku-auto-ssl/internal/signing"
)

// helperScript accepts the passphrase "pw" and prints "signed:<plaintext>"
const helperScript = `#!/bin/sh
if [ "$2" != "pw" ]; then
  echo "bad passphrase" 1>&2
  exit 2
fi
printf 'signed:%s' "$1"
`

func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0755); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestChallengeCheckWithSigningHelper(t *testing.T) {
	helper := writeScript(t, "gen_signed_txt.sh", helperScript)

	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		if r.URL.Path != "/.challenge/check" {
			http.NotFound(w, r)
			return
		}
		if string(b) == "signed:OK?" {
			io.WriteString(w, "OK")
			return
		}
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, "FORBIDDEN")
	}))
	defer srv.Close()

	// Wrong passphrase first, then the right one.
	prompter := input.NewPrompter(strings.NewReader("nope\npw\n"), io.Discard)
	signer := signing.New(executor.NewSystemExecutor(), helper, prompter, signing.DefaultMaxAttempts)

	sites := []*config.Site{{
		HerokuApp: "app-a",
		CertURL:   strings.TrimPrefix(srv.URL, "http://"),
		ChallengeProto: config.ChallengeProto{
			RootURL: "/.challenge",
			PrivKey: "KEY1",
		},
	}}

	results, err := challenge.NewChecker(signer, "http", 5*time.Second).CheckAll(context.Background(), sites)
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	if !challenge.AllCompliant(results) {
		t.Fatalf("expected compliant results, got %+v", results)
	}
	if len(bodies) != 1 || bodies[0] != "signed:OK?" {
		t.Errorf("unexpected request bodies: %q", bodies)
	}
}

func TestHookChainRunsScripts(t *testing.T) {
	dir := t.TempDir()
	record := filepath.Join(dir, "calls.txt")

	first := writeScript(t, "first.sh", "#!/bin/sh\necho \"first $*\" >> "+record+"\nexit 3\n")
	second := writeScript(t, "second.sh", "#!/bin/sh\necho \"second $*\" >> "+record+"\n")

	chain, err := hook.NewChain(executor.NewSystemExecutor(), []string{first, second + " --flag"})
	if err != nil {
		t.Fatalf("NewChain failed: %v", err)
	}
	if err := chain.Run([]string{"deploy_cert", "example.com"}); err == nil {
		t.Error("expected the failing first hook to fail the chain")
	}

	data, err := os.ReadFile(record)
	if err != nil {
		t.Fatalf("Failed to read calls: %v", err)
	}
	want := "first deploy_cert example.com\nsecond --flag deploy_cert example.com\n"
	if string(data) != want {
		t.Errorf("calls = %q, want %q", string(data), want)
	}
}
