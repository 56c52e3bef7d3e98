package challenge

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ksyq12/heroku-auto-ssl/internal/config"
	"github.com/ksyq12/heroku-auto-ssl/internal/logger"
)

// Result is the outcome of the check of one site
type Result struct {
	App       string `json:"heroku_app"`
	Domain    string `json:"cert_url"`
	URL       string `json:"url"`
	Compliant bool   `json:"compliant"`
	Response  string `json:"response,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Checker verifies that sites implement the protocol
type Checker struct {
	client *http.Client
	signer Signer
	scheme string
}

// NewChecker creates a Checker signing with signer
func NewChecker(signer Signer, scheme string, timeout time.Duration) *Checker {
	return &Checker{
		client: newClient(timeout),
		signer: signer,
		scheme: scheme,
	}
}

// CheckAll checks every site. Passphrases of all distinct keys are asked
// first, in site order, then CheckMessage is signed once per key. The
// returned error is only set when signing fails; protocol failures are
// reported per site.
func (c *Checker) CheckAll(ctx context.Context, sites []*config.Site) ([]Result, error) {
	keys := config.KeyIDs(sites)
	for _, k := range keys {
		if err := c.signer.Unlock(k); err != nil {
			return nil, err
		}
	}

	signed := make(map[string]string, len(keys))
	for _, k := range keys {
		sig, err := c.signer.Sign(k, CheckMessage)
		if err != nil {
			return nil, err
		}
		signed[k] = sig
	}

	results := make([]Result, 0, len(sites))
	for _, site := range sites {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, c.Check(ctx, site, signed[site.ChallengeProto.PrivKey]))
	}
	return results, nil
}

// Check posts signed to the site's check endpoint. A site is compliant
// when the response body is exactly OKResponse, whatever the status code.
func (c *Checker) Check(ctx context.Context, site *config.Site, signed string) Result {
	r := Result{
		App:    site.HerokuApp,
		Domain: site.CertURL,
		URL:    Endpoint(c.scheme, site, CheckPath),
	}

	body, err := post(ctx, c.client, r.URL, signed)
	if err != nil {
		logger.Debug("challenge check %s failed: %v", r.URL, err)
		r.Error = err.Error()
		return r
	}
	r.Response = body
	r.Compliant = body == OKResponse
	if !r.Compliant {
		r.Error = fmt.Sprintf("unexpected response %q", truncate(body, 64))
	}
	return r
}

// AllCompliant reports whether every result is compliant
func AllCompliant(results []Result) bool {
	for _, r := range results {
		if !r.Compliant {
			return false
		}
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
