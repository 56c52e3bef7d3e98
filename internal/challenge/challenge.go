// Package challenge implements the client side of the Challenge Post
// Protocol: a signed "OK?" posted to <domain><root_url>/check must be
// answered with "OK", and signed url/content pairs posted to
// <domain><root_url>/post are served by the app at that url.
package challenge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/ksyq12/heroku-auto-ssl/internal/config"
)

// Protocol constants
const (
	CheckPath    = "/check"
	PostPath     = "/post"
	CheckMessage = "OK?"
	OKResponse   = "OK"
)

// maxResponse bounds how much of a response body is read
const maxResponse = 1 << 20

// Signer signs plaintext with a key
type Signer interface {
	Unlock(keyID string) error
	Sign(keyID, plaintext string) (string, error)
}

// Endpoint builds protocol URLs for a site
func Endpoint(scheme string, site *config.Site, path string) string {
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + site.CertURL + site.ChallengeProto.RootURL + path
}

// newClient returns a non-shared HTTP client with timeout
func newClient(timeout time.Duration) *http.Client {
	c := cleanhttp.DefaultClient()
	c.Timeout = timeout
	return c
}

// post sends body as text/plain and returns the response body whatever
// the status code.
func post(ctx context.Context, client *http.Client, url, body string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(data), nil
}
