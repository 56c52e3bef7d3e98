package challenge

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	acmechallenge "github.com/go-acme/lego/v4/challenge"
	"github.com/go-acme/lego/v4/challenge/http01"

	"github.com/ksyq12/heroku-auto-ssl/internal/config"
	"github.com/ksyq12/heroku-auto-ssl/internal/logger"
)

var _ acmechallenge.Provider = (*Publisher)(nil)

// Publisher answers ACME HTTP-01 challenges by posting the key
// authorization to the app serving the domain.
type Publisher struct {
	client *http.Client
	signer Signer
	scheme string
	sites  map[string]*config.Site
}

// NewPublisher creates a Publisher for sites
func NewPublisher(signer Signer, scheme string, timeout time.Duration, sites []*config.Site) *Publisher {
	bySite := make(map[string]*config.Site, len(sites))
	for _, s := range sites {
		bySite[s.CertURL] = s
	}
	return &Publisher{
		client: newClient(timeout),
		signer: signer,
		scheme: scheme,
		sites:  bySite,
	}
}

// Payload returns the form body published for a challenge token
func Payload(token, keyAuth string) string {
	return url.Values{
		"url":     {http01.ChallengePath(token)},
		"content": {keyAuth},
	}.Encode()
}

// Present publishes keyAuth at the challenge path of domain
func (p *Publisher) Present(domain, token, keyAuth string) error {
	site, ok := p.sites[domain]
	if !ok {
		return fmt.Errorf("no site configured for %s", domain)
	}

	signed, err := p.signer.Sign(site.ChallengeProto.PrivKey, Payload(token, keyAuth))
	if err != nil {
		return err
	}

	endpoint := Endpoint(p.scheme, site, PostPath)
	logger.Info("publishing challenge for %s at %s", domain, endpoint)
	body, err := post(context.Background(), p.client, endpoint, signed)
	if err != nil {
		return fmt.Errorf("%s: %w", domain, err)
	}
	if body != OKResponse {
		return fmt.Errorf("%s: challenge not accepted: %q", domain, truncate(body, 64))
	}
	return nil
}

// CleanUp is a no-op; the app drops published content itself.
func (p *Publisher) CleanUp(domain, token, keyAuth string) error {
	logger.Debug("challenge for %s finished", domain)
	return nil
}
