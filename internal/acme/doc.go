// Package acme obtains the shared certificate for every configured domain.
//
// Two issuers are available:
//
//   - CLIIssuer runs an installed ACME client (letsencrypt or certbot) in
//     certonly mode and reads the result from its live directory.
//   - LegoIssuer embeds an ACME client and answers HTTP-01 challenges
//     through a challenge.Provider, such as the Challenge Post Protocol
//     publisher.
//
// # Usage
//
//	issuer := acme.NewCLIIssuer(exec, "letsencrypt", "/etc/letsencrypt/live", nil)
//	cert, err := issuer.Issue(ctx, acme.Request{
//	    Domains: []string{"www.example.com", "api.example.com"},
//	    Email:   "ops@example.com",
//	})
//	// cert.CertPath, cert.KeyPath, ...
//
// With Request.DryRun the issuer talks to a staging environment and no
// certificate files are produced.
package acme
