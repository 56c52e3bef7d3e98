package acme

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-acme/lego/v4/certcrypto"
	"github.com/go-acme/lego/v4/certificate"
	acmechallenge "github.com/go-acme/lego/v4/challenge"
	"github.com/go-acme/lego/v4/lego"
	legolog "github.com/go-acme/lego/v4/log"
	"github.com/go-acme/lego/v4/registration"

	apperrors "github.com/ksyq12/heroku-auto-ssl/internal/errors"
	"github.com/ksyq12/heroku-auto-ssl/internal/logger"
)

// Account is the ACME account stored between runs. Registrations are kept
// per CA directory so staging and production accounts do not mix.
type Account struct {
	Email         string                            `json:"email"`
	Key           []byte                            `json:"key"`
	Registrations map[string]*registration.Resource `json:"registrations,omitempty"`

	liveKey   *ecdsa.PrivateKey
	directory string
}

func (a *Account) GetEmail() string {
	return a.Email
}

func (a *Account) GetRegistration() *registration.Resource {
	return a.Registrations[a.directory]
}

func (a *Account) GetPrivateKey() crypto.PrivateKey {
	return a.liveKey
}

// LoadAccount reads the account at path. A missing file yields a new
// account with a fresh P-256 key for email.
func LoadAccount(path, email string) (*Account, error) {
	buf, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return newAccount(email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read account: %w", err)
	}

	acct := &Account{}
	if err := json.Unmarshal(buf, acct); err != nil {
		return nil, fmt.Errorf("failed to parse account: %w", err)
	}
	key, err := x509.ParseECPrivateKey(acct.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse account key: %w", err)
	}
	acct.liveKey = key
	if acct.Email != email {
		logger.Warn("account %s was registered with %s; using %s for new registrations", path, acct.Email, email)
		acct.Email = email
	}
	return acct, nil
}

func newAccount(email string) (*Account, error) {
	logger.Info("Creating a new private key for ACME use")
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	marshaled, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, err
	}
	return &Account{Email: email, Key: marshaled, liveKey: key}, nil
}

// Save writes the account to path with owner-only permissions
func (a *Account) Save(path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create account directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// LegoIssuer obtains certificates with the embedded lego client
type LegoIssuer struct {
	accountPath string
	certDir     string
	directory   string
	keyType     certcrypto.KeyType
	provider    acmechallenge.Provider
}

// NewLegoIssuer creates an embedded issuer. An empty directory selects
// Let's Encrypt production, or staging for dry runs.
func NewLegoIssuer(accountPath, certDir, directory string, keyType certcrypto.KeyType, provider acmechallenge.Provider) *LegoIssuer {
	return &LegoIssuer{
		accountPath: accountPath,
		certDir:     certDir,
		directory:   directory,
		keyType:     keyType,
		provider:    provider,
	}
}

// Name identifies the issuer
func (l *LegoIssuer) Name() string {
	return "lego"
}

// Directory returns the CA directory used for req
func (l *LegoIssuer) Directory(req Request) string {
	switch {
	case l.directory != "":
		return l.directory
	case req.DryRun:
		return lego.LEDirectoryStaging
	default:
		return lego.LEDirectoryProduction
	}
}

// Issue registers the account if needed and obtains one certificate
// covering every requested domain.
func (l *LegoIssuer) Issue(ctx context.Context, req Request) (*Certificate, error) {
	if len(req.Domains) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeIssue, "no domains requested")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	legolog.Logger = logger.StdLogger()

	acct, err := LoadAccount(l.accountPath, req.Email)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIssue, "failed to load ACME account", err)
	}
	acct.directory = l.Directory(req)

	cfg := lego.NewConfig(acct)
	cfg.CADirURL = acct.directory
	cfg.Certificate.KeyType = l.keyType

	client, err := lego.NewClient(cfg)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIssue, "failed to create ACME client", err)
	}
	if err := client.Challenge.SetHTTP01Provider(l.provider); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIssue, "failed to set challenge provider", err)
	}

	if acct.GetRegistration() == nil {
		logger.Info("Registering new user with ACME provider")
		reg, err := client.Registration.Register(registration.RegisterOptions{TermsOfServiceAgreed: true})
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeIssue, "failed to register ACME account", err)
		}
		if acct.Registrations == nil {
			acct.Registrations = make(map[string]*registration.Resource)
		}
		acct.Registrations[acct.directory] = reg
		if err := acct.Save(l.accountPath); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeIssue, "failed to save ACME account", err)
		}
	}

	res, err := client.Certificate.Obtain(certificate.ObtainRequest{
		Domains: req.Domains,
		Bundle:  true,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIssue, "failed to obtain certificate", err)
	}

	if req.DryRun {
		cert := &Certificate{Domain: req.Domains[0], Domains: req.Domains, DryRun: true}
		if leaf, err := certcrypto.ParsePEMCertificate(res.Certificate); err == nil {
			cert.NotAfter = leaf.NotAfter
		}
		return cert, nil
	}
	return WriteCertificate(l.certDir, req.Domains, res)
}

// WriteCertificate stores an issued certificate under dir/<first domain>
// using the live directory layout of the ACME CLI clients.
func WriteCertificate(dir string, domains []string, res *certificate.Resource) (*Certificate, error) {
	leaf, err := certcrypto.ParsePEMCertificate(res.Certificate)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIssue, "invalid certificate", err)
	}
	leafBlock, _ := pem.Decode(res.Certificate)

	cert := &Certificate{
		Domain:        domains[0],
		Domains:       domains,
		CertPath:      filepath.Join(dir, domains[0], CertFile),
		KeyPath:       filepath.Join(dir, domains[0], KeyFile),
		FullChainPath: filepath.Join(dir, domains[0], FullChainFile),
		ChainPath:     filepath.Join(dir, domains[0], ChainFile),
		NotAfter:      leaf.NotAfter,
	}

	if err := os.MkdirAll(filepath.Dir(cert.CertPath), 0700); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIssue, "failed to create certificate directory", err)
	}
	files := []struct {
		path string
		data []byte
		mode os.FileMode
	}{
		{cert.CertPath, pem.EncodeToMemory(leafBlock), 0644},
		{cert.KeyPath, res.PrivateKey, 0600},
		{cert.FullChainPath, res.Certificate, 0644},
		{cert.ChainPath, res.IssuerCertificate, 0644},
	}
	for _, f := range files {
		if err := os.WriteFile(f.path, f.data, f.mode); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeIssue, "failed to write "+filepath.Base(f.path), err)
		}
	}
	return cert, nil
}
