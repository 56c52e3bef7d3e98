package acme

import (
	"context"
	"time"

	"github.com/go-acme/lego/v4/certcrypto"
)

// Request describes a certificate order
type Request struct {
	Domains []string
	Email   string
	DryRun  bool
}

// Certificate locates an issued certificate on disk
type Certificate struct {
	Domain        string    `json:"domain"`
	Domains       []string  `json:"domains"`
	CertPath      string    `json:"cert_path,omitempty"`
	KeyPath       string    `json:"key_path,omitempty"`
	FullChainPath string    `json:"full_chain_path,omitempty"`
	ChainPath     string    `json:"chain_path,omitempty"`
	NotAfter      time.Time `json:"not_after,omitempty"`
	DryRun        bool      `json:"dry_run"`
}

// Issuer obtains certificates
type Issuer interface {
	Name() string
	Issue(ctx context.Context, req Request) (*Certificate, error)
}

// File names inside a certificate directory
const (
	CertFile      = "cert.pem"
	KeyFile       = "privkey.pem"
	FullChainFile = "fullchain.pem"
	ChainFile     = "chain.pem"
)

// ParseKeyType converts a configured key type name to a lego key type
func ParseKeyType(name string) (certcrypto.KeyType, bool) {
	switch name {
	case "", "ec256":
		return certcrypto.EC256, true
	case "ec384":
		return certcrypto.EC384, true
	case "rsa2048":
		return certcrypto.RSA2048, true
	case "rsa4096":
		return certcrypto.RSA4096, true
	}
	return "", false
}
