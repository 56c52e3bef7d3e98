// Package config loads the heroku-auto-ssl tool configuration and the list
// of sites that share one certificate.
//
// # Tool Configuration
//
// The tool configuration is stored in YAML at
// ~/.config/heroku-auto-ssl/config.yaml. A missing file yields the defaults
// returned by New. A few keys can be overridden from the environment with
// the HEROKU_AUTO_SSL_ prefix (see ApplyEnv).
//
// Example config.yaml:
//
//	sites_file: sites.json
//	heroku:
//	  bin: heroku
//	  min_version: 7.0.0
//	acme:
//	  client: cli
//	  bin: letsencrypt
//	signing:
//	  helper: ./gen_signed_txt.sh
//	  max_attempts: 5
//	hook:
//	  strategy: targeted
//	  chain:
//	    - ./hooks/heroku-auto-ssl/hook.sh
//	scan:
//	  domains_file: domains.master.txt
//	  renew_within_days: 7
//
// # Sites
//
// The site file lists every Heroku app that serves a domain of the shared
// certificate. It is a JSON array, a YAML sequence or a TOML file with
// [[sites]] tables, chosen by file extension:
//
//	[
//	  {
//	    "heroku_app": "my-app",
//	    "cert_url": "www.example.com",
//	    "challenge_proto": {"root_url": "/.challenge", "priv_key": "3AF1C2D4"}
//	  }
//	]
//
// The derived fields of a Site (HerokuHasDomain, EndpointAction) are filled
// in by the preflight checks and are never read from the file.
//
// # Thread Safety
//
// Config and Site values are NOT thread-safe. Callers must implement their
// own synchronization if mutating them from multiple goroutines.
package config
