// Package hook implements the ACME client hook entry points.
//
// A Dispatcher routes lifecycle events of a dehydrated-style client to
// handlers. Only deploy_cert has a handler; every other event is logged
// and ignored so the hook can sit in a chain next to other hooks.
package hook

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/ksyq12/heroku-auto-ssl/internal/deploy"
	apperrors "github.com/ksyq12/heroku-auto-ssl/internal/errors"
	"github.com/ksyq12/heroku-auto-ssl/internal/logger"
)

// Lifecycle events sent by the ACME client
const (
	EventDeployChallenge  = "deploy_challenge"
	EventCleanChallenge   = "clean_challenge"
	EventDeployCert       = "deploy_cert"
	EventUnchangedCert    = "unchanged_cert"
	EventInvalidChallenge = "invalid_challenge"
	EventRequestFailure   = "request_failure"
	EventExitHook         = "exit_hook"
)

// Events lists every event the ACME client may send
var Events = []string{
	EventDeployChallenge,
	EventCleanChallenge,
	EventDeployCert,
	EventUnchangedCert,
	EventInvalidChallenge,
	EventRequestFailure,
	EventExitHook,
}

// Known reports whether event is one of the lifecycle events
func Known(event string) bool {
	return slices.Contains(Events, event)
}

// Handler processes the arguments of one event
type Handler func(ctx context.Context, args []string) error

type route struct {
	handler Handler
	audited bool
}

// Dispatcher routes events to handlers
type Dispatcher struct {
	routes   map[string]route
	identity *IdentityResolver
	runID    string
}

// NewDispatcher creates a dispatcher with no handlers
func NewDispatcher(identity *IdentityResolver) *Dispatcher {
	return &Dispatcher{
		routes:   make(map[string]route),
		identity: identity,
		runID:    uuid.NewString(),
	}
}

// Handle registers h for event. Audited events log who ran them.
func (d *Dispatcher) Handle(event string, h Handler, audited bool) {
	d.routes[event] = route{handler: h, audited: audited}
}

// RunID identifies this invocation in audit lines
func (d *Dispatcher) RunID() string {
	return d.runID
}

// Handles reports whether event has a handler
func (d *Dispatcher) Handles(event string) bool {
	_, ok := d.routes[event]
	return ok
}

// Dispatch calls the handler for event with args unmodified.
// Events without a handler are logged and succeed; lifecycle events are
// logged apart from names the ACME client never sends.
func (d *Dispatcher) Dispatch(ctx context.Context, event string, args []string) error {
	logger.Debug("Hook called. hook.name=%q, hook.args=%q", event, args)

	if !d.Handles(event) {
		if Known(event) {
			logger.Debug("doesn't currently handle: hook.name=%q", event)
		} else {
			logger.Debug("unknown event ignored: hook.name=%q", event)
		}
		return nil
	}

	r := d.routes[event]
	switch {
	case r.audited:
		logger.InfoFields(fmt.Sprintf("handled: hook.name=%q, by: %s", event, d.identity.Resolve()),
			map[string]interface{}{"run_id": d.runID})
	default:
		logger.Debug("handled: hook.name=%q", event)
	}

	if err := r.handler(ctx, args); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeHook, event+" failed", err)
	}
	return nil
}

// DeployCertArgs are the arguments of a deploy_cert event
type DeployCertArgs struct {
	Domain        string
	KeyFile       string
	CertFile      string
	FullChainFile string
	ChainFile     string
	Timestamp     string
}

// ParseDeployCertArgs reads [domain, key_file, cert_file, full_chain_file, chain_file, timestamp]
func ParseDeployCertArgs(args []string) (*DeployCertArgs, error) {
	if len(args) != 6 {
		return nil, apperrors.Newf(apperrors.ErrCodeHook, "deploy_cert expects 6 arguments, got %d", len(args))
	}
	return &DeployCertArgs{
		Domain:        args[0],
		KeyFile:       args[1],
		CertFile:      args[2],
		FullChainFile: args[3],
		ChainFile:     args[4],
		Timestamp:     args[5],
	}, nil
}

// DeployCert returns the deploy_cert handler pushing the certificate with d
func DeployCert(d *deploy.Deployer) Handler {
	return func(ctx context.Context, args []string) error {
		a, err := ParseDeployCertArgs(args)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err = d.Deploy(a.Domain, a.CertFile, a.KeyFile)
		return err
	}
}
