// Package signing produces signed text through an external helper script
// and caches signatures per key for the lifetime of a run.
//
// The helper is invoked as
//
//	<helper> <plaintext> <passphrase> <key id>
//
// and must exit 0 with the signed text on stdout, 2 when the passphrase is
// wrong, or any other status with a message on stderr.
package signing

import (
	"fmt"
	"strings"

	apperrors "github.com/ksyq12/heroku-auto-ssl/internal/errors"
	"github.com/ksyq12/heroku-auto-ssl/internal/executor"
	"github.com/ksyq12/heroku-auto-ssl/internal/logger"
)

// ExitWrongPassphrase is the helper's exit status for a rejected passphrase
const ExitWrongPassphrase = 2

// DefaultMaxAttempts bounds helper invocations per signature
const DefaultMaxAttempts = 5

// Prompter asks the user for a key's passphrase
type Prompter interface {
	Passphrase(keyID string) (string, error)
}

type keyState struct {
	passphrase string
	unlocked   bool
	signed     map[string]string
}

// Signer signs text with keys held by the helper. Passphrases are kept in
// memory only for the lifetime of the Signer.
type Signer struct {
	exec        executor.CommandExecutor
	helper      string
	prompt      Prompter
	maxAttempts int
	keys        map[string]*keyState
}

// New creates a Signer that runs helper through exec
func New(exec executor.CommandExecutor, helper string, prompt Prompter, maxAttempts int) *Signer {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Signer{
		exec:        exec,
		helper:      helper,
		prompt:      prompt,
		maxAttempts: maxAttempts,
		keys:        make(map[string]*keyState),
	}
}

func (s *Signer) key(keyID string) *keyState {
	k, ok := s.keys[keyID]
	if !ok {
		k = &keyState{signed: make(map[string]string)}
		s.keys[keyID] = k
	}
	return k
}

// Unlock prompts for keyID's passphrase unless it was already entered
func (s *Signer) Unlock(keyID string) error {
	k := s.key(keyID)
	if k.unlocked {
		return nil
	}
	return s.askPassphrase(keyID, k)
}

func (s *Signer) askPassphrase(keyID string, k *keyState) error {
	p, err := s.prompt.Passphrase(keyID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeSigning, "failed to read passphrase for key "+keyID, err)
	}
	k.passphrase = p
	k.unlocked = true
	return nil
}

// Sign returns plaintext signed with keyID. A signature is produced at most
// once per key and plaintext; later calls return the cached text. A wrong
// passphrase is re-prompted until the helper has been invoked maxAttempts
// times.
func (s *Signer) Sign(keyID, plaintext string) (string, error) {
	k := s.key(keyID)
	if sig, ok := k.signed[plaintext]; ok {
		return sig, nil
	}
	if err := s.Unlock(keyID); err != nil {
		return "", err
	}

	for attempt := 1; ; attempt++ {
		res, err := s.exec.Run(s.helper, plaintext, k.passphrase, keyID)
		if err != nil {
			return "", apperrors.Wrap(apperrors.ErrCodeSigning, "failed to run "+s.helper, err)
		}

		switch res.ExitCode {
		case 0:
			sig := res.StdoutString()
			k.signed[plaintext] = sig
			logger.Debug("signed %q with key %s", plaintext, keyID)
			return sig, nil

		case ExitWrongPassphrase:
			if attempt >= s.maxAttempts {
				logger.Error("Password for key %s entered incorrectly %d times", keyID, attempt)
				return "", &apperrors.Error{
					Code:    apperrors.ErrCodeSigning,
					Subject: "key " + keyID,
					Message: apperrors.ErrTooManyAttempts.Message,
				}
			}
			logger.Warn("Password for %s is incorrect, reprompting", keyID)
			k.unlocked = false
			if err := s.askPassphrase(keyID, k); err != nil {
				return "", err
			}

		default:
			return "", apperrors.Wrap(apperrors.ErrCodeSigning, "unknown error while generating signed text",
				fmt.Errorf("%s exited %d: %s", s.helper, res.ExitCode, strings.TrimSpace(res.StderrString())))
		}
	}
}

// Forget drops every cached passphrase and signature
func (s *Signer) Forget() {
	s.keys = make(map[string]*keyState)
}
