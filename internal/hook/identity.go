package hook

import (
	"fmt"
	"os/user"
	"strings"
	"sync"

	"github.com/ksyq12/heroku-auto-ssl/internal/executor"
	"github.com/ksyq12/heroku-auto-ssl/internal/logger"
)

// Identity describes who ran a hook. It is a best-effort audit trail, not
// an authentication mechanism.
type Identity struct {
	Username string `json:"username"`
	GitName  string `json:"git_name"`
	GitEmail string `json:"git_email"`
}

// String formats the identity for audit log lines
func (i Identity) String() string {
	return fmt.Sprintf("user.username=%q, git.user.name=%q, git.user.email=%q", i.Username, i.GitName, i.GitEmail)
}

// IdentityResolver looks up the identity once and memoizes it
type IdentityResolver struct {
	exec        executor.CommandExecutor
	currentUser func() (*user.User, error)

	once sync.Once
	id   Identity
}

// NewIdentityResolver creates a resolver using the OS user and git config
func NewIdentityResolver(exec executor.CommandExecutor) *IdentityResolver {
	return &IdentityResolver{exec: exec, currentUser: user.Current}
}

// Resolve returns the identity, looking it up on first use
func (r *IdentityResolver) Resolve() Identity {
	r.once.Do(func() {
		if u, err := r.currentUser(); err != nil {
			logger.Debug("could not determine username: %v", err)
		} else {
			r.id.Username = u.Username
		}

		if _, err := r.exec.LookPath("git"); err != nil {
			return
		}
		r.id.GitName = r.gitConfig("user.name")
		r.id.GitEmail = r.gitConfig("user.email")
	})
	return r.id
}

func (r *IdentityResolver) gitConfig(key string) string {
	res, err := r.exec.Run("git", "config", key)
	if err != nil {
		logger.Debug("git config %s: %v", key, err)
		return ""
	}
	if stderr := strings.TrimSpace(res.StderrString()); stderr != "" {
		logger.Debug("git config %s: %s", key, stderr)
		return ""
	}
	return res.Trimmed()
}
