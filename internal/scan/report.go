package scan

import (
	"errors"
	"os"

	apperrors "github.com/ksyq12/heroku-auto-ssl/internal/errors"
	"github.com/ksyq12/heroku-auto-ssl/internal/logger"
	"github.com/ksyq12/heroku-auto-ssl/internal/template"
)

// Report groups scanned domains by expiry state. A domain appears in one
// of Expired/Valid and in one of ShouldRenew/NoAction.
type Report struct {
	Expired     []Status `json:"expired"`
	Valid       []Status `json:"valid"`
	ShouldRenew []Status `json:"should_renew"`
	NoAction    []Status `json:"no_action"`
}

// Summarize groups statuses, keeping their order
func Summarize(statuses []Status) *Report {
	r := &Report{}
	for _, st := range statuses {
		if st.Expired {
			r.Expired = append(r.Expired, st)
		} else {
			r.Valid = append(r.Valid, st)
		}
		if st.ShouldRenew {
			r.ShouldRenew = append(r.ShouldRenew, st)
		} else {
			r.NoAction = append(r.NoAction, st)
		}
	}
	return r
}

// RenewalDomains returns the domains that should be renewed
func (r *Report) RenewalDomains() []string {
	domains := make([]string, 0, len(r.ShouldRenew))
	for _, st := range r.ShouldRenew {
		domains = append(domains, st.Domain)
	}
	return domains
}

// Render formats the report for the console
func (r *Report) Render() (string, error) {
	return template.Render(template.ScanReport, r)
}

// WriteRenewalList writes "<root> <d1> <d2>..." to path when any domain
// should be renewed, and removes an existing file otherwise. It reports
// whether a file was written.
func WriteRenewalList(path, root string, r *Report) (bool, error) {
	domains := r.RenewalDomains()
	if len(domains) == 0 {
		err := os.Remove(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return false, apperrors.Wrap(apperrors.ErrCodeScan, "failed to remove renewal list", err)
		}
		if err == nil {
			logger.Info("Removed %s", path)
		}
		return false, nil
	}

	content, err := template.RenderDomains(root, domains)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return false, apperrors.Wrap(apperrors.ErrCodeScan, "failed to write renewal list", err)
	}
	logger.Info("Wrote to %s", path)
	return true, nil
}
