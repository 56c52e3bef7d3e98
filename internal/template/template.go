package template

import (
	"bytes"
	"embed"
	"fmt"
	"reflect"
	"strings"
	"text/template"
	"time"
)

//go:embed templates/*.tmpl
var files embed.FS

// Template names
const (
	DomainsList = "domains.txt"
	ScanReport  = "scan-report.txt"
)

// DomainsData is the data of the renewal list template
type DomainsData struct {
	Root    string
	Domains []string
}

type groupData struct {
	Title string
	Items interface{}
}

var funcMap = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("2006-01-02") },
	"group": func(title string, items interface{}) groupData {
		if v := reflect.ValueOf(items); !v.IsValid() || (v.Kind() == reflect.Slice && v.IsNil()) {
			items = []struct{}{}
		}
		return groupData{Title: title, Items: items}
	},
}

// Render renders the named embedded template with data
func Render(name string, data interface{}) (string, error) {
	content, err := files.ReadFile("templates/" + name + ".tmpl")
	if err != nil {
		return "", fmt.Errorf("template not found: %s (available: %s)", name, strings.Join(Available(), ", "))
	}

	tmpl, err := template.New(name).Funcs(funcMap).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// RenderDomains renders the renewal list for root and domains
func RenderDomains(root string, domains []string) (string, error) {
	return Render(DomainsList, DomainsData{Root: root, Domains: domains})
}

// Available returns the names of all embedded templates
func Available() []string {
	entries, err := files.ReadDir("templates")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".tmpl"))
	}
	return names
}
