// Package template renders the text files produced by heroku-auto-ssl from
// templates embedded in the binary.
//
// # Templates
//
//	domains.txt.tmpl     renewal list: "<root> <d1> <d2> ..."
//	scan-report.txt.tmpl expiry scan summary grouped by classification
//
// # Rendering
//
//	content, err := template.RenderDomains("example.com", []string{"www.example.com"})
//	// content == "example.com www.example.com\n"
//
//	report, err := template.Render(template.ScanReport, summary)
//
// # Custom Functions
//
// Templates have access to these functions:
//   - date: formats a time.Time as YYYY-MM-DD
//   - join: strings.Join
//   - group: builds a titled item list for the "group" sub-template
package template
