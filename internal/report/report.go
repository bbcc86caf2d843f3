// Package report renders assembly results for people and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/jakoblorz/ui5lab-combine/internal/filesystem"
	"github.com/jakoblorz/ui5lab-combine/internal/models"
	"github.com/jakoblorz/ui5lab-combine/internal/tui"
)

const summaryTemplate = `{{ header (printf "combine %s" .RunID) }}
{{ range .Results -}}
{{ mark .Outcome }} {{ printf "%-32s" .Library }} {{ outcome .Outcome }}
{{- with .ResourcesFrom }}  resources <- {{ . }}{{ end }}
{{- with .TestResourcesFrom }}  test-resources <- {{ . }}{{ end }}
{{- if .Files }}  {{ subtle (files .Files) }}{{ end }}
{{ range .Warnings }}{{ warn (printf "    ! %s" .) }}
{{ end -}}
{{ with .Error }}{{ fail (printf "    x %s" .) }}
{{ end -}}
{{ end -}}
{{ .Totals | join ", " | strong }}
{{- if .Deploy }}
{{ if .Deployed }}{{ ok "deploy tree assembled" }}{{ else }}{{ fail "deploy tree not assembled" }}{{ end }}
{{- end }}
`

var summary = template.Must(template.New("summary").
	Funcs(sprig.TxtFuncMap()).
	Funcs(template.FuncMap{
		"header":  func(s string) string { return tui.HeaderStyle.Render(s) },
		"strong":  func(s string) string { return tui.TitleStyle.Render(s) },
		"ok":      func(s string) string { return tui.SuccessStyle.Render(s) },
		"warn":    func(s string) string { return tui.WarningStyle.Render(s) },
		"fail":    func(s string) string { return tui.ErrorStyle.Render(s) },
		"subtle":  func(s string) string { return tui.SubtleStyle.Render(s) },
		"mark":    mark,
		"outcome": outcome,
		"files":   func(n int) string { return fmt.Sprintf("%d file%s", n, plural(n)) },
	}).
	Parse(summaryTemplate))

type summaryData struct {
	*models.Report
	Totals []string
}

// Render writes the console summary of r to w.
func Render(w io.Writer, r *models.Report) error {
	data := summaryData{Report: r, Totals: totals(r)}
	if err := summary.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	return nil
}

func totals(r *models.Report) []string {
	var out []string
	for _, o := range []models.Outcome{
		models.OutcomeCopied,
		models.OutcomeSkippedTooling,
		models.OutcomeExcluded,
		models.OutcomeNothingToCopy,
		models.OutcomeFailed,
	} {
		if n := r.Count(o); n > 0 {
			out = append(out, fmt.Sprintf("%d %s", n, o))
		}
	}
	if n := r.WarningCount(); n > 0 {
		out = append(out, fmt.Sprintf("%d warning%s", n, plural(n)))
	}
	if len(out) == 0 {
		out = append(out, "no libraries")
	}
	return out
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func mark(o models.Outcome) string {
	switch o {
	case models.OutcomeCopied:
		return tui.SuccessStyle.Render("✓")
	case models.OutcomeFailed:
		return tui.ErrorStyle.Render("✗")
	case models.OutcomeNothingToCopy:
		return tui.WarningStyle.Render("!")
	default:
		return tui.SubtleStyle.Render("-")
	}
}

func outcome(o models.Outcome) string {
	s := strings.ReplaceAll(o.String(), "-", " ")
	switch o {
	case models.OutcomeCopied:
		return tui.SuccessStyle.Render(s)
	case models.OutcomeFailed:
		return tui.ErrorStyle.Render(s)
	case models.OutcomeNothingToCopy:
		return tui.WarningStyle.Render(s)
	default:
		return tui.DescStyle.Render(s)
	}
}

// WriteJSON writes r as indented JSON to path, creating parent directories.
func WriteJSON(fs filesystem.FileSystem, path string, r *models.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')

	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	if err := fs.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}
