// Package report renders a cohort's monthly attendance report as Markdown and HTML.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"roster/internal/domain/cohort"
	"roster/internal/domain/dates"
	"roster/internal/domain/stats"
	"roster/internal/domain/transition"
)

// mdRenderer is a goldmark instance with GFM tables.
// Raw HTML in the input is escaped (WithUnsafe is not set).
var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.Table),
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// MonthlyInput is everything a monthly report shows.
type MonthlyInput struct {
	Cohort      cohort.Profile
	Month       time.Time
	Summary     stats.Summary
	Days        []stats.DayCount // any range; only the month's days are listed
	Candidates  []transition.Candidate
	GeneratedAt time.Time
}

// Subject returns the email subject for the report.
func Subject(in MonthlyInput) string {
	return fmt.Sprintf("%s: asistencia %s", title(in.Cohort), in.Month.Format(dates.MonthLayout))
}

func title(p cohort.Profile) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}

// escape keeps member-supplied text from breaking table cells or emphasis.
var escape = strings.NewReplacer(`|`, `\|`, `*`, `\*`, `_`, `\_`, "`", "\\`")

func formatPeak(p stats.Peak) string {
	if p.Date.IsZero() {
		return "0"
	}
	return fmt.Sprintf("%d (%s)", p.Count, dates.Format(p.Date))
}

// BuildMonthly renders the report as Markdown.
// PRE: Summary was computed for Month
// POST: Returns a complete Markdown document
func BuildMonthly(in MonthlyInput) string {
	var b strings.Builder
	s := in.Summary
	label := in.Cohort.MemberLabel
	if label == "" {
		label = "miembro"
	}

	fmt.Fprintf(&b, "# %s\n\n", escape.Replace(title(in.Cohort)))
	fmt.Fprintf(&b, "Reporte de asistencia de **%s**", in.Month.Format(dates.MonthLayout))
	if !in.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, ", generado el %s", dates.Format(in.GeneratedAt))
	}
	b.WriteString(".\n\n")

	b.WriteString("## Resumen\n\n")
	b.WriteString("| Indicador | Valor |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total (%s) | %d |\n", escape.Replace(label), s.Today.Total)
	fmt.Fprintf(&b, "| Días con asistencia | %d |\n", s.DaysWithAttendance)
	fmt.Fprintf(&b, "| Promedio mensual | %d |\n", s.MonthlyAverage)
	fmt.Fprintf(&b, "| Máximo del mes | %s |\n", formatPeak(s.MonthlyMaximum))
	fmt.Fprintf(&b, "| Máximo histórico | %s |\n", formatPeak(s.HistoricalMaximum))
	b.WriteString("\n")

	var days []stats.DayCount
	for _, d := range in.Days {
		if dates.SameMonth(d.Date, in.Month) {
			days = append(days, d)
		}
	}
	b.WriteString("## Asistencia por día\n\n")
	if len(days) == 0 {
		b.WriteString("Sin registros este mes.\n\n")
	} else {
		b.WriteString("| Fecha | Presentes | Registrados |\n|---|---|---|\n")
		for _, d := range days {
			fmt.Fprintf(&b, "| %s | %d | %d |\n", dates.Format(d.Date), d.Present, d.Recorded)
		}
		b.WriteString("\n")
	}

	if len(in.Candidates) > 0 {
		b.WriteString("## Transiciones sugeridas\n\n")
		for _, c := range in.Candidates {
			fmt.Fprintf(&b, "- %s (%d años) → %s\n", escape.Replace(c.Name), c.Age, escape.Replace(c.SuggestedCohortName))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderHTML converts report Markdown to HTML.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}
