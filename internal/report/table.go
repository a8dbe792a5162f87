package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/dynstab/internal/metrics"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaa00"))
)

// FormatValue prints v compactly, with n/a for NaN.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.6g", v)
}

// KV is one labelled line of a run header.
type KV struct {
	Label string
	Value string
}

// Header renders a title over aligned label/value lines.
func Header(title string, lines []KV) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	for _, l := range lines {
		b.WriteString(labelStyle.Render(l.Label) + valueStyle.Render(l.Value) + "\n")
	}
	return b.String()
}

// Warning renders a highlighted one-line notice.
func Warning(msg string) string {
	return warnStyle.Render("! " + msg)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			default:
				return numberStyle
			}
		}).
		Headers(headers...)
}

// SummaryTable renders one run's summary metrics sorted by name. unitOf may
// be nil.
func SummaryTable(summary map[string]float64, unitOf func(name string) string) string {
	names := make([]string, 0, len(summary))
	for k := range summary {
		names = append(names, k)
	}
	sort.Strings(names)

	t := newTable("METRIC", "VALUE", "UNIT")
	for _, name := range names {
		unit := ""
		if unitOf != nil {
			unit = unitOf(name)
		}
		t.Row(name, FormatValue(summary[name]), unit)
	}
	return t.Render()
}

// StatsTable renders cross-run statistics.
func StatsTable(stats []metrics.Stat) string {
	t := newTable("METRIC", "MEAN", "STD", "N")
	for _, s := range stats {
		t.Row(s.Name, FormatValue(s.Mean), FormatValue(s.Std), fmt.Sprintf("%d", s.Count))
	}
	return t.Render()
}

// RunRow is one line of a run listing.
type RunRow struct {
	ID      string
	Name    string
	Time    string
	Samples int
	Ascent  int
	Note    string
}

// RunsTable renders a listing of stored runs.
func RunsTable(rows []RunRow) string {
	t := newTable("ID", "NAME", "TIME", "SAMPLES", "ASCENT", "NOTE")
	for _, r := range rows {
		t.Row(r.ID, r.Name, r.Time, fmt.Sprintf("%d", r.Samples), fmt.Sprintf("%d", r.Ascent), r.Note)
	}
	return t.Render()
}
