// Package present renders reports and pause lists for a terminal: a
// muted palette, bold headers, and human-readable durations instead of
// raw seconds.
package present

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/kasl-dev/kasl/internal/db"
	"github.com/kasl-dev/kasl/internal/report"
)

var (
	colorPrimary = lipgloss.Color("#6C63FF")
	colorMuted   = lipgloss.Color("#666666")
	colorSuccess = lipgloss.Color("#2ECC71")
	colorWarning = lipgloss.Color("#F39C12")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
)

// Daily renders a single day's report as a short styled block.
func Daily(d *report.DailyReport) string {
	var b strings.Builder
	fmt.Fprintln(&b, headerStyle.Render(d.Date))
	fmt.Fprintf(&b, "  worked   %s\n", humanizeDuration(d.NetDuration))
	fmt.Fprintf(&b, "  gross    %s\n", humanizeDuration(d.GrossDuration))
	fmt.Fprintf(&b, "  %s\n", productivityLine(d.Productivity))
	if d.FilteredCount > 0 {
		fmt.Fprintf(&b, "  %s\n", mutedStyle.Render(fmt.Sprintf(
			"%d short interval(s) folded into breaks (%s)", d.FilteredCount, humanizeDuration(d.FilteredTotalDuration))))
	}
	for _, iv := range d.Intervals {
		fmt.Fprintf(&b, "    %s -> %s  (%s)\n", iv.Start.Format("15:04"), iv.End.Format("15:04"), humanizeDuration(iv.Duration))
	}
	return b.String()
}

// Monthly renders a month's daily aggregates and its weighted total.
func Monthly(m *report.MonthlyReport) string {
	var b strings.Builder
	fmt.Fprintln(&b, headerStyle.Render(fmt.Sprintf("%s %d", m.Month, m.Year)))
	for _, day := range m.Days {
		marker := ""
		if day.RestDay {
			marker = mutedStyle.Render(" (rest)")
		}
		fmt.Fprintf(&b, "  %s  %-10s %5.1f%%%s\n", day.Date, humanizeDuration(day.NetDuration), day.Productivity, marker)
	}
	fmt.Fprintf(&b, "  %s   total %s\n", productivityLine(m.Productivity), humanizeDuration(m.TotalDuration))
	return b.String()
}

// Pauses renders a pause list, one line each: clock times and duration
// for a completed pause, and how long ago it started for an open one.
func Pauses(pauses []db.Pause, now time.Time) string {
	if len(pauses) == 0 {
		return mutedStyle.Render("no pauses recorded") + "\n"
	}
	var b strings.Builder
	for _, p := range pauses {
		switch {
		case p.End == nil:
			fmt.Fprintf(&b, "  %s -> (open, started %s)\n", p.Start.Format("15:04"), humanize.Time(p.Start))
		default:
			fmt.Fprintf(&b, "  %s -> %s  %s\n", p.Start.Format("15:04"), p.End.Format("15:04"),
				humanizeDuration(time.Duration(*p.Duration)*time.Second))
		}
	}
	return b.String()
}

func productivityLine(pct float64) string {
	style := lipgloss.NewStyle().Foreground(colorSuccess)
	if pct < 50 {
		style = lipgloss.NewStyle().Foreground(colorWarning)
	}
	return style.Render(fmt.Sprintf("%.1f%% productive", pct))
}

// humanizeDuration renders d as "2h15m" rather than Go's default
// "2h15m0.000000001s", falling back to go-humanize's relative-time
// phrasing for anything under a minute.
func humanizeDuration(d time.Duration) string {
	if d < time.Minute {
		return humanize.RelTime(time.Now().Add(-d), time.Now(), "", "")
	}
	d = d.Round(time.Minute)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}
