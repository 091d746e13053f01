package present

import (
	"strings"
	"testing"
	"time"

	"github.com/kasl-dev/kasl/internal/db"
	"github.com/kasl-dev/kasl/internal/report"
)

func TestDailyIncludesDateAndProductivity(t *testing.T) {
	d := &report.DailyReport{
		Date:          "2026-08-03",
		NetDuration:   7*time.Hour + 30*time.Minute,
		GrossDuration: 8 * time.Hour,
		Productivity:  93.8,
	}
	out := Daily(d)
	if !strings.Contains(out, "2026-08-03") {
		t.Fatalf("expected date in output, got %q", out)
	}
	if !strings.Contains(out, "93.8%") {
		t.Fatalf("expected productivity in output, got %q", out)
	}
	if !strings.Contains(out, "7h30m") {
		t.Fatalf("expected humanized duration in output, got %q", out)
	}
}

func TestMonthlyListsEachDay(t *testing.T) {
	m := &report.MonthlyReport{
		Year:         2026,
		Month:        time.August,
		Productivity: 90,
		TotalDuration: 32 * time.Hour,
		Days: []report.DailyAggregate{
			{Date: "2026-08-01", NetDuration: 8 * time.Hour, Productivity: 95},
			{Date: "2026-08-02", NetDuration: 8 * time.Hour, RestDay: true},
		},
	}
	out := Monthly(m)
	if !strings.Contains(out, "2026-08-01") || !strings.Contains(out, "2026-08-02") {
		t.Fatalf("expected both days listed, got %q", out)
	}
	if !strings.Contains(out, "rest") {
		t.Fatalf("expected rest day marker, got %q", out)
	}
}

func TestPausesRendersOpenAndCompleted(t *testing.T) {
	now := time.Date(2026, 8, 3, 14, 0, 0, 0, time.UTC)
	start := now.Add(-30 * time.Minute)
	end := now.Add(-10 * time.Minute)
	duration := int64(20 * 60)
	completed := db.Pause{Start: start, End: &end, Duration: &duration}
	open := db.Pause{Start: now.Add(-5 * time.Minute)}

	out := Pauses([]db.Pause{completed, open}, now)
	if !strings.Contains(out, "20m") {
		t.Fatalf("expected completed pause duration, got %q", out)
	}
	if !strings.Contains(out, "open") {
		t.Fatalf("expected open pause marker, got %q", out)
	}
}

func TestPausesEmptyList(t *testing.T) {
	out := Pauses(nil, time.Now())
	if !strings.Contains(out, "no pauses recorded") {
		t.Fatalf("expected empty-list message, got %q", out)
	}
}
