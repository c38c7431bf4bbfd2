package schedule

import (
	"testing"
	"time"
)

func TestNextRun(t *testing.T) {
	from := time.Date(2026, 1, 31, 2, 0, 0, 0, time.UTC)

	if got := NextRun(FrequencyDaily, from); !got.Equal(from.AddDate(0, 0, 1)) {
		t.Fatalf("daily: got %v", got)
	}
	if got := NextRun(FrequencyWeekly, from); !got.Equal(from.AddDate(0, 0, 7)) {
		t.Fatalf("weekly: got %v", got)
	}
	// Jan 31 + 1 month normalizes per time.AddDate.
	if got := NextRun(FrequencyMonthly, from); !got.Equal(time.Date(2026, 3, 3, 2, 0, 0, 0, time.UTC)) {
		t.Fatalf("monthly: got %v", got)
	}
	if got := NextRun("hourly", from); !got.Equal(from.AddDate(0, 0, 7)) {
		t.Fatalf("unknown frequency should default to weekly, got %v", got)
	}
}

func TestNormalize(t *testing.T) {
	if Normalize(FrequencyDaily) != FrequencyDaily {
		t.Fatal("daily should pass through")
	}
	if Normalize("every-minute") != FrequencyWeekly {
		t.Fatal("unknown frequency should normalize to weekly")
	}
}
