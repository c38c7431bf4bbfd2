package policy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsCoverKnownDataTypes(t *testing.T) {
	defaults := Defaults()

	exports, ok := defaults[DataTypeExportRequests]
	if !ok {
		t.Fatal("expected export_requests default")
	}
	if exports.RetentionDays != 90 || !exports.AutoDelete {
		t.Fatalf("unexpected export policy: %+v", exports)
	}

	consent, ok := defaults[DataTypeConsentLogs]
	if !ok {
		t.Fatal("expected consent_logs default")
	}
	if consent.AutoDelete {
		t.Fatal("consent logs must be reporting-only")
	}

	billing := defaults[DataTypeBillingRecords]
	if billing.AutoDelete {
		t.Fatal("billing records must be reporting-only")
	}
}

func TestUpdateMergesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	catalog := NewFileCatalog(path)

	days := 30
	updated, err := catalog.Update(DataTypeExportRequests, Patch{RetentionDays: &days})
	if err != nil {
		t.Fatalf("update error: %v", err)
	}
	if updated.RetentionDays != 30 {
		t.Fatalf("expected 30 days, got %d", updated.RetentionDays)
	}
	// Untouched fields keep defaults.
	if !updated.AutoDelete || updated.Category != "Data Exports" {
		t.Fatalf("merge lost defaults: %+v", updated)
	}

	// A fresh catalog over the same file sees the override.
	reread := NewFileCatalog(path)
	if got := reread.Get()[DataTypeExportRequests].RetentionDays; got != 30 {
		t.Fatalf("override did not survive restart, got %d", got)
	}
	// Other policies stay on defaults.
	if got := reread.Get()[DataTypeSystemLogs].RetentionDays; got != 180 {
		t.Fatalf("unrelated policy changed: %d", got)
	}
}

func TestUpdateUnknownDataType(t *testing.T) {
	catalog := NewFileCatalog(filepath.Join(t.TempDir(), "overrides.yaml"))

	if _, err := catalog.Update("telemetry", Patch{}); !errors.Is(err, ErrUnknownDataType) {
		t.Fatalf("expected ErrUnknownDataType, got %v", err)
	}
}

func TestMalformedOverridesFallBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	if err := os.WriteFile(path, []byte(":\tnot yaml"), 0o644); err != nil {
		t.Fatalf("write error: %v", err)
	}

	catalog := NewFileCatalog(path)
	if got := catalog.Get()[DataTypePageViewData].RetentionDays; got != 365 {
		t.Fatalf("expected defaults, got %d", got)
	}
}

func TestGetIgnoresUnknownOverrideTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	raw := "telemetry:\n  dataType: telemetry\n  retentionDays: 5\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write error: %v", err)
	}

	catalog := NewFileCatalog(path)
	if _, ok := catalog.Get()["telemetry"]; ok {
		t.Fatal("unknown override data type must not appear in the catalog")
	}
}
