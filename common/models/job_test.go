package models

import (
	"strings"
	"testing"
)

func TestJobStatusTerminal(t *testing.T) {
	tests := []struct {
		status JobStatus
		want   bool
	}{
		{JobStatusPending, false},
		{JobStatusProcessing, false},
		{JobStatusCompleted, true},
		{JobStatusFailed, true},
		{JobStatusCancelled, true},
		{JobStatus("unknown"), false},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("Terminal(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestDataKindValid(t *testing.T) {
	tests := []struct {
		kind DataKind
		want bool
	}{
		{DataKindEmail, true},
		{DataKindPhone, true},
		{DataKind("address"), false},
		{DataKind(""), false},
	}
	for _, tt := range tests {
		if got := tt.kind.Valid(); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestStatusDocJsonRoundTrip(t *testing.T) {
	doc := &StatusDoc{
		JobID:         "0196b9f2-0000-7000-8000-000000000001",
		Status:        JobStatusProcessing,
		Keyword:       "steel fabricators pune",
		DataKind:      DataKindEmail,
		Country:       "in",
		Quota:         100,
		Progress:      45,
		PagesScanned:  7,
		ContactsFound: 42,
		ElapsedTime:   12.5,
		Preview:       []string{"info@acme.in"},
	}

	raw, err := doc.ToJson()
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"progress":45`, `"country":"in"`, `"elapsed_time":12.5`} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("document missing %s: %s", key, raw)
		}
	}

	got, err := StatusDocFromJson(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got.JobID != doc.JobID || got.Status != doc.Status || got.ContactsFound != doc.ContactsFound {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Progress != 45 || got.Country != "in" || got.ElapsedTime != 12.5 {
		t.Errorf("progress fields lost in round trip: %+v", got)
	}
	if len(got.Preview) != 1 || got.Preview[0] != "info@acme.in" {
		t.Errorf("preview lost in round trip: %+v", got.Preview)
	}
}

func TestStatusDocFromJsonInvalid(t *testing.T) {
	if _, err := StatusDocFromJson([]byte("{not json")); err == nil {
		t.Error("expected error for malformed document")
	}
}
