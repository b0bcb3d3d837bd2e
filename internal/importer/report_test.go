package importer

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ignite/crm-import/internal/domain"
)

func TestSampleCSVRoundTrip(t *testing.T) {
	headers, rows, err := ParseCSV(SampleCSV())
	if err != nil {
		t.Fatalf("sample CSV failed to parse: %v", err)
	}

	want := []string{"name", "email", "phone", "company", "status", "tags", "notes"}
	if !reflect.DeepEqual(headers, want) {
		t.Errorf("headers = %v, want %v", headers, want)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0]["name"] != "John Doe" {
		t.Errorf("first row name = %q", rows[0]["name"])
	}
	if rows[0]["tags"] != "vip,newsletter" {
		t.Errorf("quoted tags cell = %q", rows[0]["tags"])
	}

	// The sample must survive its own validation pipeline cleanly.
	result := ValidateAndPreview(rows, SuggestMapping(headers), nil)
	if !result.IsValid {
		t.Errorf("sample CSV does not validate: %v / %+v", result.Errors, result.Preview)
	}
}

func TestDuplicateReport(t *testing.T) {
	result := DetectDuplicates(
		[]domain.ContactInput{
			{Name: "John Doe", Email: "john@example.com"},
			{Name: "Nobody Like This"},
		},
		[]domain.Contact{{Name: "John Doe", Email: "john@example.com"}},
	)

	report := DuplicateReport(result)
	for _, want := range []string{
		"Total candidates:  2",
		"Unique:            1",
		"Duplicates:        1",
		"John Doe",
		"Exact email match",
		"high confidence",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestDuplicateReportFilename(t *testing.T) {
	ts := time.Date(2026, 8, 27, 15, 4, 5, 0, time.UTC)
	if got, want := DuplicateReportFilename(ts), "duplicate_report_2026-08-27.txt"; got != want {
		t.Errorf("filename = %q, want %q", got, want)
	}
}
