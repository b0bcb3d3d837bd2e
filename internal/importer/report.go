package importer

import (
	"fmt"
	"strings"
	"time"
)

// SampleCSV returns the canonical example file shown to users and used as a
// golden fixture in round-trip tests.
func SampleCSV() string {
	return strings.Join([]string{
		"name,email,phone,company,status,tags,notes",
		`John Doe,john@example.com,+1-555-0100,Acme Corp,lead,"vip,newsletter",Met at trade show`,
		`Jane Smith,jane@example.com,+1-555-0101,Globex Inc,customer,enterprise,Renewal due in Q3`,
		`Bob Johnson,bob@example.com,,Initech,prospect,"smb,trial",`,
	}, "\n") + "\n"
}

// DuplicateReport renders a plain-text summary of a detection result,
// intended for download alongside the import preview.
func DuplicateReport(result DetectionResult) string {
	var b strings.Builder

	b.WriteString("Duplicate Detection Report\n")
	b.WriteString("==========================\n\n")
	fmt.Fprintf(&b, "Total candidates:  %d\n", result.Total)
	fmt.Fprintf(&b, "Unique:            %d\n", result.UniqueCount)
	fmt.Fprintf(&b, "Duplicates:        %d\n", result.DuplicateCount)
	fmt.Fprintf(&b, "  High confidence:   %d\n", result.HighCount)
	fmt.Fprintf(&b, "  Medium confidence: %d\n", result.MediumCount)
	fmt.Fprintf(&b, "  Low confidence:    %d\n", result.LowCount)

	if len(result.Duplicates) > 0 {
		b.WriteString("\nMatches\n-------\n")
		for i, m := range result.Duplicates {
			fmt.Fprintf(&b, "%d. Import %q <-> Existing %q (score %.2f, %s confidence)\n",
				i+1, m.Candidate.Name, m.Existing.Name, m.Score, m.Confidence)
			for _, reason := range m.Reasons {
				fmt.Fprintf(&b, "   - %s\n", reason)
			}
		}
	}

	return b.String()
}

// DuplicateReportFilename names the downloadable report for a given date,
// e.g. duplicate_report_2026-08-27.txt.
func DuplicateReportFilename(t time.Time) string {
	return fmt.Sprintf("duplicate_report_%s.txt", t.Format("2006-01-02"))
}
