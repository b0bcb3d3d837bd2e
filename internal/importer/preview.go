package importer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ignite/crm-import/internal/domain"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// PreviewRow wraps one source row with its derived candidate and any
// validation errors. Rows with errors are kept in the preview so the caller
// can annotate them; they are never dropped.
type PreviewRow struct {
	RowIndex  int                 `json:"row_index"` // 1-based position in the source data
	Raw       Row                 `json:"raw"`
	Candidate domain.ContactInput `json:"candidate"`
	Errors    []string            `json:"errors"`
	IsValid   bool                `json:"is_valid"`
}

// AddError records a problem with the row and flips it invalid. Used both
// during validation and for late errors (duplicate detection, submission).
func (p *PreviewRow) AddError(msg string) {
	p.Errors = append(p.Errors, msg)
	p.IsValid = false
}

// ValidationResult is the outcome of validating an entire mapped row set.
// When the mapping itself is invalid, Errors carries the mapping problems
// and Preview is empty.
type ValidationResult struct {
	IsValid bool          `json:"is_valid"`
	Errors  []string      `json:"errors"`
	Preview []*PreviewRow `json:"preview"`
}

// ValidateAndPreview converts mapped rows into candidate contacts, collecting
// per-row errors. Mapping validation runs first and short-circuits: no row
// processing is attempted against a broken mapping. The existing contact list
// is used only for a cheap exact-email collision pre-check; fuzzy duplicate
// detection is a separate pass.
func ValidateAndPreview(rows []Row, mappings []FieldMapping, existing []domain.Contact) ValidationResult {
	if mapErrs := ValidateMapping(mappings); len(mapErrs) > 0 {
		return ValidationResult{IsValid: false, Errors: mapErrs}
	}

	existingEmails := make(map[string]bool, len(existing))
	for _, c := range existing {
		if c.Email != "" {
			existingEmails[strings.ToLower(strings.TrimSpace(c.Email))] = true
		}
	}

	result := ValidationResult{IsValid: true}
	for i, row := range rows {
		pr := &PreviewRow{
			RowIndex: i + 1,
			Raw:      row,
			IsValid:  true,
		}
		pr.Candidate = transformRow(row, mappings, pr)

		if pr.Candidate.Name == "" {
			pr.AddError("missing required field: name")
		}
		if email := pr.Candidate.Email; email != "" {
			if !emailRegex.MatchString(email) {
				pr.AddError(fmt.Sprintf("invalid email format: %s", email))
			} else if existingEmails[strings.ToLower(email)] {
				pr.AddError(fmt.Sprintf("duplicate email: a contact with %s already exists", email))
			}
		}

		if !pr.IsValid {
			result.IsValid = false
		}
		result.Preview = append(result.Preview, pr)
	}

	return result
}

// transformRow applies the mapping to one raw row, coercing each cell per
// its target field. Non-fatal problems (unknown status) are recorded on the
// preview row and the value defaulted so the row still renders downstream.
func transformRow(row Row, mappings []FieldMapping, pr *PreviewRow) domain.ContactInput {
	candidate := domain.ContactInput{Status: domain.Statuses[0], Tags: []string{}}

	for _, m := range mappings {
		field, ok := m.Target.Field()
		if !ok {
			continue
		}
		value := strings.TrimSpace(row[m.Column])

		switch field {
		case FieldName:
			candidate.Name = value
		case FieldEmail:
			candidate.Email = value
		case FieldPhone:
			candidate.Phone = value
		case FieldCompany:
			candidate.Company = value
		case FieldNotes:
			candidate.Notes = value
		case FieldStatus:
			if value == "" {
				continue
			}
			status := domain.ContactStatus(strings.ToLower(value))
			if domain.ValidStatus(status) {
				candidate.Status = status
			} else {
				pr.AddError(fmt.Sprintf("invalid status %q, defaulting to %q", value, domain.Statuses[0]))
			}
		case FieldTags:
			candidate.Tags = SplitTags(value)
		}
	}

	return candidate
}

// SplitTags turns a comma-separated tag cell into an ordered set of trimmed,
// non-empty tags. Duplicates are dropped, first occurrence wins.
func SplitTags(value string) []string {
	tags := []string{}
	if value == "" {
		return tags
	}
	seen := make(map[string]bool)
	for _, piece := range strings.Split(value, ",") {
		tag := strings.TrimSpace(piece)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
