package importer

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ignite/crm-import/internal/domain"
)

func basicMapping() []FieldMapping {
	return []FieldMapping{
		{Column: "name", Target: FieldTarget(FieldName)},
		{Column: "email", Target: FieldTarget(FieldEmail)},
		{Column: "phone", Target: FieldTarget(FieldPhone)},
		{Column: "company", Target: FieldTarget(FieldCompany)},
		{Column: "status", Target: FieldTarget(FieldStatus)},
		{Column: "tags", Target: FieldTarget(FieldTags)},
		{Column: "notes", Target: FieldTarget(FieldNotes)},
	}
}

func TestValidateAndPreviewMappingShortCircuit(t *testing.T) {
	rows := []Row{{"email": "jane@x.com"}}
	mapping := []FieldMapping{{Column: "email", Target: FieldTarget(FieldEmail)}}

	result := ValidateAndPreview(rows, mapping, nil)
	if result.IsValid {
		t.Error("expected invalid result for broken mapping")
	}
	if len(result.Errors) == 0 {
		t.Error("expected mapping errors")
	}
	if len(result.Preview) != 0 {
		t.Errorf("expected empty preview, got %d rows", len(result.Preview))
	}
}

func TestValidateAndPreviewTransforms(t *testing.T) {
	rows := []Row{{
		"name":    "  Jane Smith ",
		"email":   "jane@example.com",
		"phone":   "+1 555 0100",
		"company": "Acme",
		"status":  "CUSTOMER",
		"tags":    "vip, newsletter, ,vip",
		"notes":   " hello ",
	}}

	result := ValidateAndPreview(rows, basicMapping(), nil)
	if !result.IsValid {
		t.Fatalf("expected valid result, errors: %v, row errors: %+v", result.Errors, result.Preview)
	}

	c := result.Preview[0].Candidate
	if c.Name != "Jane Smith" {
		t.Errorf("name = %q", c.Name)
	}
	if c.Status != domain.StatusCustomer {
		t.Errorf("status = %q, want customer", c.Status)
	}
	if want := []string{"vip", "newsletter"}; !reflect.DeepEqual(c.Tags, want) {
		t.Errorf("tags = %v, want %v", c.Tags, want)
	}
	if c.Notes != "hello" {
		t.Errorf("notes = %q", c.Notes)
	}
	if result.Preview[0].RowIndex != 1 {
		t.Errorf("rowIndex = %d, want 1", result.Preview[0].RowIndex)
	}
}

func TestValidateAndPreviewInvalidStatusDefaults(t *testing.T) {
	rows := []Row{{"name": "Jane", "status": "sorcerer"}}
	result := ValidateAndPreview(rows, basicMapping(), nil)

	pr := result.Preview[0]
	if pr.IsValid {
		t.Error("row with invalid status should be invalid")
	}
	if pr.Candidate.Status != domain.StatusLead {
		t.Errorf("status = %q, want default lead", pr.Candidate.Status)
	}
	if !containsSubstring(pr.Errors, "invalid status") {
		t.Errorf("errors = %v, want invalid status mention", pr.Errors)
	}
}

func TestValidateAndPreviewMissingName(t *testing.T) {
	rows := []Row{{"name": "   ", "email": "ok@example.com"}}
	result := ValidateAndPreview(rows, basicMapping(), nil)

	pr := result.Preview[0]
	if pr.IsValid {
		t.Error("row missing name must be invalid")
	}
	if !containsSubstring(pr.Errors, "name") {
		t.Errorf("errors = %v, want mention of name", pr.Errors)
	}
}

func TestValidateAndPreviewEmailFormat(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"jane@example.com", true},
		{"jane.doe+crm@sub.example.co", true},
		{"not-an-email", false},
		{"missing@tld", false},
		{"@example.com", false},
	}

	for _, tt := range tests {
		rows := []Row{{"name": "Jane", "email": tt.email}}
		result := ValidateAndPreview(rows, basicMapping(), nil)
		if got := result.Preview[0].IsValid; got != tt.valid {
			t.Errorf("email %q: isValid = %v, want %v (errors: %v)",
				tt.email, got, tt.valid, result.Preview[0].Errors)
		}
	}
}

func TestValidateAndPreviewDuplicateEmailPrecheck(t *testing.T) {
	existing := []domain.Contact{{Name: "Jane", Email: "JANE@example.com"}}
	rows := []Row{{"name": "Jane 2", "email": "jane@EXAMPLE.com"}}

	result := ValidateAndPreview(rows, basicMapping(), existing)
	pr := result.Preview[0]
	if pr.IsValid {
		t.Error("exact email collision should invalidate the row")
	}
	if !containsSubstring(pr.Errors, "duplicate email") {
		t.Errorf("errors = %v, want duplicate email mention", pr.Errors)
	}
}

func TestValidateAndPreviewKeepsInvalidRows(t *testing.T) {
	rows := []Row{
		{"name": "Jane", "email": "jane@example.com"},
		{"name": "", "email": "broken"},
		{"name": "Bob"},
	}
	result := ValidateAndPreview(rows, basicMapping(), nil)

	if len(result.Preview) != 3 {
		t.Fatalf("preview length = %d, want 3 (invalid rows are never dropped)", len(result.Preview))
	}
	if result.IsValid {
		t.Error("overall result must be invalid")
	}
	for i, pr := range result.Preview {
		if pr.RowIndex != i+1 {
			t.Errorf("preview[%d].RowIndex = %d", i, pr.RowIndex)
		}
	}
	if !result.Preview[0].IsValid || result.Preview[1].IsValid || !result.Preview[2].IsValid {
		t.Errorf("validity flags wrong: %v %v %v",
			result.Preview[0].IsValid, result.Preview[1].IsValid, result.Preview[2].IsValid)
	}
}

func TestSplitTags(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{}},
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b ,, c ", []string{"a", "b", "c"}},
		{"a,a,b", []string{"a", "b"}},
	}
	for _, tt := range tests {
		if got := SplitTags(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitTags(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func containsSubstring(errs []string, sub string) bool {
	return strings.Contains(strings.Join(errs, "; "), sub)
}

func TestPreviewRowAddError(t *testing.T) {
	pr := &PreviewRow{RowIndex: 3, IsValid: true}

	pr.AddError("possible duplicate of an existing contact")
	pr.AddError("contact creation failed")

	if pr.IsValid {
		t.Error("row should be invalid after AddError")
	}
	if len(pr.Errors) != 2 {
		t.Fatalf("errors = %v, want 2 entries", pr.Errors)
	}
	if !strings.Contains(pr.Errors[0], "duplicate") {
		t.Errorf("errors[0] = %q", pr.Errors[0])
	}
}
