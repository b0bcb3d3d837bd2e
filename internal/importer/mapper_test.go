package importer

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestSuggestMapping(t *testing.T) {
	tests := []struct {
		header string
		want   MapTarget
	}{
		{"name", FieldTarget(FieldName)},
		{"Full Name", FieldTarget(FieldName)},
		{"first_name", FieldTarget(FieldName)},
		{"Email", FieldTarget(FieldEmail)},
		{"E-Mail Address", FieldTarget(FieldEmail)},
		{"phone", FieldTarget(FieldPhone)},
		{"Mobile Number", FieldTarget(FieldPhone)},
		{"company", FieldTarget(FieldCompany)},
		{"Organization", FieldTarget(FieldCompany)},
		{"status", FieldTarget(FieldStatus)},
		{"tags", FieldTarget(FieldTags)},
		{"Labels", FieldTarget(FieldTags)},
		{"notes", FieldTarget(FieldNotes)},
		{"Comments", FieldTarget(FieldNotes)},
		{"zip_code", SkipTarget()},
		{"", SkipTarget()},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got := SuggestMapping([]string{tt.header})
			if len(got) != 1 {
				t.Fatalf("expected 1 mapping, got %d", len(got))
			}
			if got[0].Target != tt.want {
				t.Errorf("SuggestMapping(%q) target = %s, want %s", tt.header, got[0].Target, tt.want)
			}
		})
	}
}

func TestSuggestMappingIdempotent(t *testing.T) {
	headers := []string{"Full Name", "email", "phone", "Company", "status", "tags", "notes", "zip"}
	first := SuggestMapping(headers)
	second := SuggestMapping(headers)
	if !reflect.DeepEqual(first, second) {
		t.Error("SuggestMapping is not idempotent")
	}
}

func TestValidateMapping(t *testing.T) {
	tests := []struct {
		name     string
		mappings []FieldMapping
		wantErrs int
		contains string
	}{
		{
			name: "valid mapping",
			mappings: []FieldMapping{
				{Column: "name", Target: FieldTarget(FieldName)},
				{Column: "email", Target: FieldTarget(FieldEmail)},
			},
			wantErrs: 0,
		},
		{
			name: "missing required name",
			mappings: []FieldMapping{
				{Column: "email", Target: FieldTarget(FieldEmail)},
			},
			wantErrs: 1,
			contains: "required field",
		},
		{
			name: "duplicate target",
			mappings: []FieldMapping{
				{Column: "name", Target: FieldTarget(FieldName)},
				{Column: "email_a", Target: FieldTarget(FieldEmail)},
				{Column: "email_b", Target: FieldTarget(FieldEmail)},
			},
			wantErrs: 1,
			contains: "multiple columns",
		},
		{
			name: "multiple skips are fine",
			mappings: []FieldMapping{
				{Column: "name", Target: FieldTarget(FieldName)},
				{Column: "a", Target: SkipTarget()},
				{Column: "b", Target: SkipTarget()},
			},
			wantErrs: 0,
		},
		{
			name: "missing required and duplicate together",
			mappings: []FieldMapping{
				{Column: "phone_a", Target: FieldTarget(FieldPhone)},
				{Column: "phone_b", Target: FieldTarget(FieldPhone)},
			},
			wantErrs: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateMapping(tt.mappings)
			if len(errs) != tt.wantErrs {
				t.Fatalf("ValidateMapping() = %v, want %d errors", errs, tt.wantErrs)
			}
			if tt.contains != "" && !strings.Contains(strings.Join(errs, "; "), tt.contains) {
				t.Errorf("errors %v do not mention %q", errs, tt.contains)
			}
		})
	}
}

func TestValidateMappingNoDuplicateTargetsInSuggestions(t *testing.T) {
	// Suggested mappings may assign the same field twice (two name-like
	// columns); ValidateMapping must flag that.
	mappings := SuggestMapping([]string{"first name", "last name", "email"})
	errs := ValidateMapping(mappings)
	if len(errs) == 0 {
		t.Error("expected duplicate target error for two name-like columns")
	}
}

func TestUpdateFieldMapping(t *testing.T) {
	mappings := SuggestMapping([]string{"name", "work_number"})
	if !mappings[1].Target.IsSkip() {
		t.Fatalf("expected work_number to be skipped, got %s", mappings[1].Target)
	}

	mappings = UpdateFieldMapping(mappings, "work_number", FieldTarget(FieldPhone))
	if f, ok := mappings[1].Target.Field(); !ok || f != FieldPhone {
		t.Errorf("after update, target = %s, want phone", mappings[1].Target)
	}

	// Unknown column is a no-op.
	before := make([]FieldMapping, len(mappings))
	copy(before, mappings)
	mappings = UpdateFieldMapping(mappings, "no_such_column", FieldTarget(FieldEmail))
	if !reflect.DeepEqual(before, mappings) {
		t.Error("updating an unknown column changed the mapping")
	}
}

func TestMapTargetJSON(t *testing.T) {
	tests := []struct {
		target MapTarget
		json   string
	}{
		{SkipTarget(), `"skip"`},
		{FieldTarget(FieldEmail), `"email"`},
		{FieldTarget(FieldName), `"name"`},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.target)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(data) != tt.json {
			t.Errorf("marshal = %s, want %s", data, tt.json)
		}
		var back MapTarget
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if back != tt.target {
			t.Errorf("round trip = %s, want %s", back, tt.target)
		}
	}

	var bad MapTarget
	if err := json.Unmarshal([]byte(`"favorite_color"`), &bad); err == nil {
		t.Error("expected error for unknown target")
	}
}
