package importer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ContactField names a target contact field a CSV column can map to.
type ContactField string

const (
	FieldName    ContactField = "name"
	FieldEmail   ContactField = "email"
	FieldPhone   ContactField = "phone"
	FieldCompany ContactField = "company"
	FieldStatus  ContactField = "status"
	FieldTags    ContactField = "tags"
	FieldNotes   ContactField = "notes"
)

// ContactFields lists every mappable field in priority order. The order
// drives both mapping suggestions and per-field merge iteration.
var ContactFields = []ContactField{
	FieldName, FieldEmail, FieldPhone, FieldCompany, FieldStatus, FieldTags, FieldNotes,
}

// RequiredFields must each be the target of at least one column mapping.
var RequiredFields = []ContactField{FieldName}

// MapTarget is either a contact field or the skip sentinel. The zero value
// is not meaningful; construct via SkipTarget or FieldTarget so an invalid
// target cannot be represented.
type MapTarget struct {
	field ContactField
	skip  bool
}

// SkipTarget returns a target that discards the column.
func SkipTarget() MapTarget { return MapTarget{skip: true} }

// FieldTarget returns a target pointing at a contact field.
func FieldTarget(f ContactField) MapTarget { return MapTarget{field: f} }

// IsSkip reports whether the column is discarded.
func (t MapTarget) IsSkip() bool { return t.skip }

// Field returns the target contact field; ok is false for skip targets.
func (t MapTarget) Field() (ContactField, bool) {
	if t.skip {
		return "", false
	}
	return t.field, true
}

func (t MapTarget) String() string {
	if t.skip {
		return "skip"
	}
	return string(t.field)
}

// MarshalJSON encodes the target as "skip" or the field name.
func (t MapTarget) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes "skip" or a known field name, rejecting anything else.
func (t *MapTarget) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "skip" {
		*t = SkipTarget()
		return nil
	}
	for _, f := range ContactFields {
		if s == string(f) {
			*t = FieldTarget(f)
			return nil
		}
	}
	return fmt.Errorf("unknown mapping target %q", s)
}

// FieldMapping pairs one CSV column header with its target.
type FieldMapping struct {
	Column string    `json:"column"`
	Target MapTarget `json:"target"`
}

// SuggestMapping assigns a target to each header using substring heuristics.
// Headers are matched in a fixed priority order (name before email before
// phone, and so on); unmatched columns are skipped. Deterministic: the same
// header list always yields the same mapping.
func SuggestMapping(headers []string) []FieldMapping {
	mappings := make([]FieldMapping, 0, len(headers))
	for _, h := range headers {
		mappings = append(mappings, FieldMapping{Column: h, Target: suggestTarget(h)})
	}
	return mappings
}

func suggestTarget(header string) MapTarget {
	h := strings.ToLower(strings.TrimSpace(header))
	switch {
	case strings.Contains(h, "name"):
		return FieldTarget(FieldName)
	case strings.Contains(h, "email") || strings.Contains(h, "e-mail"):
		return FieldTarget(FieldEmail)
	case strings.Contains(h, "phone") || strings.Contains(h, "mobile"):
		return FieldTarget(FieldPhone)
	case strings.Contains(h, "company") || strings.Contains(h, "organization"):
		return FieldTarget(FieldCompany)
	case strings.Contains(h, "status"):
		return FieldTarget(FieldStatus)
	case strings.Contains(h, "tag") || strings.Contains(h, "label"):
		return FieldTarget(FieldTags)
	case strings.Contains(h, "note") || strings.Contains(h, "comment"):
		return FieldTarget(FieldNotes)
	default:
		return SkipTarget()
	}
}

// ValidateMapping checks that every required field has a source column and
// that no field is assigned twice. Violations come back as human-readable
// strings rather than an error so the caller can render all of them at once.
func ValidateMapping(mappings []FieldMapping) []string {
	var errs []string

	assigned := make(map[ContactField][]string)
	for _, m := range mappings {
		if f, ok := m.Target.Field(); ok {
			assigned[f] = append(assigned[f], m.Column)
		}
	}

	for _, req := range RequiredFields {
		if len(assigned[req]) == 0 {
			errs = append(errs, fmt.Sprintf("required field %q is not mapped to any column", req))
		}
	}

	for _, f := range ContactFields {
		if cols := assigned[f]; len(cols) > 1 {
			errs = append(errs, fmt.Sprintf("field %q is mapped by multiple columns: %s", f, strings.Join(cols, ", ")))
		}
	}

	return errs
}

// UpdateFieldMapping reassigns the target for one column. No validation is
// performed here; callers run ValidateMapping before proceeding.
func UpdateFieldMapping(mappings []FieldMapping, column string, target MapTarget) []FieldMapping {
	for i := range mappings {
		if mappings[i].Column == column {
			mappings[i].Target = target
			break
		}
	}
	return mappings
}
