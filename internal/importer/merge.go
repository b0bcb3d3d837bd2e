package importer

import (
	"fmt"
	"strings"

	"github.com/ignite/crm-import/internal/domain"
)

// MergeStrategy selects how one field of a duplicate pair is resolved.
type MergeStrategy string

const (
	// MergeKeepExisting keeps the existing contact's value when it is non-empty.
	MergeKeepExisting MergeStrategy = "keep_existing"
	// MergeUseImport keeps the imported value (the base of the merge).
	MergeUseImport MergeStrategy = "use_import"
	// MergeCombine unions tags and concatenates notes. Only defined for the
	// tags and notes fields; Validate rejects it elsewhere.
	MergeCombine MergeStrategy = "merge"
	// MergeAskUser defers the decision to the caller. A no-op here: the
	// caller must substitute a concrete strategy before merging, or treat
	// the field as provisional.
	MergeAskUser MergeStrategy = "ask_user"
)

// notesSeparator divides existing and imported notes in a combined field.
const notesSeparator = "--- Imported Notes ---"

// FieldStrategy assigns a merge strategy to one contact field.
type FieldStrategy struct {
	Field    ContactField  `json:"field"`
	Strategy MergeStrategy `json:"strategy"`
}

// MergeOptions carries the per-field strategies for resolving a duplicate.
// Strategies are applied in list order; a later entry for the same field
// overwrites an earlier one.
type MergeOptions struct {
	Strategies []FieldStrategy `json:"strategies"`
}

// DefaultMergeOptions prefers the existing record's identity fields and the
// imported record's operational fields, and unions tags and notes.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{Strategies: []FieldStrategy{
		{Field: FieldName, Strategy: MergeKeepExisting},
		{Field: FieldEmail, Strategy: MergeKeepExisting},
		{Field: FieldPhone, Strategy: MergeUseImport},
		{Field: FieldCompany, Strategy: MergeUseImport},
		{Field: FieldStatus, Strategy: MergeUseImport},
		{Field: FieldTags, Strategy: MergeCombine},
		{Field: FieldNotes, Strategy: MergeCombine},
	}}
}

// Validate rejects strategies that have no defined semantics: "merge" on a
// scalar field, or an unknown strategy/field name. A scalar "merge" is a
// configuration mistake and is reported rather than silently ignored.
func (o MergeOptions) Validate() error {
	for _, fs := range o.Strategies {
		switch fs.Strategy {
		case MergeKeepExisting, MergeUseImport, MergeAskUser:
		case MergeCombine:
			if fs.Field != FieldTags && fs.Field != FieldNotes {
				return fmt.Errorf("merge strategy %q is only defined for tags and notes, not %q", MergeCombine, fs.Field)
			}
		default:
			return fmt.Errorf("unknown merge strategy %q for field %q", fs.Strategy, fs.Field)
		}

		known := false
		for _, f := range ContactFields {
			if fs.Field == f {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown field %q in merge options", fs.Field)
		}
	}
	return nil
}

// Merge resolves a duplicate into a single record. The import candidate is
// the base; each strategy entry then adjusts its field. Options should be
// validated beforehand; an invalid scalar "merge" is a no-op here.
func Merge(match DuplicateMatch, opts MergeOptions) domain.ContactInput {
	merged := match.Candidate
	existing := match.Existing

	for _, fs := range opts.Strategies {
		switch fs.Strategy {
		case MergeKeepExisting:
			keepExisting(&merged, existing, fs.Field)
		case MergeCombine:
			switch fs.Field {
			case FieldTags:
				merged.Tags = unionTags(existing.Tags, match.Candidate.Tags)
			case FieldNotes:
				merged.Notes = combineNotes(existing.Notes, match.Candidate.Notes)
			}
		case MergeUseImport, MergeAskUser:
			// Import value already in place; ask_user is resolved upstream.
		}
	}

	return merged
}

// keepExisting overwrites one field with the existing contact's value, but
// only when that value is non-empty.
func keepExisting(merged *domain.ContactInput, existing domain.Contact, field ContactField) {
	switch field {
	case FieldName:
		if existing.Name != "" {
			merged.Name = existing.Name
		}
	case FieldEmail:
		if existing.Email != "" {
			merged.Email = existing.Email
		}
	case FieldPhone:
		if existing.Phone != "" {
			merged.Phone = existing.Phone
		}
	case FieldCompany:
		if existing.Company != "" {
			merged.Company = existing.Company
		}
	case FieldStatus:
		if existing.Status != "" {
			merged.Status = existing.Status
		}
	case FieldTags:
		if len(existing.Tags) > 0 {
			merged.Tags = append([]string{}, existing.Tags...)
		}
	case FieldNotes:
		if existing.Notes != "" {
			merged.Notes = existing.Notes
		}
	}
}

// unionTags merges two tag lists preserving order of first occurrence,
// existing tags first.
func unionTags(existing, imported []string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, t := range append(append([]string{}, existing...), imported...) {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// combineNotes joins existing and imported notes with a separator line, or
// returns whichever side is non-empty when the other is blank.
func combineNotes(existing, imported string) string {
	existing = strings.TrimSpace(existing)
	imported = strings.TrimSpace(imported)
	switch {
	case existing == "":
		return imported
	case imported == "":
		return existing
	default:
		return existing + "\n" + notesSeparator + "\n" + imported
	}
}
