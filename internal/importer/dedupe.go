package importer

import (
	"fmt"
	"math"
	"strings"

	"github.com/ignite/crm-import/internal/domain"
)

// Field weights for duplicate scoring. Weights are intentionally NOT
// normalized: a single exact email match (0.8) is high confidence on its
// own, without corroborating fields.
const (
	weightEmail   = 0.8
	weightName    = 0.6
	weightPhone   = 0.4
	weightCompany = 0.3

	// matchThreshold is the inclusion floor: scores at or below it are
	// treated as no match at all.
	matchThreshold = 0.3

	// similarityFloor is the minimum fuzzy similarity for a name or company
	// to contribute to the score.
	similarityFloor = 0.8
)

// Confidence tiers a match score.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ConfidenceFor tiers an accumulated match score.
func ConfidenceFor(score float64) Confidence {
	switch {
	case score >= 0.8:
		return ConfidenceHigh
	case score >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// DuplicateMatch pairs an import candidate with its single best-scoring
// existing contact.
type DuplicateMatch struct {
	Candidate  domain.ContactInput `json:"candidate"`
	Existing   domain.Contact      `json:"existing"`
	Score      float64             `json:"score"`
	Reasons    []string            `json:"reasons"`
	Confidence Confidence          `json:"confidence"`
}

// DetectionResult partitions candidates into duplicates and uniques.
// Invariant: len(Unique) + len(Duplicates) == Total.
type DetectionResult struct {
	Duplicates []DuplicateMatch      `json:"duplicates"`
	Unique     []domain.ContactInput `json:"unique"`

	Total          int `json:"total"`
	UniqueCount    int `json:"unique_count"`
	DuplicateCount int `json:"duplicate_count"`
	HighCount      int `json:"high_confidence"`
	MediumCount    int `json:"medium_confidence"`
	LowCount       int `json:"low_confidence"`
}

// DetectDuplicates scores every candidate against every existing contact and
// keeps, per candidate, only the best match above the inclusion floor.
// Candidates with no such match are unique.
func DetectDuplicates(candidates []domain.ContactInput, existing []domain.Contact) DetectionResult {
	result := DetectionResult{
		Duplicates: []DuplicateMatch{},
		Unique:     []domain.ContactInput{},
		Total:      len(candidates),
	}

	for _, candidate := range candidates {
		var best *DuplicateMatch
		for i := range existing {
			score, reasons := matchScore(candidate, existing[i])
			if score <= matchThreshold {
				continue
			}
			if best == nil || score > best.Score {
				best = &DuplicateMatch{
					Candidate: candidate,
					Existing:  existing[i],
					Score:     score,
					Reasons:   reasons,
				}
			}
		}

		if best == nil {
			result.Unique = append(result.Unique, candidate)
			continue
		}

		best.Confidence = ConfidenceFor(best.Score)
		switch best.Confidence {
		case ConfidenceHigh:
			result.HighCount++
		case ConfidenceMedium:
			result.MediumCount++
		default:
			result.LowCount++
		}
		result.Duplicates = append(result.Duplicates, *best)
	}

	result.UniqueCount = len(result.Unique)
	result.DuplicateCount = len(result.Duplicates)
	return result
}

// matchScore accumulates weighted field comparisons between a candidate and
// an existing contact, returning the score and human-readable reasons.
func matchScore(c domain.ContactInput, e domain.Contact) (float64, []string) {
	var score float64
	var reasons []string

	if c.Email != "" && e.Email != "" {
		if normalize(c.Email) == normalize(e.Email) {
			score += weightEmail
			reasons = append(reasons, "Exact email match")
		}
	}

	if c.Name != "" && e.Name != "" {
		if sim := Similarity(normalize(c.Name), normalize(e.Name)); sim > similarityFloor {
			score += weightName * sim
			reasons = append(reasons, fmt.Sprintf("Similar name (%d%% match)", roundPct(sim)))
		}
	}

	if c.Phone != "" && e.Phone != "" {
		if digitsOnly(c.Phone) == digitsOnly(e.Phone) {
			score += weightPhone
			reasons = append(reasons, "Phone number match")
		}
	}

	if c.Company != "" && e.Company != "" {
		if sim := Similarity(normalize(c.Company), normalize(e.Company)); sim > similarityFloor {
			score += weightCompany * sim
			reasons = append(reasons, fmt.Sprintf("Similar company (%d%% match)", roundPct(sim)))
		}
	}

	return score, reasons
}

// Similarity computes a fuzzy string similarity in [0,1]: 1.0 for equal
// inputs, 0.9 when one is a substring of the other, otherwise a ratio
// derived from Levenshtein distance. Inputs are expected pre-normalized.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.9
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	return float64(maxLen-Levenshtein(a, b)) / float64(maxLen)
}

// Levenshtein computes the classic edit distance (insert/delete/substitute
// all cost 1) over runes. Quadratic in input length; fine for names and
// company fields, cap inputs before reusing it for long free text.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = minInt(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func minInt(nums ...int) int {
	m := nums[0]
	for _, n := range nums[1:] {
		if n < m {
			m = n
		}
	}
	return m
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func roundPct(sim float64) int {
	return int(math.Round(sim * 100))
}
