package domain

import (
	"fmt"
	"strings"
)

// Category is the closed set of case collections the engine serves.
type Category string

const (
	CategoryCivil    Category = "civil"
	CategoryCriminal Category = "criminal"
	CategoryTraffic  Category = "traffic"
)

// Categories returns every known category in a stable order.
func Categories() []Category {
	return []Category{CategoryCivil, CategoryCriminal, CategoryTraffic}
}

func ParseCategory(raw string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryCivil:
		return CategoryCivil, nil
	case CategoryCriminal:
		return CategoryCriminal, nil
	case CategoryTraffic:
		return CategoryTraffic, nil
	default:
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidInput, raw)
	}
}

// CaseRecord is one decided case from a category dataset snapshot.
type CaseRecord struct {
	CaseID          string `json:"case_id"`
	Title           string `json:"title"`
	JudgmentSummary string `json:"judgment_summary"`
	Description     string `json:"description"`
	Verdict         string `json:"verdict"`
	Category        string `json:"category"`
}

// IndexText is the canonical text surface both indexes are built over.
// The summary wins; older snapshots only carry a description.
func (r CaseRecord) IndexText() string {
	if r.JudgmentSummary != "" {
		return r.JudgmentSummary
	}
	return r.Description
}
