// Package match assigns payslip pages to roster employees.
package match

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/lohnwerk/disburser/internal/document"
	"github.com/lohnwerk/disburser/internal/domain"
	"github.com/lohnwerk/disburser/internal/extract"
)

// AcceptThreshold is the minimum identity score for a page to count as
// matched. Last-name-only containment sits exactly at the threshold.
const AcceptThreshold = 0.4

// Result summarises one document pass. Assignments is keyed by employee
// name; every page lands in exactly one of Assignments, UnmatchedPages or
// DuplicatePages.
type Result struct {
	Assignments    map[string]domain.PageAssignment `json:"assignments"`
	UnmatchedPages []int                            `json:"unmatched_pages,omitempty"` // 1-based
	DuplicatePages []int                            `json:"duplicate_pages,omitempty"` // 1-based
	SavedFiles     []string                         `json:"saved_files,omitempty"`
	Errors         []string                         `json:"errors,omitempty"`
}

// Matcher walks a document and produces per-employee page assignments.
type Matcher struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Matcher {
	return &Matcher{log: log.With("component", "match")}
}

// Pages scores every page of doc against every employee and assigns each
// page to its best-scoring employee. Ties between employees go to roster
// order. When several pages match the same employee, the higher-scoring
// page wins; the losing page (the displaced earlier one, or the equal-or-
// lower later one) is reported as duplicate.
//
// Matched pages are exported into the employee's target directory; an
// export failure is reported but does not undo the match or stop the run.
func (m *Matcher) Pages(doc document.Reader, employees []domain.EmployeeRecord, period string) *Result {
	result := &Result{Assignments: make(map[string]domain.PageAssignment)}

	for idx := 0; idx < doc.PageCount(); idx++ {
		text, err := doc.PageText(idx)
		if err != nil {
			m.log.Warn("page text extraction failed", "page", idx+1, "error", err)
			text = ""
		}

		bestScore := 0.0
		var best *domain.EmployeeRecord
		for i := range employees {
			score := extract.IdentityScore(text, employees[i].Name)
			if score > bestScore {
				bestScore = score
				best = &employees[i]
			}
		}

		if best == nil || bestScore < AcceptThreshold {
			result.UnmatchedPages = append(result.UnmatchedPages, idx+1)
			m.log.Warn("no employee matched", "page", idx+1, "best_score", bestScore)
			continue
		}

		if prev, ok := result.Assignments[best.Name]; ok {
			if prev.Score >= bestScore {
				result.DuplicatePages = append(result.DuplicatePages, idx+1)
				m.log.Warn("employee already matched by an earlier page",
					"page", idx+1, "employee", best.Name, "kept_page", prev.PageIndex+1)
				continue
			}
			// The earlier, weaker match is displaced and reported.
			result.DuplicatePages = append(result.DuplicatePages, prev.PageIndex+1)
			m.log.Warn("better-scoring page replaces earlier match",
				"page", idx+1, "employee", best.Name, "replaced_page", prev.PageIndex+1)
		}

		amount := extract.Amount(text)
		assignment := domain.PageAssignment{
			PageIndex:   idx,
			Employee:    best.Name,
			Score:       bestScore,
			AmountCents: amount,
		}
		m.log.Info("page matched", "page", idx+1, "employee", best.Name,
			"score", bestScore, "amount_cents", amount)

		base := filepath.Join(best.TargetDir, Filename(best.Name, period))
		saved, err := doc.SavePage(idx, base)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("page %d (%s): %v", idx+1, best.Name, err))
		} else {
			assignment.Saved = true
			assignment.SavedPath = saved
			// A replacement overwrites the same artifact path.
			if !slices.Contains(result.SavedFiles, saved) {
				result.SavedFiles = append(result.SavedFiles, saved)
			}
			m.log.Info("payslip saved", "path", saved)
		}

		result.Assignments[best.Name] = assignment
	}

	return result
}

// Filename builds the payslip artifact name: compact period plus the first
// letter of the first name and the first two of the last name.
// "Michael Richter" / "2026-02" → "202602_MRI".
func Filename(name, period string) string {
	periodCompact := strings.ReplaceAll(period, "-", "")
	parts := strings.Fields(strings.TrimSpace(name))
	first := parts[0]
	last := first
	if len(parts) > 1 {
		last = parts[len(parts)-1]
	}
	initials := first[:1]
	if len(last) >= 2 {
		initials += last[:2]
	} else {
		initials += last
	}
	return fmt.Sprintf("%s_%s", periodCompact, strings.ToUpper(initials))
}
