package parser

import (
	"regexp"
	"strings"

	"clausewise/internal/models"
)

var clauseSplitRe = regexp.MustCompile(models.ClauseSplitRegex)

// SplitClauses breaks text before every line that opens with a numbered marker
// ("3. " or "3)"), drops the markers and any blank segment, and numbers the rest
// by position. Text without markers comes back as one clause; empty text as none.
func SplitClauses(text string) []models.Clause {
	var clauses []models.Clause
	for _, segment := range clauseSplitRe.Split(text, -1) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		clauses = append(clauses, models.Clause{
			Index: len(clauses) + 1,
			Text:  segment,
		})
	}
	return clauses
}

// ClauseTexts returns the clause strings in order.
func ClauseTexts(clauses []models.Clause) []string {
	texts := make([]string, len(clauses))
	for i, c := range clauses {
		texts[i] = c.Text
	}
	return texts
}
