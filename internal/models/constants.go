package models

const (
	// ClauseSplitRegex matches a numbered marker ("12. " or "12)") at the start of a line.
	ClauseSplitRegex = `(?m)^[ \t]*\d+(?:\.[ \t]|\))`
	ThinkTag         = `(?s)<think>.*?</think>`
)

var (
	// SimplifyPromptTemplate receives the clause text.
	SimplifyPromptTemplate = "Simplify this legal clause into plain English:\n\n%s"

	DefaultLabels = []string{"NDA", "Lease", "Employment Contract", "Service Agreement", "Other"}

	DefaultHypothesisTemplate = "This example is {}."
)
