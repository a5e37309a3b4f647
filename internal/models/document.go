package models

import "time"

// Format is the decode path selected from a filename suffix.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatText Format = "text"
)

// Clause is one segment of a document, numbered by position starting at 1.
type Clause struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// LabelScore pairs a candidate label with its score.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classification is the document-type result. AllLabels is sorted by descending score
// and Label/Score repeat its first entry.
type Classification struct {
	Label     string       `json:"label"`
	Score     float64      `json:"score"`
	AllLabels []LabelScore `json:"all_labels"`
}

// Entity is a tagged span of the analyzed text. Start and End are the character
// offsets reported by the tagging model.
type Entity struct {
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
}

// SimplifiedClause is a clause with its plain-English rewrite.
type SimplifiedClause struct {
	Clause
	Simplified string `json:"simplified,omitempty"`
}

// Report collects every derived view of one document.
type Report struct {
	Filename       string             `json:"filename"`
	Format         Format             `json:"format"`
	Characters     int                `json:"characters"`
	Classification Classification     `json:"classification"`
	Entities       []Entity           `json:"entities"`
	Clauses        []SimplifiedClause `json:"clauses"`
	Truncated      bool               `json:"truncated"`
	Duration       time.Duration      `json:"duration"`
}
