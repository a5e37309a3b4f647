package report

import (
	"bytes"
	"fmt"
	"strings"

	"clausewise/internal/models"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "#", `\#`,
	"[", `\[`, "]", `\]`, "<", `\<`, ">", `\>`, "|", `\|`,
)

// Markdown renders the report. Sections are always classification, entities, clauses.
func Markdown(r *models.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", mdEscaper.Replace(r.Filename))
	fmt.Fprintf(&b, "Format: %s, %d characters, %d clauses\n\n", r.Format, r.Characters, len(r.Clauses))

	b.WriteString("## Document type\n\n")
	fmt.Fprintf(&b, "**%s** (%.1f%%)\n\n", mdEscaper.Replace(r.Classification.Label), r.Classification.Score*100)
	if len(r.Classification.AllLabels) > 0 {
		b.WriteString("| Label | Score |\n| --- | --- |\n")
		for _, ls := range r.Classification.AllLabels {
			fmt.Fprintf(&b, "| %s | %.3f |\n", mdEscaper.Replace(ls.Label), ls.Score)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Named entities\n\n")
	if len(r.Entities) == 0 {
		b.WriteString("No entities found.\n\n")
	} else {
		b.WriteString("| Entity | Type | Span | Confidence |\n| --- | --- | --- | --- |\n")
		for _, e := range r.Entities {
			fmt.Fprintf(&b, "| %s | %s | %d-%d | %.2f |\n", mdEscaper.Replace(e.Text), mdEscaper.Replace(e.Type), e.Start, e.End, e.Confidence)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Clauses\n\n")
	for _, c := range r.Clauses {
		fmt.Fprintf(&b, "### Clause %d\n\n", c.Index)
		b.WriteString(quote(c.Text))
		if c.Simplified != "" {
			fmt.Fprintf(&b, "**Plain English:** %s\n\n", mdEscaper.Replace(c.Simplified))
		}
	}
	if r.Truncated {
		b.WriteString("_Only the first clauses were simplified._\n")
	}
	return b.String()
}

func quote(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		b.WriteString("> ")
		b.WriteString(mdEscaper.Replace(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// HTML renders the Markdown report as an HTML fragment. Raw HTML in the document
// text is escaped, never passed through.
func HTML(r *models.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(r)), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
