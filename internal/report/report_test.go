package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"clausewise/internal/analysis"
	"clausewise/internal/config"
	"clausewise/internal/models"
	"clausewise/internal/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	mu          sync.Mutex
	calls       []string
	simplifyErr error
}

func (f *fakeAnalyzer) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAnalyzer) Classify(_ context.Context, text string) (models.Classification, error) {
	f.record("classify")
	return models.Classification{
		Label: "NDA",
		Score: 0.91,
		AllLabels: []models.LabelScore{
			{Label: "NDA", Score: 0.91},
			{Label: "Other", Score: 0.09},
		},
	}, nil
}

func (f *fakeAnalyzer) ExtractEntities(_ context.Context, text string) ([]models.Entity, error) {
	f.record("entities")
	return []models.Entity{{Text: "Acme Corp", Type: "ORG", Start: 0, End: 9, Confidence: 0.98}}, nil
}

func (f *fakeAnalyzer) Simplify(_ context.Context, clause string) (string, error) {
	f.record("simplify")
	if f.simplifyErr != nil {
		return "", f.simplifyErr
	}
	return "Simply: " + clause, nil
}

const contract = "Acme Corp NDA\n1. The Recipient keeps secrets.\n2. This lasts two years.\n3) Disputes go to court."

func TestBuildSequential(t *testing.T) {
	fa := &fakeAnalyzer{}
	b := NewBuilder(fa, config.AnalysisConfig{})

	r, err := b.Build(context.Background(), Input{Filename: "nda.txt", Reader: strings.NewReader(contract)})
	require.NoError(t, err)

	assert.Equal(t, []string{"classify", "entities", "simplify", "simplify", "simplify", "simplify"}, fa.calls)
	assert.Equal(t, "nda.txt", r.Filename)
	assert.Equal(t, models.FormatText, r.Format)
	assert.Equal(t, "NDA", r.Classification.Label)
	require.Len(t, r.Clauses, 4)
	assert.Equal(t, "Acme Corp NDA", r.Clauses[0].Text)
	assert.Equal(t, 4, r.Clauses[3].Index)
	assert.Equal(t, "Simply: Disputes go to court.", r.Clauses[3].Simplified)
	assert.False(t, r.Truncated)
}

func TestBuildConcurrentKeepsOrder(t *testing.T) {
	fa := &fakeAnalyzer{}
	b := NewBuilder(fa, config.AnalysisConfig{Concurrent: true})

	r, err := b.Build(context.Background(), Input{Text: contract})
	require.NoError(t, err)
	assert.Len(t, fa.calls, 6)
	assert.Equal(t, "pasted text", r.Filename)
	for i, c := range r.Clauses {
		assert.Equal(t, i+1, c.Index)
		assert.Equal(t, "Simply: "+c.Text, c.Simplified)
	}
}

type gaugeAnalyzer struct {
	fakeAnalyzer
	inFlight, peak int32
}

func (g *gaugeAnalyzer) Simplify(ctx context.Context, clause string) (string, error) {
	n := atomic.AddInt32(&g.inFlight, 1)
	defer atomic.AddInt32(&g.inFlight, -1)
	for {
		p := atomic.LoadInt32(&g.peak)
		if n <= p || atomic.CompareAndSwapInt32(&g.peak, p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return g.fakeAnalyzer.Simplify(ctx, clause)
}

func TestBuildConcurrentLimit(t *testing.T) {
	var clauses []string
	for i := 1; i <= 20; i++ {
		clauses = append(clauses, fmt.Sprintf("%d. Clause number %d.", i, i))
	}
	ga := &gaugeAnalyzer{}
	b := NewBuilder(ga, config.AnalysisConfig{Concurrent: true, MaxConcurrency: 2})

	r, err := b.Build(context.Background(), Input{Text: strings.Join(clauses, "\n")})
	require.NoError(t, err)
	require.Len(t, r.Clauses, 20)
	assert.Equal(t, "Simply: Clause number 20.", r.Clauses[19].Simplified)
	assert.LessOrEqual(t, atomic.LoadInt32(&ga.peak), int32(2))
}

func TestBuildMaxClauses(t *testing.T) {
	fa := &fakeAnalyzer{}
	b := NewBuilder(fa, config.AnalysisConfig{MaxClauses: 2})

	r, err := b.Build(context.Background(), Input{Text: contract})
	require.NoError(t, err)
	assert.True(t, r.Truncated)
	assert.NotEmpty(t, r.Clauses[1].Simplified)
	assert.Empty(t, r.Clauses[2].Simplified)
	assert.Empty(t, r.Clauses[3].Simplified)
}

func TestBuildDecodeFailureSkipsAnalysis(t *testing.T) {
	fa := &fakeAnalyzer{}
	b := NewBuilder(fa, config.AnalysisConfig{})

	_, err := b.Build(context.Background(), Input{Filename: "scan.rtf", Reader: strings.NewReader("x")})
	assert.ErrorIs(t, err, parser.ErrUnsupportedFormat)

	_, err = b.Build(context.Background(), Input{Text: "  "})
	assert.ErrorIs(t, err, parser.ErrEmptyContent)
	assert.Empty(t, fa.calls)
}

func TestBuildAnalysisFailureAborts(t *testing.T) {
	boom := &analysis.AnalysisError{Op: "simplification", Err: errors.New("timeout")}
	for _, concurrent := range []bool{false, true} {
		fa := &fakeAnalyzer{simplifyErr: boom}
		b := NewBuilder(fa, config.AnalysisConfig{Concurrent: concurrent})

		r, err := b.Build(context.Background(), Input{Text: contract})
		assert.Nil(t, r)
		assert.ErrorIs(t, err, analysis.ErrAnalysisFailure)
	}
}

func TestPrepare(t *testing.T) {
	r, text, err := Prepare(Input{Filename: "a.TXT", Reader: strings.NewReader("1) Alpha\n2) Beta")})
	require.NoError(t, err)
	assert.Equal(t, "1) Alpha\n2) Beta", text)
	assert.Equal(t, 16, r.Characters)
	assert.Equal(t, []string{"Alpha", "Beta"}, []string{r.Clauses[0].Text, r.Clauses[1].Text})
}

func sampleReport() *models.Report {
	return &models.Report{
		Filename:   "nda.txt",
		Format:     models.FormatText,
		Characters: 120,
		Classification: models.Classification{
			Label:     "NDA",
			Score:     0.91,
			AllLabels: []models.LabelScore{{Label: "NDA", Score: 0.91}, {Label: "Lease", Score: 0.09}},
		},
		Entities: []models.Entity{{Text: "Acme Corp", Type: "ORG", Start: 0, End: 9, Confidence: 0.98}},
		Clauses: []models.SimplifiedClause{
			{Clause: models.Clause{Index: 1, Text: "The Recipient keeps <script>alert(1)</script> secrets."}, Simplified: "Keep it secret."},
			{Clause: models.Clause{Index: 2, Text: "This lasts two years."}},
		},
		Truncated: true,
	}
}

func TestMarkdownSectionOrder(t *testing.T) {
	md := Markdown(sampleReport())

	typ := strings.Index(md, "## Document type")
	ent := strings.Index(md, "## Named entities")
	cl := strings.Index(md, "## Clauses")
	require.True(t, typ >= 0 && ent > typ && cl > ent, md)
	assert.Contains(t, md, "**NDA** (91.0%)")
	assert.Contains(t, md, "| Acme Corp | ORG | 0-9 | 0.98 |")
	assert.Contains(t, md, "### Clause 2")
	assert.Contains(t, md, "**Plain English:** Keep it secret.")
	assert.Contains(t, md, "Only the first clauses were simplified")
}

func TestHTMLEscapesDocumentMarkup(t *testing.T) {
	out, err := HTML(sampleReport())
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "<h2>Document type</h2>")
	assert.Contains(t, s, "<table>")
	assert.NotContains(t, s, "<script>")
	assert.Contains(t, s, "&lt;script&gt;")
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(sampleReport(), &buf))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	text, err := parser.Decode(bytes.NewReader(buf.Bytes()), "report.pdf")
	require.NoError(t, err)
	assert.Contains(t, text, "Document type")
	assert.Contains(t, text, "Clause 1")
}
