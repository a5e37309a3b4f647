package report

import (
	"context"
	"io"
	"time"

	"clausewise/internal/analysis"
	"clausewise/internal/config"
	"clausewise/internal/models"
	"clausewise/internal/parser"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Input is either an uploaded file (Reader + Filename) or pasted Text.
type Input struct {
	Filename string
	Reader   io.Reader
	Text     string
}

type Builder struct {
	analyzer analysis.Analyzer
	cfg      config.AnalysisConfig
}

func NewBuilder(analyzer analysis.Analyzer, cfg config.AnalysisConfig) *Builder {
	return &Builder{analyzer: analyzer, cfg: cfg}
}

// Prepare decodes the input and splits it into clauses without calling any model.
func Prepare(in Input) (*models.Report, string, error) {
	var (
		text   string
		format models.Format
		err    error
	)
	if in.Reader != nil {
		format, err = parser.DetectFormat(in.Filename)
		if err != nil {
			return nil, "", err
		}
		text, err = parser.Decode(in.Reader, in.Filename)
	} else {
		if in.Filename == "" {
			in.Filename = "pasted text"
		}
		format = models.FormatText
		text, err = parser.FromText(in.Text)
	}
	if err != nil {
		return nil, "", err
	}

	clauses := parser.SplitClauses(text)
	r := &models.Report{
		Filename:   in.Filename,
		Format:     format,
		Characters: len([]rune(text)),
		Clauses:    make([]models.SimplifiedClause, len(clauses)),
	}
	for i, c := range clauses {
		r.Clauses[i] = models.SimplifiedClause{Clause: c}
	}
	log.Info().Str("filename", in.Filename).Str("format", string(format)).Int("characters", r.Characters).Int("clauses", len(clauses)).Msg("Segmented document")
	return r, text, nil
}

// Build decodes, segments and analyzes one document. Any failure aborts the
// whole report.
func (b *Builder) Build(ctx context.Context, in Input) (*models.Report, error) {
	start := time.Now()
	r, text, err := Prepare(in)
	if err != nil {
		log.Error().Err(err).Str("filename", in.Filename).Msg("Error decoding document")
		return nil, err
	}

	limit := len(r.Clauses)
	if b.cfg.MaxClauses > 0 && b.cfg.MaxClauses < limit {
		limit = b.cfg.MaxClauses
		r.Truncated = true
	}

	if b.cfg.Concurrent {
		err = b.analyzeConcurrently(ctx, r, text, limit)
	} else {
		err = b.analyze(ctx, r, text, limit)
	}
	if err != nil {
		return nil, err
	}

	r.Duration = time.Since(start)
	log.Info().Str("filename", in.Filename).Str("label", r.Classification.Label).Int("entities", len(r.Entities)).Dur("duration", r.Duration).Msg("Analyzed document")
	return r, nil
}

func (b *Builder) analyze(ctx context.Context, r *models.Report, text string, limit int) error {
	var err error
	if r.Classification, err = b.analyzer.Classify(ctx, text); err != nil {
		return err
	}
	if r.Entities, err = b.analyzer.ExtractEntities(ctx, text); err != nil {
		return err
	}
	for i := 0; i < limit; i++ {
		if r.Clauses[i].Simplified, err = b.analyzer.Simplify(ctx, r.Clauses[i].Text); err != nil {
			return err
		}
	}
	return nil
}

// analyzeConcurrently runs the model calls with at most MaxConcurrency in flight.
// Each goroutine writes to its own field or slice slot, so the report order is
// the same as the sequential path.
func (b *Builder) analyzeConcurrently(ctx context.Context, r *models.Report, text string, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	workers := b.cfg.MaxConcurrency
	if workers <= 0 {
		workers = config.DefaultMaxConcurrency
	}
	g.SetLimit(workers)
	g.Go(func() error {
		c, err := b.analyzer.Classify(ctx, text)
		r.Classification = c
		return err
	})
	g.Go(func() error {
		e, err := b.analyzer.ExtractEntities(ctx, text)
		r.Entities = e
		return err
	})
	for i := 0; i < limit; i++ {
		i := i
		g.Go(func() error {
			s, err := b.analyzer.Simplify(ctx, r.Clauses[i].Text)
			r.Clauses[i].Simplified = s
			return err
		})
	}
	return g.Wait()
}
