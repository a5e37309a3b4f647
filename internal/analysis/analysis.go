// Package analysis is the boundary to the three model-backed views of a document:
// document-type classification, named-entity extraction and clause simplification.
//
// The models themselves run elsewhere (Hugging Face inference, an OpenAI-compatible
// server or ollama). This package only builds requests, decodes responses and maps
// failures onto ErrInvalidInput and ErrAnalysisFailure.
package analysis

import (
	"context"
	"strings"

	"clausewise/internal/models"
)

type Classifier interface {
	Classify(ctx context.Context, text string) (models.Classification, error)
}

type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text string) ([]models.Entity, error)
}

type Simplifier interface {
	Simplify(ctx context.Context, clause string) (string, error)
}

// Analyzer is everything the report builder needs.
type Analyzer interface {
	Classifier
	EntityExtractor
	Simplifier
}

func checkText(op, text string) error {
	if strings.TrimSpace(text) == "" {
		return &AnalysisError{Op: op, Err: ErrInvalidInput}
	}
	return nil
}
