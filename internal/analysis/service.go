package analysis

import (
	"context"
	"errors"
	"sync"
	"time"

	"clausewise/internal/config"
	"clausewise/internal/embedding"
	"clausewise/internal/llmservice"
	"clausewise/internal/models"

	"github.com/rs/zerolog/log"
)

var errClosed = errors.New("analysis service is closed")

// Backends holds the model handles shared by every request.
type Backends struct {
	Classifier Classifier
	Entities   EntityExtractor
	Simplifier Simplifier
	Closers    []func() error
}

// Factory creates the backends. It runs once per Service.
type Factory func(ctx context.Context) (*Backends, error)

// Service is the process-wide Analyzer. Backends are created by the first
// successful Start (or the first call) and released by Close. They are read-only
// once created.
type Service struct {
	factory Factory
	initMu  sync.Mutex

	mu       sync.RWMutex
	backends *Backends
	closed   bool
}

func NewService(factory Factory) *Service {
	return &Service{factory: factory}
}

// NewServiceFromConfig wires the Hugging Face, embedding and LLM back ends.
func NewServiceFromConfig(cfg *config.Config) *Service {
	return NewService(ConfigFactory(cfg))
}

func ConfigFactory(cfg *config.Config) Factory {
	return func(ctx context.Context) (*Backends, error) {
		hf := NewHFClient(cfg.HuggingFace.BaseURL, cfg.HuggingFace.Token, cfg.HuggingFace.Timeout)
		b := &Backends{
			Entities: NewHFTokenClassifier(hf, cfg.NER.Model, cfg.NER.AggregationStrategy),
		}

		switch cfg.Classifier.Backend {
		case config.BackendEmbedding:
			embedder, err := embedding.NewEmbedder(&cfg.Embedding)
			if err != nil {
				return nil, err
			}
			ec, err := NewEmbeddingClassifier(ctx, embedder, cfg.Classifier.Labels)
			if err != nil {
				return nil, err
			}
			b.Classifier = ec
			b.Closers = append(b.Closers, ec.Close)
		default:
			b.Classifier = NewHFZeroShot(hf, cfg.Classifier.Model, cfg.Classifier.Labels, cfg.Classifier.HypothesisTemplate)
		}

		llm, err := llmservice.New(&cfg.Generation)
		if err != nil {
			return nil, err
		}
		b.Simplifier = NewLLMSimplifier(llm, cfg.Generation.Prompt, cfg.Generation.MaxTokens, cfg.Generation.SamplingTemperature())
		return b, nil
	}
}

// Start creates the backends if that has not happened yet. A failed attempt is
// not cached, so the next Start or call tries again. The factory sees ctx's values
// but not its cancellation.
func (s *Service) Start(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	s.mu.RLock()
	closed, started := s.closed, s.backends != nil
	s.mu.RUnlock()
	switch {
	case closed:
		return errClosed
	case started:
		return nil
	}

	start := time.Now()
	b, err := s.factory(context.WithoutCancel(ctx))
	if err != nil {
		log.Error().Err(err).Msg("Error initializing analysis backends")
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		// Close ran while the factory was working
		if err := closeBackends(b); err != nil {
			log.Error().Err(err).Msg("Error releasing analysis backends")
		}
		return errClosed
	}
	s.backends = b
	s.mu.Unlock()
	log.Info().Dur("duration", time.Since(start)).Msg("Analysis backends ready")
	return nil
}

func (s *Service) ready(ctx context.Context, op string) (*Backends, error) {
	s.mu.RLock()
	b := s.backends
	s.mu.RUnlock()
	if b != nil {
		return b, nil
	}
	if err := s.Start(ctx); err != nil {
		return nil, wrap(op, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed || s.backends == nil {
		return nil, wrap(op, errClosed)
	}
	return s.backends, nil
}

func (s *Service) Classify(ctx context.Context, text string) (models.Classification, error) {
	b, err := s.ready(ctx, "classification")
	if err != nil {
		return models.Classification{}, err
	}
	start := time.Now()
	c, err := b.Classifier.Classify(ctx, text)
	if err != nil {
		log.Error().Err(err).Msg("Error classifying document")
		return models.Classification{}, wrap("classification", err)
	}
	log.Debug().Str("label", c.Label).Float64("score", c.Score).Dur("duration", time.Since(start)).Msg("Classified document")
	return c, nil
}

func (s *Service) ExtractEntities(ctx context.Context, text string) ([]models.Entity, error) {
	b, err := s.ready(ctx, "entity extraction")
	if err != nil {
		return nil, err
	}
	start := time.Now()
	entities, err := b.Entities.ExtractEntities(ctx, text)
	if err != nil {
		log.Error().Err(err).Msg("Error extracting entities")
		return nil, wrap("entity extraction", err)
	}
	log.Debug().Int("entities", len(entities)).Dur("duration", time.Since(start)).Msg("Extracted entities")
	return entities, nil
}

func (s *Service) Simplify(ctx context.Context, clause string) (string, error) {
	b, err := s.ready(ctx, "simplification")
	if err != nil {
		return "", err
	}
	out, err := b.Simplifier.Simplify(ctx, clause)
	if err != nil {
		log.Error().Err(err).Msg("Error simplifying clause")
		return "", wrap("simplification", err)
	}
	return out, nil
}

// Close releases the backends. Calls made after Close fail with ErrAnalysisFailure.
// Backends still being built by a concurrent Start are released by that Start.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	b := s.backends
	s.backends = nil
	s.mu.Unlock()
	return closeBackends(b)
}

func closeBackends(b *Backends) error {
	if b == nil {
		return nil
	}
	var errs []error
	for _, closeFn := range b.Closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Analyzer = (*Service)(nil)
