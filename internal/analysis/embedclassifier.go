package analysis

import (
	"context"
	"fmt"

	"clausewise/internal/chromemdb"
	"clausewise/internal/models"

	"github.com/tmc/langchaingo/embeddings"
)

// EmbeddingClassifier ranks the candidate labels by cosine similarity between the
// document embedding and each label embedding.
type EmbeddingClassifier struct {
	index *chromemdb.LabelIndex
}

// NewEmbeddingClassifier embeds every label once up front.
func NewEmbeddingClassifier(ctx context.Context, embedder embeddings.Embedder, labels []string) (*EmbeddingClassifier, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no candidate labels", ErrInvalidInput)
	}
	index, err := chromemdb.NewLabelIndex("labels", embedder.EmbedQuery)
	if err != nil {
		return nil, err
	}
	if err := index.AddLabels(ctx, labels); err != nil {
		return nil, err
	}
	return &EmbeddingClassifier{index: index}, nil
}

func (c *EmbeddingClassifier) Classify(ctx context.Context, text string) (models.Classification, error) {
	if err := checkText("classification", text); err != nil {
		return models.Classification{}, err
	}
	results, err := c.index.Rank(ctx, text)
	if err != nil {
		return models.Classification{}, err
	}
	scores := make([]models.LabelScore, len(results))
	for i, r := range results {
		scores[i] = models.LabelScore{Label: r.Metadata["label"], Score: float64(r.Similarity)}
	}
	return newClassification(scores)
}

func (c *EmbeddingClassifier) Close() error {
	return c.index.Close()
}
