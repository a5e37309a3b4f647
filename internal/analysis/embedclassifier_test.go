package analysis

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := f.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	v, ok := f.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return v, nil
}

func TestEmbeddingClassifier(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"NDA":                       {1, 0, 0},
		"Lease":                     {0, 1, 0},
		"Other":                     {0, 0, 1},
		"The landlord rents a flat": {0.1, 0.95, 0.1},
	}}
	ctx := context.Background()

	c, err := NewEmbeddingClassifier(ctx, embedder, []string{"NDA", "Lease", "Other"})
	require.NoError(t, err)
	defer c.Close()

	result, err := c.Classify(ctx, "The landlord rents a flat")
	require.NoError(t, err)
	assert.Equal(t, "Lease", result.Label)
	require.Len(t, result.AllLabels, 3)
	assert.Equal(t, result.Score, result.AllLabels[0].Score)
	assert.GreaterOrEqual(t, result.AllLabels[1].Score, result.AllLabels[2].Score)

	_, err = c.Classify(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = c.Classify(ctx, "unknown text")
	assert.Error(t, err)
}

func TestEmbeddingClassifierNoLabels(t *testing.T) {
	_, err := NewEmbeddingClassifier(context.Background(), &fakeEmbedder{}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
