package chromemdb

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
)

// LabelIndex keeps the candidate classification labels in an in-memory
// chromem-go collection so a document can be ranked against them.
type LabelIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
}

// NewLabelIndex creates an in-memory collection whose embeddings come from embed.
func NewLabelIndex(collectionName string, embed chromem.EmbeddingFunc) (*LabelIndex, error) {
	db := chromem.NewDB()
	c, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	return &LabelIndex{db: db, collection: c, name: collectionName}, nil
}

// AddLabels embeds and stores every label. Label order is kept in the metadata.
func (i *LabelIndex) AddLabels(ctx context.Context, labels []string) error {
	docs := make([]chromem.Document, len(labels))
	for n, label := range labels {
		docs[n] = chromem.Document{
			ID:       fmt.Sprintf("label-%d", n),
			Content:  label,
			Metadata: map[string]string{"label": label},
		}
	}
	if err := i.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add labels: %w", err)
	}
	log.Debug().Int("labels", len(labels)).Str("collection", i.name).Msg("Indexed labels")
	return nil
}

// Count returns the number of stored labels.
func (i *LabelIndex) Count() int {
	return i.collection.Count()
}

// Rank returns every label ordered by similarity to text, most similar first.
func (i *LabelIndex) Rank(ctx context.Context, text string) ([]chromem.Result, error) {
	n := i.collection.Count()
	if n == 0 {
		return nil, fmt.Errorf("collection %s is empty", i.name)
	}
	results, err := i.collection.Query(ctx, text, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	return results, nil
}

// Close drops the collection.
func (i *LabelIndex) Close() error {
	if err := i.db.DeleteCollection(i.name); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}
