package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHFServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, req hfRequest)) *HFClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req hfRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler(w, r, req)
	}))
	t.Cleanup(srv.Close)
	return NewHFClient(srv.URL+"/", "secret", 5*time.Second)
}

func TestHFZeroShotPipelineResponse(t *testing.T) {
	client := newHFServer(t, func(w http.ResponseWriter, r *http.Request, req hfRequest) {
		assert.Equal(t, "/models/facebook/bart-large-mnli", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "This NDA binds the parties.", req.Inputs)
		assert.ElementsMatch(t, []any{"NDA", "Lease"}, req.Parameters["candidate_labels"])
		_, _ = w.Write([]byte(`{"sequence":"x","labels":["Lease","NDA"],"scores":[0.2,0.8]}`))
	})

	z := NewHFZeroShot(client, "facebook/bart-large-mnli", []string{"NDA", "Lease"}, "")
	c, err := z.Classify(context.Background(), "This NDA binds the parties.")
	require.NoError(t, err)
	assert.Equal(t, "NDA", c.Label)
	assert.InDelta(t, 0.8, c.Score, 1e-9)
	require.Len(t, c.AllLabels, 2)
	assert.Equal(t, "Lease", c.AllLabels[1].Label)
}

func TestHFZeroShotListResponse(t *testing.T) {
	client := newHFServer(t, func(w http.ResponseWriter, r *http.Request, req hfRequest) {
		assert.Equal(t, "This example is {}.", req.Parameters["hypothesis_template"])
		_, _ = w.Write([]byte(`[{"label":"Other","score":0.1},{"label":"Lease","score":0.7},{"label":"NDA","score":0.2}]`))
	})

	z := NewHFZeroShot(client, "m", []string{"NDA", "Lease", "Other"}, "This example is {}.")
	c, err := z.Classify(context.Background(), "The tenant shall pay rent.")
	require.NoError(t, err)
	assert.Equal(t, "Lease", c.Label)
	assert.Equal(t, []string{"Lease", "NDA", "Other"}, []string{c.AllLabels[0].Label, c.AllLabels[1].Label, c.AllLabels[2].Label})
}

func TestHFZeroShotInvalidInput(t *testing.T) {
	z := NewHFZeroShot(NewHFClient("http://127.0.0.1:0", "", time.Second), "m", []string{"NDA"}, "")
	_, err := z.Classify(context.Background(), "  \n")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrAnalysisFailure)

	z = NewHFZeroShot(NewHFClient("http://127.0.0.1:0", "", time.Second), "m", nil, "")
	_, err = z.Classify(context.Background(), "text")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHFErrorStatus(t *testing.T) {
	client := newHFServer(t, func(w http.ResponseWriter, r *http.Request, req hfRequest) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Model is currently loading"}`))
	})

	z := NewHFZeroShot(client, "m", []string{"NDA"}, "")
	_, err := z.Classify(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Model is currently loading")
	assert.Contains(t, err.Error(), "503")
}

func TestHFTokenClassifier(t *testing.T) {
	client := newHFServer(t, func(w http.ResponseWriter, r *http.Request, req hfRequest) {
		assert.Equal(t, "/models/dslim/bert-base-NER", r.URL.Path)
		assert.Equal(t, "simple", req.Parameters["aggregation_strategy"])
		_, _ = w.Write([]byte(`[
			{"entity_group":"LOC","word":"London","start":30,"end":36,"score":0.99},
			{"entity_group":"ORG","word":"Acme Corp","start":0,"end":9,"score":0.95},
			{"entity":"B-PER","word":"Jane","start":14,"end":18,"score":0.9}
		]`))
	})

	n := NewHFTokenClassifier(client, "dslim/bert-base-NER", "simple")
	entities, err := n.ExtractEntities(context.Background(), "Acme Corp and Jane Doe meet in London")
	require.NoError(t, err)
	require.Len(t, entities, 3)
	assert.Equal(t, "Acme Corp", entities[0].Text)
	assert.Equal(t, "ORG", entities[0].Type)
	assert.Equal(t, "B-PER", entities[1].Type)
	assert.Equal(t, 30, entities[2].Start)
	assert.Equal(t, 36, entities[2].End)
	assert.InDelta(t, 0.99, entities[2].Confidence, 1e-9)
}

func TestDecodeZeroShotMismatch(t *testing.T) {
	_, err := decodeZeroShot(json.RawMessage(`{"labels":["a","b"],"scores":[1]}`))
	assert.Error(t, err)
}
