package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"clausewise/internal/models"

	"github.com/rs/zerolog/log"
)

// HFClient calls the Hugging Face inference API.
type HFClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHFClient(baseURL, token string, timeout time.Duration) *HFClient {
	return &HFClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type hfRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type hfError struct {
	Error string `json:"error"`
}

func (c *HFClient) infer(ctx context.Context, model string, req hfRequest, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	url := c.baseURL + "/models/" + model
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Wait-For-Model", "true")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	log.Debug().Str("model", model).Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("Inference call")

	if resp.StatusCode != http.StatusOK {
		var he hfError
		if json.Unmarshal(b, &he) == nil && he.Error != "" {
			return fmt.Errorf("model %s: %d, %s", model, resp.StatusCode, he.Error)
		}
		return fmt.Errorf("model %s: %d, %s", model, resp.StatusCode, string(b))
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("model %s: decode response: %w", model, err)
	}
	return nil
}

// HFZeroShot classifies text against a fixed label set with a zero-shot NLI model.
type HFZeroShot struct {
	client             *HFClient
	model              string
	labels             []string
	hypothesisTemplate string
}

func NewHFZeroShot(client *HFClient, model string, labels []string, hypothesisTemplate string) *HFZeroShot {
	return &HFZeroShot{
		client:             client,
		model:              model,
		labels:             append([]string(nil), labels...),
		hypothesisTemplate: hypothesisTemplate,
	}
}

func (z *HFZeroShot) Classify(ctx context.Context, text string) (models.Classification, error) {
	if err := checkText("classification", text); err != nil {
		return models.Classification{}, err
	}
	if len(z.labels) == 0 {
		return models.Classification{}, &AnalysisError{Op: "classification", Err: fmt.Errorf("%w: no candidate labels", ErrInvalidInput)}
	}

	params := map[string]any{"candidate_labels": z.labels}
	if z.hypothesisTemplate != "" {
		params["hypothesis_template"] = z.hypothesisTemplate
	}

	var raw json.RawMessage
	if err := z.client.infer(ctx, z.model, hfRequest{Inputs: text, Parameters: params}, &raw); err != nil {
		return models.Classification{}, err
	}
	scores, err := decodeZeroShot(raw)
	if err != nil {
		return models.Classification{}, err
	}
	return newClassification(scores)
}

// decodeZeroShot accepts both the pipeline form {"labels":[...],"scores":[...]}
// and the list form [{"label":...,"score":...}].
func decodeZeroShot(raw json.RawMessage) ([]models.LabelScore, error) {
	var list []models.LabelScore
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var pipeline struct {
		Labels []string  `json:"labels"`
		Scores []float64 `json:"scores"`
	}
	if err := json.Unmarshal(raw, &pipeline); err != nil {
		return nil, fmt.Errorf("decode zero-shot response: %w", err)
	}
	if len(pipeline.Labels) != len(pipeline.Scores) {
		return nil, fmt.Errorf("zero-shot response has %d labels and %d scores", len(pipeline.Labels), len(pipeline.Scores))
	}
	list = make([]models.LabelScore, len(pipeline.Labels))
	for i := range pipeline.Labels {
		list[i] = models.LabelScore{Label: pipeline.Labels[i], Score: pipeline.Scores[i]}
	}
	return list, nil
}

func newClassification(scores []models.LabelScore) (models.Classification, error) {
	if len(scores) == 0 {
		return models.Classification{}, fmt.Errorf("model returned no labels")
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	return models.Classification{
		Label:     scores[0].Label,
		Score:     scores[0].Score,
		AllLabels: scores,
	}, nil
}

// HFTokenClassifier extracts named entities with a token-classification model.
type HFTokenClassifier struct {
	client      *HFClient
	model       string
	aggregation string
}

func NewHFTokenClassifier(client *HFClient, model, aggregation string) *HFTokenClassifier {
	return &HFTokenClassifier{client: client, model: model, aggregation: aggregation}
}

type hfEntity struct {
	EntityGroup string  `json:"entity_group"`
	Entity      string  `json:"entity"`
	Word        string  `json:"word"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
	Score       float64 `json:"score"`
}

func (n *HFTokenClassifier) ExtractEntities(ctx context.Context, text string) ([]models.Entity, error) {
	if err := checkText("entity extraction", text); err != nil {
		return nil, err
	}

	var params map[string]any
	if n.aggregation != "" {
		params = map[string]any{"aggregation_strategy": n.aggregation}
	}
	var raw []hfEntity
	if err := n.client.infer(ctx, n.model, hfRequest{Inputs: text, Parameters: params}, &raw); err != nil {
		return nil, err
	}

	entities := make([]models.Entity, 0, len(raw))
	for _, e := range raw {
		typ := e.EntityGroup
		if typ == "" {
			typ = e.Entity
		}
		entities = append(entities, models.Entity{
			Text:       e.Word,
			Type:       typ,
			Start:      e.Start,
			End:        e.End,
			Confidence: e.Score,
		})
	}
	sort.SliceStable(entities, func(i, j int) bool { return entities[i].Start < entities[j].Start })
	return entities, nil
}
