package analysis

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"clausewise/internal/llmservice"
	"clausewise/internal/models"

	"github.com/tmc/langchaingo/llms"
)

var thinkRe = regexp.MustCompile(models.ThinkTag)

// LLMSimplifier rewrites a clause in plain English with a generation model.
// Sampling is on, so repeated calls give different rewrites.
type LLMSimplifier struct {
	llm         llms.Model
	prompt      string
	maxTokens   int
	temperature float64
}

// NewLLMSimplifier takes a prompt template with a single %s for the clause.
func NewLLMSimplifier(llm llms.Model, prompt string, maxTokens int, temperature float64) *LLMSimplifier {
	if prompt == "" {
		prompt = models.SimplifyPromptTemplate
	}
	return &LLMSimplifier{llm: llm, prompt: prompt, maxTokens: maxTokens, temperature: temperature}
}

func (s *LLMSimplifier) Simplify(ctx context.Context, clause string) (string, error) {
	if err := checkText("simplification", clause); err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(s.prompt, clause)
	out, err := llmservice.Complete(ctx, s.llm, prompt, s.maxTokens, s.temperature)
	if err != nil {
		return "", err
	}

	// completion-style models echo the prompt before the continuation
	out = strings.TrimPrefix(out, prompt)
	out = strings.TrimSpace(thinkRe.ReplaceAllString(out, ""))
	if out == "" {
		return "", errors.New("model returned an empty rewrite")
	}
	return out, nil
}
