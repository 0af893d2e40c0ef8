package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

const (
	// Context budgets for the local pipeline.
	summaryContextBudget  = 3000
	questionContextBudget = 2500

	summaryMinTokens  = 50
	summaryMaxTokens  = 150
	questionMinTokens = 30
	questionMaxTokens = 100
)

// Generator runs a loaded local language model.
type Generator interface {
	Generate(ctx context.Context, prompt string, minTokens, maxTokens int) (string, error)
}

// LocalBackend answers questions with a locally loaded model, falling back
// to extractive sentence matching when generation fails. The model load is
// a one-time asynchronous step; Ask before load completion fails with
// ModelNotReady.
type LocalBackend struct {
	loadFn func(ctx context.Context) (Generator, error)

	mu     sync.Mutex
	loaded bool
	gen    Generator
}

// NewLocalBackend wires the load step. loadFn may be nil, in which case the
// backend never becomes ready.
func NewLocalBackend(loadFn func(ctx context.Context) (Generator, error)) *LocalBackend {
	return &LocalBackend{loadFn: loadFn}
}

// Load performs the one-time model load. Subsequent calls are no-ops.
func (b *LocalBackend) Load(ctx context.Context) error {
	b.mu.Lock()
	if b.loaded || b.loadFn == nil {
		b.mu.Unlock()
		if b.loadFn == nil {
			return fmt.Errorf("no local model configured")
		}
		return nil
	}
	loadFn := b.loadFn
	b.mu.Unlock()

	gen, err := loadFn(ctx)
	if err != nil {
		return fmt.Errorf("load local model: %w", err)
	}

	b.mu.Lock()
	b.gen = gen
	b.loaded = true
	b.mu.Unlock()
	return nil
}

// Ready reports whether the model has finished loading.
func (b *LocalBackend) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

// Ask classifies the query as a summarization or question-answering request
// and runs the local model with the matching context budget and output
// bounds. Any generation failure falls back to the keyword extractor.
func (b *LocalBackend) Ask(ctx context.Context, query, pageContext string) (string, error) {
	b.mu.Lock()
	gen, loaded := b.gen, b.loaded
	b.mu.Unlock()

	if !loaded {
		return "", errf(KindModelNotReady, "local model is still loading")
	}
	if strings.TrimSpace(pageContext) == "" {
		return "", errf(KindNoContext, "no page text available for this request")
	}

	var prompt string
	var minTokens, maxTokens int
	if isSummarizeQuery(query) {
		prompt = truncate(pageContext, summaryContextBudget)
		minTokens, maxTokens = summaryMinTokens, summaryMaxTokens
	} else {
		prompt = query + "\n\n" + truncate(pageContext, questionContextBudget)
		minTokens, maxTokens = questionMinTokens, questionMaxTokens
	}

	out, err := gen.Generate(ctx, prompt, minTokens, maxTokens)
	if err != nil || strings.TrimSpace(out) == "" {
		return ExtractAnswer(query, pageContext), nil
	}
	return out, nil
}

// isSummarizeQuery sniffs for summarization intent.
func isSummarizeQuery(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(q, "summar") ||
		strings.Contains(q, "main points") ||
		strings.Contains(q, "key concepts")
}
