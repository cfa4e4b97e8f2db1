// Package synth turns the query and the selected sources into a cited
// markdown document via a generative model.
package synth

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/skimlab/deepresearch/internal/config"
	"github.com/skimlab/deepresearch/internal/models"
)

// Per-pass output budgets for deep generation. Deep articles are produced
// in three passes so no single response hits the output-token ceiling.
const (
	deepStructureTokens = 2000
	deepBodyTokens      = 3000
	deepClosingTokens   = 2000
)

// Synthesizer drives the model once per request (three calls for a deep
// article count as one logical synthesis).
type Synthesizer struct {
	gen Generator
	cfg config.SynthesisConfig
	log *zap.Logger
}

func New(gen Generator, cfg config.SynthesisConfig, log *zap.Logger) *Synthesizer {
	return &Synthesizer{gen: gen, cfg: cfg, log: log}
}

// Synthesize returns the raw markdown answer. Any model failure comes back
// as a *ModelError; an empty document is never returned as success.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, depth models.Depth, sources []models.SelectedSource) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	bounded := fitBudget(sources, s.cfg.MaxContextChars)
	contextStr := buildContext(bounded)
	s.log.Info("synthesizing",
		zap.String("depth", string(depth)),
		zap.Int("sources", len(bounded)),
		zap.Int("context_chars", len(contextStr)))

	if depth == models.DepthDeep {
		return s.deep(ctx, query, contextStr)
	}

	text, err := s.gen.Generate(ctx, quickPrompt(query, contextStr), s.cfg.MaxOutputTokens)
	if err != nil {
		return "", err
	}
	return text, nil
}

// deep generates the article frame, body, and closing sections separately
// and concatenates them.
func (s *Synthesizer) deep(ctx context.Context, query, contextStr string) (string, error) {
	structure, err := s.gen.Generate(ctx, deepStructurePrompt(query, contextStr), deepStructureTokens)
	if err != nil {
		return "", err
	}

	parts := []string{structure}
	if body, err := s.gen.Generate(ctx, deepBodyPrompt(query, contextStr), deepBodyTokens); err == nil {
		parts = append(parts, body)
	} else {
		s.log.Warn("deep body pass failed, continuing with partial article", zap.Error(err))
	}
	if closing, err := s.gen.Generate(ctx, deepClosingPrompt(query, contextStr), deepClosingTokens); err == nil {
		parts = append(parts, closing)
	} else {
		s.log.Warn("deep closing pass failed, continuing with partial article", zap.Error(err))
	}
	return strings.Join(parts, "\n\n"), nil
}
