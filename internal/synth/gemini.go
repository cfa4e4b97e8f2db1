package synth

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// ModelError is a typed failure from the generative model, carrying a
// stable user-facing message that the boundary layer can render directly.
type ModelError struct {
	Reason  string
	Message string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model error (%s): %s", e.Reason, e.Message)
}

// Generator abstracts the model call so the synthesizer can be tested with
// a stub.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxOutputTokens int32) (string, error)
}

// GeminiGenerator talks to the Gemini API.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiGenerator builds the Gemini-backed Generator.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, temperature float32) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model, temperature: temperature}, nil
}

func safetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	out := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		out = append(out, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}
	return out
}

// Generate runs one model call and maps every failure mode onto a
// ModelError so callers never see an empty document as success.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, maxOutputTokens int32) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: maxOutputTokens,
		SafetySettings:  safetySettings(),
	})
	if err != nil {
		return "", transportError(err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", &ModelError{
			Reason:  "blocked",
			Message: fmt.Sprintf("Prompt blocked (%s).", resp.PromptFeedback.BlockReason),
		}
	}
	if len(resp.Candidates) == 0 {
		return "", &ModelError{Reason: "empty", Message: "AI returned empty response."}
	}

	switch resp.Candidates[0].FinishReason {
	case genai.FinishReasonStop, genai.FinishReasonUnspecified:
	case genai.FinishReasonMaxTokens:
		return "", &ModelError{Reason: "max_tokens", Message: "AI response cut short."}
	case genai.FinishReasonSafety:
		return "", &ModelError{Reason: "safety", Message: "Blocked by safety."}
	case genai.FinishReasonRecitation:
		return "", &ModelError{Reason: "recitation", Message: "Blocked (recitation)."}
	default:
		return "", &ModelError{
			Reason:  "finish",
			Message: fmt.Sprintf("AI failed (Reason: %s).", resp.Candidates[0].FinishReason),
		}
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &ModelError{Reason: "empty", Message: "AI returned empty response."}
	}
	return text, nil
}

// transportError maps well-known API failures onto stable messages; the
// raw error is preserved for anything unrecognized.
func transportError(err error) error {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "api key not valid"), strings.Contains(lower, "invalid api key"):
		return &ModelError{Reason: "auth", Message: "Invalid Gemini API key."}
	case strings.Contains(lower, "quota"), strings.Contains(lower, "rate limit"), strings.Contains(msg, "429"):
		return &ModelError{Reason: "quota", Message: "AI model rate limit exceeded. Please try again later."}
	case strings.Contains(lower, "token limit"):
		return &ModelError{Reason: "too_large", Message: "Content too large for AI model. Try fewer sources or quick mode."}
	}
	return &ModelError{Reason: "transport", Message: fmt.Sprintf("AI communication error: %v", err)}
}
