package ai

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"ideaforge/internal/errors"
	"ideaforge/models"
	"ideaforge/ports"
)

// StructuredClient provides typed JSON responses from text-generation calls.
// All response normalization lives here: business logic only ever sees a
// parsed *T or an AI_RESPONSE_ERROR.
type StructuredClient[T any] struct {
	Generator     ports.TextGenerator
	SystemContext string
	Temperature   float64
	TimeoutMs     int
}

// NewStructuredClient creates a typed client over the generation port.
func NewStructuredClient[T any](generator ports.TextGenerator, config *models.AIConfig, systemContext string) *StructuredClient[T] {
	if systemContext == "" {
		systemContext = config.SystemContext
	}
	return &StructuredClient[T]{
		Generator:     generator,
		SystemContext: systemContext,
		Temperature:   config.Temperature,
		TimeoutMs:     config.TimeoutMs,
	}
}

// GetJSONResponse makes a generation call and coerces the output into T.
// Coercion order: direct parse, then the first fenced code block, then
// failure. Anything else is an AI_RESPONSE_ERROR.
func (c *StructuredClient[T]) GetJSONResponse(ctx context.Context, userPrompt string) (*T, error) {
	raw, err := c.Generator.Generate(ctx, ports.GenerationRequest{
		SystemPrompt: c.SystemContext,
		UserPrompt:   userPrompt,
		Temperature:  c.Temperature,
		TimeoutMs:    c.TimeoutMs,
	})
	if err != nil {
		return nil, errors.ExternalServiceError("text generation", err)
	}

	var result T
	content := strings.TrimSpace(raw)

	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return &result, nil
	}

	fenced, ok := extractFencedBlock(content)
	if !ok {
		log.Printf("[StructuredClient] response is neither JSON nor fenced (%d bytes)", len(content))
		return nil, errors.AIResponse("response could not be coerced to JSON", nil)
	}
	if err := json.Unmarshal([]byte(fenced), &result); err != nil {
		log.Printf("[StructuredClient] fenced block failed to parse: %v", err)
		return nil, errors.AIResponse("fenced block is not valid JSON", err)
	}
	return &result, nil
}

// extractFencedBlock returns the body of the first ``` fenced block,
// tolerating a language tag on the opening fence.
func extractFencedBlock(content string) (string, bool) {
	start := strings.Index(content, "```")
	if start < 0 {
		return "", false
	}
	rest := content[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		tag := strings.TrimSpace(rest[:nl])
		if tag == "" || len(tag) <= 10 && !strings.ContainsAny(tag, "{}[]") {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	body := strings.TrimSpace(rest[:end])
	if body == "" {
		return "", false
	}
	return body, true
}
