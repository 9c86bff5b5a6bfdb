package ports

import "context"

// GenerationRequest is the input contract of the text-generation
// collaborator. Output is free-form text; coercion to JSON happens at the
// ai.StructuredClient boundary, not here.
type GenerationRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	TimeoutMs    int
}

// TextGenerator is the boundary to the AI collaborator. A timeout is a
// normal failure and surfaces through the same error path as any other
// generation failure.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
