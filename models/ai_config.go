package models

// AIConfig holds the settings used when calling the text-generation
// collaborator.
type AIConfig struct {
	OpenAIKey     string
	OpenAIModel   string
	BaseURL       string
	SystemContext string
	MaxTokens     int
	Temperature   float64
	TimeoutMs     int
}
