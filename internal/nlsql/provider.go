package nlsql

import (
	"fmt"
	"time"
)

// Settings carries the provider-independent backend configuration.
type Settings struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// NewCompleter builds the backend named by Provider.
func NewCompleter(s Settings) (Completer, error) {
	switch s.Provider {
	case "openai":
		return NewOpenAICompleter(OpenAIConfig{
			BaseURL:     s.BaseURL,
			APIKey:      s.APIKey,
			Model:       s.Model,
			Temperature: s.Temperature,
			Timeout:     s.Timeout,
		})
	case "gemini":
		return NewGeminiCompleter(GeminiConfig{
			BaseURL:     s.BaseURL,
			APIKey:      s.APIKey,
			Model:       s.Model,
			Temperature: s.Temperature,
			Timeout:     s.Timeout,
		})
	case "ollama":
		return NewOllamaCompleter(OllamaConfig{
			BaseURL:     s.BaseURL,
			Model:       s.Model,
			Temperature: s.Temperature,
			Timeout:     s.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown model provider %q", s.Provider)
	}
}
