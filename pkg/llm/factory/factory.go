package factory

import (
	"fmt"
	"net/http"

	"ai-chat-session-be/pkg/llm"
	"ai-chat-session-be/pkg/llm/ollama"
	"ai-chat-session-be/pkg/llm/openaicompat"
)

// NewLLMProvider builds the upstream client. modelName is only a default; the
// completion proxy always pins the session's model per call.
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "openai", "":
		if baseURL == "" {
			return nil, fmt.Errorf("openai provider requires a base URL")
		}
		return openaicompat.New(baseURL, apiKey, modelName, openaicompat.WithHTTPClient(&http.Client{})), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
