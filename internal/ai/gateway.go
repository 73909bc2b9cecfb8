// Package ai provides a provider-agnostic text-generation gateway with a fallback chain.
package ai

import "context"

// TaskType defines the kind of AI task for logging and routing.
type TaskType int

const (
	TaskQuizGeneration TaskType = iota
	TaskExampleSentence
	TaskHealthCheck
)

func (t TaskType) String() string {
	switch t {
	case TaskQuizGeneration:
		return "quiz_generation"
	case TaskExampleSentence:
		return "example_sentence"
	case TaskHealthCheck:
		return "health_check"
	default:
		return "unknown"
	}
}

// ResponseFormatJSON asks providers that support it for a JSON object response.
const ResponseFormatJSON = "json_object"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to an AI completion.
type CompletionRequest struct {
	Messages       []Message `json:"messages"`
	Model          string    `json:"model,omitempty"`
	MaxTokens      int       `json:"max_tokens,omitempty"`
	Temperature    float64   `json:"temperature,omitempty"`
	ResponseFormat string    `json:"response_format,omitempty"`
	Task           TaskType  `json:"task,omitempty"`
}

// CompletionResponse is the output from an AI completion.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// TotalTokens returns the sum of input and output tokens.
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// Provider is the interface all AI providers must implement.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	HealthCheck(ctx context.Context) error
}

// splitSystem separates the system prompt from the conversation messages.
func splitSystem(messages []Message) (string, []Message) {
	var system string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			system = m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
