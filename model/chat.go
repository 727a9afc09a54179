package model

// Chat roles used by the completion client.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// OpenAIChatMessage is one turn of a chat completion conversation.
type OpenAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAIChatRequest is the body sent to /chat/completions.
type OpenAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []OpenAIChatMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
	Stream      bool                `json:"stream"`
}

type ChatChoice struct {
	Message      OpenAIChatMessage `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

// ChatAPIError is the error object some providers return with a 200.
type ChatAPIError struct {
	Message string `json:"message"`
	Code    any    `json:"code,omitempty"`
}

// OpenAIChatResponse keeps only the fields the client reads.
type OpenAIChatResponse struct {
	Choices []ChatChoice  `json:"choices"`
	Error   *ChatAPIError `json:"error,omitempty"`
}

// AskRequest is the body of POST /api/ask. Message is left untyped so the
// handler can tell a missing field from a non-string one.
type AskRequest struct {
	Message interface{} `json:"message"`
}

// AskResponse carries the completion text.
type AskResponse struct {
	Content string `json:"content"`
}

// ArtistRecommendation is one suggested artist parsed from a completion.
type ArtistRecommendation struct {
	Name  string `json:"name"`
	Genre string `json:"genre"`
}
