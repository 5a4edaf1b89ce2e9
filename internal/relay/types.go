package relay

// Role tags a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one role-tagged message.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Usage is the upstream token accounting object, passed through verbatim.
type Usage map[string]any

// GenerationRequest is a single prompt plus optional history and sampling
// parameters. Nil MaxTokens and Temperature take the configured defaults.
type GenerationRequest struct {
	Prompt      string             `json:"prompt"`
	History     []ConversationTurn `json:"history,omitempty"`
	MaxTokens   *int               `json:"max_tokens,omitempty"`
	Temperature *float64           `json:"temperature,omitempty"`
}

// GenerationResult is what the relay hands back to its caller. History is
// only populated in history mode.
type GenerationResult struct {
	GeneratedText string             `json:"generated_text"`
	Usage         Usage              `json:"usage"`
	History       []ConversationTurn `json:"history,omitempty"`
}

// completionRequest is the upstream wire body.
type completionRequest struct {
	Messages    []ConversationTurn `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
}

// completionResponse keeps pointers so a missing message or content can be
// told apart from an empty string.
type completionResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// Int and Float64 return pointers for the optional request fields.
func Int(v int) *int { return &v }

func Float64(v float64) *float64 { return &v }
