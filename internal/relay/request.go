package relay

import (
	"strings"

	"github.com/gaspardpetit/genrelay/internal/config"
)

// params resolves the optional sampling fields against the configured
// defaults and rejects values that cannot be sent.
func (r *Relay) params(req GenerationRequest) (maxTokens int, temperature float64, err error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return 0, 0, invalid("prompt must not be empty")
	}
	maxTokens = r.cfg.DefaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	if maxTokens <= 0 {
		return 0, 0, invalid("max_tokens must be positive, got %d", maxTokens)
	}
	temperature = r.cfg.DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	return maxTokens, temperature, nil
}

// messages builds the upstream sequence. History mode appends the prompt to
// the caller's turns; stateless mode ignores them and opens with the system
// turn. The result never aliases req.History.
func (r *Relay) messages(req GenerationRequest) []ConversationTurn {
	user := ConversationTurn{Role: RoleUser, Content: req.Prompt}
	if r.cfg.Mode == config.ModeHistory {
		msgs := make([]ConversationTurn, 0, len(req.History)+2)
		msgs = append(msgs, req.History...)
		return append(msgs, user)
	}
	system := r.cfg.SystemPrompt
	if system == "" {
		system = config.DefaultSystemPrompt
	}
	return []ConversationTurn{{Role: RoleSystem, Content: system}, user}
}
