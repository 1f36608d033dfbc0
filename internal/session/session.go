package session

import (
	"github.com/anybrain-ai/anybrain/internal/core/llm"
)

// Session is the explicit per-conversation context: the selected
// provider, the system prompt and the accumulated history. It is passed
// by reference into whatever handles a request; nothing here lives in
// package-level state.
type Session struct {
	Provider     llm.Provider
	SystemPrompt string
	History      []llm.Message

	store *Store
}

// Messages assembles the chat-completion message list for the next
// request: system prompt, prior turns, then the new user content.
func (s *Session) Messages(userContent string) []llm.Message {
	msgs := make([]llm.Message, 0, len(s.History)+2)
	if s.SystemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: "system", Content: s.SystemPrompt})
	}
	msgs = append(msgs, s.History...)
	msgs = append(msgs, llm.Message{Role: "user", Content: userContent})
	return msgs
}

// Remember appends a completed exchange to the history.
func (s *Session) Remember(userContent, assistantContent string) {
	s.History = append(s.History,
		llm.Message{Role: "user", Content: userContent},
		llm.Message{Role: "assistant", Content: assistantContent},
	)
}

// SwitchProvider reselects the provider variant, reusing the stored key
// for that variant, and persists the choice as the new default.
func (s *Session) SwitchProvider(kind llm.ProviderKind, model string) error {
	provider, err := llm.NewProvider(kind, model, s.store.APIKey(kind))
	if err != nil {
		return err
	}
	s.Provider = provider
	return s.store.Save(map[string]string{
		keyLastProvider: kind.String(),
		keyLastModel:    provider.Model,
	})
}
