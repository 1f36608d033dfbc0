// Package llm holds the embedding adapters and the chat-completion
// provider layer used by the chat consumer.
package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// ProviderKind is the closed set of supported chat providers. All of
// them speak the OpenAI chat-completions protocol; the variant carries
// the base URL and the settings key its API key is stored under. A kind
// is selected once per session and passed as a value, never re-matched
// on strings.
type ProviderKind int

const (
	GoogleGemini ProviderKind = iota
	OllamaLocal
	DeepSeek
	OpenAI
)

func (k ProviderKind) String() string {
	switch k {
	case GoogleGemini:
		return "Google Gemini"
	case OllamaLocal:
		return "Ollama (Local)"
	case DeepSeek:
		return "DeepSeek"
	case OpenAI:
		return "OpenAI (ChatGPT)"
	}
	return fmt.Sprintf("ProviderKind(%d)", int(k))
}

// ParseProviderKind maps a stored provider name back to its variant.
func ParseProviderKind(name string) (ProviderKind, error) {
	for _, k := range []ProviderKind{GoogleGemini, OllamaLocal, DeepSeek, OpenAI} {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown provider %q", name)
}

// BaseURL is the OpenAI-compatible endpoint of the variant.
func (k ProviderKind) BaseURL() string {
	switch k {
	case GoogleGemini:
		return "https://generativelanguage.googleapis.com/v1beta/openai/"
	case OllamaLocal:
		return "http://localhost:11434/v1"
	case DeepSeek:
		return "https://api.deepseek.com"
	default:
		return "https://api.openai.com/v1"
	}
}

// SettingsKey is where the variant's API key lives in the persisted
// settings; empty means the variant needs no key.
func (k ProviderKind) SettingsKey() string {
	switch k {
	case GoogleGemini:
		return "google_key"
	case DeepSeek:
		return "deepseek_key"
	case OpenAI:
		return "openai_key"
	}
	return ""
}

// RequiresKey reports whether the variant refuses to run without an API
// key. Ollama is local and keyless.
func (k ProviderKind) RequiresKey() bool {
	return k != OllamaLocal
}

// DefaultModel is the model preselected when the user has not chosen one.
func (k ProviderKind) DefaultModel() string {
	if k == OllamaLocal {
		return "llama3.1"
	}
	return "gemini-1.5-flash"
}

// Provider is a selected variant plus its credentials, ready to open
// chat streams.
type Provider struct {
	Kind   ProviderKind
	Model  string
	APIKey string
}

// NewProvider validates the key requirement and fills the model default.
func NewProvider(kind ProviderKind, model, apiKey string) (Provider, error) {
	if kind == OllamaLocal && apiKey == "" {
		// The protocol wants a non-empty bearer token even locally.
		apiKey = "ollama"
	}
	if kind.RequiresKey() && apiKey == "" {
		return Provider{}, fmt.Errorf("provider %s: %w", kind, ErrMissingAPIKey)
	}
	if model == "" {
		model = kind.DefaultModel()
	}
	return Provider{Kind: kind, Model: model, APIKey: apiKey}, nil
}

var ErrMissingAPIKey = fmt.Errorf("missing API key")

func (p Provider) client() *openai.Client {
	cfg := openai.DefaultConfig(p.APIKey)
	cfg.BaseURL = p.Kind.BaseURL()
	return openai.NewClientWithConfig(cfg)
}

// Message is one turn of chat history.
type Message struct {
	Role    string // "system", "user" or "assistant"
	Content string
}

// ChatStream opens a streaming completion and returns the lazy token
// sequence. The caller must Close the stream; closing early tears down
// the underlying HTTP stream instead of letting it run unread.
func (p Provider) ChatStream(ctx context.Context, messages []Message) (*TokenStream, error) {
	req := openai.ChatCompletionRequest{
		Model:  p.Model,
		Stream: true,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	stream, err := p.client().CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s chat stream: %w", p.Kind, err)
	}
	return &TokenStream{stream: stream}, nil
}
