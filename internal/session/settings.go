// Package session carries the per-conversation context and the persisted
// user settings it is seeded from.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anybrain-ai/anybrain/internal/core/llm"
)

// Store persists user settings as a flat JSON key-value file: per-provider
// API keys plus the last provider/model used. Saves merge into whatever
// is already on disk, so switching providers never wipes another
// provider's key.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the persisted settings; a missing or unreadable file is an
// empty map, matching first-run behavior.
func (s *Store) Load() map[string]string {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return map[string]string{}
	}
	settings := map[string]string{}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return map[string]string{}
	}
	return settings
}

// Save merges the given entries over the persisted ones and writes the
// result back.
func (s *Store) Save(update map[string]string) error {
	settings := s.Load()
	for k, v := range update {
		settings[k] = v
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("settings dir: %w", err)
	}
	raw, err := json.MarshalIndent(settings, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// APIKey returns the stored key for a provider variant, or "" if the
// variant needs none or none is stored.
func (s *Store) APIKey(kind llm.ProviderKind) string {
	key := kind.SettingsKey()
	if key == "" {
		return ""
	}
	return s.Load()[key]
}

const (
	keyLastProvider = "last_provider"
	keyLastModel    = "last_model"
	keySystemPrompt = "system_prompt"
)

// DefaultSystemPrompt seeds new sessions until the user overrides it.
const DefaultSystemPrompt = "You are AnyBrain, an expert assistant."

var ErrNoAPIKey = errors.New("no API key configured for provider")

// NewSession builds a session from the persisted settings, falling back
// to Google Gemini and its default model on first run.
func (s *Store) NewSession() (*Session, error) {
	settings := s.Load()

	kind := llm.GoogleGemini
	if name, ok := settings[keyLastProvider]; ok {
		parsed, err := llm.ParseProviderKind(name)
		if err == nil {
			kind = parsed
		}
	}

	provider, err := llm.NewProvider(kind, settings[keyLastModel], s.APIKey(kind))
	if err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			return nil, fmt.Errorf("%w: %s (set %q in %s)", ErrNoAPIKey, kind, kind.SettingsKey(), s.path)
		}
		return nil, err
	}

	prompt := settings[keySystemPrompt]
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}

	return &Session{Provider: provider, SystemPrompt: prompt, store: s}, nil
}

// KeylessSession builds a session on the local Ollama provider, which
// needs no API key. Used as the fallback when no key is configured yet.
func (s *Store) KeylessSession() (*Session, error) {
	provider, err := llm.NewProvider(llm.OllamaLocal, "", "")
	if err != nil {
		return nil, err
	}
	return &Session{Provider: provider, SystemPrompt: DefaultSystemPrompt, store: s}, nil
}
