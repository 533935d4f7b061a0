// Package provider fixes the backend platform at process start and mints a
// fresh completion client for every session. Keeping the client (and with
// it the mutable model identifier) per-session means concurrent /model
// commands cannot race on shared state.
package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/retrogate/retrogate/internal/consts"
	"github.com/retrogate/retrogate/internal/llm"
	"github.com/retrogate/retrogate/internal/securemem"
)

// Display names shown in banners and error messages.
var platformDisplayNames = map[string]string{
	"google":    "Gemini",
	"openai":    "OpenAI",
	"anthropic": "Claude",
}

// Manager holds the platform selection made at startup. It is shared
// read-only across all sessions.
type Manager struct {
	platform     string // canonical name
	displayName  string
	apiKey       *securemem.Credential
	defaultModel string
}

// NewManager validates the platform name and resolves its credential from
// the environment. A missing credential or unknown platform is a fatal
// startup condition: the gateway must not begin listening without a usable
// backend.
func NewManager(platformName, defaultModel string) (*Manager, error) {
	canonical := canonicalPlatformName(platformName)

	if _, ok := platformEnvVars[canonical]; !ok {
		return nil, fmt.Errorf("unsupported platform: %q (supported: google, openai, anthropic)", platformName)
	}

	apiKey := resolveAPIKey(canonical)
	if apiKey == "" {
		return nil, fmt.Errorf("no API key for platform %s: set one of %s",
			canonical, strings.Join(EnvVarHints(canonical), ", "))
	}

	m := &Manager{
		platform:    canonical,
		displayName: platformDisplayNames[canonical],
		apiKey:      securemem.NewCredential(apiKey),
	}

	defaultModel = strings.TrimSpace(defaultModel)
	if defaultModel == "" {
		switch canonical {
		case "google":
			defaultModel = consts.DefaultGoogleModel
		case "openai":
			defaultModel = consts.DefaultOpenAIModel
		case "anthropic":
			defaultModel = consts.DefaultAnthropicModel
		}
	}
	m.defaultModel = defaultModel

	return m, nil
}

// Platform returns the canonical platform name.
func (m *Manager) Platform() string {
	return m.platform
}

// DisplayName returns the human-facing platform name for banners.
func (m *Manager) DisplayName() string {
	return m.displayName
}

// DefaultModel returns the model new sessions start with.
func (m *Manager) DefaultModel() string {
	return m.defaultModel
}

// NewClient creates a completion client for one session. Each session gets
// its own client so model switches and stateful chat handles stay isolated.
func (m *Manager) NewClient(ctx context.Context) (llm.Client, error) {
	apiKey := m.apiKey.Reveal()
	switch m.platform {
	case "google":
		return llm.NewGoogleAIClient(ctx, apiKey, m.defaultModel)
	case "openai":
		return llm.NewOpenAIClient(apiKey, m.defaultModel)
	case "anthropic":
		return llm.NewAnthropicClient(apiKey, m.defaultModel)
	default:
		return nil, fmt.Errorf("unsupported platform: %s", m.platform)
	}
}
