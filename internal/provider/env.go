package provider

import (
	"os"
	"strings"
)

// platformEnvVars maps canonical platform names to the environment variables
// that can supply their API keys. Multiple variables allow backwards-
// compatible aliases (e.g., GEMINI_API_KEY and GOOGLE_API_KEY).
var platformEnvVars = map[string][]string{
	"google":    {"GEMINI_API_KEY", "GOOGLE_API_KEY", "GOOGLE_GENAI_API_KEY"},
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
}

// canonicalPlatformName normalizes platform aliases so they share the same
// environment-variable mapping.
func canonicalPlatformName(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "google", "googleai", "gemini":
		return "google"
	case "claude":
		return "anthropic"
	default:
		return strings.ToLower(strings.TrimSpace(name))
	}
}

// resolveAPIKey returns the API key to use for a platform, falling back to
// known environment variables. Returned value is trimmed; empty string
// signals that no key is available.
func resolveAPIKey(platformName string) string {
	canonical := canonicalPlatformName(platformName)
	for _, envVar := range platformEnvVars[canonical] {
		if value := strings.TrimSpace(os.Getenv(envVar)); value != "" {
			return value
		}
	}
	return ""
}

// EnvVarHints returns the known environment variables for a platform, used
// in startup error messages so operators know what to set.
func EnvVarHints(platformName string) []string {
	hints := platformEnvVars[canonicalPlatformName(platformName)]
	out := make([]string, len(hints))
	copy(out, hints)
	return out
}
