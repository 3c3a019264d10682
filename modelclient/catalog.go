package modelclient

import (
	"fmt"
	"os"
	"strings"
)

// ProviderInfo describes a supported backend: its default model and where
// the API key comes from when the caller does not supply one.
type ProviderInfo struct {
	Name         string
	DefaultModel string
	KeyEnvVar    string
	KeyOptional  bool // local backends (ollama) need no key
}

// providerCatalog is the built-in catalog of supported backends.
var providerCatalog = []ProviderInfo{
	{Name: "openai", DefaultModel: "gpt-4o-mini", KeyEnvVar: "OPENAI_API_KEY"},
	{Name: "anthropic", DefaultModel: "claude-sonnet-4-5", KeyEnvVar: "ANTHROPIC_API_KEY"},
	{Name: "groq", DefaultModel: "llama-3.3-70b-versatile", KeyEnvVar: "GROQ_API_KEY"},
	{Name: "google", DefaultModel: "gemini-2.0-flash", KeyEnvVar: "GOOGLE_API_KEY"},
	{Name: "ollama", DefaultModel: "llama3", KeyEnvVar: "", KeyOptional: true},
}

// Lookup returns the catalog entry for a provider name.
func Lookup(name string) (ProviderInfo, bool) {
	name = strings.ToLower(name)
	for _, info := range providerCatalog {
		if info.Name == name {
			return info, true
		}
	}
	return ProviderInfo{}, false
}

// Supported returns the names of all supported providers, in catalog order.
func Supported() []string {
	names := make([]string, len(providerCatalog))
	for i, info := range providerCatalog {
		names[i] = info.Name
	}
	return names
}

// resolveAPIKey returns the explicit key, falling back to the provider's
// environment variable. A missing key for a backend that needs one is a
// configuration error surfaced before any network call.
func resolveAPIKey(info ProviderInfo, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if info.KeyOptional {
		return "", nil
	}
	if key := os.Getenv(info.KeyEnvVar); key != "" {
		return key, nil
	}
	return "", &ConfigurationError{ClientError: ClientError{
		Message: fmt.Sprintf("API key not provided and %s is not set", info.KeyEnvVar),
	}}
}
