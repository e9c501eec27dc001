package config

import (
	"fmt"
	"strings"
)

// validSSLModes are the sslmode values accepted by PostgreSQL.
var validSSLModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// Validate checks configuration invariants that apply in every mode.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Provider {
	case ProviderOpenAI, ProviderOllama, ProviderGoogleAI:
	default:
		return fmt.Errorf("%w: %q (expected openai, ollama, or googleai)", ErrInvalidProvider, c.Provider)
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidModelName)
	}

	if c.MaxSteps < MinMaxSteps || c.MaxSteps > MaxMaxSteps {
		return fmt.Errorf("%w: %d (expected %d..%d)", ErrInvalidMaxSteps, c.MaxSteps, MinMaxSteps, MaxMaxSteps)
	}

	if strings.TrimSpace(c.PostgresHost) == "" {
		return fmt.Errorf("%w: host is empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: database name is empty", ErrInvalidPostgresDBName)
	}
	if !validSSLModes[c.PostgresSSLMode] {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}

	if c.Provider == ProviderOllama && strings.TrimSpace(c.OllamaHost) == "" {
		return fmt.Errorf("%w: host is empty", ErrInvalidOllamaHost)
	}

	return nil
}

// ValidateServe checks invariants required to run the HTTP server,
// on top of Validate. The openai provider needs a credential before
// any request is accepted; the chat endpoint also re-checks this per
// request so a misconfigured deployment fails with a fixed message.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.Provider == ProviderOpenAI && strings.TrimSpace(c.OpenAIAPIKey) == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrMissingAPIKey)
	}

	return nil
}
