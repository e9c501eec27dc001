package assistant

import (
	"context"
	"strings"

	"github.com/salesdesk/salesdesk/internal/log"
	"github.com/salesdesk/salesdesk/internal/store"
)

// BasePrompt is the default assistant persona, used when the response
// language is the default Spanish and no caller override is supplied.
const BasePrompt = "Eres un asistente útil para un ERP de ventas. Responde de forma breve y clara en español."

// DefaultLanguage is the response language the base persona assumes.
const DefaultLanguage = "Spanish"

// ProfileReader loads the singleton company profile.
type ProfileReader interface {
	GetCompanySettings(ctx context.Context) (*store.CompanySettings, bool, error)
}

// PromptBuilder assembles the system prompt from the base persona and
// the company profile. The profile is re-fetched on every request so
// admin edits take effect immediately.
type PromptBuilder struct {
	profiles ProfileReader
	language string
	logger   log.Logger
}

// NewPromptBuilder creates a PromptBuilder. language selects the
// response language of the base instruction; empty means
// DefaultLanguage. A nil logger discards output.
func NewPromptBuilder(profiles ProfileReader, language string, logger log.Logger) *PromptBuilder {
	if logger == nil {
		logger = log.NewNop()
	}
	return &PromptBuilder{profiles: profiles, language: language, logger: logger}
}

// basePrompt returns the base instruction for the configured language.
func (b *PromptBuilder) basePrompt() string {
	if b.language == "" || strings.EqualFold(b.language, DefaultLanguage) {
		return BasePrompt
	}
	return "You are a helpful assistant for a sales ERP. Respond briefly and clearly in " + b.language + "."
}

// Build returns the system prompt for one request. A non-empty
// override replaces the assembled prompt entirely. A missing profile
// or a profile fetch error degrades to the base persona; profile
// problems never block the chat.
func (b *PromptBuilder) Build(ctx context.Context, override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}

	base := b.basePrompt()

	settings, found, err := b.profiles.GetCompanySettings(ctx)
	if err != nil {
		b.logger.Warn("loading company profile for prompt", "error", err)
		return base
	}
	if !found {
		return base
	}

	fragment := companyFragment(settings)
	if fragment == "" {
		return base
	}
	return base + "\n\nContexto de la empresa:\n" + fragment
}

// companyFragment renders the non-empty profile fields, one per line,
// in a fixed order.
func companyFragment(s *store.CompanySettings) string {
	var lines []string
	if s.Name != "" {
		lines = append(lines, "Nombre de la empresa: "+s.Name)
	}
	if s.Description != "" {
		lines = append(lines, "Descripción: "+s.Description)
	}
	if s.Personality != "" {
		lines = append(lines, "Personalidad de marca: "+s.Personality)
	}
	if s.SalesMessaging != "" {
		lines = append(lines, "Mensajería de ventas: "+s.SalesMessaging)
	}
	return strings.Join(lines, "\n")
}
