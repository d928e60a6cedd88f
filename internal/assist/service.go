package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	genai "google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-flash"

// ErrDisabled is returned when no API key is configured. The rest of the
// server works fine without assist; only these endpoints refuse.
var ErrDisabled = errors.New("assist features are disabled")

// Service is a thin pass-through to the generative assist provider. It holds
// no state beyond the client; prompt in, text out.
type Service struct {
	client *genai.Client
	model  string
	log    *zerolog.Logger
}

// New creates the assist service. An empty API key yields a disabled service
// rather than an error, matching how the original degrades.
func New(ctx context.Context, apiKey, model string, logger *zerolog.Logger) (*Service, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if model == "" {
		model = DefaultModel
	}
	if apiKey == "" {
		logger.Info().Msg("assist API key not configured, assist features disabled")
		return &Service{model: model, log: logger}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	logger.Info().Str("model", model).Msg("assist provider initialized")
	return &Service{client: client, model: model, log: logger}, nil
}

// Enabled reports whether an API key was configured.
func (s *Service) Enabled() bool {
	return s.client != nil
}

// GenerateBoilerplate asks the provider for starter code from a description.
func (s *Service) GenerateBoilerplate(ctx context.Context, description, language string) (string, error) {
	return s.generate(ctx, boilerplatePrompt(description, language))
}

// ExplainCode asks the provider for a prose explanation of a snippet.
func (s *Service) ExplainCode(ctx context.Context, code, language string) (string, error) {
	return s.generate(ctx, explainPrompt(code, language))
}

// CompleteCode asks the provider for a continuation of a snippet.
func (s *Service) CompleteCode(ctx context.Context, code, language string) (string, error) {
	return s.generate(ctx, completePrompt(code, language))
}

// DebugCode asks the provider to diagnose a snippet given an error message.
func (s *Service) DebugCode(ctx context.Context, code, errorMessage, language string) (string, error) {
	return s.generate(ctx, debugPrompt(code, errorMessage, language))
}

func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("request was blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	// Clients paste the response straight into the editor; strip fences.
	return strings.ReplaceAll(strings.TrimSpace(sb.String()), "```", ""), nil
}

func languageOrDefault(language string) string {
	if language == "" {
		return "javascript"
	}
	return language
}

func boilerplatePrompt(description, language string) string {
	return fmt.Sprintf("Generate %s boilerplate code for: %q. Provide only raw code, no explanations or markdown.",
		languageOrDefault(language), description)
}

func explainPrompt(code, language string) string {
	lang := languageOrDefault(language)
	return fmt.Sprintf("Explain this %s code:\n\n```%s\n%s\n```", lang, lang, code)
}

func completePrompt(code, language string) string {
	return fmt.Sprintf("Complete the following %s code. Provide only the code that comes next.\n\n%s",
		languageOrDefault(language), code)
}

func debugPrompt(code, errorMessage, language string) string {
	lang := languageOrDefault(language)
	return fmt.Sprintf("Debug this %s code which produced an error.\n\nError:\n%s\n\nCode:\n```%s\n%s\n```\n\nExplain the bug and provide the corrected code.",
		lang, errorMessage, lang, code)
}
