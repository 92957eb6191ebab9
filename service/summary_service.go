package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"legalresearch-backend/models"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/google/generative-ai-go/genai"
)

const (
	maxRetries     = 3
	initialBackoff = time.Second

	maxPromptChars      = 30000
	summaryTemperature  = 0.2
	summarySystemPrompt = "You are a legal research assistant. Summarize court opinions for attorneys in plain, formal language. State the holding, the key facts and the reasoning. Do not speculate beyond the text."
)

// ErrGenerationFailed is returned when the model produced no usable text
var ErrGenerationFailed = errors.New("failed to generate summary")

// TextGenerator produces text for a prompt
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator generates text with a Gemini model
type GeminiGenerator struct {
	model *genai.GenerativeModel
}

// NewGeminiGenerator creates a generator for the named model
func NewGeminiGenerator(client *genai.Client, modelName string) *GeminiGenerator {
	model := client.GenerativeModel(modelName)
	model.SetTemperature(summaryTemperature)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(summarySystemPrompt)},
	}
	return &GeminiGenerator{model: model}
}

// Generate sends prompt to the model and joins the text parts of every candidate
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("API blocked prompt: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("API returned no candidates")
	}

	var out strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out.WriteString(string(text))
			}
		}
	}
	return out.String(), nil
}

// SummaryService summarizes opinions returned by the citation pipeline
type SummaryService struct {
	generator TextGenerator
	markdown  *converter.Converter
	backoff   time.Duration
	logger    *slog.Logger
}

// SummaryServiceOption is a functional option for SummaryService
type SummaryServiceOption func(*SummaryService)

// SummaryWithBackoff overrides the initial retry backoff
func SummaryWithBackoff(d time.Duration) SummaryServiceOption {
	return func(s *SummaryService) {
		s.backoff = d
	}
}

// SummaryWithLogger sets the logger
func SummaryWithLogger(logger *slog.Logger) SummaryServiceOption {
	return func(s *SummaryService) {
		s.logger = logger
	}
}

// NewSummaryService creates a new summary service
func NewSummaryService(generator TextGenerator, opts ...SummaryServiceOption) *SummaryService {
	s := &SummaryService{
		generator: generator,
		markdown: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		backoff: initialBackoff,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize returns a summary of the opinion carried by a resolution result.
// Results without opinion text yield ErrGenerationFailed.
func (s *SummaryService) Summarize(ctx context.Context, result models.ResolutionResult) (string, error) {
	var citation, text string
	switch r := result.(type) {
	case *models.SingleResult:
		citation, text = r.Citation, r.Text
	case *models.SearchResult:
		citation, text = r.Citation, r.Text
	default:
		return "", ErrGenerationFailed
	}

	if text == "" || text == models.OpinionTextUnavailable || text == models.SearchTextUnavailable {
		return "", ErrGenerationFailed
	}

	return s.SummarizeOpinion(ctx, citation, text)
}

// SummarizeOpinion summarizes opinion HTML (or plain text) for a citation
func (s *SummaryService) SummarizeOpinion(ctx context.Context, citation, opinion string) (string, error) {
	prompt := fmt.Sprintf("Summarize the court opinion cited as %s.\n\nOpinion:\n%s", citation, s.toMarkdown(opinion))
	if len(prompt) > maxPromptChars {
		s.logger.Warn("prompt too long, truncating", "chars", len(prompt), "limit", maxPromptChars)
		prompt = truncateUTF8(prompt, maxPromptChars) + "\n\n[Content truncated due to length...]"
	}

	var summary string
	var err error
	backoff := s.backoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		summary, err = s.generator.Generate(ctx, prompt)
		if err != nil {
			s.logger.Warn("summary attempt failed", "citation", citation, "attempt", attempt+1, "error", err)
			if attempt == maxRetries-1 {
				return "", fmt.Errorf("failed to generate summary after %d attempts: %w", maxRetries, err)
			}
			continue
		}

		summary = strings.TrimSpace(summary)
		if summary != "" {
			return summary, nil
		}
	}

	return "", ErrGenerationFailed
}

// truncateUTF8 cuts s to at most n bytes without splitting a character
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// toMarkdown converts opinion HTML to Markdown, keeping the input on failure
func (s *SummaryService) toMarkdown(opinion string) string {
	if !strings.Contains(opinion, "<") {
		return opinion
	}
	md, err := s.markdown.ConvertString(opinion)
	if err != nil || strings.TrimSpace(md) == "" {
		return opinion
	}
	return strings.TrimSpace(md)
}
